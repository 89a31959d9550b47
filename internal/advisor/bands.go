package advisor

import (
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// Band is one row of a threshold table: values >= Lower (up to the next
// band's Lower) get Label.
type Band struct {
	Lower float64 `yaml:"lower" json:"lower"`
	Label string  `yaml:"label" json:"label"`
}

// Bands must be sorted by strictly ascending Lower. The first band also
// absorbs every value below its bound, so the mapping is total.
type Bands []Band

func (b Bands) Classify(v float64) string {
	if len(b) == 0 {
		return ""
	}
	if math.IsNaN(v) {
		return b[0].Label
	}
	label := b[0].Label
	for _, band := range b {
		if v >= band.Lower {
			label = band.Label
			continue
		}
		break
	}
	return label
}

func (b Bands) validate(name string) error {
	if len(b) == 0 {
		return fmt.Errorf("thresholds: %s has no bands", name)
	}
	for i, band := range b {
		if band.Label == "" {
			return fmt.Errorf("thresholds: %s band %d has no label", name, i)
		}
		if i > 0 && band.Lower <= b[i-1].Lower {
			return fmt.Errorf("thresholds: %s bands not ascending at %d", name, i)
		}
	}
	return nil
}

const (
	LabelLowCTR       = "low-ctr"
	LabelLowCVR       = "low-cvr"
	LabelAcceptable   = "acceptable"
	LabelCriticalLoss = "critical-loss"
	LabelWarning      = "warning"
	LabelStable       = "stable"
	LabelExpand       = "expand-aggressively"
)

type Thresholds struct {
	CTR  Bands `yaml:"ctr" json:"ctr"`
	CVR  Bands `yaml:"cvr" json:"cvr"`
	ROAS Bands `yaml:"roas" json:"roas"`
	// ProfitOverrideLabel es la banda ROAS forzada cuando net_profit < 0.
	ProfitOverrideLabel string `yaml:"profit_override_label" json:"profit_override_label"`
	// PlaceholderKeys are group keys that never count as waste.
	PlaceholderKeys []string `yaml:"placeholder_keys" json:"placeholder_keys"`
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		CTR:  Bands{{0, LabelLowCTR}, {0.01, LabelAcceptable}},
		CVR:  Bands{{0, LabelLowCVR}, {0.05, LabelAcceptable}},
		ROAS: Bands{{0, LabelCriticalLoss}, {2.0, LabelWarning}, {4.0, LabelStable}, {6.0, LabelExpand}},

		ProfitOverrideLabel: LabelCriticalLoss,
		PlaceholderKeys:     []string{"", "-"},
	}
}

func (t Thresholds) Validate() error {
	return errors.Join(t.CTR.validate("ctr"), t.CVR.validate("cvr"), t.ROAS.validate("roas"))
}

// LoadThresholds reads a YAML band table. Sections left out keep their defaults.
func LoadThresholds(path string) (Thresholds, error) {
	t := DefaultThresholds()
	if path == "" {
		return t, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return t, fmt.Errorf("read thresholds: %w", err)
	}
	var f Thresholds
	if err := yaml.Unmarshal(data, &f); err != nil {
		return t, fmt.Errorf("parse thresholds: %w", err)
	}
	if f.CTR != nil {
		t.CTR = f.CTR
	}
	if f.CVR != nil {
		t.CVR = f.CVR
	}
	if f.ROAS != nil {
		t.ROAS = f.ROAS
	}
	if f.ProfitOverrideLabel != "" {
		t.ProfitOverrideLabel = f.ProfitOverrideLabel
	}
	if f.PlaceholderKeys != nil {
		t.PlaceholderKeys = f.PlaceholderKeys
	}
	if err := t.Validate(); err != nil {
		return DefaultThresholds(), err
	}
	return t, nil
}
