package advisor

import (
	"fmt"
	"sort"
	"strings"

	"github.com/AngelCh415/adreport/internal/models"
)

// Advise bands one metric row (usually the totals). In real-price mode a
// negative net profit forces the ROAS band to the override label no matter
// what the raw ratio says; in report mode profit is not computable from
// user economics and the ratio table alone decides.
func Advise(m models.MetricRow, t Thresholds, mode models.RevenueMode) models.Recommendation {
	rec := models.Recommendation{
		CTRBand:  t.CTR.Classify(m.CTR),
		CVRBand:  t.CVR.Classify(m.CVR),
		ROASBand: t.ROAS.Classify(m.ROAS),
	}
	if mode == models.RevenueRealPrice && m.NetProfit < 0 {
		override := t.ProfitOverrideLabel
		if override == "" && len(t.ROAS) > 0 {
			override = t.ROAS[0].Label
		}
		rec.Override = rec.ROASBand != override
		rec.ROASBand = override
	}
	rec.Rationale = rationale(m, rec, mode)
	return rec
}

func rationale(m models.MetricRow, rec models.Recommendation, mode models.RevenueMode) string {
	var b strings.Builder
	fmt.Fprintf(&b, "CTR %.2f%% (%s), CVR %.2f%% (%s), ROAS %.0f%% (%s)", m.CTR*100, rec.CTRBand, m.CVR*100, rec.CVRBand, m.ROAS*100, rec.ROASBand)
	if mode == models.RevenueRealPrice {
		fmt.Fprintf(&b, "; net profit %.0f", m.NetProfit)
		if rec.Override {
			b.WriteString(" is negative, ROAS band overridden")
		}
	} else {
		b.WriteString("; revenue taken from report")
	}
	return b.String()
}

// Waste flags rows that spent money without selling anything, skipping
// placeholder keys. Sorted by spend descending, then key ascending.
func Waste(rows []models.GroupRow, t Thresholds) ([]models.WasteRow, float64) {
	skip := make(map[string]struct{}, len(t.PlaceholderKeys))
	for _, k := range t.PlaceholderKeys {
		skip[strings.TrimSpace(k)] = struct{}{}
	}
	out := []models.WasteRow{}
	var total float64
	for _, r := range rows {
		if _, ok := skip[strings.TrimSpace(r.Key)]; ok {
			continue
		}
		if r.Spend > 0 && r.Quantity == 0 {
			out = append(out, models.WasteRow{Key: r.Key, Spend: r.Spend, Quantity: r.Quantity, Impressions: r.Impressions, Clicks: r.Clicks})
			total += r.Spend
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Spend != out[j].Spend {
			return out[i].Spend > out[j].Spend
		}
		return out[i].Key < out[j].Key
	})
	return out, total
}

// Profitable keeps rows that sold and did not lose money, same ordering as Waste.
// Net profit needs the user's unit price, so report mode yields no rows.
func Profitable(rows []models.MetricRow, mode models.RevenueMode) []models.MetricRow {
	out := []models.MetricRow{}
	if mode != models.RevenueRealPrice {
		return out
	}
	for _, r := range rows {
		if r.Quantity > 0 && r.NetProfit >= 0 {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Spend != out[j].Spend {
			return out[i].Spend > out[j].Spend
		}
		return out[i].Key < out[j].Key
	})
	return out
}
