package aggregate

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/AngelCh415/adreport/internal/models"
)

const maxSamples = 5

// Coercion is one cell that could not be parsed and was summed as zero, or
// (Row -1) a group sum that overflowed float64 and was saturated.
type Coercion struct {
	Row    int    `json:"row"`
	Field  string `json:"field"`
	Column string `json:"column"`
	Value  string `json:"value"`
}

type Stats struct {
	Rows         int
	CoercedCells int
	Samples      []Coercion
}

var sumFields = []string{
	models.FieldImpressions,
	models.FieldClicks,
	models.FieldSpend,
	models.FieldQuantity,
	models.FieldRevenue,
}

// ByDimension groups rows by the column resolved for dimField and sums every
// numeric field. Output keeps first-appearance order of the group values.
// Sums are exact decimals, so the totals do not depend on row order.
func ByDimension(t models.Table, cm models.ColumnMap, dimField string) ([]models.GroupRow, Stats, error) {
	dimCol, ok := cm.Column(dimField)
	if !ok {
		return nil, Stats{}, fmt.Errorf("aggregate: %s not resolved", dimField)
	}
	_, hasRevenue := cm.Column(models.FieldRevenue)

	var st Stats
	agg := make(map[string]*groupAcc)
	order := make([]string, 0)

	for i, r := range t.Rows {
		st.Rows++
		key := KeyString(r[dimCol])
		g, ok := agg[key]
		if !ok {
			g = &groupAcc{}
			agg[key] = g
			order = append(order, key)
		}
		for j, f := range sumFields {
			col, ok := cm.Column(f)
			if !ok {
				continue
			}
			raw := r[col]
			v, clean := ParseDecimal(raw)
			if !clean {
				st.add(Coercion{Row: i, Field: f, Column: col, Value: fmt.Sprint(raw)})
			}
			g.sums[j] = g.sums[j].Add(v)
		}
	}

	out := make([]models.GroupRow, 0, len(order))
	for _, k := range order {
		row := models.GroupRow{Key: k, HasRevenue: hasRevenue}
		for j, f := range sumFields {
			v, _ := agg[k].sums[j].Float64()
			if math.IsInf(v, 0) {
				// la suma excede float64: se satura y cuenta como celda coercionada
				v = math.MaxFloat64
				col, _ := cm.Column(f)
				st.add(Coercion{Row: -1, Field: f, Column: col, Value: agg[k].sums[j].String()})
			}
			set(&row, f, v)
		}
		out = append(out, row)
	}
	return out, st, nil
}

type groupAcc struct {
	sums [5]decimal.Decimal
}

func (st *Stats) add(c Coercion) {
	st.CoercedCells++
	if len(st.Samples) < maxSamples {
		st.Samples = append(st.Samples, c)
	}
}

func set(g *models.GroupRow, field string, v float64) {
	switch field {
	case models.FieldImpressions:
		g.Impressions = v
	case models.FieldClicks:
		g.Clicks = v
	case models.FieldSpend:
		g.Spend = v
	case models.FieldQuantity:
		g.Quantity = v
	case models.FieldRevenue:
		g.Revenue = v
	}
}
