package metrics

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/AngelCh415/adreport/internal/models"
)

const TotalKey = "합계"

type Derived struct {
	Rows   []models.MetricRow
	Totals models.MetricRow
	Mode   models.RevenueMode
}

// Ratio is num/den, or 0 when den is not positive or the quotient is not finite.
func Ratio(num, den float64) float64 {
	if den <= 0 {
		return 0
	}
	r := num / den
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0
	}
	return r
}

// finite satura ±Inf a ±MaxFloat64 y NaN a 0 para que el JSON siempre se pueda codificar.
func finite(f float64) float64 {
	switch {
	case math.IsNaN(f):
		return 0
	case math.IsInf(f, 1):
		return math.MaxFloat64
	case math.IsInf(f, -1):
		return -math.MaxFloat64
	}
	return f
}

// ModeFor: con precio configurado manda la economía del usuario sobre el revenue del reporte.
func ModeFor(p models.Params) models.RevenueMode {
	if p.UnitPrice > 0 {
		return models.RevenueRealPrice
	}
	return models.RevenueReport
}

// Derive computes the per-group metric rows and the totals row. Totals are
// recomputed from summed base fields, never from per-group ratios, and the
// sum is exact so group order does not change it.
func Derive(groups []models.GroupRow, p models.Params) Derived {
	mode := ModeFor(p)
	rows := make([]models.MetricRow, 0, len(groups))
	var sums [5]decimal.Decimal
	sum := models.GroupRow{Key: TotalKey}
	for _, g := range groups {
		rows = append(rows, Row(g, p, mode))
		for i, v := range []float64{g.Impressions, g.Clicks, g.Spend, g.Quantity, g.Revenue} {
			sums[i] = sums[i].Add(dec(v))
		}
		sum.HasRevenue = sum.HasRevenue || g.HasRevenue
	}
	for i, dst := range []*float64{&sum.Impressions, &sum.Clicks, &sum.Spend, &sum.Quantity, &sum.Revenue} {
		v, _ := sums[i].Float64()
		*dst = finite(v)
	}
	return Derived{Rows: rows, Totals: Row(sum, p, mode), Mode: mode}
}

// Row derives one MetricRow from its base sums.
func Row(g models.GroupRow, p models.Params, mode models.RevenueMode) models.MetricRow {
	m := models.MetricRow{GroupRow: g}
	if mode == models.RevenueRealPrice {
		m.Revenue = finite(g.Quantity * p.UnitPrice)
	}
	m.CTR = Ratio(g.Clicks, g.Impressions)
	m.CVR = Ratio(g.Quantity, g.Clicks)
	m.CPC = math.Trunc(Ratio(g.Spend, g.Clicks))
	m.ROAS = Ratio(m.Revenue, g.Spend)
	m.NetProfit = finite(g.Quantity*(p.UnitPrice-p.UnitCost-p.Discount) - g.Spend)
	return m
}

func dec(f float64) decimal.Decimal {
	return decimal.NewFromFloat(finite(f))
}
