package metrics

import (
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/AngelCh415/adreport/internal/models"
)

func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

var sortKeys = map[string]func(models.MetricRow) float64{
	"impressions": func(m models.MetricRow) float64 { return m.Impressions },
	"clicks":      func(m models.MetricRow) float64 { return m.Clicks },
	"spend":       func(m models.MetricRow) float64 { return m.Spend },
	"quantity":    func(m models.MetricRow) float64 { return m.Quantity },
	"revenue":     func(m models.MetricRow) float64 { return m.Revenue },
	"ctr":         func(m models.MetricRow) float64 { return m.CTR },
	"cvr":         func(m models.MetricRow) float64 { return m.CVR },
	"cpc":         func(m models.MetricRow) float64 { return m.CPC },
	"roas":        func(m models.MetricRow) float64 { return m.ROAS },
	"net_profit":  func(m models.MetricRow) float64 { return m.NetProfit },
}

// View re-sorts and paginates a copy of rows for presentation. Supported
// query values: sort=<metric> (descending; "key" sorts ascending by group),
// limit (capped at 1000), offset. Without sort the first-appearance order is
// kept; without limit every row is returned.
func View(rows []models.MetricRow, v url.Values) []models.MetricRow {
	out := append([]models.MetricRow(nil), rows...)
	by := norm(v.Get("sort"))
	if by == "key" {
		sort.SliceStable(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	} else if f, ok := sortKeys[by]; ok {
		// orden determinista: empate por key
		sort.SliceStable(out, func(i, j int) bool {
			if f(out[i]) != f(out[j]) {
				return f(out[i]) > f(out[j])
			}
			return out[i].Key < out[j].Key
		})
	}
	limit := atoiDef(v.Get("limit"), 0)
	offset := atoiDef(v.Get("offset"), 0)
	limit, offset = clampLimitOffset(limit, offset, len(out))
	return paginate(out, limit, offset)
}

func paginate[T any](rows []T, limit, offset int) []T {
	if offset >= len(rows) {
		return []T{}
	}
	end := offset + limit
	if end > len(rows) {
		end = len(rows)
	}
	return rows[offset:end]
}

func atoiDef(s string, d int) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		return d
	}
	return v
}
func clampLimitOffset(limit, offset, n int) (int, int) {
	if offset < 0 {
		offset = 0
	}
	// sin limit explícito se devuelven todas las filas; el tope aplica sólo a lo pedido
	if limit <= 0 {
		limit = n
	} else if limit > 1000 {
		limit = 1000
	}
	if offset > n {
		offset = n
	}
	return limit, offset
}
