package models

// RawRecord es una fila del reporte tal cual llega: nombre de columna -> celda.
type RawRecord map[string]any

// Table keeps the header order, which the resolver needs for first-match rules.
type Table struct {
	Columns []string
	Rows    []RawRecord
}

// Canonical fields.
const (
	FieldGroup       = "group_dimension"
	FieldKeyword     = "keyword"
	FieldImpressions = "impressions"
	FieldClicks      = "clicks"
	FieldSpend       = "spend"
	FieldQuantity    = "quantity"
	FieldRevenue     = "revenue"
)

type MatchMode string

const (
	MatchExact    MatchMode = "exact"
	MatchContains MatchMode = "contains"
	MatchFirstCol MatchMode = "first_column"
)

type LooseMatch struct {
	Field   string    `json:"field"`
	Column  string    `json:"column"`
	Keyword string    `json:"keyword,omitempty"`
	Mode    MatchMode `json:"mode"`
}

// ColumnMap: canonical field -> columna real del input.
type ColumnMap struct {
	Fields map[string]string `json:"fields"`
	Loose  []LooseMatch      `json:"loose_matches,omitempty"`
}

func (m ColumnMap) Column(field string) (string, bool) {
	c, ok := m.Fields[field]
	return c, ok
}

type GroupRow struct {
	Key         string  `json:"key"`
	Impressions float64 `json:"impressions"`
	Clicks      float64 `json:"clicks"`
	Spend       float64 `json:"spend"`
	Quantity    float64 `json:"quantity"`
	Revenue     float64 `json:"revenue"`
	HasRevenue  bool    `json:"has_revenue"`
}

type MetricRow struct {
	GroupRow
	CTR       float64 `json:"ctr"`
	CVR       float64 `json:"cvr"`
	CPC       float64 `json:"cpc"`
	ROAS      float64 `json:"roas"`
	NetProfit float64 `json:"net_profit"`
}

type WasteRow struct {
	Key         string  `json:"key"`
	Spend       float64 `json:"spend"`
	Quantity    float64 `json:"quantity"`
	Impressions float64 `json:"impressions"`
	Clicks      float64 `json:"clicks"`
}

type RevenueMode string

const (
	RevenueRealPrice RevenueMode = "real_price"
	RevenueReport    RevenueMode = "report"
)

// Params es la configuración económica que entrega el caller.
type Params struct {
	UnitPrice float64 `json:"unit_price"`
	UnitCost  float64 `json:"unit_cost"`
	Discount  float64 `json:"discount,omitempty"`
	// GroupBy fuerza la columna de agrupación; vacío = prioridad por alias.
	GroupBy string `json:"group_by,omitempty"`
}

type Recommendation struct {
	CTRBand   string `json:"ctr_band"`
	CVRBand   string `json:"cvr_band"`
	ROASBand  string `json:"roas_band"`
	Override  bool   `json:"profit_override"`
	Rationale string `json:"rationale_text,omitempty"`
}

type Result struct {
	RunID           string         `json:"run_id"`
	ColumnMap       ColumnMap      `json:"column_map"`
	RevenueMode     RevenueMode    `json:"revenue_mode"`
	GroupRows       []MetricRow    `json:"group_rows"`
	Totals          MetricRow      `json:"totals"`
	WasteRows       []WasteRow     `json:"waste_rows"`
	TotalWasted     float64        `json:"total_wasted_spend"`
	ProfitableRows  []MetricRow    `json:"profitable_rows"`
	Recommendations Recommendation `json:"recommendations"`
	CoercedCells    int            `json:"coerced_cells"`
	Warnings        []string       `json:"warnings,omitempty"`
}
