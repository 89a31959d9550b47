package schema

import "github.com/AngelCh415/adreport/internal/models"

// Rule is one row of the resolution table: exact aliases in priority order,
// then the substring keywords used only when no alias matched.
type Rule struct {
	Field    string
	Aliases  []string
	Keywords []string
	Required bool
}

// numericRules: el orden de alias codifica la variante del reporte (14d antes que 1d).
var numericRules = []Rule{
	{
		Field:    models.FieldImpressions,
		Aliases:  []string{"노출수", "노출", "impressions", "Impressions"},
		Keywords: []string{"노출", "impression"},
		Required: true,
	},
	{
		Field:    models.FieldClicks,
		Aliases:  []string{"클릭수", "클릭", "clicks", "Clicks"},
		Keywords: []string{"클릭", "click"},
		Required: true,
	},
	{
		Field:    models.FieldSpend,
		Aliases:  []string{"광고비", "집행 광고비", "광고비(원)", "spend", "Spend", "cost", "Cost"},
		Keywords: []string{"광고비", "spend", "cost"},
		Required: true,
	},
	{
		Field:    models.FieldQuantity,
		Aliases:  []string{"총 판매수량(14일)", "총 판매수량(1일)", "총 판매수량", "전환 판매수량", "판매수량", "quantity", "Quantity"},
		Keywords: []string{"판매수량", "quantity", "qty"},
		Required: true,
	},
	{
		Field:    models.FieldRevenue,
		Aliases:  []string{"총 전환매출액(14일)", "총 전환매출액(1일)", "총 전환매출액", "전환매출액", "매출액", "revenue", "Revenue"},
		Keywords: []string{"매출", "revenue"},
	},
}

// groupAliases in priority order: placement, keyword, campaign, product, ad group.
var groupAliases = []string{
	"광고 노출 지면", "노출 지면", "지면", "placement", "Placement",
	"키워드", "검색 키워드", "keyword", "Keyword",
	"캠페인명", "캠페인", "campaign", "Campaign",
	"광고집행 상품명", "상품명", "product", "Product",
	"광고그룹", "광고그룹명", "ad_group", "Ad Group",
}

var keywordAliases = []string{"키워드", "검색 키워드", "keyword", "Keyword"}

// NumericRules returns a copy of the default numeric resolution table.
func NumericRules() []Rule {
	out := make([]Rule, len(numericRules))
	copy(out, numericRules)
	return out
}

func GroupAliases() []string {
	return append([]string(nil), groupAliases...)
}
