package aggregate

import (
	"math"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AngelCh415/adreport/internal/models"
)

func colMap() models.ColumnMap {
	return models.ColumnMap{Fields: map[string]string{
		models.FieldGroup:       "지면",
		models.FieldImpressions: "노출수",
		models.FieldClicks:      "클릭수",
		models.FieldSpend:       "광고비",
		models.FieldQuantity:    "판매수량",
	}}
}

func sampleTable() models.Table {
	return models.Table{
		Columns: []string{"지면", "노출수", "클릭수", "광고비", "판매수량"},
		Rows: []models.RawRecord{
			{"지면": "검색", "노출수": "1,000", "클릭수": "50", "광고비": "5,000", "판매수량": "2"},
			{"지면": "비검색", "노출수": 300.0, "클릭수": 3, "광고비": "900", "판매수량": "-"},
			{"지면": "검색", "노출수": "500", "클릭수": "10", "광고비": "1000", "판매수량": ""},
			{"지면": " 비검색 ", "노출수": "n/a", "클릭수": nil, "광고비": "100", "판매수량": "1"},
		},
	}
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in   any
		want float64
		ok   bool
	}{
		{"1,234.5", 1234.5, true},
		{" 42 ", 42, true},
		{"-", 0, true},
		{"", 0, true},
		{nil, 0, true},
		{7, 7, true},
		{int64(9), 9, true},
		{3.5, 3.5, true},
		{"abc", 0, false},
		{"12원", 0, false},
		{"-5", 0, false},
		{"1e308", 1e308, true},
		{"1e400", 0, false},
		{math.Inf(1), 0, false},
		{math.NaN(), 0, false},
		{true, 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseNumber(tt.in)
		assert.Equal(t, tt.want, got, "input %#v", tt.in)
		assert.Equal(t, tt.ok, ok, "input %#v", tt.in)
	}
}

func TestByDimensionSumsInFirstAppearanceOrder(t *testing.T) {
	rows, st, err := ByDimension(sampleTable(), colMap(), models.FieldGroup)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "검색", rows[0].Key)
	assert.Equal(t, 1500.0, rows[0].Impressions)
	assert.Equal(t, 60.0, rows[0].Clicks)
	assert.Equal(t, 6000.0, rows[0].Spend)
	assert.Equal(t, 2.0, rows[0].Quantity)
	assert.False(t, rows[0].HasRevenue)

	assert.Equal(t, "비검색", rows[1].Key)
	assert.Equal(t, 300.0, rows[1].Impressions)
	assert.Equal(t, 1000.0, rows[1].Spend)
	assert.Equal(t, 1.0, rows[1].Quantity)

	assert.Equal(t, 4, st.Rows)
	assert.Equal(t, 1, st.CoercedCells)
	require.Len(t, st.Samples, 1)
	assert.Equal(t, Coercion{Row: 3, Field: models.FieldImpressions, Column: "노출수", Value: "n/a"}, st.Samples[0])
}

func TestByDimensionOrderInvariance(t *testing.T) {
	base := sampleTable()
	want, _, err := ByDimension(base, colMap(), models.FieldGroup)
	require.NoError(t, err)

	rnd := rand.New(rand.NewSource(7))
	for i := 0; i < 20; i++ {
		shuffled := base
		shuffled.Rows = append([]models.RawRecord(nil), base.Rows...)
		rnd.Shuffle(len(shuffled.Rows), func(a, b int) { shuffled.Rows[a], shuffled.Rows[b] = shuffled.Rows[b], shuffled.Rows[a] })

		got, _, err := ByDimension(shuffled, colMap(), models.FieldGroup)
		require.NoError(t, err)
		assert.ElementsMatch(t, byKey(want), byKey(got))
	}
}

func TestByDimensionDecimalSumsIgnoreOrder(t *testing.T) {
	cm := models.ColumnMap{Fields: map[string]string{models.FieldGroup: "지면", models.FieldSpend: "광고비"}}
	tbl := func(cells ...string) models.Table {
		out := models.Table{Columns: []string{"지면", "광고비"}}
		for _, c := range cells {
			out.Rows = append(out.Rows, models.RawRecord{"지면": "검색", "광고비": c})
		}
		return out
	}

	fwd, _, err := ByDimension(tbl("0.1", "0.2", "0.3"), cm, models.FieldGroup)
	require.NoError(t, err)
	rev, _, err := ByDimension(tbl("0.3", "0.2", "0.1"), cm, models.FieldGroup)
	require.NoError(t, err)

	assert.Equal(t, 0.6, fwd[0].Spend)
	assert.Equal(t, fwd[0].Spend, rev[0].Spend)
}

func TestByDimensionOverflowSaturates(t *testing.T) {
	cm := models.ColumnMap{Fields: map[string]string{models.FieldGroup: "지면", models.FieldSpend: "광고비"}}
	tbl := models.Table{
		Columns: []string{"지면", "광고비"},
		Rows: []models.RawRecord{
			{"지면": "검색", "광고비": "1e308"},
			{"지면": "검색", "광고비": "1e308"},
			{"지면": "검색", "광고비": "1e400"},
		},
	}
	rows, st, err := ByDimension(tbl, cm, models.FieldGroup)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	assert.False(t, math.IsInf(rows[0].Spend, 0))
	assert.Equal(t, math.MaxFloat64, rows[0].Spend)
	// 1e400 no cabe en float64, y la suma tampoco
	assert.Equal(t, 2, st.CoercedCells)
	require.Len(t, st.Samples, 2)
	assert.Equal(t, 2, st.Samples[0].Row)
	assert.Equal(t, -1, st.Samples[1].Row)
}

func TestByDimensionUnresolved(t *testing.T) {
	_, _, err := ByDimension(sampleTable(), colMap(), models.FieldKeyword)
	assert.Error(t, err)
}

func byKey(rows []models.GroupRow) []models.GroupRow {
	out := append([]models.GroupRow(nil), rows...)
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}
