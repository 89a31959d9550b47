package aggregate

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseNumber applies the lossy-but-total coercion policy. ok is false when
// the cell held something that was not a number and got forced to zero;
// blanks and "-" are legitimate zeros and do not count.
func ParseNumber(v any) (f float64, ok bool) {
	d, ok := ParseDecimal(v)
	f, _ = d.Float64()
	return f, ok
}

// ParseDecimal is ParseNumber without the float rounding; sums are
// accumulated on these so the grouping result does not depend on row order.
func ParseDecimal(v any) (decimal.Decimal, bool) {
	switch x := v.(type) {
	case nil:
		return decimal.Zero, true
	case float64:
		return fromFloat(x)
	case float32:
		return fromFloat(float64(x))
	case int:
		return fromInt(int64(x))
	case int64:
		return fromInt(x)
	case int32:
		return fromInt(int64(x))
	case uint:
		return parseString(strconv.FormatUint(uint64(x), 10))
	case uint64:
		return parseString(strconv.FormatUint(x, 10))
	case bool:
		return decimal.Zero, false
	case string:
		return parseString(x)
	case []byte:
		return parseString(string(x))
	default:
		return decimal.Zero, false
	}
}

func parseString(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", "")
	if s == "" || s == "-" {
		return decimal.Zero, true
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return clean(d)
}

func fromFloat(f float64) (decimal.Decimal, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero, false
	}
	return clean(decimal.NewFromFloat(f))
}

func fromInt(i int64) (decimal.Decimal, bool) {
	return clean(decimal.NewFromInt(i))
}

// negativos y valores fuera de rango float64 se llevan a cero
func clean(d decimal.Decimal) (decimal.Decimal, bool) {
	if d.IsNegative() {
		return decimal.Zero, false
	}
	if f, _ := d.Float64(); math.IsInf(f, 0) {
		return decimal.Zero, false
	}
	return d, true
}

// KeyString stringifies a dimension cell the way it is shown to the user.
func KeyString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case []byte:
		return strings.TrimSpace(string(x))
	default:
		return strings.TrimSpace(fmt.Sprint(x))
	}
}
