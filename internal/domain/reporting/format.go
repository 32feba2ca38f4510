package reporting

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// dateTokens equivalencias de los formatos de fecha guardados en las definiciones.
var dateTokens = strings.NewReplacer(
	"yyyy", "2006", "yy", "06",
	"MM", "01", "dd", "02",
	"HH", "15", "mm", "04", "ss", "05",
)

// Decimal valor numérico de una celda, si lo es.
func Decimal(v any) (decimal.Decimal, bool) {
	switch x := v.(type) {
	case decimal.Decimal:
		return x, true
	case *decimal.Decimal:
		if x == nil {
			return decimal.Zero, false
		}
		return *x, true
	case int:
		return decimal.NewFromInt(int64(x)), true
	case int32:
		return decimal.NewFromInt32(x), true
	case int64:
		return decimal.NewFromInt(x), true
	case float32:
		return decimal.NewFromFloat32(x), true
	case float64:
		return decimal.NewFromFloat(x), true
	}
	return decimal.Zero, false
}

// FormatCell texto de una celda según el formato de la columna:
// N{n} decimales, P{n} porcentaje, fechas con yyyy/MM/dd/HH/mm/ss. Sin formato usa el valor tal cual.
func FormatCell(v any, format string) string {
	if v == nil {
		return ""
	}
	format = strings.TrimSpace(format)
	if d, ok := Decimal(v); ok {
		return formatNumber(d, format)
	}
	switch x := v.(type) {
	case time.Time:
		if format == "" || !strings.ContainsAny(format, "yMdHms") {
			if x.Hour() == 0 && x.Minute() == 0 && x.Second() == 0 {
				return x.Format(time.DateOnly)
			}
			return x.Format(time.DateTime)
		}
		return x.Format(dateTokens.Replace(format))
	case *time.Time:
		if x == nil {
			return ""
		}
		return FormatCell(*x, format)
	case bool:
		if x {
			return "Yes"
		}
		return "No"
	case string:
		return x
	case *string:
		if x == nil {
			return ""
		}
		return *x
	}
	return fmt.Sprint(v)
}

func formatNumber(d decimal.Decimal, format string) string {
	if format == "" {
		return d.String()
	}
	places := func(s string, def int32) int32 {
		if s == "" {
			return def
		}
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 || n > 10 {
			return def
		}
		return int32(n)
	}
	switch kind := strings.ToUpper(format[:1]); kind {
	case "N", "F":
		return d.StringFixed(places(format[1:], 2))
	case "P":
		return d.Mul(decimal.NewFromInt(100)).StringFixed(places(format[1:], 2)) + "%"
	}
	return d.String()
}
