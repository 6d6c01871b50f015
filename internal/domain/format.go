package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatAmount rounds v to a whole unit (half away from zero) and groups
// thousands with a single space: 12600.50 -> "12 601".
func FormatAmount(v decimal.Decimal) string {
	digits := v.Round(0).StringFixed(0)
	sign := ""
	if strings.HasPrefix(digits, "-") {
		sign, digits = "-", digits[1:]
	}
	if len(digits) <= 3 {
		return sign + digits
	}

	var b strings.Builder
	b.Grow(len(digits) + len(digits)/3 + 1)
	b.WriteString(sign)
	head := len(digits) % 3
	if head > 0 {
		b.WriteString(digits[:head])
	}
	for i := head; i < len(digits); i += 3 {
		if b.Len() > len(sign) {
			b.WriteByte(' ')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
