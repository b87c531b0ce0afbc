package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatAmount renders an amount the way every outbound message shows money:
// rounded to whole units, digits grouped by thousands.
func FormatAmount(d decimal.Decimal) string {
	s := d.Round(0).String()

	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}

	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}
