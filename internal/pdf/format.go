package pdf

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	thousandsSep = '.'
	dateLayout   = "06-01-02 15:04:05"
)

// FormatMoney renders an amount rounded half-to-even to whole units with "."
// as thousands separator (1234567.5 -> "1.234.568"). No decimal part is shown.
func FormatMoney(d decimal.Decimal) string {
	digits := d.RoundBank(0).StringFixed(0)
	neg := strings.HasPrefix(digits, "-")
	digits = strings.TrimPrefix(digits, "-")

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(thousandsSep)
		}
		b.WriteRune(r)
	}
	return b.String()
}

// FormatDate renders the invoice timestamp as yy-MM-dd HH:mm:ss.
func FormatDate(t time.Time) string {
	return t.Format(dateLayout)
}
