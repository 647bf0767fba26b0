package steps

import (
	"strconv"
	"strings"
)

// FormatAmount renders a fee rounded to whole rupees with western thousands grouping: ₹1,25,000 is written ₹125,000.
func FormatAmount(fee float64) string {
	digits := strconv.FormatFloat(fee, 'f', 0, 64)
	neg := strings.HasPrefix(digits, "-")
	digits = strings.TrimPrefix(digits, "-")

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	b.WriteString("₹")
	lead := len(digits) % 3
	if lead == 0 {
		lead = 3
	}
	b.WriteString(digits[:lead])
	for i := lead; i < len(digits); i += 3 {
		b.WriteByte(',')
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// FormatFee is the card and prompt form, e.g. "₹35,000 per semester".
func FormatFee(fee float64) string {
	return FormatAmount(fee) + " per semester"
}

func defaultString(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
