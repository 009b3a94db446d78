package utils

import (
	"fmt"
	"strconv"
	"strings"
)

// Currency is the display currency of order prices.
const Currency = "TMT"

// FormatPrice renders an amount with thousand separators and the currency suffix.
func FormatPrice(amount float64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	whole := int64(amount)
	frac := int64((amount-float64(whole))*100 + 0.5)
	if frac == 100 {
		whole++
		frac = 0
	}
	out := sign + formatThousand(whole)
	if frac > 0 {
		out += fmt.Sprintf(".%02d", frac)
	}
	return out + " " + Currency
}

// FormatDecimal renders a plain number without padding or unit, e.g. "7.5".
func FormatDecimal(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatThousand(n int64) string {
	if n == 0 {
		return "0"
	}
	str := strconv.FormatInt(n, 10)
	var out strings.Builder
	for i, c := range str {
		if i != 0 && (len(str)-i)%3 == 0 {
			out.WriteByte(' ')
		}
		out.WriteRune(c)
	}
	return out.String()
}
