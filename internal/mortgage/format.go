package mortgage

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FormatEuros renders an amount as whole euros in French notation,
// with spaces as thousands separators, e.g. "202 492 €".
func FormatEuros(amount float64) string {
	rounded := int64(math.Abs(roundUnits(amount)))
	digits := strconv.FormatInt(rounded, 10)

	var b strings.Builder
	if amount < 0 && rounded != 0 {
		b.WriteByte('-')
	}
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(d)
	}
	b.WriteString(" €")
	return b.String()
}

// FormatPercent renders a percentage with a fixed number of decimals.
func FormatPercent(value float64, decimals int) string {
	return fmt.Sprintf("%.*f%%", decimals, value)
}
