package analysis

import (
	"math"
	"strconv"
	"strings"
)

// formatVector prints values as "[0.500 0.500]".
func formatVector(v []float64) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, x := range v {
		if i > 0 {
			b.WriteByte(' ')
		}
		if math.IsNaN(x) {
			b.WriteString("nan")
			continue
		}
		b.WriteString(strconv.FormatFloat(x, 'f', 3, 64))
	}
	b.WriteByte(']')
	return b.String()
}

// formatFloat prints the shortest decimal form, always with a fractional part.
func formatFloat(x float64) string {
	s := strconv.FormatFloat(x, 'f', -1, 64)
	if math.IsNaN(x) || math.IsInf(x, 0) || strings.Contains(s, ".") {
		return s
	}
	return s + ".0"
}

// roundTo rounds the exact binary value of x to the given number of decimal
// places, ties to even.
func roundTo(x float64, places int) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}
	r, err := strconv.ParseFloat(strconv.FormatFloat(x, 'f', places, 64), 64)
	if err != nil {
		return x
	}
	return r
}
