package tool

import (
	"math"
	"strconv"
	"strings"
)

// rupees speaks whole amounts without decimals and everything else to the
// paisa.
func rupees(v float64) string {
	v = math.Round(v*100) / 100
	if v == math.Trunc(v) {
		return "₹" + strconv.FormatFloat(v, 'f', 0, 64)
	}
	return "₹" + strconv.FormatFloat(v, 'f', 2, 64)
}

// joinAnd renders "a", "a and b", "a, b and c".
func joinAnd(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	default:
		return strings.Join(items[:len(items)-1], ", ") + " and " + items[len(items)-1]
	}
}
