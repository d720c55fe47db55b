package exporter

import (
	"strconv"
)

// formatSample formats a measurement for CSV output at full float64
// precision, so processed traces survive a read-back round trip exactly.
func formatSample(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
