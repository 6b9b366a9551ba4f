// Package labels formats, classifies and filters the whitespace-separated
// 5-token label lines written next to each radiograph.
package labels

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/tayebekavousi/toothlabel/internal/annotation"
)

// Kind classifies a label line by the shape of its trailing numeric fields.
type Kind int

const (
	Unrecognized Kind = iota
	Raw               // token + absolute integer pixel coordinates
	Normalized        // token + center/size coordinates in [0,1]
)

// Normalize converts an absolute-pixel box to center-based unit coordinates.
// The caller must guarantee w and h are positive; no clamping is applied, so
// boxes exceeding image bounds yield values outside [0,1].
func Normalize(b annotation.Box, w, h int) (xc, yc, bw, bh float64) {
	xc = (b.XMin + b.XMax) / 2 / float64(w)
	yc = (b.YMin + b.YMax) / 2 / float64(h)
	bw = (b.XMax - b.XMin) / float64(w)
	bh = (b.YMax - b.YMin) / float64(h)
	return xc, yc, bw, bh
}

// FormatRaw renders a raw-format line, coordinates truncated to integers.
func FormatRaw(token string, b annotation.Box) string {
	return fmt.Sprintf("%s %d %d %d %d", token, int(b.XMin), int(b.YMin), int(b.XMax), int(b.YMax))
}

// FormatNormalized renders a normalized-format line at the given precision.
func FormatNormalized(token string, xc, yc, bw, bh float64, decimals int) string {
	return fmt.Sprintf("%s %.*f %.*f %.*f %.*f", token, decimals, xc, decimals, yc, decimals, bw, decimals, bh)
}

// Classify applies the fixed recognition rule: exactly 5 fields with numeric
// trailing values, all within [0,1] for Normalized, all integer-valued or
// larger than 10 for Raw. Anything else is Unrecognized.
func Classify(line string) Kind {
	fields := strings.Fields(line)
	if len(fields) != 5 {
		return Unrecognized
	}
	coords := make([]float64, 4)
	for i, f := range fields[1:] {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return Unrecognized
		}
		coords[i] = v
	}

	normalized := true
	for _, c := range coords {
		if c < 0 || c > 1 {
			normalized = false
			break
		}
	}
	if normalized {
		return Normalized
	}

	for _, c := range coords {
		if c <= 10 && c != math.Trunc(c) {
			return Unrecognized
		}
	}
	return Raw
}

// Token returns the leading token of a label line.
func Token(line string) string {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
