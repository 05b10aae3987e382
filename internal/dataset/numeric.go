package dataset

import (
	"math"
	"strconv"
	"strings"
)

// ParseNumber is the permissive numeric check used for coercion everywhere in
// the engine. It accepts currency symbols, percent signs, thousands separators
// and either '.' or ',' as the decimal separator.
func ParseNumber(s string) (float64, bool) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return 0, false
	}
	raw = strings.ReplaceAll(raw, "\u00A0", " ")
	for _, sym := range []string{"%", "$", "€", "£", "₹", "¥"} {
		raw = strings.ReplaceAll(raw, sym, "")
	}
	raw = strings.TrimSpace(raw)
	neg := false
	if strings.HasPrefix(raw, "(") && strings.HasSuffix(raw, ")") {
		neg = true
		raw = strings.TrimSpace(raw[1 : len(raw)-1])
	}
	if raw == "" {
		return 0, false
	}

	cpos := strings.LastIndex(raw, ",")
	dpos := strings.LastIndex(raw, ".")
	dec := '.'
	switch {
	case cpos >= 0 && dpos >= 0:
		if cpos > dpos {
			dec = ','
		}
	case cpos >= 0:
		// "2,500" is a thousands group; "0,5" is a decimal comma.
		if len(raw)-cpos-1 != 3 || strings.Count(raw, ",") == 1 && strings.HasPrefix(raw, "0,") {
			dec = ','
		}
	}
	for _, sep := range []rune{',', '.', ' ', '\''} {
		if sep != dec {
			raw = strings.ReplaceAll(raw, string(sep), "")
		}
	}
	if dec != '.' {
		raw = strings.ReplaceAll(raw, string(dec), ".")
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	if neg {
		f = -f
	}
	return f, true
}
