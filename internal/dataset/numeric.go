package dataset

import (
	"math"
	"strconv"
	"strings"
)

// Locale fixes the decimal and thousands separators. Zero values auto-detect
// per cell.
type Locale struct {
	Decimal   rune
	Thousands rune
}

// parseNumeric accepts plain, locale-formatted ("1.234,5", "1,234.5",
// "1 234") and percent ("12%") numbers.
func parseNumeric(s string, loc Locale) (float64, bool) {
	raw := strings.TrimSpace(s)
	raw = strings.TrimSuffix(raw, "%")
	raw = strings.ReplaceAll(raw, "\u00a0", " ")
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	dec, thou := loc.Decimal, loc.Thousands
	if dec == 0 {
		cpos := strings.LastIndex(raw, ",")
		dpos := strings.LastIndex(raw, ".")
		switch {
		case cpos >= 0 && dpos >= 0:
			if cpos > dpos {
				dec, thou = ',', '.'
			} else {
				dec, thou = '.', ','
			}
		case cpos >= 0:
			dec = ','
			// 1,234,567
			if strings.Count(raw, ",") > 1 {
				dec, thou = '.', ','
			}
		case dpos >= 0 && strings.Count(raw, ".") > 1:
			dec, thou = ',', '.'
		default:
			dec = '.'
		}
	}
	seps := string(thou) + " "
	if thou == 0 {
		seps = ", ."
	}
	seps = strings.ReplaceAll(seps, string(dec), "")
	intPart, frac, hasFrac := strings.Cut(raw, string(dec))
	if hasFrac && strings.ContainsAny(frac, seps) {
		return 0, false
	}
	intPart, ok := ungroup(intPart, seps)
	if !ok {
		return 0, false
	}
	raw = intPart
	if hasFrac {
		raw += string(dec) + frac
	}
	if dec != '.' {
		raw = strings.ReplaceAll(raw, string(dec), ".")
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// ungroup drops digit-group separators from the integer part. Grouping is
// only valid when every group after the first has exactly three digits, so
// "1.234.567" is a number and "10.0.0.1" is not.
func ungroup(s, seps string) (string, bool) {
	if seps == "" || !strings.ContainsAny(s, seps) {
		return s, true
	}
	var b strings.Builder
	group := 0
	first := true
	for _, r := range s {
		switch {
		case strings.ContainsRune(seps, r):
			if group == 0 || group > 3 || (!first && group != 3) {
				return "", false
			}
			first = false
			group = 0
		case r >= '0' && r <= '9':
			group++
			b.WriteRune(r)
		case (r == '-' || r == '+') && first && group == 0 && b.Len() == 0:
			b.WriteRune(r)
		default:
			return "", false
		}
	}
	if group != 3 {
		return "", false
	}
	return b.String(), true
}
