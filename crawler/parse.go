package crawler

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// Field parsers for the loosely structured text the listing cards carry.
// All of them are total: bad input yields a zero value, never an error,
// because many listings legitimately omit these fields.

const sqmPerPyeong = 3.305785

// ParsePrice converts a site price string into won.
//
//	"5억"       -> 500,000,000
//	"3억5천"    -> 350,000,000
//	"5000만원"  -> 50,000,000
//	"5억 ~ 6억" -> 500,000,000 (only the first segment of a range is kept)
//	""          -> 0
func ParsePrice(s string) int64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}

	if idx := strings.Index(s, "~"); idx >= 0 {
		s = strings.TrimSpace(s[:idx])
	}
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSuffix(s, "원")

	var total int64
	rest := s
	if pre, post, found := strings.Cut(s, "억"); found {
		if n, ok := parseDigits(pre); ok {
			total += n * 100_000_000
		} else if strings.TrimSpace(pre) != "" {
			return 0
		}
		rest = post
	}

	rest = strings.TrimSpace(rest)
	if rest == "" {
		return total
	}

	switch {
	case strings.HasSuffix(rest, "천"):
		n, ok := parseDigits(strings.TrimSuffix(rest, "천"))
		if !ok {
			return 0
		}
		total += n * 10_000_000
	default:
		// A bare number, with or without the 만 suffix, is in units of
		// ten thousand won.
		n, ok := parseDigits(strings.TrimSuffix(rest, "만"))
		if !ok {
			return 0
		}
		total += n * 10_000
	}
	return total
}

func parseDigits(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// ParseConfirmDate converts "확인매물 YY.MM.DD." into ISO "YYYY-MM-DD".
// Unparseable input yields "".
func ParseConfirmDate(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	s = strings.ReplaceAll(s, "확인매물", "")
	s = strings.ReplaceAll(s, ".", "")
	s = strings.TrimSpace(s)

	t, err := time.Parse("20060102", "20"+s)
	if err != nil {
		return ""
	}
	return t.Format("2006-01-02")
}

// Spec is the parsed area/floor/direction triple from a listing card.
type Spec struct {
	AreaPyeong float64
	FloorInfo  string
	Direction  string
}

// ParseSpec splits a comma-delimited spec string such as
// "109/84.77㎡, 5/15층, 남향". The first segment's exclusive area in square
// meters is converted to pyeong; the second and third segments are kept
// verbatim. Missing segments yield zero defaults.
func ParseSpec(s string) Spec {
	var spec Spec
	if strings.TrimSpace(s) == "" {
		return spec
	}

	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	if area := parts[0]; strings.Contains(area, "/") && strings.Contains(area, "㎡") {
		_, exclusive, _ := strings.Cut(area, "/")
		exclusive = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(exclusive), "㎡"))
		if sqm, err := strconv.ParseFloat(exclusive, 64); err == nil {
			spec.AreaPyeong = math.Round(sqm/sqmPerPyeong*100) / 100
		}
	}
	if len(parts) > 1 {
		spec.FloorInfo = parts[1]
	}
	if len(parts) > 2 {
		spec.Direction = parts[2]
	}
	return spec
}
