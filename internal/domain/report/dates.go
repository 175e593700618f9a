package report

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Spreadsheet serial 1 is 1899-12-31, so the epoch sits one day earlier.
var serialEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// 9999-12-31, the last day spreadsheets can represent.
const maxSerial = 2958465

var (
	dottedDate  = regexp.MustCompile(`^(\d{1,2})\.(\d{1,2})\.(\d{4}|\d{2})(?:[ T](\d{1,2}):(\d{2})(?::(\d{2}))?)?$`)
	slashedDate = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4}|\d{2})(?:[ T](\d{1,2}):(\d{2})(?::(\d{2}))?)?$`)
	isoDate     = regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})$`)
	jsZoneName  = regexp.MustCompile(`\s*\([^)]*\)$`)
)

var genericLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02 15:04:05 -0700 MST",
	"2006/01/02",
	"2006/01/02 15:04:05",
	"Mon Jan 02 2006 15:04:05 GMT-0700",
	"Mon Jan 2 2006",
	time.RFC1123,
	time.RFC1123Z,
	time.ANSIC,
	"January 2, 2006",
	"January 2 2006",
	"2 January 2006",
	"Jan 2, 2006",
	"2 Jan 2006",
	"02-Jan-2006",
}

// ParseDate converts a raw cell into a calendar date. It accepts native
// time values, spreadsheet serials and localized strings, and returns false
// for anything it cannot interpret. It never panics.
func ParseDate(value any) (time.Time, bool) {
	switch v := value.(type) {
	case nil:
		return time.Time{}, false
	case time.Time:
		return v, !v.IsZero()
	case *time.Time:
		if v == nil || v.IsZero() {
			return time.Time{}, false
		}
		return *v, true
	case string:
		return parseDateString(v)
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return time.Time{}, false
		}
		return FromSerial(f)
	}
	if f, ok := toFloat(value); ok {
		return FromSerial(f)
	}
	return time.Time{}, false
}

// FromSerial converts a spreadsheet serial day number, fraction included, to
// a UTC time. Serial 2 is 1900-01-01. Non-positive, non-finite and
// out-of-range serials are rejected.
func FromSerial(serial float64) (time.Time, bool) {
	if math.IsNaN(serial) || math.IsInf(serial, 0) || serial <= 0 || serial >= maxSerial+1 {
		return time.Time{}, false
	}
	days := math.Floor(serial)
	seconds := math.Round((serial - days) * 86400)
	return serialEpoch.AddDate(0, 0, int(days)).Add(time.Duration(seconds) * time.Second), true
}

func parseDateString(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}
	if t, ok := parseExplicit(s); ok {
		return t, true
	}
	if t, ok := parseGeneric(s); ok {
		return t, true
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil {
		return time.Time{}, false
	}
	return FromSerial(f)
}

func parseExplicit(s string) (time.Time, bool) {
	if m := dottedDate.FindStringSubmatch(s); m != nil {
		return buildDate(m[3], m[2], m[1], m[4], m[5], m[6])
	}
	if m := slashedDate.FindStringSubmatch(s); m != nil {
		if t, ok := buildDate(m[3], m[2], m[1], m[4], m[5], m[6]); ok {
			return t, true
		}
		return buildDate(m[3], m[1], m[2], m[4], m[5], m[6])
	}
	if m := isoDate.FindStringSubmatch(s); m != nil {
		return buildDate(m[1], m[2], m[3], "", "", "")
	}
	return time.Time{}, false
}

func parseGeneric(s string) (time.Time, bool) {
	candidate := jsZoneName.ReplaceAllString(s, "")
	for _, layout := range genericLayouts {
		if t, err := time.Parse(layout, candidate); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// buildDate validates the components instead of letting time.Date normalize
// 31.02 into March.
func buildDate(year, month, day, hour, minute, second string) (time.Time, bool) {
	y, err := strconv.Atoi(year)
	if err != nil {
		return time.Time{}, false
	}
	if len(year) == 2 {
		y = pivotYear(y)
	}
	mo, err := strconv.Atoi(month)
	if err != nil || mo < 1 || mo > 12 {
		return time.Time{}, false
	}
	d, err := strconv.Atoi(day)
	if err != nil || d < 1 || d > 31 {
		return time.Time{}, false
	}
	h, mi, sec := 0, 0, 0
	if hour != "" {
		h, _ = strconv.Atoi(hour)
		mi, _ = strconv.Atoi(minute)
		if second != "" {
			sec, _ = strconv.Atoi(second)
		}
		if h > 23 || mi > 59 || sec > 59 {
			return time.Time{}, false
		}
	}
	t := time.Date(y, time.Month(mo), d, h, mi, sec, 0, time.UTC)
	if t.Day() != d || t.Month() != time.Month(mo) {
		return time.Time{}, false
	}
	return t, true
}

// Two-digit years: 70-99 are 19xx, the rest 20xx.
func pivotYear(y int) int {
	if y >= 70 {
		return 1900 + y
	}
	return 2000 + y
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	}
	return 0, false
}
