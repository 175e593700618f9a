package report

import (
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// NormalizeHeader canonicalizes a column name: NFC composition, non-breaking
// spaces become spaces, whitespace runs collapse and the ends are trimmed.
func NormalizeHeader(name string) string {
	if name == "" {
		return ""
	}
	name = norm.NFC.String(name)
	name = strings.ReplaceAll(name, "\u00a0", " ")
	return strings.Join(strings.Fields(name), " ")
}

// NormalizeRow returns a copy of row keyed by normalized column names. When
// several raw names collapse onto one key, raw names are visited in sorted
// order and the first non-empty value is kept.
func NormalizeRow(row RawRow) RawRow {
	out := make(RawRow, len(row))
	keys := make([]string, 0, len(row))
	for key := range row {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		value := row[key]
		canonical := NormalizeHeader(key)
		if existing, ok := out[canonical]; ok && !isBlank(existing) {
			continue
		}
		out[canonical] = value
	}
	return out
}

func NormalizeRows(rows []RawRow) []RawRow {
	out := make([]RawRow, len(rows))
	for i, row := range rows {
		out[i] = NormalizeRow(row)
	}
	return out
}

func isBlank(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	}
	return false
}
