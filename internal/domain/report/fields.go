package report

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Columns names the source headers the normalizer reads. Aliases are
// consulted when the primary header is absent from a row.
type Columns struct {
	Title        string   `yaml:"title"`
	Responsible  string   `yaml:"responsible"`
	CreatedAt    string   `yaml:"created_at"`
	CompletedAt  string   `yaml:"completed_at"`
	Score        string   `yaml:"score"`
	DesignCount  string   `yaml:"design_count"`
	VariantCount string   `yaml:"variant_count"`
	DesignAlias  []string `yaml:"design_count_aliases"`
	VariantAlias []string `yaml:"variant_count_aliases"`
}

func DefaultColumns() Columns {
	return Columns{
		Title:        "Название",
		Responsible:  "Ответственный",
		CreatedAt:    "Дата создания",
		CompletedAt:  "Выполнена",
		Score:        "Оценка работы",
		DesignCount:  "Количество макетов",
		VariantCount: "Количество предложенных вариантов",
		DesignAlias:  []string{"Кол-во макетов"},
		VariantAlias: []string{"Кол-во вариантов"},
	}
}

// withDefaults fills empty names from DefaultColumns and normalizes every
// configured header the same way row keys are normalized.
func (c Columns) withDefaults() Columns {
	def := DefaultColumns()
	pick := func(value, fallback string) string {
		if NormalizeHeader(value) == "" {
			return fallback
		}
		return NormalizeHeader(value)
	}
	c.Title = pick(c.Title, def.Title)
	c.Responsible = pick(c.Responsible, def.Responsible)
	c.CreatedAt = pick(c.CreatedAt, def.CreatedAt)
	c.CompletedAt = pick(c.CompletedAt, def.CompletedAt)
	c.Score = pick(c.Score, def.Score)
	c.DesignCount = pick(c.DesignCount, def.DesignCount)
	c.VariantCount = pick(c.VariantCount, def.VariantCount)
	if c.DesignAlias == nil {
		c.DesignAlias = def.DesignAlias
	}
	if c.VariantAlias == nil {
		c.VariantAlias = def.VariantAlias
	}
	c.DesignAlias = normalizeAll(c.DesignAlias)
	c.VariantAlias = normalizeAll(c.VariantAlias)
	return c
}

func normalizeAll(names []string) []string {
	out := make([]string, 0, len(names))
	for _, name := range names {
		if n := NormalizeHeader(name); n != "" {
			out = append(out, n)
		}
	}
	return out
}

var (
	scoreNoise  = regexp.MustCompile(`[^0-9,.]`)
	floatPrefix = regexp.MustCompile(`^(?:[0-9]+\.?[0-9]*|\.[0-9]+)`)
	intPrefix   = regexp.MustCompile(`^[+-]?[0-9]+`)
)

// NormalizeResponsible trims the assignee name and substitutes
// UnknownResponsible for absent or blank values.
func NormalizeResponsible(value any) string {
	name := strings.TrimSpace(cellString(value))
	if name == "" {
		return UnknownResponsible
	}
	return name
}

// ParseScore reads a free-text score: everything but digits, commas and
// periods is dropped, commas become periods and the longest numeric prefix
// is parsed. "9,5 баллов" yields 9.5.
func ParseScore(value any) (float64, bool) {
	if isBlank(value) {
		return 0, false
	}
	if f, ok := toFloat(value); ok && (math.IsNaN(f) || math.IsInf(f, 0)) {
		return 0, false
	}
	cleaned := scoreNoise.ReplaceAllString(cellString(value), "")
	cleaned = strings.ReplaceAll(cleaned, ",", ".")
	prefix := floatPrefix.FindString(cleaned)
	if prefix == "" {
		return 0, false
	}
	score, err := strconv.ParseFloat(prefix, 64)
	if err != nil || math.IsInf(score, 0) {
		return 0, false
	}
	return score, true
}

// ParseCount reads the leading integer of a cell. Unparseable and negative
// values count as zero.
func ParseCount(value any) int {
	switch v := value.(type) {
	case nil:
		return 0
	case string:
		digits := intPrefix.FindString(strings.TrimSpace(v))
		if digits == "" {
			return 0
		}
		n, err := strconv.Atoi(digits)
		if err != nil || n < 0 {
			return 0
		}
		return n
	case json.Number:
		return ParseCount(v.String())
	}
	f, ok := toFloat(value)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 || f > math.MaxInt32 {
		return 0
	}
	return int(f)
}

func cellString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case time.Time:
		return v.Format(time.RFC3339)
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case fmt.Stringer:
		return v.String()
	}
	return fmt.Sprint(value)
}

// Normalizer turns merged RawRows into NormalizedRows. It is the only place
// that converts between the two.
type Normalizer struct {
	columns Columns
	logger  *slog.Logger
}

func NewNormalizer(columns Columns, logger *slog.Logger) *Normalizer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Normalizer{columns: columns.withDefaults(), logger: logger}
}

func (n *Normalizer) Normalize(rows []RawRow) []NormalizedRow {
	out := make([]NormalizedRow, 0, len(rows))
	for i, row := range rows {
		out = append(out, n.normalizeRow(i, row))
	}
	return out
}

func (n *Normalizer) normalizeRow(index int, row RawRow) NormalizedRow {
	c := n.columns
	normalized := NormalizedRow{
		Title:       strings.TrimSpace(cellString(row[c.Title])),
		Responsible: NormalizeResponsible(row[c.Responsible]),
	}

	normalized.CreatedAt = n.date(index, c.CreatedAt, row[c.CreatedAt])
	normalized.CompletedAt = n.date(index, c.CompletedAt, row[c.CompletedAt])

	if raw, ok := row[c.Score]; ok && !isBlank(raw) {
		if score, ok := ParseScore(raw); ok {
			normalized.Score = &score
		} else {
			n.logger.Debug("score dropped", "row", index, "title", normalized.Title, "value", cellString(raw))
		}
	}

	normalized.DesignCount = n.count(index, lookup(row, c.DesignCount, c.DesignAlias))
	normalized.VariantCount = n.count(index, lookup(row, c.VariantCount, c.VariantAlias))
	return normalized
}

func (n *Normalizer) date(index int, column string, raw any) *time.Time {
	t, ok := ParseDate(raw)
	if !ok {
		if !isBlank(raw) {
			n.logger.Debug("date dropped", "row", index, "column", column, "value", cellString(raw))
		}
		return nil
	}
	return &t
}

func (n *Normalizer) count(index int, raw any) int {
	value := ParseCount(raw)
	if value == 0 && !isBlank(raw) && strings.TrimSpace(cellString(raw)) != "0" {
		n.logger.Debug("count defaulted to zero", "row", index, "value", cellString(raw))
	}
	return value
}

func lookup(row RawRow, column string, aliases []string) any {
	if value, ok := row[column]; ok {
		return value
	}
	for _, alias := range aliases {
		if value, ok := row[alias]; ok {
			return value
		}
	}
	return nil
}
