package report

import (
	"encoding/json"
	"strconv"
	"time"
)

const (
	UnknownResponsible = "Unknown"
	TotalLabel         = "TOTAL"
	NoScoreMarker      = "—"
)

// RawRow is one spreadsheet record keyed by column name, before normalization.
type RawRow map[string]any

// NormalizedRow is the fixed-shape task record produced by the field normalizer.
type NormalizedRow struct {
	Title        string
	Responsible  string
	CreatedAt    *time.Time
	CompletedAt  *time.Time
	Score        *float64
	DesignCount  int
	VariantCount int
}

type PersonAggregate struct {
	Responsible     string
	TaskCount       int
	DesignTotal     int
	VariantTotal    int
	ScoreSum        float64
	ScoredTaskCount int
}

// AverageScore is ScoreSum/ScoredTaskCount rounded to two decimals, or an
// invalid Score when no task of the person carried a score.
func (p PersonAggregate) AverageScore() Score {
	if p.ScoredTaskCount == 0 {
		return Score{}
	}
	return NewScore(p.ScoreSum / float64(p.ScoredTaskCount))
}

// Score is a two-decimal average or the "no score" marker when not Valid.
type Score struct {
	Value float64
	Valid bool
}

func NewScore(v float64) Score {
	return Score{Value: round2(v), Valid: true}
}

func (s Score) String() string {
	if !s.Valid {
		return NoScoreMarker
	}
	return strconv.FormatFloat(s.Value, 'f', 2, 64)
}

func (s Score) MarshalJSON() ([]byte, error) {
	if !s.Valid {
		return json.Marshal(NoScoreMarker)
	}
	return []byte(s.String()), nil
}

func (s *Score) UnmarshalJSON(data []byte) error {
	var marker string
	if err := json.Unmarshal(data, &marker); err == nil {
		*s = Score{}
		return nil
	}
	var value float64
	if err := json.Unmarshal(data, &value); err != nil {
		return err
	}
	*s = NewScore(value)
	return nil
}

type ReportRow struct {
	Responsible  string `json:"responsible"`
	TaskCount    int    `json:"taskCount"`
	DesignTotal  int    `json:"designTotal"`
	VariantTotal int    `json:"variantTotal"`
	AverageScore Score  `json:"averageScore"`
}

type Period struct {
	Year  int
	Month time.Month
}

func (p Period) String() string {
	return strconv.Itoa(p.Year) + "-" + twoDigits(int(p.Month))
}

// Contains reports whether t falls in the period's (year, month).
func (p Period) Contains(t *time.Time) bool {
	if t == nil {
		return false
	}
	return t.Year() == p.Year && t.Month() == p.Month
}

func (p Period) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

type Stats struct {
	GridRows            int `json:"gridRows"`
	ArchiveRows         int `json:"archiveRows"`
	MergedRows          int `json:"mergedRows"`
	CreatedDesigner     int `json:"createdDesigner"`
	CompletedDesigner   int `json:"completedDesigner"`
	CreatedText         int `json:"createdText"`
	CompletedText       int `json:"completedText"`
	CreatedUnassigned   int `json:"createdUnassigned"`
	CompletedUnassigned int `json:"completedUnassigned"`
}

type Output struct {
	Period     Period      `json:"period"`
	Report     []ReportRow `json:"report"`
	TextReport string      `json:"textReport"`
	Stats      Stats       `json:"stats"`
}

func twoDigits(v int) string {
	if v < 10 {
		return "0" + strconv.Itoa(v)
	}
	return strconv.Itoa(v)
}
