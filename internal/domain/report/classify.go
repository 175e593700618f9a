package report

import "strings"

type Class int

const (
	ClassDesigner Class = iota
	ClassTextAuthor
	ClassUnassigned
)

func (c Class) String() string {
	switch c {
	case ClassTextAuthor:
		return "text-author"
	case ClassUnassigned:
		return "unassigned"
	default:
		return "designer"
	}
}

// DefaultTextAuthors is the roster of text authors from the production exports.
var DefaultTextAuthors = []string{"Наталия Пятницкая", "Валентина Кулябина", "Пятницкая", "Кулябина"}

// Roster matches responsible names exactly; substring matching would catch
// unrelated people sharing a surname fragment.
type Roster map[string]struct{}

func NewRoster(names ...string) Roster {
	r := make(Roster, len(names))
	for _, name := range names {
		if name = strings.TrimSpace(name); name != "" {
			r[name] = struct{}{}
		}
	}
	return r
}

func (r Roster) Contains(name string) bool {
	_, ok := r[name]
	return ok
}

func (r Roster) Classify(row NormalizedRow) Class {
	switch {
	case r.Contains(row.Responsible):
		return ClassTextAuthor
	case row.Responsible == UnknownResponsible:
		return ClassUnassigned
	default:
		return ClassDesigner
	}
}

// Buckets holds the per-period counts and the completed rows that feed the
// aggregator. Text-author rows are only counted.
type Buckets struct {
	CreatedDesigner     int
	CompletedDesigner   int
	CreatedText         int
	CompletedText       int
	CreatedUnassigned   int
	CompletedUnassigned int

	completedDesigner   []NormalizedRow
	completedUnassigned []NormalizedRow
}

// Completed returns completed designer rows followed by completed unassigned rows.
func (b Buckets) Completed() []NormalizedRow {
	out := make([]NormalizedRow, 0, len(b.completedDesigner)+len(b.completedUnassigned))
	out = append(out, b.completedDesigner...)
	return append(out, b.completedUnassigned...)
}

func Classify(rows []NormalizedRow, period Period, roster Roster) Buckets {
	var b Buckets
	for _, row := range rows {
		class := roster.Classify(row)
		if period.Contains(row.CreatedAt) {
			switch class {
			case ClassDesigner:
				b.CreatedDesigner++
			case ClassTextAuthor:
				b.CreatedText++
			case ClassUnassigned:
				b.CreatedUnassigned++
			}
		}
		if period.Contains(row.CompletedAt) {
			switch class {
			case ClassDesigner:
				b.CompletedDesigner++
				b.completedDesigner = append(b.completedDesigner, row)
			case ClassTextAuthor:
				b.CompletedText++
			case ClassUnassigned:
				b.CompletedUnassigned++
				b.completedUnassigned = append(b.completedUnassigned, row)
			}
		}
	}
	return b
}
