package report

import (
	"fmt"
	"log/slog"
)

type Options struct {
	Columns     Columns
	TextAuthors []string
	Logger      *slog.Logger
}

func DefaultOptions() Options {
	return Options{
		Columns:     DefaultColumns(),
		TextAuthors: DefaultTextAuthors,
	}
}

// Generator runs the report pipeline. It holds configuration only, so one
// Generator may serve concurrent calls.
type Generator struct {
	normalizer *Normalizer
	roster     Roster
	logger     *slog.Logger
}

func NewGenerator(opts Options) *Generator {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	authors := opts.TextAuthors
	if authors == nil {
		authors = DefaultTextAuthors
	}
	return &Generator{
		normalizer: NewNormalizer(opts.Columns, logger),
		roster:     NewRoster(authors...),
		logger:     logger,
	}
}

// Generate builds the monthly report with default options.
func Generate(grid, archive []RawRow, monthName string, year int) (Output, error) {
	return NewGenerator(DefaultOptions()).Generate(grid, archive, monthName, year)
}

// Generate merges Grid and Archive rows, normalizes them, buckets them by the
// requested period and aggregates completed work per person. Only an invalid
// month or year is reported as an error; malformed cells degrade to defaults.
func (g *Generator) Generate(grid, archive []RawRow, monthName string, year int) (Output, error) {
	period, err := ParsePeriod(monthName, year)
	if err != nil {
		return Output{}, fmt.Errorf("parse period %q %d: %w", monthName, year, err)
	}

	merged := MergeRows(NormalizeRows(grid), NormalizeRows(archive))
	g.logger.Info("report rows merged", "period", period.String(), "grid", len(grid), "archive", len(archive), "merged", len(merged))

	rows := g.normalizer.Normalize(merged)
	buckets := Classify(rows, period, g.roster)
	g.logger.Info("report rows classified",
		"period", period.String(),
		"createdDesigner", buckets.CreatedDesigner,
		"completedDesigner", buckets.CompletedDesigner,
		"createdText", buckets.CreatedText,
		"completedText", buckets.CompletedText,
		"createdUnassigned", buckets.CreatedUnassigned,
		"completedUnassigned", buckets.CompletedUnassigned,
	)

	return Output{
		Period:     period,
		Report:     Aggregate(buckets.Completed()),
		TextReport: RenderSummary(monthName, year, buckets),
		Stats: Stats{
			GridRows:            len(grid),
			ArchiveRows:         len(archive),
			MergedRows:          len(merged),
			CreatedDesigner:     buckets.CreatedDesigner,
			CompletedDesigner:   buckets.CompletedDesigner,
			CreatedText:         buckets.CreatedText,
			CompletedText:       buckets.CompletedText,
			CreatedUnassigned:   buckets.CreatedUnassigned,
			CompletedUnassigned: buckets.CompletedUnassigned,
		},
	}, nil
}
