package report

import "math"

// Aggregate groups completed rows by responsible person in order of first
// appearance and appends a TOTAL row. An empty input yields an empty report.
//
// The TOTAL average is the plain mean of the per-person rounded averages,
// skipping people without any scored task; it is not weighted by task count.
func Aggregate(rows []NormalizedRow) []ReportRow {
	if len(rows) == 0 {
		return []ReportRow{}
	}

	order := make([]string, 0)
	groups := make(map[string]*PersonAggregate)
	for _, row := range rows {
		agg, ok := groups[row.Responsible]
		if !ok {
			agg = &PersonAggregate{Responsible: row.Responsible}
			groups[row.Responsible] = agg
			order = append(order, row.Responsible)
		}
		agg.TaskCount++
		agg.DesignTotal += row.DesignCount
		agg.VariantTotal += row.VariantCount
		if row.Score != nil {
			agg.ScoreSum += *row.Score
			agg.ScoredTaskCount++
		}
	}

	report := make([]ReportRow, 0, len(order)+1)
	total := ReportRow{Responsible: TotalLabel}
	var averageSum float64
	var averaged int
	for _, name := range order {
		agg := groups[name]
		row := ReportRow{
			Responsible:  name,
			TaskCount:    agg.TaskCount,
			DesignTotal:  agg.DesignTotal,
			VariantTotal: agg.VariantTotal,
			AverageScore: agg.AverageScore(),
		}
		report = append(report, row)

		total.TaskCount += row.TaskCount
		total.DesignTotal += row.DesignTotal
		total.VariantTotal += row.VariantTotal
		if row.AverageScore.Valid {
			averageSum += row.AverageScore.Value
			averaged++
		}
	}
	if averaged > 0 {
		total.AverageScore = NewScore(averageSum / float64(averaged))
	}
	return append(report, total)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
