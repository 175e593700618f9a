package export

import (
	"io"

	"designreport/internal/domain/report"
	"designreport/internal/platform/sheet"
)

// ReportHeaders are the column titles of the exported report workbook.
var ReportHeaders = []string{"Ответственный", "Задачи", "Макеты", "Варианты", "Оценка"}

// WriteWorkbook writes the aggregated report as a single-sheet workbook. A
// missing average is written as the no-score marker, present ones as numbers.
func WriteWorkbook(w io.Writer, rows []report.ReportRow) error {
	values := make([][]any, 0, len(rows))
	for _, row := range rows {
		var score any = report.NoScoreMarker
		if row.AverageScore.Valid {
			score = row.AverageScore.Value
		}
		values = append(values, []any{row.Responsible, row.TaskCount, row.DesignTotal, row.VariantTotal, score})
	}
	return sheet.Write(w, "Отчет", ReportHeaders, values)
}

// WriteMergedWorkbook writes the Archive table followed by the Grid rows
// projected onto the columns both tables share. Archive column order is kept.
// Without shared columns only the Archive rows are written.
func WriteMergedWorkbook(w io.Writer, grid, archive sheet.Table) error {
	rows := append([]report.RawRow{}, archive.Rows...)
	if common := report.CommonColumns(grid.Header, archive.Header); len(common) > 0 {
		rows = append(rows, report.ProjectRows(grid.Rows, common)...)
	}

	header := uniqueHeader(archive.Header)
	values := make([][]any, 0, len(rows))
	for _, row := range rows {
		line := make([]any, len(header))
		for i, col := range header {
			line[i] = row[col]
		}
		values = append(values, line)
	}
	return sheet.Write(w, "Архив", header, values)
}

func uniqueHeader(header []string) []string {
	seen := make(map[string]struct{}, len(header))
	out := make([]string, 0, len(header))
	for _, h := range header {
		if _, ok := seen[h]; ok {
			continue
		}
		seen[h] = struct{}{}
		out = append(out, h)
	}
	return out
}

func WriteText(w io.Writer, text string) error {
	_, err := io.WriteString(w, text)
	return err
}
