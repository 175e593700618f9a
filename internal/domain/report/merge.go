package report

// MergeRows concatenates Grid rows followed by Archive rows. Every column is
// kept and nothing is deduplicated.
func MergeRows(grid, archive []RawRow) []RawRow {
	merged := make([]RawRow, 0, len(grid)+len(archive))
	merged = append(merged, grid...)
	merged = append(merged, archive...)
	return merged
}

// CommonColumns returns the column names present in both sets, in the order
// they appear in gridColumns.
func CommonColumns(gridColumns, archiveColumns []string) []string {
	inArchive := make(map[string]struct{}, len(archiveColumns))
	for _, col := range archiveColumns {
		inArchive[col] = struct{}{}
	}
	seen := make(map[string]struct{}, len(gridColumns))
	var common []string
	for _, col := range gridColumns {
		if _, ok := inArchive[col]; !ok {
			continue
		}
		if _, dup := seen[col]; dup {
			continue
		}
		seen[col] = struct{}{}
		common = append(common, col)
	}
	return common
}

// ProjectRows keeps only the given columns of each row. The report pipeline
// never projects; this backs the merged-workbook export only.
func ProjectRows(rows []RawRow, columns []string) []RawRow {
	out := make([]RawRow, len(rows))
	for i, row := range rows {
		projected := make(RawRow, len(columns))
		for _, col := range columns {
			if value, ok := row[col]; ok {
				projected[col] = value
			}
		}
		out[i] = projected
	}
	return out
}
