package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scored(v float64) *float64 { return &v }

func at(y int, m time.Month, d int) *time.Time {
	t := day(y, m, d)
	return &t
}

func TestGenerateEndToEnd(t *testing.T) {
	grid := []RawRow{
		{
			"Ответственный":      "Ivanova",
			"Выполнена":          "15.01.2024",
			"Оценка работы":      "9,0",
			"Количество макетов": "2",
		},
	}
	archive := []RawRow{
		{
			"Ответственный":      "Unknown",
			"Выполнена":          "20.01.2024",
			"Оценка работы":      nil,
			"Количество макетов": 1,
		},
	}

	out, err := Generate(grid, archive, "January", 2024)
	require.NoError(t, err)

	want := []ReportRow{
		{Responsible: "Ivanova", TaskCount: 1, DesignTotal: 2, VariantTotal: 0, AverageScore: NewScore(9)},
		{Responsible: "Unknown", TaskCount: 1, DesignTotal: 1, VariantTotal: 0, AverageScore: Score{}},
		{Responsible: "TOTAL", TaskCount: 2, DesignTotal: 3, VariantTotal: 0, AverageScore: NewScore(9)},
	}
	if diff := cmp.Diff(want, out.Report); diff != "" {
		t.Fatalf("report mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, Period{Year: 2024, Month: time.January}, out.Period)
	assert.Equal(t, 1, out.Stats.CompletedDesigner)
	assert.Equal(t, 1, out.Stats.CompletedUnassigned)
	assert.Equal(t, 2, out.Stats.MergedRows)

	raw, err := json.Marshal(out.Report)
	require.NoError(t, err)
	assert.JSONEq(t, `[
		{"responsible":"Ivanova","taskCount":1,"designTotal":2,"variantTotal":0,"averageScore":9.00},
		{"responsible":"Unknown","taskCount":1,"designTotal":1,"variantTotal":0,"averageScore":"—"},
		{"responsible":"TOTAL","taskCount":2,"designTotal":3,"variantTotal":0,"averageScore":9.00}
	]`, string(raw))
	assert.Contains(t, string(raw), `"averageScore":9.00`)
}

func TestGenerateEmptyInput(t *testing.T) {
	out, err := Generate(nil, []RawRow{}, "January", 2024)
	require.NoError(t, err)
	assert.NotNil(t, out.Report)
	assert.Empty(t, out.Report)

	want := `REPORT FOR JANUARY 2024

Designers:
- Tasks received: 0
- Tasks completed: 0

Text tasks:
- Received: 0
- Completed: 0

Tasks without assignee:
- Received: 0
- Completed: 0

COMPLETED TASK STATISTICS FOR DESIGNERS AND TASKS WITHOUT ASSIGNEE:
(only tasks completed within the reporting period)`
	assert.Equal(t, want, out.TextReport)
}

func TestGenerateRussianSummary(t *testing.T) {
	out, err := Generate([]RawRow{
		{"Ответственный": "Иванова", "Дата создания": "03.01.2024", "Выполнена": "15.01.2024"},
	}, nil, "Январь", 2024)
	require.NoError(t, err)

	want := `ОТЧЕТ ЗА ЯНВАРЬ 2024 ГОДА

Дизайнеры:
- Поступило задач: 1
- Выполнено задач: 1

Текстовые задачи:
- Поступило: 0
- Выполнено: 0

Задачи без ответственного:
- Поступило: 0
- Выполнено: 0

СТАТИСТИКА ПО ВЫПОЛНЕННЫМ ЗАДАЧАМ ДИЗАЙНЕРОВ И ЗАДАЧАМ БЕЗ ОТВЕТСТВЕННОГО:
(только задачи, завершенные в отчетном периоде)`
	assert.Equal(t, want, out.TextReport)
}

func TestGenerateRejectsInvalidPeriod(t *testing.T) {
	for _, month := range []string{"", "Jan", "Janurary", "13", "1"} {
		_, err := Generate(nil, nil, month, 2024)
		assert.True(t, errors.Is(err, ErrInvalidMonth), "month %q: %v", month, err)
	}
	_, err := Generate(nil, nil, "January", 0)
	assert.ErrorIs(t, err, ErrInvalidYear)
}

func TestParseMonthAcceptsBothLocales(t *testing.T) {
	cases := map[string]time.Month{
		"January":  time.January,
		"january":  time.January,
		" MAY ":    time.May,
		"Декабрь":  time.December,
		"сентябрь": time.September,
	}
	for in, want := range cases {
		got, err := ParseMonth(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	assert.Len(t, MonthNames(), 24)
}

func TestGenerateCountsAllBuckets(t *testing.T) {
	rows := []RawRow{
		{"Ответственный": "Petrov", "Дата создания": "03.02.2024", "Выполнена": "20.02.2024"},
		{"Ответственный": "Petrov", "Дата создания": "03.01.2024", "Выполнена": "01.02.2024"},
		{"Ответственный": "Пятницкая", "Дата создания": "05.02.2024", "Выполнена": "06.02.2024"},
		{"Ответственный": "Кулябина", "Дата создания": "05.01.2024"},
		{"Ответственный": "", "Дата создания": "07.02.2024"},
		{"Дата создания": "08.03.2024", "Выполнена": "09.02.2024"},
		{"Ответственный": "Sidorova", "Дата создания": "09.02.2023", "Выполнена": "09.02.2023"},
	}

	out, err := Generate(rows[:3], rows[3:], "February", 2024)
	require.NoError(t, err)

	assert.Equal(t, Stats{
		GridRows:            3,
		ArchiveRows:         4,
		MergedRows:          7,
		CreatedDesigner:     1,
		CompletedDesigner:   2,
		CreatedText:         1,
		CompletedText:       1,
		CreatedUnassigned:   1,
		CompletedUnassigned: 1,
	}, out.Stats)

	require.Len(t, out.Report, 3)
	assert.Equal(t, "Petrov", out.Report[0].Responsible)
	assert.Equal(t, 2, out.Report[0].TaskCount)
	assert.Equal(t, UnknownResponsible, out.Report[1].Responsible)
	assert.Equal(t, TotalLabel, out.Report[2].Responsible)
	assert.False(t, out.Report[2].AverageScore.Valid)
	assert.Contains(t, out.TextReport, "REPORT FOR FEBRUARY 2024")
	assert.Contains(t, out.TextReport, "- Tasks completed: 2")
}

func TestClassifyPartition(t *testing.T) {
	roster := NewRoster(DefaultTextAuthors...)
	for _, name := range []string{"Ivanova", UnknownResponsible, "Пятницкая", "Пятницкая Анна", "кулябина", "Наталия Пятницкая"} {
		row := NormalizedRow{Responsible: name}
		matches := 0
		for _, class := range []Class{ClassDesigner, ClassTextAuthor, ClassUnassigned} {
			if roster.Classify(row) == class {
				matches++
			}
		}
		assert.Equal(t, 1, matches, name)
	}
	assert.Equal(t, ClassDesigner, roster.Classify(NormalizedRow{Responsible: "Пятницкая Анна"}), "roster match is exact")
	assert.Equal(t, ClassTextAuthor, roster.Classify(NormalizedRow{Responsible: "Кулябина"}))
	assert.Equal(t, ClassUnassigned, roster.Classify(NormalizedRow{Responsible: UnknownResponsible}))
}

func TestClassifyRowInBothBuckets(t *testing.T) {
	rows := []NormalizedRow{{Responsible: "Ivanova", CreatedAt: at(2024, time.March, 1), CompletedAt: at(2024, time.March, 30)}}
	b := Classify(rows, Period{Year: 2024, Month: time.March}, NewRoster())
	assert.Equal(t, 1, b.CreatedDesigner)
	assert.Equal(t, 1, b.CompletedDesigner)
	assert.Len(t, b.Completed(), 1)
}

func TestAggregateScoredSubsetAverage(t *testing.T) {
	rows := []NormalizedRow{
		{Responsible: "Ivanova", Score: scored(8)},
		{Responsible: "Ivanova"},
		{Responsible: "Ivanova", Score: scored(10)},
	}
	report := Aggregate(rows)
	require.Len(t, report, 2)
	assert.Equal(t, 3, report[0].TaskCount)
	assert.Equal(t, NewScore(9), report[0].AverageScore)
	assert.Equal(t, "9.00", report[0].AverageScore.String())
}

func TestAggregateTotalIsMeanOfPersonAverages(t *testing.T) {
	rows := []NormalizedRow{
		{Responsible: "A", Score: scored(8), DesignCount: 1},
		{Responsible: "B", Score: scored(10), DesignCount: 2, VariantCount: 1},
		{Responsible: "B", Score: scored(10), VariantCount: 4},
		{Responsible: "B", Score: scored(10)},
	}
	report := Aggregate(rows)
	require.Len(t, report, 3)

	total := report[2]
	assert.Equal(t, TotalLabel, total.Responsible)
	assert.Equal(t, 4, total.TaskCount)
	assert.Equal(t, 3, total.DesignTotal)
	assert.Equal(t, 5, total.VariantTotal)
	assert.Equal(t, NewScore(9), total.AverageScore, "weighted mean would be 9.5")
}

func TestAggregateTotalMatchesRowCount(t *testing.T) {
	var rows []NormalizedRow
	want := map[string]int{}
	for i := 0; i < 50; i++ {
		name := fmt.Sprintf("person-%d", i%7)
		rows = append(rows, NormalizedRow{Responsible: name, DesignCount: i % 3})
		want[name]++
	}
	report := Aggregate(rows)
	require.Len(t, report, len(want)+1)
	sum := 0
	for _, row := range report[:len(report)-1] {
		assert.Equal(t, want[row.Responsible], row.TaskCount, row.Responsible)
		sum += row.TaskCount
	}
	assert.Equal(t, sum, report[len(report)-1].TaskCount)
}

func TestAggregateEmpty(t *testing.T) {
	report := Aggregate(nil)
	assert.NotNil(t, report)
	assert.Empty(t, report)
}

func TestGeneratorCustomRosterAndColumns(t *testing.T) {
	g := NewGenerator(Options{
		Columns:     Columns{Responsible: "Assignee", CompletedAt: "Done"},
		TextAuthors: []string{"Writer"},
	})
	out, err := g.Generate([]RawRow{
		{"Assignee": "Writer", "Done": "2024-05-02"},
		{"Assignee ": "Designer", "Done": "2024-05-03", "Оценка работы": "7"},
	}, nil, "May", 2024)
	require.NoError(t, err)
	assert.Equal(t, 1, out.Stats.CompletedText)
	assert.Equal(t, 1, out.Stats.CompletedDesigner)
	require.Len(t, out.Report, 2)
	assert.Equal(t, "Designer", out.Report[0].Responsible)
	assert.Equal(t, NewScore(7), out.Report[0].AverageScore)
}

func TestGeneratorIsSafeForConcurrentUse(t *testing.T) {
	g := NewGenerator(DefaultOptions())
	rows := []RawRow{{"Ответственный": "Ivanova", "Выполнена": "15.01.2024", "Оценка работы": "8"}}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out, err := g.Generate(rows, nil, "January", 2024)
			assert.NoError(t, err)
			assert.Len(t, out.Report, 2)
		}()
	}
	wg.Wait()
}

func TestScoreJSON(t *testing.T) {
	var s Score
	require.NoError(t, json.Unmarshal([]byte(`"—"`), &s))
	assert.False(t, s.Valid)
	require.NoError(t, json.Unmarshal([]byte(`8.456`), &s))
	assert.Equal(t, NewScore(8.46), s)

	raw, err := json.Marshal(Output{Period: Period{Year: 2024, Month: time.January}})
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(raw), `"period":"2024-01"`), string(raw))
}
