package report

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var russianMonths = [12]string{
	"Январь", "Февраль", "Март", "Апрель", "Май", "Июнь",
	"Июль", "Август", "Сентябрь", "Октябрь", "Ноябрь", "Декабрь",
}

var monthsByName = buildMonthIndex()

func buildMonthIndex() map[string]time.Month {
	fold := cases.Fold()
	index := make(map[string]time.Month, 24)
	for m := time.January; m <= time.December; m++ {
		index[fold.String(m.String())] = m
		index[fold.String(russianMonths[m-1])] = m
	}
	return index
}

// ParseMonth matches a full month name, English or Russian nominative,
// ignoring case. Abbreviations and numbers are rejected.
func ParseMonth(name string) (time.Month, error) {
	// Casers carry state, so each call gets its own.
	m, ok := monthsByName[cases.Fold().String(strings.TrimSpace(name))]
	if !ok {
		return 0, ErrInvalidMonth
	}
	return m, nil
}

func ParsePeriod(monthName string, year int) (Period, error) {
	month, err := ParseMonth(monthName)
	if err != nil {
		return Period{}, err
	}
	if year <= 0 {
		return Period{}, ErrInvalidYear
	}
	return Period{Year: year, Month: month}, nil
}

// MonthNames lists every accepted month name, English first.
func MonthNames() []string {
	names := make([]string, 0, 24)
	for m := time.January; m <= time.December; m++ {
		names = append(names, m.String())
	}
	return append(names, russianMonths[:]...)
}

// RussianMonthName is used for export file names, as the upload form shows them.
func RussianMonthName(m time.Month) string {
	if m < time.January || m > time.December {
		return ""
	}
	return russianMonths[m-1]
}

func upperTitle(s string) string {
	return cases.Upper(language.Und).String(strings.TrimSpace(s))
}
