package normalize

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"02/01/2006",
	"02-01-2006",
	"2006-1-2",
	"2/1/2006",
	"2006-01",
	"01/2006",
	"2006/01",
}

var rangeSeparators = []string{" al ", " a ", " hasta ", " - ", " – ", " to "}

var spanishMonths = []struct {
	name  string
	month time.Month
}{
	{"enero", time.January},
	{"febrero", time.February},
	{"marzo", time.March},
	{"abril", time.April},
	{"mayo", time.May},
	{"junio", time.June},
	{"julio", time.July},
	{"agosto", time.August},
	{"septiembre", time.September},
	{"setiembre", time.September},
	{"octubre", time.October},
	{"noviembre", time.November},
	{"diciembre", time.December},
}

var yearPattern = regexp.MustCompile(`\b(19|20)\d{2}\b`)

// ParsePeriodStart returns the first day covered by a payment period label.
// fallbackYear is used when the label names a month but no year.
func ParsePeriodStart(label string, fallbackYear int) (time.Time, error) {
	start, _, err := ParsePeriod(label, fallbackYear)
	return start, err
}

// ParsePeriod returns the start and end dates of a payment period label. When
// the label carries a single date the end is the last day of that month.
func ParsePeriod(label string, fallbackYear int) (time.Time, time.Time, error) {
	trimmed := strings.TrimSpace(label)
	if trimmed == "" {
		return time.Time{}, time.Time{}, fmt.Errorf("empty period label")
	}

	lower := strings.ToLower(trimmed)
	for _, sep := range rangeSeparators {
		if idx := strings.Index(lower, sep); idx > 0 {
			first := strings.TrimSpace(trimmed[:idx])
			second := strings.TrimSpace(trimmed[idx+len(sep):])
			start, errStart := parseSingleDate(first)
			end, errEnd := parseSingleDate(second)
			if errStart == nil && errEnd == nil {
				if end.Before(start) {
					return time.Time{}, time.Time{}, fmt.Errorf("period %q ends before it starts", label)
				}
				return start, end, nil
			}
		}
	}

	if d, err := parseSingleDate(trimmed); err == nil {
		return d, endOfMonth(d), nil
	}

	if d, ok := parseSpanishMonth(lower, fallbackYear); ok {
		end := endOfMonth(d)
		if d.Day() == 1 && isFirstFortnight(lower) {
			end = time.Date(d.Year(), d.Month(), 15, 0, 0, 0, 0, time.UTC)
		}
		return d, end, nil
	}

	return time.Time{}, time.Time{}, fmt.Errorf("unrecognised period label %q", label)
}

func parseSingleDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if d, err := time.Parse(layout, s); err == nil {
			return d, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}

func parseSpanishMonth(lower string, fallbackYear int) (time.Time, bool) {
	var month time.Month
	for _, m := range spanishMonths {
		if strings.Contains(lower, m.name) {
			month = m.month
			break
		}
	}
	if month == 0 {
		return time.Time{}, false
	}

	year := fallbackYear
	if match := yearPattern.FindString(lower); match != "" {
		if y, err := strconv.Atoi(match); err == nil {
			year = y
		}
	}
	if year == 0 {
		return time.Time{}, false
	}

	day := 1
	if isSecondFortnight(lower) {
		day = 16
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC), true
}

func isSecondFortnight(lower string) bool {
	return strings.Contains(lower, "2da") || strings.Contains(lower, "segunda") || strings.Contains(lower, "2a quincena")
}

func isFirstFortnight(lower string) bool {
	return strings.Contains(lower, "quincena") && !isSecondFortnight(lower)
}

func endOfMonth(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month()+1, 0, 0, 0, 0, 0, time.UTC)
}
