package pivot

import "time"

// DatePreset is a named, relative date period resolved at build time
type DatePreset string

const (
	PresetToday       DatePreset = "today"
	PresetYesterday   DatePreset = "yesterday"
	PresetThisWeek    DatePreset = "this_week"
	PresetLastWeek    DatePreset = "last_week"
	PresetThisMonth   DatePreset = "this_month"
	PresetLastMonth   DatePreset = "last_month"
	PresetThisQuarter DatePreset = "this_quarter"
	PresetLastQuarter DatePreset = "last_quarter"
	PresetThisYear    DatePreset = "this_year"
	PresetLastYear    DatePreset = "last_year"
	PresetLast7Days   DatePreset = "last_7_days"
	PresetLast30Days  DatePreset = "last_30_days"
)

const dateLayout = "2006-01-02"

// Resolve returns the inclusive first and last day of the period containing now.
// Weeks start on Monday.
func (p DatePreset) Resolve(now time.Time) (from, to time.Time, ok bool) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	switch p {
	case PresetToday:
		return today, today, true
	case PresetYesterday:
		d := today.AddDate(0, 0, -1)
		return d, d, true
	case PresetThisWeek:
		start := weekStart(today)
		return start, start.AddDate(0, 0, 6), true
	case PresetLastWeek:
		start := weekStart(today).AddDate(0, 0, -7)
		return start, start.AddDate(0, 0, 6), true
	case PresetThisMonth:
		start := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location())
		return start, start.AddDate(0, 1, -1), true
	case PresetLastMonth:
		start := time.Date(today.Year(), today.Month()-1, 1, 0, 0, 0, 0, today.Location())
		return start, start.AddDate(0, 1, -1), true
	case PresetThisQuarter:
		start := quarterStart(today)
		return start, start.AddDate(0, 3, -1), true
	case PresetLastQuarter:
		start := quarterStart(today).AddDate(0, -3, 0)
		return start, start.AddDate(0, 3, -1), true
	case PresetThisYear:
		start := time.Date(today.Year(), time.January, 1, 0, 0, 0, 0, today.Location())
		return start, start.AddDate(1, 0, -1), true
	case PresetLastYear:
		start := time.Date(today.Year()-1, time.January, 1, 0, 0, 0, 0, today.Location())
		return start, start.AddDate(1, 0, -1), true
	case PresetLast7Days:
		return today.AddDate(0, 0, -6), today, true
	case PresetLast30Days:
		return today.AddDate(0, 0, -29), today, true
	default:
		return time.Time{}, time.Time{}, false
	}
}

func weekStart(day time.Time) time.Time {
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

func quarterStart(day time.Time) time.Time {
	month := ((day.Month()-1)/3)*3 + 1
	return time.Date(day.Year(), month, 1, 0, 0, 0, 0, day.Location())
}
