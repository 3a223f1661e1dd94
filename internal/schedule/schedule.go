// Package schedule computes the canonical bi-monthly credit payment calendar.
//
// Installments fall due on the 15th and on the 30th of each month, with the
// 30th clamped to the month's actual last day for shorter months.
package schedule

import "time"

const (
	firstHalfDay = 15
	lastHalfDay  = 30
)

// NextPaymentDate returns the next due date after last.
//
// If last falls before the 15th, the 15th of the same month is due. If it
// falls before the 30th, the 30th (or the month's last day) is due.
// Otherwise the 15th of the following month is due.
func NextPaymentDate(last time.Time) time.Time {
	switch {
	case last.Day() < firstHalfDay:
		return withDay(last, firstHalfDay)
	case last.Day() < lastHalfDay:
		day := lastHalfDay
		if dim := daysInMonth(last.Year(), last.Month()); dim < day {
			day = dim
		}
		return withDay(last, day)
	default:
		return withDay(AddMonths(last, 1), firstHalfDay)
	}
}

// CreditEndDate returns the end of the credit term for a credit opened on
// start: the first due date advanced by three calendar months, which covers
// a six-installment plan.
func CreditEndDate(start time.Time) time.Time {
	return AddMonths(NextPaymentDate(start), 3)
}

// AddMonths advances t by the given number of calendar months, clamping the
// day to the target month's last day instead of overflowing into the next
// month.
func AddMonths(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	m += time.Month(months)
	for m > 12 {
		m -= 12
		y++
	}
	for m < 1 {
		m += 12
		y--
	}
	if dim := daysInMonth(y, m); d > dim {
		d = dim
	}
	return time.Date(y, m, d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func withDay(t time.Time, day int) time.Time {
	return time.Date(t.Year(), t.Month(), day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
