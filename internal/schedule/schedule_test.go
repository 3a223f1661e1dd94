package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNextPaymentDate(t *testing.T) {
	cases := []struct {
		name string
		last time.Time
		want time.Time
	}{
		{name: "first half goes to 15th", last: date(2024, time.January, 10), want: date(2024, time.January, 15)},
		{name: "day 1 goes to 15th", last: date(2024, time.March, 1), want: date(2024, time.March, 15)},
		{name: "day 14 goes to 15th", last: date(2024, time.March, 14), want: date(2024, time.March, 15)},
		{name: "second half goes to 30th", last: date(2024, time.January, 20), want: date(2024, time.January, 30)},
		{name: "day 15 goes to 30th", last: date(2024, time.January, 15), want: date(2024, time.January, 30)},
		{name: "day 29 goes to 30th", last: date(2024, time.January, 29), want: date(2024, time.January, 30)},
		{name: "day 30 rolls to next month", last: date(2024, time.January, 30), want: date(2024, time.February, 15)},
		{name: "day 31 rolls to next month", last: date(2024, time.January, 31), want: date(2024, time.February, 15)},
		{name: "december rolls into next year", last: date(2024, time.December, 31), want: date(2025, time.January, 15)},
		{name: "february clamps to last day", last: date(2023, time.February, 20), want: date(2023, time.February, 28)},
		{name: "leap february clamps to 29th", last: date(2024, time.February, 20), want: date(2024, time.February, 29)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, NextPaymentDate(tc.last))
		})
	}
}

func TestCreditEndDate(t *testing.T) {
	require.Equal(t, date(2024, time.April, 15), CreditEndDate(date(2024, time.January, 10)))
	require.Equal(t, date(2024, time.April, 30), CreditEndDate(date(2024, time.January, 16)))
	// First due date 2023-11-30, three months later clamps to 2024-02-29.
	require.Equal(t, date(2024, time.February, 29), CreditEndDate(date(2023, time.November, 16)))
}

func TestAddMonths(t *testing.T) {
	require.Equal(t, date(2024, time.February, 29), AddMonths(date(2024, time.January, 31), 1))
	require.Equal(t, date(2025, time.January, 30), AddMonths(date(2024, time.November, 30), 2))
	require.Equal(t, date(2023, time.December, 15), AddMonths(date(2024, time.January, 15), -1))
}
