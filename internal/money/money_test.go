package money

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFromFloat(t *testing.T) {
	cases := []struct {
		name   string
		input  float64
		want   Money
		hasErr bool
	}{
		{name: "whole amount", input: 6000, want: 600000},
		{name: "two decimals", input: 1234.56, want: 123456},
		{name: "rounds half up", input: 0.005, want: 1},
		{name: "rounds down", input: 10.004, want: 1000},
		{name: "zero", input: 0, want: 0},
		{name: "negative rejected", input: -1, hasErr: true},
		{name: "nan rejected", input: math.NaN(), hasErr: true},
		{name: "inf rejected", input: math.Inf(1), hasErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := FromFloat(tc.input)
			if tc.hasErr {
				require.ErrorIs(t, err, ErrInvalidAmount)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestParse(t *testing.T) {
	got, err := Parse("1234.56")
	require.NoError(t, err)
	require.Equal(t, Money(123456), got)

	got, err = Parse("1,234.56")
	require.NoError(t, err)
	require.Equal(t, Money(123456), got)

	_, err = Parse("abc")
	require.ErrorIs(t, err, ErrInvalidAmount)

	_, err = Parse("-5.00")
	require.ErrorIs(t, err, ErrInvalidAmount)
}

func TestFormat(t *testing.T) {
	cases := []struct {
		amount Money
		want   string
	}{
		{amount: 0, want: "0.00"},
		{amount: 50, want: "0.50"},
		{amount: 123456, want: "1,234.56"},
		{amount: 600000, want: "6,000.00"},
		{amount: 123456789, want: "1,234,567.89"},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, tc.amount.Format())
	}
}

func TestRoundTrip(t *testing.T) {
	amounts := []Money{0, 1, 99, 100, 833, 99999, 123456, 600000, 1500000, 123456789}
	for _, m := range amounts {
		parsed, err := Parse(m.Format())
		require.NoError(t, err)
		require.Equal(t, m, parsed, "round trip for %s", m.Format())
	}
}
