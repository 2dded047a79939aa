package parser

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmountKobo(t *testing.T) {
	cases := []struct {
		raw  string
		want int64
	}{
		{"1234.56", 123456},
		{"1,234.56", 123456},
		{"₦1,234.56", 123456},
		{"NGN 1,234.56", 123456},
		{"0.01", 1},
		{"0", 0},
		{"-1200.00", -120000},
		{"1000", 100000},
		{" 52.50 ", 5250},
	}

	for _, tc := range cases {
		got, err := parseAmountKobo(tc.raw)
		require.NoError(t, err, "raw %q", tc.raw)
		assert.Equal(t, tc.want, got, "raw %q", tc.raw)
	}
}

func TestParseAmountKoboRejectsGarbage(t *testing.T) {
	for _, raw := range []string{"", "   ", "abc", "12.3.4"} {
		_, err := parseAmountKobo(raw)
		assert.Error(t, err, "raw %q", raw)
	}
}

func TestParseDateLayouts(t *testing.T) {
	want := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	for _, raw := range []string{
		"2024-03-05",
		"05/03/2024",
		"05-03-2024",
		"2024/03/05",
		"05 Mar 2024",
		"Mar 5, 2024",
	} {
		got, err := parseDate(raw)
		require.NoError(t, err, "raw %q", raw)
		assert.Equal(t, want, got, "raw %q", raw)
	}

	_, err := parseDate("yesterday")
	assert.Error(t, err)
}
