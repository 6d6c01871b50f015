package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func some(s string) decimal.NullDecimal { return decimal.NewNullDecimal(dec(s)) }

func TestShouldAlert(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name string
		prev decimal.NullDecimal
		cur  string
		want bool
	}{
		{"no previous", decimal.NullDecimal{}, "12600.50", false},
		{"exactly threshold up", some("100000"), "100100", true},
		{"just below threshold", some("100000"), "100099", false},
		{"exactly threshold down", some("100100"), "100000", true},
		{"fractional below", some("12500.00"), "12599.99", false},
		{"fractional above", some("12500.00"), "12600.50", true},
		{"zero baseline", some("0"), "150", true},
		{"unchanged", some("12600.50"), "12600.50", false},
	}
	for _, c := range cases {
		require.Equal(t, c.want, ShouldAlert(c.prev, dec(c.cur)), c.name)
	}
}
