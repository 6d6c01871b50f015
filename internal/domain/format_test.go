package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFormatAmount(t *testing.T) {
	t.Parallel()
	cases := map[string]string{
		"0":          "0",
		"7":          "7",
		"999.49":     "999",
		"999.5":      "1 000",
		"12345":      "12 345",
		"12600.50":   "12 601",
		"12600.49":   "12 600",
		"123456":     "123 456",
		"1234567.89": "1 234 568",
		"-12345.5":   "-12 346",
		"-0.4":       "0",
	}
	for in, want := range cases {
		require.Equal(t, want, FormatAmount(dec(in)), in)
	}
}
