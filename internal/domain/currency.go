package domain

import "strings"

// Code is an ISO-4217 currency code as reported by the feed ("USD", "EUR").
type Code string

// BaseCurrency is the currency every feed rate is quoted in.
const BaseCurrency = "UZS"

// Currency is a tracked currency together with its display label.
type Currency struct {
	Code  Code
	Label string
}

// TrackedCurrencies lists the currencies the bot reports on, in display order.
var TrackedCurrencies = []Currency{
	{Code: "USD", Label: "Dollar"},
	{Code: "EUR", Label: "EURO"},
	{Code: "KGS", Label: "Qirg'iz so'mi"},
	{Code: "KZT", Label: "Qo'zoq Tenge"},
	{Code: "RUB", Label: "RUBL"},
}

var trackedIndex = func() map[Code]Currency {
	m := make(map[Code]Currency, len(TrackedCurrencies))
	for _, c := range TrackedCurrencies {
		m[c.Code] = c
	}
	return m
}()

// NormalizeCode upper-cases and trims a raw code.
func NormalizeCode(s string) Code {
	return Code(strings.ToUpper(strings.TrimSpace(s)))
}

func IsTracked(c Code) bool {
	_, ok := trackedIndex[c]
	return ok
}

// Label returns the display label of a tracked currency.
func Label(c Code) (string, bool) {
	cur, ok := trackedIndex[c]
	return cur.Label, ok
}
