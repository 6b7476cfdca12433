// Package core provides money parsing and formatting utilities.
//
// Amounts travel as float64 because that is what the backend sends. Display
// formatting works on the exact binary value of the float so that a stored
// 1.005 renders as 1.00, the same digits a browser would show.
package core

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// exactDigits is enough fractional digits to make rounding at two places
// depend only on the binary value, never on a shortest-repr artifact.
const exactDigits = 30

var numericPrefix = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)

// FormatAmount renders v with exactly two decimals.
//
// Ties round away from zero and a negative value keeps its sign even when it
// rounds to zero:
//
//	FormatAmount(12.5)   -> "12.50"
//	FormatAmount(0.125)  -> "0.13"
//	FormatAmount(1.005)  -> "1.00"
//	FormatAmount(-0.001) -> "-0.00"
func FormatAmount(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "Infinity"
	case math.IsInf(v, -1):
		return "-Infinity"
	}
	d := decimal.RequireFromString(strconv.FormatFloat(v, 'f', exactDigits, 64))
	s := d.StringFixed(2)
	if v < 0 && !strings.HasPrefix(s, "-") {
		s = "-" + s
	}
	return s
}

// FormatCurrency renders v as a dollar amount, e.g. "$12.50" or "$-3.00".
func FormatCurrency(v float64) string {
	return "$" + FormatAmount(v)
}

// ParseAmount reads the leading number of s the way a browser's parseFloat
// does: surrounding text after the number is ignored and input with no
// numeric prefix yields 0. An unparseable amount is therefore
// indistinguishable from a zero amount, and both are rejected by validation.
//
//	ParseAmount("12.5")   -> 12.5
//	ParseAmount(" 3abc")  -> 3
//	ParseAmount("abc")    -> 0
func ParseAmount(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	body := s
	if strings.HasPrefix(body, "+") || strings.HasPrefix(body, "-") {
		body = body[1:]
	}
	if strings.HasPrefix(body, "Infinity") {
		if strings.HasPrefix(s, "-") {
			return math.Inf(-1)
		}
		return math.Inf(1)
	}
	m := numericPrefix.FindString(s)
	if m == "" {
		return 0
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil && !math.IsInf(v, 0) {
		return 0
	}
	return v
}
