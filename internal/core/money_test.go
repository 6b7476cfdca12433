package core

import (
	"math"
	"testing"
)

func TestFormatAmount(t *testing.T) {
	cases := []struct {
		in  float64
		out string
	}{
		{0, "0.00"},
		{10, "10.00"},
		{12.5, "12.50"},
		{0.125, "0.13"}, // exact tie rounds up
		{1.005, "1.00"}, // binary value is just below the tie
		{1234.567, "1234.57"},
		{-5, "-5.00"},
		{-0.001, "-0.00"},
		{math.NaN(), "NaN"},
		{math.Inf(1), "Infinity"},
	}
	for _, tc := range cases {
		if got := FormatAmount(tc.in); got != tc.out {
			t.Fatalf("FormatAmount(%v) = %q, want %q", tc.in, got, tc.out)
		}
	}
}

func TestFormatCurrency(t *testing.T) {
	if got := FormatCurrency(42); got != "$42.00" {
		t.Fatalf("FormatCurrency(42) = %q", got)
	}
	if got := FormatCurrency(-3); got != "$-3.00" {
		t.Fatalf("FormatCurrency(-3) = %q", got)
	}
}

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out float64
	}{
		{"12.5", 12.5},
		{" 3abc", 3},
		{"abc", 0},
		{"", 0},
		{"0", 0},
		{".5", 0.5},
		{"-2", -2},
		{"1e3", 1000},
		{"1,50", 1},
	}
	for _, tc := range cases {
		if got := ParseAmount(tc.in); got != tc.out {
			t.Fatalf("ParseAmount(%q) = %v, want %v", tc.in, got, tc.out)
		}
	}
	if got := ParseAmount("Infinity"); !math.IsInf(got, 1) {
		t.Fatalf("ParseAmount(Infinity) = %v", got)
	}
}
