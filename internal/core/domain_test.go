package core

import "testing"

func TestCategoryNames(t *testing.T) {
	cats := []Category{{ID: 1, Name: "Food"}, {ID: 2, Name: "Rent"}}
	got := CategoryNames(cats)
	if len(got) != 2 || got[0] != "Food" || got[1] != "Rent" {
		t.Fatalf("unexpected names: %v", got)
	}
	if len(CategoryNames(nil)) != 0 {
		t.Fatalf("expected empty names for nil input")
	}
}

func TestHasCategory(t *testing.T) {
	cats := []Category{{Name: "Food"}}
	if !HasCategory(cats, "Food") {
		t.Fatalf("expected Food to be present")
	}
	if HasCategory(cats, "food") {
		t.Fatalf("lookup must be case sensitive")
	}
}

func TestAverage(t *testing.T) {
	cases := []struct {
		total float64
		count int
		want  float64
	}{
		{100, 4, 25},
		{0, 0, 0},
		{50, 0, 0},
		{10, 3, 10.0 / 3},
	}
	for _, tc := range cases {
		if got := Average(tc.total, tc.count); got != tc.want {
			t.Fatalf("Average(%v, %d) = %v, want %v", tc.total, tc.count, got, tc.want)
		}
	}
}
