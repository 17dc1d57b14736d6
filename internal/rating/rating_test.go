package rating

import "testing"

func TestStarsThresholds(t *testing.T) {
	cases := []struct {
		correct, total, want int
	}{
		{10, 10, 5},
		{19, 20, 5}, // 0.95 exactly
		{8, 10, 4},
		{7, 10, 3},
		{6, 10, 3},
		{5, 10, 2},
		{3, 10, 1},
		{2, 10, 0},
		{0, 10, 0},
		{0, 0, 0}, // degenerate total
	}
	for _, tc := range cases {
		if got := Stars(tc.correct, tc.total); got != tc.want {
			t.Fatalf("Stars(%d, %d) = %d, want %d", tc.correct, tc.total, got, tc.want)
		}
	}
}

func TestStarsMonotonic(t *testing.T) {
	prev := 0
	for correct := 0; correct <= 20; correct++ {
		s := Stars(correct, 20)
		if s < prev {
			t.Fatalf("stars decreased at correct=%d: %d < %d", correct, s, prev)
		}
		prev = s
	}
}

func TestRankComboUpgrade(t *testing.T) {
	if got := Rank(3, 4, 10); got != "S" {
		t.Fatalf("expected S without bonus, got %s", got)
	}
	if got := Rank(3, 10, 10); got != "SS" {
		t.Fatalf("expected SS with combo bonus, got %s", got)
	}
	// already at the top: clamped, not out of range
	if got := Rank(5, 25, 10); got != "SSS" {
		t.Fatalf("expected SSS clamp, got %s", got)
	}
	if got := Rank(0, 0, 10); got != "C" {
		t.Fatalf("expected C floor, got %s", got)
	}
}

func TestMessageDefinedEverywhere(t *testing.T) {
	for p := 0; p <= 100; p += 5 {
		if Message(float64(p)) == "" {
			t.Fatalf("empty message at %d%%", p)
		}
	}
}
