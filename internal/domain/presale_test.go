package domain

import "testing"

func TestRatePerSecond(t *testing.T) {
	cases := []struct {
		tokens float64
		want   float64
	}{
		{0, 0},
		{-500, 0},
		{10000, 1},
		{25000, 2.5},
		{9999, 0.9999},
		{100, 0.01},
	}

	for _, c := range cases {
		if got := RatePerSecond(c.tokens); got != c.want {
			t.Errorf("RatePerSecond(%v) = %v, want %v", c.tokens, got, c.want)
		}
	}
}
