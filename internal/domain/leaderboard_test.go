package domain

import "testing"

func TestTierForRank(t *testing.T) {
	cases := []struct {
		rank int
		want string
	}{
		{1, "LEGENDARY"},
		{2, "ELITE"},
		{3, "ELITE"},
		{4, "MASTER"},
		{10, "MASTER"},
		{11, "EXPERT"},
		{25, "EXPERT"},
		{26, "MINER"},
		{1000, "MINER"},
	}

	for _, c := range cases {
		if got := TierForRank(c.rank); got != c.want {
			t.Errorf("TierForRank(%d) = %s, want %s", c.rank, got, c.want)
		}
	}
}
