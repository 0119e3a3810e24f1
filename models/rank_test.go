package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyRank(t *testing.T) {
	cases := []struct {
		name          string
		teamVolume    float64
		personalStake float64
		want          Rank
	}{
		{"zero member", 0, 0, RankBronze},
		{"volume without stake", 100000, 0, RankBronze},
		{"stake without volume", 0, 20000, RankBronze},
		{"silver floor", 25000, 1000, RankSilver},
		{"just under silver volume", 24999, 5000, RankBronze},
		{"gold floor", 50000, 2500, RankGold},
		{"gold volume, silver stake", 50000, 1000, RankSilver},
		{"platinum floor", 150000, 5000, RankPlatinum},
		{"diamond floor", 500000, 10000, RankDiamond},
		{"huge", 1e9, 1e6, RankDiamond},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ClassifyRank(tc.teamVolume, tc.personalStake))
		})
	}
}
