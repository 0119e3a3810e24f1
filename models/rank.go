// models/rank.go
package models

// Rank tiers, lowest to highest. Every member with a tree node holds at least
// Bronze; higher ranks unlock bigger matching rates, caps and pool tiers.
type Rank string

const (
	RankBronze   Rank = "bronze"
	RankSilver   Rank = "silver"
	RankGold     Rank = "gold"
	RankPlatinum Rank = "platinum"
	RankDiamond  Rank = "diamond"
)

// rankThresholds maps each rank above Bronze to the minimum team volume and
// personal stake balance required to hold it.
var rankThresholds = []struct {
	rank          Rank
	teamVolume    float64
	personalStake float64
}{
	{RankDiamond, 500000, 10000},
	{RankPlatinum, 150000, 5000},
	{RankGold, 50000, 2500},
	{RankSilver, 25000, 1000},
}

// ClassifyRank maps a member's team volume and personal stake balance to a
// rank. It is a pure function; the engine treats rank classification as an
// injectable dependency so the bonus calculators can be exercised against a
// fixed classifier.
func ClassifyRank(teamVolume, personalStake float64) Rank {
	for _, t := range rankThresholds {
		if teamVolume >= t.teamVolume && personalStake >= t.personalStake {
			return t.rank
		}
	}
	return RankBronze
}
