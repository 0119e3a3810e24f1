// config/programs.go
package config

import "github.com/amankumar-in/phantom-stake-sub000/models"

// All rates in this file are fractions of principal per day (0.0085, never
// 0.85). Anything arriving in percentage form must be divided by 100 at the
// boundary before it gets here.

// LevelBand is one slice of the 15-level override ladder with its
// qualification rule: the earner's active personal stake must meet
// MinPersonalStake, and on the higher programs deep levels also require a
// minimum number of direct referrals.
type LevelBand struct {
	FromLevel        int
	ToLevel          int
	MinPersonalStake float64
	MinDirects       int
}

// MatchingPlan is the per-rank matching bonus rate and daily cap.
type MatchingPlan struct {
	Rate     float64
	DailyCap float64
}

// PoolTier is one leadership sub-pool: the share of monthly deposits reserved
// for holders of Rank, and the principal balance they must maintain.
type PoolTier struct {
	Rank         models.Rank
	Percentage   float64
	MinPrincipal float64
}

// ProgramConfig is the full parameter set for one staking program. Loaded
// once, never mutated at runtime.
type ProgramConfig struct {
	ID                        string
	Name                      string
	MinStake                  float64
	EnhancedStakeThreshold    float64
	EnhancedReferralStake     float64
	BaseRate                  float64
	EnhancedRate              float64
	CompoundingRate           float64
	CompoundingMinBalance     float64
	CompoundingInactivityDays int
	LevelRates                [15]float64
	LevelBands                []LevelBand
	Matching                  map[models.Rank]MatchingPlan
	PoolTiers                 []PoolTier
}

// LevelRate returns the override fraction for a sponsorship level (1-15),
// zero outside the table.
func (p ProgramConfig) LevelRate(level int) float64 {
	if level < 1 || level > len(p.LevelRates) {
		return 0
	}
	return p.LevelRates[level-1]
}

// Band returns the qualification band covering a level, if any.
func (p ProgramConfig) Band(level int) (LevelBand, bool) {
	for _, b := range p.LevelBands {
		if level >= b.FromLevel && level <= b.ToLevel {
			return b, true
		}
	}
	return LevelBand{}, false
}

var standardLevelRates = [15]float64{
	0.10, 0.05, 0.03, 0.03, 0.03,
	0.02, 0.02, 0.02,
	0.01, 0.01, 0.01, 0.01, 0.01, 0.01, 0.01,
}

var standardMatching = map[models.Rank]MatchingPlan{
	models.RankBronze:   {Rate: 0.05, DailyCap: 500},
	models.RankSilver:   {Rate: 0.06, DailyCap: 1000},
	models.RankGold:     {Rate: 0.08, DailyCap: 2100},
	models.RankPlatinum: {Rate: 0.10, DailyCap: 5000},
	models.RankDiamond:  {Rate: 0.12, DailyCap: 10000},
}

var standardPoolTiers = []PoolTier{
	{Rank: models.RankSilver, Percentage: 0.01, MinPrincipal: 1000},
	{Rank: models.RankGold, Percentage: 0.01, MinPrincipal: 2500},
	{Rank: models.RankPlatinum, Percentage: 0.005, MinPrincipal: 5000},
	{Rank: models.RankDiamond, Percentage: 0.005, MinPrincipal: 10000},
}

var programs = map[string]ProgramConfig{
	"pioneer": {
		ID:                        "pioneer",
		Name:                      "Pioneer",
		MinStake:                  100,
		EnhancedStakeThreshold:    5000,
		EnhancedReferralStake:     1000,
		BaseRate:                  0.005,
		EnhancedRate:              0.0085,
		CompoundingRate:           0.01,
		CompoundingMinBalance:     50,
		CompoundingInactivityDays: 7,
		LevelRates:                standardLevelRates,
		LevelBands: []LevelBand{
			{FromLevel: 3, ToLevel: 5, MinPersonalStake: 500},
			{FromLevel: 6, ToLevel: 8, MinPersonalStake: 1500},
			{FromLevel: 9, ToLevel: 15, MinPersonalStake: 5000},
		},
		Matching:  standardMatching,
		PoolTiers: standardPoolTiers,
	},
	"voyager": {
		ID:                        "voyager",
		Name:                      "Voyager",
		MinStake:                  500,
		EnhancedStakeThreshold:    10000,
		EnhancedReferralStake:     2000,
		BaseRate:                  0.006,
		EnhancedRate:              0.009,
		CompoundingRate:           0.011,
		CompoundingMinBalance:     100,
		CompoundingInactivityDays: 7,
		LevelRates:                standardLevelRates,
		LevelBands: []LevelBand{
			{FromLevel: 3, ToLevel: 5, MinPersonalStake: 1000},
			{FromLevel: 6, ToLevel: 8, MinPersonalStake: 3000},
			{FromLevel: 9, ToLevel: 15, MinPersonalStake: 7500, MinDirects: 3},
		},
		Matching:  standardMatching,
		PoolTiers: standardPoolTiers,
	},
	"horizon": {
		ID:                        "horizon",
		Name:                      "Horizon",
		MinStake:                  1000,
		EnhancedStakeThreshold:    25000,
		EnhancedReferralStake:     5000,
		BaseRate:                  0.0065,
		EnhancedRate:              0.0095,
		CompoundingRate:           0.012,
		CompoundingMinBalance:     250,
		CompoundingInactivityDays: 10,
		LevelRates:                standardLevelRates,
		LevelBands: []LevelBand{
			{FromLevel: 3, ToLevel: 5, MinPersonalStake: 2500},
			{FromLevel: 6, ToLevel: 8, MinPersonalStake: 7500, MinDirects: 2},
			{FromLevel: 9, ToLevel: 15, MinPersonalStake: 15000, MinDirects: 4},
		},
		Matching:  standardMatching,
		PoolTiers: standardPoolTiers,
	},
	"titan": {
		ID:                        "titan",
		Name:                      "Titan",
		MinStake:                  5000,
		EnhancedStakeThreshold:    50000,
		EnhancedReferralStake:     10000,
		BaseRate:                  0.007,
		EnhancedRate:              0.01,
		CompoundingRate:           0.013,
		CompoundingMinBalance:     500,
		CompoundingInactivityDays: 14,
		LevelRates:                standardLevelRates,
		LevelBands: []LevelBand{
			{FromLevel: 3, ToLevel: 5, MinPersonalStake: 5000},
			{FromLevel: 6, ToLevel: 8, MinPersonalStake: 15000, MinDirects: 3},
			{FromLevel: 9, ToLevel: 15, MinPersonalStake: 30000, MinDirects: 5},
		},
		Matching:  standardMatching,
		PoolTiers: standardPoolTiers,
	},
}

// GetProgram looks up a program's parameter table.
func GetProgram(id string) (ProgramConfig, bool) {
	p, ok := programs[id]
	return p, ok
}

// ProgramIDs returns every configured program id.
func ProgramIDs() []string {
	ids := make([]string, 0, len(programs))
	for id := range programs {
		ids = append(ids, id)
	}
	return ids
}
