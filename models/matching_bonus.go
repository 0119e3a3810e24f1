// models/matching_bonus.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MatchingBonus is the daily snapshot of a member's two-leg match, one
// document per member per UTC day (unique index on memberId+date).
// Invariants: BonusAmount <= DailyCap and BonusAmount <= MatchedVolume*Rate.
type MatchingBonus struct {
	ID             primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	MemberID       primitive.ObjectID `json:"memberId" bson:"memberId"`
	Date           time.Time          `json:"date" bson:"date"`
	Rank           string             `json:"rank" bson:"rank"`
	LeftVolume     float64            `json:"leftVolume" bson:"leftVolume"`
	RightVolume    float64            `json:"rightVolume" bson:"rightVolume"`
	MatchedVolume  float64            `json:"matchedVolume" bson:"matchedVolume"`
	SpilloverLeft  float64            `json:"spilloverLeft" bson:"spilloverLeft"`
	SpilloverRight float64            `json:"spilloverRight" bson:"spilloverRight"`
	Rate           float64            `json:"rate" bson:"rate"`
	DailyCap       float64            `json:"dailyCap" bson:"dailyCap"`
	CapUsed        float64            `json:"capUsed" bson:"capUsed"`
	BonusAmount    float64            `json:"bonusAmount" bson:"bonusAmount"`
	PairsFormed    int64              `json:"pairsFormed" bson:"pairsFormed"`
	CreatedAt      time.Time          `json:"createdAt" bson:"createdAt"`
}
