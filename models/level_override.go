// models/level_override.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Activity types that feed level overrides up the sponsorship chain.
const (
	ActivityDeposit       = "deposit"
	ActivityYield         = "yield"
	ActivityMatchingBonus = "matchingBonus"
	ActivityCompounding   = "compounding"
)

// LevelOverride records one percentage-of-activity payment to an upline
// sponsor. Percentage is stored as a fraction of the activity amount per the
// program table, so OverrideAmount == ActivityAmount * Percentage.
type LevelOverride struct {
	ID             primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	EarnerID       primitive.ObjectID `json:"earnerId" bson:"earnerId"`
	SourceMemberID primitive.ObjectID `json:"sourceMemberId" bson:"sourceMemberId"`
	Level          int                `json:"level" bson:"level"`
	Percentage     float64            `json:"percentage" bson:"percentage"`
	ActivityType   string             `json:"activityType" bson:"activityType"`
	ActivityAmount float64            `json:"activityAmount" bson:"activityAmount"`
	OverrideAmount float64            `json:"overrideAmount" bson:"overrideAmount"`
	CreatedAt      time.Time          `json:"createdAt" bson:"createdAt"`
}
