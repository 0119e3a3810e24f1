// models/stake.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Stake is one deposit event. BaseRate is the program's daily base rate at
// creation time; the effective rate applied on a given day also depends on
// enhanced qualification and the compounding state. LastPaidDate is the
// same-day idempotency guard for yield payments (at most one credit per stake
// per calendar day).
type Stake struct {
	ID                primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	MemberID          primitive.ObjectID `json:"memberId" bson:"memberId"`
	Program           string             `json:"program" bson:"program"`
	Amount            float64            `json:"amount" bson:"amount"`
	BaseRate          float64            `json:"baseRate" bson:"baseRate"`
	EnhancedQualified bool               `json:"enhancedQualified" bson:"enhancedQualified"`
	QualificationDate *time.Time         `json:"qualificationDate,omitempty" bson:"qualificationDate,omitempty"`
	Compounding       CompoundingState   `json:"compounding" bson:"compounding"`
	TotalYieldPaid    float64            `json:"totalYieldPaid" bson:"totalYieldPaid"`
	LastPaidDate      *time.Time         `json:"lastPaidDate,omitempty" bson:"lastPaidDate,omitempty"`
	Active            bool               `json:"active" bson:"active"`
	CreatedAt         time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt         time.Time          `json:"updatedAt" bson:"updatedAt"`
}

type StakeRequest struct {
	Amount  float64 `json:"amount" validate:"required,gt=0"`
	Program string  `json:"program" validate:"required"`
}

type StakeResult struct {
	StakeID           primitive.ObjectID `json:"stakeId"`
	EffectiveRate     float64            `json:"effectiveRate"`
	EnhancedQualified bool               `json:"enhancedQualified"`
}
