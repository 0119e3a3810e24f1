// models/withdrawal.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Withdrawal statuses. Approval itself is an external admin workflow; the
// engine only owns the wallet effects of each transition.
const (
	WithdrawalPending  = "pending"
	WithdrawalApproved = "approved"
	WithdrawalRejected = "rejected"
)

type Withdrawal struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	MemberID        primitive.ObjectID `bson:"memberId" json:"memberId"`
	Amount          float64            `bson:"amount" json:"amount"`
	Status          string             `bson:"status" json:"status"`
	MemberNote      string             `bson:"memberNote,omitempty" json:"memberNote,omitempty"`
	AdminNote       string             `bson:"adminNote,omitempty" json:"adminNote,omitempty"`
	RejectionReason string             `bson:"rejectionReason,omitempty" json:"rejectionReason,omitempty"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
	ProcessedAt     *time.Time         `bson:"processedAt,omitempty" json:"processedAt,omitempty"`
}

type WithdrawalRequest struct {
	Amount float64 `json:"amount" validate:"required,gt=0"`
	Note   string  `json:"note"`
}
