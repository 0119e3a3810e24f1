// models/wallet.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CompoundingState tracks the self-compounding toggle on an income wallet.
// The same shape is mirrored on each stake so a stake remembers the rate it
// compounds at.
type CompoundingState struct {
	Active           bool       `json:"active" bson:"active"`
	Rate             float64    `json:"rate" bson:"rate"`
	StartDate        *time.Time `json:"startDate,omitempty" bson:"startDate,omitempty"`
	LastCompoundDate *time.Time `json:"lastCompoundDate,omitempty" bson:"lastCompoundDate,omitempty"`
	TotalCompounded  float64    `json:"totalCompounded" bson:"totalCompounded"`
}

// PrincipalWallet holds the locked deposit balance.
type PrincipalWallet struct {
	Balance     float64    `json:"balance" bson:"balance"`
	Locked      bool       `json:"locked" bson:"locked"`
	LockExpiry  *time.Time `json:"lockExpiry,omitempty" bson:"lockExpiry,omitempty"`
	TotalStaked float64    `json:"totalStaked" bson:"totalStaked"`
}

// IncomeWallet holds the free balance that yield and bonuses accumulate into.
// Invariant: TotalEarned - TotalWithdrawn == Balance + PendingHolds.
type IncomeWallet struct {
	Balance                float64          `json:"balance" bson:"balance"`
	TotalEarned            float64          `json:"totalEarned" bson:"totalEarned"`
	TotalWithdrawn         float64          `json:"totalWithdrawn" bson:"totalWithdrawn"`
	PendingHolds           float64          `json:"pendingHolds" bson:"pendingHolds"`
	DaysWithoutWithdrawal  int              `json:"daysWithoutWithdrawal" bson:"daysWithoutWithdrawal"`
	LastWithdrawalDate     *time.Time       `json:"lastWithdrawalDate,omitempty" bson:"lastWithdrawalDate,omitempty"`
	LastRolloverDate       *time.Time       `json:"lastRolloverDate,omitempty" bson:"lastRolloverDate,omitempty"`
	Compounding            CompoundingState `json:"compounding" bson:"compounding"`
}

// Wallet is the per-member ledger record, one document per member.
type Wallet struct {
	ID        primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	MemberID  primitive.ObjectID `json:"memberId" bson:"memberId"`
	Principal PrincipalWallet    `json:"principal" bson:"principal"`
	Income    IncomeWallet       `json:"income" bson:"income"`
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt" bson:"updatedAt"`
}
