// models/transaction.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Transaction types recorded in the append-only ledger.
const (
	TxDeposit          = "deposit"
	TxStake            = "stake"
	TxYield            = "yield"
	TxMatchingBonus    = "matchingBonus"
	TxLevelOverride    = "levelOverride"
	TxCompounding      = "compounding"
	TxCompoundingBreak = "compoundingBreak"
	TxLeadershipPool   = "leadershipPool"
	TxWithdrawalHold   = "withdrawalHold"
	TxWithdrawal       = "withdrawal"
	TxWithdrawalRefund = "withdrawalRefund"
)

// Wallet names a transaction can touch.
const (
	WalletPrincipal = "principal"
	WalletIncome    = "income"
)

// Transaction is one append-only ledger entry. IdempotencyKey carries the
// per-day or per-event key for credits that must never be paid twice; it is
// empty for entries that are naturally unique (holds, refunds).
type Transaction struct {
	ID             primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	MemberID       primitive.ObjectID `json:"memberId" bson:"memberId"`
	Type           string             `json:"type" bson:"type"`
	Wallet         string             `json:"wallet" bson:"wallet"`
	Amount         float64            `json:"amount" bson:"amount"`
	Reference      string             `json:"reference,omitempty" bson:"reference,omitempty"`
	Description    string             `json:"description,omitempty" bson:"description,omitempty"`
	IdempotencyKey string             `json:"idempotencyKey,omitempty" bson:"idempotencyKey,omitempty"`
	CreatedAt      time.Time          `json:"createdAt" bson:"createdAt"`
}
