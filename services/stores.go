// services/stores.go
package services

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/amankumar-in/phantom-stake-sub000/models"
)

// Store interfaces consumed by the engine. The repositories package provides
// the MongoDB implementations; tests run the engine against in-memory fakes.

// RankFunc classifies a member from team volume and personal stake balance.
// Rank classification is external to the engine and injected, so the
// calculators can be tested against a pinned rank.
type RankFunc func(teamVolume, personalStake float64) models.Rank

type MemberStore interface {
	InsertMember(ctx context.Context, m *models.Member) (primitive.ObjectID, error)
	GetMember(ctx context.Context, id primitive.ObjectID) (*models.Member, error)
	GetMemberByReferralCode(ctx context.Context, code string) (*models.Member, error)
	ListMembersJoinedBefore(ctx context.Context, cutoff time.Time) ([]models.Member, error)
}

type WalletStore interface {
	// EnsureWallet creates the member's wallet if absent and returns it.
	EnsureWallet(ctx context.Context, memberID primitive.ObjectID) (*models.Wallet, error)
	GetWallet(ctx context.Context, memberID primitive.ObjectID) (*models.Wallet, error)

	// Credit/debit pairs append the given ledger transaction with the
	// balance change. When tx.IdempotencyKey is set and a transaction with
	// that key already exists, the operation is a no-op returning
	// ErrAlreadyProcessed and the balance is untouched.
	CreditPrincipal(ctx context.Context, memberID primitive.ObjectID, amount float64, tx models.Transaction) error
	DebitPrincipal(ctx context.Context, memberID primitive.ObjectID, amount float64, tx models.Transaction) error
	CreditIncome(ctx context.Context, memberID primitive.ObjectID, amount float64, tx models.Transaction) error
	IncTotalStaked(ctx context.Context, memberID primitive.ObjectID, amount float64) error

	// Withdrawal hold lifecycle: balance -> pendingHolds -> totalWithdrawn,
	// or back to balance on rejection.
	HoldIncome(ctx context.Context, memberID primitive.ObjectID, amount float64, tx models.Transaction) error
	SettleHold(ctx context.Context, memberID primitive.ObjectID, amount float64, tx models.Transaction) error
	ReleaseHold(ctx context.Context, memberID primitive.ObjectID, amount float64, tx models.Transaction) error

	SetCompounding(ctx context.Context, memberID primitive.ObjectID, state models.CompoundingState) error
	// ApplyCompound credits balance*rate back into the income balance,
	// guarded so at most one compound lands per wallet per calendar day.
	// Returns false when the guard trips.
	ApplyCompound(ctx context.Context, memberID primitive.ObjectID, amount float64, day time.Time, tx models.Transaction) (bool, error)
	// ResetOnWithdrawal turns compounding off and zeroes the inactivity
	// counter; must run synchronously with any withdrawal debit.
	ResetOnWithdrawal(ctx context.Context, memberID primitive.ObjectID, at time.Time) error
	// RolloverInactivity bumps daysWithoutWithdrawal, at most once per day.
	RolloverInactivity(ctx context.Context, memberID primitive.ObjectID, day time.Time) (bool, error)

	AppendTransaction(ctx context.Context, tx models.Transaction) error
	ListTransactions(ctx context.Context, memberID primitive.ObjectID, limit, offset int64) ([]models.Transaction, error)
}

type TreeStore interface {
	InsertNode(ctx context.Context, node *models.TreeNode) (primitive.ObjectID, error)
	GetNode(ctx context.Context, memberID primitive.ObjectID) (*models.TreeNode, error)
	// SetChild fills a parent's child slot; returns false without writing if
	// the slot is already occupied.
	SetChild(ctx context.Context, parentMemberID primitive.ObjectID, position string, childMemberID primitive.ObjectID) (bool, error)
	// ClearChild releases a child slot iff it currently holds the given
	// child; the compensation for a placement whose node insert failed.
	ClearChild(ctx context.Context, parentMemberID primitive.ObjectID, position string, childMemberID primitive.ObjectID) error
	// CASVolumes writes the node's volumes iff its version still matches,
	// bumping the version. Returns false on a version mismatch.
	CASVolumes(ctx context.Context, memberID primitive.ObjectID, version int64, personal, left, right float64) (bool, error)
	IncTeamSize(ctx context.Context, memberID primitive.ObjectID, delta int) error
	GetDirects(ctx context.Context, sponsorID primitive.ObjectID) ([]models.TreeNode, error)
	ActiveMemberIDs(ctx context.Context) ([]primitive.ObjectID, error)
}

type StakeStore interface {
	InsertStake(ctx context.Context, s *models.Stake) (primitive.ObjectID, error)
	GetStake(ctx context.Context, id primitive.ObjectID) (*models.Stake, error)
	ActiveStakesByMember(ctx context.Context, memberID primitive.ObjectID) ([]models.Stake, error)
	ActiveStakeTotal(ctx context.Context, memberID primitive.ObjectID) (float64, error)
	// MarkYieldPaid claims the (stake, day) idempotency key: it records the
	// payment on the stake iff no payment has landed for that day yet, and
	// returns false when the day was already claimed.
	MarkYieldPaid(ctx context.Context, stakeID primitive.ObjectID, day time.Time, amount float64) (bool, error)
	// SetStakeCompounding mirrors the wallet's compounding state onto every
	// active stake of the member, so yield calculation sees the same state.
	SetStakeCompounding(ctx context.Context, memberID primitive.ObjectID, state models.CompoundingState) error
}

type BonusStore interface {
	// InsertMatchingBonus inserts the member+day snapshot; returns false
	// without writing when a record for that day already exists.
	InsertMatchingBonus(ctx context.Context, b *models.MatchingBonus) (bool, error)
	// CapUsed sums bonus amounts already recorded for the member that day.
	CapUsed(ctx context.Context, memberID primitive.ObjectID, day time.Time) (float64, error)
	InsertOverride(ctx context.Context, o *models.LevelOverride) error
	MatchingHistory(ctx context.Context, memberID primitive.ObjectID, limit, offset int64) ([]models.MatchingBonus, error)
	OverrideHistory(ctx context.Context, earnerID primitive.ObjectID, limit, offset int64) ([]models.LevelOverride, error)
}

type PoolStore interface {
	GetPool(ctx context.Context, program, month string) (*models.LeadershipPool, error)
	GetOrCreatePool(ctx context.Context, program, month string, subPools []models.SubPool) (*models.LeadershipPool, error)
	// IncrementDeposits adds to totalDeposits while the pool is collecting
	// and returns the new total.
	IncrementDeposits(ctx context.Context, program, month string, amount float64) (float64, error)
	SetSubPoolTotals(ctx context.Context, program, month string, subPools []models.SubPool) error
	SetReady(ctx context.Context, program, month string, subPools []models.SubPool) error
	// MarkDistributed flips the distributed flag iff the pool is ready and
	// not yet distributed; false means another worker got there first.
	MarkDistributed(ctx context.Context, program, month string, at time.Time) (bool, error)
}

type WithdrawalStore interface {
	InsertWithdrawal(ctx context.Context, w *models.Withdrawal) (primitive.ObjectID, error)
	GetWithdrawal(ctx context.Context, id primitive.ObjectID) (*models.Withdrawal, error)
	// SetWithdrawalStatus transitions from -> to; returns false if the
	// record was not in the expected state.
	SetWithdrawalStatus(ctx context.Context, id primitive.ObjectID, from, to, note string, at time.Time) (bool, error)
	ListWithdrawalsByMember(ctx context.Context, memberID primitive.ObjectID, limit, offset int64) ([]models.Withdrawal, error)
}
