// services/withdrawal_service.go
package services

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/amankumar-in/phantom-stake-sub000/models"
)

// WithdrawalService owns the wallet effects of the withdrawal workflow. The
// approval decision itself is an external admin concern; this service only
// moves money: request places a hold, approval settles it and breaks
// compounding, rejection refunds it.
type WithdrawalService struct {
	withdrawals WithdrawalStore
	wallets     WalletStore
	compound    *CompoundingService
	log         *zap.Logger
}

func NewWithdrawalService(withdrawals WithdrawalStore, wallets WalletStore, compound *CompoundingService, logger *zap.Logger) *WithdrawalService {
	return &WithdrawalService{
		withdrawals: withdrawals,
		wallets:     wallets,
		compound:    compound,
		log:         logger,
	}
}

// Request moves the amount from the income balance into a pending hold and
// records the withdrawal. An insufficient balance rejects before any
// mutation.
func (s *WithdrawalService) Request(ctx context.Context, memberID primitive.ObjectID, req models.WithdrawalRequest) (*models.Withdrawal, error) {
	if req.Amount <= 0 {
		return nil, ErrInvalidAmount
	}

	now := time.Now().UTC()
	w := &models.Withdrawal{
		ID:         primitive.NewObjectID(),
		MemberID:   memberID,
		Amount:     req.Amount,
		Status:     models.WithdrawalPending,
		MemberNote: req.Note,
		CreatedAt:  now,
	}

	holdTx := models.Transaction{
		MemberID:    memberID,
		Type:        models.TxWithdrawalHold,
		Wallet:      models.WalletIncome,
		Amount:      req.Amount,
		Reference:   w.ID.Hex(),
		Description: "withdrawal requested",
		CreatedAt:   now,
	}
	if err := s.wallets.HoldIncome(ctx, memberID, req.Amount, holdTx); err != nil {
		return nil, err
	}

	if _, err := s.withdrawals.InsertWithdrawal(ctx, w); err != nil {
		releaseTx := holdTx
		releaseTx.Type = models.TxWithdrawalRefund
		releaseTx.Description = "withdrawal record failed, hold released"
		if rerr := s.wallets.ReleaseHold(ctx, memberID, req.Amount, releaseTx); rerr != nil {
			s.log.Error("hold release failed after insert error",
				zap.String("memberId", memberID.Hex()), zap.Error(rerr))
		}
		return nil, err
	}
	return w, nil
}

// Approve settles the hold and breaks compounding in the same step as the
// debit. A second approval of the same withdrawal is a no-op.
func (s *WithdrawalService) Approve(ctx context.Context, withdrawalID primitive.ObjectID, adminNote string) error {
	w, err := s.withdrawals.GetWithdrawal(ctx, withdrawalID)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	ok, err := s.withdrawals.SetWithdrawalStatus(ctx, withdrawalID, models.WithdrawalPending, models.WithdrawalApproved, adminNote, now)
	if err != nil {
		return err
	}
	if !ok {
		return ErrAlreadyProcessed
	}

	settleTx := models.Transaction{
		MemberID:       w.MemberID,
		Type:           models.TxWithdrawal,
		Wallet:         models.WalletIncome,
		Amount:         w.Amount,
		Reference:      withdrawalID.Hex(),
		Description:    "withdrawal approved",
		IdempotencyKey: "wd:" + withdrawalID.Hex(),
		CreatedAt:      now,
	}
	if err := s.wallets.SettleHold(ctx, w.MemberID, w.Amount, settleTx); err != nil && err != ErrAlreadyProcessed {
		return err
	}

	return s.compound.BreakOnWithdrawal(ctx, w.MemberID, now)
}

// Reject releases the hold back into the income balance.
func (s *WithdrawalService) Reject(ctx context.Context, withdrawalID primitive.ObjectID, reason string) error {
	w, err := s.withdrawals.GetWithdrawal(ctx, withdrawalID)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	ok, err := s.withdrawals.SetWithdrawalStatus(ctx, withdrawalID, models.WithdrawalPending, models.WithdrawalRejected, reason, now)
	if err != nil {
		return err
	}
	if !ok {
		return ErrAlreadyProcessed
	}

	refundTx := models.Transaction{
		MemberID:       w.MemberID,
		Type:           models.TxWithdrawalRefund,
		Wallet:         models.WalletIncome,
		Amount:         w.Amount,
		Reference:      withdrawalID.Hex(),
		Description:    "withdrawal rejected, hold refunded",
		IdempotencyKey: "wdr:" + withdrawalID.Hex(),
		CreatedAt:      now,
	}
	if err := s.wallets.ReleaseHold(ctx, w.MemberID, w.Amount, refundTx); err != nil && err != ErrAlreadyProcessed {
		return err
	}
	return nil
}

// History lists a member's withdrawal requests.
func (s *WithdrawalService) History(ctx context.Context, memberID primitive.ObjectID, limit, offset int64) ([]models.Withdrawal, error) {
	return s.withdrawals.ListWithdrawalsByMember(ctx, memberID, limit, offset)
}
