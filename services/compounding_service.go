// services/compounding_service.go
package services

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/amankumar-in/phantom-stake-sub000/config"
	"github.com/amankumar-in/phantom-stake-sub000/models"
	"github.com/amankumar-in/phantom-stake-sub000/utils"
)

// CompoundingService runs the per-wallet compounding state machine:
// Inactive -> Eligible -> Active -> Inactive (on withdrawal).
type CompoundingService struct {
	wallets   WalletStore
	stakes    StakeStore
	overrides *OverrideService
	log       *zap.Logger
}

func NewCompoundingService(wallets WalletStore, stakes StakeStore, overrides *OverrideService, logger *zap.Logger) *CompoundingService {
	return &CompoundingService{wallets: wallets, stakes: stakes, overrides: overrides, log: logger}
}

// Eligible reports whether a wallet may activate compounding: the income
// balance meets the program minimum and no withdrawal happened for the
// program's inactivity window.
func Eligible(w *models.Wallet, cfg config.ProgramConfig) bool {
	return w.Income.Balance >= cfg.CompoundingMinBalance &&
		w.Income.DaysWithoutWithdrawal >= cfg.CompoundingInactivityDays
}

// Activate turns compounding on. Re-activating an already active wallet is a
// no-op; an ineligible wallet fails with ErrNotEligible.
func (s *CompoundingService) Activate(ctx context.Context, memberID primitive.ObjectID, cfg config.ProgramConfig) error {
	w, err := s.wallets.GetWallet(ctx, memberID)
	if err != nil {
		return err
	}
	if w.Income.Compounding.Active {
		return nil
	}
	if !Eligible(w, cfg) {
		return ErrNotEligible
	}

	now := time.Now().UTC()
	state := models.CompoundingState{
		Active:          true,
		Rate:            cfg.CompoundingRate,
		StartDate:       &now,
		TotalCompounded: w.Income.Compounding.TotalCompounded,
	}
	if err := s.wallets.SetCompounding(ctx, memberID, state); err != nil {
		return err
	}
	// Active stakes yield at the compounding rate while the wallet compounds.
	return s.stakes.SetStakeCompounding(ctx, memberID, state)
}

// ProcessDaily credits balance * rate back into the income balance, at most
// once per wallet per calendar day and never on the activation day itself.
// The compounded amount is upline activity, so it feeds level overrides.
func (s *CompoundingService) ProcessDaily(ctx context.Context, memberID primitive.ObjectID, cfg config.ProgramConfig, today time.Time) (float64, error) {
	day := utils.DayStart(today)
	w, err := s.wallets.GetWallet(ctx, memberID)
	if err != nil {
		return 0, err
	}
	c := w.Income.Compounding
	if !c.Active {
		return 0, nil
	}
	if c.LastCompoundDate != nil && !c.LastCompoundDate.Before(day) {
		return 0, nil
	}
	if c.StartDate != nil && utils.SameDay(*c.StartDate, day) {
		return 0, nil
	}

	amount := w.Income.Balance * c.Rate
	if amount <= 0 {
		return 0, nil
	}

	tx := models.Transaction{
		MemberID:       memberID,
		Type:           models.TxCompounding,
		Wallet:         models.WalletIncome,
		Amount:         amount,
		Description:    fmt.Sprintf("daily compounding at %.4f", c.Rate),
		IdempotencyKey: fmt.Sprintf("comp:%s:%s", memberID.Hex(), utils.DayKey(day)),
		CreatedAt:      time.Now().UTC(),
	}
	applied, err := s.wallets.ApplyCompound(ctx, memberID, amount, day, tx)
	if err != nil {
		return 0, err
	}
	if !applied {
		return 0, nil
	}

	eventKey := fmt.Sprintf("ovr:comp:%s:%s", memberID.Hex(), utils.DayKey(day))
	if _, err := s.overrides.Distribute(ctx, memberID, models.ActivityCompounding, amount, eventKey, cfg); err != nil {
		s.log.Error("compounding override distribution failed",
			zap.String("memberId", memberID.Hex()), zap.Error(err))
	}
	return amount, nil
}

// BreakOnWithdrawal unconditionally deactivates compounding and resets the
// inactivity counter. It must run in the same step as the withdrawal debit.
// The break transaction is recorded when compounding was active immediately
// before the reset; checking the flag after the reset would never log.
func (s *CompoundingService) BreakOnWithdrawal(ctx context.Context, memberID primitive.ObjectID, at time.Time) error {
	w, err := s.wallets.GetWallet(ctx, memberID)
	if err != nil {
		return err
	}
	wasActive := w.Income.Compounding.Active

	if err := s.wallets.ResetOnWithdrawal(ctx, memberID, at); err != nil {
		return err
	}
	// Stakes drop back to their base or enhanced yield rate.
	if err := s.stakes.SetStakeCompounding(ctx, memberID, models.CompoundingState{Active: false}); err != nil {
		return err
	}

	if wasActive {
		tx := models.Transaction{
			MemberID:    memberID,
			Type:        models.TxCompoundingBreak,
			Wallet:      models.WalletIncome,
			Amount:      0,
			Description: "compounding deactivated by withdrawal",
			CreatedAt:   at,
		}
		if err := s.wallets.AppendTransaction(ctx, tx); err != nil {
			s.log.Warn("compounding break transaction failed",
				zap.String("memberId", memberID.Hex()), zap.Error(err))
		}
	}
	return nil
}
