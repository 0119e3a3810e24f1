// services/stake_service.go
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

// StakeService owns the stake ledger: deposit intake, enhanced-rate
// qualification and the daily yield payments. A successful deposit drives the
// downstream pipeline (tree volume, overrides, leadership pool) stage by
// stage; a failing stage is logged and the rest still run.
type StakeService struct {
	stakes    StakeStore
	wallets   WalletStore
	tree      TreeStore
	placement *PlacementService
	overrides *OverrideService
	pools     *PoolService
	log       *zap.Logger
}

func NewStakeService(stakes StakeStore, wallets WalletStore, tree TreeStore, placement *PlacementService, overrides *OverrideService, pools *PoolService, logger *zap.Logger) *StakeService {
	return &StakeService{
		stakes:    stakes,
		wallets:   wallets,
		tree:      tree,
		placement: placement,
		overrides: overrides,
		pools:     pools,
		log:       logger,
	}
}

// CreateStake validates and records a deposit, debits the principal wallet,
// and runs the deposit pipeline.
func (s *StakeService) CreateStake(ctx context.Context, memberID primitive.ObjectID, req models.StakeRequest) (*models.StakeResult, error) {
	cfg, ok := config.GetProgram(req.Program)
	if !ok {
		return nil, ErrUnknownProgram
	}
	if req.Amount < cfg.MinStake {
		return nil, ErrBelowMinimum
	}

	now := time.Now().UTC()
	stakeID := primitive.NewObjectID()

	debitTx := models.Transaction{
		MemberID:    memberID,
		Type:        models.TxStake,
		Wallet:      models.WalletPrincipal,
		Amount:      req.Amount,
		Reference:   stakeID.Hex(),
		Description: fmt.Sprintf("%s stake", cfg.Name),
		CreatedAt:   now,
	}
	if err := s.wallets.DebitPrincipal(ctx, memberID, req.Amount, debitTx); err != nil {
		return nil, err
	}

	enhanced, err := s.CheckEnhancedQualification(ctx, memberID, req.Amount, cfg)
	if err != nil {
		s.log.Warn("enhanced qualification check failed",
			zap.String("memberId", memberID.Hex()), zap.Error(err))
		enhanced = false
	}

	stake := &models.Stake{
		ID:                stakeID,
		MemberID:          memberID,
		Program:           cfg.ID,
		Amount:            req.Amount,
		BaseRate:          cfg.BaseRate,
		EnhancedQualified: enhanced,
		Active:            true,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if enhanced {
		stake.QualificationDate = &now
	}
	if _, err := s.stakes.InsertStake(ctx, stake); err != nil {
		// Undo the debit so validation failures never partially apply.
		refund := debitTx
		refund.ID = primitive.NilObjectID
		refund.Description = "stake insert failed, principal refunded"
		if rerr := s.wallets.CreditPrincipal(ctx, memberID, req.Amount, refund); rerr != nil {
			s.log.Error("principal refund failed after stake insert error",
				zap.String("memberId", memberID.Hex()), zap.Error(rerr))
		}
		return nil, err
	}
	if err := s.wallets.IncTotalStaked(ctx, memberID, req.Amount); err != nil {
		s.log.Warn("totalStaked update failed",
			zap.String("memberId", memberID.Hex()), zap.Error(err))
	}

	// Deposit pipeline: volume propagation, sponsor overrides, pool accrual.
	if err := s.placement.UpdateVolume(ctx, memberID, req.Amount); err != nil {
		s.log.Error("volume propagation failed",
			zap.String("memberId", memberID.Hex()),
			zap.Float64("amount", req.Amount), zap.Error(err))
	}
	eventKey := "ovr:deposit:" + stakeID.Hex()
	if _, err := s.overrides.Distribute(ctx, memberID, models.ActivityDeposit, req.Amount, eventKey, cfg); err != nil {
		s.log.Error("deposit override distribution failed",
			zap.String("memberId", memberID.Hex()), zap.Error(err))
	}
	if err := s.pools.AddDeposit(ctx, cfg, utils.MonthKey(now), req.Amount); err != nil {
		s.log.Error("leadership pool accrual failed",
			zap.String("program", cfg.ID), zap.Error(err))
	}

	rate := cfg.BaseRate
	if enhanced {
		rate = cfg.EnhancedRate
	}
	return &models.StakeResult{
		StakeID:           stakeID,
		EffectiveRate:     rate,
		EnhancedQualified: enhanced,
	}, nil
}

// CheckEnhancedQualification is true iff the member's active stake total
// (including the amount being staked now) meets the program threshold and at
// least one direct referral keeps an active stake at or above the program's
// referral-stake threshold.
func (s *StakeService) CheckEnhancedQualification(ctx context.Context, memberID primitive.ObjectID, pendingAmount float64, cfg config.ProgramConfig) (bool, error) {
	total, err := s.stakes.ActiveStakeTotal(ctx, memberID)
	if err != nil {
		return false, err
	}
	if total+pendingAmount < cfg.EnhancedStakeThreshold {
		return false, nil
	}

	directs, err := s.tree.GetDirects(ctx, memberID)
	if err != nil {
		return false, err
	}
	for _, d := range directs {
		dt, err := s.stakes.ActiveStakeTotal(ctx, d.MemberID)
		if err != nil {
			return false, err
		}
		if dt >= cfg.EnhancedReferralStake {
			return true, nil
		}
	}
	return false, nil
}

// CalculateDailyYield returns the day's yield and the effective rate for a
// stake: the compounding rate when compounding is active, else the enhanced
// rate when qualified, else the base rate. Rates are program constants.
func CalculateDailyYield(stake *models.Stake, cfg config.ProgramConfig) (float64, float64) {
	rate := cfg.BaseRate
	if stake.EnhancedQualified {
		rate = cfg.EnhancedRate
	}
	if stake.Compounding.Active && stake.Compounding.Rate > 0 {
		rate = stake.Compounding.Rate
	}
	return stake.Amount * rate, rate
}

// ProcessYieldPayment credits the day's yield to the member's income wallet,
// at most once per stake per calendar day. Calling it again for the same day
// returns 0 without surfacing an error.
func (s *StakeService) ProcessYieldPayment(ctx context.Context, stake *models.Stake, today time.Time) (float64, error) {
	day := utils.DayStart(today)
	if stake.LastPaidDate != nil && !stake.LastPaidDate.Before(day) {
		return 0, nil
	}

	cfg, ok := config.GetProgram(stake.Program)
	if !ok {
		return 0, ErrUnknownProgram
	}
	amount, rate := CalculateDailyYield(stake, cfg)

	claimed, err := s.stakes.MarkYieldPaid(ctx, stake.ID, day, amount)
	if err != nil {
		return 0, err
	}
	if !claimed {
		return 0, nil
	}

	tx := models.Transaction{
		MemberID:       stake.MemberID,
		Type:           models.TxYield,
		Wallet:         models.WalletIncome,
		Amount:         amount,
		Reference:      stake.ID.Hex(),
		Description:    fmt.Sprintf("daily yield at %.4f", rate),
		IdempotencyKey: fmt.Sprintf("yield:%s:%s", stake.ID.Hex(), utils.DayKey(day)),
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.wallets.CreditIncome(ctx, stake.MemberID, amount, tx); err != nil {
		if err == ErrAlreadyProcessed {
			return 0, nil
		}
		return 0, err
	}
	return amount, nil
}

// ActiveStakes lists a member's active stakes.
func (s *StakeService) ActiveStakes(ctx context.Context, memberID primitive.ObjectID) ([]models.Stake, error) {
	return s.stakes.ActiveStakesByMember(ctx, memberID)
}
