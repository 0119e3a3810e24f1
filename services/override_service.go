// services/override_service.go
package services

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/amankumar-in/phantom-stake-sub000/config"
	"github.com/amankumar-in/phantom-stake-sub000/models"
)

// maxOverrideLevels caps the sponsorship-chain walk; a sponsor cycle fails
// closed at this bound.
const maxOverrideLevels = 15

// OverrideService credits percentage overrides up the sponsorship chain
// whenever a member produces income activity. The walk follows who-referred-
// whom, not the binary tree.
type OverrideService struct {
	members MemberStore
	tree    TreeStore
	stakes  StakeStore
	bonuses BonusStore
	wallets WalletStore
	log     *zap.Logger
}

func NewOverrideService(members MemberStore, tree TreeStore, stakes StakeStore, bonuses BonusStore, wallets WalletStore, logger *zap.Logger) *OverrideService {
	return &OverrideService{
		members: members,
		tree:    tree,
		stakes:  stakes,
		bonuses: bonuses,
		wallets: wallets,
		log:     logger,
	}
}

// OverrideResult aggregates one distribution walk.
type OverrideResult struct {
	LevelsPaid  int
	TotalPaid   float64
	LevelsTried int
}

// Distribute walks the source member's sponsorship chain up to 15 levels and
// credits each qualifying earner activityAmount * levelRate. A level that
// fails qualification contributes nothing but never halts the walk. eventKey,
// when non-empty, makes each level's credit idempotent across batch retries.
func (s *OverrideService) Distribute(ctx context.Context, sourceMemberID primitive.ObjectID, activityType string, activityAmount float64, eventKey string, cfg config.ProgramConfig) (*OverrideResult, error) {
	result := &OverrideResult{}
	if activityAmount <= 0 {
		return result, nil
	}

	source, err := s.members.GetMember(ctx, sourceMemberID)
	if err != nil {
		return result, err
	}

	visited := map[primitive.ObjectID]bool{sourceMemberID: true}
	current := source.SponsorID

	for level := 1; level <= maxOverrideLevels && current != nil; level++ {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if visited[*current] {
			s.log.Error("sponsorship chain cycle detected",
				zap.String("memberId", current.Hex()))
			break
		}
		visited[*current] = true

		earner, err := s.members.GetMember(ctx, *current)
		if err != nil {
			return result, err
		}
		result.LevelsTried++

		qualified, err := s.qualifiesForLevel(ctx, earner.ID, level, cfg)
		if err != nil {
			// A broken earner record skips its own level only.
			s.log.Warn("level qualification check failed",
				zap.String("earnerId", earner.ID.Hex()),
				zap.Int("level", level), zap.Error(err))
			current = earner.SponsorID
			continue
		}

		rate := cfg.LevelRate(level)
		if qualified && rate > 0 {
			amount := activityAmount * rate
			tx := models.Transaction{
				MemberID:    earner.ID,
				Type:        models.TxLevelOverride,
				Wallet:      models.WalletIncome,
				Amount:      amount,
				Reference:   sourceMemberID.Hex(),
				Description: fmt.Sprintf("level %d override on %s", level, activityType),
				CreatedAt:   time.Now().UTC(),
			}
			if eventKey != "" {
				tx.IdempotencyKey = fmt.Sprintf("%s:L%d", eventKey, level)
			}
			err := s.wallets.CreditIncome(ctx, earner.ID, amount, tx)
			switch {
			case err == ErrAlreadyProcessed:
				// Retried batch; the credit already landed.
			case err != nil:
				s.log.Warn("override credit failed",
					zap.String("earnerId", earner.ID.Hex()),
					zap.Int("level", level), zap.Error(err))
			default:
				record := &models.LevelOverride{
					EarnerID:       earner.ID,
					SourceMemberID: sourceMemberID,
					Level:          level,
					Percentage:     rate,
					ActivityType:   activityType,
					ActivityAmount: activityAmount,
					OverrideAmount: amount,
					CreatedAt:      time.Now().UTC(),
				}
				if err := s.bonuses.InsertOverride(ctx, record); err != nil {
					s.log.Warn("override record insert failed",
						zap.String("earnerId", earner.ID.Hex()), zap.Error(err))
				}
				result.LevelsPaid++
				result.TotalPaid += amount
			}
		}

		current = earner.SponsorID
	}
	return result, nil
}

// qualifiesForLevel evaluates the per-level rule: level 1 always pays, level
// 2 needs two direct referrals, deeper levels need the band's personal stake
// minimum and, on the higher programs, a direct-referral count.
func (s *OverrideService) qualifiesForLevel(ctx context.Context, earnerID primitive.ObjectID, level int, cfg config.ProgramConfig) (bool, error) {
	switch {
	case level == 1:
		return true, nil
	case level == 2:
		directs, err := s.tree.GetDirects(ctx, earnerID)
		if err != nil {
			return false, err
		}
		return len(directs) >= 2, nil
	default:
		band, ok := cfg.Band(level)
		if !ok {
			return false, nil
		}
		total, err := s.stakes.ActiveStakeTotal(ctx, earnerID)
		if err != nil {
			return false, err
		}
		if total < band.MinPersonalStake {
			return false, nil
		}
		if band.MinDirects > 0 {
			directs, err := s.tree.GetDirects(ctx, earnerID)
			if err != nil {
				return false, err
			}
			if len(directs) < band.MinDirects {
				return false, nil
			}
		}
		return true, nil
	}
}
