// services/matching_service.go
package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/amankumar-in/phantom-stake-sub000/config"
	"github.com/amankumar-in/phantom-stake-sub000/models"
	"github.com/amankumar-in/phantom-stake-sub000/utils"
)

// MatchingService computes the daily two-leg matching bonus. One record per
// member per UTC day; the matched volume is min(left, right), paid at the
// member's rank rate and clipped by the rank's daily cap.
type MatchingService struct {
	tree    TreeStore
	stakes  StakeStore
	bonuses BonusStore
	wallets WalletStore
	rank    RankFunc
	log     *zap.Logger
}

func NewMatchingService(tree TreeStore, stakes StakeStore, bonuses BonusStore, wallets WalletStore, rank RankFunc, logger *zap.Logger) *MatchingService {
	if rank == nil {
		rank = models.ClassifyRank
	}
	return &MatchingService{
		tree:    tree,
		stakes:  stakes,
		bonuses: bonuses,
		wallets: wallets,
		rank:    rank,
		log:     logger,
	}
}

// ProcessMember runs one member's matching calculation for a day. Returns 0
// without error when the member already has a record for that day.
func (s *MatchingService) ProcessMember(ctx context.Context, memberID primitive.ObjectID, cfg config.ProgramConfig, today time.Time) (float64, error) {
	day := utils.DayStart(today)

	node, err := s.tree.GetNode(ctx, memberID)
	if err != nil {
		return 0, err
	}
	personal, err := s.stakes.ActiveStakeTotal(ctx, memberID)
	if err != nil {
		return 0, err
	}

	rank := s.rank(node.LeftLegVolume+node.RightLegVolume, personal)
	plan, ok := cfg.Matching[rank]
	if !ok {
		return 0, nil
	}

	matched := node.MatchedVolume()
	capUsed, err := s.bonuses.CapUsed(ctx, memberID, day)
	if err != nil {
		return 0, err
	}

	raw := matched * plan.Rate
	bonus := raw
	if remaining := plan.DailyCap - capUsed; bonus > remaining {
		bonus = remaining
	}
	if bonus < 0 {
		bonus = 0
	}

	record := &models.MatchingBonus{
		MemberID:       memberID,
		Date:           day,
		Rank:           string(rank),
		LeftVolume:     node.LeftLegVolume,
		RightVolume:    node.RightLegVolume,
		MatchedVolume:  matched,
		SpilloverLeft:  node.LeftLegVolume - matched,
		SpilloverRight: node.RightLegVolume - matched,
		Rate:           plan.Rate,
		DailyCap:       plan.DailyCap,
		CapUsed:        capUsed,
		BonusAmount:    bonus,
		PairsFormed:    int64(math.Floor(matched)),
		CreatedAt:      time.Now().UTC(),
	}
	inserted, err := s.bonuses.InsertMatchingBonus(ctx, record)
	if err != nil {
		return 0, err
	}
	if !inserted {
		return 0, nil
	}

	if bonus > 0 {
		tx := models.Transaction{
			MemberID:       memberID,
			Type:           models.TxMatchingBonus,
			Wallet:         models.WalletIncome,
			Amount:         bonus,
			Description:    fmt.Sprintf("matching bonus, %s rank", rank),
			IdempotencyKey: fmt.Sprintf("match:%s:%s", memberID.Hex(), utils.DayKey(day)),
			CreatedAt:      time.Now().UTC(),
		}
		if err := s.wallets.CreditIncome(ctx, memberID, bonus, tx); err != nil && err != ErrAlreadyProcessed {
			return 0, err
		}
	}
	return bonus, nil
}
