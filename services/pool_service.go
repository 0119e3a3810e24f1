// services/pool_service.go
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

// PoolService runs the monthly leadership pool: Collecting -> Ready ->
// Distributed. A percentage of the month's deposits accumulates per rank
// tier and is split evenly among qualifying holders when the month closes.
type PoolService struct {
	pools   PoolStore
	members MemberStore
	wallets WalletStore
	stakes  StakeStore
	tree    TreeStore
	rank    RankFunc
	log     *zap.Logger
}

func NewPoolService(pools PoolStore, members MemberStore, wallets WalletStore, stakes StakeStore, tree TreeStore, rank RankFunc, logger *zap.Logger) *PoolService {
	if rank == nil {
		rank = models.ClassifyRank
	}
	return &PoolService{
		pools:   pools,
		members: members,
		wallets: wallets,
		stakes:  stakes,
		tree:    tree,
		rank:    rank,
		log:     logger,
	}
}

func subPoolsFromConfig(cfg config.ProgramConfig) []models.SubPool {
	subPools := make([]models.SubPool, 0, len(cfg.PoolTiers))
	for _, tier := range cfg.PoolTiers {
		subPools = append(subPools, models.SubPool{
			Tier:         string(tier.Rank),
			Percentage:   tier.Percentage,
			MinPrincipal: tier.MinPrincipal,
		})
	}
	return subPools
}

// AddDeposit accrues a deposit into the month's pool while it is collecting.
// Cached sub-pool totals are refreshed from the new running total; the
// close-out recomputes them authoritatively.
func (s *PoolService) AddDeposit(ctx context.Context, cfg config.ProgramConfig, month string, amount float64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	pool, err := s.pools.GetOrCreatePool(ctx, cfg.ID, month, subPoolsFromConfig(cfg))
	if err != nil {
		return err
	}
	if pool.Status != models.PoolCollecting {
		return ErrPoolNotCollecting
	}

	total, err := s.pools.IncrementDeposits(ctx, cfg.ID, month, amount)
	if err != nil {
		return err
	}

	subPools := subPoolsFromConfig(cfg)
	for i := range subPools {
		subPools[i].TotalAmount = total * subPools[i].Percentage
	}
	return s.pools.SetSubPoolTotals(ctx, cfg.ID, month, subPools)
}

// CalculateDistribution closes the month: fixes each sub-pool's total from
// the final deposit sum, counts qualifiers and sets per-member shares, then
// transitions the pool to Ready.
func (s *PoolService) CalculateDistribution(ctx context.Context, cfg config.ProgramConfig, month string) (*models.LeadershipPool, error) {
	pool, err := s.pools.GetPool(ctx, cfg.ID, month)
	if err != nil {
		return nil, err
	}
	if pool.Distributed {
		return pool, ErrAlreadyProcessed
	}

	monthStart, err := utils.MonthStart(month)
	if err != nil {
		return nil, err
	}
	qualifiers, err := s.qualifiers(ctx, cfg, monthStart)
	if err != nil {
		return nil, err
	}

	subPools := subPoolsFromConfig(cfg)
	for i := range subPools {
		subPools[i].TotalAmount = pool.TotalDeposits * subPools[i].Percentage
		count := len(qualifiers[models.Rank(subPools[i].Tier)])
		subPools[i].QualifiedMemberCount = count
		if count > 0 {
			subPools[i].PerMemberShare = subPools[i].TotalAmount / float64(count)
		}
	}

	if err := s.pools.SetReady(ctx, cfg.ID, month, subPools); err != nil {
		return nil, err
	}
	pool.SubPools = subPools
	pool.Status = models.PoolReady
	return pool, nil
}

// Distribute pays each qualifying member their tier's share, exactly once
// per pool. Qualification is re-evaluated at payout time, not read from the
// close-out snapshot. Calling Distribute on an already distributed pool is a
// no-op.
func (s *PoolService) Distribute(ctx context.Context, cfg config.ProgramConfig, month string) (float64, int, error) {
	pool, err := s.pools.GetPool(ctx, cfg.ID, month)
	if err != nil {
		return 0, 0, err
	}
	if pool.Distributed {
		return 0, 0, nil
	}
	if pool.Status != models.PoolReady {
		return 0, 0, ErrPoolNotReady
	}

	now := time.Now().UTC()
	monthStart, err := utils.MonthStart(month)
	if err != nil {
		return 0, 0, err
	}
	qualifiers, err := s.qualifiers(ctx, cfg, monthStart)
	if err != nil {
		return 0, 0, err
	}

	var totalPaid float64
	var paidCount int
	for _, sub := range pool.SubPools {
		if sub.PerMemberShare <= 0 {
			continue
		}
		for _, memberID := range qualifiers[models.Rank(sub.Tier)] {
			tx := models.Transaction{
				MemberID:       memberID,
				Type:           models.TxLeadershipPool,
				Wallet:         models.WalletIncome,
				Amount:         sub.PerMemberShare,
				Description:    fmt.Sprintf("%s leadership pool, %s tier", month, sub.Tier),
				IdempotencyKey: fmt.Sprintf("pool:%s:%s:%s:%s", cfg.ID, month, sub.Tier, memberID.Hex()),
				CreatedAt:      now,
			}
			err := s.wallets.CreditIncome(ctx, memberID, sub.PerMemberShare, tx)
			switch {
			case err == ErrAlreadyProcessed:
			case err != nil:
				s.log.Error("pool share credit failed",
					zap.String("memberId", memberID.Hex()),
					zap.String("tier", sub.Tier), zap.Error(err))
			default:
				totalPaid += sub.PerMemberShare
				paidCount++
			}
		}
	}

	// The flag flips only after every share landed: a crash mid-loop leaves
	// the pool ready, and the replay's idempotency keys skip paid members.
	if _, err := s.pools.MarkDistributed(ctx, cfg.ID, month, now); err != nil {
		return totalPaid, paidCount, err
	}
	return totalPaid, paidCount, nil
}

// qualifiers groups member ids by the pool tier they currently qualify for:
// holding the tier's rank, joined before the pool month started, and keeping
// the tier's minimum principal balance.
func (s *PoolService) qualifiers(ctx context.Context, cfg config.ProgramConfig, monthStart time.Time) (map[models.Rank][]primitive.ObjectID, error) {
	candidates, err := s.members.ListMembersJoinedBefore(ctx, monthStart)
	if err != nil {
		return nil, err
	}

	out := make(map[models.Rank][]primitive.ObjectID)
	for _, m := range candidates {
		if m.Program != cfg.ID || !m.IsActive {
			continue
		}
		wallet, err := s.wallets.GetWallet(ctx, m.ID)
		if err != nil {
			s.log.Warn("pool qualification skipped member",
				zap.String("memberId", m.ID.Hex()), zap.Error(err))
			continue
		}
		node, err := s.tree.GetNode(ctx, m.ID)
		if err != nil {
			s.log.Warn("pool qualification skipped member",
				zap.String("memberId", m.ID.Hex()), zap.Error(err))
			continue
		}
		personal, err := s.stakes.ActiveStakeTotal(ctx, m.ID)
		if err != nil {
			s.log.Warn("pool qualification skipped member",
				zap.String("memberId", m.ID.Hex()), zap.Error(err))
			continue
		}

		rank := s.rank(node.LeftLegVolume+node.RightLegVolume, personal)
		for _, tier := range cfg.PoolTiers {
			if rank == tier.Rank && wallet.Principal.Balance >= tier.MinPrincipal {
				out[tier.Rank] = append(out[tier.Rank], m.ID)
				break
			}
		}
	}
	return out, nil
}
