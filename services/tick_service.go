// services/tick_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/alitto/pond/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/amankumar-in/phantom-stake-sub000/config"
	"github.com/amankumar-in/phantom-stake-sub000/models"
	"github.com/amankumar-in/phantom-stake-sub000/utils"
)

const defaultTickWorkers = 8

// TickSummary aggregates one daily batch run. Per-member failures never
// abort the batch; they are logged and counted here.
type TickSummary struct {
	Date             time.Time `json:"date"`
	MembersTotal     int       `json:"membersTotal"`
	YieldPayments    int       `json:"yieldPayments"`
	YieldTotal       float64   `json:"yieldTotal"`
	CompoundsApplied int       `json:"compoundsApplied"`
	CompoundTotal    float64   `json:"compoundTotal"`
	BonusesPaid      int       `json:"bonusesPaid"`
	BonusTotal       float64   `json:"bonusTotal"`
	OverridesPaid    int       `json:"overridesPaid"`
	OverrideTotal    float64   `json:"overrideTotal"`
	Skipped          int       `json:"skipped"`
	Failures         int       `json:"failures"`
}

// MonthlySummary aggregates one leadership pool close-out run.
type MonthlySummary struct {
	Month             string  `json:"month"`
	ProgramsProcessed int     `json:"programsProcessed"`
	MembersPaid       int     `json:"membersPaid"`
	TotalPaid         float64 `json:"totalPaid"`
	Skipped           int     `json:"skipped"`
	Failures          int     `json:"failures"`
}

// TickService drives the scheduled batch cycles: the daily yield /
// compounding / matching / override pass and the monthly pool close-out.
// Members are processed in parallel on a bounded worker pool; each member's
// wallet writes are individually atomic so parallelism is safe.
type TickService struct {
	tree      TreeStore
	members   MemberStore
	wallets   WalletStore
	stakeSvc  *StakeService
	compound  *CompoundingService
	matching  *MatchingService
	overrides *OverrideService
	poolSvc   *PoolService
	workers   int
	log       *zap.Logger
}

func NewTickService(tree TreeStore, members MemberStore, wallets WalletStore, stakeSvc *StakeService, compound *CompoundingService, matching *MatchingService, overrides *OverrideService, poolSvc *PoolService, workers int, logger *zap.Logger) *TickService {
	if workers <= 0 {
		workers = defaultTickWorkers
	}
	return &TickService{
		tree:      tree,
		members:   members,
		wallets:   wallets,
		stakeSvc:  stakeSvc,
		compound:  compound,
		matching:  matching,
		overrides: overrides,
		poolSvc:   poolSvc,
		workers:   workers,
		log:       logger,
	}
}

// ProcessDailyTick runs yield, compounding, matching and the resulting
// overrides for every member with a tree node. Cancelling the context stops
// scheduling new members; everything already paid stays paid and the next
// run's idempotency keys skip it.
func (s *TickService) ProcessDailyTick(ctx context.Context, date time.Time) (*TickSummary, error) {
	day := utils.DayStart(date)
	ids, err := s.tree.ActiveMemberIDs(ctx)
	if err != nil {
		return nil, err
	}

	summary := &TickSummary{Date: day, MembersTotal: len(ids)}
	if len(ids) == 0 {
		return summary, nil
	}

	var mu sync.Mutex
	pool := pond.NewPool(s.workers, pond.WithQueueSize(len(ids)))
	defer pool.StopAndWait()
	group := pool.NewGroupContext(ctx)

	for _, id := range ids {
		memberID := id
		group.SubmitErr(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			s.processMemberDaily(ctx, memberID, day, summary, &mu)
			return nil
		})
	}

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, pond.ErrGroupStopped) {
		return summary, err
	}

	s.log.Info("daily tick complete",
		zap.Time("date", day),
		zap.Int("members", summary.MembersTotal),
		zap.Int("yieldPayments", summary.YieldPayments),
		zap.Float64("yieldTotal", summary.YieldTotal),
		zap.Int("bonusesPaid", summary.BonusesPaid),
		zap.Int("failures", summary.Failures),
		zap.Int("skipped", summary.Skipped))
	return summary, nil
}

// processMemberDaily runs the per-member pipeline. Sub-step errors are
// logged, the member counts as one failure, and later sub-steps still run.
func (s *TickService) processMemberDaily(ctx context.Context, memberID primitive.ObjectID, day time.Time, summary *TickSummary, mu *sync.Mutex) {
	failed := false
	fail := func(step string, err error) {
		failed = true
		s.log.Warn("daily tick member step failed",
			zap.String("memberId", memberID.Hex()),
			zap.String("step", step), zap.Error(err))
	}

	member, err := s.members.GetMember(ctx, memberID)
	if err != nil {
		mu.Lock()
		summary.Failures++
		mu.Unlock()
		s.log.Warn("daily tick member lookup failed",
			zap.String("memberId", memberID.Hex()), zap.Error(err))
		return
	}
	cfg, ok := config.GetProgram(member.Program)
	if !ok {
		mu.Lock()
		summary.Skipped++
		mu.Unlock()
		return
	}

	var yieldPayments int
	var yieldTotal, overrideTotal float64
	var overridesPaid int

	stakes, err := s.stakeSvc.ActiveStakes(ctx, memberID)
	if err != nil {
		fail("stakes", err)
	}
	for i := range stakes {
		amount, err := s.stakeSvc.ProcessYieldPayment(ctx, &stakes[i], day)
		if err != nil {
			fail("yield", err)
			continue
		}
		if amount <= 0 {
			continue
		}
		yieldPayments++
		yieldTotal += amount

		eventKey := fmt.Sprintf("ovr:yield:%s:%s", stakes[i].ID.Hex(), utils.DayKey(day))
		res, err := s.overrides.Distribute(ctx, memberID, models.ActivityYield, amount, eventKey, cfg)
		if err != nil {
			fail("yield overrides", err)
		} else {
			overridesPaid += res.LevelsPaid
			overrideTotal += res.TotalPaid
		}
	}

	if _, err := s.wallets.RolloverInactivity(ctx, memberID, day); err != nil {
		fail("inactivity rollover", err)
	}

	compAmount, err := s.compound.ProcessDaily(ctx, memberID, cfg, day)
	if err != nil {
		fail("compounding", err)
	}

	bonus, err := s.matching.ProcessMember(ctx, memberID, cfg, day)
	if err != nil {
		fail("matching", err)
	}
	if bonus > 0 {
		eventKey := fmt.Sprintf("ovr:match:%s:%s", memberID.Hex(), utils.DayKey(day))
		res, err := s.overrides.Distribute(ctx, memberID, models.ActivityMatchingBonus, bonus, eventKey, cfg)
		if err != nil {
			fail("matching overrides", err)
		} else {
			overridesPaid += res.LevelsPaid
			overrideTotal += res.TotalPaid
		}
	}

	mu.Lock()
	defer mu.Unlock()
	summary.YieldPayments += yieldPayments
	summary.YieldTotal += yieldTotal
	summary.OverridesPaid += overridesPaid
	summary.OverrideTotal += overrideTotal
	if compAmount > 0 {
		summary.CompoundsApplied++
		summary.CompoundTotal += compAmount
	}
	if bonus > 0 {
		summary.BonusesPaid++
		summary.BonusTotal += bonus
	}
	if failed {
		summary.Failures++
	}
}

// ProcessMonthlyTick closes out and distributes every program's leadership
// pool for the month.
func (s *TickService) ProcessMonthlyTick(ctx context.Context, month string) (*MonthlySummary, error) {
	if _, err := utils.MonthStart(month); err != nil {
		return nil, err
	}

	summary := &MonthlySummary{Month: month}
	ids := config.ProgramIDs()
	sort.Strings(ids)

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		cfg, _ := config.GetProgram(id)

		_, err := s.poolSvc.CalculateDistribution(ctx, cfg, month)
		switch {
		case err == ErrPoolNotFound:
			// No deposits this month.
			summary.Skipped++
			continue
		case err == ErrAlreadyProcessed:
			summary.Skipped++
			continue
		case err != nil:
			summary.Failures++
			s.log.Error("pool close-out failed",
				zap.String("program", id), zap.String("month", month), zap.Error(err))
			continue
		}

		paid, count, err := s.poolSvc.Distribute(ctx, cfg, month)
		if err != nil {
			summary.Failures++
			s.log.Error("pool distribution failed",
				zap.String("program", id), zap.String("month", month), zap.Error(err))
			continue
		}
		summary.ProgramsProcessed++
		summary.MembersPaid += count
		summary.TotalPaid += paid
	}

	s.log.Info("monthly tick complete",
		zap.String("month", month),
		zap.Int("programs", summary.ProgramsProcessed),
		zap.Int("membersPaid", summary.MembersPaid),
		zap.Float64("totalPaid", summary.TotalPaid))
	return summary, nil
}
