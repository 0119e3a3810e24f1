// services/scheduler.go
package services

import (
	"context"
	"os"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/amankumar-in/phantom-stake-sub000/utils"
)

const (
	dailyTickSpec   = "0 5 0 * * *"  // 00:05 UTC every day
	monthlyTickSpec = "0 30 0 1 * *" // 00:30 UTC on the 1st

	dailyTickTimeout   = 2 * time.Hour
	monthlyTickTimeout = 1 * time.Hour
)

// Scheduler wires the daily and monthly ticks onto cron. A Redis SETNX lock
// per (tick, period) keeps a multi-instance deployment down to one worker
// per cycle type; without Redis the per-day idempotency keys still prevent
// double payment.
type Scheduler struct {
	cron  *cron.Cron
	ticks *TickService
	redis *redis.Client
	log   *zap.Logger
}

func NewScheduler(ticks *TickService, redisClient *redis.Client, logger *zap.Logger) *Scheduler {
	return &Scheduler{ticks: ticks, redis: redisClient, log: logger}
}

// Start registers the tick entries and launches cron.
func (s *Scheduler) Start() error {
	c := cron.New(
		cron.WithSeconds(),
		cron.WithLocation(time.UTC),
		cron.WithChain(cron.Recover(cron.DefaultLogger)),
	)
	if _, err := c.AddFunc(dailyTickSpec, s.runDaily); err != nil {
		return err
	}
	if _, err := c.AddFunc(monthlyTickSpec, s.runMonthly); err != nil {
		return err
	}
	c.Start()
	s.cron = c
	s.log.Info("scheduler started",
		zap.String("daily", dailyTickSpec), zap.String("monthly", monthlyTickSpec))
	return nil
}

// Stop halts cron and waits for a running tick to finish.
func (s *Scheduler) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
}

func (s *Scheduler) runDaily() {
	now := time.Now().UTC()
	if !s.acquireLock("ticks:daily:"+utils.DayKey(now), 23*time.Hour) {
		s.log.Info("daily tick already claimed", zap.String("day", utils.DayKey(now)))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), dailyTickTimeout)
	defer cancel()
	if _, err := s.ticks.ProcessDailyTick(ctx, now); err != nil {
		s.log.Error("daily tick failed", zap.Error(err))
	}
}

func (s *Scheduler) runMonthly() {
	// Close out the month that just ended.
	month := utils.MonthKey(time.Now().UTC().AddDate(0, 0, -1))
	if !s.acquireLock("ticks:monthly:"+month, 27*24*time.Hour) {
		s.log.Info("monthly tick already claimed", zap.String("month", month))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), monthlyTickTimeout)
	defer cancel()
	if _, err := s.ticks.ProcessMonthlyTick(ctx, month); err != nil {
		s.log.Error("monthly tick failed", zap.Error(err))
	}
}

func (s *Scheduler) acquireLock(key string, ttl time.Duration) bool {
	if s.redis == nil {
		return true
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	host, _ := os.Hostname()
	ok, err := s.redis.SetNX(ctx, key, host, ttl).Result()
	if err != nil {
		s.log.Warn("tick lock unavailable, proceeding", zap.String("key", key), zap.Error(err))
		return true
	}
	return ok
}
