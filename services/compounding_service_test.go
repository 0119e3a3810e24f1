package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amankumar-in/phantom-stake-sub000/config"
	"github.com/amankumar-in/phantom-stake-sub000/models"
	"github.com/amankumar-in/phantom-stake-sub000/utils"
)

func newCompoundingFixture(f *fakeStores) *CompoundingService {
	log := testLogger()
	overrides := NewOverrideService(f, f, f, f, f, log)
	return NewCompoundingService(f, f, overrides, log)
}

func TestEligible(t *testing.T) {
	cfg, _ := config.GetProgram("pioneer")

	w := &models.Wallet{}
	w.Income.Balance = 100
	w.Income.DaysWithoutWithdrawal = 7
	assert.True(t, Eligible(w, cfg))

	w.Income.Balance = 10 // below the $50 minimum
	assert.False(t, Eligible(w, cfg))

	w.Income.Balance = 100
	w.Income.DaysWithoutWithdrawal = 3 // below the 7-day window
	assert.False(t, Eligible(w, cfg))
}

func TestActivate(t *testing.T) {
	f := newFakeStores()
	svc := newCompoundingFixture(f)
	cfg, _ := config.GetProgram("pioneer")

	memberID := seedMember(f, "pioneer", nil, time.Now())
	f.wallets[memberID].Income.Balance = 100
	f.wallets[memberID].Income.DaysWithoutWithdrawal = 7

	require.NoError(t, svc.Activate(ctxb(), memberID, cfg))

	w, _ := f.GetWallet(ctxb(), memberID)
	assert.True(t, w.Income.Compounding.Active)
	assert.Equal(t, cfg.CompoundingRate, w.Income.Compounding.Rate)
	require.NotNil(t, w.Income.Compounding.StartDate)

	// Re-activation is a no-op, not an error.
	require.NoError(t, svc.Activate(ctxb(), memberID, cfg))
}

func TestActivateIneligible(t *testing.T) {
	f := newFakeStores()
	svc := newCompoundingFixture(f)
	cfg, _ := config.GetProgram("pioneer")

	memberID := seedMember(f, "pioneer", nil, time.Now())
	f.wallets[memberID].Income.Balance = 10

	assert.ErrorIs(t, svc.Activate(ctxb(), memberID, cfg), ErrNotEligible)
}

func TestActivateMirrorsRateOntoStakes(t *testing.T) {
	f := newFakeStores()
	svc := newCompoundingFixture(f)
	stakeSvc := newStakeFixture(f)
	cfg, _ := config.GetProgram("pioneer")

	memberID := seedMember(f, "pioneer", nil, time.Now())
	f.wallets[memberID].Income.Balance = 100
	f.wallets[memberID].Income.DaysWithoutWithdrawal = 7
	stake := seedStake(f, memberID, "pioneer", 1000, true)

	require.NoError(t, svc.Activate(ctxb(), memberID, cfg))

	s, _ := f.GetStake(ctxb(), stake.ID)
	assert.True(t, s.Compounding.Active)
	assert.Equal(t, cfg.CompoundingRate, s.Compounding.Rate)

	// The $1,000 stake now yields at the 1% compounding rate, not the base 0.5%.
	day := time.Date(2026, 4, 10, 8, 0, 0, 0, time.UTC)
	amount, err := stakeSvc.ProcessYieldPayment(ctxb(), s, day)
	require.NoError(t, err)
	assert.Equal(t, 10.0, amount)

	// A withdrawal break drops the stake back to the base rate.
	require.NoError(t, svc.BreakOnWithdrawal(ctxb(), memberID, day.AddDate(0, 0, 1)))
	s, _ = f.GetStake(ctxb(), stake.ID)
	assert.False(t, s.Compounding.Active)

	amount, err = stakeSvc.ProcessYieldPayment(ctxb(), s, day.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Equal(t, 5.0, amount)
}

func TestProcessDailySkipsActivationDay(t *testing.T) {
	f := newFakeStores()
	svc := newCompoundingFixture(f)
	cfg, _ := config.GetProgram("pioneer")

	memberID := seedMember(f, "pioneer", nil, time.Now())
	today := utils.DayStart(time.Now())
	f.wallets[memberID].Income.Balance = 1000
	f.wallets[memberID].Income.Compounding = models.CompoundingState{
		Active:    true,
		Rate:      0.01,
		StartDate: &today,
	}

	amount, err := svc.ProcessDaily(ctxb(), memberID, cfg, today)
	require.NoError(t, err)
	assert.Equal(t, 0.0, amount)

	// The next day it compounds on the full balance.
	amount, err = svc.ProcessDaily(ctxb(), memberID, cfg, today.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Equal(t, 10.0, amount)

	w, _ := f.GetWallet(ctxb(), memberID)
	assert.Equal(t, 1010.0, w.Income.Balance)
	assert.Equal(t, 10.0, w.Income.Compounding.TotalCompounded)
}

func TestProcessDailyOncePerDay(t *testing.T) {
	f := newFakeStores()
	svc := newCompoundingFixture(f)
	cfg, _ := config.GetProgram("pioneer")

	memberID := seedMember(f, "pioneer", nil, time.Now())
	start := utils.DayStart(time.Now().AddDate(0, 0, -3))
	f.wallets[memberID].Income.Balance = 500
	f.wallets[memberID].Income.Compounding = models.CompoundingState{
		Active:    true,
		Rate:      0.01,
		StartDate: &start,
	}

	today := time.Now().UTC()
	amount, err := svc.ProcessDaily(ctxb(), memberID, cfg, today)
	require.NoError(t, err)
	assert.Equal(t, 5.0, amount)

	amount, err = svc.ProcessDaily(ctxb(), memberID, cfg, today)
	require.NoError(t, err)
	assert.Equal(t, 0.0, amount)

	w, _ := f.GetWallet(ctxb(), memberID)
	assert.Equal(t, 505.0, w.Income.Balance)
}

func TestProcessDailyInactiveWallet(t *testing.T) {
	f := newFakeStores()
	svc := newCompoundingFixture(f)
	cfg, _ := config.GetProgram("pioneer")

	memberID := seedMember(f, "pioneer", nil, time.Now())
	f.wallets[memberID].Income.Balance = 500

	amount, err := svc.ProcessDaily(ctxb(), memberID, cfg, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 0.0, amount)
}

func TestBreakOnWithdrawalLogsWhenActive(t *testing.T) {
	f := newFakeStores()
	svc := newCompoundingFixture(f)

	memberID := seedMember(f, "pioneer", nil, time.Now())
	start := utils.DayStart(time.Now().AddDate(0, 0, -5))
	f.wallets[memberID].Income.Compounding = models.CompoundingState{
		Active:    true,
		Rate:      0.01,
		StartDate: &start,
	}
	f.wallets[memberID].Income.DaysWithoutWithdrawal = 12

	now := time.Now().UTC()
	require.NoError(t, svc.BreakOnWithdrawal(ctxb(), memberID, now))

	w, _ := f.GetWallet(ctxb(), memberID)
	assert.False(t, w.Income.Compounding.Active)
	assert.Equal(t, 0, w.Income.DaysWithoutWithdrawal)
	require.NotNil(t, w.Income.LastWithdrawalDate)

	breaks := f.transactionsOfType(memberID, models.TxCompoundingBreak)
	assert.Len(t, breaks, 1)
}

func TestBreakOnWithdrawalSilentWhenInactive(t *testing.T) {
	f := newFakeStores()
	svc := newCompoundingFixture(f)

	memberID := seedMember(f, "pioneer", nil, time.Now())
	f.wallets[memberID].Income.DaysWithoutWithdrawal = 4

	require.NoError(t, svc.BreakOnWithdrawal(ctxb(), memberID, time.Now().UTC()))

	w, _ := f.GetWallet(ctxb(), memberID)
	assert.Equal(t, 0, w.Income.DaysWithoutWithdrawal)
	assert.Empty(t, f.transactionsOfType(memberID, models.TxCompoundingBreak))
}
