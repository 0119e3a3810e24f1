package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amankumar-in/phantom-stake-sub000/config"
	"github.com/amankumar-in/phantom-stake-sub000/models"
)

func newStakeFixture(f *fakeStores) *StakeService {
	log := testLogger()
	placement := NewPlacementService(f, log)
	overrides := NewOverrideService(f, f, f, f, f, log)
	pools := NewPoolService(f, f, f, f, f, nil, log)
	return NewStakeService(f, f, f, placement, overrides, pools, log)
}

func TestCreateStakeRejectsBelowMinimum(t *testing.T) {
	f := newFakeStores()
	svc := newStakeFixture(f)

	memberID := seedMember(f, "pioneer", nil, time.Now())
	f.wallets[memberID].Principal.Balance = 1000

	_, err := svc.CreateStake(ctxb(), memberID, models.StakeRequest{Amount: 50, Program: "pioneer"})
	assert.ErrorIs(t, err, ErrBelowMinimum)

	_, err = svc.CreateStake(ctxb(), memberID, models.StakeRequest{Amount: 500, Program: "nope"})
	assert.ErrorIs(t, err, ErrUnknownProgram)

	// Nothing moved.
	w, _ := f.GetWallet(ctxb(), memberID)
	assert.Equal(t, 1000.0, w.Principal.Balance)
}

func TestCreateStakeRejectsInsufficientBalance(t *testing.T) {
	f := newFakeStores()
	svc := newStakeFixture(f)

	memberID := seedMember(f, "pioneer", nil, time.Now())
	f.wallets[memberID].Principal.Balance = 100

	_, err := svc.CreateStake(ctxb(), memberID, models.StakeRequest{Amount: 500, Program: "pioneer"})
	assert.ErrorIs(t, err, ErrInsufficientBalance)
}

func TestCreateStakeDebitsAndPropagates(t *testing.T) {
	f := newFakeStores()
	svc := newStakeFixture(f)

	memberID := seedMember(f, "pioneer", nil, time.Now())
	f.wallets[memberID].Principal.Balance = 2000
	seedNode(f, memberID, nil, nil, models.PositionRoot, 0)

	result, err := svc.CreateStake(ctxb(), memberID, models.StakeRequest{Amount: 500, Program: "pioneer"})
	require.NoError(t, err)
	assert.False(t, result.EnhancedQualified)
	assert.Equal(t, 0.005, result.EffectiveRate)

	w, _ := f.GetWallet(ctxb(), memberID)
	assert.Equal(t, 1500.0, w.Principal.Balance)
	assert.Equal(t, 500.0, w.Principal.TotalStaked)

	node, _ := f.GetNode(ctxb(), memberID)
	assert.Equal(t, 500.0, node.PersonalVolume)

	// Deposit accrued into this month's pool.
	pool, err := f.GetPool(ctxb(), "pioneer", time.Now().UTC().Format("2006-01"))
	require.NoError(t, err)
	assert.Equal(t, 500.0, pool.TotalDeposits)
}

func TestEnhancedQualification(t *testing.T) {
	f := newFakeStores()
	svc := newStakeFixture(f)

	memberID := seedMember(f, "pioneer", nil, time.Now())
	f.wallets[memberID].Principal.Balance = 10000
	seedNode(f, memberID, nil, nil, models.PositionRoot, 0)

	// One direct holding an active stake above the referral threshold.
	directID := seedMember(f, "pioneer", &memberID, time.Now())
	seedNode(f, directID, &memberID, &memberID, models.PositionLeft, 1)
	seedStake(f, directID, "pioneer", 1200, true)

	result, err := svc.CreateStake(ctxb(), memberID, models.StakeRequest{Amount: 6000, Program: "pioneer"})
	require.NoError(t, err)
	assert.True(t, result.EnhancedQualified)
	assert.Equal(t, 0.0085, result.EffectiveRate)
}

func TestEnhancedQualificationNeedsQualifyingDirect(t *testing.T) {
	f := newFakeStores()
	svc := newStakeFixture(f)

	memberID := seedMember(f, "pioneer", nil, time.Now())
	f.wallets[memberID].Principal.Balance = 10000
	seedNode(f, memberID, nil, nil, models.PositionRoot, 0)

	// Direct's stake is below the $1,000 referral threshold.
	directID := seedMember(f, "pioneer", &memberID, time.Now())
	seedNode(f, directID, &memberID, &memberID, models.PositionLeft, 1)
	seedStake(f, directID, "pioneer", 800, true)

	result, err := svc.CreateStake(ctxb(), memberID, models.StakeRequest{Amount: 6000, Program: "pioneer"})
	require.NoError(t, err)
	assert.False(t, result.EnhancedQualified)
}

func TestCalculateDailyYieldRatePrecedence(t *testing.T) {
	cfg, _ := config.GetProgram("pioneer")

	stake := &models.Stake{Amount: 1000}
	amount, rate := CalculateDailyYield(stake, cfg)
	assert.Equal(t, 0.005, rate)
	assert.Equal(t, 5.0, amount)

	stake.EnhancedQualified = true
	amount, rate = CalculateDailyYield(stake, cfg)
	assert.Equal(t, 0.0085, rate)
	assert.InDelta(t, 8.5, amount, 1e-9)

	// Compounding rate wins over the enhanced rate.
	stake.Compounding = models.CompoundingState{Active: true, Rate: 0.01}
	amount, rate = CalculateDailyYield(stake, cfg)
	assert.Equal(t, 0.01, rate)
	assert.Equal(t, 10.0, amount)
}

func TestProcessYieldPaymentOncePerDay(t *testing.T) {
	f := newFakeStores()
	svc := newStakeFixture(f)

	memberID := seedMember(f, "pioneer", nil, time.Now())
	stake := seedStake(f, memberID, "pioneer", 1000, true)

	today := time.Date(2026, 3, 15, 9, 30, 0, 0, time.UTC)

	snapshot, _ := f.GetStake(ctxb(), stake.ID)
	amount, err := svc.ProcessYieldPayment(ctxb(), snapshot, today)
	require.NoError(t, err)
	assert.Equal(t, 5.0, amount)

	// Second run the same day pays nothing.
	snapshot, _ = f.GetStake(ctxb(), stake.ID)
	amount, err = svc.ProcessYieldPayment(ctxb(), snapshot, today)
	require.NoError(t, err)
	assert.Equal(t, 0.0, amount)

	w, _ := f.GetWallet(ctxb(), memberID)
	assert.Equal(t, 5.0, w.Income.Balance)
	assert.Equal(t, 5.0, w.Income.TotalEarned)

	// Next day pays again.
	snapshot, _ = f.GetStake(ctxb(), stake.ID)
	amount, err = svc.ProcessYieldPayment(ctxb(), snapshot, today.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Equal(t, 5.0, amount)
}

func TestProcessYieldPaymentStaleSnapshotLosesClaim(t *testing.T) {
	f := newFakeStores()
	svc := newStakeFixture(f)

	memberID := seedMember(f, "pioneer", nil, time.Now())
	stake := seedStake(f, memberID, "pioneer", 1000, true)

	today := time.Now().UTC()

	// Two workers hold the same pre-payment snapshot.
	first, _ := f.GetStake(ctxb(), stake.ID)
	second, _ := f.GetStake(ctxb(), stake.ID)

	amount, err := svc.ProcessYieldPayment(ctxb(), first, today)
	require.NoError(t, err)
	assert.Equal(t, 5.0, amount)

	amount, err = svc.ProcessYieldPayment(ctxb(), second, today)
	require.NoError(t, err)
	assert.Equal(t, 0.0, amount)

	w, _ := f.GetWallet(ctxb(), memberID)
	assert.Equal(t, 5.0, w.Income.Balance)
}
