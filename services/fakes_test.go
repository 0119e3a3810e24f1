package services

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/amankumar-in/phantom-stake-sub000/models"
	"github.com/amankumar-in/phantom-stake-sub000/utils"
)

// fakeStores is a single in-memory implementation of every store interface,
// mirroring the guard semantics of the Mongo repositories (idempotency keys,
// CAS versions, insert-if-absent). All reads return copies so held snapshots
// go stale the way database reads do.
type fakeStores struct {
	mu sync.Mutex

	members    map[primitive.ObjectID]*models.Member
	byReferral map[string]primitive.ObjectID

	wallets map[primitive.ObjectID]*models.Wallet
	txs     []models.Transaction
	txKeys  map[string]bool

	nodes map[primitive.ObjectID]*models.TreeNode
	// insertNodeErr fails the next InsertNode call, once.
	insertNodeErr error

	stakes map[primitive.ObjectID]*models.Stake

	matching  map[string]*models.MatchingBonus
	overrides []models.LevelOverride

	pools map[string]*models.LeadershipPool

	withdrawals map[primitive.ObjectID]*models.Withdrawal
}

var (
	_ MemberStore     = (*fakeStores)(nil)
	_ WalletStore     = (*fakeStores)(nil)
	_ TreeStore       = (*fakeStores)(nil)
	_ StakeStore      = (*fakeStores)(nil)
	_ BonusStore      = (*fakeStores)(nil)
	_ PoolStore       = (*fakeStores)(nil)
	_ WithdrawalStore = (*fakeStores)(nil)
)

func newFakeStores() *fakeStores {
	return &fakeStores{
		members:     make(map[primitive.ObjectID]*models.Member),
		byReferral:  make(map[string]primitive.ObjectID),
		wallets:     make(map[primitive.ObjectID]*models.Wallet),
		txKeys:      make(map[string]bool),
		nodes:       make(map[primitive.ObjectID]*models.TreeNode),
		stakes:      make(map[primitive.ObjectID]*models.Stake),
		matching:    make(map[string]*models.MatchingBonus),
		pools:       make(map[string]*models.LeadershipPool),
		withdrawals: make(map[primitive.ObjectID]*models.Withdrawal),
	}
}

// --- MemberStore ---

func (f *fakeStores) InsertMember(ctx context.Context, m *models.Member) (primitive.ObjectID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if m.ID.IsZero() {
		m.ID = primitive.NewObjectID()
	}
	cp := *m
	f.members[m.ID] = &cp
	if m.ReferralCode != "" {
		f.byReferral[m.ReferralCode] = m.ID
	}
	return m.ID, nil
}

func (f *fakeStores) GetMember(ctx context.Context, id primitive.ObjectID) (*models.Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.members[id]
	if !ok {
		return nil, ErrMemberNotFound
	}
	cp := *m
	return &cp, nil
}

func (f *fakeStores) GetMemberByReferralCode(ctx context.Context, code string) (*models.Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.byReferral[code]
	if !ok {
		return nil, ErrSponsorNotFound
	}
	cp := *f.members[id]
	return &cp, nil
}

func (f *fakeStores) ListMembersJoinedBefore(ctx context.Context, cutoff time.Time) ([]models.Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Member
	for _, m := range f.members {
		if m.IsActive && m.JoinedAt.Before(cutoff) {
			out = append(out, *m)
		}
	}
	return out, nil
}

// --- WalletStore ---

func (f *fakeStores) EnsureWallet(ctx context.Context, memberID primitive.ObjectID) (*models.Wallet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, ok := f.wallets[memberID]
	if !ok {
		w = &models.Wallet{
			ID:        primitive.NewObjectID(),
			MemberID:  memberID,
			CreatedAt: time.Now().UTC(),
		}
		f.wallets[memberID] = w
	}
	cp := *w
	return &cp, nil
}

func (f *fakeStores) GetWallet(ctx context.Context, memberID primitive.ObjectID) (*models.Wallet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, ok := f.wallets[memberID]
	if !ok {
		return nil, ErrWalletNotFound
	}
	cp := *w
	return &cp, nil
}

// appendTxLocked claims the idempotency key; callers hold the lock.
func (f *fakeStores) appendTxLocked(tx models.Transaction) error {
	if tx.IdempotencyKey != "" {
		if f.txKeys[tx.IdempotencyKey] {
			return ErrAlreadyProcessed
		}
		f.txKeys[tx.IdempotencyKey] = true
	}
	f.txs = append(f.txs, tx)
	return nil
}

func (f *fakeStores) AppendTransaction(ctx context.Context, tx models.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.appendTxLocked(tx)
}

func (f *fakeStores) CreditPrincipal(ctx context.Context, memberID primitive.ObjectID, amount float64, tx models.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, ok := f.wallets[memberID]
	if !ok {
		return ErrWalletNotFound
	}
	if err := f.appendTxLocked(tx); err != nil {
		return err
	}
	w.Principal.Balance += amount
	return nil
}

func (f *fakeStores) DebitPrincipal(ctx context.Context, memberID primitive.ObjectID, amount float64, tx models.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, ok := f.wallets[memberID]
	if !ok {
		return ErrWalletNotFound
	}
	if w.Principal.Balance < amount {
		return ErrInsufficientBalance
	}
	if err := f.appendTxLocked(tx); err != nil {
		return err
	}
	w.Principal.Balance -= amount
	return nil
}

func (f *fakeStores) CreditIncome(ctx context.Context, memberID primitive.ObjectID, amount float64, tx models.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, ok := f.wallets[memberID]
	if !ok {
		return ErrWalletNotFound
	}
	if err := f.appendTxLocked(tx); err != nil {
		return err
	}
	w.Income.Balance += amount
	w.Income.TotalEarned += amount
	return nil
}

func (f *fakeStores) IncTotalStaked(ctx context.Context, memberID primitive.ObjectID, amount float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, ok := f.wallets[memberID]
	if !ok {
		return ErrWalletNotFound
	}
	w.Principal.TotalStaked += amount
	return nil
}

func (f *fakeStores) HoldIncome(ctx context.Context, memberID primitive.ObjectID, amount float64, tx models.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, ok := f.wallets[memberID]
	if !ok {
		return ErrWalletNotFound
	}
	if w.Income.Balance < amount {
		return ErrInsufficientBalance
	}
	if err := f.appendTxLocked(tx); err != nil {
		return err
	}
	w.Income.Balance -= amount
	w.Income.PendingHolds += amount
	return nil
}

func (f *fakeStores) SettleHold(ctx context.Context, memberID primitive.ObjectID, amount float64, tx models.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, ok := f.wallets[memberID]
	if !ok {
		return ErrWalletNotFound
	}
	if err := f.appendTxLocked(tx); err != nil {
		return err
	}
	if w.Income.PendingHolds < amount {
		return ErrInsufficientBalance
	}
	w.Income.PendingHolds -= amount
	w.Income.TotalWithdrawn += amount
	return nil
}

func (f *fakeStores) ReleaseHold(ctx context.Context, memberID primitive.ObjectID, amount float64, tx models.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, ok := f.wallets[memberID]
	if !ok {
		return ErrWalletNotFound
	}
	if err := f.appendTxLocked(tx); err != nil {
		return err
	}
	if w.Income.PendingHolds < amount {
		return ErrInsufficientBalance
	}
	w.Income.PendingHolds -= amount
	w.Income.Balance += amount
	return nil
}

func (f *fakeStores) SetCompounding(ctx context.Context, memberID primitive.ObjectID, state models.CompoundingState) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, ok := f.wallets[memberID]
	if !ok {
		return ErrWalletNotFound
	}
	w.Income.Compounding = state
	return nil
}

func (f *fakeStores) ApplyCompound(ctx context.Context, memberID primitive.ObjectID, amount float64, day time.Time, tx models.Transaction) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, ok := f.wallets[memberID]
	if !ok {
		return false, ErrWalletNotFound
	}
	c := &w.Income.Compounding
	dayStart := utils.DayStart(day)
	if !c.Active {
		return false, nil
	}
	if c.LastCompoundDate != nil && !c.LastCompoundDate.Before(dayStart) {
		return false, nil
	}
	w.Income.Balance += amount
	w.Income.TotalEarned += amount
	c.TotalCompounded += amount
	c.LastCompoundDate = &dayStart
	_ = f.appendTxLocked(tx)
	return true, nil
}

func (f *fakeStores) ResetOnWithdrawal(ctx context.Context, memberID primitive.ObjectID, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, ok := f.wallets[memberID]
	if !ok {
		return ErrWalletNotFound
	}
	w.Income.Compounding.Active = false
	w.Income.DaysWithoutWithdrawal = 0
	w.Income.LastWithdrawalDate = &at
	return nil
}

func (f *fakeStores) RolloverInactivity(ctx context.Context, memberID primitive.ObjectID, day time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, ok := f.wallets[memberID]
	if !ok {
		return false, ErrWalletNotFound
	}
	dayStart := utils.DayStart(day)
	if w.Income.LastRolloverDate != nil && !w.Income.LastRolloverDate.Before(dayStart) {
		return false, nil
	}
	w.Income.DaysWithoutWithdrawal++
	w.Income.LastRolloverDate = &dayStart
	return true, nil
}

func (f *fakeStores) ListTransactions(ctx context.Context, memberID primitive.ObjectID, limit, offset int64) ([]models.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Transaction
	for _, tx := range f.txs {
		if tx.MemberID == memberID {
			out = append(out, tx)
		}
	}
	return out, nil
}

// transactionsOfType is a test helper, not part of any store interface.
func (f *fakeStores) transactionsOfType(memberID primitive.ObjectID, txType string) []models.Transaction {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Transaction
	for _, tx := range f.txs {
		if tx.MemberID == memberID && tx.Type == txType {
			out = append(out, tx)
		}
	}
	return out
}

// --- TreeStore ---

func (f *fakeStores) InsertNode(ctx context.Context, node *models.TreeNode) (primitive.ObjectID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.insertNodeErr; err != nil {
		f.insertNodeErr = nil
		return primitive.NilObjectID, err
	}
	if node.Position == models.PositionRoot {
		for _, n := range f.nodes {
			if n.Position == models.PositionRoot {
				return primitive.NilObjectID, ErrRootExists
			}
		}
	}
	if node.ID.IsZero() {
		node.ID = primitive.NewObjectID()
	}
	cp := *node
	f.nodes[node.MemberID] = &cp
	return node.ID, nil
}

func (f *fakeStores) GetNode(ctx context.Context, memberID primitive.ObjectID) (*models.TreeNode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, ok := f.nodes[memberID]
	if !ok {
		return nil, ErrNodeNotFound
	}
	cp := *n
	return &cp, nil
}

func (f *fakeStores) SetChild(ctx context.Context, parentMemberID primitive.ObjectID, position string, childMemberID primitive.ObjectID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, ok := f.nodes[parentMemberID]
	if !ok {
		return false, ErrNodeNotFound
	}
	if position == models.PositionRight {
		if n.RightChildID != nil {
			return false, nil
		}
		n.RightChildID = &childMemberID
		return true, nil
	}
	if n.LeftChildID != nil {
		return false, nil
	}
	n.LeftChildID = &childMemberID
	return true, nil
}

func (f *fakeStores) ClearChild(ctx context.Context, parentMemberID primitive.ObjectID, position string, childMemberID primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, ok := f.nodes[parentMemberID]
	if !ok {
		return ErrNodeNotFound
	}
	if position == models.PositionRight {
		if n.RightChildID != nil && *n.RightChildID == childMemberID {
			n.RightChildID = nil
		}
		return nil
	}
	if n.LeftChildID != nil && *n.LeftChildID == childMemberID {
		n.LeftChildID = nil
	}
	return nil
}

func (f *fakeStores) CASVolumes(ctx context.Context, memberID primitive.ObjectID, version int64, personal, left, right float64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, ok := f.nodes[memberID]
	if !ok {
		return false, ErrNodeNotFound
	}
	if n.Version != version {
		return false, nil
	}
	n.PersonalVolume = personal
	n.LeftLegVolume = left
	n.RightLegVolume = right
	n.Version++
	return true, nil
}

func (f *fakeStores) IncTeamSize(ctx context.Context, memberID primitive.ObjectID, delta int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, ok := f.nodes[memberID]
	if !ok {
		return ErrNodeNotFound
	}
	n.TotalTeamSize += delta
	return nil
}

func (f *fakeStores) GetDirects(ctx context.Context, sponsorID primitive.ObjectID) ([]models.TreeNode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.TreeNode
	for _, n := range f.nodes {
		if n.SponsorID != nil && *n.SponsorID == sponsorID {
			out = append(out, *n)
		}
	}
	return out, nil
}

func (f *fakeStores) ActiveMemberIDs(ctx context.Context) ([]primitive.ObjectID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]primitive.ObjectID, 0, len(f.nodes))
	for id := range f.nodes {
		ids = append(ids, id)
	}
	return ids, nil
}

// --- StakeStore ---

func (f *fakeStores) InsertStake(ctx context.Context, s *models.Stake) (primitive.ObjectID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s.ID.IsZero() {
		s.ID = primitive.NewObjectID()
	}
	cp := *s
	f.stakes[s.ID] = &cp
	return s.ID, nil
}

func (f *fakeStores) GetStake(ctx context.Context, id primitive.ObjectID) (*models.Stake, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.stakes[id]
	if !ok {
		return nil, ErrStakeNotFound
	}
	cp := *s
	return &cp, nil
}

func (f *fakeStores) ActiveStakesByMember(ctx context.Context, memberID primitive.ObjectID) ([]models.Stake, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Stake
	for _, s := range f.stakes {
		if s.MemberID == memberID && s.Active {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (f *fakeStores) ActiveStakeTotal(ctx context.Context, memberID primitive.ObjectID) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var total float64
	for _, s := range f.stakes {
		if s.MemberID == memberID && s.Active {
			total += s.Amount
		}
	}
	return total, nil
}

func (f *fakeStores) MarkYieldPaid(ctx context.Context, stakeID primitive.ObjectID, day time.Time, amount float64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.stakes[stakeID]
	if !ok || !s.Active {
		return false, nil
	}
	dayStart := utils.DayStart(day)
	if s.LastPaidDate != nil && !s.LastPaidDate.Before(dayStart) {
		return false, nil
	}
	s.LastPaidDate = &dayStart
	s.TotalYieldPaid += amount
	return true, nil
}

func (f *fakeStores) SetStakeCompounding(ctx context.Context, memberID primitive.ObjectID, state models.CompoundingState) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.stakes {
		if s.MemberID == memberID && s.Active {
			s.Compounding = state
		}
	}
	return nil
}

// --- BonusStore ---

func matchingKey(memberID primitive.ObjectID, day time.Time) string {
	return memberID.Hex() + ":" + utils.DayKey(day)
}

func (f *fakeStores) InsertMatchingBonus(ctx context.Context, b *models.MatchingBonus) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := matchingKey(b.MemberID, b.Date)
	if _, exists := f.matching[key]; exists {
		return false, nil
	}
	if b.ID.IsZero() {
		b.ID = primitive.NewObjectID()
	}
	cp := *b
	f.matching[key] = &cp
	return true, nil
}

func (f *fakeStores) CapUsed(ctx context.Context, memberID primitive.ObjectID, day time.Time) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if b, ok := f.matching[matchingKey(memberID, day)]; ok {
		return b.BonusAmount, nil
	}
	return 0, nil
}

func (f *fakeStores) InsertOverride(ctx context.Context, o *models.LevelOverride) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if o.ID.IsZero() {
		o.ID = primitive.NewObjectID()
	}
	f.overrides = append(f.overrides, *o)
	return nil
}

func (f *fakeStores) MatchingHistory(ctx context.Context, memberID primitive.ObjectID, limit, offset int64) ([]models.MatchingBonus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.MatchingBonus
	for _, b := range f.matching {
		if b.MemberID == memberID {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (f *fakeStores) OverrideHistory(ctx context.Context, earnerID primitive.ObjectID, limit, offset int64) ([]models.LevelOverride, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.LevelOverride
	for _, o := range f.overrides {
		if o.EarnerID == earnerID {
			out = append(out, o)
		}
	}
	return out, nil
}

// overridesEarnedBy is a test helper.
func (f *fakeStores) overridesEarnedBy(earnerID primitive.ObjectID) []models.LevelOverride {
	out, _ := f.OverrideHistory(context.Background(), earnerID, 0, 0)
	return out
}

// --- PoolStore ---

func poolKey(program, month string) string {
	return program + ":" + month
}

func (f *fakeStores) GetPool(ctx context.Context, program, month string) (*models.LeadershipPool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.pools[poolKey(program, month)]
	if !ok {
		return nil, ErrPoolNotFound
	}
	cp := *p
	cp.SubPools = append([]models.SubPool(nil), p.SubPools...)
	return &cp, nil
}

func (f *fakeStores) GetOrCreatePool(ctx context.Context, program, month string, subPools []models.SubPool) (*models.LeadershipPool, error) {
	f.mu.Lock()
	key := poolKey(program, month)
	if _, ok := f.pools[key]; !ok {
		f.pools[key] = &models.LeadershipPool{
			ID:        primitive.NewObjectID(),
			Program:   program,
			Month:     month,
			SubPools:  append([]models.SubPool(nil), subPools...),
			Status:    models.PoolCollecting,
			CreatedAt: time.Now().UTC(),
		}
	}
	f.mu.Unlock()
	return f.GetPool(ctx, program, month)
}

func (f *fakeStores) IncrementDeposits(ctx context.Context, program, month string, amount float64) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.pools[poolKey(program, month)]
	if !ok {
		return 0, ErrPoolNotFound
	}
	if p.Status != models.PoolCollecting {
		return 0, ErrPoolNotCollecting
	}
	p.TotalDeposits += amount
	return p.TotalDeposits, nil
}

func (f *fakeStores) SetSubPoolTotals(ctx context.Context, program, month string, subPools []models.SubPool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.pools[poolKey(program, month)]
	if !ok {
		return ErrPoolNotFound
	}
	p.SubPools = append([]models.SubPool(nil), subPools...)
	return nil
}

func (f *fakeStores) SetReady(ctx context.Context, program, month string, subPools []models.SubPool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.pools[poolKey(program, month)]
	if !ok {
		return ErrPoolNotFound
	}
	p.SubPools = append([]models.SubPool(nil), subPools...)
	p.Status = models.PoolReady
	return nil
}

func (f *fakeStores) MarkDistributed(ctx context.Context, program, month string, at time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.pools[poolKey(program, month)]
	if !ok {
		return false, ErrPoolNotFound
	}
	if p.Status != models.PoolReady || p.Distributed {
		return false, nil
	}
	p.Status = models.PoolDistributed
	p.Distributed = true
	p.DistributedAt = &at
	return true, nil
}

// --- WithdrawalStore ---

func (f *fakeStores) InsertWithdrawal(ctx context.Context, w *models.Withdrawal) (primitive.ObjectID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if w.ID.IsZero() {
		w.ID = primitive.NewObjectID()
	}
	cp := *w
	f.withdrawals[w.ID] = &cp
	return w.ID, nil
}

func (f *fakeStores) GetWithdrawal(ctx context.Context, id primitive.ObjectID) (*models.Withdrawal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, ok := f.withdrawals[id]
	if !ok {
		return nil, ErrWithdrawalNotFound
	}
	cp := *w
	return &cp, nil
}

func (f *fakeStores) SetWithdrawalStatus(ctx context.Context, id primitive.ObjectID, from, to, note string, at time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, ok := f.withdrawals[id]
	if !ok {
		return false, ErrWithdrawalNotFound
	}
	if w.Status != from {
		return false, nil
	}
	w.Status = to
	w.ProcessedAt = &at
	switch to {
	case models.WithdrawalApproved:
		w.AdminNote = note
	case models.WithdrawalRejected:
		w.RejectionReason = note
	}
	return true, nil
}

func (f *fakeStores) ListWithdrawalsByMember(ctx context.Context, memberID primitive.ObjectID, limit, offset int64) ([]models.Withdrawal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Withdrawal
	for _, w := range f.withdrawals {
		if w.MemberID == memberID {
			out = append(out, *w)
		}
	}
	return out, nil
}
