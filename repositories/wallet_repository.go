package repositories

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/amankumar-in/phantom-stake-sub000/config"
	"github.com/amankumar-in/phantom-stake-sub000/models"
	"github.com/amankumar-in/phantom-stake-sub000/services"
	"github.com/amankumar-in/phantom-stake-sub000/utils"
)

// WalletRepository backs both wallet balances and the append-only transaction
// ledger. Credits that carry an idempotency key insert the ledger entry first;
// the unique partial index on transactions.idempotencyKey turns a replay into
// a duplicate-key error before any balance moves.
type WalletRepository struct {
	wallets      *mongo.Collection
	transactions *mongo.Collection
}

func NewWalletRepository(db *mongo.Client) *WalletRepository {
	return &WalletRepository{
		wallets:      config.GetCollection(db, "wallets"),
		transactions: config.GetCollection(db, "transactions"),
	}
}

var _ services.WalletStore = (*WalletRepository)(nil)

func (r *WalletRepository) EnsureWallet(ctx context.Context, memberID primitive.ObjectID) (*models.Wallet, error) {
	now := time.Now().UTC()
	filter := bson.M{"memberId": memberID}
	update := bson.M{
		"$setOnInsert": bson.M{
			"memberId":  memberID,
			"principal": models.PrincipalWallet{},
			"income":    models.IncomeWallet{},
			"createdAt": now,
			"updatedAt": now,
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var w models.Wallet
	if err := r.wallets.FindOneAndUpdate(ctx, filter, update, opts).Decode(&w); err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *WalletRepository) GetWallet(ctx context.Context, memberID primitive.ObjectID) (*models.Wallet, error) {
	var w models.Wallet
	err := r.wallets.FindOne(ctx, bson.M{"memberId": memberID}).Decode(&w)
	if err == mongo.ErrNoDocuments {
		return nil, services.ErrWalletNotFound
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// AppendTransaction inserts a ledger entry. A duplicate idempotency key
// reports ErrAlreadyProcessed.
func (r *WalletRepository) AppendTransaction(ctx context.Context, tx models.Transaction) error {
	if tx.ID.IsZero() {
		tx.ID = primitive.NewObjectID()
	}
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now().UTC()
	}
	_, err := r.transactions.InsertOne(ctx, tx)
	if mongo.IsDuplicateKeyError(err) {
		return services.ErrAlreadyProcessed
	}
	return err
}

func (r *WalletRepository) ListTransactions(ctx context.Context, memberID primitive.ObjectID, limit, offset int64) ([]models.Transaction, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(limit).
		SetSkip(offset)
	cursor, err := r.transactions.Find(ctx, bson.M{"memberId": memberID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var txs []models.Transaction
	if err := cursor.All(ctx, &txs); err != nil {
		return nil, err
	}
	return txs, nil
}

func (r *WalletRepository) CreditPrincipal(ctx context.Context, memberID primitive.ObjectID, amount float64, tx models.Transaction) error {
	if err := r.AppendTransaction(ctx, tx); err != nil {
		return err
	}
	update := bson.M{
		"$inc": bson.M{"principal.balance": amount},
		"$set": bson.M{"updatedAt": time.Now().UTC()},
	}
	_, err := r.wallets.UpdateOne(ctx, bson.M{"memberId": memberID}, update)
	return err
}

// DebitPrincipal debits only when the balance covers the amount; the filter
// rejects overdrafts atomically.
func (r *WalletRepository) DebitPrincipal(ctx context.Context, memberID primitive.ObjectID, amount float64, tx models.Transaction) error {
	filter := bson.M{
		"memberId":          memberID,
		"principal.balance": bson.M{"$gte": amount},
	}
	update := bson.M{
		"$inc": bson.M{"principal.balance": -amount},
		"$set": bson.M{"updatedAt": time.Now().UTC()},
	}
	result, err := r.wallets.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.ModifiedCount == 0 {
		if _, gerr := r.GetWallet(ctx, memberID); gerr != nil {
			return gerr
		}
		return services.ErrInsufficientBalance
	}
	return r.AppendTransaction(ctx, tx)
}

func (r *WalletRepository) CreditIncome(ctx context.Context, memberID primitive.ObjectID, amount float64, tx models.Transaction) error {
	if err := r.AppendTransaction(ctx, tx); err != nil {
		return err
	}
	update := bson.M{
		"$inc": bson.M{
			"income.balance":     amount,
			"income.totalEarned": amount,
		},
		"$set": bson.M{"updatedAt": time.Now().UTC()},
	}
	_, err := r.wallets.UpdateOne(ctx, bson.M{"memberId": memberID}, update)
	return err
}

func (r *WalletRepository) IncTotalStaked(ctx context.Context, memberID primitive.ObjectID, amount float64) error {
	update := bson.M{
		"$inc": bson.M{"principal.totalStaked": amount},
		"$set": bson.M{"updatedAt": time.Now().UTC()},
	}
	_, err := r.wallets.UpdateOne(ctx, bson.M{"memberId": memberID}, update)
	return err
}

func (r *WalletRepository) HoldIncome(ctx context.Context, memberID primitive.ObjectID, amount float64, tx models.Transaction) error {
	filter := bson.M{
		"memberId":       memberID,
		"income.balance": bson.M{"$gte": amount},
	}
	update := bson.M{
		"$inc": bson.M{
			"income.balance":      -amount,
			"income.pendingHolds": amount,
		},
		"$set": bson.M{"updatedAt": time.Now().UTC()},
	}
	result, err := r.wallets.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.ModifiedCount == 0 {
		if _, gerr := r.GetWallet(ctx, memberID); gerr != nil {
			return gerr
		}
		return services.ErrInsufficientBalance
	}
	return r.AppendTransaction(ctx, tx)
}

func (r *WalletRepository) SettleHold(ctx context.Context, memberID primitive.ObjectID, amount float64, tx models.Transaction) error {
	if err := r.AppendTransaction(ctx, tx); err != nil {
		return err
	}
	filter := bson.M{
		"memberId":            memberID,
		"income.pendingHolds": bson.M{"$gte": amount},
	}
	update := bson.M{
		"$inc": bson.M{
			"income.pendingHolds":   -amount,
			"income.totalWithdrawn": amount,
		},
		"$set": bson.M{"updatedAt": time.Now().UTC()},
	}
	result, err := r.wallets.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.ModifiedCount == 0 {
		return services.ErrInsufficientBalance
	}
	return nil
}

func (r *WalletRepository) ReleaseHold(ctx context.Context, memberID primitive.ObjectID, amount float64, tx models.Transaction) error {
	if err := r.AppendTransaction(ctx, tx); err != nil {
		return err
	}
	filter := bson.M{
		"memberId":            memberID,
		"income.pendingHolds": bson.M{"$gte": amount},
	}
	update := bson.M{
		"$inc": bson.M{
			"income.pendingHolds": -amount,
			"income.balance":      amount,
		},
		"$set": bson.M{"updatedAt": time.Now().UTC()},
	}
	result, err := r.wallets.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.ModifiedCount == 0 {
		return services.ErrInsufficientBalance
	}
	return nil
}

func (r *WalletRepository) SetCompounding(ctx context.Context, memberID primitive.ObjectID, state models.CompoundingState) error {
	update := bson.M{
		"$set": bson.M{
			"income.compounding": state,
			"updatedAt":          time.Now().UTC(),
		},
	}
	_, err := r.wallets.UpdateOne(ctx, bson.M{"memberId": memberID}, update)
	return err
}

// ApplyCompound lands at most one compound per wallet per UTC day: the filter
// requires compounding active and no compound recorded since the day start.
func (r *WalletRepository) ApplyCompound(ctx context.Context, memberID primitive.ObjectID, amount float64, day time.Time, tx models.Transaction) (bool, error) {
	dayStart := utils.DayStart(day)
	filter := bson.M{
		"memberId":                  memberID,
		"income.compounding.active": true,
		"$or": []bson.M{
			{"income.compounding.lastCompoundDate": bson.M{"$exists": false}},
			{"income.compounding.lastCompoundDate": nil},
			{"income.compounding.lastCompoundDate": bson.M{"$lt": dayStart}},
		},
	}
	update := bson.M{
		"$inc": bson.M{
			"income.balance":                     amount,
			"income.totalEarned":                 amount,
			"income.compounding.totalCompounded": amount,
		},
		"$set": bson.M{
			"income.compounding.lastCompoundDate": dayStart,
			"updatedAt":                           time.Now().UTC(),
		},
	}
	result, err := r.wallets.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, err
	}
	if result.ModifiedCount == 0 {
		return false, nil
	}
	if err := r.AppendTransaction(ctx, tx); err != nil && err != services.ErrAlreadyProcessed {
		return true, err
	}
	return true, nil
}

func (r *WalletRepository) ResetOnWithdrawal(ctx context.Context, memberID primitive.ObjectID, at time.Time) error {
	update := bson.M{
		"$set": bson.M{
			"income.compounding.active":    false,
			"income.daysWithoutWithdrawal": 0,
			"income.lastWithdrawalDate":    at,
			"updatedAt":                    time.Now().UTC(),
		},
	}
	_, err := r.wallets.UpdateOne(ctx, bson.M{"memberId": memberID}, update)
	return err
}

// RolloverInactivity bumps the inactivity streak, at most once per UTC day.
func (r *WalletRepository) RolloverInactivity(ctx context.Context, memberID primitive.ObjectID, day time.Time) (bool, error) {
	dayStart := utils.DayStart(day)
	filter := bson.M{
		"memberId": memberID,
		"$or": []bson.M{
			{"income.lastRolloverDate": bson.M{"$exists": false}},
			{"income.lastRolloverDate": nil},
			{"income.lastRolloverDate": bson.M{"$lt": dayStart}},
		},
	}
	update := bson.M{
		"$inc": bson.M{"income.daysWithoutWithdrawal": 1},
		"$set": bson.M{
			"income.lastRolloverDate": dayStart,
			"updatedAt":               time.Now().UTC(),
		},
	}
	result, err := r.wallets.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, err
	}
	return result.ModifiedCount > 0, nil
}
