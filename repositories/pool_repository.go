package repositories

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/amankumar-in/phantom-stake-sub000/config"
	"github.com/amankumar-in/phantom-stake-sub000/models"
	"github.com/amankumar-in/phantom-stake-sub000/services"
)

type PoolRepository struct {
	collection *mongo.Collection
}

func NewPoolRepository(db *mongo.Client) *PoolRepository {
	return &PoolRepository{
		collection: config.GetCollection(db, "leadershipPools"),
	}
}

var _ services.PoolStore = (*PoolRepository)(nil)

func (r *PoolRepository) GetPool(ctx context.Context, program, month string) (*models.LeadershipPool, error) {
	var pool models.LeadershipPool
	err := r.collection.FindOne(ctx, bson.M{"program": program, "month": month}).Decode(&pool)
	if err == mongo.ErrNoDocuments {
		return nil, services.ErrPoolNotFound
	}
	if err != nil {
		return nil, err
	}
	return &pool, nil
}

// GetOrCreatePool upserts the (program, month) pool in collecting state. The
// unique program+month index makes concurrent creates converge on one
// document.
func (r *PoolRepository) GetOrCreatePool(ctx context.Context, program, month string, subPools []models.SubPool) (*models.LeadershipPool, error) {
	now := time.Now().UTC()
	filter := bson.M{"program": program, "month": month}
	update := bson.M{
		"$setOnInsert": bson.M{
			"program":       program,
			"month":         month,
			"totalDeposits": float64(0),
			"subPools":      subPools,
			"status":        models.PoolCollecting,
			"distributed":   false,
			"createdAt":     now,
			"updatedAt":     now,
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var pool models.LeadershipPool
	if err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&pool); err != nil {
		return nil, err
	}
	return &pool, nil
}

// IncrementDeposits adds to the running total while the pool is still
// collecting and returns the new total.
func (r *PoolRepository) IncrementDeposits(ctx context.Context, program, month string, amount float64) (float64, error) {
	filter := bson.M{
		"program": program,
		"month":   month,
		"status":  models.PoolCollecting,
	}
	update := bson.M{
		"$inc": bson.M{"totalDeposits": amount},
		"$set": bson.M{"updatedAt": time.Now().UTC()},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var pool models.LeadershipPool
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&pool)
	if err == mongo.ErrNoDocuments {
		if _, gerr := r.GetPool(ctx, program, month); gerr != nil {
			return 0, gerr
		}
		return 0, services.ErrPoolNotCollecting
	}
	if err != nil {
		return 0, err
	}
	return pool.TotalDeposits, nil
}

func (r *PoolRepository) SetSubPoolTotals(ctx context.Context, program, month string, subPools []models.SubPool) error {
	update := bson.M{
		"$set": bson.M{
			"subPools":  subPools,
			"updatedAt": time.Now().UTC(),
		},
	}
	_, err := r.collection.UpdateOne(ctx, bson.M{"program": program, "month": month}, update)
	return err
}

func (r *PoolRepository) SetReady(ctx context.Context, program, month string, subPools []models.SubPool) error {
	update := bson.M{
		"$set": bson.M{
			"subPools":  subPools,
			"status":    models.PoolReady,
			"updatedAt": time.Now().UTC(),
		},
	}
	_, err := r.collection.UpdateOne(ctx, bson.M{"program": program, "month": month}, update)
	return err
}

// MarkDistributed flips the distributed flag once; a second worker finds the
// flag already set and backs off.
func (r *PoolRepository) MarkDistributed(ctx context.Context, program, month string, at time.Time) (bool, error) {
	filter := bson.M{
		"program":     program,
		"month":       month,
		"status":      models.PoolReady,
		"distributed": false,
	}
	update := bson.M{
		"$set": bson.M{
			"status":        models.PoolDistributed,
			"distributed":   true,
			"distributedAt": at,
			"updatedAt":     time.Now().UTC(),
		},
	}
	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, err
	}
	return result.ModifiedCount > 0, nil
}
