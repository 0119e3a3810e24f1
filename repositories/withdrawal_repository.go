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
)

type WithdrawalRepository struct {
	collection *mongo.Collection
}

func NewWithdrawalRepository(db *mongo.Client) *WithdrawalRepository {
	return &WithdrawalRepository{
		collection: config.GetCollection(db, "withdrawals"),
	}
}

var _ services.WithdrawalStore = (*WithdrawalRepository)(nil)

func (r *WithdrawalRepository) InsertWithdrawal(ctx context.Context, w *models.Withdrawal) (primitive.ObjectID, error) {
	if w.ID.IsZero() {
		w.ID = primitive.NewObjectID()
	}
	_, err := r.collection.InsertOne(ctx, w)
	if err != nil {
		return primitive.NilObjectID, err
	}
	return w.ID, nil
}

func (r *WithdrawalRepository) GetWithdrawal(ctx context.Context, id primitive.ObjectID) (*models.Withdrawal, error) {
	var w models.Withdrawal
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&w)
	if err == mongo.ErrNoDocuments {
		return nil, services.ErrWithdrawalNotFound
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// SetWithdrawalStatus transitions from -> to atomically; a record not in the
// expected state reports false.
func (r *WithdrawalRepository) SetWithdrawalStatus(ctx context.Context, id primitive.ObjectID, from, to, note string, at time.Time) (bool, error) {
	set := bson.M{
		"status":      to,
		"processedAt": at,
	}
	switch to {
	case models.WithdrawalApproved:
		set["adminNote"] = note
	case models.WithdrawalRejected:
		set["rejectionReason"] = note
	}

	filter := bson.M{"_id": id, "status": from}
	result, err := r.collection.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return false, err
	}
	return result.ModifiedCount > 0, nil
}

func (r *WithdrawalRepository) ListWithdrawalsByMember(ctx context.Context, memberID primitive.ObjectID, limit, offset int64) ([]models.Withdrawal, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(limit).
		SetSkip(offset)
	cursor, err := r.collection.Find(ctx, bson.M{"memberId": memberID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var withdrawals []models.Withdrawal
	if err := cursor.All(ctx, &withdrawals); err != nil {
		return nil, err
	}
	return withdrawals, nil
}
