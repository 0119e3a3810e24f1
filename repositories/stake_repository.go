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

type StakeRepository struct {
	collection *mongo.Collection
}

func NewStakeRepository(db *mongo.Client) *StakeRepository {
	return &StakeRepository{
		collection: config.GetCollection(db, "stakes"),
	}
}

var _ services.StakeStore = (*StakeRepository)(nil)

func (r *StakeRepository) InsertStake(ctx context.Context, s *models.Stake) (primitive.ObjectID, error) {
	if s.ID.IsZero() {
		s.ID = primitive.NewObjectID()
	}
	_, err := r.collection.InsertOne(ctx, s)
	if err != nil {
		return primitive.NilObjectID, err
	}
	return s.ID, nil
}

func (r *StakeRepository) GetStake(ctx context.Context, id primitive.ObjectID) (*models.Stake, error) {
	var s models.Stake
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&s)
	if err == mongo.ErrNoDocuments {
		return nil, services.ErrStakeNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *StakeRepository) ActiveStakesByMember(ctx context.Context, memberID primitive.ObjectID) ([]models.Stake, error) {
	filter := bson.M{"memberId": memberID, "active": true}
	cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var stakes []models.Stake
	if err := cursor.All(ctx, &stakes); err != nil {
		return nil, err
	}
	return stakes, nil
}

func (r *StakeRepository) ActiveStakeTotal(ctx context.Context, memberID primitive.ObjectID) (float64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"memberId": memberID, "active": true}}},
		{{Key: "$group", Value: bson.M{
			"_id":   nil,
			"total": bson.M{"$sum": "$amount"},
		}}},
	}
	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, err
	}
	defer cursor.Close(ctx)

	var result []struct {
		Total float64 `bson:"total"`
	}
	if err := cursor.All(ctx, &result); err != nil {
		return 0, err
	}
	if len(result) == 0 {
		return 0, nil
	}
	return result[0].Total, nil
}

// MarkYieldPaid claims the (stake, day) pair: the filter only matches when no
// payment has been recorded since the day start, so a replayed tick loses the
// claim and skips the credit.
func (r *StakeRepository) MarkYieldPaid(ctx context.Context, stakeID primitive.ObjectID, day time.Time, amount float64) (bool, error) {
	dayStart := utils.DayStart(day)
	filter := bson.M{
		"_id":    stakeID,
		"active": true,
		"$or": []bson.M{
			{"lastPaidDate": bson.M{"$exists": false}},
			{"lastPaidDate": nil},
			{"lastPaidDate": bson.M{"$lt": dayStart}},
		},
	}
	update := bson.M{
		"$set": bson.M{
			"lastPaidDate": dayStart,
			"updatedAt":    time.Now().UTC(),
		},
		"$inc": bson.M{"totalYieldPaid": amount},
	}
	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, err
	}
	return result.ModifiedCount > 0, nil
}

// SetStakeCompounding writes the wallet's compounding state onto all of the
// member's active stakes so their yield rate follows the wallet.
func (r *StakeRepository) SetStakeCompounding(ctx context.Context, memberID primitive.ObjectID, state models.CompoundingState) error {
	filter := bson.M{"memberId": memberID, "active": true}
	update := bson.M{
		"$set": bson.M{
			"compounding": state,
			"updatedAt":   time.Now().UTC(),
		},
	}
	_, err := r.collection.UpdateMany(ctx, filter, update)
	return err
}
