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

// BonusRepository stores matching bonus snapshots and level override records.
type BonusRepository struct {
	matchingBonuses *mongo.Collection
	levelOverrides  *mongo.Collection
}

func NewBonusRepository(db *mongo.Client) *BonusRepository {
	return &BonusRepository{
		matchingBonuses: config.GetCollection(db, "matchingBonuses"),
		levelOverrides:  config.GetCollection(db, "levelOverrides"),
	}
}

var _ services.BonusStore = (*BonusRepository)(nil)

// InsertMatchingBonus relies on the unique memberId+date index: the second
// insert for the same member and day reports false without writing.
func (r *BonusRepository) InsertMatchingBonus(ctx context.Context, b *models.MatchingBonus) (bool, error) {
	if b.ID.IsZero() {
		b.ID = primitive.NewObjectID()
	}
	b.Date = utils.DayStart(b.Date)
	_, err := r.matchingBonuses.InsertOne(ctx, b)
	if mongo.IsDuplicateKeyError(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *BonusRepository) CapUsed(ctx context.Context, memberID primitive.ObjectID, day time.Time) (float64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"memberId": memberID,
			"date":     utils.DayStart(day),
		}}},
		{{Key: "$group", Value: bson.M{
			"_id":   nil,
			"total": bson.M{"$sum": "$bonusAmount"},
		}}},
	}
	cursor, err := r.matchingBonuses.Aggregate(ctx, pipeline)
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

func (r *BonusRepository) InsertOverride(ctx context.Context, o *models.LevelOverride) error {
	if o.ID.IsZero() {
		o.ID = primitive.NewObjectID()
	}
	_, err := r.levelOverrides.InsertOne(ctx, o)
	return err
}

func (r *BonusRepository) MatchingHistory(ctx context.Context, memberID primitive.ObjectID, limit, offset int64) ([]models.MatchingBonus, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "date", Value: -1}}).
		SetLimit(limit).
		SetSkip(offset)
	cursor, err := r.matchingBonuses.Find(ctx, bson.M{"memberId": memberID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var bonuses []models.MatchingBonus
	if err := cursor.All(ctx, &bonuses); err != nil {
		return nil, err
	}
	return bonuses, nil
}

func (r *BonusRepository) OverrideHistory(ctx context.Context, earnerID primitive.ObjectID, limit, offset int64) ([]models.LevelOverride, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(limit).
		SetSkip(offset)
	cursor, err := r.levelOverrides.Find(ctx, bson.M{"earnerId": earnerID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var overrides []models.LevelOverride
	if err := cursor.All(ctx, &overrides); err != nil {
		return nil, err
	}
	return overrides, nil
}
