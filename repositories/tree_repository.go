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

type TreeRepository struct {
	collection *mongo.Collection
}

func NewTreeRepository(db *mongo.Client) *TreeRepository {
	return &TreeRepository{
		collection: config.GetCollection(db, "treeNodes"),
	}
}

var _ services.TreeStore = (*TreeRepository)(nil)

func (r *TreeRepository) InsertNode(ctx context.Context, node *models.TreeNode) (primitive.ObjectID, error) {
	if node.ID.IsZero() {
		node.ID = primitive.NewObjectID()
	}
	_, err := r.collection.InsertOne(ctx, node)
	if err != nil {
		// The unique partial index on position:"root" arbitrates racing
		// first enrollments; exactly one insert wins.
		if node.Position == models.PositionRoot && mongo.IsDuplicateKeyError(err) {
			return primitive.NilObjectID, services.ErrRootExists
		}
		return primitive.NilObjectID, err
	}
	return node.ID, nil
}

func (r *TreeRepository) GetNode(ctx context.Context, memberID primitive.ObjectID) (*models.TreeNode, error) {
	var node models.TreeNode
	err := r.collection.FindOne(ctx, bson.M{"memberId": memberID}).Decode(&node)
	if err == mongo.ErrNoDocuments {
		return nil, services.ErrNodeNotFound
	}
	if err != nil {
		return nil, err
	}
	return &node, nil
}

// SetChild claims a parent's child slot. The $exists filter makes the claim
// atomic: a concurrent placement that got there first leaves ModifiedCount at
// zero and the caller retries elsewhere.
func (r *TreeRepository) SetChild(ctx context.Context, parentMemberID primitive.ObjectID, position string, childMemberID primitive.ObjectID) (bool, error) {
	field := "leftChildId"
	if position == models.PositionRight {
		field = "rightChildId"
	}
	filter := bson.M{
		"memberId": parentMemberID,
		field:      bson.M{"$exists": false},
	}
	update := bson.M{
		"$set": bson.M{
			field:       childMemberID,
			"updatedAt": time.Now().UTC(),
		},
	}
	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, err
	}
	return result.ModifiedCount > 0, nil
}

// ClearChild releases a claimed slot, but only while it still holds the given
// child. A slot reassigned by a concurrent placement is left alone.
func (r *TreeRepository) ClearChild(ctx context.Context, parentMemberID primitive.ObjectID, position string, childMemberID primitive.ObjectID) error {
	field := "leftChildId"
	if position == models.PositionRight {
		field = "rightChildId"
	}
	filter := bson.M{
		"memberId": parentMemberID,
		field:      childMemberID,
	}
	update := bson.M{
		"$unset": bson.M{field: ""},
		"$set":   bson.M{"updatedAt": time.Now().UTC()},
	}
	_, err := r.collection.UpdateOne(ctx, filter, update)
	return err
}

// CASVolumes writes the three volume fields only if the node's version is
// still the one the caller read, bumping it on success.
func (r *TreeRepository) CASVolumes(ctx context.Context, memberID primitive.ObjectID, version int64, personal, left, right float64) (bool, error) {
	filter := bson.M{
		"memberId": memberID,
		"version":  version,
	}
	update := bson.M{
		"$set": bson.M{
			"personalVolume": personal,
			"leftLegVolume":  left,
			"rightLegVolume": right,
			"updatedAt":      time.Now().UTC(),
		},
		"$inc": bson.M{"version": 1},
	}
	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, err
	}
	return result.ModifiedCount > 0, nil
}

func (r *TreeRepository) IncTeamSize(ctx context.Context, memberID primitive.ObjectID, delta int) error {
	update := bson.M{
		"$inc": bson.M{"totalTeamSize": delta},
		"$set": bson.M{"updatedAt": time.Now().UTC()},
	}
	_, err := r.collection.UpdateOne(ctx, bson.M{"memberId": memberID}, update)
	return err
}

func (r *TreeRepository) GetDirects(ctx context.Context, sponsorID primitive.ObjectID) ([]models.TreeNode, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"sponsorId": sponsorID},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var nodes []models.TreeNode
	if err := cursor.All(ctx, &nodes); err != nil {
		return nil, err
	}
	return nodes, nil
}

func (r *TreeRepository) ActiveMemberIDs(ctx context.Context) ([]primitive.ObjectID, error) {
	raw, err := r.collection.Distinct(ctx, "memberId", bson.M{})
	if err != nil {
		return nil, err
	}
	ids := make([]primitive.ObjectID, 0, len(raw))
	for _, v := range raw {
		if id, ok := v.(primitive.ObjectID); ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}
