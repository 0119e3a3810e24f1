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

type MemberRepository struct {
	collection *mongo.Collection
}

func NewMemberRepository(db *mongo.Client) *MemberRepository {
	return &MemberRepository{
		collection: config.GetCollection(db, "members"),
	}
}

var _ services.MemberStore = (*MemberRepository)(nil)

func (r *MemberRepository) InsertMember(ctx context.Context, m *models.Member) (primitive.ObjectID, error) {
	if m.ID.IsZero() {
		m.ID = primitive.NewObjectID()
	}
	_, err := r.collection.InsertOne(ctx, m)
	if err != nil {
		return primitive.NilObjectID, err
	}
	return m.ID, nil
}

func (r *MemberRepository) GetMember(ctx context.Context, id primitive.ObjectID) (*models.Member, error) {
	var m models.Member
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&m)
	if err == mongo.ErrNoDocuments {
		return nil, services.ErrMemberNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *MemberRepository) GetMemberByReferralCode(ctx context.Context, code string) (*models.Member, error) {
	var m models.Member
	err := r.collection.FindOne(ctx, bson.M{"referralCode": code}).Decode(&m)
	if err == mongo.ErrNoDocuments {
		return nil, services.ErrSponsorNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *MemberRepository) ListMembersJoinedBefore(ctx context.Context, cutoff time.Time) ([]models.Member, error) {
	filter := bson.M{
		"isActive": true,
		"joinedAt": bson.M{"$lt": cutoff},
	}
	cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "joinedAt", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var members []models.Member
	if err := cursor.All(ctx, &members); err != nil {
		return nil, err
	}
	return members, nil
}
