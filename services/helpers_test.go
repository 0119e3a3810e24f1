package services

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/amankumar-in/phantom-stake-sub000/models"
)

func testLogger() *zap.Logger {
	return zap.NewNop()
}

// seedMember creates a member with a wallet. The tree node, when needed, is
// created by the placement service or seeded directly by the test.
func seedMember(f *fakeStores, program string, sponsorID *primitive.ObjectID, joinedAt time.Time) primitive.ObjectID {
	id := primitive.NewObjectID()
	m := &models.Member{
		ID:           id,
		Email:        id.Hex() + "@example.com",
		Program:      program,
		ReferralCode: "PS-" + id.Hex()[:6],
		SponsorID:    sponsorID,
		IsActive:     true,
		JoinedAt:     joinedAt,
	}
	f.members[id] = m
	f.byReferral[m.ReferralCode] = id
	f.wallets[id] = &models.Wallet{
		ID:       primitive.NewObjectID(),
		MemberID: id,
	}
	return id
}

// seedNode inserts a tree node directly, bypassing placement.
func seedNode(f *fakeStores, memberID primitive.ObjectID, parentID, sponsorID *primitive.ObjectID, position string, depth int) *models.TreeNode {
	n := &models.TreeNode{
		ID:        primitive.NewObjectID(),
		MemberID:  memberID,
		ParentID:  parentID,
		SponsorID: sponsorID,
		Position:  position,
		Depth:     depth,
		CreatedAt: time.Now().UTC(),
	}
	f.nodes[memberID] = n
	return n
}

func link(f *fakeStores, parentID, childID primitive.ObjectID, position string) {
	parent := f.nodes[parentID]
	if position == models.PositionRight {
		parent.RightChildID = &childID
	} else {
		parent.LeftChildID = &childID
	}
}

func seedStake(f *fakeStores, memberID primitive.ObjectID, program string, amount float64, active bool) *models.Stake {
	s := &models.Stake{
		ID:       primitive.NewObjectID(),
		MemberID: memberID,
		Program:  program,
		Amount:   amount,
		Active:   active,
	}
	f.stakes[s.ID] = s
	return s
}

func ctxb() context.Context {
	return context.Background()
}
