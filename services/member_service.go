// services/member_service.go
package services

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/amankumar-in/phantom-stake-sub000/config"
	"github.com/amankumar-in/phantom-stake-sub000/models"
	"github.com/amankumar-in/phantom-stake-sub000/utils"
)

// MemberService handles enrollment: resolving the sponsor's referral code,
// creating the member and wallet, and placing the new node in the tree. The
// very first member enrolls without a sponsor and becomes the tree root.
type MemberService struct {
	members   MemberStore
	wallets   WalletStore
	tree      TreeStore
	placement *PlacementService
	log       *zap.Logger
}

func NewMemberService(members MemberStore, wallets WalletStore, tree TreeStore, placement *PlacementService, logger *zap.Logger) *MemberService {
	return &MemberService{
		members:   members,
		wallets:   wallets,
		tree:      tree,
		placement: placement,
		log:       logger,
	}
}

// Enroll creates a member under the sponsor identified by referral code.
func (s *MemberService) Enroll(ctx context.Context, req models.EnrollRequest) (*models.EnrollResponse, error) {
	if _, ok := config.GetProgram(req.Program); !ok {
		return nil, ErrUnknownProgram
	}

	var sponsor *models.Member
	if req.SponsorReferral != "" {
		var err error
		sponsor, err = s.members.GetMemberByReferralCode(ctx, req.SponsorReferral)
		if err != nil {
			return nil, err
		}
	} else {
		// Only the platform's first member may enroll sponsorless.
		ids, err := s.tree.ActiveMemberIDs(ctx)
		if err != nil {
			return nil, err
		}
		if len(ids) > 0 {
			return nil, ErrSponsorRequired
		}
	}

	code, err := utils.GenerateMemberReferralCode()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	member := &models.Member{
		Email:        req.Email,
		FullName:     req.FullName,
		Program:      req.Program,
		ReferralCode: code,
		IsActive:     true,
		JoinedAt:     now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if sponsor != nil {
		member.SponsorID = &sponsor.ID
	}

	memberID, err := s.members.InsertMember(ctx, member)
	if err != nil {
		return nil, err
	}
	member.ID = memberID

	if _, err := s.wallets.EnsureWallet(ctx, memberID); err != nil {
		return nil, err
	}

	var placement *models.PlacementResult
	if sponsor == nil {
		placement, err = s.placement.CreateRoot(ctx, memberID)
		if err == ErrRootExists {
			// Lost the race to a concurrent first enrollment; the unique
			// root index guarantees a single tree root.
			return nil, ErrSponsorRequired
		}
	} else {
		placement, err = s.placement.PlaceNewMember(ctx, memberID, sponsor.ID)
	}
	if err != nil {
		return nil, err
	}

	return &models.EnrollResponse{Member: *member, Placement: *placement}, nil
}

// Get returns a member record.
func (s *MemberService) Get(ctx context.Context, id primitive.ObjectID) (*models.Member, error) {
	return s.members.GetMember(ctx, id)
}
