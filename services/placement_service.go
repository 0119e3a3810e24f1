// services/placement_service.go
package services

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/amankumar-in/phantom-stake-sub000/models"
)

const (
	// maxAncestorHops bounds every upward walk so a mis-linked parent chain
	// fails closed instead of looping.
	maxAncestorHops = 4096
	// maxPlacementScan bounds the level-order search for an open slot.
	maxPlacementScan = 32768
	// weakLegScanLimit bounds the preferred weaker-leg search before the
	// algorithm falls back to the wider traversal.
	weakLegScanLimit = 1024

	maxCASRetries = 5
	casRetryDelay = 20 * time.Millisecond
)

// PlacementService owns the binary placement tree: node creation, slot
// search and bottom-up volume aggregation.
type PlacementService struct {
	tree TreeStore
	log  *zap.Logger
}

func NewPlacementService(tree TreeStore, logger *zap.Logger) *PlacementService {
	return &PlacementService{tree: tree, log: logger}
}

// CreateRoot creates the tree's root node for the platform's first member.
func (s *PlacementService) CreateRoot(ctx context.Context, memberID primitive.ObjectID) (*models.PlacementResult, error) {
	now := time.Now().UTC()
	node := &models.TreeNode{
		MemberID:       memberID,
		Position:       models.PositionRoot,
		TreeCoordinate: "",
		Depth:          0,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	id, err := s.tree.InsertNode(ctx, node)
	if err != nil {
		return nil, err
	}
	return &models.PlacementResult{
		NodeID:         id,
		MemberID:       memberID,
		Position:       models.PositionRoot,
		TreeCoordinate: "",
		Depth:          0,
	}, nil
}

// PlaceNewMember finds an open slot reachable from the sponsor and creates
// the member's node there. Search order: the sponsor's lower-volume leg,
// then the sponsor's own open slot, then level-order from the sponsor.
// The new node's sponsorshipLevel is the sponsor's chain length plus one;
// it tracks who-referred-whom and is independent of tree depth.
func (s *PlacementService) PlaceNewMember(ctx context.Context, memberID, sponsorID primitive.ObjectID) (*models.PlacementResult, error) {
	sponsor, err := s.tree.GetNode(ctx, sponsorID)
	if err != nil {
		if err == ErrNodeNotFound {
			return nil, ErrSponsorNotFound
		}
		return nil, err
	}

	for attempt := 0; attempt < maxCASRetries; attempt++ {
		parent, position, err := s.findOpenSlot(ctx, sponsor)
		if err != nil {
			return nil, err
		}

		claimed, err := s.tree.SetChild(ctx, parent.MemberID, position, memberID)
		if err != nil {
			return nil, err
		}
		if !claimed {
			// Lost the slot to a concurrent placement; search again.
			sponsor, err = s.tree.GetNode(ctx, sponsorID)
			if err != nil {
				return nil, err
			}
			continue
		}

		now := time.Now().UTC()
		node := &models.TreeNode{
			MemberID:         memberID,
			ParentID:         &parent.MemberID,
			SponsorID:        &sponsorID,
			Position:         position,
			TreeCoordinate:   childCoordinate(parent.TreeCoordinate, position),
			Depth:            parent.Depth + 1,
			SponsorshipLevel: sponsor.SponsorshipLevel + 1,
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		id, err := s.tree.InsertNode(ctx, node)
		if err != nil {
			// Release the claimed slot so the parent never points at a
			// member without a node.
			if cerr := s.tree.ClearChild(ctx, parent.MemberID, position, memberID); cerr != nil {
				s.log.Error("slot release after failed node insert",
					zap.String("parentId", parent.MemberID.Hex()),
					zap.String("position", position), zap.Error(cerr))
			}
			return nil, err
		}

		if err := s.bumpTeamSize(ctx, parent.MemberID); err != nil {
			s.log.Warn("team size propagation failed",
				zap.String("memberId", memberID.Hex()), zap.Error(err))
		}

		return &models.PlacementResult{
			NodeID:         id,
			MemberID:       memberID,
			ParentID:       parent.MemberID,
			Position:       position,
			TreeCoordinate: node.TreeCoordinate,
			Depth:          node.Depth,
		}, nil
	}
	return nil, ErrVersionConflict
}

func childCoordinate(parentCoord, position string) string {
	suffix := "L"
	if position == models.PositionRight {
		suffix = "R"
	}
	if parentCoord == "" {
		return suffix
	}
	return parentCoord + "-" + suffix
}

// findOpenSlot implements the placement preference order.
func (s *PlacementService) findOpenSlot(ctx context.Context, sponsor *models.TreeNode) (*models.TreeNode, string, error) {
	weakPos, weakChild := models.PositionLeft, sponsor.LeftChildID
	strongPos, strongChild := models.PositionRight, sponsor.RightChildID
	if sponsor.RightLegVolume < sponsor.LeftLegVolume {
		weakPos, weakChild = models.PositionRight, sponsor.RightChildID
		strongPos, strongChild = models.PositionLeft, sponsor.LeftChildID
	}

	// 1) Lower-volume leg first.
	if weakChild == nil {
		return sponsor, weakPos, nil
	}
	weakRoot, err := s.tree.GetNode(ctx, *weakChild)
	if err != nil {
		return nil, "", err
	}
	if parent, pos, err := s.levelOrderSearch(ctx, weakRoot, weakLegScanLimit); err == nil {
		return parent, pos, nil
	} else if err != ErrTreeBoundExceeded {
		return nil, "", err
	}

	// 2) Sponsor's own remaining slot.
	if strongChild == nil {
		return sponsor, strongPos, nil
	}

	// 3) Level-order from the sponsor.
	return s.levelOrderSearch(ctx, sponsor, maxPlacementScan)
}

// levelOrderSearch walks the subtree breadth-first and returns the first node
// with an open child slot, preferring left. The scan bound makes a corrupted
// child graph fail closed.
func (s *PlacementService) levelOrderSearch(ctx context.Context, root *models.TreeNode, limit int) (*models.TreeNode, string, error) {
	queue := []*models.TreeNode{root}
	for scanned := 0; len(queue) > 0 && scanned < limit; scanned++ {
		if err := ctx.Err(); err != nil {
			return nil, "", err
		}
		node := queue[0]
		queue = queue[1:]

		if node.LeftChildID == nil {
			return node, models.PositionLeft, nil
		}
		if node.RightChildID == nil {
			return node, models.PositionRight, nil
		}

		left, err := s.tree.GetNode(ctx, *node.LeftChildID)
		if err != nil {
			return nil, "", err
		}
		right, err := s.tree.GetNode(ctx, *node.RightChildID)
		if err != nil {
			return nil, "", err
		}
		queue = append(queue, left, right)
	}
	return nil, "", ErrTreeBoundExceeded
}

// UpdateVolume adds delta to the member's personal volume and recomputes leg
// volumes bottom-up to the root. Each node is written with an optimistic
// version check so concurrent updates on sibling branches never lose a write
// at a shared ancestor.
func (s *PlacementService) UpdateVolume(ctx context.Context, memberID primitive.ObjectID, delta float64) error {
	node, err := s.tree.GetNode(ctx, memberID)
	if err != nil {
		return err
	}
	if err := s.recomputeNode(ctx, node, delta); err != nil {
		return err
	}

	parentID := node.ParentID
	for hops := 0; parentID != nil; hops++ {
		if hops >= maxAncestorHops {
			return ErrTreeBoundExceeded
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		parent, err := s.tree.GetNode(ctx, *parentID)
		if err != nil {
			return err
		}
		if err := s.recomputeNode(ctx, parent, 0); err != nil {
			return err
		}
		parentID = parent.ParentID
	}
	return nil
}

// recomputeNode re-reads the node's children, recomputes both leg volumes
// and writes them (plus any personal-volume delta) under the version check.
func (s *PlacementService) recomputeNode(ctx context.Context, node *models.TreeNode, personalDelta float64) error {
	for attempt := 0; attempt < maxCASRetries; attempt++ {
		left, right, err := s.legVolumes(ctx, node)
		if err != nil {
			return err
		}
		ok, err := s.tree.CASVolumes(ctx, node.MemberID, node.Version, node.PersonalVolume+personalDelta, left, right)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt+1) * casRetryDelay):
		}
		node, err = s.tree.GetNode(ctx, node.MemberID)
		if err != nil {
			return err
		}
	}
	return ErrVersionConflict
}

func (s *PlacementService) legVolumes(ctx context.Context, node *models.TreeNode) (float64, float64, error) {
	var left, right float64
	if node.LeftChildID != nil {
		c, err := s.tree.GetNode(ctx, *node.LeftChildID)
		if err != nil {
			return 0, 0, err
		}
		left = c.SubtreeVolume()
	}
	if node.RightChildID != nil {
		c, err := s.tree.GetNode(ctx, *node.RightChildID)
		if err != nil {
			return 0, 0, err
		}
		right = c.SubtreeVolume()
	}
	return left, right, nil
}

func (s *PlacementService) bumpTeamSize(ctx context.Context, memberID primitive.ObjectID) error {
	current := &memberID
	for hops := 0; current != nil; hops++ {
		if hops >= maxAncestorHops {
			return ErrTreeBoundExceeded
		}
		node, err := s.tree.GetNode(ctx, *current)
		if err != nil {
			return err
		}
		if err := s.tree.IncTeamSize(ctx, node.MemberID, 1); err != nil {
			return err
		}
		current = node.ParentID
	}
	return nil
}

// Snapshot returns the member's tree node.
func (s *PlacementService) Snapshot(ctx context.Context, memberID primitive.ObjectID) (*models.TreeNode, error) {
	return s.tree.GetNode(ctx, memberID)
}
