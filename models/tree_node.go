// models/tree_node.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Tree positions.
const (
	PositionRoot  = "root"
	PositionLeft  = "left"
	PositionRight = "right"
)

// TreeNode is a member's slot in the binary placement tree. SponsorID records
// who referred the member, which is independent of where the placement
// algorithm parked them (ParentID/Position). LeftLegVolume and RightLegVolume
// are always the recursive sum of descendant personal volumes on that side.
// Version backs the optimistic write used by volume propagation.
type TreeNode struct {
	ID               primitive.ObjectID  `json:"id,omitempty" bson:"_id,omitempty"`
	MemberID         primitive.ObjectID  `json:"memberId" bson:"memberId"`
	ParentID         *primitive.ObjectID `json:"parentId,omitempty" bson:"parentId,omitempty"`
	LeftChildID      *primitive.ObjectID `json:"leftChildId,omitempty" bson:"leftChildId,omitempty"`
	RightChildID     *primitive.ObjectID `json:"rightChildId,omitempty" bson:"rightChildId,omitempty"`
	SponsorID        *primitive.ObjectID `json:"sponsorId,omitempty" bson:"sponsorId,omitempty"`
	Position         string              `json:"position" bson:"position"`
	TreeCoordinate   string              `json:"treeCoordinate" bson:"treeCoordinate"`
	Depth            int                 `json:"depth" bson:"depth"`
	SponsorshipLevel int                 `json:"sponsorshipLevel" bson:"sponsorshipLevel"`
	PersonalVolume   float64             `json:"personalVolume" bson:"personalVolume"`
	LeftLegVolume    float64             `json:"leftLegVolume" bson:"leftLegVolume"`
	RightLegVolume   float64             `json:"rightLegVolume" bson:"rightLegVolume"`
	TotalTeamSize    int                 `json:"totalTeamSize" bson:"totalTeamSize"`
	Version          int64               `json:"version" bson:"version"`
	CreatedAt        time.Time           `json:"createdAt" bson:"createdAt"`
	UpdatedAt        time.Time           `json:"updatedAt" bson:"updatedAt"`
}

// SubtreeVolume is the node's own volume plus both legs, i.e. the volume this
// node contributes to its parent's leg.
func (n *TreeNode) SubtreeVolume() float64 {
	return n.PersonalVolume + n.LeftLegVolume + n.RightLegVolume
}

// MatchedVolume is the smaller of the two legs; the matching bonus base.
func (n *TreeNode) MatchedVolume() float64 {
	if n.LeftLegVolume < n.RightLegVolume {
		return n.LeftLegVolume
	}
	return n.RightLegVolume
}

// PlacementResult reports where a new member landed in the tree.
type PlacementResult struct {
	NodeID         primitive.ObjectID `json:"nodeId"`
	MemberID       primitive.ObjectID `json:"memberId"`
	ParentID       primitive.ObjectID `json:"parentId"`
	Position       string             `json:"position"`
	TreeCoordinate string             `json:"treeCoordinate"`
	Depth          int                `json:"depth"`
}

type PlaceMemberRequest struct {
	MemberID  string `json:"memberId" validate:"required"`
	SponsorID string `json:"sponsorId" validate:"required"`
}
