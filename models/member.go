// models/member.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Member is the platform account record. Authentication and profile editing
// live outside the engine; the engine only needs identity, sponsorship and
// program membership.
type Member struct {
	ID           primitive.ObjectID  `json:"id,omitempty" bson:"_id,omitempty"`
	Email        string              `json:"email" bson:"email"`
	FullName     string              `json:"fullName" bson:"fullName"`
	Program      string              `json:"program" bson:"program"`
	ReferralCode string              `json:"referralCode" bson:"referralCode"`
	SponsorID    *primitive.ObjectID `json:"sponsorId,omitempty" bson:"sponsorId,omitempty"`
	IsActive     bool                `json:"isActive" bson:"isActive"`
	JoinedAt     time.Time           `json:"joinedAt" bson:"joinedAt"`
	CreatedAt    time.Time           `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time           `json:"updatedAt" bson:"updatedAt"`
}

type EnrollRequest struct {
	Email           string `json:"email" validate:"required,email"`
	FullName        string `json:"fullName" validate:"required"`
	Program         string `json:"program" validate:"required"`
	SponsorReferral string `json:"sponsorReferralCode"`
}

type EnrollResponse struct {
	Member    Member          `json:"member"`
	Placement PlacementResult `json:"placement"`
}
