// models/leadership_pool.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Leadership pool lifecycle.
const (
	PoolCollecting  = "collecting"
	PoolReady       = "ready"
	PoolDistributed = "distributed"
)

// SubPool is one rank tier's slice of the monthly pool. TotalAmount is fixed
// once the month closes; any remainder after per-member shares is retained by
// the platform, never carried forward.
type SubPool struct {
	Tier                 string  `json:"tier" bson:"tier"`
	Percentage           float64 `json:"percentage" bson:"percentage"`
	MinPrincipal         float64 `json:"minPrincipal" bson:"minPrincipal"`
	TotalAmount          float64 `json:"totalAmount" bson:"totalAmount"`
	QualifiedMemberCount int     `json:"qualifiedMemberCount" bson:"qualifiedMemberCount"`
	PerMemberShare       float64 `json:"perMemberShare" bson:"perMemberShare"`
}

// LeadershipPool aggregates a percentage of a program's deposits for one
// calendar month (Month is "YYYY-MM", unique with Program).
type LeadershipPool struct {
	ID            primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Program       string             `json:"program" bson:"program"`
	Month         string             `json:"month" bson:"month"`
	TotalDeposits float64            `json:"totalDeposits" bson:"totalDeposits"`
	SubPools      []SubPool          `json:"subPools" bson:"subPools"`
	Status        string             `json:"status" bson:"status"`
	Distributed   bool               `json:"distributed" bson:"distributed"`
	DistributedAt *time.Time         `json:"distributedAt,omitempty" bson:"distributedAt,omitempty"`
	CreatedAt     time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt     time.Time          `json:"updatedAt" bson:"updatedAt"`
}
