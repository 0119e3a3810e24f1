package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/amankumar-in/phantom-stake-sub000/models"
	"github.com/amankumar-in/phantom-stake-sub000/services"
)

type TreeController struct {
	placement *services.PlacementService
	tree      services.TreeStore
}

func NewTreeController(placement *services.PlacementService, tree services.TreeStore) *TreeController {
	return &TreeController{placement: placement, tree: tree}
}

// Snapshot returns the member's tree node with both leg volumes and the
// matched volume.
func (tc *TreeController) Snapshot(c echo.Context) error {
	memberID, err := memberIDFromContext(c)
	if err != nil {
		return err
	}
	node, err := tc.placement.Snapshot(c.Request().Context(), memberID)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Tree snapshot retrieved successfully",
		Data: map[string]interface{}{
			"node":          node,
			"subtreeVolume": node.SubtreeVolume(),
			"matchedVolume": node.MatchedVolume(),
		},
	})
}

// Place inserts an existing member into the tree under a sponsor. Admin
// only; normal enrollment places automatically, this covers migrations and
// manual corrections.
func (tc *TreeController) Place(c echo.Context) error {
	var req models.PlaceMemberRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Validation failed",
			Data:    err.Error(),
		})
	}
	memberID, err := primitive.ObjectIDFromHex(req.MemberID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid member id",
		})
	}
	sponsorID, err := primitive.ObjectIDFromHex(req.SponsorID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid sponsor id",
		})
	}

	placement, err := tc.placement.PlaceNewMember(c.Request().Context(), memberID, sponsorID)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Member placed successfully",
		Data:    placement,
	})
}

// Directs lists the members the caller personally sponsored.
func (tc *TreeController) Directs(c echo.Context) error {
	memberID, err := memberIDFromContext(c)
	if err != nil {
		return err
	}
	directs, err := tc.tree.GetDirects(c.Request().Context(), memberID)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Direct referrals retrieved successfully",
		Data:    directs,
	})
}
