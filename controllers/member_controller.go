package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/amankumar-in/phantom-stake-sub000/models"
	"github.com/amankumar-in/phantom-stake-sub000/services"
)

type MemberController struct {
	members *services.MemberService
}

func NewMemberController(members *services.MemberService) *MemberController {
	return &MemberController{members: members}
}

// Enroll registers a new member under a sponsor's referral code and places
// them in the binary tree. The platform's first member may omit the code.
func (mc *MemberController) Enroll(c echo.Context) error {
	var req models.EnrollRequest
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

	resp, err := mc.members.Enroll(c.Request().Context(), req)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Member enrolled successfully",
		Data:    resp,
	})
}

// Me returns the authenticated member's record.
func (mc *MemberController) Me(c echo.Context) error {
	memberID, err := memberIDFromContext(c)
	if err != nil {
		return err
	}
	member, err := mc.members.Get(c.Request().Context(), memberID)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Member retrieved successfully",
		Data:    member,
	})
}
