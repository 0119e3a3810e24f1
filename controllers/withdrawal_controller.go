package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/amankumar-in/phantom-stake-sub000/models"
	"github.com/amankumar-in/phantom-stake-sub000/services"
)

type WithdrawalController struct {
	withdrawals *services.WithdrawalService
}

func NewWithdrawalController(withdrawals *services.WithdrawalService) *WithdrawalController {
	return &WithdrawalController{withdrawals: withdrawals}
}

// Request places a withdrawal hold on the member's income balance.
func (wc *WithdrawalController) Request(c echo.Context) error {
	memberID, err := memberIDFromContext(c)
	if err != nil {
		return err
	}

	var req models.WithdrawalRequest
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

	w, err := wc.withdrawals.Request(c.Request().Context(), memberID, req)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Withdrawal requested successfully",
		Data:    w,
	})
}

// History lists the member's withdrawal requests.
func (wc *WithdrawalController) History(c echo.Context) error {
	memberID, err := memberIDFromContext(c)
	if err != nil {
		return err
	}
	limit, offset := pagination(c)
	withdrawals, err := wc.withdrawals.History(c.Request().Context(), memberID, limit, offset)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Withdrawals retrieved successfully",
		Data:    withdrawals,
	})
}

type withdrawalDecision struct {
	Note string `json:"note"`
}

// Approve settles a pending withdrawal. Admin only.
func (wc *WithdrawalController) Approve(c echo.Context) error {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid withdrawal id",
		})
	}
	var req withdrawalDecision
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}

	if err := wc.withdrawals.Approve(c.Request().Context(), id, req.Note); err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Withdrawal approved successfully",
	})
}

// Reject refunds a pending withdrawal's hold. Admin only.
func (wc *WithdrawalController) Reject(c echo.Context) error {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid withdrawal id",
		})
	}
	var req withdrawalDecision
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}

	if err := wc.withdrawals.Reject(c.Request().Context(), id, req.Note); err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Withdrawal rejected successfully",
	})
}
