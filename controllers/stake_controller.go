package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/amankumar-in/phantom-stake-sub000/models"
	"github.com/amankumar-in/phantom-stake-sub000/services"
)

type StakeController struct {
	stakes *services.StakeService
}

func NewStakeController(stakes *services.StakeService) *StakeController {
	return &StakeController{stakes: stakes}
}

// Create records a new stake from the member's principal wallet.
func (sc *StakeController) Create(c echo.Context) error {
	memberID, err := memberIDFromContext(c)
	if err != nil {
		return err
	}

	var req models.StakeRequest
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

	result, err := sc.stakes.CreateStake(c.Request().Context(), memberID, req)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Stake created successfully",
		Data:    result,
	})
}

// List returns the member's active stakes.
func (sc *StakeController) List(c echo.Context) error {
	memberID, err := memberIDFromContext(c)
	if err != nil {
		return err
	}
	stakes, err := sc.stakes.ActiveStakes(c.Request().Context(), memberID)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Stakes retrieved successfully",
		Data:    stakes,
	})
}
