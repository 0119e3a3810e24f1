package controllers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/amankumar-in/phantom-stake-sub000/models"
	"github.com/amankumar-in/phantom-stake-sub000/services"
	"github.com/amankumar-in/phantom-stake-sub000/utils"
)

// AdminController exposes manual triggers for the scheduled ticks and a view
// of the monthly pools, for operations and backfills.
type AdminController struct {
	ticks *services.TickService
	pools services.PoolStore
}

func NewAdminController(ticks *services.TickService, pools services.PoolStore) *AdminController {
	return &AdminController{ticks: ticks, pools: pools}
}

// RunDailyTick triggers the daily batch for a given date (default today).
// Replays are safe; already-paid members are skipped by the idempotency keys.
func (ac *AdminController) RunDailyTick(c echo.Context) error {
	date := time.Now().UTC()
	if v := c.QueryParam("date"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: "Invalid date, expected YYYY-MM-DD",
			})
		}
		date = parsed
	}

	summary, err := ac.ticks.ProcessDailyTick(c.Request().Context(), date)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Daily tick completed",
		Data:    summary,
	})
}

// RunMonthlyTick closes out and distributes the leadership pools for a month
// (default: the previous month).
func (ac *AdminController) RunMonthlyTick(c echo.Context) error {
	month := c.QueryParam("month")
	if month == "" {
		month = utils.MonthKey(time.Now().UTC().AddDate(0, -1, 0))
	}

	summary, err := ac.ticks.ProcessMonthlyTick(c.Request().Context(), month)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Monthly tick completed",
		Data:    summary,
	})
}

// GetPool returns one program's monthly leadership pool.
func (ac *AdminController) GetPool(c echo.Context) error {
	program := c.Param("program")
	month := c.Param("month")

	pool, err := ac.pools.GetPool(c.Request().Context(), program, month)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Pool retrieved successfully",
		Data:    pool,
	})
}
