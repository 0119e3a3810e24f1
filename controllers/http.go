package controllers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/amankumar-in/phantom-stake-sub000/models"
	"github.com/amankumar-in/phantom-stake-sub000/services"
)

// statusFor maps engine errors onto HTTP status codes.
func statusFor(err error) int {
	switch err {
	case services.ErrBelowMinimum,
		services.ErrUnknownProgram,
		services.ErrInvalidAmount,
		services.ErrSponsorRequired:
		return http.StatusBadRequest
	case services.ErrMemberNotFound,
		services.ErrSponsorNotFound,
		services.ErrNodeNotFound,
		services.ErrStakeNotFound,
		services.ErrWalletNotFound,
		services.ErrPoolNotFound,
		services.ErrWithdrawalNotFound:
		return http.StatusNotFound
	case services.ErrInsufficientBalance,
		services.ErrNotEligible,
		services.ErrPoolNotReady,
		services.ErrPoolNotCollecting,
		services.ErrRootExists,
		services.ErrAlreadyProcessed:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func errorResponse(c echo.Context, err error) error {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "Internal server error"
	}
	return c.JSON(status, models.Response{
		Status:  status,
		Message: msg,
	})
}

// memberIDFromContext reads the member id the JWT middleware stored on the
// request.
func memberIDFromContext(c echo.Context) (primitive.ObjectID, error) {
	raw, ok := c.Get("memberID").(string)
	if !ok || raw == "" {
		return primitive.NilObjectID, echo.NewHTTPError(http.StatusUnauthorized, "missing member identity")
	}
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return primitive.NilObjectID, echo.NewHTTPError(http.StatusBadRequest, "invalid member id in token")
	}
	return id, nil
}

// pagination reads limit/offset query params with sane defaults.
func pagination(c echo.Context) (int64, int64) {
	limit := int64(50)
	offset := int64(0)
	if v := c.QueryParam("limit"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}
	if v := c.QueryParam("offset"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n >= 0 {
			offset = n
		}
	}
	return limit, offset
}
