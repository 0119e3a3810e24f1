package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/amankumar-in/phantom-stake-sub000/models"
	"github.com/amankumar-in/phantom-stake-sub000/services"
)

type WalletController struct {
	wallets services.WalletStore
	bonuses services.BonusStore
}

func NewWalletController(wallets services.WalletStore, bonuses services.BonusStore) *WalletController {
	return &WalletController{wallets: wallets, bonuses: bonuses}
}

// Get returns the member's principal and income wallets.
func (wc *WalletController) Get(c echo.Context) error {
	memberID, err := memberIDFromContext(c)
	if err != nil {
		return err
	}
	wallet, err := wc.wallets.GetWallet(c.Request().Context(), memberID)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Wallet retrieved successfully",
		Data:    wallet,
	})
}

// Transactions pages through the member's ledger, newest first.
func (wc *WalletController) Transactions(c echo.Context) error {
	memberID, err := memberIDFromContext(c)
	if err != nil {
		return err
	}
	limit, offset := pagination(c)
	txs, err := wc.wallets.ListTransactions(c.Request().Context(), memberID, limit, offset)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Transactions retrieved successfully",
		Data:    txs,
	})
}

// MatchingHistory pages through the member's daily matching bonus records.
func (wc *WalletController) MatchingHistory(c echo.Context) error {
	memberID, err := memberIDFromContext(c)
	if err != nil {
		return err
	}
	limit, offset := pagination(c)
	bonuses, err := wc.bonuses.MatchingHistory(c.Request().Context(), memberID, limit, offset)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Matching bonus history retrieved successfully",
		Data:    bonuses,
	})
}

// OverrideHistory pages through the level overrides the member earned.
func (wc *WalletController) OverrideHistory(c echo.Context) error {
	memberID, err := memberIDFromContext(c)
	if err != nil {
		return err
	}
	limit, offset := pagination(c)
	overrides, err := wc.bonuses.OverrideHistory(c.Request().Context(), memberID, limit, offset)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Override history retrieved successfully",
		Data:    overrides,
	})
}

type depositRequest struct {
	MemberID string  `json:"memberId" validate:"required"`
	Amount   float64 `json:"amount" validate:"required,gt=0"`
	// Gateway reference; generated when the caller has none. Retries with
	// the same reference credit at most once.
	Reference string `json:"reference"`
}

// Deposit credits a member's principal wallet. Admin only; stands in for the
// payment-gateway callback.
func (wc *WalletController) Deposit(c echo.Context) error {
	var req depositRequest
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

	ctx := c.Request().Context()
	if _, err := wc.wallets.EnsureWallet(ctx, memberID); err != nil {
		return errorResponse(c, err)
	}
	if req.Reference == "" {
		req.Reference = uuid.NewString()
	}
	tx := models.Transaction{
		MemberID:       memberID,
		Type:           models.TxDeposit,
		Wallet:         models.WalletPrincipal,
		Amount:         req.Amount,
		Reference:      req.Reference,
		Description:    "principal deposit",
		IdempotencyKey: "dep:" + req.Reference,
		CreatedAt:      time.Now().UTC(),
	}
	if err := wc.wallets.CreditPrincipal(ctx, memberID, req.Amount, tx); err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Deposit credited successfully",
	})
}
