package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/amankumar-in/phantom-stake-sub000/config"
	"github.com/amankumar-in/phantom-stake-sub000/models"
	"github.com/amankumar-in/phantom-stake-sub000/services"
)

type CompoundingController struct {
	compounding *services.CompoundingService
	members     *services.MemberService
	wallets     services.WalletStore
}

func NewCompoundingController(compounding *services.CompoundingService, members *services.MemberService, wallets services.WalletStore) *CompoundingController {
	return &CompoundingController{
		compounding: compounding,
		members:     members,
		wallets:     wallets,
	}
}

// Activate turns on compounding for the member's income wallet.
func (cc *CompoundingController) Activate(c echo.Context) error {
	memberID, err := memberIDFromContext(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	member, err := cc.members.Get(ctx, memberID)
	if err != nil {
		return errorResponse(c, err)
	}
	cfg, ok := config.GetProgram(member.Program)
	if !ok {
		return errorResponse(c, services.ErrUnknownProgram)
	}

	if err := cc.compounding.Activate(ctx, memberID, cfg); err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Compounding activated successfully",
	})
}

// Status reports the wallet's compounding state and current eligibility.
func (cc *CompoundingController) Status(c echo.Context) error {
	memberID, err := memberIDFromContext(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	member, err := cc.members.Get(ctx, memberID)
	if err != nil {
		return errorResponse(c, err)
	}
	cfg, ok := config.GetProgram(member.Program)
	if !ok {
		return errorResponse(c, services.ErrUnknownProgram)
	}
	wallet, err := cc.wallets.GetWallet(ctx, memberID)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Compounding status retrieved successfully",
		Data: map[string]interface{}{
			"compounding": wallet.Income.Compounding,
			"eligible":    services.Eligible(wallet, cfg),
			"minBalance":  cfg.CompoundingMinBalance,
			"minDays":     cfg.CompoundingInactivityDays,
		},
	})
}
