package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/amankumar-in/phantom-stake-sub000/controllers"
	"github.com/amankumar-in/phantom-stake-sub000/middleware"
)

// Controllers bundles the handler set SetupRoutes wires up.
type Controllers struct {
	Member      *controllers.MemberController
	Tree        *controllers.TreeController
	Stake       *controllers.StakeController
	Wallet      *controllers.WalletController
	Compounding *controllers.CompoundingController
	Withdrawal  *controllers.WithdrawalController
	Admin       *controllers.AdminController
}

// SetupRoutes registers the public, member and admin route groups.
func SetupRoutes(e *echo.Echo, c Controllers) {
	// Public.
	e.POST("/api/members/enroll", c.Member.Enroll)

	// Authenticated members.
	api := e.Group("/api")
	api.Use(middleware.JWTMiddleware())

	api.GET("/members/me", c.Member.Me)
	api.GET("/tree", c.Tree.Snapshot)
	api.GET("/tree/directs", c.Tree.Directs)

	api.POST("/stakes", c.Stake.Create)
	api.GET("/stakes", c.Stake.List)

	api.GET("/wallet", c.Wallet.Get)
	api.GET("/wallet/transactions", c.Wallet.Transactions)
	api.GET("/wallet/matching-bonuses", c.Wallet.MatchingHistory)
	api.GET("/wallet/overrides", c.Wallet.OverrideHistory)

	api.POST("/compounding/activate", c.Compounding.Activate)
	api.GET("/compounding", c.Compounding.Status)

	api.POST("/withdrawals", c.Withdrawal.Request)
	api.GET("/withdrawals", c.Withdrawal.History)

	// Admin.
	admin := e.Group("/api/admin")
	admin.Use(middleware.JWTMiddleware(), middleware.RequireRole(middleware.RoleAdmin))

	admin.POST("/deposits", c.Wallet.Deposit)
	admin.POST("/tree/place", c.Tree.Place)
	admin.PUT("/withdrawals/:id/approve", c.Withdrawal.Approve)
	admin.PUT("/withdrawals/:id/reject", c.Withdrawal.Reject)
	admin.POST("/ticks/daily", c.Admin.RunDailyTick)
	admin.POST("/ticks/monthly", c.Admin.RunMonthlyTick)
	admin.GET("/pools/:program/:month", c.Admin.GetPool)
}
