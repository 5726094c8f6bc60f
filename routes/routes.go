package routes

import (
	"time"

	"Gin_postgres_redis_library/app"
	"Gin_postgres_redis_library/controllers"
	"Gin_postgres_redis_library/models"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.Engine, a *app.App) {
	// 控制器与依赖
	s := controllers.GetSrv(a)
	inviteCtl := controllers.GetInviteController(s)
	accountCtl := controllers.GetAccountController(s)
	bookCtl := controllers.NewBookController(s)
	customerCtl := controllers.NewCustomerController(s)
	borrowCtl := controllers.NewBorrowController(s)
	resCtl := controllers.NewReservationController(s)
	penaltyCtl := controllers.NewPenaltyController(s)
	noteCtl := controllers.NewNotificationController(s)

	// 复用的中间件
	authMW := app.AuthRequired(s.AppSess, s.Repo, a.Config.AdminEmails)
	seenMW := app.TouchLastSeen(s.Repo, a.RDB, 5*time.Minute)
	staff := app.RequireRole(models.RoleAdmin, models.RoleLibrarian)
	adminOnly := app.RequireRole(models.RoleAdmin)

	r.GET("/healthz", func(c *app.Ctx) { c.JSON(200, app.H{"ok": true}) })

	// ------------------------------
	// WebAuthn（公开+受保护）
	// ------------------------------
	wa := r.Group("/webauthn")
	{
		wa.POST("/register/begin", s.BeginRegistration)
		wa.POST("/register/finish", s.FinishRegistration)

		wa.POST("/login/begin", s.BeginLogin)
		wa.POST("/login/finish", s.FinishLogin)
	}
	waAuth := wa.Group("", authMW, seenMW)
	{
		waAuth.GET("/whoami", s.WhoAmI)
		waAuth.POST("/logout", s.Logout)
	}

	// 邀请 / 汇总（仅管理员）
	admin := r.Group("/admin", authMW, adminOnly)
	{
		admin.POST("/invites", inviteCtl.CreateInvite)
		admin.GET("/dashboard", accountCtl.Dashboard)
	}

	api := r.Group("/api", authMW, seenMW)

	accounts := api.Group("/accounts", adminOnly)
	{
		accounts.GET("", accountCtl.ListAccounts) // ?q=&role=&page=&size=
		accounts.GET("/:id", accountCtl.GetAccount)
		accounts.PUT("/:id/role", accountCtl.SetRole)
		accounts.DELETE("/:id", accountCtl.DeleteAccount)
	}

	// ------------------------------
	// 书目与库存
	// ------------------------------
	books := api.Group("/books")
	{
		books.GET("", bookCtl.ListBooks)
		books.GET("/:id", bookCtl.GetBook)
		books.POST("", staff, bookCtl.CreateBook)
		books.PUT("/:id", staff, bookCtl.UpdateBook)
		books.PUT("/:id/copies", staff, bookCtl.SetCopies)
		books.DELETE("/:id", adminOnly, bookCtl.DeleteBook)
	}

	customers := api.Group("/customers")
	{
		customers.GET("", staff, customerCtl.ListCustomers)
		customers.POST("", staff, customerCtl.CreateCustomer)
		customers.GET("/:id", customerCtl.GetCustomer)
		customers.PUT("/:id", customerCtl.UpdateCustomer)
		customers.DELETE("/:id", adminOnly, customerCtl.DeleteCustomer)
	}

	// ------------------------------
	// 借还 / 预约 / 罚款
	// ------------------------------
	borrows := api.Group("/borrows")
	{
		borrows.POST("", borrowCtl.Borrow)
		borrows.GET("", borrowCtl.ListBorrows) // ?customerId=&bookId=&status=
		borrows.GET("/:id", borrowCtl.GetBorrow)
		borrows.PUT("/:id/return", staff, borrowCtl.Return)
		borrows.PUT("/:id/undo-return", staff, borrowCtl.UndoReturn)
	}

	reservations := api.Group("/reservations")
	{
		reservations.POST("", resCtl.Create)
		reservations.GET("", resCtl.List)
		reservations.GET("/:id", resCtl.Get)
		reservations.PUT("/:id/cancel", resCtl.Cancel)
	}

	penalties := api.Group("/penalties")
	{
		penalties.GET("", penaltyCtl.List) // ?customerId=&unpaid=true
		penalties.GET("/:id", penaltyCtl.Get)
		penalties.POST("/borrow/:borrowId", staff, penaltyCtl.Upsert)
		penalties.PUT("/:id/status", staff, penaltyCtl.SetStatus)
		penalties.DELETE("/:id", adminOnly, penaltyCtl.Delete)
	}

	notes := api.Group("/notifications")
	{
		notes.GET("", noteCtl.List) // ?customerId=&unread=true
		notes.PUT("/:id/read", noteCtl.MarkRead)
		notes.POST("/send", staff, noteCtl.Send)
	}
}
