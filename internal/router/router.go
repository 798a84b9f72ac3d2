package router

import (
	"github.com/blues/sfs/internal/config"
	"github.com/blues/sfs/internal/event"
	"github.com/blues/sfs/internal/handler"
	"github.com/blues/sfs/internal/logic"
	"github.com/blues/sfs/internal/payout"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func Setup(db *gorm.DB, sender payout.Sender, cfg *config.Config) *gin.Engine {
	r := gin.Default()

	// 中间件
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(corsMiddleware())

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": "streaming-fund-service",
		})
	})

	// 业务逻辑
	projectLogic := logic.NewProjectLogic(db, cfg)
	eventLogic := logic.NewEventLogic(db)
	ledgerLogic := logic.NewLedgerLogic(db, sender, cfg)
	upkeepLogic := logic.NewUpkeepLogic(db, ledgerLogic, sender, cfg)
	projector := event.NewProjector(db, eventLogic)

	// API版本组
	v1 := r.Group("/api/v1")
	{
		// 项目相关路由
		projectHandler := handler.NewProjectHandler(projectLogic)
		projects := v1.Group("/projects")
		{
			projects.POST("", projectHandler.SubmitProject)
			projects.GET("", projectHandler.GetProjects)
			projects.GET("/:id", projectHandler.GetProject)
			projects.POST("/:id/ping", projectHandler.PingProject)
		}

		// 账户与贡献路由
		accountHandler := handler.NewAccountHandler(ledgerLogic, eventLogic, projector)
		accounts := v1.Group("/accounts")
		{
			accounts.POST("", accountHandler.CreateAccount)
			accounts.GET("/:owner", accountHandler.GetAccount)
			accounts.POST("/:owner/contributions", accountHandler.CreateContribution)
			accounts.PUT("/:owner/contributions/:index", accountHandler.UpdateContribution)
			accounts.DELETE("/:owner/contributions/:index", accountHandler.CancelContribution)
			accounts.DELETE("/:owner/contributions", accountHandler.CancelAllContributions)
			accounts.POST("/:owner/distribute", accountHandler.TriggerPayment)
			accounts.GET("/:owner/payouts", accountHandler.GetPayoutRecords)
			accounts.GET("/:owner/events", accountHandler.GetEvents)
			accounts.GET("/:owner/contribution-views", accountHandler.GetContributionViews)
		}

		// 自动化注册路由
		upkeepHandler := handler.NewUpkeepHandler(upkeepLogic)
		upkeeps := v1.Group("/accounts/:owner/upkeep")
		{
			upkeeps.POST("", upkeepHandler.RegisterUpkeep)
			upkeeps.GET("", upkeepHandler.GetUpkeep)
			upkeeps.POST("/pause", upkeepHandler.PauseUpkeep)
			upkeeps.POST("/unpause", upkeepHandler.UnpauseUpkeep)
			upkeeps.POST("/cancel", upkeepHandler.CancelUpkeep)
			upkeeps.POST("/withdraw", upkeepHandler.WithdrawUpkeepFunds)
			upkeeps.GET("/check", upkeepHandler.CheckWork)
			upkeeps.POST("/perform", upkeepHandler.PerformWork)
		}
	}

	return r
}

// CORS中间件
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
