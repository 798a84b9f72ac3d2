package main

import (
	"github.com/blues/sfs/internal/config"
	"github.com/blues/sfs/internal/database"
	"github.com/blues/sfs/internal/logger"
	"github.com/blues/sfs/internal/logic"
	"github.com/blues/sfs/internal/payout"
	"github.com/blues/sfs/internal/router"
	"github.com/blues/sfs/internal/task"
	"github.com/gin-gonic/gin"
)

func main() {
	// 加载配置
	cfg := config.Load()

	// 初始化日志
	if err := logger.Setup(cfg.Log); err != nil {
		logger.Fatal("Failed to setup logger: %v", err)
	}

	// 初始化数据库
	db, err := database.Init(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to initialize database: %v", err)
	}

	// 初始化转账客户端
	sender, err := payout.Init(cfg.Chain)
	if err != nil {
		logger.Fatal("Failed to initialize payout sender: %v", err)
	}

	// 设置Gin模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 初始化路由
	r := router.Setup(db, sender, cfg)

	// 启动定时任务
	ledgerLogic := logic.NewLedgerLogic(db, sender, cfg)
	upkeepLogic := logic.NewUpkeepLogic(db, ledgerLogic, sender, cfg)
	eventLogic := logic.NewEventLogic(db)
	task.Start(db, upkeepLogic, eventLogic, cfg)

	// 启动服务器
	logger.Info("Server starting on port %s", cfg.Server.Port)
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		logger.Fatal("Failed to start server: %v", err)
	}
}
