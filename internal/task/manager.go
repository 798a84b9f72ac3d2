package task

import (
	"github.com/blues/sfs/internal/config"
	"github.com/blues/sfs/internal/logger"
	"github.com/blues/sfs/internal/logic"
	"github.com/go-co-op/gocron/v2"
	"gorm.io/gorm"
)

// Manager 任务管理器
type Manager struct {
	scheduler gocron.Scheduler
	db        *gorm.DB
	upkeep    *logic.UpkeepLogic
	events    *logic.EventLogic
	config    *config.Config
}

// NewManager 创建新的任务管理器
func NewManager(db *gorm.DB, upkeep *logic.UpkeepLogic, events *logic.EventLogic, cfg *config.Config) *Manager {
	s, err := gocron.NewScheduler()
	if err != nil {
		logger.Fatal("Failed to create scheduler: %v", err)
	}

	return &Manager{
		scheduler: s,
		db:        db,
		upkeep:    upkeep,
		events:    events,
		config:    cfg,
	}
}

// Start 启动任务管理器
func Start(db *gorm.DB, upkeep *logic.UpkeepLogic, events *logic.EventLogic, cfg *config.Config) *Manager {
	manager := NewManager(db, upkeep, events, cfg)

	// 注册所有任务
	manager.RegisterJobs()

	// 启动调度器
	manager.scheduler.Start()

	logger.Info("Task manager started successfully")
	return manager
}

// RegisterJobs 注册所有任务
func (m *Manager) RegisterJobs() {
	// 注册自动化轮询任务
	m.registerJob(NewUpkeepPollJob(m.db, m.config, m.upkeep))

	// 注册事件投影任务
	m.registerJob(NewEventProjectorJob(m.db, m.config, m.events))
}

// Job 定时任务接口
type Job interface {
	GetName() string
	GetSchedule() gocron.JobDefinition
	Execute()
}

// registerJob 注册单个任务
func (m *Manager) registerJob(job Job) {
	_, err := m.scheduler.NewJob(
		job.GetSchedule(),
		gocron.NewTask(job.Execute),
		gocron.WithName(job.GetName()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		logger.Error("Failed to register job %s: %v", job.GetName(), err)
	}
}

// Stop 停止任务管理器
func (m *Manager) Stop() {
	if err := m.scheduler.Shutdown(); err != nil {
		logger.Error("Failed to shutdown scheduler: %v", err)
	}
	logger.Info("Task manager stopped")
}
