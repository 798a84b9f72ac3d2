package task

import (
	"time"

	"github.com/blues/sfs/internal/config"
	"github.com/blues/sfs/internal/event"
	"github.com/blues/sfs/internal/logger"
	"github.com/blues/sfs/internal/logic"
	"github.com/go-co-op/gocron/v2"
	"gorm.io/gorm"
)

// 每批最多消费的事件数
const projectorBatchSize = 200

// EventProjectorJob 事件投影任务，把账本事件折叠进读模型
type EventProjectorJob struct {
	db        *gorm.DB
	config    *config.Config
	projector *event.Projector
}

// NewEventProjectorJob 创建事件投影任务
func NewEventProjectorJob(db *gorm.DB, cfg *config.Config, events *logic.EventLogic) *EventProjectorJob {
	return &EventProjectorJob{
		db:        db,
		config:    cfg,
		projector: event.NewProjector(db, events),
	}
}

// GetName 获取任务名称
func (j *EventProjectorJob) GetName() string {
	return "event_projector"
}

// GetSchedule 获取调度配置
func (j *EventProjectorJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(time.Duration(j.config.Task.Interval) * time.Second)
}

// Execute 执行任务
func (j *EventProjectorJob) Execute() {
	processed, err := j.projector.ProcessPending(projectorBatchSize)
	if err != nil {
		logger.Error("Failed to process pending events: %v", err)
		return
	}

	if processed > 0 {
		logger.Info("Event projector processed %d events", processed)
	}
}
