package task

import (
	"errors"
	"sync"
	"time"

	"github.com/blues/sfs/internal/config"
	"github.com/blues/sfs/internal/logger"
	"github.com/blues/sfs/internal/logic"
	"github.com/blues/sfs/internal/model"
	"github.com/go-co-op/gocron/v2"
	"github.com/panjf2000/ants/v2"
	"gorm.io/gorm"
)

// UpkeepPollJob 自动化轮询任务
//
// 模拟外部自动化服务的 check/perform 两段式协议：
// 先问有没有工作，有才执行。周期是尽力而为的，早到晚到都不影响正确性。
type UpkeepPollJob struct {
	db     *gorm.DB
	config *config.Config
	upkeep *logic.UpkeepLogic
}

// NewUpkeepPollJob 创建自动化轮询任务
func NewUpkeepPollJob(db *gorm.DB, cfg *config.Config, upkeep *logic.UpkeepLogic) *UpkeepPollJob {
	return &UpkeepPollJob{
		db:     db,
		config: cfg,
		upkeep: upkeep,
	}
}

// GetName 获取任务名称
func (j *UpkeepPollJob) GetName() string {
	return "upkeep_poller"
}

// GetSchedule 获取调度配置
func (j *UpkeepPollJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(time.Duration(j.config.Task.Interval) * time.Second)
}

// Execute 执行任务
func (j *UpkeepPollJob) Execute() {
	logger.Info("Starting upkeep poll task")

	now := time.Now()

	// 查找所有存活的注册
	var registrations []model.UpkeepRegistration
	err := j.db.Where("canceled = ? AND paused = ?", false, false).Find(&registrations).Error
	if err != nil {
		logger.Error("Failed to fetch upkeep registrations: %v", err)
		return
	}

	if len(registrations) == 0 {
		logger.Debug("No live upkeep registrations")
		return
	}

	// 跨账户操作相互独立，用协程池并发处理
	poolSize := j.config.Task.PoolSize
	if poolSize <= 0 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		logger.Error("Failed to create worker pool: %v", err)
		return
	}
	defer pool.Release()

	var wg sync.WaitGroup
	performed := 0
	var mu sync.Mutex

	for _, registration := range registrations {
		var account model.ContributorAccount
		if err := j.db.First(&account, registration.AccountId).Error; err != nil {
			logger.Error("Failed to fetch account %d: %v", registration.AccountId, err)
			continue
		}

		owner := account.Owner
		wg.Add(1)
		err := pool.Submit(func() {
			defer wg.Done()
			if j.pollAccount(owner, now) {
				mu.Lock()
				performed++
				mu.Unlock()
			}
		})
		if err != nil {
			wg.Done()
			logger.Error("Failed to submit task to pool: %v", err)
		}
	}

	wg.Wait()
	logger.Info("Upkeep poll task completed. Performed %d distributions", performed)
}

// pollAccount 对单个账户执行 check/perform 协议
func (j *UpkeepPollJob) pollAccount(owner string, now time.Time) bool {
	ok, err := j.upkeep.CheckWork(owner, now)
	if err != nil {
		logger.Error("CheckWork failed for account %s: %v", owner, err)
		return false
	}
	if !ok {
		return false
	}

	payments, err := j.upkeep.PerformWork(owner, now)
	if err != nil {
		// 和手动触发撞车时这里会干净地失败，不算错误
		if errors.Is(err, logic.ErrNoContributionToSend) {
			logger.Debug("No work left for account %s", owner)
			return false
		}
		logger.Error("PerformWork failed for account %s: %v", owner, err)
		return false
	}

	logger.Info("Performed scheduled distribution for account %s, %d payments", owner, len(payments))
	return true
}
