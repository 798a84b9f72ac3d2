package logic

import (
	"errors"
	"fmt"
	"time"

	"github.com/blues/sfs/internal/config"
	"github.com/blues/sfs/internal/model"
	"gorm.io/gorm"
)

// ProjectLogic 项目业务逻辑，包含活跃度跟踪
type ProjectLogic struct {
	db  *gorm.DB
	cfg *config.Config
	now func() time.Time
}

// NewProjectLogic 创建项目业务逻辑
func NewProjectLogic(db *gorm.DB, cfg *config.Config) *ProjectLogic {
	return &ProjectLogic{
		db:  db,
		cfg: cfg,
		now: time.Now,
	}
}

// SubmitProject 提交项目
func (p *ProjectLogic) SubmitProject(project *model.Project) error {
	// 验证项目数据
	if err := p.validateProject(project); err != nil {
		return err
	}

	now := p.now()
	project.TotalRaised = 0
	project.LastActivityAt = now

	tx := p.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := tx.Create(project).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("创建项目失败: %w", err)
	}

	if err := recordEvent(tx, model.EventProjectSubmitted, 0, project.Id, project); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit().Error
}

// Ping 协作者活跃打卡，重置项目的不活跃时钟
//
// 已经沉寂超过活跃窗口的项目不能通过打卡复活，这是单向策略。
func (p *ProjectLogic) Ping(projectId int64, caller string) error {
	now := p.now()

	tx := p.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	var project model.Project
	if err := tx.Preload("Collaborators").First(&project, projectId).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProjectNotFound
		}
		return fmt.Errorf("获取项目失败: %w", err)
	}

	// 调用者必须在协作者名单里
	if !isCollaborator(&project, caller) {
		tx.Rollback()
		return ErrNotCollaborator
	}

	// 过期项目不能复活
	if !project.IsActive(p.cfg.Ledger.ActivityWindow(), now) {
		tx.Rollback()
		return ErrProjectExpired
	}

	if err := tx.Model(&project).Update("last_activity_at", now).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("更新活跃时间失败: %w", err)
	}

	project.LastActivityAt = now
	if err := recordEvent(tx, model.EventProjectPinged, 0, project.Id, &project); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit().Error
}

// IsActive 项目在参考时间是否活跃
func (p *ProjectLogic) IsActive(project *model.Project, now time.Time) bool {
	return project.IsActive(p.cfg.Ledger.ActivityWindow(), now)
}

// GetProjects 获取项目列表
func (p *ProjectLogic) GetProjects() ([]model.Project, error) {
	var projects []model.Project
	if err := p.db.Find(&projects).Error; err != nil {
		return nil, fmt.Errorf("获取项目列表失败: %w", err)
	}

	return projects, nil
}

// GetProject 获取项目详情
func (p *ProjectLogic) GetProject(id int64) (*model.Project, error) {
	var project model.Project
	if err := p.db.Preload("Collaborators").First(&project, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("获取项目详情失败: %w", err)
	}

	return &project, nil
}

// validateProject 验证项目数据
func (p *ProjectLogic) validateProject(project *model.Project) error {
	if project.Title == "" {
		return errors.New("项目标题不能为空")
	}
	if project.Address == "" {
		return errors.New("项目收款地址不能为空")
	}
	if len(project.Collaborators) == 0 {
		return errors.New("项目至少需要一个协作者")
	}

	// 分成比例合计必须为100
	total := 0
	for _, c := range project.Collaborators {
		if c.Address == "" {
			return errors.New("协作者地址不能为空")
		}
		if c.SharePercent <= 0 {
			return errors.New("协作者分成比例必须大于0")
		}
		total += c.SharePercent
	}
	if total != 100 {
		return errors.New("协作者分成比例合计必须为100")
	}

	return nil
}

// isCollaborator 调用者是否在协作者名单里
func isCollaborator(project *model.Project, caller string) bool {
	for _, c := range project.Collaborators {
		if c.Address == caller {
			return true
		}
	}
	return false
}
