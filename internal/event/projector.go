package event

import (
	"encoding/json"
	"fmt"

	"github.com/blues/sfs/internal/logger"
	"github.com/blues/sfs/internal/logic"
	"github.com/blues/sfs/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Projector 事件投影器，把账本事件折叠成贡献读模型
//
// 载荷携带变更后实体的完整状态，投影按 (account, slot) 整体替换，
// 所以重复回放已应用过的事件是安全的空操作。
type Projector struct {
	db         *gorm.DB
	eventLogic *logic.EventLogic
}

// NewProjector 创建事件投影器
func NewProjector(db *gorm.DB, eventLogic *logic.EventLogic) *Projector {
	return &Projector{
		db:         db,
		eventLogic: eventLogic,
	}
}

// ProcessPending 处理一批未消费的事件，返回处理数量
func (p *Projector) ProcessPending(limit int) (int, error) {
	events, err := p.eventLogic.GetUnprocessedEvents(limit)
	if err != nil {
		return 0, err
	}

	processed := 0
	for _, evt := range events {
		if err := p.apply(&evt); err != nil {
			logger.Error("Failed to apply event %d (%s): %v", evt.Id, evt.EventType, err)
			continue
		}

		if err := p.eventLogic.MarkProcessed(evt.Id); err != nil {
			logger.Error("Failed to mark event %d processed: %v", evt.Id, err)
			continue
		}
		processed++
	}

	return processed, nil
}

// apply 把单个事件折叠进读模型
func (p *Projector) apply(evt *model.LedgerEvent) error {
	switch evt.EventType {
	case model.EventContributionCreated, model.EventContributionUpdated:
		var contribution model.Contribution
		if err := json.Unmarshal([]byte(evt.Data), &contribution); err != nil {
			return fmt.Errorf("解析事件载荷失败: %w", err)
		}
		return p.upsertView(evt.AccountId, &contribution)

	case model.EventContributionsTransferred, model.EventAllContributionsCanceled:
		var contributions []model.Contribution
		if err := json.Unmarshal([]byte(evt.Data), &contributions); err != nil {
			return fmt.Errorf("解析事件载荷失败: %w", err)
		}
		for i := range contributions {
			if err := p.upsertView(evt.AccountId, &contributions[i]); err != nil {
				return err
			}
		}
		return nil

	default:
		// 账户创建、项目提交、打卡等事件不影响贡献读模型
		return nil
	}
}

// upsertView 以 (account, slot) 为键整体替换读模型行
func (p *Projector) upsertView(accountId int64, c *model.Contribution) error {
	view := model.ContributionView{
		AccountId:         accountId,
		SlotIndex:         c.SlotIndex,
		ProjectId:         c.ProjectId,
		AmountStored:      c.AmountStored,
		AmountDistributed: c.AmountDistributed,
		EndsAt:            c.EndsAt,
	}

	return p.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "account_id"}, {Name: "slot_index"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"project_id", "amount_stored", "amount_distributed", "ends_at", "updated_at",
		}),
	}).Create(&view).Error
}

// GetViews 按账户查询贡献读模型
func (p *Projector) GetViews(accountId int64) ([]model.ContributionView, error) {
	var views []model.ContributionView
	if err := p.db.Where("account_id = ?", accountId).
		Order("slot_index ASC").
		Find(&views).Error; err != nil {
		return nil, fmt.Errorf("获取贡献读模型失败: %w", err)
	}

	return views, nil
}
