package logic

import (
	"encoding/json"
	"fmt"

	"github.com/blues/sfs/internal/model"
	"gorm.io/gorm"
)

// EventLogic 账本事件业务逻辑
type EventLogic struct {
	db *gorm.DB
}

// NewEventLogic 创建账本事件业务逻辑
func NewEventLogic(db *gorm.DB) *EventLogic {
	return &EventLogic{db: db}
}

// recordEvent 在事务内记录一条账本事件，载荷为变更后实体的完整JSON
func recordEvent(tx *gorm.DB, eventType string, accountId, projectId int64, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("序列化事件载荷失败: %w", err)
	}

	event := model.LedgerEvent{
		AccountId: accountId,
		ProjectId: projectId,
		EventType: eventType,
		Data:      string(data),
	}

	if err := tx.Create(&event).Error; err != nil {
		return fmt.Errorf("创建事件记录失败: %w", err)
	}

	return nil
}

// GetEvents 获取事件列表
func (e *EventLogic) GetEvents(accountId int64, eventType string, page, pageSize int) ([]model.LedgerEvent, int64, error) {
	var events []model.LedgerEvent
	var total int64

	// 构建查询条件
	query := e.db.Model(&model.LedgerEvent{})
	if accountId > 0 {
		query = query.Where("account_id = ?", accountId)
	}
	if eventType != "" {
		query = query.Where("event_type = ?", eventType)
	}

	// 获取总数
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("获取事件总数失败: %w", err)
	}

	// 分页查询
	offset := (page - 1) * pageSize
	if err := query.Offset(offset).Limit(pageSize).Order("id DESC").Find(&events).Error; err != nil {
		return nil, 0, fmt.Errorf("获取事件列表失败: %w", err)
	}

	return events, total, nil
}

// GetUnprocessedEvents 获取未处理的事件，按写入顺序返回
func (e *EventLogic) GetUnprocessedEvents(limit int) ([]model.LedgerEvent, error) {
	var events []model.LedgerEvent
	if err := e.db.Where("processed = ?", false).
		Order("id ASC").
		Limit(limit).
		Find(&events).Error; err != nil {
		return nil, fmt.Errorf("获取未处理事件失败: %w", err)
	}

	return events, nil
}

// MarkProcessed 更新事件处理状态
func (e *EventLogic) MarkProcessed(id int64) error {
	if err := e.db.Model(&model.LedgerEvent{}).Where("id = ?", id).Update("processed", true).Error; err != nil {
		return fmt.Errorf("更新事件处理状态失败: %w", err)
	}

	return nil
}
