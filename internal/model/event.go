package model

import (
	"time"
)

// LedgerEvent 账本事件，每次状态变更记录一条，供读模型消费
type LedgerEvent struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`

	AccountId int64  `json:"account_id" gorm:"index"`
	ProjectId int64  `json:"project_id" gorm:"index"`
	EventType string `json:"event_type" gorm:"not null;index"`

	// 事件载荷：变更后实体的完整JSON（读模型整体替换，不打补丁）
	Data string `json:"data" gorm:"type:text"`

	Processed bool `json:"processed" gorm:"default:false"`
}

// TableName 自定义表名
func (LedgerEvent) TableName() string {
	return "ledger_event"
}

// 事件类型
const (
	EventContributorAccountCreated = "ContributorAccountCreated"
	EventContributionCreated       = "ContributionCreated"
	EventContributionUpdated       = "ContributionUpdated"
	EventContributionsTransferred  = "ContributionsTransferred"
	EventAllContributionsCanceled  = "AllContributionsCanceled"
	EventProjectSubmitted          = "ProjectSubmitted"
	EventProjectPinged             = "ProjectPinged"
)
