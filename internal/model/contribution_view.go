package model

import (
	"time"
)

// ContributionView 贡献读模型，由事件投影器折叠账本事件得到
// 以 (account, slot) 为键整体替换，重复回放同一事件是安全的
type ContributionView struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	UpdatedAt time.Time `json:"updated_at"`

	AccountId int64 `json:"account_id" gorm:"not null;uniqueIndex:idx_view_account_slot"`
	SlotIndex int   `json:"slot_index" gorm:"not null;uniqueIndex:idx_view_account_slot"`

	ProjectId         int64     `json:"project_id" gorm:"index"`
	AmountStored      int64     `json:"amount_stored"`
	AmountDistributed int64     `json:"amount_distributed"`
	EndsAt            time.Time `json:"ends_at"`
}

// TableName 自定义表名
func (ContributionView) TableName() string {
	return "contribution_view"
}
