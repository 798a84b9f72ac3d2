package model

import (
	"time"
)

// PayoutRecord 分发记录，每次成功转账一条
type PayoutRecord struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`

	AccountId int64  `json:"account_id" gorm:"not null;index"`
	SlotIndex int    `json:"slot_index" gorm:"not null"`
	ProjectId int64  `json:"project_id" gorm:"not null;index"`
	Amount    int64  `json:"amount" gorm:"not null"`
	TxHash    string `json:"tx_hash"`
	Trigger   string `json:"trigger" gorm:"not null"` // manual, scheduled
}

// TableName 自定义表名
func (PayoutRecord) TableName() string {
	return "payout_record"
}

// 分发触发方式
const (
	PayoutTriggerManual    = "manual"
	PayoutTriggerScheduled = "scheduled"
)
