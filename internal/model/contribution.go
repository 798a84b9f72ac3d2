package model

import (
	"time"
)

// Contribution 一笔对项目的资助承诺，按周期逐步释放
type Contribution struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	AccountId int64 `json:"account_id" gorm:"not null;uniqueIndex:idx_account_slot"`

	// 槽位下标。槽位可以复用但不会压缩，下标是稳定标识
	SlotIndex int `json:"slot_index" gorm:"not null;uniqueIndex:idx_account_slot"`

	ProjectId int64 `json:"project_id" gorm:"not null;index"`

	// 累计存入金额，可调整
	AmountStored int64 `json:"amount_stored" gorm:"not null"`

	// 累计已分发金额，单调不减，始终 <= AmountStored
	AmountDistributed int64 `json:"amount_distributed" gorm:"default:0"`

	StartedAt time.Time `json:"started_at" gorm:"not null"`
	EndsAt    time.Time `json:"ends_at" gorm:"not null"` // 目标完成时间
}

// TableName 自定义表名
func (Contribution) TableName() string {
	return "contribution"
}

// AmountLeft 尚未分发的余额
func (c *Contribution) AmountLeft() int64 {
	return c.AmountStored - c.AmountDistributed
}

// FullyDistributed 是否已全部分发完毕（休眠槽位，保留做审计）
func (c *Contribution) FullyDistributed() bool {
	return c.AmountDistributed >= c.AmountStored
}
