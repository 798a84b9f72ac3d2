package model

import (
	"time"
)

// UpkeepRegistration 自动化注册，与一个账户一对一绑定
type UpkeepRegistration struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	AccountId int64 `json:"account_id" gorm:"uniqueIndex;not null"`

	// 注册标识
	UpkeepId string `json:"upkeep_id" gorm:"uniqueIndex;not null"`

	// 管理员地址（注册人），取消后的资金退还给它
	Admin string `json:"admin" gorm:"not null"`

	// 费用代币余额，与分发资金是两种币
	Balance int64 `json:"balance" gorm:"not null"`

	// 累计消耗的费用
	AmountSpent int64 `json:"amount_spent" gorm:"default:0"`

	Paused   bool `json:"paused" gorm:"default:false"`
	Canceled bool `json:"canceled" gorm:"default:false"`

	// 取消时间，冷却期从这里起算
	CanceledAt *time.Time `json:"canceled_at"`

	// 最近一次自动执行时间
	LastPerformedAt *time.Time `json:"last_performed_at"`
}

// TableName 自定义表名
func (UpkeepRegistration) TableName() string {
	return "upkeep_registration"
}

// Withdrawable 取消后冷却期是否已过（派生属性，不落库）
func (u *UpkeepRegistration) Withdrawable(cooldown time.Duration, now time.Time) bool {
	return u.Canceled && u.CanceledAt != nil && !now.Before(u.CanceledAt.Add(cooldown))
}
