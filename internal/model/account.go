package model

import (
	"time"
)

// ContributorAccount 贡献者账本账户，每个贡献者一个
type ContributorAccount struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// 所有者地址，账户只能由所有者操作
	Owner string `json:"owner" gorm:"uniqueIndex;not null"`

	// 计划支付周期（秒），限制在 [1小时, 30天]
	PaymentInterval int64 `json:"payment_interval" gorm:"not null"`

	// 最近一次分发周期的执行时间，手动触发和自动执行共用
	LastDistributionAt *time.Time `json:"last_distribution_at"`

	// 关联
	Contributions []Contribution      `json:"contributions,omitempty" gorm:"foreignKey:AccountId"`
	Upkeep        *UpkeepRegistration `json:"upkeep,omitempty" gorm:"foreignKey:AccountId"`
}

// TableName 自定义表名
func (ContributorAccount) TableName() string {
	return "contributor_account"
}
