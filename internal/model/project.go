package model

import (
	"time"
)

// Project 受助项目
type Project struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// 基本信息
	Title       string `json:"title" gorm:"not null" binding:"required"`
	Description string `json:"description" gorm:"type:text"`
	Category    string `json:"category"`

	// 收款地址，资金最终打到这里
	Address string `json:"address" gorm:"uniqueIndex;not null"`

	// 提交者地址
	SubmitterAddress string `json:"submitter_address" gorm:"not null"`

	// 累计收到的分发金额
	TotalRaised int64 `json:"total_raised" gorm:"default:0"`

	// 最近一次协作者活跃时间，只能通过 ping 更新
	LastActivityAt time.Time `json:"last_activity_at" gorm:"not null"`

	// 关联
	Collaborators []Collaborator `json:"collaborators,omitempty" gorm:"foreignKey:ProjectId"`
}

// TableName 自定义表名
func (Project) TableName() string {
	return "project"
}

// IsActive 项目是否处于活跃窗口内（派生属性，不落库）
func (p *Project) IsActive(window time.Duration, now time.Time) bool {
	return now.Sub(p.LastActivityAt) < window
}

// Collaborator 项目协作者及其分成比例
type Collaborator struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	ProjectId    int64  `json:"project_id" gorm:"not null;index"`
	Address      string `json:"address" gorm:"not null"` // 协作者钱包地址
	Name         string `json:"name"`
	SharePercent int    `json:"share_percent" gorm:"not null"` // 分成百分比，项目内合计必须为100
}

// TableName 自定义表名
func (Collaborator) TableName() string {
	return "collaborator"
}
