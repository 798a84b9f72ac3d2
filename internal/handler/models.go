package handler

import (
	"time"
)

// 通用响应结构
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// 分页信息结构
type Pagination struct {
	Page      int   `json:"page"`
	PageSize  int   `json:"pageSize"`
	Total     int64 `json:"total"`
	TotalPage int64 `json:"totalPage"`
}

// 项目相关请求模型

// CollaboratorRequest 协作者请求模型
type CollaboratorRequest struct {
	Address      string `json:"address" binding:"required"`
	Name         string `json:"name"`
	SharePercent int    `json:"sharePercent" binding:"required"`
}

// SubmitProjectRequest 提交项目请求
type SubmitProjectRequest struct {
	Title            string                `json:"title" binding:"required"`
	Description      string                `json:"description"`
	Category         string                `json:"category"`
	Address          string                `json:"address" binding:"required"`
	SubmitterAddress string                `json:"submitterAddress" binding:"required"`
	Collaborators    []CollaboratorRequest `json:"collaborators" binding:"required"`
}

// PingProjectRequest 项目活跃打卡请求
type PingProjectRequest struct {
	Caller string `json:"caller" binding:"required"`
}

// 账户相关请求模型

// CreateAccountRequest 创建账户请求
type CreateAccountRequest struct {
	Owner           string `json:"owner" binding:"required"`
	PaymentInterval int64  `json:"paymentInterval" binding:"required"`
}

// CreateContributionRequest 创建贡献请求
type CreateContributionRequest struct {
	Caller    string    `json:"caller" binding:"required"`
	ProjectId int64     `json:"projectId" binding:"required"`
	Amount    int64     `json:"amount" binding:"required"`
	EndsAt    time.Time `json:"endsAt" binding:"required"`
	PaidValue int64     `json:"paidValue"`
}

// UpdateContributionRequest 调整贡献请求
type UpdateContributionRequest struct {
	Caller    string `json:"caller" binding:"required"`
	NewAmount int64  `json:"newAmount" binding:"required"`
	PaidValue int64  `json:"paidValue"`
}

// CallerRequest 只携带调用者地址的请求
type CallerRequest struct {
	Caller string `json:"caller" binding:"required"`
}

// RegisterUpkeepRequest 注册自动化请求
type RegisterUpkeepRequest struct {
	Caller  string `json:"caller" binding:"required"`
	Funding int64  `json:"funding" binding:"required"`
}
