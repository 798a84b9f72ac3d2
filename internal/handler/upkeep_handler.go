package handler

import (
	"net/http"
	"time"

	"github.com/blues/sfs/internal/logic"
	"github.com/gin-gonic/gin"
)

// UpkeepHandler 自动化注册处理器
type UpkeepHandler struct {
	upkeepLogic *logic.UpkeepLogic
}

// NewUpkeepHandler 创建自动化注册处理器
func NewUpkeepHandler(upkeepLogic *logic.UpkeepLogic) *UpkeepHandler {
	return &UpkeepHandler{
		upkeepLogic: upkeepLogic,
	}
}

// RegisterUpkeep 注册自动化执行
func (h *UpkeepHandler) RegisterUpkeep(c *gin.Context) {
	var req RegisterUpkeepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的请求参数")
		return
	}

	registration, err := h.upkeepLogic.RegisterNewUpkeep(c.Param("owner"), req.Caller, req.Funding)
	if err != nil {
		FailWith(c, err)
		return
	}

	SuccessResponse(c, http.StatusCreated, "注册自动化成功", registration)
}

// GetUpkeep 获取自动化注册详情
func (h *UpkeepHandler) GetUpkeep(c *gin.Context) {
	registration, err := h.upkeepLogic.GetRegistration(c.Param("owner"))
	if err != nil {
		FailWith(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "获取自动化注册成功", registration)
}

// PauseUpkeep 暂停自动化执行
func (h *UpkeepHandler) PauseUpkeep(c *gin.Context) {
	h.toggle(c, h.upkeepLogic.PauseUpkeep, "暂停自动化成功")
}

// UnpauseUpkeep 恢复自动化执行
func (h *UpkeepHandler) UnpauseUpkeep(c *gin.Context) {
	h.toggle(c, h.upkeepLogic.UnpauseUpkeep, "恢复自动化成功")
}

// CancelUpkeep 取消自动化注册
func (h *UpkeepHandler) CancelUpkeep(c *gin.Context) {
	h.toggle(c, h.upkeepLogic.CancelUpkeep, "取消自动化成功")
}

// toggle 公共的状态迁移入口
func (h *UpkeepHandler) toggle(c *gin.Context, fn func(owner, caller string) error, message string) {
	var req CallerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的请求参数")
		return
	}

	if err := fn(c.Param("owner"), req.Caller); err != nil {
		FailWith(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, message, nil)
}

// WithdrawUpkeepFunds 提取剩余资金
func (h *UpkeepHandler) WithdrawUpkeepFunds(c *gin.Context) {
	var req CallerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的请求参数")
		return
	}

	amount, err := h.upkeepLogic.WithdrawUpkeepFunds(c.Param("owner"), req.Caller)
	if err != nil {
		FailWith(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "提取资金成功", gin.H{"amount": amount})
}

// CheckWork 外部轮询入口：是否有待执行的分发
func (h *UpkeepHandler) CheckWork(c *gin.Context) {
	ok, err := h.upkeepLogic.CheckWork(c.Param("owner"), time.Now())
	if err != nil {
		FailWith(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "检查完成", gin.H{"workNeeded": ok})
}

// PerformWork 外部执行入口：执行一次计划分发
func (h *UpkeepHandler) PerformWork(c *gin.Context) {
	payments, err := h.upkeepLogic.PerformWork(c.Param("owner"), time.Now())
	if err != nil {
		FailWith(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "执行完成", gin.H{"payments": payments})
}
