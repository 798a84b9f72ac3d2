package handler

import (
	"net/http"
	"strconv"

	"github.com/blues/sfs/internal/event"
	"github.com/blues/sfs/internal/logic"
	"github.com/gin-gonic/gin"
)

// AccountHandler 贡献账本处理器
type AccountHandler struct {
	ledgerLogic *logic.LedgerLogic
	eventLogic  *logic.EventLogic
	projector   *event.Projector
}

// NewAccountHandler 创建贡献账本处理器
func NewAccountHandler(ledgerLogic *logic.LedgerLogic, eventLogic *logic.EventLogic, projector *event.Projector) *AccountHandler {
	return &AccountHandler{
		ledgerLogic: ledgerLogic,
		eventLogic:  eventLogic,
		projector:   projector,
	}
}

// CreateAccount 创建贡献者账户
func (h *AccountHandler) CreateAccount(c *gin.Context) {
	var req CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的请求参数")
		return
	}

	account, err := h.ledgerLogic.CreateAccount(req.Owner, req.PaymentInterval)
	if err != nil {
		FailWith(c, err)
		return
	}

	SuccessResponse(c, http.StatusCreated, "创建账户成功", account)
}

// GetAccount 获取账户详情
func (h *AccountHandler) GetAccount(c *gin.Context) {
	account, err := h.ledgerLogic.GetAccount(c.Param("owner"))
	if err != nil {
		FailWith(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "获取账户成功", account)
}

// CreateContribution 创建贡献
func (h *AccountHandler) CreateContribution(c *gin.Context) {
	var req CreateContributionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的请求参数")
		return
	}

	contribution, err := h.ledgerLogic.CreateContribution(
		c.Param("owner"), req.Caller, req.ProjectId, req.Amount, req.EndsAt, req.PaidValue)
	if err != nil {
		FailWith(c, err)
		return
	}

	SuccessResponse(c, http.StatusCreated, "创建贡献成功", contribution)
}

// UpdateContribution 调整贡献金额
func (h *AccountHandler) UpdateContribution(c *gin.Context) {
	slotIndex, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的槽位下标")
		return
	}

	var req UpdateContributionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的请求参数")
		return
	}

	contribution, err := h.ledgerLogic.UpdateContribution(
		c.Param("owner"), req.Caller, slotIndex, req.NewAmount, req.PaidValue)
	if err != nil {
		FailWith(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "调整贡献成功", contribution)
}

// CancelContribution 取消单笔贡献
func (h *AccountHandler) CancelContribution(c *gin.Context) {
	slotIndex, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的槽位下标")
		return
	}

	var req CallerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的请求参数")
		return
	}

	refund, err := h.ledgerLogic.CancelContribution(c.Param("owner"), req.Caller, slotIndex)
	if err != nil {
		FailWith(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "取消贡献成功", gin.H{"refund": refund})
}

// CancelAllContributions 取消全部贡献
func (h *AccountHandler) CancelAllContributions(c *gin.Context) {
	var req CallerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的请求参数")
		return
	}

	refund, err := h.ledgerLogic.CancelAllContributions(c.Param("owner"), req.Caller)
	if err != nil {
		FailWith(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "取消全部贡献成功", gin.H{"refund": refund})
}

// TriggerPayment 手动触发一次分发周期
func (h *AccountHandler) TriggerPayment(c *gin.Context) {
	var req CallerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的请求参数")
		return
	}

	payments, err := h.ledgerLogic.TriggerManualPayment(c.Param("owner"), req.Caller)
	if err != nil {
		FailWith(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "分发成功", gin.H{"payments": payments})
}

// GetPayoutRecords 获取分发记录
func (h *AccountHandler) GetPayoutRecords(c *gin.Context) {
	account, err := h.ledgerLogic.GetAccount(c.Param("owner"))
	if err != nil {
		FailWith(c, err)
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))

	records, total, err := h.ledgerLogic.GetPayoutRecords(account.Id, page, pageSize)
	if err != nil {
		FailWith(c, err)
		return
	}

	pagination := Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	}

	SuccessResponse(c, http.StatusOK, "获取分发记录成功", gin.H{
		"records":    records,
		"pagination": pagination,
	})
}

// GetEvents 获取账户的账本事件
func (h *AccountHandler) GetEvents(c *gin.Context) {
	account, err := h.ledgerLogic.GetAccount(c.Param("owner"))
	if err != nil {
		FailWith(c, err)
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))
	eventType := c.Query("event_type")

	events, total, err := h.eventLogic.GetEvents(account.Id, eventType, page, pageSize)
	if err != nil {
		FailWith(c, err)
		return
	}

	pagination := Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	}

	SuccessResponse(c, http.StatusOK, "获取事件列表成功", gin.H{
		"events":     events,
		"pagination": pagination,
	})
}

// GetContributionViews 获取贡献读模型
func (h *AccountHandler) GetContributionViews(c *gin.Context) {
	account, err := h.ledgerLogic.GetAccount(c.Param("owner"))
	if err != nil {
		FailWith(c, err)
		return
	}

	views, err := h.projector.GetViews(account.Id)
	if err != nil {
		FailWith(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "获取贡献读模型成功", views)
}
