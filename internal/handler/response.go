package handler

import (
	"errors"
	"net/http"

	"github.com/blues/sfs/internal/logic"
	"github.com/gin-gonic/gin"
)

// SuccessResponse 成功响应
func SuccessResponse(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// ErrorResponse 错误响应
func ErrorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, Response{
		Success: false,
		Message: message,
		Data:    nil,
	})
}

// FailWith 按错误类型映射HTTP状态码
func FailWith(c *gin.Context, err error) {
	ErrorResponse(c, statusForError(err), err.Error())
}

// statusForError 业务错误到HTTP状态码的映射
func statusForError(err error) int {
	switch {
	case errors.Is(err, logic.ErrNotOwner), errors.Is(err, logic.ErrNotCollaborator):
		return http.StatusForbidden
	case errors.Is(err, logic.ErrAccountNotFound),
		errors.Is(err, logic.ErrProjectNotFound),
		errors.Is(err, logic.ErrContributionNotFound),
		errors.Is(err, logic.ErrNotRegistered):
		return http.StatusNotFound
	case errors.Is(err, logic.ErrProjectNotActive),
		errors.Is(err, logic.ErrProjectExpired),
		errors.Is(err, logic.ErrContributionAlreadyDistributed),
		errors.Is(err, logic.ErrAlreadyRegistered),
		errors.Is(err, logic.ErrUpkeepCanceled),
		errors.Is(err, logic.ErrUpkeepNotCanceled),
		errors.Is(err, logic.ErrCooldownActive):
		return http.StatusConflict
	case errors.Is(err, logic.ErrIncorrectAmount),
		errors.Is(err, logic.ErrInvalidTimestamp),
		errors.Is(err, logic.ErrInvalidInterval),
		errors.Is(err, logic.ErrTooManyContributions),
		errors.Is(err, logic.ErrNoContributionToSend),
		errors.Is(err, logic.ErrInsufficientFunding),
		errors.Is(err, logic.ErrNothingToWithdraw),
		errors.Is(err, logic.ErrNothingToRefund),
		errors.Is(err, logic.ErrAccountExists):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
