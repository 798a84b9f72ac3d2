package logic

import (
	"errors"
)

// 账本和自动化注册的命名错误，全部同步返回给调用方

// 权限类
var (
	ErrNotOwner        = errors.New("不是账户所有者")
	ErrNotCollaborator = errors.New("不是项目协作者")
)

// 状态类
var (
	ErrProjectNotActive               = errors.New("项目已不活跃")
	ErrProjectExpired                 = errors.New("项目已过期，无法恢复")
	ErrContributionAlreadyDistributed = errors.New("贡献已全部分发完毕")
	ErrAlreadyRegistered              = errors.New("已存在自动化注册")
	ErrNotRegistered                  = errors.New("尚未注册自动化")
	ErrUpkeepCanceled                 = errors.New("自动化注册已取消")
	ErrUpkeepNotCanceled              = errors.New("自动化注册未取消")
	ErrCooldownActive                 = errors.New("取消冷却期未结束")
)

// 数值类
var (
	ErrIncorrectAmount      = errors.New("提供的金额不正确")
	ErrInvalidTimestamp     = errors.New("结束时间必须晚于当前时间")
	ErrInvalidInterval      = errors.New("支付周期超出允许范围")
	ErrTooManyContributions = errors.New("贡献槽位已达上限")
	ErrNoContributionToSend = errors.New("没有可分发的贡献")
	ErrInsufficientFunding  = errors.New("注册资金低于最低要求")
	ErrNothingToWithdraw    = errors.New("没有可提取的资金")
	ErrNothingToRefund      = errors.New("没有可退还的余额")
	ErrAccountExists        = errors.New("账户已存在")
	ErrAccountNotFound      = errors.New("账户不存在")
	ErrProjectNotFound      = errors.New("项目不存在")
	ErrContributionNotFound = errors.New("贡献槽位不存在")
)
