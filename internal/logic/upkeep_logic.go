package logic

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/blues/sfs/internal/config"
	"github.com/blues/sfs/internal/model"
	"github.com/blues/sfs/internal/payout"
	"gorm.io/gorm"
)

// UpkeepLogic 自动化注册状态机
//
// Unregistered → Registered ⇄ Paused → Canceled → 冷却期结束后可提取。
// 除了暂停/恢复，所有迁移都是单向的。
type UpkeepLogic struct {
	db     *gorm.DB
	ledger *LedgerLogic
	sender payout.Sender
	cfg    *config.Config
	now    func() time.Time
}

// NewUpkeepLogic 创建自动化注册业务逻辑
func NewUpkeepLogic(db *gorm.DB, ledger *LedgerLogic, sender payout.Sender, cfg *config.Config) *UpkeepLogic {
	return &UpkeepLogic{
		db:     db,
		ledger: ledger,
		sender: sender,
		cfg:    cfg,
		now:    time.Now,
	}
}

// RegisterNewUpkeep 注册自动化执行并注入初始资金
func (u *UpkeepLogic) RegisterNewUpkeep(owner, caller string, funding int64) (*model.UpkeepRegistration, error) {
	account, err := u.ledger.loadAccount(u.db, owner)
	if err != nil {
		return nil, err
	}
	if caller != account.Owner {
		return nil, ErrNotOwner
	}

	if funding < u.cfg.Upkeep.MinFunding {
		return nil, ErrInsufficientFunding
	}

	// 一个账户只能绑定一个注册
	var existing model.UpkeepRegistration
	if err := u.db.Where("account_id = ?", account.Id).First(&existing).Error; err == nil {
		return nil, ErrAlreadyRegistered
	}

	registration := model.UpkeepRegistration{
		AccountId: account.Id,
		UpkeepId:  newUpkeepId(),
		Admin:     account.Owner,
		Balance:   funding,
	}

	if err := u.db.Create(&registration).Error; err != nil {
		return nil, fmt.Errorf("创建自动化注册失败: %w", err)
	}

	return &registration, nil
}

// PauseUpkeep 暂停自动化执行
func (u *UpkeepLogic) PauseUpkeep(owner, caller string) error {
	return u.setPaused(owner, caller, true)
}

// UnpauseUpkeep 恢复自动化执行
func (u *UpkeepLogic) UnpauseUpkeep(owner, caller string) error {
	return u.setPaused(owner, caller, false)
}

// setPaused 切换暂停状态，已取消的注册不能再切换
func (u *UpkeepLogic) setPaused(owner, caller string, paused bool) error {
	registration, err := u.loadRegistration(owner, caller)
	if err != nil {
		return err
	}

	if registration.Canceled {
		return ErrUpkeepCanceled
	}

	if err := u.db.Model(registration).Update("paused", paused).Error; err != nil {
		return fmt.Errorf("更新暂停状态失败: %w", err)
	}

	return nil
}

// CancelUpkeep 取消自动化注册，资金进入冷却期
func (u *UpkeepLogic) CancelUpkeep(owner, caller string) error {
	registration, err := u.loadRegistration(owner, caller)
	if err != nil {
		return err
	}

	if registration.Canceled {
		return ErrUpkeepCanceled
	}

	now := u.now()
	updates := map[string]interface{}{
		"canceled":    true,
		"canceled_at": &now,
	}
	if err := u.db.Model(registration).Updates(updates).Error; err != nil {
		return fmt.Errorf("取消自动化注册失败: %w", err)
	}

	return nil
}

// WithdrawUpkeepFunds 提取剩余资金，只有取消且冷却期结束后才允许，且只能提取一次
func (u *UpkeepLogic) WithdrawUpkeepFunds(owner, caller string) (int64, error) {
	registration, err := u.loadRegistration(owner, caller)
	if err != nil {
		return 0, err
	}

	if !registration.Canceled {
		return 0, ErrUpkeepNotCanceled
	}

	now := u.now()
	cooldown := time.Duration(u.cfg.Upkeep.CancelCooldown) * time.Second
	if !registration.Withdrawable(cooldown, now) {
		return 0, ErrCooldownActive
	}

	amount := registration.Balance
	if amount <= 0 {
		return 0, ErrNothingToWithdraw
	}

	if err := u.db.Model(registration).Update("balance", 0).Error; err != nil {
		return 0, fmt.Errorf("更新注册余额失败: %w", err)
	}

	if _, err := u.sender.Transfer(context.Background(), registration.Admin, amount); err != nil {
		// 转账失败时恢复余额，保持可重试
		u.db.Model(registration).Update("balance", amount)
		return 0, fmt.Errorf("提取转账失败: %w", err)
	}

	return amount, nil
}

// GetRegistration 获取账户的自动化注册
func (u *UpkeepLogic) GetRegistration(owner string) (*model.UpkeepRegistration, error) {
	return u.loadRegistration(owner, owner)
}

// CheckWork 外部轮询入口：是否有待执行的分发工作
//
// 允许被提前、延迟或重复调用，任何情况下都只读不写。
func (u *UpkeepLogic) CheckWork(owner string, now time.Time) (bool, error) {
	account, err := u.ledger.GetAccount(owner)
	if err != nil {
		return false, err
	}

	registration := account.Upkeep
	if registration == nil || registration.Paused || registration.Canceled {
		return false, nil
	}

	// 余额付不起下一次执行费用时停止触发
	if registration.Balance < u.cfg.Upkeep.PerformFee {
		return false, nil
	}

	interval := time.Duration(account.PaymentInterval) * time.Second
	if registration.LastPerformedAt != nil && now.Sub(*registration.LastPerformedAt) < interval {
		return false, nil
	}
	if account.LastDistributionAt != nil && now.Sub(*account.LastDistributionAt) < interval {
		return false, nil
	}

	due, err := u.ledger.CalculateDue(account, now)
	if err != nil {
		return false, err
	}

	return len(due) > 0, nil
}

// PerformWork 外部执行入口：重新校验后执行一次计划分发并扣除执行费用
//
// 与手动触发并发时，后到的一方会发现没有可发内容并干净地失败，不会重复付款。
// 费用扣除和分发落在同一个事务里：执行了就一定计费，没执行就一定不计费。
func (u *UpkeepLogic) PerformWork(owner string, now time.Time) ([]Payment, error) {
	// 防御性复核，轮询方可能基于过期状态触发
	ok, err := u.CheckWork(owner, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNoContributionToSend
	}

	registration, err := u.loadRegistration(owner, owner)
	if err != nil {
		return nil, err
	}

	fee := u.cfg.Upkeep.PerformFee
	return u.ledger.PerformScheduledPayment(owner, now, func(tx *gorm.DB) error {
		var fresh model.UpkeepRegistration
		if err := lockForUpdate(tx).First(&fresh, registration.Id).Error; err != nil {
			return fmt.Errorf("获取自动化注册失败: %w", err)
		}

		updates := map[string]interface{}{
			"balance":           fresh.Balance - fee,
			"amount_spent":      fresh.AmountSpent + fee,
			"last_performed_at": &now,
		}
		if err := tx.Model(&fresh).Updates(updates).Error; err != nil {
			return fmt.Errorf("更新注册执行状态失败: %w", err)
		}
		return nil
	})
}

// loadRegistration 加载账户绑定的注册并校验调用者
func (u *UpkeepLogic) loadRegistration(owner, caller string) (*model.UpkeepRegistration, error) {
	account, err := u.ledger.loadAccount(u.db, owner)
	if err != nil {
		return nil, err
	}
	if caller != account.Owner {
		return nil, ErrNotOwner
	}

	var registration model.UpkeepRegistration
	if err := u.db.Where("account_id = ?", account.Id).First(&registration).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotRegistered
		}
		return nil, fmt.Errorf("获取自动化注册失败: %w", err)
	}

	return &registration, nil
}

// newUpkeepId 生成注册标识
func newUpkeepId() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(buf)
}
