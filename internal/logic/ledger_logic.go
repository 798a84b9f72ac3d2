package logic

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/blues/sfs/internal/config"
	"github.com/blues/sfs/internal/model"
	"github.com/blues/sfs/internal/payout"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LedgerLogic 贡献账本业务逻辑
//
// 每个变更操作都是一个完整事务。分发按槽位逐笔落库：
// 一笔转账和它的账本写入要么同时生效要么同时取消，
// 账本计数任何时刻都和实际转出的资金一致。
type LedgerLogic struct {
	db     *gorm.DB
	sender payout.Sender
	cfg    *config.Config
	now    func() time.Time
}

// NewLedgerLogic 创建贡献账本业务逻辑
func NewLedgerLogic(db *gorm.DB, sender payout.Sender, cfg *config.Config) *LedgerLogic {
	return &LedgerLogic{
		db:     db,
		sender: sender,
		cfg:    cfg,
		now:    time.Now,
	}
}

// CreateAccount 创建贡献者账户
func (l *LedgerLogic) CreateAccount(owner string, paymentInterval int64) (*model.ContributorAccount, error) {
	if owner == "" {
		return nil, errors.New("账户所有者地址不能为空")
	}
	if paymentInterval < l.cfg.Ledger.MinPaymentInterval || paymentInterval > l.cfg.Ledger.MaxPaymentInterval {
		return nil, ErrInvalidInterval
	}

	// 检查账户是否已存在
	var existing model.ContributorAccount
	err := l.db.Where("owner = ?", owner).First(&existing).Error
	if err == nil {
		return nil, ErrAccountExists
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("获取账户失败: %w", err)
	}

	account := model.ContributorAccount{
		Owner:           owner,
		PaymentInterval: paymentInterval,
	}

	tx := l.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := tx.Create(&account).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("创建账户失败: %w", err)
	}

	if err := recordEvent(tx, model.EventContributorAccountCreated, account.Id, 0, &account); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	return &account, nil
}

// GetAccount 获取账户详情
func (l *LedgerLogic) GetAccount(owner string) (*model.ContributorAccount, error) {
	var account model.ContributorAccount
	if err := l.db.Preload("Contributions", func(db *gorm.DB) *gorm.DB {
		return db.Order("slot_index ASC")
	}).Preload("Upkeep").Where("owner = ?", owner).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("获取账户失败: %w", err)
	}

	return &account, nil
}

// CreateContribution 创建一笔贡献
//
// 调用方必须足额提供 amount 对应的资金。休眠槽位优先复用，
// 没有可复用槽位且已达上限时拒绝。
func (l *LedgerLogic) CreateContribution(owner, caller string, projectId, amount int64,
	endsAt time.Time, paidValue int64) (*model.Contribution, error) {

	now := l.now()

	tx := l.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	account, err := l.loadAccount(tx, owner)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if caller != account.Owner {
		tx.Rollback()
		return nil, ErrNotOwner
	}

	// 目标项目必须存在且活跃
	var project model.Project
	if err := tx.First(&project, projectId).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("获取项目失败: %w", err)
	}
	if !project.IsActive(l.cfg.Ledger.ActivityWindow(), now) {
		tx.Rollback()
		return nil, ErrProjectNotActive
	}

	// 结束时间必须严格晚于当前时间
	if !endsAt.After(now) {
		tx.Rollback()
		return nil, ErrInvalidTimestamp
	}

	// 必须足额转入
	if amount <= 0 || paidValue != amount {
		tx.Rollback()
		return nil, ErrIncorrectAmount
	}

	contribution := &model.Contribution{
		AccountId:         account.Id,
		ProjectId:         projectId,
		AmountStored:      amount,
		AmountDistributed: 0,
		StartedAt:         now,
		EndsAt:            endsAt,
	}

	// 优先复用已分发完毕的休眠槽位
	reused := false
	for i := range account.Contributions {
		if account.Contributions[i].FullyDistributed() {
			contribution.Id = account.Contributions[i].Id
			contribution.SlotIndex = account.Contributions[i].SlotIndex
			contribution.CreatedAt = account.Contributions[i].CreatedAt
			reused = true
			break
		}
	}

	if !reused {
		if len(account.Contributions) >= l.cfg.Ledger.MaxContributions {
			tx.Rollback()
			return nil, ErrTooManyContributions
		}
		contribution.SlotIndex = len(account.Contributions)
	}

	if err := tx.Save(contribution).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("创建贡献失败: %w", err)
	}

	if err := recordEvent(tx, model.EventContributionCreated, account.Id, projectId, contribution); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	return contribution, nil
}

// UpdateContribution 调整一笔贡献的存入金额
//
// 增加时调用方必须足额提供差额；减少时差额原子退还给所有者，
// 且不能减到已分发金额以下。
func (l *LedgerLogic) UpdateContribution(owner, caller string, slotIndex int,
	newAmount, paidValue int64) (*model.Contribution, error) {

	tx := l.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	account, err := l.loadAccount(tx, owner)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if caller != account.Owner {
		tx.Rollback()
		return nil, ErrNotOwner
	}

	contribution, err := findSlot(account, slotIndex)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	if contribution.FullyDistributed() {
		tx.Rollback()
		return nil, ErrContributionAlreadyDistributed
	}

	switch {
	case newAmount > contribution.AmountStored:
		// 增加：必须足额提供差额
		if paidValue != newAmount-contribution.AmountStored {
			tx.Rollback()
			return nil, ErrIncorrectAmount
		}

	case newAmount < contribution.AmountStored:
		// 减少：不能低于已分发金额
		if newAmount < contribution.AmountDistributed {
			tx.Rollback()
			return nil, ErrIncorrectAmount
		}

		refund := contribution.AmountStored - newAmount
		if _, err := l.sender.Transfer(context.Background(), account.Owner, refund); err != nil {
			tx.Rollback()
			return nil, fmt.Errorf("退款转账失败: %w", err)
		}

	default:
		tx.Rollback()
		return nil, ErrIncorrectAmount
	}

	contribution.AmountStored = newAmount
	if err := tx.Model(contribution).Update("amount_stored", newAmount).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("更新贡献失败: %w", err)
	}

	if err := recordEvent(tx, model.EventContributionUpdated, account.Id, contribution.ProjectId, contribution); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	return contribution, nil
}

// CancelContribution 取消一笔贡献并退还未分发余额
func (l *LedgerLogic) CancelContribution(owner, caller string, slotIndex int) (int64, error) {
	tx := l.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	account, err := l.loadAccount(tx, owner)
	if err != nil {
		tx.Rollback()
		return 0, err
	}
	if caller != account.Owner {
		tx.Rollback()
		return 0, ErrNotOwner
	}

	contribution, err := findSlot(account, slotIndex)
	if err != nil {
		tx.Rollback()
		return 0, err
	}

	refund := contribution.AmountLeft()
	if refund <= 0 {
		tx.Rollback()
		return 0, ErrNothingToRefund
	}

	// 冻结后续释放：存入金额落到已分发金额
	contribution.AmountStored = contribution.AmountDistributed
	if err := tx.Model(contribution).Update("amount_stored", contribution.AmountStored).Error; err != nil {
		tx.Rollback()
		return 0, fmt.Errorf("更新贡献失败: %w", err)
	}

	if _, err := l.sender.Transfer(context.Background(), account.Owner, refund); err != nil {
		tx.Rollback()
		return 0, fmt.Errorf("退款转账失败: %w", err)
	}

	if err := recordEvent(tx, model.EventContributionUpdated, account.Id, contribution.ProjectId, contribution); err != nil {
		tx.Rollback()
		return 0, err
	}

	if err := tx.Commit().Error; err != nil {
		return 0, err
	}

	return refund, nil
}

// CancelAllContributions 取消账户下所有贡献，未分发余额一次性退还
func (l *LedgerLogic) CancelAllContributions(owner, caller string) (int64, error) {
	tx := l.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	account, err := l.loadAccount(tx, owner)
	if err != nil {
		tx.Rollback()
		return 0, err
	}
	if caller != account.Owner {
		tx.Rollback()
		return 0, ErrNotOwner
	}

	var refund int64
	for i := range account.Contributions {
		c := &account.Contributions[i]
		left := c.AmountLeft()
		if left <= 0 {
			continue
		}

		refund += left
		c.AmountStored = c.AmountDistributed
		if err := tx.Model(c).Update("amount_stored", c.AmountStored).Error; err != nil {
			tx.Rollback()
			return 0, fmt.Errorf("更新贡献失败: %w", err)
		}
	}

	if refund <= 0 {
		tx.Rollback()
		return 0, ErrNothingToRefund
	}

	if _, err := l.sender.Transfer(context.Background(), account.Owner, refund); err != nil {
		tx.Rollback()
		return 0, fmt.Errorf("退款转账失败: %w", err)
	}

	if err := recordEvent(tx, model.EventAllContributionsCanceled, account.Id, 0, account.Contributions); err != nil {
		tx.Rollback()
		return 0, err
	}

	if err := tx.Commit().Error; err != nil {
		return 0, err
	}

	return refund, nil
}

// TriggerManualPayment 手动触发一次分发周期
func (l *LedgerLogic) TriggerManualPayment(owner, caller string) ([]Payment, error) {
	return l.distribute(owner, caller, l.now(), model.PayoutTriggerManual, nil)
}

// PerformScheduledPayment 执行一次计划分发周期，由自动化执行器调用
//
// beforeCommit 在分发事务提交前执行，调用方借此把执行费用的扣除
// 和分发落在同一个事务里。
func (l *LedgerLogic) PerformScheduledPayment(owner string, now time.Time,
	beforeCommit func(tx *gorm.DB) error) ([]Payment, error) {

	return l.distribute(owner, owner, now, model.PayoutTriggerScheduled, beforeCommit)
}

// CalculateDue 计算账户在参考时间的应付金额，不产生任何副作用
func (l *LedgerLogic) CalculateDue(account *model.ContributorAccount, now time.Time) ([]Payment, error) {
	projects, err := l.loadProjects(l.db, account.Contributions)
	if err != nil {
		return nil, err
	}

	return CalculatePayments(account.Contributions, projects,
		account.PaymentInterval, l.cfg.Ledger.ActivityWindow(), now), nil
}

// distribute 执行一次分发周期
//
// 账户行全程持有行锁，并发触发在周期门槛上串行化：
// 后到的一方会发现没有可发内容，返回 ErrNoContributionToSend 而不是重复付款。
// 每个槽位的账本写入用保存点包住它的转账：转账失败只撤销该槽位，
// 已经转出的槽位照常落库，之后周期视为已消耗。
func (l *LedgerLogic) distribute(owner, caller string, now time.Time, trigger string,
	beforeCommit func(tx *gorm.DB) error) ([]Payment, error) {

	tx := l.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	account, err := l.loadAccount(tx, owner)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if caller != account.Owner {
		tx.Rollback()
		return nil, ErrNotOwner
	}

	// 周期门槛：上个周期尚未走完时没有可发内容
	if account.LastDistributionAt != nil &&
		now.Sub(*account.LastDistributionAt) < time.Duration(account.PaymentInterval)*time.Second {
		tx.Rollback()
		return nil, ErrNoContributionToSend
	}

	projects, err := l.loadProjects(tx, account.Contributions)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	payments := CalculatePayments(account.Contributions, projects,
		account.PaymentInterval, l.cfg.Ledger.ActivityWindow(), now)
	if len(payments) == 0 {
		tx.Rollback()
		return nil, ErrNoContributionToSend
	}

	var done []Payment
	var transferred []model.Contribution
	var transferErr error
	for _, payment := range payments {
		contribution, err := findSlot(account, payment.SlotIndex)
		if err != nil {
			tx.Rollback()
			return nil, err
		}
		project := projects[payment.ProjectId]

		if err := tx.SavePoint("slot").Error; err != nil {
			tx.Rollback()
			return nil, fmt.Errorf("创建保存点失败: %w", err)
		}

		// 先推进单调计数，再做外部可见的转账
		contribution.AmountDistributed += payment.Amount
		if err := tx.Model(contribution).
			Update("amount_distributed", contribution.AmountDistributed).Error; err != nil {
			tx.Rollback()
			return nil, fmt.Errorf("更新已分发金额失败: %w", err)
		}

		project.TotalRaised += payment.Amount
		if err := tx.Model(project).Update("total_raised", project.TotalRaised).Error; err != nil {
			tx.Rollback()
			return nil, fmt.Errorf("更新项目累计金额失败: %w", err)
		}

		txHash, err := l.sender.Transfer(context.Background(), project.Address, payment.Amount)
		if err != nil {
			// 该槽位的资金没有转出：只撤销它的账本写入，已转出的槽位保留
			tx.RollbackTo("slot")
			contribution.AmountDistributed -= payment.Amount
			project.TotalRaised -= payment.Amount
			transferErr = fmt.Errorf("分发转账失败: %w", err)
			break
		}

		record := model.PayoutRecord{
			AccountId: account.Id,
			SlotIndex: payment.SlotIndex,
			ProjectId: payment.ProjectId,
			Amount:    payment.Amount,
			TxHash:    txHash,
			Trigger:   trigger,
		}
		if err := tx.Create(&record).Error; err != nil {
			// 资金已经转出，计数必须落库，缺一条分发记录是更小的损失
			transferErr = fmt.Errorf("创建分发记录失败: %w", err)
			transferred = append(transferred, *contribution)
			break
		}

		done = append(done, payment)
		transferred = append(transferred, *contribution)
	}

	if len(transferred) == 0 {
		tx.Rollback()
		return nil, transferErr
	}

	if err := tx.Model(account).Update("last_distribution_at", now).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("更新分发时间失败: %w", err)
	}

	if err := recordEvent(tx, model.EventContributionsTransferred, account.Id, 0, transferred); err != nil {
		tx.Rollback()
		return nil, err
	}

	if beforeCommit != nil {
		if err := beforeCommit(tx); err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	if transferErr != nil {
		return done, transferErr
	}
	return done, nil
}

// GetPayoutRecords 获取账户的分发记录
func (l *LedgerLogic) GetPayoutRecords(accountId int64, page, pageSize int) ([]model.PayoutRecord, int64, error) {
	var records []model.PayoutRecord
	var total int64

	query := l.db.Model(&model.PayoutRecord{}).Where("account_id = ?", accountId)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("获取分发记录总数失败: %w", err)
	}

	offset := (page - 1) * pageSize
	if err := query.Offset(offset).Limit(pageSize).Order("id DESC").Find(&records).Error; err != nil {
		return nil, 0, fmt.Errorf("获取分发记录失败: %w", err)
	}

	return records, total, nil
}

// lockForUpdate 对将要更新的行加行锁
//
// sqlite 没有 FOR UPDATE 语法，它的写入本身就是串行的。
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

// loadAccount 在事务内加载账户及其全部贡献槽位，账户行加锁，
// 同一账户的并发变更在这里串行化
func (l *LedgerLogic) loadAccount(tx *gorm.DB, owner string) (*model.ContributorAccount, error) {
	var account model.ContributorAccount
	if err := lockForUpdate(tx).Preload("Contributions", func(db *gorm.DB) *gorm.DB {
		return db.Order("slot_index ASC")
	}).Where("owner = ?", owner).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("获取账户失败: %w", err)
	}

	return &account, nil
}

// loadProjects 加载贡献目标项目，按项目ID索引
func (l *LedgerLogic) loadProjects(tx *gorm.DB, contributions []model.Contribution) (map[int64]*model.Project, error) {
	ids := make([]int64, 0, len(contributions))
	seen := make(map[int64]bool)
	for _, c := range contributions {
		if !seen[c.ProjectId] {
			seen[c.ProjectId] = true
			ids = append(ids, c.ProjectId)
		}
	}

	projects := make(map[int64]*model.Project, len(ids))
	if len(ids) == 0 {
		return projects, nil
	}

	var rows []model.Project
	if err := tx.Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("获取项目失败: %w", err)
	}
	for i := range rows {
		projects[rows[i].Id] = &rows[i]
	}

	return projects, nil
}

// findSlot 按槽位下标定位贡献
func findSlot(account *model.ContributorAccount, slotIndex int) (*model.Contribution, error) {
	for i := range account.Contributions {
		if account.Contributions[i].SlotIndex == slotIndex {
			return &account.Contributions[i], nil
		}
	}
	return nil, ErrContributionNotFound
}
