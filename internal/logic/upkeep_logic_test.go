package logic

import (
	"testing"
	"time"

	"github.com/blues/sfs/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestUpkeep 组装自动化逻辑，并准备好账户、项目和一笔贡献
func newTestUpkeep(t *testing.T) (*UpkeepLogic, *LedgerLogic, *fakeSender, *testClock, *model.Project) {
	t.Helper()

	ledger, sender, clock, db := newTestLedger(t)
	project := seedProject(t, db, "0xproject", clock.Now())

	_, err := ledger.CreateAccount(owner, 3600)
	require.NoError(t, err)
	_, err = ledger.CreateContribution(owner, owner, project.Id, 100, clock.Now().Add(4*time.Hour), 100)
	require.NoError(t, err)

	upkeep := NewUpkeepLogic(db, ledger, sender, ledger.cfg)
	upkeep.now = clock.Now

	return upkeep, ledger, sender, clock, project
}

func TestRegisterNewUpkeep(t *testing.T) {
	upkeep, _, _, _, _ := newTestUpkeep(t)

	// 资金低于最低要求
	_, err := upkeep.RegisterNewUpkeep(owner, owner, 500)
	assert.ErrorIs(t, err, ErrInsufficientFunding)

	registration, err := upkeep.RegisterNewUpkeep(owner, owner, 2000)
	require.NoError(t, err)
	assert.Equal(t, owner, registration.Admin)
	assert.Equal(t, int64(2000), registration.Balance)
	assert.Equal(t, int64(0), registration.AmountSpent)
	assert.NotEmpty(t, registration.UpkeepId)

	// 一个账户只能绑定一个注册
	_, err = upkeep.RegisterNewUpkeep(owner, owner, 2000)
	assert.ErrorIs(t, err, ErrAlreadyRegistered)
}

func TestPauseUnpauseToggle(t *testing.T) {
	upkeep, _, _, _, _ := newTestUpkeep(t)

	// 未注册时不能暂停
	assert.ErrorIs(t, upkeep.PauseUpkeep(owner, owner), ErrNotRegistered)

	_, err := upkeep.RegisterNewUpkeep(owner, owner, 2000)
	require.NoError(t, err)

	require.NoError(t, upkeep.PauseUpkeep(owner, owner))
	require.NoError(t, upkeep.UnpauseUpkeep(owner, owner))
	require.NoError(t, upkeep.PauseUpkeep(owner, owner))

	// 取消后暂停/恢复都被拒绝
	require.NoError(t, upkeep.CancelUpkeep(owner, owner))
	assert.ErrorIs(t, upkeep.UnpauseUpkeep(owner, owner), ErrUpkeepCanceled)
	assert.ErrorIs(t, upkeep.CancelUpkeep(owner, owner), ErrUpkeepCanceled)
}

func TestWithdrawAfterCooldown(t *testing.T) {
	upkeep, _, sender, clock, _ := newTestUpkeep(t)

	_, err := upkeep.RegisterNewUpkeep(owner, owner, 2000)
	require.NoError(t, err)

	// 未取消不能提取
	_, err = upkeep.WithdrawUpkeepFunds(owner, owner)
	assert.ErrorIs(t, err, ErrUpkeepNotCanceled)

	require.NoError(t, upkeep.CancelUpkeep(owner, owner))

	// 冷却期内提取失败
	_, err = upkeep.WithdrawUpkeepFunds(owner, owner)
	assert.ErrorIs(t, err, ErrCooldownActive)

	// 冷却期结束后恰好提取一次
	clock.Advance(2 * time.Hour)
	amount, err := upkeep.WithdrawUpkeepFunds(owner, owner)
	require.NoError(t, err)
	assert.Equal(t, int64(2000), amount)
	assert.Equal(t, fakeTransfer{To: owner, Amount: 2000}, sender.Last())

	_, err = upkeep.WithdrawUpkeepFunds(owner, owner)
	assert.ErrorIs(t, err, ErrNothingToWithdraw)
}

func TestCheckWorkAndPerformWork(t *testing.T) {
	upkeep, _, _, clock, _ := newTestUpkeep(t)

	_, err := upkeep.RegisterNewUpkeep(owner, owner, 2000)
	require.NoError(t, err)

	// 刚创建贡献就轮询：周期未到，视作提前调用，安全地返回无工作
	ok, err := upkeep.CheckWork(owner, clock.Now())
	require.NoError(t, err)
	assert.True(t, ok) // 尚未有过分发，周期门槛不拦截首轮

	clock.Advance(time.Hour)
	payments, err := upkeep.PerformWork(owner, clock.Now())
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, int64(20), payments[0].Amount)

	// 执行费用被扣除并计入消耗
	registration, err := upkeep.GetRegistration(owner)
	require.NoError(t, err)
	assert.Equal(t, int64(1990), registration.Balance)
	assert.Equal(t, int64(10), registration.AmountSpent)
	require.NotNil(t, registration.LastPerformedAt)

	// 周期内再轮询没有工作
	ok, err = upkeep.CheckWork(owner, clock.Now())
	require.NoError(t, err)
	assert.False(t, ok)

	// 重复执行干净地失败，不会重复付款
	_, err = upkeep.PerformWork(owner, clock.Now())
	assert.ErrorIs(t, err, ErrNoContributionToSend)
}

func TestPerformWorkFeeAtomicWithPayment(t *testing.T) {
	upkeep, _, sender, clock, _ := newTestUpkeep(t)

	_, err := upkeep.RegisterNewUpkeep(owner, owner, 2000)
	require.NoError(t, err)

	// 转账失败时整个周期回滚，费用不能被扣掉
	clock.Advance(time.Hour)
	sender.FailFrom = 1
	_, err = upkeep.PerformWork(owner, clock.Now())
	require.Error(t, err)

	registration, err := upkeep.GetRegistration(owner)
	require.NoError(t, err)
	assert.Equal(t, int64(2000), registration.Balance)
	assert.Equal(t, int64(0), registration.AmountSpent)
	assert.Nil(t, registration.LastPerformedAt)

	// 通道恢复后同一周期照常执行并计费
	sender.FailFrom = 0
	_, err = upkeep.PerformWork(owner, clock.Now())
	require.NoError(t, err)

	registration, err = upkeep.GetRegistration(owner)
	require.NoError(t, err)
	assert.Equal(t, int64(1990), registration.Balance)
	assert.Equal(t, int64(10), registration.AmountSpent)
}

func TestCheckWorkRespectsStateMachine(t *testing.T) {
	upkeep, _, _, clock, _ := newTestUpkeep(t)

	// 未注册
	ok, err := upkeep.CheckWork(owner, clock.Now())
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = upkeep.RegisterNewUpkeep(owner, owner, 2000)
	require.NoError(t, err)
	clock.Advance(time.Hour)

	// 暂停中
	require.NoError(t, upkeep.PauseUpkeep(owner, owner))
	ok, err = upkeep.CheckWork(owner, clock.Now())
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, upkeep.UnpauseUpkeep(owner, owner))
	ok, err = upkeep.CheckWork(owner, clock.Now())
	require.NoError(t, err)
	assert.True(t, ok)

	// 已取消
	require.NoError(t, upkeep.CancelUpkeep(owner, owner))
	ok, err = upkeep.CheckWork(owner, clock.Now())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCheckWorkStopsWhenBalanceTooLow(t *testing.T) {
	upkeep, _, _, clock, _ := newTestUpkeep(t)

	_, err := upkeep.RegisterNewUpkeep(owner, owner, 1000)
	require.NoError(t, err)

	// 把余额耗到付不起下一次执行费用
	require.NoError(t, upkeep.db.Model(&model.UpkeepRegistration{}).
		Where("admin = ?", owner).Update("balance", 5).Error)

	clock.Advance(time.Hour)
	ok, err := upkeep.CheckWork(owner, clock.Now())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestManualTriggerRaceWithScheduler(t *testing.T) {
	upkeep, ledger, _, clock, _ := newTestUpkeep(t)

	_, err := upkeep.RegisterNewUpkeep(owner, owner, 2000)
	require.NoError(t, err)

	clock.Advance(time.Hour)
	now := clock.Now()

	// 手动触发先到
	_, err = ledger.TriggerManualPayment(owner, owner)
	require.NoError(t, err)

	// 调度器随后用同一参考时间执行：发现没有可发内容，干净地失败
	_, err = upkeep.PerformWork(owner, now)
	assert.ErrorIs(t, err, ErrNoContributionToSend)

	account, err := ledger.GetAccount(owner)
	require.NoError(t, err)
	assert.Equal(t, int64(20), account.Contributions[0].AmountDistributed)
}
