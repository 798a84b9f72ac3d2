package logic

import (
	"testing"
	"time"

	"github.com/blues/sfs/internal/model"
	"github.com/stretchr/testify/assert"
)

const testInterval = int64(3600)

func newContribution(stored, distributed int64, endsAt time.Time) *model.Contribution {
	return &model.Contribution{
		AmountStored:      stored,
		AmountDistributed: distributed,
		StartedAt:         baseTime,
		EndsAt:            endsAt,
	}
}

func TestPaymentDueSmoothing(t *testing.T) {
	// 100个单位分4个周期，走完1个周期后剩3个周期：100 / (3+2) = 20
	c := newContribution(100, 0, baseTime.Add(4*time.Hour))
	amount := PaymentDue(c, testInterval, baseTime.Add(1*time.Hour))
	assert.Equal(t, int64(20), amount)

	// 应用后下个周期剩2个周期：80 / (2+2) = 20
	c.AmountDistributed = 20
	amount = PaymentDue(c, testInterval, baseTime.Add(2*time.Hour))
	assert.Equal(t, int64(20), amount)
}

func TestPaymentDueTruncation(t *testing.T) {
	// 向下取整，残差滚入后续周期
	c := newContribution(99, 0, baseTime.Add(4*time.Hour))
	amount := PaymentDue(c, testInterval, baseTime.Add(1*time.Hour))
	assert.Equal(t, int64(19), amount)
}

func TestPaymentDueAfterEnd(t *testing.T) {
	// 结束时间已过：清算全部余额，不再做周期计算
	c := newContribution(100, 37, baseTime.Add(4*time.Hour))
	amount := PaymentDue(c, testInterval, baseTime.Add(5*time.Hour))
	assert.Equal(t, int64(63), amount)
}

func TestPaymentDueAtExactEnd(t *testing.T) {
	// 恰好在结束时间：一次性释放全部余额
	c := newContribution(100, 0, baseTime.Add(4*time.Hour))
	amount := PaymentDue(c, testInterval, baseTime.Add(4*time.Hour))
	assert.Equal(t, int64(100), amount)
}

func TestPaymentDueFullyDistributed(t *testing.T) {
	c := newContribution(100, 100, baseTime.Add(4*time.Hour))
	amount := PaymentDue(c, testInterval, baseTime.Add(1*time.Hour))
	assert.Equal(t, int64(0), amount)
}

func TestCalculatePaymentsSkipsInactiveProjects(t *testing.T) {
	window := 30 * 24 * time.Hour
	now := baseTime.Add(1 * time.Hour)

	active := &model.Project{Id: 1, LastActivityAt: baseTime}
	stale := &model.Project{Id: 2, LastActivityAt: baseTime.Add(-31 * 24 * time.Hour)}
	projects := map[int64]*model.Project{1: active, 2: stale}

	contributions := []model.Contribution{
		{SlotIndex: 0, ProjectId: 1, AmountStored: 100, StartedAt: baseTime, EndsAt: baseTime.Add(4 * time.Hour)},
		{SlotIndex: 1, ProjectId: 2, AmountStored: 100, StartedAt: baseTime, EndsAt: baseTime.Add(4 * time.Hour)},
	}

	payments := CalculatePayments(contributions, projects, testInterval, window, now)
	assert.Len(t, payments, 1)
	assert.Equal(t, 0, payments[0].SlotIndex)
	assert.Equal(t, int64(20), payments[0].Amount)
}

func TestCalculatePaymentsSkipsDormantSlots(t *testing.T) {
	window := 30 * 24 * time.Hour
	now := baseTime.Add(1 * time.Hour)

	projects := map[int64]*model.Project{1: {Id: 1, LastActivityAt: baseTime}}
	contributions := []model.Contribution{
		{SlotIndex: 0, ProjectId: 1, AmountStored: 100, AmountDistributed: 100, StartedAt: baseTime, EndsAt: baseTime.Add(4 * time.Hour)},
	}

	payments := CalculatePayments(contributions, projects, testInterval, window, now)
	assert.Empty(t, payments)
}
