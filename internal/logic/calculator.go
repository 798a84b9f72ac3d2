package logic

import (
	"time"

	"github.com/blues/sfs/internal/model"
)

// Payment 本周期单个槽位应释放的金额
type Payment struct {
	SlotIndex int   `json:"slot_index"`
	ProjectId int64 `json:"project_id"`
	Amount    int64 `json:"amount"`
}

// PaymentDue 计算单笔贡献在参考时间 t 应释放的金额，纯函数
//
// 结束时间已过则清算全部余额；否则按剩余周期数平滑释放。
// 除数里的 +2 是刻意保留的平滑项，不要改成 +1，
// 取整残差会滚入下个周期，最终在结束时间一次性扫尾。
func PaymentDue(c *model.Contribution, paymentInterval int64, t time.Time) int64 {
	left := c.AmountLeft()
	if left <= 0 {
		return 0
	}

	if !c.EndsAt.After(t) {
		return left
	}

	remaining := int64(c.EndsAt.Sub(t) / time.Second)
	cycles := remaining / paymentInterval
	return left / (cycles + 2)
}

// CalculatePayments 计算一个账户本周期所有应付金额
//
// 跳过目标项目不活跃的贡献和已分发完毕的槽位，金额为0的不返回。
func CalculatePayments(contributions []model.Contribution, projects map[int64]*model.Project,
	paymentInterval int64, activityWindow time.Duration, t time.Time) []Payment {

	var payments []Payment
	for i := range contributions {
		c := &contributions[i]

		project, ok := projects[c.ProjectId]
		if !ok || !project.IsActive(activityWindow, t) {
			continue
		}

		amount := PaymentDue(c, paymentInterval, t)
		if amount <= 0 {
			continue
		}

		payments = append(payments, Payment{
			SlotIndex: c.SlotIndex,
			ProjectId: c.ProjectId,
			Amount:    amount,
		})
	}

	return payments
}
