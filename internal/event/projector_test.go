package event

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/blues/sfs/internal/config"
	"github.com/blues/sfs/internal/database"
	"github.com/blues/sfs/internal/logic"
	"github.com/blues/sfs/internal/model"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

type noopSender struct{}

func (noopSender) Transfer(_ context.Context, _ string, _ int64) (string, error) {
	return "0xdeadbeef", nil
}

// newTestProjector 组装投影器和产生事件用的账本逻辑
func newTestProjector(t *testing.T) (*Projector, *logic.LedgerLogic, *gorm.DB, int64) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	cfg := &config.Config{
		Ledger: config.LedgerConfig{
			MaxContributions:   10,
			MinPaymentInterval: 3600,
			MaxPaymentInterval: 2592000,
			ActivityWindowDays: 30,
		},
	}

	project := &model.Project{
		Title:            "测试项目",
		Address:          "0xproject",
		SubmitterAddress: "0xsubmitter",
		LastActivityAt:   time.Now(),
		Collaborators: []model.Collaborator{
			{Address: "0xalice", SharePercent: 100},
		},
	}
	require.NoError(t, db.Create(project).Error)

	ledger := logic.NewLedgerLogic(db, noopSender{}, cfg)
	projector := NewProjector(db, logic.NewEventLogic(db))

	return projector, ledger, db, project.Id
}

func TestProcessPendingFoldsEvents(t *testing.T) {
	projector, ledger, _, projectId := newTestProjector(t)

	account, err := ledger.CreateAccount("0xowner", 3600)
	require.NoError(t, err)

	_, err = ledger.CreateContribution("0xowner", "0xowner", projectId, 100, time.Now().Add(4*time.Hour), 100)
	require.NoError(t, err)
	_, err = ledger.UpdateContribution("0xowner", "0xowner", 0, 150, 50)
	require.NoError(t, err)

	// 账户创建 + 贡献创建 + 贡献更新
	processed, err := projector.ProcessPending(10)
	require.NoError(t, err)
	assert.Equal(t, 3, processed)

	views, err := projector.GetViews(account.Id)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, 0, views[0].SlotIndex)
	assert.Equal(t, projectId, views[0].ProjectId)
	assert.Equal(t, int64(150), views[0].AmountStored)
	assert.Equal(t, int64(0), views[0].AmountDistributed)

	// 没有新事件时是空转
	processed, err = projector.ProcessPending(10)
	require.NoError(t, err)
	assert.Equal(t, 0, processed)
}

func TestProcessPendingReplayIsIdempotent(t *testing.T) {
	projector, ledger, db, projectId := newTestProjector(t)

	account, err := ledger.CreateAccount("0xowner", 3600)
	require.NoError(t, err)
	_, err = ledger.CreateContribution("0xowner", "0xowner", projectId, 100, time.Now().Add(4*time.Hour), 100)
	require.NoError(t, err)

	processed, err := projector.ProcessPending(10)
	require.NoError(t, err)
	assert.Equal(t, 2, processed)

	// 模拟消费位点丢失后的整体回放
	require.NoError(t, db.Model(&model.LedgerEvent{}).
		Where("processed = ?", true).Update("processed", false).Error)

	processed, err = projector.ProcessPending(10)
	require.NoError(t, err)
	assert.Equal(t, 2, processed)

	// 回放不会产生重复行或改变数值
	views, err := projector.GetViews(account.Id)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, int64(100), views[0].AmountStored)
	assert.Equal(t, int64(0), views[0].AmountDistributed)
}

func TestTransferredEventUpdatesAllSlots(t *testing.T) {
	projector, _, db, projectId := newTestProjector(t)

	// 直接写入一条携带多笔贡献的分发事件
	event := model.LedgerEvent{
		AccountId: 7,
		EventType: model.EventContributionsTransferred,
		Data: fmt.Sprintf(`[{"slot_index":0,"project_id":%d,"amount_stored":100,"amount_distributed":20},`+
			`{"slot_index":1,"project_id":%d,"amount_stored":60,"amount_distributed":15}]`, projectId, projectId),
	}
	require.NoError(t, db.Create(&event).Error)

	processed, err := projector.ProcessPending(10)
	require.NoError(t, err)
	assert.Equal(t, 1, processed)

	views, err := projector.GetViews(7)
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, int64(20), views[0].AmountDistributed)
	assert.Equal(t, int64(15), views[1].AmountDistributed)
}
