package logic

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/blues/sfs/internal/config"
	"github.com/blues/sfs/internal/database"
	"github.com/blues/sfs/internal/model"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

// newTestDB 每个测试一个独立的内存数据库
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	return db
}

func testConfig() *config.Config {
	return &config.Config{
		Ledger: config.LedgerConfig{
			MaxContributions:   10,
			MinPaymentInterval: 3600,
			MaxPaymentInterval: 2592000,
			ActivityWindowDays: 30,
		},
		Upkeep: config.UpkeepConfig{
			MinFunding:     1000,
			PerformFee:     10,
			CancelCooldown: 3600,
		},
	}
}

// testClock 可拨动的测试时钟
type testClock struct {
	t time.Time
}

func (c *testClock) Now() time.Time {
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.t = c.t.Add(d)
}

// fakeTransfer 一次被记录的转账
type fakeTransfer struct {
	To     string
	Amount int64
}

// fakeSender 测试用转账实现，可以指定从第几次调用开始失败
type fakeSender struct {
	mu        sync.Mutex
	Transfers []fakeTransfer
	FailFrom  int // 从第N次调用开始失败，0表示不失败
	calls     int
}

func (f *fakeSender) Transfer(_ context.Context, to string, amount int64) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++
	if f.FailFrom > 0 && f.calls >= f.FailFrom {
		return "", errors.New("transfer rejected")
	}

	f.Transfers = append(f.Transfers, fakeTransfer{To: to, Amount: amount})
	return fmt.Sprintf("0x%08x", f.calls), nil
}

// Last 最近一次成功的转账
func (f *fakeSender) Last() fakeTransfer {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Transfers[len(f.Transfers)-1]
}

var baseTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// seedProject 创建一个活跃项目
func seedProject(t *testing.T, db *gorm.DB, address string, lastActivity time.Time) *model.Project {
	t.Helper()

	project := &model.Project{
		Title:            "测试项目",
		Address:          address,
		SubmitterAddress: "0xsubmitter",
		LastActivityAt:   lastActivity,
		Collaborators: []model.Collaborator{
			{Address: "0xalice", Name: "alice", SharePercent: 60},
			{Address: "0xbob", Name: "bob", SharePercent: 40},
		},
	}
	require.NoError(t, db.Create(project).Error)

	return project
}

// newTestLedger 组装账本逻辑和它的依赖
func newTestLedger(t *testing.T) (*LedgerLogic, *fakeSender, *testClock, *gorm.DB) {
	t.Helper()

	db := newTestDB(t)
	sender := &fakeSender{}
	clock := &testClock{t: baseTime}

	ledger := NewLedgerLogic(db, sender, testConfig())
	ledger.now = clock.Now

	return ledger, sender, clock, db
}
