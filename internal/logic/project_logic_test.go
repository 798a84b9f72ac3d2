package logic

import (
	"testing"
	"time"

	"github.com/blues/sfs/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestProjectLogic(t *testing.T) (*ProjectLogic, *testClock, *gorm.DB) {
	t.Helper()

	db := newTestDB(t)
	clock := &testClock{t: baseTime}
	logic := NewProjectLogic(db, testConfig())
	logic.now = clock.Now

	return logic, clock, db
}

func TestSubmitProjectValidatesShares(t *testing.T) {
	logic, _, db := newTestProjectLogic(t)

	project := &model.Project{
		Title:            "测试项目",
		Address:          "0xproject",
		SubmitterAddress: "0xsubmitter",
		Collaborators: []model.Collaborator{
			{Address: "0xalice", SharePercent: 50},
			{Address: "0xbob", SharePercent: 40},
		},
	}

	// 分成合计只有90
	err := logic.SubmitProject(project)
	assert.Error(t, err)

	project.Collaborators[1].SharePercent = 50
	require.NoError(t, logic.SubmitProject(project))
	assert.False(t, project.LastActivityAt.IsZero())

	var events []model.LedgerEvent
	require.NoError(t, db.Where("event_type = ?", model.EventProjectSubmitted).Find(&events).Error)
	assert.Len(t, events, 1)
}

func TestSubmitProjectRequiresCollaborators(t *testing.T) {
	logic, _, _ := newTestProjectLogic(t)

	err := logic.SubmitProject(&model.Project{
		Title:            "测试项目",
		Address:          "0xproject",
		SubmitterAddress: "0xsubmitter",
	})
	assert.Error(t, err)
}

func TestPingResetsActivityWindow(t *testing.T) {
	logic, clock, db := newTestProjectLogic(t)
	project := seedProject(t, db, "0xproject", baseTime)

	// 第29天打卡成功，重置不活跃时钟
	clock.Advance(29 * 24 * time.Hour)
	require.NoError(t, logic.Ping(project.Id, "0xalice"))

	var fresh model.Project
	require.NoError(t, db.First(&fresh, project.Id).Error)
	assert.Equal(t, clock.Now().Unix(), fresh.LastActivityAt.Unix())

	// 打卡之后又能撑满一个窗口
	clock.Advance(29 * 24 * time.Hour)
	require.NoError(t, logic.Ping(project.Id, "0xbob"))
}

func TestPingExpiredProjectFails(t *testing.T) {
	logic, clock, db := newTestProjectLogic(t)
	project := seedProject(t, db, "0xproject", baseTime)

	// 超过30天的项目不能通过打卡复活，单向策略
	clock.Advance(31 * 24 * time.Hour)
	err := logic.Ping(project.Id, "0xalice")
	assert.ErrorIs(t, err, ErrProjectExpired)

	// 之后怎么打都没用
	clock.Advance(24 * time.Hour)
	err = logic.Ping(project.Id, "0xalice")
	assert.ErrorIs(t, err, ErrProjectExpired)
}

func TestPingRejectsNonCollaborator(t *testing.T) {
	logic, _, db := newTestProjectLogic(t)
	project := seedProject(t, db, "0xproject", baseTime)

	err := logic.Ping(project.Id, "0xmallory")
	assert.ErrorIs(t, err, ErrNotCollaborator)
}
