package history

import (
	"context"
	"testing"
	"time"

	"github.com/BaSui01/aiplatform/types"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestStore(t *testing.T) *GormStore {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	store, err := NewGormStore(db, zap.NewNop())
	require.NoError(t, err)
	return store
}

func TestCreateAndGetChat(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	chat, err := store.CreateChat(ctx, "user-1", "a red chair", KindChat)
	require.NoError(t, err)
	assert.NotEmpty(t, chat.ID)

	got, err := store.GetChat(ctx, chat.ID)
	require.NoError(t, err)
	assert.Equal(t, "user-1", got.UserID)
	assert.Equal(t, "a red chair", got.Title)
	assert.Equal(t, KindChat, got.Kind)
}

func TestGetChat_NotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetChat(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, types.ErrNotFound, types.GetErrorCode(err))
}

func TestLatestChat_PicksMostRecent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first, err := store.CreateChat(ctx, "user-1", "first", Kind3D)
	require.NoError(t, err)
	second, err := store.CreateChat(ctx, "user-1", "second", Kind3D)
	require.NoError(t, err)

	// 写入消息会刷新 updated_at
	time.Sleep(10 * time.Millisecond)
	_, err = store.AppendMessage(ctx, first.ID, RoleUser, "hello again")
	require.NoError(t, err)

	latest, err := store.LatestChat(ctx, "user-1", Kind3D)
	require.NoError(t, err)
	assert.Equal(t, first.ID, latest.ID)
	assert.NotEqual(t, second.ID, latest.ID)
}

func TestLatestChat_KindIsolation(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.CreateChat(ctx, "user-1", "chat", KindChat)
	require.NoError(t, err)

	_, err = store.LatestChat(ctx, "user-1", Kind3D)
	require.Error(t, err)
	assert.Equal(t, types.ErrNotFound, types.GetErrorCode(err))
}

func TestAppendAndListMessages(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	chat, err := store.CreateChat(ctx, "user-1", "t", KindChat)
	require.NoError(t, err)

	_, err = store.AppendMessage(ctx, chat.ID, RoleUser, "hi")
	require.NoError(t, err)
	_, err = store.AppendMessage(ctx, chat.ID, RoleAssistant, "hello!")
	require.NoError(t, err)

	msgs, err := store.ListMessages(ctx, chat.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, RoleUser, msgs[0].Role)
	assert.Equal(t, "hi", msgs[0].Content)
	assert.Equal(t, RoleAssistant, msgs[1].Role)
}

func TestTaskLifecycle(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	rec := &TaskRecord{
		ID:     "task-1",
		UserID: "user-1",
		Prompt: "a castle",
		Mode:   "preview",
		Status: "PENDING",
	}
	require.NoError(t, store.RecordTask(ctx, rec))

	require.NoError(t, store.UpdateTaskStatus(ctx, "task-1", "SUCCEEDED"))

	got, err := store.GetTask(ctx, "task-1")
	require.NoError(t, err)
	assert.Equal(t, "SUCCEEDED", got.Status)
}

func TestUpdateTaskStatus_NotFound(t *testing.T) {
	store := newTestStore(t)

	err := store.UpdateTaskStatus(context.Background(), "missing", "FAILED")
	require.Error(t, err)
	assert.Equal(t, types.ErrNotFound, types.GetErrorCode(err))
}

func TestSearchTasks_NewestFirstAndScoped(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	older := &TaskRecord{ID: "task-old", UserID: "user-1", Mode: "preview", Status: "SUCCEEDED",
		CreatedAt: time.Now().Add(-time.Hour)}
	newer := &TaskRecord{ID: "task-new", UserID: "user-1", Mode: "refine", Status: "PENDING",
		ParentTaskID: "task-old"}
	other := &TaskRecord{ID: "task-other", UserID: "user-2", Mode: "preview", Status: "PENDING"}
	require.NoError(t, store.RecordTask(ctx, older))
	require.NoError(t, store.RecordTask(ctx, newer))
	require.NoError(t, store.RecordTask(ctx, other))

	recs, err := store.SearchTasks(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "task-new", recs[0].ID)
	assert.Equal(t, "task-old", recs[0].ParentTaskID)
	assert.Equal(t, "task-old", recs[1].ID)
}

func TestSearchTasks_EmptyForUnknownUser(t *testing.T) {
	store := newTestStore(t)

	recs, err := store.SearchTasks(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Empty(t, recs)
}
