package history

import (
	"context"
	"errors"
	"time"

	"github.com/BaSui01/aiplatform/config"
	"github.com/BaSui01/aiplatform/types"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Store is the durable persistence surface for chats, messages and 3D task
// records.
type Store interface {
	CreateChat(ctx context.Context, userID, title, kind string) (*Chat, error)
	LatestChat(ctx context.Context, userID, kind string) (*Chat, error)
	GetChat(ctx context.Context, chatID string) (*Chat, error)
	AppendMessage(ctx context.Context, chatID, role, content string) (*Message, error)
	ListMessages(ctx context.Context, chatID string) ([]Message, error)

	RecordTask(ctx context.Context, rec *TaskRecord) error
	UpdateTaskStatus(ctx context.Context, taskID, status string) error
	GetTask(ctx context.Context, taskID string) (*TaskRecord, error)
	SearchTasks(ctx context.Context, userID string) ([]TaskRecord, error)
}

// GormStore implements Store on GORM, supporting PostgreSQL and SQLite.
type GormStore struct {
	db     *gorm.DB
	logger *zap.Logger
}

// Open connects per cfg and auto-migrates the history schema.
func Open(cfg config.DatabaseConfig, logger *zap.Logger) (*GormStore, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	default:
		return nil, types.NewError(types.ErrConfiguration, "unsupported database driver: "+cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, types.NewError(types.ErrStorage, "failed to open database").WithCause(err)
	}
	return NewGormStore(db, logger)
}

// NewGormStore wraps an existing GORM handle and migrates the schema.
func NewGormStore(db *gorm.DB, logger *zap.Logger) (*GormStore, error) {
	if err := db.AutoMigrate(&Chat{}, &Message{}, &TaskRecord{}); err != nil {
		return nil, types.NewError(types.ErrStorage, "failed to migrate history schema").WithCause(err)
	}
	return &GormStore{
		db:     db,
		logger: logger.With(zap.String("component", "history_store")),
	}, nil
}

// DB exposes the underlying GORM handle for connection management and
// readiness pings.
func (s *GormStore) DB() *gorm.DB { return s.db }

func (s *GormStore) CreateChat(ctx context.Context, userID, title, kind string) (*Chat, error) {
	chat := &Chat{
		ID:     uuid.NewString(),
		UserID: userID,
		Title:  title,
		Kind:   kind,
	}
	if err := s.db.WithContext(ctx).Create(chat).Error; err != nil {
		return nil, storageErr("failed to create chat", err)
	}
	s.logger.Debug("chat created", zap.String("chat_id", chat.ID), zap.String("kind", kind))
	return chat, nil
}

// LatestChat returns the most recently updated chat of kind for userID.
func (s *GormStore) LatestChat(ctx context.Context, userID, kind string) (*Chat, error) {
	var chat Chat
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND kind = ?", userID, kind).
		Order("updated_at DESC").
		First(&chat).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.NewError(types.ErrNotFound, "no chat for user").WithCause(err)
		}
		return nil, storageErr("failed to query latest chat", err)
	}
	return &chat, nil
}

func (s *GormStore) GetChat(ctx context.Context, chatID string) (*Chat, error) {
	var chat Chat
	err := s.db.WithContext(ctx).First(&chat, "id = ?", chatID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.NewError(types.ErrNotFound, "chat not found: "+chatID).WithCause(err)
		}
		return nil, storageErr("failed to query chat", err)
	}
	return &chat, nil
}

// AppendMessage stores one message and bumps the chat's update time.
func (s *GormStore) AppendMessage(ctx context.Context, chatID, role, content string) (*Message, error) {
	msg := &Message{
		ID:      uuid.NewString(),
		ChatID:  chatID,
		Role:    role,
		Content: content,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(msg).Error; err != nil {
			return err
		}
		return tx.Model(&Chat{}).Where("id = ?", chatID).
			Update("updated_at", time.Now()).Error
	})
	if err != nil {
		return nil, storageErr("failed to append message", err)
	}
	return msg, nil
}

func (s *GormStore) ListMessages(ctx context.Context, chatID string) ([]Message, error) {
	var msgs []Message
	err := s.db.WithContext(ctx).
		Where("chat_id = ?", chatID).
		Order("created_at ASC").
		Find(&msgs).Error
	if err != nil {
		return nil, storageErr("failed to list messages", err)
	}
	return msgs, nil
}

func (s *GormStore) RecordTask(ctx context.Context, rec *TaskRecord) error {
	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		return storageErr("failed to record task", err)
	}
	return nil
}

func (s *GormStore) UpdateTaskStatus(ctx context.Context, taskID, status string) error {
	res := s.db.WithContext(ctx).Model(&TaskRecord{}).
		Where("id = ?", taskID).
		Update("status", status)
	if res.Error != nil {
		return storageErr("failed to update task status", res.Error)
	}
	if res.RowsAffected == 0 {
		return types.NewError(types.ErrNotFound, "task not found: "+taskID)
	}
	return nil
}

func (s *GormStore) GetTask(ctx context.Context, taskID string) (*TaskRecord, error) {
	var rec TaskRecord
	err := s.db.WithContext(ctx).First(&rec, "id = ?", taskID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.NewError(types.ErrNotFound, "task not found: "+taskID).WithCause(err)
		}
		return nil, storageErr("failed to query task", err)
	}
	return &rec, nil
}

// SearchTasks returns all task records of userID, newest first.
func (s *GormStore) SearchTasks(ctx context.Context, userID string) ([]TaskRecord, error) {
	var recs []TaskRecord
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&recs).Error
	if err != nil {
		return nil, storageErr("failed to search tasks", err)
	}
	return recs, nil
}

func storageErr(msg string, cause error) *types.Error {
	return types.NewError(types.ErrStorage, msg).WithCause(cause)
}
