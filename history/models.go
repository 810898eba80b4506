// Package history persists chats, messages and 3D task records, and bridges
// generation calls into chat history. Persistence failures after a successful
// provider call never undo the generation; they surface as storage errors
// alongside the partial result.
package history

import (
	"time"
)

// Chat kinds. A chat groups the messages of one conversation surface.
const (
	KindChat  = "chat"
	KindImage = "image"
	Kind3D    = "3d"
)

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Chat 会话记录
type Chat struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	UserID    string    `gorm:"index;size:64;not null" json:"userId"`
	Title     string    `gorm:"size:255" json:"title"`
	Kind      string    `gorm:"size:16;not null;default:chat" json:"kind"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Message 会话消息
type Message struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	ChatID    string    `gorm:"index;size:36;not null" json:"chatId"`
	Role      string    `gorm:"size:16;not null" json:"role"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// TaskRecord 3D 生成任务记录。ID 为提供商颁发的任务标识。
type TaskRecord struct {
	ID           string    `gorm:"primaryKey;size:64" json:"taskId"`
	UserID       string    `gorm:"index;size:64;not null" json:"userId"`
	Prompt       string    `gorm:"type:text" json:"prompt"`
	Mode         string    `gorm:"size:16;not null" json:"mode"`
	ArtStyle     string    `gorm:"size:32" json:"artStyle,omitempty"`
	Status       string    `gorm:"size:16;not null" json:"status"`
	ParentTaskID string    `gorm:"index;size:64" json:"parentTaskId,omitempty"`
	ChatID       string    `gorm:"size:36" json:"chatId,omitempty"`
	MessageID    string    `gorm:"size:36" json:"messageId,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
