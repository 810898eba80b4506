package orchestrator

import "time"

// Task statuses mirror the provider's lifecycle states.
const (
	StatusPending    = "PENDING"
	StatusInProgress = "IN_PROGRESS"
	StatusSucceeded  = "SUCCEEDED"
	StatusFailed     = "FAILED"
)

// GenerationTask is the orchestrator's view of one asynchronous 3D task as
// returned to callers at submission time.
type GenerationTask struct {
	TaskID       string    `json:"taskId"`
	Provider     string    `json:"provider"`
	Mode         string    `json:"mode"`
	ArtStyle     string    `json:"artStyle,omitempty"`
	Prompt       string    `json:"prompt"`
	Status       string    `json:"status"`
	ParentTaskID string    `json:"parentTaskId,omitempty"`
	ChatID       string    `json:"chatId,omitempty"`
	MessageID    string    `json:"messageId,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// ChatResult is the outcome of a chat submission. Available reports whether
// the reply came from the real provider; false means the local fallback
// answered.
type ChatResult struct {
	Reply     string `json:"reply"`
	Model     string `json:"model"`
	Available bool   `json:"aiAvailable"`
	ChatID    string `json:"chatId,omitempty"`
	MessageID string `json:"messageId,omitempty"`
}

// ImageOutcome is the outcome of an image submission.
type ImageOutcome struct {
	URL       string    `json:"url"`
	Size      string    `json:"size"`
	Style     string    `json:"style"`
	ChatID    string    `json:"chatId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
