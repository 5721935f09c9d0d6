package models

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Task is one HIL (human-in-the-loop) queue entry awaiting a manager.
type Task struct {
	TaskID      string       `json:"task_id"`
	TenantID    string       `json:"tenant_id"`
	EventID     string       `json:"event_id"`
	ThreadID    string       `json:"thread_id"`
	Category    TaskCategory `json:"category"`
	Status      TaskStatus   `json:"status"`
	DraftBody   string       `json:"draft_body"`
	DraftBodyMD string       `json:"draft_body_markdown,omitempty"`
	Signature   string       `json:"signature"`
	EditedBody  string       `json:"edited_body,omitempty"`
	Notes       string       `json:"notes,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	ResolvedAt  *time.Time   `json:"resolved_at,omitempty"`
	// ConflictWith references the other event for conflict tasks.
	ConflictWith string `json:"conflict_with,omitempty"`
}

// EffectiveReply is the text the client receives after approval: the edited
// body when the manager supplied one, else the original client-facing body.
func (t *Task) EffectiveReply() string {
	if t.EditedBody != "" {
		return t.EditedBody
	}
	return t.DraftBody
}

// TaskSignature is the dedup key for HIL tasks:
// hash(thread_id, category, body_digest).
func TaskSignature(threadID string, category TaskCategory, body string) string {
	digest := sha256.Sum256([]byte(body))
	sum := sha256.Sum256([]byte(threadID + "|" + string(category) + "|" + hex.EncodeToString(digest[:])))
	return hex.EncodeToString(sum[:])
}
