package functions

import "time"

// Invocation records one call of a named function.
type Invocation struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Name       string    `gorm:"index;not null" json:"name"`
	UserID     uint      `gorm:"index" json:"user_id"`
	RequestID  string    `json:"request_id"`
	DurationMS int64     `json:"duration_ms"`
	Success    bool      `json:"success"`
	Error      string    `json:"error,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

func (Invocation) TableName() string { return "function_invocations" }
