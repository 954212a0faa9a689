package models

import (
	"time"

	"gorm.io/datatypes"
)

type TurnRole string

const (
	TurnRoleUser  TurnRole = "user"
	TurnRoleAgent TurnRole = "agent"
)

// ConversationSession is one duration-bounded dialogue. TotalTime holds the
// elapsed wall-clock minutes and is stamped once, when the session finalizes.
type ConversationSession struct {
	ID        string  `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	UserID    string  `gorm:"column:user_id;type:uuid;index" json:"user_id"`
	TopicID   string  `gorm:"column:topic_id;type:uuid;index" json:"topic_id"`
	TotalTime float64 `gorm:"column:total_time;not null;default:0" json:"total_time"`

	CreatedBy string    `gorm:"column:created_by;type:text" json:"created_by"`
	UpdatedBy string    `gorm:"column:updated_by;type:text" json:"updated_by"`
	CreatedAt time.Time `gorm:"column:created_at;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (ConversationSession) TableName() string { return "conversation_sessions" }

// Turn is a single persisted utterance. Rows are append-only.
type Turn struct {
	ID        string         `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	SessionID string         `gorm:"column:session_id;type:uuid;index" json:"session_id"`
	Role      TurnRole       `gorm:"column:role;type:text;not null" json:"role"`
	Content   string         `gorm:"column:content;type:text;not null" json:"content"`
	Metadata  datatypes.JSON `gorm:"column:metadata;type:jsonb" json:"metadata,omitempty"`
	CreatedBy string         `gorm:"column:created_by;type:text" json:"created_by"`
	CreatedAt time.Time      `gorm:"column:created_at;index" json:"created_at"`
}

func (Turn) TableName() string { return "conversations" }

// TurnMetadata is the JSON payload stored on Turn.Metadata.
type TurnMetadata struct {
	Confidence *float64 `json:"confidence,omitempty"`
	LatencyMS  int64    `json:"latency_ms,omitempty"`
}
