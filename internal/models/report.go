package models

import "time"

type Report struct {
	ID          string  `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Score       float64 `gorm:"column:score;not null;default:0" json:"score"`
	Feedback    *string `gorm:"column:feedback;type:text" json:"feedback,omitempty"`
	WordsSpoken int     `gorm:"column:words_spoken;not null;default:0" json:"words_spoken"`

	UserID    string `gorm:"column:user_id;type:uuid;index" json:"user_id"`
	TopicID   string `gorm:"column:topic_id;type:uuid" json:"topic_id"`
	SessionID string `gorm:"column:session_id;type:uuid;uniqueIndex" json:"session_id"`

	CreatedBy string    `gorm:"column:created_by;type:text" json:"created_by"`
	UpdatedBy string    `gorm:"column:updated_by;type:text" json:"updated_by"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (Report) TableName() string { return "reports" }

// UserStats is the per-user aggregate over finalized sessions.
type UserStats struct {
	TotalSession int64   `json:"total_session"`
	AvgScore     float64 `json:"avg_score"`
	HighScore    float64 `json:"high_score"`
}

// HistoryItem is one row of a user's session history.
type HistoryItem struct {
	ID    string  `json:"id"`
	Topic string  `json:"topic"`
	Mins  float64 `json:"mins"`
	Score float64 `json:"score"`
}
