package models

import (
	"time"

	"gorm.io/datatypes"
)

type Plan struct {
	ID   string `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Name string `gorm:"column:name;type:text;uniqueIndex" json:"name"`

	// nil means unlimited
	AllowedConversations *int `gorm:"column:allowed_conversations" json:"allowed_conversations,omitempty"`

	Features datatypes.JSON `gorm:"column:features;type:jsonb" json:"features,omitempty"`
}

func (Plan) TableName() string { return "plans" }

type Subscription struct {
	ID               string     `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	UserID           string     `gorm:"column:user_id;type:uuid;index" json:"user_id"`
	PlanID           string     `gorm:"column:plan_id;type:uuid" json:"plan_id"`
	Status           string     `gorm:"column:status;type:text" json:"status"` // active|canceled|past_due
	CurrentPeriodEnd *time.Time `gorm:"column:current_period_end" json:"current_period_end,omitempty"`
	CreatedAt        time.Time  `gorm:"column:created_at" json:"created_at"`
}

func (Subscription) TableName() string { return "subscriptions" }
