package models

import "time"

type UserRole string

const (
	RoleUser  UserRole = "user"
	RoleAdmin UserRole = "admin"
)

// User mirrors the identity row owned by the account service. The core only
// reads the id/email and the conversation quota counter.
type User struct {
	ID                string    `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Email             string    `gorm:"column:email;type:text;uniqueIndex" json:"email"`
	Role              UserRole  `gorm:"column:role;type:text" json:"role"`
	UsedConversations int       `gorm:"column:used_conversations;not null;default:0" json:"used_conversations"`
	CreatedAt         time.Time `gorm:"column:created_at" json:"created_at"`
}

func (User) TableName() string { return "users" }
