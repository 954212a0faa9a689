package models

import (
	"database/sql/driver"
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

type Category struct {
	ID          string `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Name        string `gorm:"column:name;type:text;uniqueIndex" json:"name"`
	Description string `gorm:"column:description;type:text" json:"description,omitempty"`
}

func (Category) TableName() string { return "categories" }

type Topic struct {
	ID          string `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Name        string `gorm:"column:name;type:text;uniqueIndex" json:"name"`
	Description string `gorm:"column:description;type:text" json:"description"`
	CategoryID  string `gorm:"column:category_id;type:uuid;index" json:"category_id"`

	Keywords StringList `gorm:"column:keywords" json:"keywords"`

	CreatedBy string    `gorm:"column:created_by;type:text" json:"created_by,omitempty"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
}

func (Topic) TableName() string { return "topics" }

// StringList is stored as a Postgres text[] and as array literal text on
// other dialects.
type StringList []string

func (l StringList) Value() (driver.Value, error) { return pq.StringArray(l).Value() }

func (l *StringList) Scan(src any) error { return (*pq.StringArray)(l).Scan(src) }

func (StringList) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	if db.Dialector.Name() == "postgres" {
		return "text[]"
	}
	return "text"
}
