package postgres

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/yoockh/lexispeak/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// one connection, otherwise every pooled conn gets its own :memory: db
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Plan{},
		&models.Subscription{},
		&models.Category{},
		&models.Topic{},
		&models.ConversationSession{},
		&models.Turn{},
		&models.Report{},
	))
	return db
}

func seedTopic(t *testing.T, db *gorm.DB, name string) *models.Topic {
	t.Helper()
	tp := &models.Topic{
		ID:          uuid.NewString(),
		Name:        name,
		Description: name + " talk",
		Keywords:    []string{"daily", "casual"},
		CreatedAt:   time.Now().UTC(),
	}
	require.NoError(t, db.Create(tp).Error)
	return tp
}

func seedSession(t *testing.T, db *gorm.DB, userID, topicID string, createdAt time.Time) *models.ConversationSession {
	t.Helper()
	s := &models.ConversationSession{
		ID:        uuid.NewString(),
		UserID:    userID,
		TopicID:   topicID,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
	require.NoError(t, db.Create(s).Error)
	return s
}
