package workers

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yoockh/lexispeak/internal/models"
	pgrepo "github.com/yoockh/lexispeak/internal/repositories/postgres"
	"github.com/yoockh/lexispeak/internal/services"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type env struct {
	db        *gorm.DB
	finalizer *Finalizer
	convs     services.ConversationService
	reports   services.ReportService
	sessions  services.SessionService
}

func newEnv(t *testing.T) *env {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&models.Topic{}, &models.ConversationSession{}, &models.Turn{}, &models.Report{}))

	sessRepo := pgrepo.NewSessionRepo(db)
	turnRepo := pgrepo.NewTurnRepo(db)
	sessions := services.NewSessionService(sessRepo)
	convs := services.NewConversationService(turnRepo, sessions)
	reports := services.NewReportService(pgrepo.NewReportRepo(db), nil, time.Minute)
	topics := services.NewTopicService(pgrepo.NewTopicRepo(db), nil, time.Minute)

	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)

	return &env{
		db:       db,
		convs:    convs,
		reports:  reports,
		sessions: sessions,
		finalizer: &Finalizer{
			Sessions: sessRepo,
			Turns:    turnRepo,
			Gateway:  services.NewGateway(topics, sessions, convs, reports),
			Logger:   l,
			MaxAge:   time.Hour,
			Now:      func() time.Time { return time.Now().UTC().Add(2 * time.Hour) },
		},
	}
}

func TestFinalizer_SweepScoresStaleSession(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	user := models.User{ID: uuid.NewString(), Email: "ana@example.com"}

	sess, err := e.sessions.Create(ctx, user, uuid.NewString())
	require.NoError(t, err)

	hi := 0.9
	_, err = e.convs.Append(ctx, sess.ID, models.TurnRoleUser, "Hi", user.Email, &models.TurnMetadata{Confidence: &hi})
	require.NoError(t, err)
	_, err = e.convs.Append(ctx, sess.ID, models.TurnRoleAgent, "Hello! Where did you travel last?", user.Email, nil)
	require.NoError(t, err)
	_, err = e.convs.Append(ctx, sess.ID, models.TurnRoleUser, "Is this interesting to you today?", user.Email, nil)
	require.NoError(t, err)

	n, err := e.finalizer.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	rep, err := e.reports.GetBySession(ctx, sess.ID)
	require.NoError(t, err)
	// second turn has no stored confidence so it scores 1 there: 7 and 9
	assert.Equal(t, 8.0, rep.Score)
	assert.Equal(t, 8, rep.WordsSpoken)

	// a reported session is not picked up again
	n, err = e.finalizer.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestFinalizer_FinalizeTwiceKeepsOneReport(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	user := models.User{ID: uuid.NewString(), Email: "ana@example.com"}

	sess, err := e.sessions.Create(ctx, user, uuid.NewString())
	require.NoError(t, err)

	require.NoError(t, e.finalizer.Finalize(ctx, sess))
	_, err = e.convs.Append(ctx, sess.ID, models.TurnRoleUser, "Hi", user.Email, nil)
	require.NoError(t, err)
	require.NoError(t, e.finalizer.Finalize(ctx, sess))

	var n int64
	require.NoError(t, e.db.Model(&models.Report{}).Where("session_id = ?", sess.ID).Count(&n).Error)
	assert.EqualValues(t, 1, n)

	rep, err := e.reports.GetBySession(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, rep.WordsSpoken)
}

func TestTurnConfidence(t *testing.T) {
	assert.Equal(t, 0.0, turnConfidence(models.Turn{}))
	assert.Equal(t, 0.0, turnConfidence(models.Turn{Metadata: []byte(`{"latency_ms":3}`)}))
	assert.Equal(t, 0.75, turnConfidence(models.Turn{Metadata: []byte(`{"confidence":0.75}`)}))
}
