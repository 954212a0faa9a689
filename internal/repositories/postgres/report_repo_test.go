package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yoockh/lexispeak/internal/models"
	"github.com/yoockh/lexispeak/internal/utils"
)

func TestReportRepo_UpsertUpdatesExistingRow(t *testing.T) {
	db := newTestDB(t)
	repo := NewReportRepo(db)
	ctx := context.Background()

	userID := uuid.NewString()
	tp := seedTopic(t, db, "Travel")
	s := seedSession(t, db, userID, tp.ID, time.Now().UTC())

	first := &models.Report{ID: uuid.NewString(), SessionID: s.ID, UserID: userID, TopicID: tp.ID, Score: 7, WordsSpoken: 1}
	require.NoError(t, repo.Upsert(ctx, first))

	second := &models.Report{ID: uuid.NewString(), SessionID: s.ID, UserID: userID, TopicID: tp.ID, Score: 9, WordsSpoken: 7}
	require.NoError(t, repo.Upsert(ctx, second))

	var count int64
	require.NoError(t, db.Model(&models.Report{}).Where("session_id = ?", s.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	got, err := repo.GetBySession(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)
	assert.Equal(t, 9.0, got.Score)
	assert.Equal(t, 7, got.WordsSpoken)
}

func TestReportRepo_GetBySessionNotFound(t *testing.T) {
	repo := NewReportRepo(newTestDB(t))
	_, err := repo.GetBySession(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, utils.ErrNotFound)
}

func TestReportRepo_StatsAndHistory(t *testing.T) {
	db := newTestDB(t)
	repo := NewReportRepo(db)
	ctx := context.Background()

	userID := uuid.NewString()
	tp := seedTopic(t, db, "Food")
	now := time.Now().UTC()
	s1 := seedSession(t, db, userID, tp.ID, now.Add(-2*time.Hour))
	s2 := seedSession(t, db, userID, tp.ID, now.Add(-1*time.Hour))
	_ = seedSession(t, db, userID, tp.ID, now) // no report yet
	_ = seedSession(t, db, uuid.NewString(), tp.ID, now)

	require.NoError(t, repo.Upsert(ctx, &models.Report{ID: uuid.NewString(), SessionID: s1.ID, UserID: userID, TopicID: tp.ID, Score: 6}))
	require.NoError(t, repo.Upsert(ctx, &models.Report{ID: uuid.NewString(), SessionID: s2.ID, UserID: userID, TopicID: tp.ID, Score: 9}))

	stats, err := repo.StatsByUser(ctx, userID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, stats.TotalSession)
	assert.InDelta(t, 7.5, stats.AvgScore, 0.0001)
	assert.InDelta(t, 9.0, stats.HighScore, 0.0001)

	hist, err := repo.HistoryByUser(ctx, userID, 10)
	require.NoError(t, err)
	require.Len(t, hist, 3)
	assert.Equal(t, "Food", hist[0].Topic)
	assert.Equal(t, 0.0, hist[0].Score)
	assert.Equal(t, s2.ID, hist[1].ID)
	assert.Equal(t, 9.0, hist[1].Score)

	empty, err := repo.StatsByUser(ctx, uuid.NewString())
	require.NoError(t, err)
	assert.EqualValues(t, 0, empty.TotalSession)
	assert.Equal(t, 0.0, empty.AvgScore)
}
