package postgres

import (
	"context"
	"errors"

	"github.com/yoockh/lexispeak/internal/models"
	"github.com/yoockh/lexispeak/internal/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ReportRepository interface {
	Upsert(ctx context.Context, rep *models.Report) error
	GetBySession(ctx context.Context, sessionID string) (*models.Report, error)
	StatsByUser(ctx context.Context, userID string) (*models.UserStats, error)
	HistoryByUser(ctx context.Context, userID string, limit int) ([]models.HistoryItem, error)
}

type reportRepo struct {
	db *gorm.DB
}

func NewReportRepo(db *gorm.DB) ReportRepository {
	return &reportRepo{db: db}
}

// Upsert inserts the report or, when one already exists for the session,
// overwrites score and word count in the same statement.
func (r *reportRepo) Upsert(ctx context.Context, rep *models.Report) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "session_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"score", "words_spoken", "updated_by", "updated_at"}),
		}).
		Create(rep).Error
}

func (r *reportRepo) GetBySession(ctx context.Context, sessionID string) (*models.Report, error) {
	var rep models.Report
	err := r.db.WithContext(ctx).Where("session_id = ?", sessionID).Take(&rep).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	return &rep, err
}

func (r *reportRepo) StatsByUser(ctx context.Context, userID string) (*models.UserStats, error) {
	var out models.UserStats
	err := r.db.WithContext(ctx).
		Model(&models.ConversationSession{}).
		Where("user_id = ?", userID).
		Count(&out.TotalSession).Error
	if err != nil {
		return nil, err
	}

	var agg struct {
		AvgScore  float64
		HighScore float64
	}
	err = r.db.WithContext(ctx).
		Model(&models.Report{}).
		Select("COALESCE(AVG(reports.score), 0) AS avg_score, COALESCE(MAX(reports.score), 0) AS high_score").
		Joins("JOIN conversation_sessions ON conversation_sessions.id = reports.session_id").
		Where("conversation_sessions.user_id = ?", userID).
		Scan(&agg).Error
	if err != nil {
		return nil, err
	}
	out.AvgScore = agg.AvgScore
	out.HighScore = agg.HighScore
	return &out, nil
}

func (r *reportRepo) HistoryByUser(ctx context.Context, userID string, limit int) ([]models.HistoryItem, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []models.HistoryItem
	err := r.db.WithContext(ctx).
		Model(&models.ConversationSession{}).
		Select("conversation_sessions.id AS id, COALESCE(topics.name, '') AS topic, conversation_sessions.total_time AS mins, COALESCE(reports.score, 0) AS score").
		Joins("LEFT JOIN topics ON topics.id = conversation_sessions.topic_id").
		Joins("LEFT JOIN reports ON reports.session_id = conversation_sessions.id").
		Where("conversation_sessions.user_id = ?", userID).
		Order("conversation_sessions.created_at DESC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}
