package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/yoockh/lexispeak/internal/models"
	"github.com/yoockh/lexispeak/internal/utils"
	"gorm.io/gorm"
)

type SessionRepository interface {
	Create(ctx context.Context, s *models.ConversationSession) error
	GetByID(ctx context.Context, id string) (*models.ConversationSession, error)
	SetTotalTime(ctx context.Context, id string, minutes float64, updatedBy string) error
	ListUnreported(ctx context.Context, createdBefore time.Time, limit int) ([]models.ConversationSession, error)
}

type sessionRepo struct {
	db *gorm.DB
}

func NewSessionRepo(db *gorm.DB) SessionRepository {
	return &sessionRepo{db: db}
}

func (r *sessionRepo) Create(ctx context.Context, s *models.ConversationSession) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *sessionRepo) GetByID(ctx context.Context, id string) (*models.ConversationSession, error) {
	var s models.ConversationSession
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	return &s, err
}

func (r *sessionRepo) SetTotalTime(ctx context.Context, id string, minutes float64, updatedBy string) error {
	res := r.db.WithContext(ctx).
		Model(&models.ConversationSession{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"total_time": minutes,
			"updated_by": updatedBy,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return utils.ErrNotFound
	}
	return nil
}

// ListUnreported returns sessions created before the cutoff that never got a
// report row, oldest first.
func (r *sessionRepo) ListUnreported(ctx context.Context, createdBefore time.Time, limit int) ([]models.ConversationSession, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []models.ConversationSession
	err := r.db.WithContext(ctx).
		Model(&models.ConversationSession{}).
		Select("conversation_sessions.*").
		Joins("LEFT JOIN reports ON reports.session_id = conversation_sessions.id").
		Where("reports.id IS NULL AND conversation_sessions.created_at < ?", createdBefore).
		Order("conversation_sessions.created_at ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}
