package postgres

import (
	"context"

	"github.com/yoockh/lexispeak/internal/models"
	"gorm.io/gorm"
)

type TurnRepository interface {
	Insert(ctx context.Context, t *models.Turn) error
	ListBySession(ctx context.Context, sessionID string, limit int) ([]models.Turn, error)
}

type turnRepo struct {
	db *gorm.DB
}

func NewTurnRepo(db *gorm.DB) TurnRepository {
	return &turnRepo{db: db}
}

func (r *turnRepo) Insert(ctx context.Context, t *models.Turn) error {
	return r.db.WithContext(ctx).Create(t).Error
}

// ListBySession returns turns in conversational (creation) order.
func (r *turnRepo) ListBySession(ctx context.Context, sessionID string, limit int) ([]models.Turn, error) {
	if limit <= 0 {
		limit = 200
	}

	var rows []models.Turn
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}
