package postgres

import (
	"context"
	"errors"

	"github.com/yoockh/lexispeak/internal/models"
	"github.com/yoockh/lexispeak/internal/utils"
	"gorm.io/gorm"
)

type TopicRepository interface {
	GetByID(ctx context.Context, id string) (*models.Topic, error)
	List(ctx context.Context, categoryID string) ([]models.Topic, error)
	Create(ctx context.Context, t *models.Topic) error
	ExistsByName(ctx context.Context, name string) (bool, error)
}

type topicRepo struct {
	db *gorm.DB
}

func NewTopicRepo(db *gorm.DB) TopicRepository {
	return &topicRepo{db: db}
}

func (r *topicRepo) GetByID(ctx context.Context, id string) (*models.Topic, error) {
	var t models.Topic
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	return &t, err
}

func (r *topicRepo) List(ctx context.Context, categoryID string) ([]models.Topic, error) {
	q := r.db.WithContext(ctx).Order("name ASC")
	if categoryID != "" {
		q = q.Where("category_id = ?", categoryID)
	}
	var rows []models.Topic
	err := q.Find(&rows).Error
	return rows, err
}

func (r *topicRepo) Create(ctx context.Context, t *models.Topic) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *topicRepo) ExistsByName(ctx context.Context, name string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Topic{}).Where("LOWER(name) = LOWER(?)", name).Count(&n).Error
	return n > 0, err
}
