package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/yoockh/lexispeak/internal/cache"
	"github.com/yoockh/lexispeak/internal/models"
	pgrepo "github.com/yoockh/lexispeak/internal/repositories/postgres"
	"github.com/yoockh/lexispeak/internal/utils"
)

type TopicService interface {
	Resolve(ctx context.Context, topicID string) (*models.Topic, error)
	List(ctx context.Context, categoryID string) ([]models.Topic, error)
	Create(ctx context.Context, in TopicInput, createdBy string) (*models.Topic, error)
}

type TopicInput struct {
	Name        string   `json:"name" binding:"required"`
	Description string   `json:"description"`
	CategoryID  string   `json:"category_id"`
	Keywords    []string `json:"keywords"`
}

type topicService struct {
	topics pgrepo.TopicRepository
	cache  cache.Cache
	ttl    time.Duration
}

// NewTopicService accepts a nil cache.
func NewTopicService(topics pgrepo.TopicRepository, c cache.Cache, ttl time.Duration) TopicService {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &topicService{topics: topics, cache: c, ttl: ttl}
}

// Resolve fails with CodeInvalidTopic when the topic does not exist.
func (s *topicService) Resolve(ctx context.Context, topicID string) (*models.Topic, error) {
	const op = "TopicService.Resolve"

	if topicID == "" {
		return nil, utils.E(utils.CodeInvalidTopic, op, "topic_id is required", nil)
	}

	t, err := cache.Remember(ctx, s.cache, cache.TopicKey(topicID), s.ttl, func(ctx context.Context) (models.Topic, error) {
		t, err := s.topics.GetByID(ctx, topicID)
		if err != nil {
			return models.Topic{}, err
		}
		return *t, nil
	})
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeInvalidTopic, op, "invalid topic selected", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to resolve topic", err)
	}
	return &t, nil
}

func (s *topicService) List(ctx context.Context, categoryID string) ([]models.Topic, error) {
	const op = "TopicService.List"

	rows, err := s.topics.List(ctx, categoryID)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list topics", err)
	}
	return rows, nil
}

func (s *topicService) Create(ctx context.Context, in TopicInput, createdBy string) (*models.Topic, error) {
	const op = "TopicService.Create"

	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "name is required", nil)
	}
	if in.CategoryID != "" {
		if _, err := uuid.Parse(in.CategoryID); err != nil {
			return nil, utils.E(utils.CodeInvalidArgument, op, "category_id must be a uuid", err)
		}
	}

	exists, err := s.topics.ExistsByName(ctx, in.Name)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to check topic name", err)
	}
	if exists {
		return nil, utils.E(utils.CodeConflict, op, "topic already exists", nil)
	}

	t := &models.Topic{
		ID:          uuid.NewString(),
		Name:        in.Name,
		Description: strings.TrimSpace(in.Description),
		CategoryID:  in.CategoryID,
		Keywords:    in.Keywords,
		CreatedBy:   createdBy,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.topics.Create(ctx, t); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to create topic", err)
	}
	return t, nil
}
