package services

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/yoockh/lexispeak/internal/models"
	pgrepo "github.com/yoockh/lexispeak/internal/repositories/postgres"
	"github.com/yoockh/lexispeak/internal/utils"
)

type SessionService interface {
	Create(ctx context.Context, user models.User, topicID string) (*models.ConversationSession, error)
	Get(ctx context.Context, sessionID string) (*models.ConversationSession, error)
	StampElapsed(ctx context.Context, sessionID string, minutes float64, updatedBy string) error
}

type sessionService struct {
	sessions pgrepo.SessionRepository
}

func NewSessionService(sessions pgrepo.SessionRepository) SessionService {
	return &sessionService{sessions: sessions}
}

func (s *sessionService) Create(ctx context.Context, user models.User, topicID string) (*models.ConversationSession, error) {
	const op = "SessionService.Create"

	if user.ID == "" || topicID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "user_id and topic_id are required", nil)
	}

	now := time.Now().UTC()
	session := &models.ConversationSession{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		TopicID:   topicID,
		TotalTime: 0,
		CreatedBy: user.Email,
		UpdatedBy: user.Email,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to create session", err)
	}
	return session, nil
}

func (s *sessionService) Get(ctx context.Context, sessionID string) (*models.ConversationSession, error) {
	const op = "SessionService.Get"

	if sessionID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "session_id is required", nil)
	}

	out, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "session not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to get session", err)
	}
	return out, nil
}

func (s *sessionService) StampElapsed(ctx context.Context, sessionID string, minutes float64, updatedBy string) error {
	const op = "SessionService.StampElapsed"

	if sessionID == "" {
		return utils.E(utils.CodeInvalidArgument, op, "session_id is required", nil)
	}
	if minutes < 0 || math.IsNaN(minutes) {
		minutes = 0
	}
	if err := s.sessions.SetTotalTime(ctx, sessionID, minutes, updatedBy); err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return utils.E(utils.CodeNotFound, op, "session not found", err)
		}
		return utils.E(utils.CodeInternal, op, "failed to stamp elapsed time", err)
	}
	return nil
}
