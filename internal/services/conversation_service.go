package services

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/yoockh/lexispeak/internal/models"
	pgrepo "github.com/yoockh/lexispeak/internal/repositories/postgres"
	"github.com/yoockh/lexispeak/internal/utils"
	"gorm.io/datatypes"
)

type ConversationService interface {
	Append(ctx context.Context, sessionID string, role models.TurnRole, content, createdBy string, md *models.TurnMetadata) (*models.Turn, error)
	ListBySession(ctx context.Context, userID, sessionID string, limit int) ([]models.Turn, error)
}

type conversationService struct {
	turns    pgrepo.TurnRepository
	sessions SessionService
}

func NewConversationService(turns pgrepo.TurnRepository, sessions SessionService) ConversationService {
	return &conversationService{turns: turns, sessions: sessions}
}

func (s *conversationService) Append(ctx context.Context, sessionID string, role models.TurnRole, content, createdBy string, md *models.TurnMetadata) (*models.Turn, error) {
	const op = "ConversationService.Append"

	content = strings.TrimSpace(content)
	if sessionID == "" || content == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "session_id and content are required", nil)
	}
	if role != models.TurnRoleUser && role != models.TurnRoleAgent {
		return nil, utils.E(utils.CodeInvalidArgument, op, "role must be user or agent", nil)
	}

	row := &models.Turn{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Role:      role,
		Content:   content,
		CreatedBy: createdBy,
		CreatedAt: time.Now().UTC(),
	}
	if md != nil {
		b, err := json.Marshal(md)
		if err != nil {
			return nil, utils.E(utils.CodeInvalidArgument, op, "invalid turn metadata", err)
		}
		row.Metadata = datatypes.JSON(b)
	}

	if err := s.turns.Insert(ctx, row); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to insert turn", err)
	}
	return row, nil
}

func (s *conversationService) ListBySession(ctx context.Context, userID, sessionID string, limit int) ([]models.Turn, error) {
	const op = "ConversationService.ListBySession"

	if userID == "" || sessionID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "user_id and session_id are required", nil)
	}

	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.UserID != userID {
		return nil, utils.E(utils.CodeForbidden, op, "forbidden", nil)
	}

	rows, err := s.turns.ListBySession(ctx, sessionID, limit)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list turns", err)
	}
	return rows, nil
}
