package services

import (
	"context"

	"github.com/yoockh/lexispeak/internal/models"
)

// Gateway is everything a live conversation needs from storage.
type Gateway interface {
	ResolveTopic(ctx context.Context, topicID string) (*models.Topic, error)
	CreateSession(ctx context.Context, user models.User, topicID string) (*models.ConversationSession, error)
	AppendTurn(ctx context.Context, sessionID string, role models.TurnRole, content, createdBy string, md *models.TurnMetadata) error
	UpsertReport(ctx context.Context, in ReportInput) error
	UpdateSessionElapsed(ctx context.Context, sessionID string, minutes float64, updatedBy string) error
}

type gateway struct {
	topics        TopicService
	sessions      SessionService
	conversations ConversationService
	reports       ReportService
}

func NewGateway(topics TopicService, sessions SessionService, conversations ConversationService, reports ReportService) Gateway {
	return &gateway{topics: topics, sessions: sessions, conversations: conversations, reports: reports}
}

func (g *gateway) ResolveTopic(ctx context.Context, topicID string) (*models.Topic, error) {
	return g.topics.Resolve(ctx, topicID)
}

func (g *gateway) CreateSession(ctx context.Context, user models.User, topicID string) (*models.ConversationSession, error) {
	return g.sessions.Create(ctx, user, topicID)
}

func (g *gateway) AppendTurn(ctx context.Context, sessionID string, role models.TurnRole, content, createdBy string, md *models.TurnMetadata) error {
	_, err := g.conversations.Append(ctx, sessionID, role, content, createdBy, md)
	return err
}

func (g *gateway) UpsertReport(ctx context.Context, in ReportInput) error {
	_, err := g.reports.Upsert(ctx, in)
	return err
}

func (g *gateway) UpdateSessionElapsed(ctx context.Context, sessionID string, minutes float64, updatedBy string) error {
	return g.sessions.StampElapsed(ctx, sessionID, minutes, updatedBy)
}
