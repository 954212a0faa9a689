package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/yoockh/lexispeak/internal/cache"
	"github.com/yoockh/lexispeak/internal/models"
	pgrepo "github.com/yoockh/lexispeak/internal/repositories/postgres"
	"github.com/yoockh/lexispeak/internal/scoring"
	"github.com/yoockh/lexispeak/internal/utils"
)

type ReportService interface {
	Upsert(ctx context.Context, in ReportInput) (*models.Report, error)
	GetBySession(ctx context.Context, sessionID string) (*models.Report, error)
	Stats(ctx context.Context, userID string) (*models.UserStats, error)
	History(ctx context.Context, userID string, limit int) ([]models.HistoryItem, error)
}

type ReportInput struct {
	SessionID string
	TopicID   string
	UserID    string
	Score     float64
	WordCount int
	Actor     string // email stamped on created_by/updated_by
}

type reportService struct {
	reports  pgrepo.ReportRepository
	cache    cache.Cache
	statsTTL time.Duration
}

// NewReportService accepts a nil cache.
func NewReportService(reports pgrepo.ReportRepository, c cache.Cache, statsTTL time.Duration) ReportService {
	if statsTTL <= 0 {
		statsTTL = time.Minute
	}
	return &reportService{reports: reports, cache: c, statsTTL: statsTTL}
}

// Upsert writes score and word count as a whole, keyed by session.
func (s *reportService) Upsert(ctx context.Context, in ReportInput) (*models.Report, error) {
	const op = "ReportService.Upsert"

	if in.SessionID == "" || in.UserID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "session_id and user_id are required", nil)
	}
	if in.WordCount < 0 {
		in.WordCount = 0
	}

	now := time.Now().UTC()
	rep := &models.Report{
		ID:          uuid.NewString(),
		Score:       in.Score,
		WordsSpoken: in.WordCount,
		UserID:      in.UserID,
		TopicID:     in.TopicID,
		SessionID:   in.SessionID,
		CreatedBy:   in.Actor,
		UpdatedBy:   in.Actor,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.reports.Upsert(ctx, rep); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to upsert report", err)
	}
	if s.cache != nil {
		_ = s.cache.Del(ctx, cache.StatsKey(in.UserID))
	}
	return rep, nil
}

func (s *reportService) GetBySession(ctx context.Context, sessionID string) (*models.Report, error) {
	const op = "ReportService.GetBySession"

	if sessionID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "session_id is required", nil)
	}
	rep, err := s.reports.GetBySession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "report not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to get report", err)
	}
	return rep, nil
}

func (s *reportService) Stats(ctx context.Context, userID string) (*models.UserStats, error) {
	const op = "ReportService.Stats"

	if userID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "user_id is required", nil)
	}

	st, err := cache.Remember(ctx, s.cache, cache.StatsKey(userID), s.statsTTL, func(ctx context.Context) (models.UserStats, error) {
		st, err := s.reports.StatsByUser(ctx, userID)
		if err != nil {
			return models.UserStats{}, err
		}
		return *st, nil
	})
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to compute stats", err)
	}
	if st.TotalSession == 0 {
		return &models.UserStats{}, nil
	}
	st.AvgScore = scoring.Round2(st.AvgScore)
	st.HighScore = scoring.Round2(st.HighScore)
	return &st, nil
}

func (s *reportService) History(ctx context.Context, userID string, limit int) ([]models.HistoryItem, error) {
	const op = "ReportService.History"

	if userID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "user_id is required", nil)
	}
	rows, err := s.reports.HistoryByUser(ctx, userID, limit)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list history", err)
	}
	return rows, nil
}
