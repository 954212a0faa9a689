package services

import (
	"context"
	"errors"

	pgrepo "github.com/yoockh/lexispeak/internal/repositories/postgres"
	"github.com/yoockh/lexispeak/internal/utils"
)

type Grant struct {
	Message   string `json:"message"`
	Remaining *int   `json:"remaining_conversations"` // nil on unlimited plans
}

// PermissionService gates session start on the user's plan allowance.
type PermissionService interface {
	Consume(ctx context.Context, userID string) (*Grant, error)
}

type permissionService struct {
	quota pgrepo.QuotaRepository
}

func NewPermissionService(quota pgrepo.QuotaRepository) PermissionService {
	return &permissionService{quota: quota}
}

func (s *permissionService) Consume(ctx context.Context, userID string) (*Grant, error) {
	const op = "PermissionService.Consume"

	if userID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "user_id is required", nil)
	}

	usage, err := s.quota.Consume(ctx, userID)
	switch {
	case errors.Is(err, pgrepo.ErrNoSubscription):
		return nil, utils.E(utils.CodeNoActivePlan, op, "user does not have subscription", err)
	case errors.Is(err, pgrepo.ErrPlanMissing):
		return nil, utils.E(utils.CodePlanNotFound, op, "plan with the subscription not found", err)
	case errors.Is(err, pgrepo.ErrQuotaExhausted):
		return nil, utils.E(utils.CodeQuotaExceeded, op, "you exceeded allowed conversations for the subscription plan", err)
	case errors.Is(err, utils.ErrNotFound):
		return nil, utils.E(utils.CodeNotFound, op, "user not found", err)
	case err != nil:
		return nil, utils.E(utils.CodeInternal, op, "failed to check conversation permission", err)
	}

	g := &Grant{Message: "Permission granted"}
	if usage.Allowed != nil {
		left := *usage.Allowed - usage.Used
		if left < 0 {
			left = 0
		}
		g.Remaining = &left
	}
	return g, nil
}
