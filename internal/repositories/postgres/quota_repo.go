package postgres

import (
	"context"
	"errors"

	"github.com/yoockh/lexispeak/internal/models"
	"github.com/yoockh/lexispeak/internal/utils"
	"gorm.io/gorm"
)

var (
	ErrNoSubscription = errors.New("user has no subscription")
	ErrPlanMissing    = errors.New("subscription plan not found")
	ErrQuotaExhausted = errors.New("conversation quota exhausted")
)

// QuotaUsage is the counter state right after a successful consume.
type QuotaUsage struct {
	Used    int
	Allowed *int
}

type QuotaRepository interface {
	// Consume checks the user's plan allowance and increments the used
	// counter in one transaction.
	Consume(ctx context.Context, userID string) (*QuotaUsage, error)
}

type quotaRepo struct {
	db *gorm.DB
}

func NewQuotaRepo(db *gorm.DB) QuotaRepository {
	return &quotaRepo{db: db}
}

func (r *quotaRepo) Consume(ctx context.Context, userID string) (*QuotaUsage, error) {
	var out QuotaUsage

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var sub models.Subscription
		err := tx.Where("user_id = ?", userID).Order("created_at DESC").Take(&sub).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNoSubscription
		}
		if err != nil {
			return err
		}

		var plan models.Plan
		err = tx.Where("id = ?", sub.PlanID).Take(&plan).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPlanMissing
		}
		if err != nil {
			return err
		}

		// check and increment in one statement
		q := tx.Model(&models.User{}).Where("id = ?", userID)
		if plan.AllowedConversations != nil {
			q = q.Where("used_conversations < ?", *plan.AllowedConversations)
		}
		res := q.UpdateColumn("used_conversations", gorm.Expr("used_conversations + ?", 1))
		if res.Error != nil {
			return res.Error
		}

		var u models.User
		err = tx.Select("id", "used_conversations").Where("id = ?", userID).Take(&u).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.ErrNotFound
		}
		if err != nil {
			return err
		}
		if res.RowsAffected == 0 {
			return ErrQuotaExhausted
		}

		out.Used = u.UsedConversations
		out.Allowed = plan.AllowedConversations
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}
