package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/perfoevolution-backend/internal/platform/logger"
	"github.com/yungbote/perfoevolution-backend/internal/repos"
	"github.com/yungbote/perfoevolution-backend/internal/types"
)

const (
	// Paid checkout grants a month; a coach assigning a plan grants a year.
	checkoutPlanDuration = 30 * 24 * time.Hour
	coachPlanDuration    = 365 * 24 * time.Hour
)

// SubscriptionService owns plan periods and the cached plan on the user row.
type SubscriptionService interface {
	// SetPlan expires any active period and opens a new one of the given
	// duration inside the caller's transaction.
	SetPlan(ctx context.Context, tx *gorm.DB, userID uuid.UUID, plan string, duration time.Duration) (*types.Subscription, error)

	// Downgrade moves the cached plan to targetPlan, which must be
	// "none" or "basic". Existing periods keep running until they
	// lapse; only the cached field changes.
	Downgrade(ctx context.Context, userID uuid.UUID, targetPlan string) error

	// CancelTx expires all active periods and resets the cached plan
	// to none inside the caller's transaction.
	CancelTx(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error

	// ActivePlan resolves the user's current plan from live rows.
	ActivePlan(ctx context.Context, userID uuid.UUID) (string, error)

	History(ctx context.Context, userID uuid.UUID) ([]*types.Subscription, error)
}

type subscriptionService struct {
	db    *gorm.DB
	users repos.UserRepo
	subs  repos.SubscriptionRepo
	log   *logger.Logger
}

func NewSubscriptionService(db *gorm.DB, users repos.UserRepo, subs repos.SubscriptionRepo, baseLog *logger.Logger) SubscriptionService {
	return &subscriptionService{
		db:    db,
		users: users,
		subs:  subs,
		log:   baseLog.With("service", "SubscriptionService"),
	}
}

func validPlan(plan string) bool {
	return plan == types.PlanBasic || plan == types.PlanAdvanced
}

func (s *subscriptionService) SetPlan(ctx context.Context, tx *gorm.DB, userID uuid.UUID, plan string, duration time.Duration) (*types.Subscription, error) {
	if !validPlan(plan) {
		return nil, ErrInvalidTarget
	}
	if duration <= 0 {
		duration = checkoutPlanDuration
	}

	expired, err := s.subs.ExpireActiveByUser(ctx, tx, userID)
	if err != nil {
		return nil, translateDBError(err)
	}

	now := time.Now().UTC()
	sub := &types.Subscription{
		ID:        uuid.New(),
		UserID:    userID,
		Plan:      plan,
		StartDate: now,
		EndDate:   now.Add(duration),
		Status:    types.SubscriptionActive,
	}
	if err := s.subs.Create(ctx, tx, sub); err != nil {
		return nil, translateDBError(err)
	}
	if err := s.users.UpdateFields(ctx, tx, userID, map[string]any{"subscription_plan": plan}); err != nil {
		return nil, translateDBError(err)
	}

	s.log.Info("Plan set",
		"user_id", userID.String(),
		"plan", plan,
		"replaced", expired,
		"end_date", sub.EndDate.Format(time.RFC3339),
	)
	return sub, nil
}

func validDowngradeTarget(plan string) bool {
	return plan == types.PlanNone || plan == types.PlanBasic
}

func (s *subscriptionService) Downgrade(ctx context.Context, userID uuid.UUID, targetPlan string) error {
	if !validDowngradeTarget(targetPlan) {
		return ErrInvalidTarget
	}
	if err := s.users.UpdateFields(ctx, nil, userID, map[string]any{"subscription_plan": targetPlan}); err != nil {
		return translateDBError(err)
	}
	s.log.Info("Plan downgraded", "user_id", userID.String(), "target_plan", targetPlan)
	return nil
}

func (s *subscriptionService) CancelTx(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error {
	if _, err := s.subs.ExpireActiveByUser(ctx, tx, userID); err != nil {
		return translateDBError(err)
	}
	if err := s.users.UpdateFields(ctx, tx, userID, map[string]any{"subscription_plan": types.PlanNone}); err != nil {
		return translateDBError(err)
	}
	s.log.Info("Plan cancelled", "user_id", userID.String())
	return nil
}

func (s *subscriptionService) ActivePlan(ctx context.Context, userID uuid.UUID) (string, error) {
	active, err := s.subs.ListActiveByUser(ctx, nil, userID)
	if err != nil {
		return "", translateDBError(err)
	}
	if len(active) == 0 {
		return types.PlanNone, nil
	}
	return active[0].Plan, nil
}

func (s *subscriptionService) History(ctx context.Context, userID uuid.UUID) ([]*types.Subscription, error) {
	subs, err := s.subs.ListByUser(ctx, nil, userID)
	if err != nil {
		return nil, translateDBError(err)
	}
	return subs, nil
}
