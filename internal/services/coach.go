package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/yungbote/perfoevolution-backend/internal/platform/logger"
	"github.com/yungbote/perfoevolution-backend/internal/repos"
	"github.com/yungbote/perfoevolution-backend/internal/types"
)

// ClientOverview is one row of the coach dashboard.
type ClientOverview struct {
	User    *types.User        `json:"user"`
	Profile *types.UserProfile `json:"profile"`
	Plan    string             `json:"plan"`
	AddOns  map[string]int     `json:"add_ons"`
}

// ClientProfileUpdate carries partial updates; nil means leave unchanged.
type ClientProfileUpdate struct {
	Age                *int     `json:"age"`
	HeightCm           *int     `json:"height_cm"`
	WeightKg           *float64 `json:"weight_kg"`
	FitnessLevel       *string  `json:"fitness_level"`
	PrimaryGoal        *string  `json:"primary_goal"`
	WorkoutFrequency   *string  `json:"workout_frequency"`
	DailyActivityLevel *string  `json:"daily_activity_level"`
	SleepHours         *int     `json:"sleep_hours"`
	BodyFatPercentage  *float64 `json:"body_fat_percentage"`
	BodyType           *string  `json:"body_type"`
	Plan               *string  `json:"plan"`
}

type TrainingUpdate struct {
	Status string  `json:"status"`
	Notes  *string `json:"notes"`
}

type BookingUpdate struct {
	Status        string     `json:"status"`
	Notes         *string    `json:"notes"`
	ScheduledDate *time.Time `json:"scheduled_date"`
}

// WorkflowResult is the row after an update plus the units left on the
// backing entitlement.
type WorkflowResult[T any] struct {
	Row               T   `json:"row"`
	RemainingQuantity int `json:"remaining_quantity"`
}

// CoachService covers everything behind the coach dashboard: the client
// roster, plan overrides and the two consumption workflows.
type CoachService interface {
	ListClients(ctx context.Context, coachID uuid.UUID) ([]*ClientOverview, error)
	UpdateClientProfile(ctx context.Context, coachID, clientID uuid.UUID, update ClientProfileUpdate) (*types.UserProfile, error)
	DeleteClient(ctx context.Context, coachID, clientID uuid.UUID) error

	ListTraining(ctx context.Context, coachID uuid.UUID) ([]*types.CoachTrainingProgress, error)
	UpdateTraining(ctx context.Context, coachID, progressID uuid.UUID, update TrainingUpdate) (*WorkflowResult[*types.CoachTrainingProgress], error)

	ListBookings(ctx context.Context, coachID uuid.UUID) ([]*types.CoachBooking, error)
	UpdateBooking(ctx context.Context, coachID, bookingID uuid.UUID, update BookingUpdate) (*WorkflowResult[*types.CoachBooking], error)

	// EnsureWorkflowForLot creates the tracking row for a freshly granted
	// lot. Wired as the entitlement grant hook.
	EnsureWorkflowForLot(ctx context.Context, tx *gorm.DB, lot *types.AddOn) error
}

type coachService struct {
	db            *gorm.DB
	users         repos.UserRepo
	profiles      repos.ProfileRepo
	subscriptions SubscriptionService
	entitlements  EntitlementService
	training      repos.TrainingProgressRepo
	bookings      repos.BookingRepo
	log           *logger.Logger
}

func NewCoachService(
	db *gorm.DB,
	users repos.UserRepo,
	profiles repos.ProfileRepo,
	subscriptions SubscriptionService,
	entitlements EntitlementService,
	training repos.TrainingProgressRepo,
	bookings repos.BookingRepo,
	baseLog *logger.Logger,
) CoachService {
	return &coachService{
		db:            db,
		users:         users,
		profiles:      profiles,
		subscriptions: subscriptions,
		entitlements:  entitlements,
		training:      training,
		bookings:      bookings,
		log:           baseLog.With("service", "CoachService"),
	}
}

func (s *coachService) requireCoach(ctx context.Context, tx *gorm.DB, coachID uuid.UUID) error {
	coach, err := s.users.GetByID(ctx, tx, coachID)
	if err != nil {
		return translateDBError(err)
	}
	if coach.Role != types.RoleCoach {
		return ErrForbidden
	}
	return nil
}

func (s *coachService) ListClients(ctx context.Context, coachID uuid.UUID) ([]*ClientOverview, error) {
	if err := s.requireCoach(ctx, nil, coachID); err != nil {
		return nil, err
	}

	clients, err := s.users.ListByRole(ctx, nil, types.RoleUser)
	if err != nil {
		return nil, translateDBError(err)
	}

	overviews := make([]*ClientOverview, len(clients))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i, client := range clients {
		g.Go(func() error {
			overview := &ClientOverview{User: client, Plan: types.PlanNone}

			profile, err := s.profiles.GetUserProfile(gctx, nil, client.ID)
			if err != nil && !errors.Is(translateDBError(err), ErrNotFound) {
				return translateDBError(err)
			}
			overview.Profile = profile

			plan, err := s.subscriptions.ActivePlan(gctx, client.ID)
			if err != nil {
				return err
			}
			overview.Plan = plan

			summary, err := s.entitlements.ActiveSummary(gctx, client.ID)
			if err != nil {
				return err
			}
			overview.AddOns = summary

			mu.Lock()
			overviews[i] = overview
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return overviews, nil
}

func (s *coachService) UpdateClientProfile(ctx context.Context, coachID, clientID uuid.UUID, update ClientProfileUpdate) (*types.UserProfile, error) {
	if err := s.requireCoach(ctx, nil, coachID); err != nil {
		return nil, err
	}

	client, err := s.users.GetByID(ctx, nil, clientID)
	if err != nil {
		return nil, translateDBError(err)
	}
	if client.Role != types.RoleUser {
		return nil, ErrInvalidTarget
	}

	fields := profileFields(update)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(fields) > 0 {
			if _, err := s.profiles.GetUserProfile(ctx, tx, clientID); err != nil {
				if !errors.Is(translateDBError(err), ErrNotFound) {
					return translateDBError(err)
				}
				profile := &types.UserProfile{ID: uuid.New(), UserID: clientID}
				if err := s.profiles.CreateUserProfile(ctx, tx, profile); err != nil {
					return translateDBError(err)
				}
			}
			if err := s.profiles.UpdateUserProfileFields(ctx, tx, clientID, fields); err != nil {
				return translateDBError(err)
			}
		}
		if update.Plan != nil {
			plan := *update.Plan
			if plan == client.SubscriptionPlan {
				// Re-submitting the current plan must not reset the
				// running period or append history.
				return nil
			}
			if plan == types.PlanNone {
				return s.subscriptions.CancelTx(ctx, tx, clientID)
			}
			// A coach assignment is a long grant, not a paid month.
			_, err := s.subscriptions.SetPlan(ctx, tx, clientID, plan, coachPlanDuration)
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	profile, err := s.profiles.GetUserProfile(ctx, nil, clientID)
	if err != nil && !errors.Is(translateDBError(err), ErrNotFound) {
		return nil, translateDBError(err)
	}
	return profile, nil
}

func (s *coachService) DeleteClient(ctx context.Context, coachID, clientID uuid.UUID) error {
	if err := s.requireCoach(ctx, nil, coachID); err != nil {
		return err
	}
	client, err := s.users.GetByID(ctx, nil, clientID)
	if err != nil {
		return translateDBError(err)
	}
	if client.Role != types.RoleUser {
		return ErrInvalidTarget
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return translateDBError(s.users.Delete(ctx, tx, clientID))
	})
}

func (s *coachService) ListTraining(ctx context.Context, coachID uuid.UUID) ([]*types.CoachTrainingProgress, error) {
	if err := s.requireCoach(ctx, nil, coachID); err != nil {
		return nil, err
	}
	rows, err := s.training.ListByCoach(ctx, nil, coachID)
	if err != nil {
		return nil, translateDBError(err)
	}
	return rows, nil
}

func (s *coachService) UpdateTraining(ctx context.Context, coachID, progressID uuid.UUID, update TrainingUpdate) (*WorkflowResult[*types.CoachTrainingProgress], error) {
	if update.Status != "" && update.Status != types.ProgressPending && update.Status != types.ProgressDone {
		return nil, ErrValidation
	}
	if err := s.requireCoach(ctx, nil, coachID); err != nil {
		return nil, err
	}

	result := &WorkflowResult[*types.CoachTrainingProgress]{}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := s.training.GetByID(ctx, tx, progressID)
		if err != nil {
			return translateDBError(err)
		}
		if row.CoachID != coachID {
			return ErrForbidden
		}

		fields := map[string]any{}
		if update.Notes != nil {
			fields["notes"] = *update.Notes
		}

		if update.Status == types.ProgressDone && row.Status != types.ProgressDone {
			remaining, err := s.entitlements.ConsumeOne(ctx, tx, row.UserID, types.AddOnAI)
			if err != nil {
				return err
			}
			result.RemainingQuantity = remaining
			// The row only closes once the whole entitlement is spent.
			if remaining <= 0 {
				fields["status"] = types.ProgressDone
			} else {
				fields["status"] = types.ProgressPending
			}
		} else if update.Status != "" && update.Status != row.Status {
			// Done is terminal; a row never reopens.
			if row.Status == types.ProgressDone {
				return ErrValidation
			}
			fields["status"] = update.Status
		}

		if err := s.training.UpdateFields(ctx, tx, progressID, fields); err != nil {
			return translateDBError(err)
		}
		updated, err := s.training.GetByID(ctx, tx, progressID)
		if err != nil {
			return translateDBError(err)
		}
		result.Row = updated
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *coachService) ListBookings(ctx context.Context, coachID uuid.UUID) ([]*types.CoachBooking, error) {
	if err := s.requireCoach(ctx, nil, coachID); err != nil {
		return nil, err
	}
	rows, err := s.bookings.ListByCoach(ctx, nil, coachID)
	if err != nil {
		return nil, translateDBError(err)
	}
	return rows, nil
}

func (s *coachService) UpdateBooking(ctx context.Context, coachID, bookingID uuid.UUID, update BookingUpdate) (*WorkflowResult[*types.CoachBooking], error) {
	if update.Status != "" && update.Status != types.BookingPending && update.Status != types.BookingCompleted {
		return nil, ErrValidation
	}
	if err := s.requireCoach(ctx, nil, coachID); err != nil {
		return nil, err
	}

	result := &WorkflowResult[*types.CoachBooking]{}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := s.bookings.GetByID(ctx, tx, bookingID)
		if err != nil {
			return translateDBError(err)
		}
		if row.CoachID != coachID {
			return ErrForbidden
		}

		fields := map[string]any{}
		if update.Notes != nil {
			fields["notes"] = *update.Notes
		}
		if update.ScheduledDate != nil {
			fields["scheduled_date"] = *update.ScheduledDate
		}

		if update.Status == types.BookingCompleted && row.Status != types.BookingCompleted {
			remaining, err := s.entitlements.ConsumeOne(ctx, tx, row.UserID, types.AddOnZoom)
			if err != nil {
				return err
			}
			result.RemainingQuantity = remaining
			fields["completion_date"] = time.Now().UTC()
			if remaining <= 0 {
				fields["status"] = types.BookingCompleted
			} else {
				fields["status"] = types.BookingPending
			}
		} else if update.Status != "" && update.Status != row.Status {
			// Completed is terminal; a booking never reopens.
			if row.Status == types.BookingCompleted {
				return ErrValidation
			}
			fields["status"] = update.Status
		}

		if err := s.bookings.UpdateFields(ctx, tx, bookingID, fields); err != nil {
			return translateDBError(err)
		}
		updated, err := s.bookings.GetByID(ctx, tx, bookingID)
		if err != nil {
			return translateDBError(err)
		}
		result.Row = updated
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *coachService) EnsureWorkflowForLot(ctx context.Context, tx *gorm.DB, lot *types.AddOn) error {
	if lot == nil || lot.AddonType == types.AddOnEbook {
		return nil
	}

	coaches, err := s.users.ListByRole(ctx, tx, types.RoleCoach)
	if err != nil {
		return translateDBError(err)
	}
	if len(coaches) == 0 {
		s.log.Warn("No coach available for granted lot",
			"user_id", lot.UserID.String(),
			"addon_type", lot.AddonType,
		)
		return nil
	}
	coach := coaches[0]

	switch lot.AddonType {
	case types.AddOnAI:
		row := &types.CoachTrainingProgress{
			ID:      uuid.New(),
			UserID:  lot.UserID,
			CoachID: coach.ID,
			AddOnID: lot.ID,
			Status:  types.ProgressPending,
		}
		return translateDBError(s.training.Create(ctx, tx, row))
	case types.AddOnZoom:
		row := &types.CoachBooking{
			ID:      uuid.New(),
			UserID:  lot.UserID,
			CoachID: coach.ID,
			AddOnID: lot.ID,
			Status:  types.BookingPending,
		}
		return translateDBError(s.bookings.Create(ctx, tx, row))
	}
	return nil
}
