package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/perfoevolution-backend/internal/platform/logger"
	"github.com/yungbote/perfoevolution-backend/internal/repos"
	"github.com/yungbote/perfoevolution-backend/internal/types"
)

// UserInfo is the aggregate the frontend renders after login.
type UserInfo struct {
	User         *types.User         `json:"user"`
	Profile      *types.UserProfile  `json:"profile"`
	Plan         string              `json:"plan"`
	Subscription *types.Subscription `json:"subscription"`
	AddOns       map[string]int      `json:"add_ons"`
}

// UserDetailUpdate is the self-service PATCH payload. Downgrade expires the
// user's active plan periods on top of resetting the cached plan.
type UserDetailUpdate struct {
	Username  *string             `json:"username"`
	Profile   ClientProfileUpdate `json:"profile"`
	Downgrade bool                `json:"downgrade"`
}

type UserService interface {
	// SyncFromAuth0 upserts the account for a verified Auth0 identity.
	// Matching order: subject first, then email for accounts created
	// before the identity provider switch.
	SyncFromAuth0(ctx context.Context, auth0ID, email, username string) (*types.User, bool, error)

	GetByAuth0ID(ctx context.Context, auth0ID string) (*types.User, error)
	GetInfo(ctx context.Context, userID uuid.UUID) (*UserInfo, error)
	UpdateDetail(ctx context.Context, userID uuid.UUID, update UserDetailUpdate) (*UserInfo, error)
	DeleteAccount(ctx context.Context, userID uuid.UUID) error
}

type userService struct {
	db            *gorm.DB
	users         repos.UserRepo
	profiles      repos.ProfileRepo
	subs          repos.SubscriptionRepo
	subscriptions SubscriptionService
	entitlements  EntitlementService
	log           *logger.Logger
}

func NewUserService(
	db *gorm.DB,
	users repos.UserRepo,
	profiles repos.ProfileRepo,
	subs repos.SubscriptionRepo,
	subscriptions SubscriptionService,
	entitlements EntitlementService,
	baseLog *logger.Logger,
) UserService {
	return &userService{
		db:            db,
		users:         users,
		profiles:      profiles,
		subs:          subs,
		subscriptions: subscriptions,
		entitlements:  entitlements,
		log:           baseLog.With("service", "UserService"),
	}
}

func (s *userService) SyncFromAuth0(ctx context.Context, auth0ID, email, username string) (*types.User, bool, error) {
	if auth0ID == "" || email == "" {
		return nil, false, ErrValidation
	}

	var out *types.User
	created := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := s.users.GetByAuth0ID(ctx, tx, auth0ID)
		if err != nil {
			if !errors.Is(translateDBError(err), ErrNotFound) {
				return translateDBError(err)
			}
			user, err = s.users.GetByEmail(ctx, tx, email)
			if err != nil {
				if !errors.Is(translateDBError(err), ErrNotFound) {
					return translateDBError(err)
				}
				user = nil
			}
		}

		if user == nil {
			user = &types.User{
				ID:               uuid.New(),
				Auth0ID:          auth0ID,
				Email:            email,
				Username:         username,
				Role:             types.RoleUser,
				SubscriptionPlan: types.PlanNone,
				AddOns:           datatypes.JSONMap{},
			}
			if err := s.users.Create(ctx, tx, user); err != nil {
				return translateDBError(err)
			}
			created = true
			out = user
			return nil
		}

		fields := map[string]any{}
		if user.Auth0ID != auth0ID {
			fields["auth0_id"] = auth0ID
		}
		if user.Email != email {
			fields["email"] = email
		}
		if username != "" && user.Username != username {
			fields["username"] = username
		}
		if len(fields) > 0 {
			if err := s.users.UpdateFields(ctx, tx, user.ID, fields); err != nil {
				return translateDBError(err)
			}
			user, err = s.users.GetByID(ctx, tx, user.ID)
			if err != nil {
				return translateDBError(err)
			}
		}
		out = user
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	s.log.Info("Auth0 identity synced", "auth0_id", auth0ID, "created", created)
	return out, created, nil
}

func (s *userService) GetByAuth0ID(ctx context.Context, auth0ID string) (*types.User, error) {
	user, err := s.users.GetByAuth0ID(ctx, nil, auth0ID)
	if err != nil {
		return nil, translateDBError(err)
	}
	return user, nil
}

func (s *userService) GetInfo(ctx context.Context, userID uuid.UUID) (*UserInfo, error) {
	user, err := s.users.GetByID(ctx, nil, userID)
	if err != nil {
		return nil, translateDBError(err)
	}

	info := &UserInfo{User: user, Plan: types.PlanNone}

	profile, err := s.profiles.GetUserProfile(ctx, nil, userID)
	if err != nil && !errors.Is(translateDBError(err), ErrNotFound) {
		return nil, translateDBError(err)
	}
	info.Profile = profile

	active, err := s.subs.ListActiveByUser(ctx, nil, userID)
	if err != nil {
		return nil, translateDBError(err)
	}
	if len(active) > 0 {
		info.Plan = active[0].Plan
		info.Subscription = active[0]
	}

	summary, err := s.entitlements.ActiveSummary(ctx, userID)
	if err != nil {
		return nil, err
	}
	info.AddOns = summary

	return info, nil
}

func (s *userService) UpdateDetail(ctx context.Context, userID uuid.UUID, update UserDetailUpdate) (*UserInfo, error) {
	if update.Profile.Plan != nil {
		// Plan changes come through checkout or a coach, never self-service.
		return nil, ErrForbidden
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if update.Username != nil {
			if err := s.users.UpdateFields(ctx, tx, userID, map[string]any{"username": *update.Username}); err != nil {
				return translateDBError(err)
			}
		}

		fields := profileFields(update.Profile)
		if len(fields) > 0 {
			if _, err := s.profiles.GetUserProfile(ctx, tx, userID); err != nil {
				if !errors.Is(translateDBError(err), ErrNotFound) {
					return translateDBError(err)
				}
				profile := &types.UserProfile{ID: uuid.New(), UserID: userID}
				if err := s.profiles.CreateUserProfile(ctx, tx, profile); err != nil {
					return translateDBError(err)
				}
			}
			if err := s.profiles.UpdateUserProfileFields(ctx, tx, userID, fields); err != nil {
				return translateDBError(err)
			}
		}

		if update.Downgrade {
			return s.subscriptions.CancelTx(ctx, tx, userID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetInfo(ctx, userID)
}

func (s *userService) DeleteAccount(ctx context.Context, userID uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.users.GetByID(ctx, tx, userID); err != nil {
			return translateDBError(err)
		}
		return translateDBError(s.users.Delete(ctx, tx, userID))
	})
}

func profileFields(update ClientProfileUpdate) map[string]any {
	fields := map[string]any{}
	if update.Age != nil {
		fields["age"] = *update.Age
	}
	if update.HeightCm != nil {
		fields["height_cm"] = *update.HeightCm
	}
	if update.WeightKg != nil {
		fields["weight_kg"] = *update.WeightKg
	}
	if update.FitnessLevel != nil {
		fields["fitness_level"] = *update.FitnessLevel
	}
	if update.PrimaryGoal != nil {
		fields["primary_goal"] = *update.PrimaryGoal
	}
	if update.WorkoutFrequency != nil {
		fields["workout_frequency"] = *update.WorkoutFrequency
	}
	if update.DailyActivityLevel != nil {
		fields["daily_activity_level"] = *update.DailyActivityLevel
	}
	if update.SleepHours != nil {
		fields["sleep_hours"] = *update.SleepHours
	}
	if update.BodyFatPercentage != nil {
		fields["body_fat_percentage"] = *update.BodyFatPercentage
	}
	if update.BodyType != nil {
		fields["body_type"] = *update.BodyType
	}
	return fields
}
