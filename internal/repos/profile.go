package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/perfoevolution-backend/internal/platform/logger"
	"github.com/yungbote/perfoevolution-backend/internal/types"
)

type ProfileRepo interface {
	GetUserProfile(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.UserProfile, error)
	CreateUserProfile(ctx context.Context, tx *gorm.DB, profile *types.UserProfile) error
	UpdateUserProfileFields(ctx context.Context, tx *gorm.DB, userID uuid.UUID, fields map[string]any) error
	GetCoachProfile(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.CoachProfile, error)
	CreateCoachProfile(ctx context.Context, tx *gorm.DB, profile *types.CoachProfile) error
}

type profileRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProfileRepo(db *gorm.DB, baseLog *logger.Logger) ProfileRepo {
	return &profileRepo{db: db, log: baseLog.With("repo", "ProfileRepo")}
}

func (pr *profileRepo) GetUserProfile(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.UserProfile, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}
	var result types.UserProfile
	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (pr *profileRepo) CreateUserProfile(ctx context.Context, tx *gorm.DB, profile *types.UserProfile) error {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}
	return transaction.WithContext(ctx).Create(profile).Error
}

func (pr *profileRepo) UpdateUserProfileFields(ctx context.Context, tx *gorm.DB, userID uuid.UUID, fields map[string]any) error {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}
	if len(fields) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Model(&types.UserProfile{}).
		Where("user_id = ?", userID).
		Updates(fields).Error
}

func (pr *profileRepo) GetCoachProfile(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.CoachProfile, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}
	var result types.CoachProfile
	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (pr *profileRepo) CreateCoachProfile(ctx context.Context, tx *gorm.DB, profile *types.CoachProfile) error {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}
	return transaction.WithContext(ctx).Create(profile).Error
}
