package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/perfoevolution-backend/internal/platform/logger"
	"github.com/yungbote/perfoevolution-backend/internal/types"
)

type TrainingProgressRepo interface {
	Create(ctx context.Context, tx *gorm.DB, progress *types.CoachTrainingProgress) error
	GetByID(ctx context.Context, tx *gorm.DB, progressID uuid.UUID) (*types.CoachTrainingProgress, error)
	ListByCoach(ctx context.Context, tx *gorm.DB, coachID uuid.UUID) ([]*types.CoachTrainingProgress, error)
	ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.CoachTrainingProgress, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, progressID uuid.UUID, fields map[string]any) error
}

type trainingProgressRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTrainingProgressRepo(db *gorm.DB, baseLog *logger.Logger) TrainingProgressRepo {
	return &trainingProgressRepo{db: db, log: baseLog.With("repo", "TrainingProgressRepo")}
}

func (tr *trainingProgressRepo) Create(ctx context.Context, tx *gorm.DB, progress *types.CoachTrainingProgress) error {
	transaction := tx
	if transaction == nil {
		transaction = tr.db
	}
	return transaction.WithContext(ctx).Create(progress).Error
}

func (tr *trainingProgressRepo) GetByID(ctx context.Context, tx *gorm.DB, progressID uuid.UUID) (*types.CoachTrainingProgress, error) {
	transaction := tx
	if transaction == nil {
		transaction = tr.db
	}
	var result types.CoachTrainingProgress
	if err := transaction.WithContext(ctx).
		Where("id = ?", progressID).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (tr *trainingProgressRepo) ListByCoach(ctx context.Context, tx *gorm.DB, coachID uuid.UUID) ([]*types.CoachTrainingProgress, error) {
	transaction := tx
	if transaction == nil {
		transaction = tr.db
	}
	var results []*types.CoachTrainingProgress
	if err := transaction.WithContext(ctx).
		Where("coach_id = ?", coachID).
		Order("last_updated DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (tr *trainingProgressRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.CoachTrainingProgress, error) {
	transaction := tx
	if transaction == nil {
		transaction = tr.db
	}
	var results []*types.CoachTrainingProgress
	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("last_updated DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (tr *trainingProgressRepo) UpdateFields(ctx context.Context, tx *gorm.DB, progressID uuid.UUID, fields map[string]any) error {
	transaction := tx
	if transaction == nil {
		transaction = tr.db
	}
	if len(fields) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Model(&types.CoachTrainingProgress{}).
		Where("id = ?", progressID).
		Updates(fields).Error
}
