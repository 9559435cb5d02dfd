package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/perfoevolution-backend/internal/platform/logger"
	"github.com/yungbote/perfoevolution-backend/internal/types"
)

type ProgramRepo interface {
	// Create inserts the program with its days and exercises in one shot.
	// Callers assign all IDs up front.
	Create(ctx context.Context, tx *gorm.DB, program *types.AIProgram) error
	DeactivateByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int64, error)
	GetActiveByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.AIProgram, error)
	ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.AIProgram, error)
}

type programRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProgramRepo(db *gorm.DB, baseLog *logger.Logger) ProgramRepo {
	return &programRepo{db: db, log: baseLog.With("repo", "ProgramRepo")}
}

func (pr *programRepo) Create(ctx context.Context, tx *gorm.DB, program *types.AIProgram) error {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}
	return transaction.WithContext(ctx).Create(program).Error
}

func (pr *programRepo) DeactivateByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}
	result := transaction.WithContext(ctx).
		Model(&types.AIProgram{}).
		Where("user_id = ? AND is_active = ?", userID, true).
		Update("is_active", false)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func (pr *programRepo) GetActiveByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.AIProgram, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}
	var result types.AIProgram
	if err := transaction.WithContext(ctx).
		Preload("Days", func(db *gorm.DB) *gorm.DB {
			return db.Order("day_number ASC")
		}).
		Preload("Days.Exercises", func(db *gorm.DB) *gorm.DB {
			return db.Order("exercise_order ASC")
		}).
		Where("user_id = ? AND is_active = ?", userID, true).
		Order("created_at DESC").
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (pr *programRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.AIProgram, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}
	var results []*types.AIProgram
	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
