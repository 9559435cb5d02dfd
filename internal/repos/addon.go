package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/perfoevolution-backend/internal/platform/logger"
	"github.com/yungbote/perfoevolution-backend/internal/types"
)

type AddOnRepo interface {
	Create(ctx context.Context, tx *gorm.DB, lot *types.AddOn) error
	GetByID(ctx context.Context, tx *gorm.DB, lotID uuid.UUID) (*types.AddOn, error)
	ListActiveByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.AddOn, error)
	// ListConsumable returns active lots of one type with units left, largest
	// lot first.
	ListConsumable(ctx context.Context, tx *gorm.DB, userID uuid.UUID, addonType string) ([]*types.AddOn, error)
	ExistsByUserAndType(ctx context.Context, tx *gorm.DB, userID uuid.UUID, addonType string, statuses []string) (bool, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, lotID uuid.UUID, fields map[string]any) error
	ExpireDue(ctx context.Context, tx *gorm.DB, now time.Time) (int64, error)
}

type addOnRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAddOnRepo(db *gorm.DB, baseLog *logger.Logger) AddOnRepo {
	return &addOnRepo{db: db, log: baseLog.With("repo", "AddOnRepo")}
}

func (ar *addOnRepo) Create(ctx context.Context, tx *gorm.DB, lot *types.AddOn) error {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}
	return transaction.WithContext(ctx).Create(lot).Error
}

func (ar *addOnRepo) GetByID(ctx context.Context, tx *gorm.DB, lotID uuid.UUID) (*types.AddOn, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}
	var result types.AddOn
	if err := transaction.WithContext(ctx).
		Where("id = ?", lotID).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (ar *addOnRepo) ListActiveByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.AddOn, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}
	var results []*types.AddOn
	if err := transaction.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, types.AddOnStatusActive).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (ar *addOnRepo) ListConsumable(ctx context.Context, tx *gorm.DB, userID uuid.UUID, addonType string) ([]*types.AddOn, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}
	var results []*types.AddOn
	if err := transaction.WithContext(ctx).
		Where("user_id = ? AND addon_type = ? AND status = ? AND quantity > 0", userID, addonType, types.AddOnStatusActive).
		Order("quantity DESC, created_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (ar *addOnRepo) ExistsByUserAndType(ctx context.Context, tx *gorm.DB, userID uuid.UUID, addonType string, statuses []string) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}
	var count int64
	query := transaction.WithContext(ctx).
		Model(&types.AddOn{}).
		Where("user_id = ? AND addon_type = ?", userID, addonType)
	if len(statuses) > 0 {
		query = query.Where("status IN ?", statuses)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (ar *addOnRepo) UpdateFields(ctx context.Context, tx *gorm.DB, lotID uuid.UUID, fields map[string]any) error {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}
	if len(fields) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Model(&types.AddOn{}).
		Where("id = ?", lotID).
		Updates(fields).Error
}

func (ar *addOnRepo) ExpireDue(ctx context.Context, tx *gorm.DB, now time.Time) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}
	result := transaction.WithContext(ctx).
		Model(&types.AddOn{}).
		Where("status = ? AND end_date IS NOT NULL AND end_date < ?", types.AddOnStatusActive, now).
		Update("status", types.AddOnStatusExpired)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
