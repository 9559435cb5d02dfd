package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/perfoevolution-backend/internal/platform/logger"
	"github.com/yungbote/perfoevolution-backend/internal/types"
)

type BookingRepo interface {
	Create(ctx context.Context, tx *gorm.DB, booking *types.CoachBooking) error
	GetByID(ctx context.Context, tx *gorm.DB, bookingID uuid.UUID) (*types.CoachBooking, error)
	ListByCoach(ctx context.Context, tx *gorm.DB, coachID uuid.UUID) ([]*types.CoachBooking, error)
	ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.CoachBooking, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, bookingID uuid.UUID, fields map[string]any) error
}

type bookingRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewBookingRepo(db *gorm.DB, baseLog *logger.Logger) BookingRepo {
	return &bookingRepo{db: db, log: baseLog.With("repo", "BookingRepo")}
}

func (br *bookingRepo) Create(ctx context.Context, tx *gorm.DB, booking *types.CoachBooking) error {
	transaction := tx
	if transaction == nil {
		transaction = br.db
	}
	return transaction.WithContext(ctx).Create(booking).Error
}

func (br *bookingRepo) GetByID(ctx context.Context, tx *gorm.DB, bookingID uuid.UUID) (*types.CoachBooking, error) {
	transaction := tx
	if transaction == nil {
		transaction = br.db
	}
	var result types.CoachBooking
	if err := transaction.WithContext(ctx).
		Where("id = ?", bookingID).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (br *bookingRepo) ListByCoach(ctx context.Context, tx *gorm.DB, coachID uuid.UUID) ([]*types.CoachBooking, error) {
	transaction := tx
	if transaction == nil {
		transaction = br.db
	}
	var results []*types.CoachBooking
	if err := transaction.WithContext(ctx).
		Where("coach_id = ?", coachID).
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (br *bookingRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.CoachBooking, error) {
	transaction := tx
	if transaction == nil {
		transaction = br.db
	}
	var results []*types.CoachBooking
	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (br *bookingRepo) UpdateFields(ctx context.Context, tx *gorm.DB, bookingID uuid.UUID, fields map[string]any) error {
	transaction := tx
	if transaction == nil {
		transaction = br.db
	}
	if len(fields) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Model(&types.CoachBooking{}).
		Where("id = ?", bookingID).
		Updates(fields).Error
}
