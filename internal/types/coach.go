package types

import (
	"time"

	"github.com/google/uuid"
)

const (
	ProgressPending = "Pending"
	ProgressDone    = "Done"
)

const (
	BookingPending   = "Pending"
	BookingCompleted = "Completed"
)

// CoachTrainingProgress tracks the consumption workflow of one ai add-on lot.
// Status only moves Pending -> Done; there is no reopening.
type CoachTrainingProgress struct {
	ID          uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID      uuid.UUID `gorm:"type:uuid;index;not null;column:user_id" json:"user_id"`
	CoachID     uuid.UUID `gorm:"type:uuid;index;not null;column:coach_id" json:"coach_id"`
	AddOnID     uuid.UUID `gorm:"type:uuid;index;not null;column:add_on_id" json:"add_on_id"`
	Status      string    `gorm:"not null;default:'Pending';column:status" json:"status"`
	Notes       string    `gorm:"column:notes" json:"notes"`
	LastUpdated time.Time `gorm:"not null;default:now();autoUpdateTime;column:last_updated" json:"last_updated"`
	CreatedAt   time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (CoachTrainingProgress) TableName() string {
	return "coach_training_progress"
}

// CoachBooking tracks the consumption workflow of one zoom add-on lot.
type CoachBooking struct {
	ID             uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID         uuid.UUID  `gorm:"type:uuid;index;not null;column:user_id" json:"user_id"`
	CoachID        uuid.UUID  `gorm:"type:uuid;index;not null;column:coach_id" json:"coach_id"`
	AddOnID        uuid.UUID  `gorm:"type:uuid;index;not null;column:add_on_id" json:"add_on_id"`
	ScheduledDate  *time.Time `gorm:"column:scheduled_date" json:"scheduled_date"`
	CompletionDate *time.Time `gorm:"column:completion_date" json:"completion_date"`
	Status         string     `gorm:"not null;default:'Pending';column:status" json:"status"`
	Notes          string     `gorm:"column:notes" json:"notes"`
	UpdatedAt      time.Time  `gorm:"not null;default:now()" json:"updated_at"`
	CreatedAt      time.Time  `gorm:"not null;default:now()" json:"created_at"`
}

func (CoachBooking) TableName() string {
	return "coach_booking"
}
