package types

import (
	"time"

	"github.com/google/uuid"
)

const (
	SubscriptionActive   = "active"
	SubscriptionExpired  = "expired"
	SubscriptionCanceled = "canceled"
)

// Subscription is one dated plan period. At most one row per user may be
// active at a time; writers expire the previous active row and insert the new
// one inside a single transaction.
type Subscription struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;index;not null;column:user_id" json:"user_id"`
	Plan      string    `gorm:"not null;column:plan" json:"plan"`
	StartDate time.Time `gorm:"not null;column:start_date" json:"start_date"`
	EndDate   time.Time `gorm:"not null;column:end_date" json:"end_date"`
	Status    string    `gorm:"not null;default:'active';index;column:status" json:"status"`
	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (Subscription) TableName() string {
	return "subscription"
}
