package types

import (
	"time"

	"github.com/google/uuid"
)

const (
	AddOnEbook = "ebook"
	AddOnZoom  = "zoom"
	AddOnAI    = "ai"
)

const (
	AddOnStatusActive  = "active"
	AddOnStatusUsed    = "used"
	AddOnStatusExpired = "expired"
)

// AddOn is one purchased lot of an add-on type. Quantity only ever decreases
// after creation; a lot that reaches zero is flipped to used in the same
// write. Ebook lots never expire and a user holds at most one, ever.
type AddOn struct {
	ID        uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID    uuid.UUID  `gorm:"type:uuid;index;not null;column:user_id" json:"user_id"`
	AddonType string     `gorm:"not null;index;column:addon_type" json:"addon_type"`
	Quantity  int        `gorm:"not null;default:0;column:quantity" json:"quantity"`
	Status    string     `gorm:"not null;default:'active';index;column:status" json:"status"`
	StartDate time.Time  `gorm:"not null;column:start_date" json:"start_date"`
	EndDate   *time.Time `gorm:"column:end_date" json:"end_date"`
	CreatedAt time.Time  `gorm:"not null;default:now()" json:"created_at"`
}

func (AddOn) TableName() string {
	return "add_on"
}

// Consumable reports whether a single unit can still be drawn from this lot.
func (a *AddOn) Consumable() bool {
	return a != nil && a.Status == AddOnStatusActive && a.Quantity > 0
}
