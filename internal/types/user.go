package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	RoleUser  = "user"
	RoleCoach = "coach"
)

const (
	PlanNone     = "none"
	PlanBasic    = "basic"
	PlanAdvanced = "advanced"
)

// User is the account row shared by clients and coaches. SubscriptionPlan and
// AddOns are denormalized caches; the Subscription and AddOn tables stay
// authoritative.
type User struct {
	ID               uuid.UUID         `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Auth0ID          string            `gorm:"uniqueIndex;not null;column:auth0_id" json:"auth0_id"`
	Email            string            `gorm:"uniqueIndex;not null;column:email" json:"email"`
	Username         string            `gorm:"column:username" json:"username"`
	Role             string            `gorm:"not null;default:'user';column:role" json:"role"`
	SubscriptionPlan string            `gorm:"not null;default:'none';column:subscription_plan" json:"subscription_plan"`
	AddOns           datatypes.JSONMap `gorm:"column:add_ons" json:"add_ons"`
	CreatedAt        time.Time         `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt        time.Time         `gorm:"not null;default:now()" json:"updated_at"`
}

func (User) TableName() string {
	return "user"
}
