package types

import (
	"time"

	"github.com/google/uuid"
)

// UserProfile holds the onboarding snapshot the program generator prompts from.
// One row per client.
type UserProfile struct {
	ID                 uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID             uuid.UUID `gorm:"type:uuid;uniqueIndex;not null;column:user_id" json:"user_id"`
	Age                int       `gorm:"column:age" json:"age"`
	HeightCm           int       `gorm:"column:height_cm" json:"height_cm"`
	WeightKg           float64   `gorm:"column:weight_kg" json:"weight_kg"`
	FitnessLevel       string    `gorm:"column:fitness_level" json:"fitness_level"`
	PrimaryGoal        string    `gorm:"column:primary_goal" json:"primary_goal"`
	WorkoutFrequency   string    `gorm:"column:workout_frequency" json:"workout_frequency"`
	DailyActivityLevel string    `gorm:"column:daily_activity_level" json:"daily_activity_level"`
	SleepHours         int       `gorm:"column:sleep_hours" json:"sleep_hours"`
	BodyFatPercentage  *float64  `gorm:"column:body_fat_percentage" json:"body_fat_percentage"`
	BodyType           string    `gorm:"column:body_type" json:"body_type"`
	CreatedAt          time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt          time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (UserProfile) TableName() string {
	return "user_profile"
}

type CoachProfile struct {
	ID              uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID          uuid.UUID `gorm:"type:uuid;uniqueIndex;not null;column:user_id" json:"user_id"`
	Certifications  string    `gorm:"column:certifications" json:"certifications"`
	ExperienceYears int       `gorm:"column:experience_years" json:"experience_years"`
	Specialties     string    `gorm:"column:specialties" json:"specialties"`
	CreatedAt       time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (CoachProfile) TableName() string {
	return "coach_profile"
}
