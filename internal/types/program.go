package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// AIProgram is one generated 7-day plan. A user keeps history but only one
// program is active; inserts deactivate siblings in the same transaction.
type AIProgram struct {
	ID         uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID     uuid.UUID      `gorm:"type:uuid;index;not null;column:user_id" json:"user_id"`
	Goal       string         `gorm:"not null;column:goal" json:"goal"`
	Difficulty string         `gorm:"not null;default:'beginner';column:difficulty" json:"difficulty"`
	IsActive   bool           `gorm:"not null;default:true;index;column:is_active" json:"is_active"`
	RawJSON    datatypes.JSON `gorm:"column:raw_json" json:"-"`
	CreatedAt  time.Time      `gorm:"not null;default:now()" json:"created_at"`

	Days []ProgramDay `gorm:"foreignKey:ProgramID" json:"week_plan"`
}

func (AIProgram) TableName() string {
	return "ai_program"
}

type ProgramDay struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ProgramID uuid.UUID `gorm:"type:uuid;index;not null;uniqueIndex:uq_program_day;column:program_id" json:"-"`
	DayNumber int       `gorm:"not null;uniqueIndex:uq_program_day;column:day_number" json:"day_number"`
	DayName   string    `gorm:"not null;column:day_name" json:"day_name"`
	Focus     string    `gorm:"column:focus" json:"focus"`
	IsRestDay bool      `gorm:"not null;default:false;column:is_rest_day" json:"is_rest_day"`

	Exercises []Exercise `gorm:"foreignKey:ProgramDayID" json:"sessions"`
}

func (ProgramDay) TableName() string {
	return "program_day"
}

type Exercise struct {
	ID           uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ProgramDayID uuid.UUID `gorm:"type:uuid;index;not null;column:program_day_id" json:"-"`
	Order        int       `gorm:"not null;default:0;column:exercise_order" json:"order"`
	ExerciseName string    `gorm:"not null;column:exercise_name" json:"exercise_name"`
	Sets         int       `gorm:"not null;default:0;column:sets" json:"sets"`
	Reps         string    `gorm:"column:reps" json:"reps"`
	Intensity    string    `gorm:"column:intensity" json:"intensity"`
	Notes        string    `gorm:"column:notes" json:"notes"`
}

func (Exercise) TableName() string {
	return "exercise"
}
