package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/perfoevolution-backend/internal/platform/gemini"
	"github.com/yungbote/perfoevolution-backend/internal/platform/logger"
	"github.com/yungbote/perfoevolution-backend/internal/repos"
	"github.com/yungbote/perfoevolution-backend/internal/types"
)

const programDays = 7

// ProgramService generates and stores AI workout programs. Generation is
// profile-driven: without a completed onboarding profile there is nothing to
// prompt with.
type ProgramService interface {
	// GenerateMarkdown produces a free-form plan for quick preview.
	GenerateMarkdown(ctx context.Context, userID uuid.UUID) (string, error)

	// GenerateStructured produces, validates and persists a 7-day
	// program, deactivating the user's previous one.
	GenerateStructured(ctx context.Context, userID uuid.UUID) (*types.AIProgram, error)

	ActiveProgram(ctx context.Context, userID uuid.UUID) (*types.AIProgram, error)
}

type programService struct {
	db       *gorm.DB
	users    repos.UserRepo
	profiles repos.ProfileRepo
	programs repos.ProgramRepo
	ai       gemini.Client
	log      *logger.Logger
}

func NewProgramService(db *gorm.DB, users repos.UserRepo, profiles repos.ProfileRepo, programs repos.ProgramRepo, ai gemini.Client, baseLog *logger.Logger) ProgramService {
	return &programService{
		db:       db,
		users:    users,
		profiles: profiles,
		programs: programs,
		ai:       ai,
		log:      baseLog.With("service", "ProgramService"),
	}
}

func (s *programService) loadProfile(ctx context.Context, userID uuid.UUID) (*types.UserProfile, error) {
	if _, err := s.users.GetByID(ctx, nil, userID); err != nil {
		return nil, translateDBError(err)
	}
	profile, err := s.profiles.GetUserProfile(ctx, nil, userID)
	if err != nil {
		if errors.Is(translateDBError(err), ErrNotFound) {
			return nil, errors.Join(ErrValidation, errors.New("profile incomplete"))
		}
		return nil, translateDBError(err)
	}
	return profile, nil
}

func profilePrompt(p *types.UserProfile) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Age: %d\n", p.Age)
	fmt.Fprintf(&b, "Height: %d cm\n", p.HeightCm)
	fmt.Fprintf(&b, "Weight: %.1f kg\n", p.WeightKg)
	fmt.Fprintf(&b, "Fitness level: %s\n", p.FitnessLevel)
	fmt.Fprintf(&b, "Primary goal: %s\n", p.PrimaryGoal)
	fmt.Fprintf(&b, "Workout frequency: %s\n", p.WorkoutFrequency)
	fmt.Fprintf(&b, "Daily activity level: %s\n", p.DailyActivityLevel)
	fmt.Fprintf(&b, "Sleep: %d hours\n", p.SleepHours)
	if p.BodyFatPercentage != nil {
		fmt.Fprintf(&b, "Body fat: %.1f%%\n", *p.BodyFatPercentage)
	}
	if p.BodyType != "" {
		fmt.Fprintf(&b, "Body type: %s\n", p.BodyType)
	}
	return b.String()
}

const markdownSystemPrompt = "You are a professional fitness coach. Produce a complete 7-day workout program in markdown. " +
	"Include warm-ups, exercises with sets and reps, and rest days appropriate to the athlete's level."

func (s *programService) GenerateMarkdown(ctx context.Context, userID uuid.UUID) (string, error) {
	profile, err := s.loadProfile(ctx, userID)
	if err != nil {
		return "", err
	}

	text, err := s.ai.GenerateText(ctx, markdownSystemPrompt, "Athlete profile:\n"+profilePrompt(profile))
	if err != nil {
		s.log.Error("Program generation failed", "user_id", userID.String(), "error", err)
		return "", errors.Join(ErrUpstream, err)
	}
	if strings.TrimSpace(text) == "" {
		return "", ErrUpstream
	}
	return text, nil
}

const structuredSystemPrompt = "You are a professional fitness coach. Design a 7-day workout program for the athlete. " +
	"Return exactly seven days. Rest days have is_rest_day true and an empty session list."

// programSchema constrains the model output to the shape the tables expect.
func programSchema() map[string]any {
	session := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"exercise_name": map[string]any{"type": "string"},
			"sets":          map[string]any{"type": "integer"},
			"reps":          map[string]any{"type": "string"},
			"intensity":     map[string]any{"type": "string"},
			"notes":         map[string]any{"type": "string"},
		},
		"required": []string{"exercise_name", "sets", "reps"},
	}
	day := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"day_name":    map[string]any{"type": "string"},
			"focus":       map[string]any{"type": "string"},
			"is_rest_day": map[string]any{"type": "boolean"},
			"sessions":    map[string]any{"type": "array", "items": session},
		},
		"required": []string{"day_name", "is_rest_day", "sessions"},
	}
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"program_summary": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"goal":       map[string]any{"type": "string"},
					"difficulty": map[string]any{"type": "string"},
				},
				"required": []string{"goal", "difficulty"},
			},
			"week_plan": map[string]any{"type": "array", "items": day},
		},
		"required": []string{"program_summary", "week_plan"},
	}
}

type programPayload struct {
	ProgramSummary struct {
		Goal       string `json:"goal"`
		Difficulty string `json:"difficulty"`
	} `json:"program_summary"`
	WeekPlan []struct {
		DayName   string `json:"day_name"`
		Focus     string `json:"focus"`
		IsRestDay bool   `json:"is_rest_day"`
		Sessions  []struct {
			ExerciseName string `json:"exercise_name"`
			Sets         int    `json:"sets"`
			Reps         string `json:"reps"`
			Intensity    string `json:"intensity"`
			Notes        string `json:"notes"`
		} `json:"sessions"`
	} `json:"week_plan"`
}

// validateWeekShape rejects model output whose days or sessions lack the
// required keys. Decoding into structs alone would paper over missing
// fields with zero values, so the keys are checked on the raw JSON.
func validateWeekShape(raw []byte) error {
	var shape struct {
		WeekPlan []map[string]json.RawMessage `json:"week_plan"`
	}
	if err := json.Unmarshal(raw, &shape); err != nil {
		return err
	}
	for i, day := range shape.WeekPlan {
		for _, key := range []string{"day_name", "focus", "is_rest_day", "sessions"} {
			if _, ok := day[key]; !ok {
				return fmt.Errorf("day %d missing %q", i+1, key)
			}
		}
		var sessions []map[string]json.RawMessage
		if err := json.Unmarshal(day["sessions"], &sessions); err != nil {
			return fmt.Errorf("day %d sessions: %w", i+1, err)
		}
		for j, session := range sessions {
			for _, key := range []string{"exercise_name", "sets", "reps"} {
				if _, ok := session[key]; !ok {
					return fmt.Errorf("day %d session %d missing %q", i+1, j+1, key)
				}
			}
		}
	}
	return nil
}

func (s *programService) GenerateStructured(ctx context.Context, userID uuid.UUID) (*types.AIProgram, error) {
	profile, err := s.loadProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	obj, err := s.ai.GenerateJSON(ctx, structuredSystemPrompt, "Athlete profile:\n"+profilePrompt(profile), programSchema())
	if err != nil {
		s.log.Error("Structured program generation failed", "user_id", userID.String(), "error", err)
		return nil, errors.Join(ErrUpstream, err)
	}

	raw, err := json.Marshal(obj)
	if err != nil {
		return nil, errors.Join(ErrUpstream, err)
	}
	var payload programPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, errors.Join(ErrUpstream, err)
	}
	if len(payload.WeekPlan) != programDays {
		s.log.Error("Model returned wrong week length",
			"user_id", userID.String(),
			"days", len(payload.WeekPlan),
		)
		return nil, errors.Join(ErrUpstream, fmt.Errorf("expected %d days, got %d", programDays, len(payload.WeekPlan)))
	}
	if err := validateWeekShape(raw); err != nil {
		s.log.Error("Model returned malformed week plan", "user_id", userID.String(), "error", err)
		return nil, errors.Join(ErrUpstream, err)
	}

	program := &types.AIProgram{
		ID:         uuid.New(),
		UserID:     userID,
		Goal:       payload.ProgramSummary.Goal,
		Difficulty: payload.ProgramSummary.Difficulty,
		IsActive:   true,
		RawJSON:    datatypes.JSON(raw),
	}
	if program.Difficulty == "" {
		program.Difficulty = "beginner"
	}
	for i, day := range payload.WeekPlan {
		pd := types.ProgramDay{
			ID:        uuid.New(),
			ProgramID: program.ID,
			DayNumber: i + 1,
			DayName:   day.DayName,
			Focus:     day.Focus,
			IsRestDay: day.IsRestDay,
		}
		for j, session := range day.Sessions {
			pd.Exercises = append(pd.Exercises, types.Exercise{
				ID:           uuid.New(),
				ProgramDayID: pd.ID,
				Order:        j + 1,
				ExerciseName: session.ExerciseName,
				Sets:         session.Sets,
				Reps:         session.Reps,
				Intensity:    session.Intensity,
				Notes:        session.Notes,
			})
		}
		program.Days = append(program.Days, pd)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.programs.DeactivateByUser(ctx, tx, userID); err != nil {
			return translateDBError(err)
		}
		return translateDBError(s.programs.Create(ctx, tx, program))
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Program generated",
		"user_id", userID.String(),
		"program_id", program.ID.String(),
		"goal", program.Goal,
	)
	return program, nil
}

func (s *programService) ActiveProgram(ctx context.Context, userID uuid.UUID) (*types.AIProgram, error) {
	program, err := s.programs.GetActiveByUser(ctx, nil, userID)
	if err != nil {
		return nil, translateDBError(err)
	}
	return program, nil
}
