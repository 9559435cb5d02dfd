package db

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/yungbote/perfoevolution-backend/internal/platform/envutil"
	"github.com/yungbote/perfoevolution-backend/internal/platform/logger"
	"github.com/yungbote/perfoevolution-backend/internal/types"
)

type PostgresService struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPostgresService(log *logger.Logger) (*PostgresService, error) {
	serviceLog := log.With("service", "PostgresService")

	postgresHost := envutil.String("POSTGRES_HOST", "localhost")
	postgresPort := envutil.String("POSTGRES_PORT", "5432")
	postgresUser := envutil.String("POSTGRES_USER", "postgres")
	postgresPassword := envutil.String("POSTGRES_PASSWORD", "")
	postgresName := envutil.String("POSTGRES_NAME", "perfoevolution")

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", postgresUser, postgresPassword, postgresHost, postgresPort, postgresName)

	serviceLog.Info("Connecting to Postgres...")
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		serviceLog.Error("Failed to connect to Postgres", "error", err)
		return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
	}

	if err := gdb.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`).Error; err != nil {
		serviceLog.Error("Failed to enable uuid-ossp extension", "error", err)
		return nil, fmt.Errorf("failed to enable uuid-ossp extension: %w", err)
	}

	return &PostgresService{db: gdb, log: serviceLog}, nil
}

func (s *PostgresService) AutoMigrateAll() error {
	s.log.Info("Auto migrating postgres tables...")
	err := s.db.AutoMigrate(
		&types.User{},
		&types.UserProfile{},
		&types.CoachProfile{},
		&types.Subscription{},
		&types.AddOn{},
		&types.CoachTrainingProgress{},
		&types.CoachBooking{},
		&types.AIProgram{},
		&types.ProgramDay{},
		&types.Exercise{},
	)
	if err != nil {
		s.log.Error("Auto migration failed for postgres tables", "error", err)
		return err
	}
	s.log.Info("Configuring foreign key relationships for postgres tables...")
	for _, fk := range []struct {
		table      string
		constraint string
		column     string
		refTable   string
	}{
		{"user_profile", "fk_user_profile_user_id", "user_id", "user"},
		{"coach_profile", "fk_coach_profile_user_id", "user_id", "user"},
		{"subscription", "fk_subscription_user_id", "user_id", "user"},
		{"add_on", "fk_add_on_user_id", "user_id", "user"},
		{"coach_training_progress", "fk_coach_training_progress_user_id", "user_id", "user"},
		{"coach_training_progress", "fk_coach_training_progress_coach_id", "coach_id", "user"},
		{"coach_training_progress", "fk_coach_training_progress_add_on_id", "add_on_id", "add_on"},
		{"coach_booking", "fk_coach_booking_user_id", "user_id", "user"},
		{"coach_booking", "fk_coach_booking_coach_id", "coach_id", "user"},
		{"coach_booking", "fk_coach_booking_add_on_id", "add_on_id", "add_on"},
		{"ai_program", "fk_ai_program_user_id", "user_id", "user"},
		{"program_day", "fk_program_day_program_id", "program_id", "ai_program"},
		{"exercise", "fk_exercise_program_day_id", "program_day_id", "program_day"},
	} {
		stmt := fmt.Sprintf(`
			ALTER TABLE %q
			DROP CONSTRAINT IF EXISTS %q;
			ALTER TABLE %q
			ADD CONSTRAINT %q
			FOREIGN KEY (%q)
			REFERENCES %q("id")
			ON DELETE CASCADE
		`, fk.table, fk.constraint, fk.table, fk.constraint, fk.column, fk.refTable)
		if err := s.db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("failed to add %s: %w", fk.constraint, err)
		}
	}
	return nil
}

func (s *PostgresService) DB() *gorm.DB {
	return s.db
}
