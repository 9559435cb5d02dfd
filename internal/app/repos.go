package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/perfoevolution-backend/internal/platform/logger"
	"github.com/yungbote/perfoevolution-backend/internal/repos"
)

type Repos struct {
	Users         repos.UserRepo
	Profiles      repos.ProfileRepo
	Subscriptions repos.SubscriptionRepo
	AddOns        repos.AddOnRepo
	Training      repos.TrainingProgressRepo
	Bookings      repos.BookingRepo
	Programs      repos.ProgramRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	return Repos{
		Users:         repos.NewUserRepo(db, log),
		Profiles:      repos.NewProfileRepo(db, log),
		Subscriptions: repos.NewSubscriptionRepo(db, log),
		AddOns:        repos.NewAddOnRepo(db, log),
		Training:      repos.NewTrainingProgressRepo(db, log),
		Bookings:      repos.NewBookingRepo(db, log),
		Programs:      repos.NewProgramRepo(db, log),
	}
}
