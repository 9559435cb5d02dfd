package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/perfoevolution-backend/internal/http/handlers"
	httpMW "github.com/yungbote/perfoevolution-backend/internal/http/middleware"
	"github.com/yungbote/perfoevolution-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	AuthMiddleware *httpMW.AuthMiddleware

	AuthHandler     *httpH.AuthHandler
	UserHandler     *httpH.UserHandler
	CheckoutHandler *httpH.CheckoutHandler
	CoachHandler    *httpH.CoachHandler
	ProgramHandler  *httpH.ProgramHandler
	HealthHandler   *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware("perfoevolution-backend"))
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.CORS())

	if cfg.HealthHandler != nil {
		r.GET("/healthz", cfg.HealthHandler.HealthCheck)
	}

	// Stripe calls this directly; auth is the signature check inside.
	if cfg.CheckoutHandler != nil {
		r.POST("/stripe_webhook", cfg.CheckoutHandler.Webhook)
	}

	authed := r.Group("/")
	if cfg.AuthMiddleware != nil {
		authed.Use(cfg.AuthMiddleware.RequireAuth())
	}

	if cfg.AuthHandler != nil {
		authed.POST("/auth0-login/", cfg.AuthHandler.Login)
	}

	if cfg.UserHandler != nil {
		authed.GET("/user-info/", cfg.UserHandler.GetInfo)
		authed.GET("/is-coach/", cfg.UserHandler.IsCoach)
		authed.GET("/user-subscription/", cfg.UserHandler.GetSubscription)
		authed.GET("/user-addons/", cfg.UserHandler.GetAddOns)
		authed.POST("/set-username/", cfg.UserHandler.SetUsername)
		authed.POST("/save-profile/", cfg.UserHandler.SaveProfile)
		authed.POST("/downgrade-plan/", cfg.UserHandler.DowngradePlan)
		authed.GET("/user-detail/", cfg.UserHandler.GetInfo)
		authed.PUT("/user-detail/", cfg.UserHandler.UpdateDetail)
		authed.PATCH("/user-detail/", cfg.UserHandler.UpdateDetail)
		authed.DELETE("/user-detail/", cfg.UserHandler.DeleteAccount)
	}

	if cfg.CheckoutHandler != nil {
		authed.POST("/create-checkout-session/", cfg.CheckoutHandler.CreatePlanSession)
		authed.POST("/create-addon-session/", cfg.CheckoutHandler.CreateAddOnSession)
	}

	if cfg.CoachHandler != nil {
		coach := authed.Group("/coach")
		coach.GET("/clients", cfg.CoachHandler.ListClients)
		coach.PUT("/clients/:id", cfg.CoachHandler.UpdateClientProfile)
		coach.PATCH("/clients/:id", cfg.CoachHandler.UpdateClientProfile)
		coach.DELETE("/clients/:id", cfg.CoachHandler.DeleteClient)
		coach.GET("/training", cfg.CoachHandler.ListTraining)
		coach.PATCH("/training/:id", cfg.CoachHandler.UpdateTraining)
		coach.GET("/bookings", cfg.CoachHandler.ListBookings)
		coach.PATCH("/bookings/:id", cfg.CoachHandler.UpdateBooking)
	}

	if cfg.ProgramHandler != nil {
		api := authed.Group("/api")
		api.POST("/program/generate", cfg.ProgramHandler.Generate)
		api.POST("/program/generate-markdown", cfg.ProgramHandler.GenerateMarkdown)
		api.GET("/program/active", cfg.ProgramHandler.Active)
	}

	return r
}
