package handler

import (
	"time"

	"guardian/internal/cache"
	"guardian/internal/catalog"
	"guardian/internal/config"
	"guardian/internal/middleware"
	"guardian/internal/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Deps are the process-wide collaborators the routes are built from.
type Deps struct {
	Config  *config.Config
	DB      *gorm.DB
	Cache   cache.Cache
	Catalog *catalog.Catalog
}

func NewRouter(d Deps) *gin.Engine {
	cfg := d.Config
	tokens := middleware.NewTokens(cfg.Auth.JWTSecret, cfg.TokenTTL())

	profileSvc := service.NewProfileService(d.DB, d.Cache)
	dashboardSvc := service.NewDashboardService(d.DB, d.Cache, cfg.DashboardTTL())

	authH := NewAuthHandler(service.NewAuthService(d.DB), profileSvc, tokens)
	goalH := NewGoalHandler(service.NewGoalService(d.DB, d.Catalog, d.Cache), d.Catalog)
	journalH := NewJournalHandler(service.NewJournalService(d.DB, d.Catalog, d.Cache), d.Catalog)
	assessH := NewAssessmentHandler(service.NewAssessmentService(d.DB, d.Catalog, d.Cache), d.Catalog)
	ivH := NewInterventionHandler(service.NewInterventionService(d.DB, d.Catalog, d.Cache), d.Catalog)
	nucalmH := NewNucalmHandler(service.NewNucalmService(d.DB, d.Catalog, d.Cache), d.Catalog)
	libraryH := NewLibraryHandler(service.NewLibraryService(d.DB, d.Catalog), d.Catalog)
	profileH := NewProfileHandler(profileSvc, dashboardSvc)
	chatH := NewChatHandler(service.NewCoachService(cfg.Coach, d.Catalog.CoachPrompt), d.Catalog)
	voiceH := NewVoiceHandler(service.NewRealtimeService(cfg.Realtime, d.Catalog), d.Catalog)

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", HeaderTimezone, middleware.HeaderRequestID},
		ExposeHeaders:    []string{"X-New-Token", middleware.HeaderRequestID},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.POST("/api/auth/signup", authH.Signup)
	r.POST("/api/login", authH.Login)

	api := r.Group("/api", middleware.JWTAuth(tokens))
	api.POST("/logout", authH.Logout)

	api.GET("/profile", profileH.Get)
	api.PUT("/profile", profileH.Update)
	api.GET("/dashboard", profileH.Dashboard)

	api.GET("/goals", goalH.List)
	api.POST("/goals", goalH.Create)
	api.GET("/goals/stats", goalH.Stats)
	api.GET("/goals/categories", goalH.Categories)
	api.GET("/goals/:id", goalH.Get)
	api.PUT("/goals/:id", goalH.Update)
	api.DELETE("/goals/:id", goalH.Delete)
	api.POST("/goals/:id/toggle", goalH.Toggle)
	api.PUT("/goals/:id/progress", goalH.Progress)

	api.GET("/journal", journalH.List)
	api.POST("/journal", journalH.Create)
	api.GET("/journal/stats", journalH.Stats)
	api.GET("/journal/prompts", journalH.Prompts)
	api.PUT("/journal/:id", journalH.Update)
	api.DELETE("/journal/:id", journalH.Delete)

	api.GET("/assessments", assessH.Definitions)
	api.GET("/assessments/responses", assessH.Responses)
	api.GET("/assessments/responses/latest", assessH.Latest)
	api.GET("/assessments/:type", assessH.Definition)
	api.POST("/assessments/:type/responses", assessH.Submit)

	api.GET("/interventions", ivH.List)
	api.GET("/interventions/completions", ivH.Completions)
	api.GET("/interventions/stats", ivH.Stats)
	api.GET("/interventions/:id", ivH.Get)
	api.POST("/interventions/:id/completions", ivH.Complete)

	api.GET("/nucalm", nucalmH.List)
	api.POST("/nucalm", nucalmH.Create)
	api.GET("/nucalm/stats", nucalmH.Stats)
	api.GET("/nucalm/types", nucalmH.Types)
	api.PUT("/nucalm/:id", nucalmH.Update)
	api.DELETE("/nucalm/:id", nucalmH.Delete)

	api.GET("/library", libraryH.List)
	api.GET("/library/progress", libraryH.Progress)
	api.GET("/library/:id", libraryH.Get)
	api.POST("/library/:id/read", libraryH.MarkRead)
	api.DELETE("/library/:id/read", libraryH.Unread)

	api.POST("/chat", chatH.Chat)
	api.POST("/chat/stream", chatH.ChatStream)
	api.GET("/coach/prompts", chatH.Prompts)

	api.POST("/voice/session", voiceH.Session)
	api.GET("/voice/languages", voiceH.Languages)

	return r
}
