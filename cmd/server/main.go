// Package main runs the community platform HTTP server with WebSocket push
// and graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/gatherhub/backend/config"
	"github.com/gatherhub/backend/internal/accounts"
	"github.com/gatherhub/backend/internal/attendance"
	"github.com/gatherhub/backend/internal/auth"
	"github.com/gatherhub/backend/internal/events"
	"github.com/gatherhub/backend/internal/middleware"
	"github.com/gatherhub/backend/internal/models"
	"github.com/gatherhub/backend/internal/notifications"
	"github.com/gatherhub/backend/internal/organizers"
	"github.com/gatherhub/backend/internal/plans"
	"github.com/gatherhub/backend/internal/quotas"
	"github.com/gatherhub/backend/internal/realtime"
	"github.com/gatherhub/backend/internal/reports"
	"github.com/gatherhub/backend/internal/workflow"
	"github.com/gatherhub/backend/pkg/database"
	"github.com/gatherhub/backend/pkg/queue"
	"github.com/gatherhub/backend/pkg/redis"
	"github.com/gatherhub/backend/pkg/response"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	// Redis drives the notification queue and WebSocket fan-out across
	// instances. The server degrades to direct delivery without it.
	var jobQueue *queue.Queue
	var redisPubSub *realtime.RedisPubSub
	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Warn("redis unavailable, notifications deliver in-process", zap.Error(err))
	} else {
		defer rdb.Close()
		jobQueue = queue.NewQueue(rdb.Client, logger)
		redisPubSub = realtime.NewRedisPubSub(rdb.Client, logger)
	}

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)

	var hub *realtime.Hub
	if redisPubSub != nil {
		hub = realtime.NewHub(logger, redisPubSub, redisPubSub)
	} else {
		hub = realtime.NewHub(logger, nil, nil)
	}

	// Accounts
	accountsRepo := accounts.NewRepository(pool)
	accountsHandler := accounts.NewHandler(accountsRepo, logger)
	authHandler := auth.NewHandler(accountsRepo, jwtService,
		cfg.Policy.DefaultWeeklyEventQuota, cfg.Policy.DefaultWeeklyPlanQuota, logger)

	// Notifications
	notificationsRepo := notifications.NewRepository(pool)
	var fanout *notifications.Fanout
	if jobQueue != nil {
		fanout = notifications.NewFanout(notificationsRepo, jobQueue, hub, accountsRepo, logger)
	} else {
		fanout = notifications.NewFanout(notificationsRepo, nil, hub, accountsRepo, logger)
	}
	notificationsHandler := notifications.NewHandler(notificationsRepo)

	// Review workflow
	engine := workflow.NewEngine(accountsRepo, fanout, logger)

	// Organizer applications
	organizersRepo := organizers.NewRepository(pool, accountsRepo)
	organizersHandler := organizers.NewHandler(organizersRepo, engine, fanout, logger)
	engine.Register(workflow.KindOrganizerRequest, organizersRepo)

	// Quotas
	quotasRepo := quotas.NewRepository(pool, accountsRepo)
	ledger := quotas.NewLedger(accountsRepo, quotasRepo, quotasRepo)
	quotasHandler := quotas.NewHandler(ledger, quotasRepo, engine, fanout, logger)
	engine.Register(workflow.KindQuotaRequest, quotasRepo)

	// Events
	eventsRepo := events.NewRepository(pool)
	eventsHandler := events.NewHandler(eventsRepo, engine, fanout, cfg.Policy.EventApprovalRequired, logger)
	engine.Register(workflow.KindEvent, eventsRepo)

	// Plans
	plansRepo := plans.NewRepository(pool)
	plansHandler := plans.NewHandler(plansRepo, logger)

	// Attendance (shared manager, one handler per target kind)
	attendanceRepo := attendance.NewRepository(pool)
	attendanceManager := attendance.NewManager(attendanceRepo,
		attendance.NewResolver(eventsRepo, plansRepo), accountsRepo, fanout, logger)
	eventAttendance := attendance.NewHandler(attendanceManager, models.TargetEvent)
	planAttendance := attendance.NewHandler(attendanceManager, models.TargetPlan)

	// Reports
	reportsRepo := reports.NewRepository(pool)
	reportsHandler := reports.NewHandler(reportsRepo, engine, fanout)
	engine.Register(workflow.KindReport, reportsRepo)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	// Health
	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	// Auth (public)
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
	}

	// Protected API (JWT required)
	api := router.Group("")
	api.Use(middleware.JWT(jwtService.ContextClaims))
	{
		api.GET("/auth/me", authHandler.Me)

		// Organizer applications
		api.POST("/organizers/apply", organizersHandler.Apply)
		api.GET("/organizers/application", organizersHandler.MyApplication)

		// Events
		api.GET("/events", eventsHandler.List)
		api.POST("/events", middleware.RequireRole("organizer"), eventsHandler.Create)
		api.GET("/events/:id", eventsHandler.GetByID)
		api.POST("/events/:id/cancel", eventsHandler.Cancel)
		api.POST("/events/:id/apply", eventAttendance.Apply)
		api.DELETE("/events/:id/apply", eventAttendance.Cancel)
		api.GET("/events/:id/applications", eventAttendance.List)
		api.PUT("/events/:id/applications/:appId", eventAttendance.Decide)

		// Plans
		api.GET("/plans", plansHandler.List)
		api.POST("/plans", plansHandler.Create)
		api.GET("/plans/:id", plansHandler.GetByID)
		api.POST("/plans/:id/complete", plansHandler.Complete)
		api.POST("/plans/:id/cancel", plansHandler.Cancel)
		api.POST("/plans/:id/apply", planAttendance.Apply)
		api.DELETE("/plans/:id/apply", planAttendance.Cancel)
		api.GET("/plans/:id/applications", planAttendance.List)
		api.PUT("/plans/:id/applications/:appId", planAttendance.Decide)

		// Quotas
		api.GET("/quotas", quotasHandler.Usage)
		api.POST("/quotas/request", quotasHandler.RequestIncrease)
		api.PATCH("/quotas/:id/status", middleware.RequireRole("admin"), quotasHandler.Decide)

		// Reports
		api.POST("/reports", reportsHandler.Create)
		api.GET("/reports", middleware.RequireRole("admin"), reportsHandler.List)
		api.PUT("/reports/:id/status", middleware.RequireRole("admin"), reportsHandler.Decide)

		// Notifications
		api.GET("/notifications", notificationsHandler.List)
		api.GET("/notifications/unread-count", notificationsHandler.UnreadCount)
		api.PATCH("/notifications/:id/read", notificationsHandler.MarkRead)
		api.PATCH("/notifications/read-all", notificationsHandler.MarkAllRead)

		// Admin
		admin := api.Group("/admin", middleware.RequireRole("admin"))
		{
			admin.GET("/users", accountsHandler.List)
			admin.PATCH("/users/:id/role", accountsHandler.SetRole)
			admin.GET("/organizers/applications", organizersHandler.List)
			admin.POST("/organizers/applications/:id/handle", organizersHandler.Handle)
			admin.GET("/quotas/requests", quotasHandler.ListRequests)
			admin.GET("/events/pending", eventsHandler.ListPending)
			admin.POST("/events/:id/handle", eventsHandler.Handle)
		}
	}

	// WebSocket (token in query; no Authorization header required)
	router.GET("/ws", realtime.ServeWs(hub, logger, jwtService.ContextClaims))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
