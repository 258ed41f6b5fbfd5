// Package main provides the main entry point for the Jarchi announcement dashboard backend
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/arazmand/jarchi/app/handlers"
	"github.com/arazmand/jarchi/app/middleware"
	"github.com/arazmand/jarchi/app/router"
	"github.com/arazmand/jarchi/app/scheduler"
	"github.com/arazmand/jarchi/app/services"
	businessflow "github.com/arazmand/jarchi/business_flow"
	"github.com/arazmand/jarchi/config"
	_ "github.com/arazmand/jarchi/docs"
	"github.com/arazmand/jarchi/models"
	"github.com/arazmand/jarchi/repository"
	"github.com/gofiber/fiber/v3"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Application represents the main application structure
type Application struct {
	router    *router.FiberRouter
	config    *config.ProductionConfig
	server    *fiber.App
	stopFuncs []func()
}

func main() {
	log.Println("Starting Jarchi application...")

	// Load production configuration
	cfg, err := config.LoadProductionConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize application
	app, err := initializeApplication(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	// Setup routes
	app.router.SetupRoutes()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Start server in goroutine
	go func() {
		address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		log.Printf("Server starting on %s", address)

		if err := app.server.Listen(address); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for shutdown signal
	<-sigChan
	log.Println("Shutting down gracefully...")

	// Stop background workers
	for _, fn := range app.stopFuncs {
		fn()
	}

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := app.server.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}

	log.Println("Server stopped")
}

// initializeDatabase initializes the database connection with connection pooling
func initializeDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, cfg.SSLMode)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get underlying sql.DB for connection pooling configuration
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// Configure connection pooling
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	// Test the connection
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Printf("Database connection established with %d max open connections, %d max idle connections",
		cfg.MaxOpenConns, cfg.MaxIdleConns)

	return db, nil
}

// initializeCache initializes the Cache client and verifies connectivity
func initializeCache(cfg config.CacheConfig) (*redis.Client, error) {
	if !cfg.Enabled || cfg.Provider != "redis" {
		return nil, nil
	}

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	// Override DB if provided in config
	opt.DB = cfg.RedisDB

	rc := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rc.Ping(ctx).Err(); err != nil {
		_ = rc.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	log.Printf("Redis connection established to %s (db=%d)", cfg.RedisURL, cfg.RedisDB)
	return rc, nil
}

// startCacheHealthMonitor starts a background goroutine that periodically pings Redis
// to detect connectivity issues. The returned cancel function stops the monitor.
func startCacheHealthMonitor(parent context.Context, client *redis.Client, interval time.Duration) func() {
	monitorCtx, cancel := context.WithCancel(parent)
	if client == nil {
		return cancel
	}
	if interval <= 0 {
		interval = 30 * time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-monitorCtx.Done():
				return
			case <-ticker.C:
				ctx, c := context.WithTimeout(context.Background(), 3*time.Second)
				if err := client.Ping(ctx).Err(); err != nil {
					log.Printf("Redis healthcheck failed: %v", err)
				}
				c()
			}
		}
	}()
	return cancel
}

// initializeApplication initializes the main application components
func initializeApplication(cfg *config.ProductionConfig) (*Application, error) {
	var stopFuncs []func()

	// Initialize database
	db, err := initializeDatabase(cfg.Database)
	if err != nil {
		return nil, err
	}

	rc, err := initializeCache(cfg.Cache)
	if err != nil {
		return nil, err
	}

	cancel := startCacheHealthMonitor(context.Background(), rc, 30*time.Second)
	stopFuncs = append(stopFuncs, cancel)

	// Seed the first staff account if configured
	if err := ensureBootstrapStaff(db); err != nil {
		return nil, err
	}

	// Initialize repositories
	staffRepo := repository.NewStaffRepository(db)
	channelRepo := repository.NewChannelRepository(db)
	announcementRepo := repository.NewAnnouncementRepository(db)
	targetRepo := repository.NewAnnouncementTargetRepository(db)
	linkRepo := repository.NewTrackedLinkRepository(db)
	clickRepo := repository.NewLinkClickRepository(db)
	pixelRepo := repository.NewPixelViewRepository(db)
	ticketRepo := repository.NewTicketRepository(db)

	// Initialize services
	tokenService, err := services.NewTokenService(
		cfg.JWT.AccessTokenTTL,
		cfg.JWT.RefreshTokenTTL,
		cfg.JWT.Issuer,
		cfg.JWT.Audience,
		cfg.JWT.SecretKey,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token service: %w", err)
	}
	log.Printf("Token service initialized with issuer: %s, audience: %s", cfg.JWT.Issuer, cfg.JWT.Audience)

	telegramClient := services.NewTelegramClient(cfg.Telegram.APIBaseURL, cfg.Telegram.BotToken, cfg.Telegram.Timeout)
	geoService := services.NewGeolocationService(cfg.Geolocation.ProviderURL, cfg.Geolocation.Timeout, cfg.Geolocation.CacheTTL, rc)

	// Initialize flows
	shortLinkFlow := businessflow.NewShortLinkFlow(linkRepo)
	rewriterFlow := businessflow.NewContentRewriterFlow(shortLinkFlow, cfg.Tracking.BaseURL)
	channelFlow := businessflow.NewChannelFlow(channelRepo, telegramClient)
	announcementFlow := businessflow.NewAnnouncementFlow(announcementRepo, targetRepo, channelRepo, db)
	dispatchFlow := businessflow.NewDispatchFlow(announcementRepo, targetRepo, rewriterFlow, telegramClient)
	engagementFlow := businessflow.NewEngagementFlow(shortLinkFlow, clickRepo, pixelRepo, targetRepo, geoService, db)
	analyticsFlow := businessflow.NewAnalyticsFlow(announcementRepo, targetRepo, linkRepo, clickRepo, pixelRepo)
	ticketFlow := businessflow.NewTicketFlow(ticketRepo)
	loginFlow := businessflow.NewLoginFlow(staffRepo, tokenService)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(loginFlow)
	announcementHandler := handlers.NewAnnouncementHandler(announcementFlow, dispatchFlow)
	channelHandler := handlers.NewChannelHandler(channelFlow)
	analyticsHandler := handlers.NewAnalyticsHandler(analyticsFlow)
	ticketHandler := handlers.NewTicketHandler(ticketFlow)
	trackingHandler := handlers.NewTrackingHandler(engagementFlow)

	// Initialize auth middleware
	authMiddleware := middleware.NewAuthMiddleware(tokenService)

	// Initialize router
	appRouter := router.NewFiberRouter(
		authHandler,
		announcementHandler,
		channelHandler,
		analyticsHandler,
		ticketHandler,
		trackingHandler,
		authMiddleware,
		cfg.Security.AllowedOrigins,
	)

	if cfg.Scheduler.Enabled {
		sched := scheduler.NewAnnouncementScheduler(
			announcementRepo,
			dispatchFlow,
			channelFlow,
			cfg.Scheduler.Interval,
			cfg.Scheduler.MemberRefreshInterval,
		)
		stopScheduler := sched.Start(context.Background())
		stopFuncs = append(stopFuncs, stopScheduler)
	}

	// Create application struct from FiberRouter
	fiberRouter := appRouter.(*router.FiberRouter)
	application := &Application{
		router:    fiberRouter,
		config:    cfg,
		server:    fiberRouter.GetApp(),
		stopFuncs: stopFuncs,
	}

	return application, nil
}

// ensureBootstrapStaff creates the initial staff account from
// BOOTSTRAP_STAFF_USERNAME / BOOTSTRAP_STAFF_PASSWORD when no such account
// exists yet. Without it a fresh deployment has no way to log in.
func ensureBootstrapStaff(db *gorm.DB) error {
	username := os.Getenv("BOOTSTRAP_STAFF_USERNAME")
	password := os.Getenv("BOOTSTRAP_STAFF_PASSWORD")
	if username == "" || password == "" {
		return nil
	}

	staffRepo := repository.NewStaffRepository(db)
	existing, err := staffRepo.ByUsername(context.Background(), username)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}

	s := models.Staff{
		Username: username,
		Role:     "admin",
	}
	if err := s.SetPassword(password); err != nil {
		return err
	}
	if err := staffRepo.Save(context.Background(), &s); err != nil {
		return err
	}
	log.Printf("Bootstrap staff account %q created", username)
	return nil
}
