// Package router provides HTTP routing, middleware configuration, and server setup for the web application
package router

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"log"
	"os"
	"strings"
	"time"

	"github.com/arazmand/jarchi/app/dto"
	"github.com/arazmand/jarchi/app/handlers"
	"github.com/arazmand/jarchi/app/middleware"
	_ "github.com/arazmand/jarchi/docs"
	"github.com/arazmand/jarchi/utils"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/compress"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/helmet"
	"github.com/gofiber/fiber/v3/middleware/limiter"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/gofiber/fiber/v3/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Router interface for HTTP routing
type Router interface {
	SetupRoutes()
	Start(address string) error
	Shutdown() error
	GetApp() *fiber.App
}

// FiberRouter implements Router using Fiber v3
type FiberRouter struct {
	app                 *fiber.App
	authHandler         handlers.AuthHandlerInterface
	announcementHandler handlers.AnnouncementHandlerInterface
	channelHandler      handlers.ChannelHandlerInterface
	analyticsHandler    handlers.AnalyticsHandlerInterface
	ticketHandler       handlers.TicketHandlerInterface
	trackingHandler     handlers.TrackingHandlerInterface
	authMiddleware      *middleware.AuthMiddleware
	allowOrigins        []string
}

// NewFiberRouter creates a new Fiber router
func NewFiberRouter(
	authHandler handlers.AuthHandlerInterface,
	announcementHandler handlers.AnnouncementHandlerInterface,
	channelHandler handlers.ChannelHandlerInterface,
	analyticsHandler handlers.AnalyticsHandlerInterface,
	ticketHandler handlers.TicketHandlerInterface,
	trackingHandler handlers.TrackingHandlerInterface,
	authMiddleware *middleware.AuthMiddleware,
	allowOrigins []string,
) Router {
	app := fiber.New(fiber.Config{
		AppName:      "Jarchi API",
		ServerHeader: "Jarchi",
		ErrorHandler: errorHandler,
		BodyLimit:    4 * 1024 * 1024, // 4MB
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
		JSONEncoder:  json.Marshal,
		JSONDecoder:  json.Unmarshal,
	})

	return &FiberRouter{
		app:                 app,
		authHandler:         authHandler,
		announcementHandler: announcementHandler,
		channelHandler:      channelHandler,
		analyticsHandler:    analyticsHandler,
		ticketHandler:       ticketHandler,
		trackingHandler:     trackingHandler,
		authMiddleware:      authMiddleware,
		allowOrigins:        allowOrigins,
	}
}

// SetupRoutes configures all application routes
func (r *FiberRouter) SetupRoutes() {
	log.Println("Setting up routes...")

	// Global middleware
	r.setupMiddleware()

	// Public tracking routes. Every click and pixel load from every Telegram
	// client lands here, so they stay outside the API group and its limiter.
	r.app.Get("/t/:code", func(c fiber.Ctx) error {
		middleware.CountClick()
		return r.trackingHandler.Redirect(c)
	})
	r.app.Get("/pixel/:announcementID/:channelID", func(c fiber.Ctx) error {
		middleware.CountPixel()
		return r.trackingHandler.Pixel(c)
	})

	// Prometheus scrape endpoint
	r.app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// API routes
	api := r.app.Group("/api/v1")

	// Health check route (no rate limiting)
	api.Get("/health", r.healthCheck)

	// Swagger spec (development only)
	if os.Getenv("APP_ENV") == "development" || os.Getenv("APP_ENV") == "local" {
		api.Get("/swagger.json", r.serveSwaggerJSON)
		log.Println("API documentation enabled for development")
	}

	// General rate limiting for the dashboard API
	api.Use(limiter.New(limiter.Config{
		Max:        600,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: rateLimitReached,
		Next: func(c fiber.Ctx) bool {
			return c.Path() == "/api/v1/health"
		},
	}))

	// Auth routes with stricter rate limiting
	auth := api.Group("/auth")
	auth.Use(limiter.New(limiter.Config{
		Max:        20,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: rateLimitReached,
	}))
	auth.Post("/login", r.authHandler.Login)

	// Everything below requires a staff access token
	protected := api.Group("", r.authMiddleware.Authenticate())

	announcements := protected.Group("/announcements")
	announcements.Post("", r.announcementHandler.Create)
	announcements.Get("", r.announcementHandler.List)
	announcements.Get("/:uuid", r.announcementHandler.Get)
	announcements.Post("/:uuid/send", r.announcementHandler.Send)

	channels := protected.Group("/channels")
	channels.Post("", r.channelHandler.Register)
	channels.Get("", r.channelHandler.List)

	analytics := protected.Group("/analytics")
	analytics.Get("/dashboard", r.analyticsHandler.Dashboard)
	analytics.Get("/announcements/:uuid/overview", r.analyticsHandler.Overview)
	analytics.Get("/announcements/:uuid/detail", r.analyticsHandler.Detail)
	analytics.Get("/announcements/:uuid/views", r.analyticsHandler.Views)
	analytics.Get("/announcements/:uuid/clicks", r.analyticsHandler.Clicks)
	analytics.Get("/announcements/:uuid/export", r.analyticsHandler.ExportCSV)
	analytics.Get("/announcements/:uuid/export/xlsx", r.analyticsHandler.ExportExcel)

	tickets := protected.Group("/tickets")
	tickets.Post("", r.ticketHandler.Create)
	tickets.Get("", r.ticketHandler.List)
	tickets.Get("/:uuid", r.ticketHandler.Get)
	tickets.Patch("/:uuid", r.ticketHandler.Update)
	tickets.Post("/:uuid/first-response", r.ticketHandler.FirstResponse)

	// Not found handler
	r.app.Use(r.notFoundHandler)

	log.Println("Routes configured successfully")
}

// setupMiddleware configures global middleware
func (r *FiberRouter) setupMiddleware() {
	// Request ID middleware - must be first
	r.app.Use(requestid.New(requestid.Config{
		Header: "X-Request-ID",
		Generator: func() string {
			return generateRequestID()
		},
	}))

	// Security headers middleware
	r.app.Use(helmet.New(helmet.Config{
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		HSTSMaxAge:            31536000, // 1 year
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		XDNSPrefetchControl:   "off",
		XDownloadOptions:      "noopen",
		XPermittedCrossDomain: "none",
	}))

	// CORS middleware; origins come from configuration so staging and
	// production dashboards can differ
	r.app.Use(cors.New(cors.Config{
		AllowOrigins: r.allowOrigins,
		AllowMethods: []string{
			"GET", "POST", "PATCH", "HEAD", "OPTIONS",
		},
		AllowHeaders: []string{
			"Origin",
			"Content-Type",
			"Accept",
			"Authorization",
			"X-Requested-With",
			"X-Request-ID",
			"Cache-Control",
		},
		ExposeHeaders: []string{
			"X-Request-ID",
			"Content-Disposition",
		},
		AllowCredentials: true,
		MaxAge:           utils.CORSMaxAge,
	}))

	// Compression middleware for performance. The tracking pixel must go out
	// uncompressed and unmodified.
	r.app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
		Next: func(c fiber.Ctx) bool {
			return strings.HasPrefix(c.Path(), "/pixel/") ||
				strings.Contains(c.Get("Content-Type"), "image/")
		},
	}))

	// Prometheus request metrics
	r.app.Use(middleware.Metrics())

	// Structured access logging
	r.app.Use(logger.New(logger.Config{
		Format:     `{"time":"${time}","pid":"${pid}","request_id":"${locals:requestid}","level":"info","method":"${method}","path":"${path}","protocol":"${protocol}","ip":"${ip}","user_agent":"${ua}","status":${status},"latency":"${latency}","bytes_in":${bytesReceived},"bytes_out":${bytesSent},"referer":"${referer}"}` + "\n",
		TimeFormat: time.RFC3339,
		TimeZone:   "UTC",
		Next: func(c fiber.Ctx) bool {
			// Health checks and pixel loads are too chatty to log
			return c.Path() == "/api/v1/health" || strings.HasPrefix(c.Path(), "/pixel/")
		},
	}))

	// Recovery middleware with custom error handling
	r.app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
		StackTraceHandler: func(c fiber.Ctx, e interface{}) {
			log.Printf(`{"time":"%s","level":"error","request_id":"%s","event":"panic","error":"%v","path":"%s","method":"%s","ip":"%s"}`,
				utils.UTCNow().Format(time.RFC3339),
				c.Locals("requestid"),
				e,
				c.Path(),
				c.Method(),
				c.IP(),
			)
		},
	}))
}

// Start starts the HTTP server
func (r *FiberRouter) Start(address string) error {
	log.Printf("Starting server on %s", address)
	return r.app.Listen(address)
}

// Shutdown gracefully stops the HTTP server
func (r *FiberRouter) Shutdown() error {
	return r.app.Shutdown()
}

// GetApp returns the Fiber app instance
func (r *FiberRouter) GetApp() *fiber.App {
	return r.app
}

// Health check endpoint
func (r *FiberRouter) healthCheck(c fiber.Ctx) error {
	return c.JSON(dto.APIResponse{
		Success: true,
		Message: "Service is healthy",
		Data: fiber.Map{
			"status":    "ok",
			"timestamp": utils.UTCNow().Unix(),
			"version":   "1.0.0",
			"service":   "jarchi-api",
		},
	})
}

// Serve Swagger JSON specification
func (r *FiberRouter) serveSwaggerJSON(c fiber.Ctx) error {
	swaggerData, err := os.ReadFile("docs/swagger.json")
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.APIResponse{
			Success: false,
			Message: "Failed to load Swagger documentation",
			Error: dto.ErrorDetail{
				Code: "SWAGGER_LOAD_ERROR",
			},
		})
	}

	c.Set("Content-Type", "application/json")
	return c.Send(swaggerData)
}

// Not found handler
func (r *FiberRouter) notFoundHandler(c fiber.Ctx) error {
	requestID := c.Locals("requestid")

	return c.Status(fiber.StatusNotFound).JSON(dto.APIResponse{
		Success: false,
		Message: "The requested resource was not found",
		Error: dto.ErrorDetail{
			Code: "NOT_FOUND",
			Details: fiber.Map{
				"path":       c.Path(),
				"method":     c.Method(),
				"request_id": requestID,
			},
		},
	})
}

func rateLimitReached(c fiber.Ctx) error {
	return c.Status(fiber.StatusTooManyRequests).JSON(dto.APIResponse{
		Success: false,
		Message: "Too many requests. Please try again later.",
		Error: dto.ErrorDetail{
			Code: "RATE_LIMIT_EXCEEDED",
		},
	})
}

// Global error handler
func errorHandler(c fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	log.Printf("Error %d: %v", code, err)

	requestID := c.Locals("requestid")

	return c.Status(code).JSON(dto.APIResponse{
		Success: false,
		Message: "An internal server error occurred",
		Error: dto.ErrorDetail{
			Code: "INTERNAL_ERROR",
			Details: fiber.Map{
				"timestamp":  utils.UTCNow().Unix(),
				"request_id": requestID,
			},
		},
	})
}

// generateRequestID creates a unique request ID
func generateRequestID() string {
	bytes := make([]byte, 8)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)
}
