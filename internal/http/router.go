// Package httpapi wires the HTTP transport (Gin) to the workflow services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging with token redaction, panic recovery,
// metrics, compression, CORS, security headers, and rate limiting.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - Email-link routes exempt from rate limiting (token-gated already)
package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/umiddey/propertyflow-backend/internal/config"
	"github.com/umiddey/propertyflow-backend/internal/http/handlers"
	"github.com/umiddey/propertyflow-backend/internal/http/middleware"
	"github.com/umiddey/propertyflow-backend/internal/mail"
	"github.com/umiddey/propertyflow-backend/internal/services"
)

// Services bundles the wired application services so callers (main, tests)
// can reach the non-HTTP entry points, notably the completion sweeps.
type Services struct {
	Requests    *services.RequestService
	Contractors *services.ContractorService
	Completion  *services.CompletionService
	Notifier    *services.NotificationService
}

// BuildServices constructs the full service graph on top of db and mailer.
func BuildServices(db *gorm.DB, mailer mail.Mailer, cfg config.Config) *Services {
	licenses := services.NewLicenseService(db)
	matcher := services.NewMatchingService(db, licenses)
	notifier := services.NewNotificationService(db, mailer, cfg.PublicBase, cfg.Workflow.AutoConfirmAfter)
	return &Services{
		Requests:    services.NewRequestService(db, matcher, notifier, cfg.Workflow.MaxMatchResults, cfg.Workflow.ConfirmationLinkTTL),
		Contractors: services.NewContractorService(db, licenses),
		Completion:  services.NewCompletionService(db, notifier, cfg.Workflow.AutoConfirmAfter, cfg.Workflow.ConfirmationWindow),
		Notifier:    notifier,
	}
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine and mounts the versioned API under cfg.APIBasePath.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. Logger: structured logs with workflow-token redaction
//  4. Recovery: capture panics after logger
//  5. Body size limiter (uploads get their own multipart cap)
//  6. Metrics
//  7. Rate limiter (per user/IP; link routes exempt)
//  8. CORS and security headers
func RegisterRoutes(r *gin.Engine, svc *Services, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging; scheduling/invoice/confirmation tokens are
	//    scrubbed from paths and query strings before they hit the logs.
	r.Use(middleware.Logger())

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit; generous enough for the multipart invoice
	//    upload, which is additionally capped per-file by the handler.
	r.Use(limitBody(cfg.Workflow.MaxUploadBytes + 1<<20))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) Token-bucket rate limiter per user/IP
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())

	// 8) CORS posture (safe defaults: allow all if none configured)
	if len(cfg.CORS.AllowedOrigins) == 0 {
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-User-ID"},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-User-ID"},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	// Compress JSON responses; request listings benefit the most.
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	h := handlers.New(svc.Requests, svc.Contractors, cfg.Workflow.MaxUploadBytes, cfg.UploadDir)

	api := groupWithPrefix(r, cfg.APIBasePath)
	api.Use(rl.Handler())
	{
		// Admin: service requests
		api.GET("/requests", h.ListRequests)
		api.GET("/requests/:id", h.GetRequest)
		api.POST("/requests/:id/approve", h.ApproveRequest)
		api.POST("/requests/:id/complete", h.CompleteRequest)
		api.DELETE("/requests/:id", h.ArchiveRequest)

		// Admin: contractor directory
		api.POST("/contractors", h.CreateContractor)
		api.GET("/contractors/:id", h.GetContractor)
		api.POST("/contractors/:id/licenses", h.AddLicense)
		api.GET("/contractors/:id/licenses", h.ListLicenses)

		// Tenant portal
		api.POST("/portal/requests", h.SubmitRequest)
		api.GET("/portal/requests", h.MyRequests)
		api.GET("/portal/requests/:id", h.MyRequest)
		api.POST("/portal/requests/:id/complete", h.CompleteMyRequest)
		api.POST("/portal/requests/:id/photos", h.UploadRequestPhoto)
	}

	// Email-link endpoints: token-gated, reached by humans clicking mail
	// links, so they bypass the per-IP limiter.
	links := groupWithPrefix(r, cfg.APIBasePath)
	links.Use(middleware.ExemptFromRateLimit(), rl.Handler())
	{
		links.GET("/portal/confirm-completion", h.ConfirmCompletion)

		links.GET("/contractor/schedule/:token", h.GetSchedule)
		links.POST("/contractor/schedule/:token", h.RespondSchedule)
		links.GET("/contractor/invoice/:token", h.GetInvoiceContext)
		links.POST("/contractor/invoice/:token", h.SubmitInvoice)
		links.POST("/contractor/invoice/:token/upload", h.UploadInvoiceFile)
	}
}

// limitBody caps the request body size for all endpoints using
// http.MaxBytesReader; reads past the cap fail downstream.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
