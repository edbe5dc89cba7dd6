package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/beatmarket-backend/internal/config"
	"github.com/ignatzorin/beatmarket-backend/internal/domain/valueobject"
	"github.com/ignatzorin/beatmarket-backend/internal/http/handlers"
	"github.com/ignatzorin/beatmarket-backend/internal/http/middleware"
	"github.com/ignatzorin/beatmarket-backend/internal/metrics"
	"github.com/ignatzorin/beatmarket-backend/internal/service"
)

// Handlers все HTTP хэндлеры приложения.
type Handlers struct {
	Auth         *handlers.AuthHandler
	Verification *handlers.VerificationHandler
	Escrow       *handlers.EscrowHandler
	Dispute      *handlers.DisputeHandler
	Admin        *handlers.AdminHandler
	Health       *handlers.HealthHandler
	WS           *handlers.WSHandler
}

// Options зависимости роутера. MetricsHandler по умолчанию promhttp.Handler().
type Options struct {
	Config         *config.Config
	Handlers       Handlers
	Tokens         *service.TokenManager
	Metrics        *metrics.MarketplaceMetrics
	MetricsHandler http.Handler
	Log            logrus.FieldLogger
}

func SetupRouter(opts Options) *gin.Engine {
	cfg := opts.Config
	h := opts.Handlers
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	metricsHandler := opts.MetricsHandler
	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(opts.Log, opts.Metrics))
	r.Use(middleware.ErrorHandler(opts.Log))
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	r.GET("/health", h.Health.Health)
	r.GET("/metrics", gin.WrapH(metricsHandler))

	api := r.Group("/api")
	api.GET("/ws", h.WS.Handle)
	api.GET("/accounts/:id/verification", middleware.UUIDValidator("id"), h.Verification.GetStatus)

	authGroup := api.Group("/auth")
	authGroup.Use(middleware.RateLimitMiddleware("auth", cfg.RateLimitLimit, cfg.RateLimitPeriod))
	{
		authGroup.POST("/register", h.Auth.Register)
		authGroup.POST("/login", h.Auth.Login)
		authGroup.POST("/refresh", h.Auth.Refresh)
	}

	// Защищённые маршруты
	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(opts.Tokens))
	{
		protected.POST("/verification/pro-requests",
			middleware.RateLimitMiddleware("pro_requests", cfg.RateLimitLimit, cfg.RateLimitPeriod),
			h.Verification.SubmitProRequest)
		protected.POST("/verification/recalculate", h.Verification.Recalculate)
		protected.DELETE("/account", h.Auth.DeleteAccount)

		protected.POST("/escrow", h.Escrow.Create)
		protected.GET("/escrow", h.Escrow.List)
		protected.GET("/escrow/:id", middleware.UUIDValidator("id"), h.Escrow.Get)
		protected.POST("/escrow/:id/release", middleware.UUIDValidator("id"), h.Escrow.Release)
		protected.POST("/escrow/:id/refund", middleware.UUIDValidator("id"), h.Escrow.Refund)

		protected.POST("/disputes", h.Dispute.Create)
		protected.GET("/disputes", h.Dispute.ListMine)
		protected.GET("/disputes/:id", middleware.UUIDValidator("id"), h.Dispute.Get)
	}

	admin := api.Group("/admin")
	admin.Use(middleware.AuthMiddleware(opts.Tokens), middleware.RequireRole(string(valueobject.RoleAdmin)))
	{
		admin.GET("/verification/pro-requests", h.Admin.ListRequests)
		admin.POST("/verification/pro-requests/:id/approve", middleware.UUIDValidator("id"), h.Admin.Approve)
		admin.POST("/verification/pro-requests/:id/reject", middleware.UUIDValidator("id"), h.Admin.Reject)
		admin.GET("/verification/pro-requests/:id/document", middleware.UUIDValidator("id"), h.Admin.Document)

		admin.PUT("/accounts/:id/trust", middleware.UUIDValidator("id"), h.Admin.OverrideTrust)
		admin.GET("/accounts/:id/trust/overrides", middleware.UUIDValidator("id"), h.Admin.ListOverrides)

		admin.POST("/escrow/:id/release", middleware.UUIDValidator("id"), h.Escrow.AdminRelease)
		admin.POST("/escrow/:id/refund", middleware.UUIDValidator("id"), h.Escrow.AdminRefund)

		admin.GET("/disputes", h.Dispute.AdminList)
		admin.POST("/disputes/:id/review", middleware.UUIDValidator("id"), h.Dispute.StartReview)
		admin.POST("/disputes/:id/resolve", middleware.UUIDValidator("id"), h.Dispute.Resolve)
		admin.POST("/disputes/:id/close", middleware.UUIDValidator("id"), h.Dispute.Close)
	}

	return r
}
