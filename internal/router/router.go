package router

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bloodsight/bloodsight-api/internal/handler"
	authhandler "github.com/bloodsight/bloodsight-api/internal/handler/auth"
	intakehandler "github.com/bloodsight/bloodsight-api/internal/handler/intake"
	reporthandler "github.com/bloodsight/bloodsight-api/internal/handler/report"
	userhandler "github.com/bloodsight/bloodsight-api/internal/handler/user"
	"github.com/bloodsight/bloodsight-api/internal/middleware"
)

type Router struct {
	engine  *gin.Engine
	auth    *middleware.AuthMiddleware
	authH   *authhandler.Handler
	userH   *userhandler.Handler
	reportH *reporthandler.Handler
	intakeH *intakehandler.Handler
	h       *handler.Handler
	metrics *routerMetrics
}

type routerMetrics struct {
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	errorTotal      *prometheus.CounterVec
}

type Config struct {
	RateLimitEnabled bool
	RateLimitRPS     float64
	RateLimitBurst   int
	CORSConfig       middleware.CORSConfig
	MetricsPrefix    string
	ReleaseMode      bool
}

func New(
	auth *middleware.AuthMiddleware,
	authH *authhandler.Handler,
	userH *userhandler.Handler,
	reportH *reporthandler.Handler,
	intakeH *intakehandler.Handler,
	h *handler.Handler,
	config Config,
) *Router {
	if config.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	r := &Router{
		engine:  engine,
		auth:    auth,
		authH:   authH,
		userH:   userH,
		reportH: reportH,
		intakeH: intakeH,
		h:       h,
		metrics: initRouterMetrics(config.MetricsPrefix),
	}

	engine.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
		middleware.ErrorHandler(),
		r.metricsMiddleware(),
		middleware.Timeout(middleware.DefaultTimeoutConfig()),
		middleware.SecurityHeaders(middleware.DefaultSecurityConfig()),
		middleware.SizeLimit(middleware.DefaultSizeLimitConfig()),
		middleware.CORS(config.CORSConfig),
	)

	if config.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
			RPS:   config.RateLimitRPS,
			Burst: config.RateLimitBurst,
		})
		engine.Use(rateLimiter.RateLimit())
	}

	return r
}

// Setup mounts all routes. The SPA calls flat paths, so everything
// hangs off the root group.
func (r *Router) Setup() {
	api := r.engine.Group("")

	r.setupHealthCheck(api)

	// Public auth endpoints.
	r.authH.RegisterRoutes(api)

	// Report and profile responses carry personal data; keep them out
	// of shared caches.
	noStore := middleware.Cache(middleware.CacheConfig{Private: true, NoStore: true})

	// Upload and the intake wizard accept anonymous callers; a valid
	// token scopes the resulting report to the account.
	optional := api.Group("")
	optional.Use(r.auth.OptionalAuthenticate(), noStore)
	r.reportH.RegisterRoutes(optional)
	r.intakeH.RegisterRoutes(optional)

	protected := api.Group("")
	protected.Use(r.auth.Authenticate(), noStore)
	r.authH.RegisterProtectedRoutes(protected)
	r.userH.RegisterRoutes(protected)
	r.reportH.RegisterProtectedRoutes(protected)
}

func (r *Router) setupHealthCheck(rg *gin.RouterGroup) {
	health := rg.Group("/health")
	health.Use(middleware.Cache(middleware.CacheConfig{MaxAge: 5}))
	{
		health.GET("/live", r.h.LivenessCheck)
		health.GET("/ready", r.h.ReadinessCheck)
		health.GET("/metrics", r.h.MetricsHandler)
	}
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}

func initRouterMetrics(prefix string) *routerMetrics {
	return &routerMetrics{
		requestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: prefix + "_request_duration_seconds",
				Help: "Duration of HTTP requests in seconds",
			},
			[]string{"method", "path", "status"},
		),
		requestTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		errorTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_errors_total",
				Help: "Total number of HTTP errors",
			},
			[]string{"method", "path", "type"},
		),
	}
}

func (r *Router) metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()

		c.Next()

		status := fmt.Sprintf("%d", c.Writer.Status())
		duration := time.Since(start).Seconds()

		r.metrics.requestDuration.WithLabelValues(c.Request.Method, path, status).Observe(duration)
		r.metrics.requestTotal.WithLabelValues(c.Request.Method, path, status).Inc()

		if c.Writer.Status() >= 400 {
			r.metrics.errorTotal.WithLabelValues(c.Request.Method, path, "http").Inc()
		}
	}
}
