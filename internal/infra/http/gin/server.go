package ginserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"

	"estatehub/internal/infra/config"
	"estatehub/internal/infra/obs"
)

type PropertyHTTP interface {
	Quote(c *gin.Context)
	Availability(c *gin.Context)
	Calendar(c *gin.Context)
	Reservations(c *gin.Context)
}

type ReservationHTTP interface {
	Create(c *gin.Context)
	Confirm(c *gin.Context)
	Reject(c *gin.Context)
	Cancel(c *gin.Context)
	Complete(c *gin.Context)
	CancellationPreview(c *gin.Context)
}

type Handlers struct {
	Property    PropertyHTTP
	Reservation ReservationHTTP
	// Metrics is served on /metrics when set.
	Metrics http.Handler
}

func NewServer(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *http.Server {
	mode := configureGinMode(cfg.Env)
	if obsMW.Logger != nil {
		obsMW.Logger.Info("gin initialized", "mode", mode)
	}
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           NewRouter(obsMW, health, h),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func NewRouter(obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(obsMW.RequestID())
	router.Use(obsMW.AccessLog())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", IdempotencyHeader},
		ExposeHeaders: []string{
			"Content-Length",
			"Content-Type",
			obs.RequestIDHeader,
		},
		MaxAge: 12 * time.Hour,
	}))

	router.GET("/livez", health.Livez)
	router.GET("/readyz", health.Readyz)
	if h.Metrics != nil {
		router.GET("/metrics", gin.WrapH(h.Metrics))
	}

	api := router.Group("/api/v1")
	if h.Property != nil {
		props := api.Group("/properties/:id")
		props.GET("/quote", h.Property.Quote)
		props.GET("/availability", h.Property.Availability)
		props.GET("/calendar", h.Property.Calendar)
		props.GET("/reservations", h.Property.Reservations)
	}
	if h.Reservation != nil {
		api.POST("/reservations", h.Reservation.Create)
		res := api.Group("/reservations/:id")
		res.POST("/confirm", h.Reservation.Confirm)
		res.POST("/reject", h.Reservation.Reject)
		res.POST("/cancel", h.Reservation.Cancel)
		res.POST("/complete", h.Reservation.Complete)
		res.GET("/cancellation-preview", h.Reservation.CancellationPreview)
	}
	return router
}

func configureGinMode(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "debug", "dev", "local":
		gin.SetMode(gin.DebugMode)
		return gin.DebugMode
	case "test", "testing":
		gin.SetMode(gin.TestMode)
		return gin.TestMode
	default:
		gin.SetMode(gin.ReleaseMode)
		return gin.ReleaseMode
	}
}
