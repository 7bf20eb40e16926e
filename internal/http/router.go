package api

import (
	stdhttp "net/http"

	intconfig "github.com/LixUb/ZoNaTrip/internal/config"
	h "github.com/LixUb/ZoNaTrip/internal/http/handlers"
	"github.com/LixUb/ZoNaTrip/internal/http/middleware"
	"github.com/LixUb/ZoNaTrip/internal/logger"
	"github.com/LixUb/ZoNaTrip/internal/metrics"

	"github.com/gin-gonic/gin"
)

// Deps are the collaborators the HTTP surface is built from.
type Deps struct {
	Env      intconfig.Env
	Logger   logger.Logger
	Metrics  *metrics.Metrics
	Bookings h.BookingService
}

func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.Logger(d.Logger),
		middleware.Recovery(d.Logger),
		middleware.Metrics(d.Metrics),
		middleware.CORS(d.Env.CORSAllowedOrigins),
	)

	if err := r.SetTrustedProxies(nil); err != nil {
		d.Logger.Warn("failed to set trusted proxies", "error", err.Error())
	}

	r.OPTIONS("/*path", func(c *gin.Context) { c.AbortWithStatus(stdhttp.StatusNoContent) })
	r.NoRoute(h.NotFound)

	booking := h.BookingHandler{
		Service:        d.Bookings,
		MaxUploadBytes: d.Env.MaxUploadBytes,
		Errors:         h.Errors{Debug: d.Env.Debug},
	}

	r.GET("/health", h.Health)
	r.GET("/metrics", gin.WrapH(d.Metrics.Handler()))
	// legacy form action
	r.POST("/submit-booking", booking.SubmitBooking)

	api := r.Group("/api")
	{
		api.GET("/health", h.Health)

		api.POST("/booking", booking.SubmitBooking)
		api.GET("/booking/:id", booking.GetBooking)
		// plural aliases
		api.POST("/bookings", booking.SubmitBooking)
		api.GET("/bookings/:id", booking.GetBooking)
	}

	return r
}
