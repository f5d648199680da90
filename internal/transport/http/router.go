package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"agenda/backend/internal/domain"
)

// NewRouter wires the two booking surfaces onto one shared handler core.
func NewRouter(svc bookingService, log *slog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	registerBookingRoutes(r, "/api/quotes", NewBookingHandler(svc, domain.BookingKindQuote, log))
	registerBookingRoutes(r, "/api/schedules", NewBookingHandler(svc, domain.BookingKindSchedule, log))

	return r
}

func registerBookingRoutes(r *gin.Engine, prefix string, h *BookingHandler) {
	api := r.Group(prefix)
	{
		api.GET("", h.List)
		api.POST("", h.Create)
		api.PUT("/:id", h.Update)
		api.DELETE("/:id", h.Delete)
	}
}
