package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func SetupRoutes(r *gin.Engine, h *BookingHandler, log *zap.Logger) {
	r.Use(gin.Recovery(), RequestLogger(log))

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.POST("/contacts/validate", h.ValidateContact)
	r.GET("/slots", h.ListSlots)
	r.GET("/stats", h.Stats)

	owned := r.Group("", RequireOwner())
	{
		owned.POST("/reservations", h.ReserveSlot)
		owned.DELETE("/reservations/:slotId", h.ReleaseReservation)
		owned.POST("/bookings", h.CreateBooking)
		owned.GET("/bookings/:id", h.GetBooking)
		owned.GET("/bookings/:id/events", h.BookingEvents)
		owned.DELETE("/bookings/:id", h.CancelBooking)
		owned.GET("/confirmations/:code", h.GetByConfirmation)
		owned.GET("/owners/:ownerId/bookings", h.OwnerBookings)
		owned.GET("/owners/:ownerId/events", h.OwnerEvents)
	}
}

// NewRouter — gin.Engine без стандартных middleware gin, с нашими маршрутами.
func NewRouter(h *BookingHandler, log *zap.Logger) *gin.Engine {
	r := gin.New()
	SetupRoutes(r, h, log)
	return r
}
