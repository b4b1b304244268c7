package routes

import (
	"github.com/gin-gonic/gin"

	"tutorhive/middleware"
)

// RegisterBookingRoutes registers all endpoints for the booking engine.
func RegisterBookingRoutes(r *gin.Engine, hb *HandlerBundle) {
	booking := r.Group("/api/booking")
	{
		booking.Use(middleware.JWTAuthMiddleware())
		booking.POST("/slot", hb.Booking.BookSlotHandler)
		booking.DELETE("/slot", hb.Booking.CancelBookingHandler)
		booking.GET("/sessions", hb.Booking.ListMySessionsHandler)
	}
}
