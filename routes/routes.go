package routes

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"tutorhive/handlers"
	"tutorhive/middleware"
	"tutorhive/utils"
)

// HandlerBundle carries the wired handlers for route registration.
type HandlerBundle struct {
	Availability *handlers.AvailabilityHandler
	Booking      *handlers.BookingHandler
	Calendar     *handlers.CalendarHandler
}

// RegisterAvailabilityRoutes registers the availability surface. Reading a
// tutor's availability is public; publishing windows requires auth.
func RegisterAvailabilityRoutes(r *gin.Engine, hb *HandlerBundle) {
	api := r.Group("/api/availability")
	{
		api.GET("/tutor/:tutorID", hb.Availability.GetAvailabilityHandler)

		protected := api.Group("")
		protected.Use(middleware.JWTAuthMiddleware())
		protected.POST("/manual", hb.Availability.CreateManualAvailabilityHandler)
	}
}

// RegisterCalendarRoutes registers calendar connection management.
func RegisterCalendarRoutes(r *gin.Engine, hb *HandlerBundle) {
	api := r.Group("/api/calendar")
	{
		api.Use(middleware.JWTAuthMiddleware())
		api.POST("/connect", hb.Calendar.ConnectCalendarHandler)
		api.DELETE("/disconnect", hb.Calendar.DisconnectCalendarHandler)
		api.POST("/sync", hb.Calendar.TriggerSyncHandler)
	}
}

// RegisterHealthRoute exposes the liveness endpoint.
func RegisterHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, utils.GetHealthStatus())
	})
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *HandlerBundle) {
	// Setup global middleware (e.g., CORS) here.
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	RegisterHealthRoute(r)
	RegisterAvailabilityRoutes(r, hb)
	RegisterCalendarRoutes(r, hb)
	RegisterBookingRoutes(r, hb)
}
