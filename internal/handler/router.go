package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/room-booking-api/internal/middleware"
	"github.com/noah-isme/room-booking-api/internal/models"
)

// Handlers groups the HTTP handlers mounted by RegisterRoutes.
type Handlers struct {
	Auth         *AuthHandler
	Bookings     *BookingHandler
	Approvals    *ApprovalHandler
	Availability *AvailabilityHandler
	Metrics      *MetricsHandler
}

// RegisterRoutes mounts the API under prefix and the operational endpoints at
// the root. auth must authenticate the caller and store its claims.
func RegisterRoutes(r *gin.Engine, prefix string, auth gin.HandlerFunc, h Handlers) {
	if h.Metrics != nil {
		r.GET("/metrics", h.Metrics.Prometheus)
		r.GET("/health", h.Metrics.Health)
		r.GET("/ready", h.Metrics.Ready)
	}

	api := r.Group(prefix)
	api.POST("/auth/login", h.Auth.Login)

	secured := api.Group("", auth)

	rooms := secured.Group("/rooms")
	rooms.GET("/available", h.Availability.Available)
	rooms.GET("/availability", h.Availability.DailyGrid)
	secured.GET("/schedules/subjects", h.Availability.Subjects)

	bookings := secured.Group("/bookings")
	bookings.POST("", h.Bookings.Create)
	bookings.GET("", h.Bookings.List)
	bookings.GET("/mine", h.Bookings.ListMine)
	bookings.GET("/export", middleware.RequireRoles(models.RoleAdmin), h.Bookings.Export)
	bookings.DELETE("/:id", middleware.RequireRoles(models.RoleAdmin), h.Bookings.Delete)

	approvals := secured.Group("/approvals")
	approvals.GET("/pending", h.Approvals.ListPending)
	approvals.PUT("/:id", h.Approvals.Decide)
}
