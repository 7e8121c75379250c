package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/lodge-operations/internal/handler"
)

// AdminHandlers bundles the staff-surface handlers so registration
// takes one argument instead of five.
type AdminHandlers struct {
	Reservations  *handler.AdminReservationHandler
	Orders        *handler.AdminOrderHandler
	Rooms         *handler.AdminRoomHandler
	Announcements *handler.AdminAnnouncementHandler
	Notifications *handler.AdminNotificationHandler
}

// RegisterAdmin registers the staff surface under /v1/admin.  Every
// route requires a valid Bearer token; the admin id from the token
// claims scopes notifications, settings and the event stream.
func RegisterAdmin(e *echo.Echo, h AdminHandlers, adminAuth echo.MiddlewareFunc) {
	g := e.Group("/v1/admin", adminAuth)

	g.GET("/reservations", h.Reservations.List)
	g.POST("/reservations", h.Reservations.Create)
	g.GET("/reservations/:id", h.Reservations.Get)
	g.PUT("/reservations/:id", h.Reservations.Update)
	g.DELETE("/reservations/:id", h.Reservations.Delete)
	g.POST("/reservations/:id/assign", h.Reservations.Assign)
	g.POST("/reservations/:id/cancel", h.Reservations.Cancel)
	g.POST("/reservations/:id/status", h.Reservations.Status)

	g.GET("/orders", h.Orders.List)
	g.GET("/orders/:id", h.Orders.Get)
	g.POST("/orders/:id/status", h.Orders.Status)

	// "free" is registered before ":id" so Echo does not try to parse
	// it as a room id.
	g.GET("/rooms/free", h.Rooms.Free)
	g.GET("/rooms", h.Rooms.List)
	g.POST("/rooms", h.Rooms.Create)
	g.GET("/rooms/:id", h.Rooms.Get)
	g.PUT("/rooms/:id", h.Rooms.Update)
	g.DELETE("/rooms/:id", h.Rooms.Delete)

	g.GET("/announcements", h.Announcements.List)
	g.POST("/announcements", h.Announcements.Create)
	g.GET("/announcements/:id", h.Announcements.Get)
	g.PUT("/announcements/:id", h.Announcements.Update)
	g.DELETE("/announcements/:id", h.Announcements.Delete)

	g.GET("/notifications", h.Notifications.List)
	g.POST("/notifications/read-all", h.Notifications.MarkAllRead)
	g.GET("/notifications/settings", h.Notifications.Settings)
	g.PUT("/notifications/settings", h.Notifications.UpdateSetting)
	g.POST("/notifications/:id/read", h.Notifications.MarkRead)
	g.DELETE("/notifications/:id", h.Notifications.Delete)

	g.GET("/stream", h.Notifications.Stream)
}
