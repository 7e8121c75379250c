package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/lodge-operations/internal/handler"
)

// RegisterGuest registers the token-scoped guest portal under
// /v1/guest/:token.  No session or JWT is involved: the opaque token
// in the path is the whole credential, so the group carries the Redis
// rate limiter to slow token enumeration.
func RegisterGuest(e *echo.Echo, g *handler.GuestHandler, rateLimit echo.MiddlewareFunc) {
	grp := e.Group("/v1/guest/:token", rateLimit)

	grp.GET("", g.Info)
	grp.POST("/checkin", g.CheckIn)
	grp.POST("/checkout", g.CheckOut)

	grp.GET("/orders", g.ListOrders)
	grp.POST("/orders", g.CreateOrder)
	grp.GET("/orders/stream", g.StreamOrders)

	grp.GET("/announcements", g.ListAnnouncements)
	grp.GET("/announcements/stream", g.StreamAnnouncements)
	grp.GET("/announcements/reads", g.ListAnnouncementReads)
	grp.POST("/announcements/:id/read", g.MarkAnnouncementRead)
}
