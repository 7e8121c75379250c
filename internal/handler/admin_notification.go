package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/lodge-operations/internal/hub"
	"github.com/iliyamo/lodge-operations/internal/middleware"
	"github.com/iliyamo/lodge-operations/internal/model"
	"github.com/iliyamo/lodge-operations/internal/repository"
)

// AdminNotificationHandler serves per-admin notifications, their
// per-type enable toggles, and the admin live event stream.
type AdminNotificationHandler struct {
	Notifications *repository.NotificationRepo
	Hub           *hub.Hub
}

func NewAdminNotificationHandler(notifications *repository.NotificationRepo, h *hub.Hub) *AdminNotificationHandler {
	if notifications == nil || h == nil {
		panic("nil dependency passed to NewAdminNotificationHandler")
	}
	return &AdminNotificationHandler{Notifications: notifications, Hub: h}
}

func adminID(c echo.Context) (uint64, bool) {
	return middleware.AdminID(c)
}

// List handles GET /v1/admin/notifications?unread=&page=&limit=.
func (h *AdminNotificationHandler) List(c echo.Context) error {
	id, ok := adminID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	unreadOnly := c.QueryParam("unread") == "true"
	items, total, err := h.Notifications.ListByAdmin(c.Request().Context(), id, unreadOnly,
		queryInt(c, "page"), queryInt(c, "limit"))
	if err != nil {
		return engineError(c, err)
	}
	return c.JSON(http.StatusOK, listResponse{Items: items, Total: total})
}

// MarkRead handles POST /v1/admin/notifications/:id/read.
func (h *AdminNotificationHandler) MarkRead(c echo.Context) error {
	admin, ok := adminID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if err := h.Notifications.MarkRead(c.Request().Context(), admin, id); err != nil {
		return engineError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// MarkAllRead handles POST /v1/admin/notifications/read-all.
func (h *AdminNotificationHandler) MarkAllRead(c echo.Context) error {
	admin, ok := adminID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	if err := h.Notifications.MarkAllRead(c.Request().Context(), admin); err != nil {
		return engineError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Delete handles DELETE /v1/admin/notifications/:id.
func (h *AdminNotificationHandler) Delete(c echo.Context) error {
	admin, ok := adminID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if err := h.Notifications.Delete(c.Request().Context(), admin, id); err != nil {
		return engineError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Settings handles GET /v1/admin/notifications/settings.  Types with
// no stored row default to enabled and are omitted.
func (h *AdminNotificationHandler) Settings(c echo.Context) error {
	admin, ok := adminID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	items, err := h.Notifications.Settings(c.Request().Context(), admin)
	if err != nil {
		return engineError(c, err)
	}
	return c.JSON(http.StatusOK, listResponse{Items: items, Total: len(items)})
}

type settingReq struct {
	Type    string `json:"type"`
	Enabled bool   `json:"enabled"`
}

// UpdateSetting handles PUT /v1/admin/notifications/settings.
func (h *AdminNotificationHandler) UpdateSetting(c echo.Context) error {
	admin, ok := adminID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req settingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	switch req.Type {
	case model.NotifyReservationAssigned, model.NotifyOrderCreated,
		model.NotifyOrderStatusChanged, model.NotifyGuestCheckedIn,
		model.NotifyGuestCheckedOut:
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation_error", "message": "unknown notification type"})
	}
	s := model.NotificationSetting{AdminID: admin, Type: req.Type, Enabled: req.Enabled}
	if err := h.Notifications.UpsertSetting(c.Request().Context(), s); err != nil {
		return engineError(c, err)
	}
	return c.JSON(http.StatusOK, s)
}

// Stream handles GET /v1/admin/stream.  The subscriber joins the
// admin's own audience plus the shared admin broadcast; the snapshot
// is the unread notification list so a dashboard starts from current
// state.
func (h *AdminNotificationHandler) Stream(c echo.Context) error {
	admin, ok := adminID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	unread, _, err := h.Notifications.ListByAdmin(c.Request().Context(), admin, true, 1, 50)
	if err != nil {
		return engineError(c, err)
	}
	return streamEvents(c, h.Hub, unread, hub.AdminAudience(admin), hub.AdminBroadcast)
}
