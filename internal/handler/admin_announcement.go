package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/lodge-operations/internal/hub"
	"github.com/iliyamo/lodge-operations/internal/model"
	"github.com/iliyamo/lodge-operations/internal/repository"
)

// EventAnnouncementUpdated is published to the announcement broadcast
// whenever staff create, change or remove an announcement.  Guest
// clients re-fetch the active list on receipt rather than patching
// local state.
const EventAnnouncementUpdated = "announcement_updated"

// AdminAnnouncementHandler serves announcement management.
type AdminAnnouncementHandler struct {
	Announcements *repository.AnnouncementRepo
	Hub           *hub.Hub
}

func NewAdminAnnouncementHandler(announcements *repository.AnnouncementRepo, h *hub.Hub) *AdminAnnouncementHandler {
	if announcements == nil || h == nil {
		panic("nil dependency passed to NewAdminAnnouncementHandler")
	}
	return &AdminAnnouncementHandler{Announcements: announcements, Hub: h}
}

type announcementReq struct {
	Content  string     `json:"content"`
	Level    string     `json:"level"`
	StartsAt time.Time  `json:"starts_at"`
	EndsAt   *time.Time `json:"ends_at"`
	Active   *bool      `json:"active"`
}

func (r *announcementReq) normalize() (string, bool) {
	r.Content = strings.TrimSpace(r.Content)
	if r.Content == "" {
		return "content is required", false
	}
	if r.Level == "" {
		r.Level = model.AnnouncementInfo
	}
	switch r.Level {
	case model.AnnouncementInfo, model.AnnouncementWarning, model.AnnouncementCritical:
	default:
		return "unknown level", false
	}
	if r.StartsAt.IsZero() {
		r.StartsAt = time.Now().UTC()
	}
	if r.EndsAt != nil && !r.EndsAt.After(r.StartsAt) {
		return "ends_at must be after starts_at", false
	}
	return "", true
}

func (h *AdminAnnouncementHandler) publishUpdated(id uint64) {
	h.Hub.Publish(hub.AnnouncementBroadcast, hub.Event{
		Type: EventAnnouncementUpdated,
		Data: map[string]uint64{"announcement_id": id},
	})
}

// List handles GET /v1/admin/announcements with level/q/page/limit
// filters.
func (h *AdminAnnouncementHandler) List(c echo.Context) error {
	items, total, err := h.Announcements.List(c.Request().Context(), repository.AnnouncementFilter{
		Level: c.QueryParam("level"),
		Query: c.QueryParam("q"),
		Page:  queryInt(c, "page"),
		Limit: queryInt(c, "limit"),
	})
	if err != nil {
		return engineError(c, err)
	}
	return c.JSON(http.StatusOK, listResponse{Items: items, Total: total})
}

// Get handles GET /v1/admin/announcements/:id.
func (h *AdminAnnouncementHandler) Get(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	a, err := h.Announcements.ByID(c.Request().Context(), id)
	if err != nil {
		return engineError(c, err)
	}
	return c.JSON(http.StatusOK, a)
}

// Create handles POST /v1/admin/announcements.
func (h *AdminAnnouncementHandler) Create(c echo.Context) error {
	var req announcementReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if msg, ok := req.normalize(); !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation_error", "message": msg})
	}
	active := true
	if req.Active != nil {
		active = *req.Active
	}
	a := &model.Announcement{
		Content:  req.Content,
		Level:    req.Level,
		StartsAt: req.StartsAt,
		EndsAt:   req.EndsAt,
		Active:   active,
	}
	if err := h.Announcements.Create(c.Request().Context(), a); err != nil {
		return engineError(c, err)
	}
	h.publishUpdated(a.ID)
	return c.JSON(http.StatusCreated, a)
}

// Update handles PUT /v1/admin/announcements/:id.
func (h *AdminAnnouncementHandler) Update(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	existing, err := h.Announcements.ByID(c.Request().Context(), id)
	if err != nil {
		return engineError(c, err)
	}
	var req announcementReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if msg, ok := req.normalize(); !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation_error", "message": msg})
	}
	existing.Content = req.Content
	existing.Level = req.Level
	existing.StartsAt = req.StartsAt
	existing.EndsAt = req.EndsAt
	if req.Active != nil {
		existing.Active = *req.Active
	}
	if err := h.Announcements.Update(c.Request().Context(), existing); err != nil {
		return engineError(c, err)
	}
	h.publishUpdated(id)
	return c.JSON(http.StatusOK, existing)
}

// Delete handles DELETE /v1/admin/announcements/:id.
func (h *AdminAnnouncementHandler) Delete(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if err := h.Announcements.Delete(c.Request().Context(), id); err != nil {
		return engineError(c, err)
	}
	h.publishUpdated(id)
	return c.NoContent(http.StatusNoContent)
}
