package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/lodge-operations/internal/model"
	"github.com/iliyamo/lodge-operations/internal/repository"
)

// AdminRoomHandler serves room inventory management.  The status field
// is a manual override; date occupancy is derived from reservations
// and answered by Free.
type AdminRoomHandler struct {
	Rooms *repository.RoomRepo
}

func NewAdminRoomHandler(rooms *repository.RoomRepo) *AdminRoomHandler {
	if rooms == nil {
		panic("nil dependency passed to NewAdminRoomHandler")
	}
	return &AdminRoomHandler{Rooms: rooms}
}

type roomReq struct {
	Name     string `json:"name"`
	Capacity uint32 `json:"capacity"`
	Status   string `json:"status"`
}

func (r *roomReq) normalize() (string, bool) {
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return "room name is required", false
	}
	if r.Status == "" {
		r.Status = model.RoomAvailable
	}
	switch r.Status {
	case model.RoomAvailable, model.RoomOccupied, model.RoomMaintenance:
		return "", true
	default:
		return "unknown room status", false
	}
}

// List handles GET /v1/admin/rooms.
func (h *AdminRoomHandler) List(c echo.Context) error {
	items, err := h.Rooms.List(c.Request().Context())
	if err != nil {
		return engineError(c, err)
	}
	return c.JSON(http.StatusOK, listResponse{Items: items, Total: len(items)})
}

// Get handles GET /v1/admin/rooms/:id.
func (h *AdminRoomHandler) Get(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	rm, err := h.Rooms.ByID(c.Request().Context(), id)
	if err != nil {
		return engineError(c, err)
	}
	return c.JSON(http.StatusOK, rm)
}

// Create handles POST /v1/admin/rooms.  Room names are unique; a
// duplicate returns 409.
func (h *AdminRoomHandler) Create(c echo.Context) error {
	var req roomReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if msg, ok := req.normalize(); !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation_error", "message": msg})
	}
	rm := &model.Room{Name: req.Name, Capacity: req.Capacity, Status: req.Status}
	if err := h.Rooms.Create(c.Request().Context(), rm); err != nil {
		return engineError(c, err)
	}
	return c.JSON(http.StatusCreated, rm)
}

// Update handles PUT /v1/admin/rooms/:id.
func (h *AdminRoomHandler) Update(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req roomReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if msg, ok := req.normalize(); !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation_error", "message": msg})
	}
	rm := &model.Room{ID: id, Name: req.Name, Capacity: req.Capacity, Status: req.Status}
	if err := h.Rooms.Update(c.Request().Context(), rm); err != nil {
		return engineError(c, err)
	}
	updated, err := h.Rooms.ByID(c.Request().Context(), id)
	if err != nil {
		return engineError(c, err)
	}
	return c.JSON(http.StatusOK, updated)
}

// Delete handles DELETE /v1/admin/rooms/:id.
func (h *AdminRoomHandler) Delete(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if err := h.Rooms.Delete(c.Request().Context(), id); err != nil {
		return engineError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Free handles GET /v1/admin/rooms/free?checkin=&checkout=&exclude=.
// It returns the rooms with no overlapping non-cancelled stay, so
// staff pick from a list that is already safe for the dates.
func (h *AdminRoomHandler) Free(c echo.Context) error {
	checkIn := queryDate(c, "checkin")
	checkOut := queryDate(c, "checkout")
	if checkIn.IsZero() || checkOut.IsZero() || !checkOut.After(checkIn) {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error":   "validation_error",
			"message": "checkin and checkout must be YYYY-MM-DD with checkout after checkin",
		})
	}
	exclude, _ := strconv.ParseUint(c.QueryParam("exclude"), 10, 64)
	items, err := h.Rooms.ListFree(c.Request().Context(), checkIn, checkOut, exclude)
	if err != nil {
		return engineError(c, err)
	}
	return c.JSON(http.StatusOK, listResponse{Items: items, Total: len(items)})
}
