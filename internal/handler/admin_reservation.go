package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/lodge-operations/internal/engine"
	"github.com/iliyamo/lodge-operations/internal/model"
	"github.com/iliyamo/lodge-operations/internal/queue"
	"github.com/iliyamo/lodge-operations/internal/repository"
	queue_publisher "github.com/iliyamo/lodge-operations/internal/service"
)

// AdminReservationHandler serves the staff reservation surface.  State
// changes go through the engine; after a successful transition the
// handler fires the post-commit side effects (admin notifications and
// the out-of-band guest message) on their own goroutines so the
// response never waits on them.
type AdminReservationHandler struct {
	Engine        *engine.ReservationEngine
	Reservations  *repository.ReservationRepo
	Notifier      *queue_publisher.Notifier
	PortalBaseURL string
}

func NewAdminReservationHandler(eng *engine.ReservationEngine, reservations *repository.ReservationRepo, notifier *queue_publisher.Notifier, portalBaseURL string) *AdminReservationHandler {
	if eng == nil || reservations == nil || notifier == nil {
		panic("nil dependency passed to NewAdminReservationHandler")
	}
	return &AdminReservationHandler{
		Engine:        eng,
		Reservations:  reservations,
		Notifier:      notifier,
		PortalBaseURL: portalBaseURL,
	}
}

// ----- DTOs -----

type bookingReq struct {
	ExternalNumber string             `json:"external_number"`
	GuestName      string             `json:"guest_name"`
	Phone          string             `json:"phone"`
	CheckIn        string             `json:"check_in"`
	CheckOut       string             `json:"check_out"`
	Product        string             `json:"product"`
	Amount         int64              `json:"amount"`
	Options        []model.StayOption `json:"options"`
}

func (r bookingReq) toInput() (engine.BookingInput, error) {
	checkIn, err := time.Parse("2006-01-02", r.CheckIn)
	if err != nil {
		return engine.BookingInput{}, fmt.Errorf("check_in must be YYYY-MM-DD")
	}
	checkOut, err := time.Parse("2006-01-02", r.CheckOut)
	if err != nil {
		return engine.BookingInput{}, fmt.Errorf("check_out must be YYYY-MM-DD")
	}
	return engine.BookingInput{
		ExternalNumber: r.ExternalNumber,
		GuestName:      r.GuestName,
		Phone:          r.Phone,
		CheckIn:        checkIn,
		CheckOut:       checkOut,
		Product:        r.Product,
		Amount:         r.Amount,
		Options:        r.Options,
	}, nil
}

// List handles GET /v1/admin/reservations with status/date/q/page/limit
// filters.
func (h *AdminReservationHandler) List(c echo.Context) error {
	items, total, err := h.Reservations.List(c.Request().Context(), repository.ReservationFilter{
		Status: c.QueryParam("status"),
		Date:   queryDate(c, "date"),
		Query:  c.QueryParam("q"),
		Page:   queryInt(c, "page"),
		Limit:  queryInt(c, "limit"),
	})
	if err != nil {
		return engineError(c, err)
	}
	return c.JSON(http.StatusOK, listResponse{Items: items, Total: total})
}

// Get handles GET /v1/admin/reservations/:id.
func (h *AdminReservationHandler) Get(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	res, err := h.Reservations.ByID(c.Request().Context(), id)
	if err != nil {
		return engineError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// Create handles POST /v1/admin/reservations.  Imports of the same
// external booking number converge on one row, so re-sending a booking
// is safe.
func (h *AdminReservationHandler) Create(c echo.Context) error {
	var req bookingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	in, err := req.toInput()
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation_error", "message": err.Error()})
	}
	res, err := h.Engine.CreateOrUpsert(c.Request().Context(), in)
	if err != nil {
		return engineError(c, err)
	}
	return c.JSON(http.StatusCreated, res)
}

// Update handles PUT /v1/admin/reservations/:id.  It rewrites the
// booking fields through the same upsert path imports use; the
// external number is pinned to the stored one so an edit can never
// fork a second reservation.
func (h *AdminReservationHandler) Update(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	existing, err := h.Reservations.ByID(c.Request().Context(), id)
	if err != nil {
		return engineError(c, err)
	}
	var req bookingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	in, err := req.toInput()
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation_error", "message": err.Error()})
	}
	in.ExternalNumber = existing.ExternalNumber
	res, err := h.Engine.CreateOrUpsert(c.Request().Context(), in)
	if err != nil {
		return engineError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// Delete handles DELETE /v1/admin/reservations/:id.
func (h *AdminReservationHandler) Delete(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if err := h.Reservations.Delete(c.Request().Context(), id); err != nil {
		return engineError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

type assignReq struct {
	Room  string `json:"room"`
	Phone string `json:"phone"`
}

// Assign handles POST /v1/admin/reservations/:id/assign.  The response
// carries an advisory room_conflict flag; an overlapping stay on the
// same room does not block the assignment.
func (h *AdminReservationHandler) Assign(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req assignReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ctx := c.Request().Context()

	current, err := h.Reservations.ByID(ctx, id)
	if err != nil {
		return engineError(c, err)
	}
	conflict := false
	if free, err := h.Engine.IsRoomFreeForStay(ctx, req.Room, current.CheckIn, current.CheckOut, id); err == nil {
		conflict = !free
	}

	updated, err := h.Engine.AssignRoom(ctx, id, req.Room, req.Phone)
	if err != nil {
		return engineError(c, err)
	}

	go h.Notifier.Notify(model.NotifyReservationAssigned,
		"Room assigned",
		fmt.Sprintf("%s: room %s for %s", updated.ExternalNumber, req.Room, updated.GuestName))
	go h.publishGuestMessage(updated, req.Room)

	return c.JSON(http.StatusOK, echo.Map{"reservation": updated, "room_conflict": conflict})
}

// publishGuestMessage queues the portal-link message for the guest.
// Failures are logged by the publisher and ignored here.
func (h *AdminReservationHandler) publishGuestMessage(res *model.Reservation, room string) {
	if res.GuestToken == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = queue_publisher.PublishGuestMessage(ctx, queue.GuestMessageEvent{
		ReservationID:  res.ID,
		ExternalNumber: res.ExternalNumber,
		GuestName:      res.GuestName,
		Phone:          res.Phone,
		Room:           room,
		PortalURL:      fmt.Sprintf("%s/guest/%s", h.PortalBaseURL, *res.GuestToken),
		Kind:           "room_assigned",
		QueuedAt:       time.Now().UTC().Format(time.RFC3339),
	})
}

// Cancel handles POST /v1/admin/reservations/:id/cancel.
func (h *AdminReservationHandler) Cancel(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	res, err := h.Engine.Cancel(c.Request().Context(), id)
	if err != nil {
		return engineError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

type statusReq struct {
	Status string `json:"status"`
}

// Status handles POST /v1/admin/reservations/:id/status for the
// transitions staff trigger directly.  Reaching ASSIGNED goes through
// Assign instead because it needs a room.
func (h *AdminReservationHandler) Status(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req statusReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	res, err := h.Engine.TransitionStatus(c.Request().Context(), id, req.Status)
	if err != nil {
		return engineError(c, err)
	}
	switch res.Status {
	case model.ReservationCheckedIn:
		go h.Notifier.Notify(model.NotifyGuestCheckedIn, "Guest checked in",
			fmt.Sprintf("%s: %s", res.ExternalNumber, res.GuestName))
	case model.ReservationCheckedOut:
		go h.Notifier.Notify(model.NotifyGuestCheckedOut, "Guest checked out",
			fmt.Sprintf("%s: %s", res.ExternalNumber, res.GuestName))
	}
	return c.JSON(http.StatusOK, res)
}
