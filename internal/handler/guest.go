package handler

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/lodge-operations/internal/engine"
	"github.com/iliyamo/lodge-operations/internal/hub"
	"github.com/iliyamo/lodge-operations/internal/model"
	"github.com/iliyamo/lodge-operations/internal/repository"
	queue_publisher "github.com/iliyamo/lodge-operations/internal/service"
)

// GuestHandler serves the token-scoped guest portal.  Every method
// resolves the opaque token first; a token that fails to resolve gets
// the same uniform 401 regardless of why, so the endpoint cannot be
// used to probe for valid tokens.  The token itself never appears in
// responses or logs.
type GuestHandler struct {
	Resolver      *engine.GuestResolver
	Reservations  *engine.ReservationEngine
	OrderEngine   *engine.OrderEngine
	Orders        *repository.OrderRepo
	Announcements *repository.AnnouncementRepo
	Hub           *hub.Hub
	Notifier      *queue_publisher.Notifier
}

// NewGuestHandler constructs a GuestHandler.  All dependencies must be
// non-nil.
func NewGuestHandler(resolver *engine.GuestResolver, reservations *engine.ReservationEngine, orderEngine *engine.OrderEngine, orders *repository.OrderRepo, announcements *repository.AnnouncementRepo, h *hub.Hub, notifier *queue_publisher.Notifier) *GuestHandler {
	if resolver == nil || reservations == nil || orderEngine == nil || orders == nil || announcements == nil || h == nil || notifier == nil {
		panic("nil dependency passed to NewGuestHandler")
	}
	return &GuestHandler{
		Resolver:      resolver,
		Reservations:  reservations,
		OrderEngine:   orderEngine,
		Orders:        orders,
		Announcements: announcements,
		Hub:           h,
		Notifier:      notifier,
	}
}

func (h *GuestHandler) resolve(c echo.Context) (*model.Reservation, error) {
	return h.Resolver.Resolve(c.Request().Context(), c.Param("token"))
}

// Info handles GET /v1/guest/:token.  It returns the reservation the
// token grants access to.
func (h *GuestHandler) Info(c echo.Context) error {
	res, err := h.resolve(c)
	if err != nil {
		return engineError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// ListOrders handles GET /v1/guest/:token/orders.
func (h *GuestHandler) ListOrders(c echo.Context) error {
	res, err := h.resolve(c)
	if err != nil {
		return engineError(c, err)
	}
	orders, err := h.Orders.ListByReservation(c.Request().Context(), res.ID)
	if err != nil {
		return engineError(c, err)
	}
	return c.JSON(http.StatusOK, listResponse{Items: orders, Total: len(orders)})
}

type createOrderReq struct {
	Type         string            `json:"type"`
	Items        []model.OrderItem `json:"items"`
	TotalAmount  int64             `json:"total_amount"`
	DeliveryTime *string           `json:"delivery_time"`
	Note         *string           `json:"note"`
}

// CreateOrder handles POST /v1/guest/:token/orders.  The order is
// created with status PENDING; connected staff dashboards and this
// guest's other devices learn about it through the hub.
func (h *GuestHandler) CreateOrder(c echo.Context) error {
	res, err := h.resolve(c)
	if err != nil {
		return engineError(c, err)
	}
	var req createOrderReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	order, err := h.OrderEngine.Create(c.Request().Context(), engine.OrderInput{
		ReservationID: res.ID,
		Type:          req.Type,
		Items:         req.Items,
		TotalAmount:   req.TotalAmount,
		DeliveryTime:  req.DeliveryTime,
		Note:          req.Note,
	})
	if err != nil {
		return engineError(c, err)
	}
	go h.Notifier.Notify(model.NotifyOrderCreated, "New order",
		fmt.Sprintf("%s placed a %s order (%d won)", res.GuestName, order.Type, order.TotalAmount))
	return c.JSON(http.StatusCreated, order)
}

// StreamOrders handles GET /v1/guest/:token/orders/stream.  The
// snapshot carries the reservation's current orders so the client
// needs no separate fetch to close the connect/first-event gap.
func (h *GuestHandler) StreamOrders(c echo.Context) error {
	res, err := h.resolve(c)
	if err != nil {
		return engineError(c, err)
	}
	orders, err := h.Orders.ListByReservation(c.Request().Context(), res.ID)
	if err != nil {
		return engineError(c, err)
	}
	return streamEvents(c, h.Hub, orders, hub.ReservationAudience(res.ID))
}

// CheckIn handles POST /v1/guest/:token/checkin.
func (h *GuestHandler) CheckIn(c echo.Context) error {
	res, err := h.resolve(c)
	if err != nil {
		return engineError(c, err)
	}
	updated, err := h.Reservations.CheckIn(c.Request().Context(), res.ID)
	if err != nil {
		return engineError(c, err)
	}
	go h.Notifier.Notify(model.NotifyGuestCheckedIn, "Guest checked in",
		fmt.Sprintf("%s: %s", updated.ExternalNumber, updated.GuestName))
	return c.JSON(http.StatusOK, updated)
}

// CheckOut handles POST /v1/guest/:token/checkout.  The body is the
// checkout checklist: stored verbatim, never interpreted.
func (h *GuestHandler) CheckOut(c echo.Context) error {
	res, err := h.resolve(c)
	if err != nil {
		return engineError(c, err)
	}
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if len(body) > 0 && !json.Valid(body) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "checklist must be JSON"})
	}
	updated, err := h.Reservations.CheckOut(c.Request().Context(), res.ID, json.RawMessage(body))
	if err != nil {
		return engineError(c, err)
	}
	go h.Notifier.Notify(model.NotifyGuestCheckedOut, "Guest checked out",
		fmt.Sprintf("%s: %s", updated.ExternalNumber, updated.GuestName))
	return c.JSON(http.StatusOK, updated)
}

// ListAnnouncements handles GET /v1/guest/:token/announcements.  Only
// currently visible announcements are returned.
func (h *GuestHandler) ListAnnouncements(c echo.Context) error {
	if _, err := h.resolve(c); err != nil {
		return engineError(c, err)
	}
	items, err := h.Announcements.ListActive(c.Request().Context())
	if err != nil {
		return engineError(c, err)
	}
	return c.JSON(http.StatusOK, listResponse{Items: items, Total: len(items)})
}

// StreamAnnouncements handles GET /v1/guest/:token/announcements/stream.
// All guests share the single announcement broadcast audience; the
// snapshot is the active announcement list.
func (h *GuestHandler) StreamAnnouncements(c echo.Context) error {
	if _, err := h.resolve(c); err != nil {
		return engineError(c, err)
	}
	items, err := h.Announcements.ListActive(c.Request().Context())
	if err != nil {
		return engineError(c, err)
	}
	return streamEvents(c, h.Hub, items, hub.AnnouncementBroadcast)
}

// ListAnnouncementReads handles GET /v1/guest/:token/announcements/reads.
func (h *GuestHandler) ListAnnouncementReads(c echo.Context) error {
	res, err := h.resolve(c)
	if err != nil {
		return engineError(c, err)
	}
	reads, err := h.Announcements.ListReads(c.Request().Context(), res.ID)
	if err != nil {
		return engineError(c, err)
	}
	return c.JSON(http.StatusOK, listResponse{Items: reads, Total: len(reads)})
}

// MarkAnnouncementRead handles POST /v1/guest/:token/announcements/:id/read.
// Recording the same receipt twice is a no-op.
func (h *GuestHandler) MarkAnnouncementRead(c echo.Context) error {
	res, err := h.resolve(c)
	if err != nil {
		return engineError(c, err)
	}
	announcementID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || announcementID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid announcement id"})
	}
	ctx := c.Request().Context()
	if _, err := h.Announcements.ByID(ctx, announcementID); err != nil {
		return engineError(c, err)
	}
	if err := h.Announcements.RecordRead(ctx, res.ID, announcementID); err != nil {
		return engineError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
