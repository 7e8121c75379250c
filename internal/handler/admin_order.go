package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/lodge-operations/internal/engine"
	"github.com/iliyamo/lodge-operations/internal/model"
	"github.com/iliyamo/lodge-operations/internal/repository"
	queue_publisher "github.com/iliyamo/lodge-operations/internal/service"
)

// AdminOrderHandler serves the staff order surface.  Orders are placed
// by guests; staff move them along the fulfilment line or cancel them.
type AdminOrderHandler struct {
	Engine   *engine.OrderEngine
	Orders   *repository.OrderRepo
	Notifier *queue_publisher.Notifier
}

func NewAdminOrderHandler(eng *engine.OrderEngine, orders *repository.OrderRepo, notifier *queue_publisher.Notifier) *AdminOrderHandler {
	if eng == nil || orders == nil || notifier == nil {
		panic("nil dependency passed to NewAdminOrderHandler")
	}
	return &AdminOrderHandler{Engine: eng, Orders: orders, Notifier: notifier}
}

// List handles GET /v1/admin/orders with status/type/reservation_id/
// page/limit filters.
func (h *AdminOrderHandler) List(c echo.Context) error {
	reservationID, _ := strconv.ParseUint(c.QueryParam("reservation_id"), 10, 64)
	items, total, err := h.Orders.List(c.Request().Context(), repository.OrderFilter{
		Status:        c.QueryParam("status"),
		Type:          c.QueryParam("type"),
		ReservationID: reservationID,
		Page:          queryInt(c, "page"),
		Limit:         queryInt(c, "limit"),
	})
	if err != nil {
		return engineError(c, err)
	}
	return c.JSON(http.StatusOK, listResponse{Items: items, Total: total})
}

// Get handles GET /v1/admin/orders/:id.
func (h *AdminOrderHandler) Get(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	o, err := h.Orders.ByID(c.Request().Context(), id)
	if err != nil {
		return engineError(c, err)
	}
	return c.JSON(http.StatusOK, o)
}

// Status handles POST /v1/admin/orders/:id/status.  An illegal move
// returns 409 and changes nothing.
func (h *AdminOrderHandler) Status(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req statusReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	o, err := h.Engine.TransitionStatus(c.Request().Context(), id, req.Status)
	if err != nil {
		return engineError(c, err)
	}
	go h.Notifier.Notify(model.NotifyOrderStatusChanged, "Order status changed",
		fmt.Sprintf("order %d is now %s", o.ID, o.Status))
	return c.JSON(http.StatusOK, o)
}
