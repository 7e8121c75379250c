package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/lodge-operations/internal/hub"
)

// heartbeatInterval keeps idle event streams alive through proxies and
// load balancers that drop quiet connections.  A failed heartbeat
// write tears the subscription down the same way a failed event write
// does.
const heartbeatInterval = 25 * time.Second

// streamEvents serves a Server-Sent Events connection backed by the
// fan-out hub.  The subscriber is registered with the given snapshot
// and audiences, so the client first sees "connected", then
// "snapshot", then live events in publish order.  The loop ends, and
// the subscription is removed, when the client goes away, a write
// fails, or the hub drops the subscriber for not draining.
func streamEvents(c echo.Context, h *hub.Hub, snapshot interface{}, audiences ...string) error {
	resp := c.Response()
	resp.Header().Set(echo.HeaderContentType, "text/event-stream")
	resp.Header().Set("Cache-Control", "no-cache")
	resp.Header().Set("Connection", "keep-alive")
	resp.WriteHeader(http.StatusOK)

	sub := h.Subscribe(snapshot, audiences...)
	defer h.Unsubscribe(sub)

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-sub.Events():
			if !ok {
				// Dropped by the hub.
				return nil
			}
			if err := writeEvent(resp, ev); err != nil {
				return nil
			}
		case <-heartbeat.C:
			if _, err := fmt.Fprint(resp, ": ping\n\n"); err != nil {
				return nil
			}
			resp.Flush()
		}
	}
}

// writeEvent serializes one hub event in SSE framing and flushes it to
// the client.
func writeEvent(resp *echo.Response, ev hub.Event) error {
	data, err := json.Marshal(ev.Data)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(resp, "event: %s\ndata: %s\n\n", ev.Type, data); err != nil {
		return err
	}
	resp.Flush()
	return nil
}
