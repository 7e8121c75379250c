package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/lodge-operations/internal/engine"
	"github.com/iliyamo/lodge-operations/internal/hub"
)

func TestEngineErrorMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"validation", fmt.Errorf("%w: bad phone", engine.ErrValidation), http.StatusBadRequest, "validation_error"},
		{"not found", fmt.Errorf("%w: reservation 9", engine.ErrNotFound), http.StatusNotFound, "not_found"},
		{"invalid transition", fmt.Errorf("%w: PENDING -> CHECKED_IN", engine.ErrInvalidTransition), http.StatusConflict, "invalid_transition"},
		{"invalid token", engine.ErrInvalidToken, http.StatusUnauthorized, "invalid_token"},
		{"conflict", fmt.Errorf("%w: external number R-1", engine.ErrConflict), http.StatusConflict, "conflict"},
		{"unknown", fmt.Errorf("driver: bad connection"), http.StatusInternalServerError, "internal"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			e := echo.New()
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

			if err := engineError(c, tt.err); err != nil {
				t.Fatalf("engineError returned %v", err)
			}
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			var body map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("unmarshal body: %v", err)
			}
			if body["error"] != tt.wantCode {
				t.Fatalf("error code = %q, want %q", body["error"], tt.wantCode)
			}
		})
	}
}

// Store errors must never reach the client verbatim.
func TestEngineErrorHidesInternals(t *testing.T) {
	t.Parallel()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

	if err := engineError(c, fmt.Errorf("dial tcp 10.0.0.5:3306: connect refused")); err != nil {
		t.Fatalf("engineError returned %v", err)
	}
	if strings.Contains(rec.Body.String(), "10.0.0.5") {
		t.Fatalf("store error leaked to client: %s", rec.Body.String())
	}
}

func TestWriteEventFraming(t *testing.T) {
	t.Parallel()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

	ev := hub.Event{Type: "order_created", Data: map[string]int{"order_id": 12}}
	if err := writeEvent(c.Response(), ev); err != nil {
		t.Fatalf("writeEvent: %v", err)
	}
	want := "event: order_created\ndata: {\"order_id\":12}\n\n"
	if rec.Body.String() != want {
		t.Fatalf("framing = %q, want %q", rec.Body.String(), want)
	}
}
