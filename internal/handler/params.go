package handler

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
)

// pathID parses the :id path parameter.  Zero is never a valid row id.
func pathID(c echo.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	return id, err == nil && id > 0
}

// queryInt parses an optional integer query parameter, returning 0 when
// absent or malformed so repository defaults kick in.
func queryInt(c echo.Context, name string) int {
	n, _ := strconv.Atoi(c.QueryParam(name))
	return n
}

// queryDate parses an optional YYYY-MM-DD query parameter.  The zero
// time means absent or malformed, which filters treat as "no filter".
func queryDate(c echo.Context, name string) time.Time {
	t, _ := time.Parse("2006-01-02", c.QueryParam(name))
	return t
}
