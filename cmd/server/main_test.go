package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

func TestCORSPreflightAllowsEventEdits(t *testing.T) {
	e := echo.New()
	e.Use(echomw.CORSWithConfig(corsConfig([]string{"https://admin.example"})))
	e.PUT("/v1/admin/events/:id", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	for _, method := range []string{http.MethodGet, http.MethodPost, http.MethodPut} {
		req := httptest.NewRequest(http.MethodOptions, "/v1/admin/events/ev-1", nil)
		req.Header.Set(echo.HeaderOrigin, "https://admin.example")
		req.Header.Set(echo.HeaderAccessControlRequestMethod, method)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		if rec.Code != http.StatusNoContent {
			t.Fatalf("%s preflight status = %d", method, rec.Code)
		}
		if allowed := rec.Header().Get(echo.HeaderAccessControlAllowMethods); !strings.Contains(allowed, method) {
			t.Fatalf("%s not in allowed methods %q", method, allowed)
		}
	}
}
