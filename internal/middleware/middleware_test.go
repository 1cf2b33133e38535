package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-ticketing/internal/config"
	"github.com/iliyamo/event-ticketing/internal/model"
	"github.com/iliyamo/event-ticketing/internal/utils"
)

func ok(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"user_id": c.Get(CtxUserID),
		"role":    c.Get(CtxRole),
		"name":    c.Get(CtxUserName),
	})
}

func serve(e *echo.Echo, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/p", nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestJWTAuthAndRole(t *testing.T) {
	e := echo.New()
	e.GET("/p", ok, JWTAuth("secret"), RequireRole(model.RoleAdmin))

	admin, _ := utils.NewAccessToken("secret", utils.Claims{UserID: "u-1", Role: model.RoleAdmin, Name: "Gate"}, time.Minute, time.Now())
	customer, _ := utils.NewAccessToken("secret", utils.Claims{UserID: "u-2", Role: model.RoleCustomer}, time.Minute, time.Now())

	cases := []struct {
		name string
		auth string
		want int
	}{
		{"no header", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"garbage", "Bearer abc", http.StatusUnauthorized},
		{"customer", "Bearer " + customer.Token, http.StatusForbidden},
		{"admin", "Bearer " + admin.Token, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := serve(e, tc.auth)
			if rec.Code != tc.want {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tc.want, rec.Body)
			}
			if tc.want == http.StatusOK && !strings.Contains(rec.Body.String(), `"name":"Gate"`) {
				t.Fatalf("body = %s", rec.Body)
			}
		})
	}
}

func TestDisabledRedisMiddlewarePassThrough(t *testing.T) {
	e := echo.New()
	e.GET("/p", ok,
		NewRedisCache(config.CacheConfig{Enabled: true}, nil),
		NewTokenBucket(config.RateLimitConfig{Enabled: true, Capacity: 1}, nil, nil),
	)
	for i := 0; i < 3; i++ {
		rec := serve(e, "")
		if rec.Code != http.StatusOK || rec.Header().Get("X-Cache") != "" || rec.Header().Get("X-RateLimit-Limit") != "" {
			t.Fatalf("request %d: %d %v", i, rec.Code, rec.Header())
		}
	}
}

func TestCacheKey(t *testing.T) {
	e := echo.New()
	cfg := config.CacheConfig{Prefix: "evt:cache", KeyStrategy: "route_query"}
	key := func(id, query string) string {
		req := httptest.NewRequest(http.MethodGet, "/v1/events/"+id+"/seats?"+query, nil)
		c := e.NewContext(req, httptest.NewRecorder())
		c.SetPath("/v1/events/:id/seats")
		c.SetParamNames("id")
		c.SetParamValues(id)
		return cacheKey(cfg, c)
	}
	if key("a", "") == key("b", "") {
		t.Fatal("different events share a key")
	}
	if key("a", "x=1") == key("a", "x=2") {
		t.Fatal("query ignored")
	}
	if !strings.HasPrefix(key("a", ""), "evt:cache:") {
		t.Fatal("prefix missing")
	}
}

func TestCachedPayload(t *testing.T) {
	h := http.Header{"Content-Type": {"application/json"}}
	bs, err := encodeCached(http.StatusOK, h, []byte(`{"a":1}`))
	if err != nil {
		t.Fatal(err)
	}
	status, hdr, body, ok := decodeCached(bs)
	if !ok || status != 200 || hdr.Get("Content-Type") != "application/json" || string(body) != `{"a":1}` {
		t.Fatalf("decoded %d %v %q %v", status, hdr, body, ok)
	}
	if _, _, _, ok := decodeCached(bs[:6]); ok {
		t.Fatal("short payload accepted")
	}
}

func TestRateKey(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/checkout/orders", nil)
	req.Header.Set("X-Real-IP", "10.0.0.9")
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/v1/checkout/orders")
	c.Set(CtxUserID, "u-1")

	got := rateKey(config.RateLimitConfig{Prefix: "rl", KeyStrategy: "user_route"}, c)
	if got != "rl:user:u-1:route:POST /v1/checkout/orders" {
		t.Fatalf("key = %q", got)
	}
	got = rateKey(config.RateLimitConfig{Prefix: "rl", KeyStrategy: "ip"}, c)
	if got != "rl:ip:10.0.0.9" {
		t.Fatalf("key = %q", got)
	}
}
