package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-ticketing/internal/checkout"
	"github.com/iliyamo/event-ticketing/internal/clock"
	"github.com/iliyamo/event-ticketing/internal/logger"
	"github.com/iliyamo/event-ticketing/internal/middleware"
	"github.com/iliyamo/event-ticketing/internal/model"
	"github.com/iliyamo/event-ticketing/internal/notify"
	"github.com/iliyamo/event-ticketing/internal/payment"
	"github.com/iliyamo/event-ticketing/internal/repository"
	"github.com/iliyamo/event-ticketing/internal/seating"
	"github.com/iliyamo/event-ticketing/internal/service"
	"github.com/iliyamo/event-ticketing/internal/utils"
)

const secret = "test-secret"

var now = time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)

func bearer(t *testing.T, uid, role, name string) string {
	t.Helper()
	at, err := utils.NewAccessToken(secret, utils.Claims{UserID: uid, Role: role, Name: name}, time.Hour, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	return "Bearer " + at.Token
}

func do(e *echo.Echo, method, path, auth, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &m); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return m
}

func TestRespondError(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{checkout.FieldErrors{"email": "Email is invalid"}, 400, "validation_error"},
		{payment.ErrAmountTooSmall, 400, "amount_too_small"},
		{fmt.Errorf("%w: timeout", payment.ErrOrderCreationFailed), 502, "order_creation_failed"},
		{payment.ErrInvalidSignature, 400, "invalid_signature"},
		{service.ErrEventNotFound, 404, "event_not_found"},
		{service.ErrInsufficientInventory, 409, "insufficient_inventory"},
		{service.ErrAlreadyCheckedIn, 409, "already_checked_in"},
		{service.ErrBookingNotFound, 404, "booking_not_found"},
		{service.ErrOrderNotFound, 404, "order_not_found"},
		{errors.New("boom"), 500, ""},
	}
	e := echo.New()
	for _, tc := range cases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
			_ = respondError(c, logger.Discard(), tc.err)
			if rec.Code != tc.status {
				t.Fatalf("status = %d, want %d", rec.Code, tc.status)
			}
			body := decode(t, rec)
			if code, _ := body["code"].(string); code != tc.code {
				t.Fatalf("code = %q, want %q", code, tc.code)
			}
			if tc.code == "invalid_signature" && body["error"] != "payment verification failed" {
				t.Fatalf("error = %v", body["error"])
			}
			if tc.status == 500 && strings.Contains(rec.Body.String(), "boom") {
				t.Fatal("internal error leaked")
			}
		})
	}
}

// fakeCheckout prices seats at 300 and accepts signatures equal to
// "ok:<order>".
type fakeCheckout struct {
	mu     sync.Mutex
	orders map[string]service.CreateOrderInput
}

func (f *fakeCheckout) CreateOrder(_ context.Context, in service.CreateOrderInput) (checkout.CreatedOrder, error) {
	if errs := checkout.ValidateAttendee(in.Attendee); errs != nil {
		return checkout.CreatedOrder{}, errs
	}
	if in.EventID == "sold-out" {
		return checkout.CreatedOrder{}, service.ErrInsufficientInventory
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.orders == nil {
		f.orders = map[string]service.CreateOrderInput{}
	}
	id := fmt.Sprintf("order_%d", len(f.orders)+1)
	f.orders[id] = in
	return checkout.CreatedOrder{OrderID: id, AmountMinor: int64(len(in.Seats)) * 30000, Currency: "INR", KeyID: "rzp_test"}, nil
}

func (f *fakeCheckout) VerifyAndBook(_ context.Context, in service.VerifyInput) (*model.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[in.OrderID]
	if !ok || o.UserID != in.UserID {
		return nil, service.ErrOrderNotFound
	}
	if in.Signature != "ok:"+in.OrderID {
		return nil, payment.ErrInvalidSignature
	}
	return &model.Booking{
		ID: "bk-1", UserID: in.UserID, EventID: o.EventID, SeatNumbers: o.Seats,
		TicketCount: len(o.Seats), TicketPrice: 300, Amount: int64(len(o.Seats)) * 300,
		PaymentID: in.PaymentID, OrderID: in.OrderID, PaymentStatus: model.PaymentCompleted,
	}, nil
}

func checkoutServer(api CheckoutAPI) *echo.Echo {
	e := echo.New()
	h := NewCheckoutHandler(api, logger.Discard())
	g := e.Group("/v1/checkout", middleware.JWTAuth(secret))
	g.POST("/orders", h.CreateOrder)
	g.POST("/verify", h.Verify)
	return e
}

func TestCheckoutHandler(t *testing.T) {
	e := checkoutServer(&fakeCheckout{})
	auth := bearer(t, "user-1", model.RoleCustomer, "Asha")

	if rec := do(e, http.MethodPost, "/v1/checkout/orders", "", `{}`); rec.Code != http.StatusUnauthorized {
		t.Fatalf("no token: %d", rec.Code)
	}

	rec := do(e, http.MethodPost, "/v1/checkout/orders", auth,
		`{"event_id":"ev-1","seats":["T1-N"],"attendee":{"name":"","email":"x","phone":"1"}}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("validation: %d", rec.Code)
	}
	fields, _ := decode(t, rec)["fields"].(map[string]any)
	if len(fields) != 3 {
		t.Fatalf("fields = %v", fields)
	}

	rec = do(e, http.MethodPost, "/v1/checkout/orders", auth,
		`{"event_id":"sold-out","seats":["T1-N"],"attendee":{"name":"Asha","email":"a@b.co","phone":"9876543210"}}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("sold out: %d", rec.Code)
	}

	rec = do(e, http.MethodPost, "/v1/checkout/orders", auth,
		`{"event_id":"ev-1","seats":["T1-N","T1-E"],"attendee":{"name":"Asha","email":"a@b.co","phone":"9876543210"}}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", rec.Code, rec.Body)
	}
	var order checkout.CreatedOrder
	_ = json.Unmarshal(rec.Body.Bytes(), &order)
	if order.OrderID != "order_1" || order.AmountMinor != 60000 || order.KeyID != "rzp_test" {
		t.Fatalf("order = %+v", order)
	}

	rec = do(e, http.MethodPost, "/v1/checkout/verify", auth,
		`{"order_id":"order_1","payment_id":"pay_1","signature":"forged"}`)
	if rec.Code != http.StatusBadRequest || decode(t, rec)["error"] != "payment verification failed" {
		t.Fatalf("forged: %d %s", rec.Code, rec.Body)
	}
	rec = do(e, http.MethodPost, "/v1/checkout/verify", auth,
		`{"order_id":"order_1","payment_id":"pay_1","signature":"ok:order_1"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("verify: %d %s", rec.Code, rec.Body)
	}
}

func TestCheckoutWireContract(t *testing.T) {
	srv := httptest.NewServer(checkoutServer(&fakeCheckout{}))
	defer srv.Close()

	at, _ := utils.NewAccessToken(secret, utils.Claims{UserID: "user-1", Role: model.RoleCustomer}, time.Hour, time.Now())
	client := checkout.NewHTTPClient(srv.URL, at.Token)
	ctx := context.Background()
	attendee := model.Attendee{Name: "Asha", Email: "a@b.co", Phone: "9876543210"}

	_, err := client.CreateOrder(ctx, checkout.CreateOrderRequest{EventID: "ev-1", Seats: []string{"T1-N"}, Attendee: model.Attendee{Name: "Asha"}})
	var fe checkout.FieldErrors
	if !errors.As(err, &fe) || fe["email"] == "" {
		t.Fatalf("err = %v", err)
	}

	o, err := client.CreateOrder(ctx, checkout.CreateOrderRequest{EventID: "ev-1", Seats: []string{"T1-N", "T1-E"}, Attendee: attendee})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := client.VerifyAndBook(ctx, checkout.VerifyRequest{OrderID: o.OrderID, PaymentID: "pay_1", Signature: "bad"}); !errors.Is(err, payment.ErrInvalidSignature) {
		t.Fatalf("err = %v", err)
	}
	b, err := client.VerifyAndBook(ctx, checkout.VerifyRequest{OrderID: o.OrderID, PaymentID: "pay_1", Signature: "ok:" + o.OrderID})
	if err != nil {
		t.Fatal(err)
	}
	if b.Amount != 600 || len(b.SeatNumbers) != 2 {
		t.Fatalf("booking = %+v", b)
	}
}

type fakeCatalog struct{ ev model.Event }

func (f fakeCatalog) List(_ context.Context, q repository.EventQuery) ([]model.Event, int64, error) {
	if q.Category != "" && q.Category != f.ev.Category {
		return nil, 0, nil
	}
	return []model.Event{f.ev}, 1, nil
}

func (f fakeCatalog) Get(_ context.Context, id string) (*model.Event, error) {
	if id != f.ev.ID {
		return nil, repository.ErrEventNotFound
	}
	ev := f.ev
	return &ev, nil
}

func (f fakeCatalog) SeatLayout(ctx context.Context, id string) (seating.Layout, error) {
	ev, err := f.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return seating.GenerateLayout(ev.TotalSeats, ev.AvailableSeats), nil
}

func TestEventHandler(t *testing.T) {
	e := echo.New()
	h := NewEventHandler(fakeCatalog{model.Event{ID: "ev-1", Title: "Jazz", Category: "music", TotalSeats: 16, AvailableSeats: 5}}, logger.Discard())
	e.GET("/v1/events", h.List)
	e.GET("/v1/events/:id", h.Get)
	e.GET("/v1/events/:id/seats", h.Seats)

	body := decode(t, do(e, http.MethodGet, "/v1/events?category=comedy&page=-3", "", ""))
	if items, _ := body["items"].([]any); len(items) != 0 || body["page"].(float64) != 1 {
		t.Fatalf("list = %v", body)
	}
	if rec := do(e, http.MethodGet, "/v1/events/nope", "", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("missing: %d", rec.Code)
	}
	seats := decode(t, do(e, http.MethodGet, "/v1/events/ev-1/seats", "", ""))
	if seats["available"].(float64) != 5 || len(seats["tables"].([]any)) != 4 {
		t.Fatalf("seats = %v", seats)
	}
}

type fakeBookings struct {
	b *model.BookingDetail
}

func (f *fakeBookings) Get(_ context.Context, id string, v service.Viewer) (*model.BookingDetail, error) {
	if f.b == nil || id != f.b.ID {
		return nil, service.ErrBookingNotFound
	}
	if v.Role != model.RoleAdmin && v.UserID != f.b.UserID {
		return nil, service.ErrForbidden
	}
	return f.b, nil
}

func (f *fakeBookings) ListMine(ctx context.Context, v service.Viewer) ([]model.BookingDetail, error) {
	if f.b != nil && f.b.UserID == v.UserID {
		return []model.BookingDetail{*f.b}, nil
	}
	return nil, nil
}

func (f *fakeBookings) ListForEvent(_ context.Context, _ string, v service.Viewer) ([]model.BookingDetail, error) {
	if v.Role != model.RoleAdmin {
		return nil, service.ErrForbidden
	}
	return []model.BookingDetail{*f.b}, nil
}

func (f *fakeBookings) TicketQR(ctx context.Context, id string, v service.Viewer, _ int) ([]byte, error) {
	if _, err := f.Get(ctx, id, v); err != nil {
		return nil, err
	}
	return []byte("\x89PNG"), nil
}

func (f *fakeBookings) TicketPDF(ctx context.Context, id string, v service.Viewer) ([]byte, error) {
	if _, err := f.Get(ctx, id, v); err != nil {
		return nil, err
	}
	return []byte("%PDF-1.3"), nil
}

func TestBookingHandler(t *testing.T) {
	fb := &fakeBookings{b: &model.BookingDetail{Booking: model.Booking{ID: "bk-1", UserID: "user-1"}}}
	h := NewBookingHandler(fb, logger.Discard())
	e := echo.New()
	g := e.Group("/v1", middleware.JWTAuth(secret))
	g.GET("/my-bookings", h.Mine)
	g.GET("/bookings/:id", h.Get)
	g.GET("/bookings/:id/qr.png", h.QR)
	g.GET("/bookings/:id/ticket.pdf", h.PDF)

	owner := bearer(t, "user-1", model.RoleCustomer, "")
	other := bearer(t, "user-2", model.RoleCustomer, "")

	if rec := do(e, http.MethodGet, "/v1/bookings/bk-1", owner, ""); rec.Code != http.StatusOK {
		t.Fatalf("owner: %d", rec.Code)
	}
	if rec := do(e, http.MethodGet, "/v1/bookings/bk-1", other, ""); rec.Code != http.StatusNotFound {
		t.Fatalf("other: %d", rec.Code)
	}
	rec := do(e, http.MethodGet, "/v1/bookings/bk-1/qr.png", owner, "")
	if rec.Code != http.StatusOK || rec.Header().Get(echo.HeaderContentType) != "image/png" {
		t.Fatalf("qr: %d %v", rec.Code, rec.Header())
	}
	rec = do(e, http.MethodGet, "/v1/bookings/bk-1/ticket.pdf", owner, "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Header().Get(echo.HeaderContentDisposition), "e-ticket-bk-1.pdf") {
		t.Fatalf("pdf: %d %v", rec.Code, rec.Header())
	}
	mine := decode(t, do(e, http.MethodGet, "/v1/my-bookings", other, ""))
	if items, _ := mine["items"].([]any); items == nil || len(items) != 0 {
		t.Fatalf("mine = %v", mine)
	}
}

type fakeCheckIn struct {
	done map[string]*model.BookingDetail
}

func (f *fakeCheckIn) CheckIn(_ context.Context, id, op string) (*model.BookingDetail, error) {
	if id != "bk-1" {
		return nil, service.ErrBookingNotFound
	}
	if b, ok := f.done[id]; ok {
		return b, service.ErrAlreadyCheckedIn
	}
	at := now
	b := &model.BookingDetail{Booking: model.Booking{ID: id, CheckedIn: true, CheckedInAt: &at, CheckedInBy: &op}}
	f.done[id] = b
	return b, nil
}

func (f *fakeCheckIn) Scan(ctx context.Context, raw []byte, op string) (*model.BookingDetail, error) {
	var p struct {
		BookingID string `json:"bookingId"`
	}
	if err := json.Unmarshal(raw, &p); err != nil || p.BookingID == "" {
		return nil, service.ErrInvalidTicket
	}
	return f.CheckIn(ctx, p.BookingID, op)
}

func TestAdminHandler(t *testing.T) {
	fb := &fakeBookings{b: &model.BookingDetail{Booking: model.Booking{ID: "bk-1", UserID: "user-1", CheckedIn: true}}}
	h := NewAdminHandler(fb, &fakeCheckIn{done: map[string]*model.BookingDetail{}}, logger.Discard())
	e := echo.New()
	g := e.Group("/v1/admin", middleware.JWTAuth(secret), middleware.RequireRole(model.RoleAdmin))
	g.GET("/events/:id/bookings", h.EventBookings)
	g.POST("/bookings/:id/check-in", h.CheckIn)
	g.POST("/check-in/scan", h.Scan)

	admin := bearer(t, "admin-1", model.RoleAdmin, "Gate One")
	customer := bearer(t, "user-1", model.RoleCustomer, "")

	if rec := do(e, http.MethodPost, "/v1/admin/bookings/bk-1/check-in", customer, ""); rec.Code != http.StatusForbidden {
		t.Fatalf("customer: %d", rec.Code)
	}
	rec := do(e, http.MethodPost, "/v1/admin/check-in/scan", admin, `{"payload":"{\"bookingId\":\"bk-1\"}"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("scan: %d %s", rec.Code, rec.Body)
	}
	if by := decode(t, rec)["booking"].(map[string]any)["checked_in_by"]; by != "Gate One" {
		t.Fatalf("operator = %v", by)
	}
	rec = do(e, http.MethodPost, "/v1/admin/bookings/bk-1/check-in", admin, "")
	if rec.Code != http.StatusConflict {
		t.Fatalf("repeat: %d", rec.Code)
	}
	if b, _ := decode(t, rec)["booking"].(map[string]any); b["checked_in_by"] != "Gate One" {
		t.Fatalf("repeat body = %s", rec.Body)
	}
	if rec := do(e, http.MethodPost, "/v1/admin/check-in/scan", admin, `garbage`); rec.Code != http.StatusBadRequest {
		t.Fatalf("garbage: %d", rec.Code)
	}
	if rec := do(e, http.MethodPost, "/v1/admin/bookings/bk-9/check-in", admin, ""); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown: %d", rec.Code)
	}
	list := decode(t, do(e, http.MethodGet, "/v1/admin/events/ev-1/bookings", admin, ""))
	if list["checked_in"].(float64) != 1 {
		t.Fatalf("list = %v", list)
	}
}

type fakeEventWriter struct{ events map[string]model.Event }

func (f *fakeEventWriter) Create(_ context.Context, e *model.Event) error {
	e.ID = fmt.Sprintf("ev-%d", len(f.events)+1)
	f.events[e.ID] = *e
	return nil
}

func (f *fakeEventWriter) Update(_ context.Context, e *model.Event) error {
	cur, ok := f.events[e.ID]
	if !ok {
		return repository.ErrEventNotFound
	}
	e.TotalSeats, e.AvailableSeats = cur.TotalSeats, cur.AvailableSeats
	f.events[e.ID] = *e
	return nil
}

func TestAdminHandler_Events(t *testing.T) {
	h := NewAdminHandler(nil, nil, logger.Discard())
	h.Events = service.NewEventAdmin(&fakeEventWriter{events: map[string]model.Event{}}, logger.Discard())
	e := echo.New()
	g := e.Group("/v1/admin", middleware.JWTAuth(secret), middleware.RequireRole(model.RoleAdmin))
	g.POST("/events", h.CreateEvent)
	g.PUT("/events/:id", h.UpdateEvent)
	admin := bearer(t, "admin-1", model.RoleAdmin, "")

	body := `{"title":"Poetry Slam","date":"2026-11-20","time":"19:00","venue":"Loft","price":300,"total_seats":12}`
	rec := do(e, http.MethodPost, "/v1/admin/events", admin, body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", rec.Code, rec.Body)
	}
	created := decode(t, rec)
	if created["id"] != "ev-1" || created["available_seats"].(float64) != 12 {
		t.Fatalf("created = %v", created)
	}

	rec = do(e, http.MethodPost, "/v1/admin/events", admin, `{"title":"","date":"soon","venue":"x","total_seats":4}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("invalid: %d", rec.Code)
	}
	fields, _ := decode(t, rec)["fields"].(map[string]any)
	if fields["title"] == nil || fields["date"] == nil {
		t.Fatalf("fields = %v", fields)
	}

	rec = do(e, http.MethodPut, "/v1/admin/events/ev-1", admin, strings.Replace(body, `"price":300`, `"price":350`, 1))
	if rec.Code != http.StatusOK || decode(t, rec)["price"].(float64) != 350 {
		t.Fatalf("update: %d %s", rec.Code, rec.Body)
	}
	if rec := do(e, http.MethodPut, "/v1/admin/events/ev-9", admin, body); rec.Code != http.StatusNotFound {
		t.Fatalf("update missing: %d", rec.Code)
	}
}

type fakeNotifier struct{ err error }

func (f fakeNotifier) SendTicketConfirmation(context.Context, notify.TicketConfirmation) error {
	return f.err
}

func (f fakeNotifier) SendCheckInConfirmation(context.Context, notify.CheckInConfirmation) error {
	return f.err
}

func TestNotifyHandler(t *testing.T) {
	for _, tc := range []struct {
		name string
		n    Notifier
		body string
		code int
		ok   bool
	}{
		{"sent", fakeNotifier{}, `{"to":"a@b.co","booking_id":"bk-1"}`, 200, true},
		{"missing fields", fakeNotifier{}, `{"to":"a@b.co"}`, 400, false},
		{"delivery failed", fakeNotifier{err: notify.ErrEmailDeliveryFailed}, `{"to":"a@b.co","booking_id":"bk-1"}`, 502, false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			e := echo.New()
			h := NewNotifyHandler(tc.n, logger.Discard())
			e.POST("/t", h.TicketConfirmation)
			e.POST("/c", h.CheckInConfirmation)
			for _, p := range []string{"/t", "/c"} {
				rec := do(e, http.MethodPost, p, "", tc.body)
				if rec.Code != tc.code || decode(t, rec)["success"] != tc.ok {
					t.Fatalf("%s: %d %s", p, rec.Code, rec.Body)
				}
			}
		})
	}
}

type memUsers struct {
	mu    sync.Mutex
	users map[string]model.User
}

func (m *memUsers) Create(_ context.Context, email, name, password, role string, cost int) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return "", repository.ErrEmailExists
		}
	}
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return "", err
	}
	id := fmt.Sprintf("u-%d", len(m.users)+1)
	m.users[id] = model.User{ID: id, Email: email, Name: name, PasswordHash: hash, Role: role, IsActive: true}
	return id, nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, repository.ErrUserNotFound
}

func (m *memUsers) GetByID(_ context.Context, id string) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return model.User{}, repository.ErrUserNotFound
}

type memTokens struct {
	mu     sync.Mutex
	tokens map[string]string // hash -> user id
}

func (m *memTokens) StoreRefresh(_ context.Context, uid, hash string, _ time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[hash] = uid
	return nil
}

func (m *memTokens) ValidateRefresh(_ context.Context, hash string, _ time.Time) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if uid, ok := m.tokens[hash]; ok {
		return uid, nil
	}
	return "", repository.ErrRefreshInvalid
}

func (m *memTokens) Rotate(_ context.Context, uid, oldHash, newHash string, _ time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.tokens[oldHash] != uid {
		return repository.ErrRefreshInvalid
	}
	delete(m.tokens, oldHash)
	m.tokens[newHash] = uid
	return nil
}

func (m *memTokens) RevokeByHash(_ context.Context, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tokens, hash)
	return nil
}

func (m *memTokens) RevokeAllForUser(_ context.Context, uid string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for h, u := range m.tokens {
		if u == uid {
			delete(m.tokens, h)
		}
	}
	return nil
}

func TestAuthHandler(t *testing.T) {
	tokens := &memTokens{tokens: map[string]string{}}
	h := NewAuthHandler(
		AuthSettings{JWTSecret: secret, AccessTTL: time.Hour, RefreshTTL: 24 * time.Hour, BcryptCost: 4},
		&memUsers{users: map[string]model.User{}}, tokens, clock.NewFixed(time.Now()), logger.Discard(),
	)
	e := echo.New()
	e.POST("/register", h.Register)
	e.POST("/login", h.Login)
	e.POST("/refresh", h.Refresh)
	e.POST("/logout", h.Logout)
	e.GET("/me", h.Me, middleware.JWTAuth(secret))

	if rec := do(e, http.MethodPost, "/register", "", `{"email":"a@b.co","password":"short"}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("weak password: %d", rec.Code)
	}
	rec := do(e, http.MethodPost, "/register", "", `{"email":" A@B.co ","name":"Asha","password":"correct horse"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: %d %s", rec.Code, rec.Body)
	}
	if rec := do(e, http.MethodPost, "/register", "", `{"email":"a@b.co","password":"correct horse"}`); rec.Code != http.StatusConflict {
		t.Fatalf("duplicate: %d", rec.Code)
	}
	if rec := do(e, http.MethodPost, "/login", "", `{"email":"a@b.co","password":"wrong horse"}`); rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad login: %d", rec.Code)
	}
	rec = do(e, http.MethodPost, "/login", "", `{"email":"a@b.co","password":"correct horse"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("login: %d", rec.Code)
	}
	var resp authResp
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.User.Role != model.RoleCustomer || resp.User.Name != "Asha" {
		t.Fatalf("user = %+v", resp.User)
	}

	me := decode(t, do(e, http.MethodGet, "/me", "Bearer "+resp.Access.Token, ""))
	if me["email"] != "a@b.co" || me["role"] != model.RoleCustomer {
		t.Fatalf("me = %v", me)
	}

	rec = do(e, http.MethodPost, "/refresh", "", `{"refresh_token":"`+resp.Refresh.Token+`"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("refresh: %d", rec.Code)
	}
	if rec := do(e, http.MethodPost, "/refresh", "", `{"refresh_token":"`+resp.Refresh.Token+`"}`); rec.Code != http.StatusUnauthorized {
		t.Fatalf("reused refresh token: %d", rec.Code)
	}

	if rec := do(e, http.MethodPost, "/logout", "Bearer "+resp.Access.Token, ""); rec.Code != http.StatusNoContent {
		t.Fatalf("logout: %d", rec.Code)
	}
	if len(tokens.tokens) != 0 {
		t.Fatalf("tokens left: %d", len(tokens.tokens))
	}
}

func TestHealth(t *testing.T) {
	e := echo.New()
	e.GET("/up", Health(nil))
	e.GET("/down", Health(pingFunc(func(context.Context) error { return errors.New("gone") })))
	if rec := do(e, http.MethodGet, "/up", "", ""); rec.Code != http.StatusOK {
		t.Fatalf("up: %d", rec.Code)
	}
	if rec := do(e, http.MethodGet, "/down", "", ""); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("down: %d", rec.Code)
	}
}

type pingFunc func(context.Context) error

func (f pingFunc) PingContext(ctx context.Context) error { return f(ctx) }
