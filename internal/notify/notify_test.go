package notify

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/iliyamo/event-ticketing/internal/clock"
	"github.com/iliyamo/event-ticketing/internal/logger"
	"github.com/iliyamo/event-ticketing/internal/queue"
)

type recordingMailer struct {
	mu   sync.Mutex
	sent []Email
	err  error
}

func (m *recordingMailer) Send(_ context.Context, e Email) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, e)
	return nil
}

func sampleTicket() TicketConfirmation {
	return TicketConfirmation{
		To: "asha@example.com", Name: "Asha", BookingID: "bk-1", EventTitle: "Jazz Night",
		EventDate: "2026-11-02", Venue: "Blue Room", Seats: []string{"T1-N", "T1-E"},
		TicketPrice: 300, Amount: 600, PaymentID: "pay_1",
	}
}

func newTestDispatcher(m Mailer) *Dispatcher {
	return NewDispatcher(m, logger.Discard(), clock.NewFixed(time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)))
}

func TestDispatcher_SendTicketConfirmation(t *testing.T) {
	m := &recordingMailer{}
	d := newTestDispatcher(m)
	if err := d.SendTicketConfirmation(context.Background(), sampleTicket()); err != nil {
		t.Fatal(err)
	}
	if len(m.sent) != 1 {
		t.Fatalf("sent %d emails", len(m.sent))
	}
	e := m.sent[0]
	if e.To != "asha@example.com" || !strings.Contains(e.Subject, "bk-1") {
		t.Fatalf("email = %+v", e)
	}
	if !strings.Contains(e.HTML, "T1-N, T1-E") {
		t.Errorf("html missing seats: %s", e.HTML)
	}
	if len(e.Attachments) != 1 || !strings.HasSuffix(e.Attachments[0].Filename, ".pdf") {
		t.Fatalf("attachments = %+v", e.Attachments)
	}
	pdf, err := base64.StdEncoding.DecodeString(e.Attachments[0].Content)
	if err != nil || !strings.HasPrefix(string(pdf), "%PDF") {
		t.Fatalf("attachment is not a base64 PDF: %v", err)
	}
}

func TestDispatcher_Failures(t *testing.T) {
	t.Run("missing recipient", func(t *testing.T) {
		tc := sampleTicket()
		tc.To = ""
		err := newTestDispatcher(&recordingMailer{}).SendTicketConfirmation(context.Background(), tc)
		if !errors.Is(err, ErrEmailDeliveryFailed) {
			t.Fatalf("err = %v", err)
		}
	})
	t.Run("mailer error is returned", func(t *testing.T) {
		m := &recordingMailer{err: ErrEmailDeliveryFailed}
		err := newTestDispatcher(m).SendCheckInConfirmation(context.Background(), CheckInConfirmation{To: "a@b.co", BookingID: "bk-1"})
		if !errors.Is(err, ErrEmailDeliveryFailed) {
			t.Fatalf("err = %v", err)
		}
	})
}

func TestDispatcher_QueueHandlers(t *testing.T) {
	m := &recordingMailer{}
	d := newTestDispatcher(m)
	body, _ := json.Marshal(queue.CheckInConfirmedEvent{
		BookingID: "bk-1", AttendeeEmail: "asha@example.com", AttendeeName: "Asha",
		EventTitle: "Jazz Night", CheckedInAt: "2026-11-02T19:00:00Z", CheckedInBy: "gate-1",
	})
	if err := d.HandleCheckInConfirmed(context.Background(), body); err != nil {
		t.Fatal(err)
	}
	if len(m.sent) != 1 || !strings.Contains(m.sent[0].Subject, "Jazz Night") {
		t.Fatalf("sent = %+v", m.sent)
	}
	if err := d.HandleBookingConfirmed(context.Background(), []byte("{")); err == nil {
		t.Fatal("expected unmarshal error")
	}
}

func TestInline(t *testing.T) {
	m := &recordingMailer{}
	in := &Inline{D: newTestDispatcher(m)}
	_ = in.PublishBookingConfirmed(context.Background(), queue.BookingConfirmedEvent{
		BookingID: "bk-1", AttendeeEmail: "asha@example.com", Seats: []string{"T1-N"}, Amount: 300,
	})
	in.Wait()
	if len(m.sent) != 1 {
		t.Fatalf("sent %d", len(m.sent))
	}
}

func TestResendMailer(t *testing.T) {
	var got Email
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer re_test" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		if got.To == "bounce@example.com" {
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`{"message":"invalid to"}`))
			return
		}
		_, _ = w.Write([]byte(`{"id":"email_1"}`))
	}))
	defer srv.Close()

	m := NewResendMailer("re_test", "Tickets <noreply@example.com>", logger.Discard())
	m.Endpoint = srv.URL
	if err := m.Send(context.Background(), Email{To: "asha@example.com", Subject: "hi", HTML: "<p>hi</p>"}); err != nil {
		t.Fatal(err)
	}
	if got.From != "Tickets <noreply@example.com>" {
		t.Fatalf("from = %q", got.From)
	}
	err := m.Send(context.Background(), Email{To: "bounce@example.com", Subject: "hi"})
	if !errors.Is(err, ErrEmailDeliveryFailed) || !strings.Contains(err.Error(), "invalid to") {
		t.Fatalf("err = %v", err)
	}

	mock := NewResendMailer("", "x", logger.Discard())
	if err := mock.Send(context.Background(), Email{To: "a@b.co"}); err != nil {
		t.Fatalf("mock send: %v", err)
	}
}
