package notify

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"gopkg.in/gomail.v2"

	"github.com/iliyamo/theatre-booking/internal/config"
	"github.com/iliyamo/theatre-booking/internal/queue"
)

type captureSender struct {
	msgs []*gomail.Message
	err  error
}

func (s *captureSender) DialAndSend(m ...*gomail.Message) error {
	s.msgs = append(s.msgs, m...)
	return s.err
}

func event(kind string) queue.BookingEvent {
	return queue.BookingEvent{
		Event: kind, BookingID: "HS250601-ABC123", CustomerName: "Asha", CustomerEmail: "asha@example.com",
		BookingDate: "2025-06-01", SlotName: "Morning", StartTime: "09:00", EndTime: "12:00",
		EventType: "birthday", Status: "confirmed", TotalAmount: 3000, Remaining: 2000,
		CancelReason: "Cancelled by admin", RefundAmount: 500, RefundStatus: "pending",
	}
}

func render(t *testing.T, m *gomail.Message) string {
	t.Helper()
	var buf bytes.Buffer
	if _, err := m.WriteTo(&buf); err != nil {
		t.Fatal(err)
	}
	return buf.String()
}

func TestSMTPMailer(t *testing.T) {
	s := &captureSender{}
	m := &SMTPMailer{from: "bookings@example.com", sender: s}

	if err := m.SendBookingEmail(context.Background(), event("booking.created")); err != nil {
		t.Fatal(err)
	}
	out := render(t, s.msgs[0])
	for _, want := range []string{"HS250601-ABC123", "booking-qr.png", "asha@example.com", "image/png"} {
		if !strings.Contains(out, want) {
			t.Errorf("created mail missing %q", want)
		}
	}

	if err := m.SendBookingEmail(context.Background(), event("booking.cancelled")); err != nil {
		t.Fatal(err)
	}
	out = render(t, s.msgs[1])
	if strings.Contains(out, "image/png") || !strings.Contains(out, "was cancelled") {
		t.Error("cancellation mail should use the cancellation subject and carry no QR code")
	}

	if err := m.SendBookingEmail(context.Background(), event("booking.exploded")); err == nil {
		t.Error("unknown events must fail")
	}
	s.err = errors.New("relay down")
	if err := m.SendBookingEmail(context.Background(), event("booking.updated")); err == nil {
		t.Error("sender errors must propagate")
	}
}

func TestNewMailerWithoutSMTP(t *testing.T) {
	if _, ok := NewMailer(config.NotifyConfig{}).(LogMailer); !ok {
		t.Fatal("expected LogMailer when SMTP_HOST is empty")
	}
	if _, ok := NewMailer(config.NotifyConfig{SMTPHost: "smtp.example.com", SMTPPort: 587}).(*SMTPMailer); !ok {
		t.Fatal("expected SMTPMailer")
	}
}
