// Package notify renders and sends customer e-mails for booking events.
package notify

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"io"

	log "github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"

	"github.com/iliyamo/theatre-booking/internal/config"
	"github.com/iliyamo/theatre-booking/internal/queue"
	"github.com/iliyamo/theatre-booking/internal/utils"
)

// sender is the part of gomail.Dialer the mailer uses.
type sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPMailer sends booking e-mails through an SMTP relay.  Confirmation
// and update e-mails embed a QR code of the booking code.
type SMTPMailer struct {
	from   string
	sender sender
}

// NewMailer returns an SMTP mailer when SMTP_HOST is set and a mailer that
// only logs otherwise, so local setups work without a relay.
func NewMailer(cfg config.NotifyConfig) queue.Mailer {
	if cfg.SMTPHost == "" {
		return LogMailer{}
	}
	return &SMTPMailer{
		from:   cfg.MailFrom,
		sender: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword),
	}
}

var subjects = map[string]string{
	"booking.created":   "Your booking %s is received",
	"booking.updated":   "Your booking %s was updated",
	"booking.cancelled": "Your booking %s was cancelled",
}

var body = template.Must(template.New("booking").Parse(`<p>Hi {{.CustomerName}},</p>
{{if eq .Event "booking.cancelled"}}<p>Your booking <b>{{.BookingID}}</b> for {{.BookingDate}} ({{.StartTime}}-{{.EndTime}}) has been cancelled.</p>
<p>Reason: {{.CancelReason}}</p>{{if gt .RefundAmount 0.0}}<p>Refund of {{printf "%.2f" .RefundAmount}} is {{.RefundStatus}}.</p>{{end}}
{{else}}<p>Booking <b>{{.BookingID}}</b> ({{.EventType}}) is <b>{{.Status}}</b>.</p>
<p>Date: {{.BookingDate}}<br>Slot: {{.SlotName}} {{.StartTime}}-{{.EndTime}}<br>Total: {{printf "%.2f" .TotalAmount}}<br>Balance due: {{printf "%.2f" .Remaining}}</p>
<p>Show this code at the venue:</p><p><img src="cid:booking-qr.png" alt="{{.BookingID}}"></p>
{{end}}`))

// buildMessage renders the e-mail for ev.
func buildMessage(from string, ev queue.BookingEvent) (*gomail.Message, error) {
	subject, ok := subjects[ev.Event]
	if !ok {
		return nil, fmt.Errorf("unknown event %q", ev.Event)
	}
	var html bytes.Buffer
	if err := body.Execute(&html, ev); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	m := gomail.NewMessage()
	m.SetHeader("From", from)
	m.SetAddressHeader("To", ev.CustomerEmail, ev.CustomerName)
	m.SetHeader("Subject", fmt.Sprintf(subject, ev.BookingID))
	m.SetBody("text/html", html.String())

	if ev.Event != "booking.cancelled" {
		png, err := utils.QRCodePNG(ev.BookingID, 256)
		if err != nil {
			return nil, fmt.Errorf("qr code: %w", err)
		}
		m.Embed("booking-qr.png", gomail.SetCopyFunc(func(w io.Writer) error {
			_, err := w.Write(png)
			return err
		}))
	}
	return m, nil
}

func (m *SMTPMailer) SendBookingEmail(_ context.Context, ev queue.BookingEvent) error {
	msg, err := buildMessage(m.from, ev)
	if err != nil {
		return err
	}
	return m.sender.DialAndSend(msg)
}

// LogMailer writes the event to the application log instead of sending.
type LogMailer struct{}

func (LogMailer) SendBookingEmail(_ context.Context, ev queue.BookingEvent) error {
	log.WithFields(log.Fields{
		"booking": ev.BookingID,
		"event":   ev.Event,
		"to":      ev.CustomerEmail,
		"date":    ev.BookingDate,
		"slot":    ev.StartTime + "-" + ev.EndTime,
	}).Info("mail (smtp disabled)")
	return nil
}
