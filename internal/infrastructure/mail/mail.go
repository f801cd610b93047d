package mail

import (
	"context"
	"fmt"
	"html"

	"taxdesk-backend/internal/domain"
	"taxdesk-backend/internal/logger"
)

type Message struct {
	ToEmail string
	ToName  string
	Subject string
	Text    string
	HTML    string
}

type Mailer interface {
	Send(ctx context.Context, m Message) error
}

const statusSubject = "Status Pesanan Anda Telah Diperbarui"

var statusLabels = map[domain.OrderStatus]string{
	domain.OrderRequested:  "Diminta",
	domain.OrderProcessing: "Sedang Diproses",
	domain.OrderCompleted:  "Selesai",
	domain.OrderCancelled:  "Dibatalkan",
}

// StatusNotifier sends order status emails through a Mailer.
type StatusNotifier struct {
	Mailer Mailer
	AppURL string
}

func (n *StatusNotifier) SendOrderStatusEmail(ctx context.Context, toEmail, orderID, username string, status domain.OrderStatus) error {
	label, ok := statusLabels[status]
	if !ok {
		label = string(status)
	}
	link := n.AppURL + "/order-status/" + orderID
	text := fmt.Sprintf("Halo %s,\n\nStatus pesanan %s telah diperbarui menjadi: %s.\n\nLihat detail pesanan: %s\n", username, orderID, label, link)
	body := fmt.Sprintf(`<p>Halo %s,</p><p>Status pesanan <strong>%s</strong> telah diperbarui menjadi: <strong>%s</strong>.</p><p><a href="%s">Lihat detail pesanan</a></p>`,
		html.EscapeString(username), html.EscapeString(orderID), html.EscapeString(label), html.EscapeString(link))
	return n.Mailer.Send(ctx, Message{
		ToEmail: toEmail,
		ToName:  username,
		Subject: statusSubject,
		Text:    text,
		HTML:    body,
	})
}

// LogMailer records messages instead of delivering them.
type LogMailer struct {
	Log *logger.Logger
}

func (m *LogMailer) Send(ctx context.Context, msg Message) error {
	m.Log.Info("mail not delivered, no provider configured", "to", msg.ToEmail, "subject", msg.Subject)
	return nil
}
