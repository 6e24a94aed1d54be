package notify

import (
	"context"
	"fmt"
	"html"

	"gopkg.in/gomail.v2"

	"github.com/mmynk/splitledger/internal/models"
)

// UserDirectory resolves account IDs to users.
type UserDirectory interface {
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

// MailConfig holds SMTP settings for MailNotifier.
type MailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// MailNotifier delivers notifications as e-mail through an SMTP relay.
type MailNotifier struct {
	from  string
	users UserDirectory
	send  func(*gomail.Message) error
}

// NewMailNotifier creates a MailNotifier that dials the configured relay for
// every message.
func NewMailNotifier(cfg MailConfig, users UserDirectory) *MailNotifier {
	dialer := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	return &MailNotifier{
		from:  cfg.From,
		users: users,
		send:  func(m *gomail.Message) error { return dialer.DialAndSend(m) },
	}
}

// SendPushNotification looks up the user's address and mails the notification.
func (n *MailNotifier) SendPushNotification(ctx context.Context, userID, title, body string, data map[string]string) error {
	user, err := n.users.GetUserByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to resolve user %s: %w", userID, err)
	}
	if user == nil || user.Email == "" {
		return fmt.Errorf("no e-mail address for user %s", userID)
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", n.from)
	msg.SetAddressHeader("To", user.Email, user.DisplayName)
	msg.SetHeader("Subject", title)
	if t := data["type"]; t != "" {
		msg.SetHeader("X-Splitledger-Type", t)
	}
	msg.SetBody("text/plain", body)
	msg.AddAlternative("text/html", "<p>"+html.EscapeString(body)+"</p>")

	if err := n.send(msg); err != nil {
		return fmt.Errorf("failed to send e-mail to %s: %w", user.Email, err)
	}
	return nil
}
