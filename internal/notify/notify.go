package notify

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/hostwatcher/internal/config"
)

// Transport hands a composed message to the mail system.
type Transport interface {
	Deliver(ctx context.Context, msg Message) error
}

// TransportFor picks the transport configured in the watch snapshot.
func TransportFor(w *config.Watch) Transport {
	if w.MailTransport == config.TransportSMTP {
		return &SMTP{Addr: w.SMTPAddr, User: w.SMTPUser, Password: w.SMTPPassword}
	}
	return &Sendmail{Path: w.SendmailPath}
}

// Mailer delivers messages and logs its own failures. Callers may ignore
// the returned error; it is there for tests and accounting.
type Mailer struct {
	Logger  *zap.Logger
	Timeout time.Duration

	// transportFor is swappable for tests; it defaults to TransportFor.
	transportFor func(*config.Watch) Transport
}

func NewMailer(logger *zap.Logger) *Mailer {
	return &Mailer{Logger: logger, Timeout: 30 * time.Second, transportFor: TransportFor}
}

// WithTransport returns a mailer that always uses t, whatever the snapshot says.
func WithTransport(logger *zap.Logger, t Transport) *Mailer {
	m := NewMailer(logger)
	m.transportFor = func(*config.Watch) Transport { return t }
	return m
}

// Send mails subject/body to the snapshot's recipient. Without a recipient
// it does nothing.
func (m *Mailer) Send(ctx context.Context, w *config.Watch, subject, body string) error {
	if !w.MailEnabled() {
		return nil
	}
	msg := Message{
		From:    w.MailFrom,
		To:      w.MailTo,
		Subject: subject,
		Body:    body,
		Date:    time.Now(),
	}

	ctx, cancel := context.WithTimeout(ctx, m.Timeout)
	defer cancel()
	if err := m.transportFor(w).Deliver(ctx, msg); err != nil {
		m.Logger.Error(fmt.Sprintf("Failed to send mail: %v", err),
			zap.String("to", msg.To),
			zap.String("subject", subject),
			zap.Error(err),
		)
		return err
	}
	m.Logger.Debug(fmt.Sprintf("Mail sent to %s: %s", msg.To, subject),
		zap.String("to", msg.To),
		zap.String("transport", w.MailTransport),
	)
	return nil
}
