// Package mailer sends the registration confirmation email.
package mailer

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/wneessen/go-mail"

	"confsite/internal/platform/config"
	"confsite/internal/registration/models"
)

const confirmationSubject = "Registration received"

// Mailer delivers plain-text mail over SMTP. With Secure set the
// connection uses implicit TLS (usually port 465); otherwise STARTTLS is
// used when the server offers it.
type Mailer struct {
	cfg       config.SMTP
	siteURL   string
	tlsConfig *tls.Config
	timeout   time.Duration
}

// Option configures a Mailer.
type Option func(*Mailer)

// WithTLSConfig overrides the TLS configuration (tests).
func WithTLSConfig(c *tls.Config) Option {
	return func(m *Mailer) {
		m.tlsConfig = c
	}
}

func New(cfg config.SMTP, siteURL string, opts ...Option) *Mailer {
	m := &Mailer{
		cfg:       cfg,
		siteURL:   siteURL,
		tlsConfig: &tls.Config{ServerName: cfg.Host, MinVersion: tls.VersionTLS12},
		timeout:   15 * time.Second,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// SendConfirmation mails the registrant a summary of their registration.
func (m *Mailer) SendConfirmation(ctx context.Context, sub *models.Submission) error {
	msg, err := composeConfirmation(m.cfg.From, m.siteURL, sub)
	if err != nil {
		return err
	}
	return m.send(ctx, msg)
}

func (m *Mailer) send(ctx context.Context, msg *mail.Msg) error {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	addr := net.JoinHostPort(m.cfg.Host, strconv.Itoa(m.cfg.Port))
	client, err := mail.NewClient(m.cfg.Host, m.clientOptions()...)
	if err != nil {
		return fmt.Errorf("smtp client for %s: %w", addr, err)
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send confirmation via %s: %w", addr, err)
	}
	return nil
}

func (m *Mailer) clientOptions() []mail.Option {
	opts := []mail.Option{
		mail.WithPort(m.cfg.Port),
		mail.WithTimeout(m.timeout),
		mail.WithTLSConfig(m.tlsConfig),
	}
	if m.cfg.Secure {
		opts = append(opts, mail.WithSSL())
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSOpportunistic))
	}
	if m.cfg.User != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(m.cfg.User),
			mail.WithPassword(m.cfg.Pass),
		)
	}
	return opts
}

func composeConfirmation(from, siteURL string, sub *models.Submission) (*mail.Msg, error) {
	msg := mail.NewMsg(mail.WithEncoding(mail.NoEncoding))
	if err := msg.From(from); err != nil {
		return nil, fmt.Errorf("sender address: %w", err)
	}
	if err := msg.To(sub.Email); err != nil {
		return nil, fmt.Errorf("recipient address: %w", err)
	}
	msg.Subject(confirmationSubject)
	msg.SetDate()
	msg.SetMessageID()
	msg.SetBodyString(mail.TypeTextPlain, confirmationBody(siteURL, sub))
	return msg, nil
}

func confirmationBody(siteURL string, sub *models.Submission) string {
	var body strings.Builder
	fmt.Fprintf(&body, "Dear %s,\n\n", sub.FullName())
	body.WriteString("thank you for registering. We have received the following details:\n\n")
	fmt.Fprintf(&body, "  Name:        %s\n", sub.FullName())
	fmt.Fprintf(&body, "  Affiliation: %s\n", sub.Affiliation)
	fmt.Fprintf(&body, "  Country:     %s\n", sub.Country)
	fmt.Fprintf(&body, "  Attendance:  %s\n", strings.ReplaceAll(string(sub.Attendance), "_", " "))
	fmt.Fprintf(&body, "  Dietary:     %s\n", strings.ReplaceAll(string(sub.Dietary), "_", " "))
	p := sub.WorkshopPreferences
	fmt.Fprintf(&body, "  Workshops:   W1=%d W2=%d W3=%d W4=%d (1 = first choice)\n\n", p.Workshop1, p.Workshop2, p.Workshop3, p.Workshop4)
	body.WriteString("If any of this is wrong, reply to this email.\n")
	if siteURL != "" {
		fmt.Fprintf(&body, "\n%s\n", siteURL)
	}
	return body.String()
}
