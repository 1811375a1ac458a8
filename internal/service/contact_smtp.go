package service

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/wilkieco/contact-api/internal/config"
	"github.com/wilkieco/contact-api/internal/dto"
)

// smtpDelivery sends notification email directly over SMTP. TLS is expected
// but certificate verification is relaxed to tolerate the self-signed and
// odd-CA setups of consumer mail providers.
type smtpDelivery struct {
	cfg     config.Config
	logger  zerolog.Logger
	timeout time.Duration
}

func newSMTPDelivery(cfg config.Config, logger zerolog.Logger) *smtpDelivery {
	return &smtpDelivery{
		cfg:     cfg,
		logger:  logger.With().Str("component", "smtp_delivery").Logger(),
		timeout: 15 * time.Second,
	}
}

func (d *smtpDelivery) Mode() string { return "smtp" }

// Send delivers the internal notification and, when the submitter left an
// email address, a confirmation email back to them. The confirmation is
// best effort: its failure is logged but does not fail the submission.
func (d *smtpDelivery) Send(ctx context.Context, data dto.ContactFormData) error {
	notification, err := renderNotification(data)
	if err != nil {
		return fmt.Errorf("render notification: %w", err)
	}

	subject := fmt.Sprintf("New Contact Form Submission from %s", data.Name)
	if err := d.send(ctx, d.cfg.ContactEmailTo, subject, notification); err != nil {
		return err
	}

	if data.Email != "" {
		confirmation, err := renderConfirmation(data)
		if err != nil {
			d.logger.Warn().Err(err).Msg("confirmation render failed")
			return nil
		}
		if err := d.send(ctx, data.Email, "We received your enquiry", confirmation); err != nil {
			d.logger.Warn().Err(err).Str("email", maskEmail(data.Email)).Msg("confirmation send failed")
		}
	}

	return nil
}

func (d *smtpDelivery) send(ctx context.Context, to, subject, htmlBody string) error {
	client, err := d.dial(ctx)
	if err != nil {
		return fmt.Errorf("smtp dial: %w", err)
	}
	defer client.Close()

	auth, err := d.auth(client)
	if err != nil {
		return err
	}
	if err := client.Auth(auth); err != nil {
		return fmt.Errorf("smtp auth: %w", err)
	}

	if err := client.Mail(d.cfg.SMTPFromEmail); err != nil {
		return fmt.Errorf("smtp mail from: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("smtp rcpt to: %w", err)
	}

	writer, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}
	if _, err := writer.Write(d.message(to, subject, htmlBody)); err != nil {
		writer.Close()
		return fmt.Errorf("smtp write: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("smtp close: %w", err)
	}

	return client.Quit()
}

// dial opens the transport: implicit TLS on port 465, otherwise a plain
// connection upgraded via STARTTLS when the server offers it.
func (d *smtpDelivery) dial(ctx context.Context) (*smtp.Client, error) {
	addr := net.JoinHostPort(d.cfg.SMTPHost, fmt.Sprintf("%d", d.cfg.SMTPPort))
	dialer := &net.Dialer{Timeout: d.timeout}
	tlsConfig := &tls.Config{ServerName: d.cfg.SMTPHost, InsecureSkipVerify: true}

	if d.cfg.SMTPPort == 465 {
		conn, err := tls.DialWithDialer(dialer, "tcp", addr, tlsConfig)
		if err != nil {
			return nil, err
		}
		return d.newClient(conn)
	}

	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}

	client, err := d.newClient(conn)
	if err != nil {
		return nil, err
	}

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(tlsConfig); err != nil {
			client.Close()
			return nil, fmt.Errorf("starttls: %w", err)
		}
	}

	return client, nil
}

func (d *smtpDelivery) newClient(conn net.Conn) (*smtp.Client, error) {
	_ = conn.SetDeadline(time.Now().Add(d.timeout))

	client, err := smtp.NewClient(conn, d.cfg.SMTPHost)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return client, nil
}

// auth picks the mechanism the server advertises, preferring PLAIN and
// falling back to LOGIN for providers that only support the legacy scheme.
func (d *smtpDelivery) auth(client *smtp.Client) (smtp.Auth, error) {
	_, mechanisms := client.Extension("AUTH")
	if strings.Contains(mechanisms, "PLAIN") || mechanisms == "" {
		return smtp.PlainAuth("", d.cfg.SMTPUsername, d.cfg.SMTPPassword, d.cfg.SMTPHost), nil
	}
	if strings.Contains(mechanisms, "LOGIN") {
		return &loginAuth{username: d.cfg.SMTPUsername, password: d.cfg.SMTPPassword, host: d.cfg.SMTPHost}, nil
	}
	return nil, fmt.Errorf("no supported smtp auth mechanism in %q", mechanisms)
}

func (d *smtpDelivery) message(to, subject, htmlBody string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %q <%s>\r\n", d.cfg.SMTPFromName, d.cfg.SMTPFromEmail)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(htmlBody)
	b.WriteString("\r\n")
	return []byte(b.String())
}

// loginAuth implements the LOGIN SMTP auth mechanism.
type loginAuth struct {
	username string
	password string
	host     string
}

func (a *loginAuth) Start(server *smtp.ServerInfo) (string, []byte, error) {
	if server.Name != a.host {
		return "", nil, fmt.Errorf("unexpected server name %s", server.Name)
	}
	return "LOGIN", nil, nil
}

func (a *loginAuth) Next(fromServer []byte, more bool) ([]byte, error) {
	if more {
		switch strings.ToLower(strings.TrimSpace(string(fromServer))) {
		case "username:", "user:":
			return []byte(a.username), nil
		case "password:", "pass:":
			return []byte(a.password), nil
		default:
			return nil, fmt.Errorf("unexpected login challenge: %s", string(fromServer))
		}
	}
	return nil, nil
}
