package channel

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/mail"
	"net/smtp"
	"strconv"
	"strings"
	"time"
)

const defaultSubject = "Parsera notification"

// SMTPCredentials are fixed for the lifetime of an EmailSender.
type SMTPCredentials struct {
	Host   string
	Port   int
	From   string
	Login  string
	Secret string
}

// EmailSender opens one SMTP session per Send.
type EmailSender struct {
	creds   SMTPCredentials
	timeout time.Duration
	subject string
	now     func() time.Time
}

func NewEmailSender(creds SMTPCredentials, timeout time.Duration) *EmailSender {
	return &EmailSender{
		creds:   creds,
		timeout: timeout,
		subject: defaultSubject,
		now:     time.Now,
	}
}

func (s *EmailSender) Kind() Kind { return Email }

func (s *EmailSender) Send(ctx context.Context, recipient, message string) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			out = Failed(fmt.Sprintf("email sender panic: %v", r))
		}
	}()

	to, err := mail.ParseAddress(strings.TrimSpace(recipient))
	if err != nil {
		return Failed(fmt.Sprintf("malformed address %q: %v", recipient, err))
	}
	from, err := mail.ParseAddress(strings.TrimSpace(s.creds.From))
	if err != nil {
		return Failed(fmt.Sprintf("malformed sender address %q: %v", s.creds.From, err))
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	if err := s.deliver(ctx, from, to, message); err != nil {
		if ctx.Err() != nil {
			return Failed(ReasonTimeout)
		}
		return FailedFromError(err)
	}
	return Delivered()
}

func (s *EmailSender) deliver(ctx context.Context, from, to *mail.Address, message string) error {
	addr := net.JoinHostPort(s.creds.Host, strconv.Itoa(s.creds.Port))

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetDeadline(time.Now())
	})
	defer stop()

	c, err := smtp.NewClient(conn, s.creds.Host)
	if err != nil {
		return fmt.Errorf("smtp greeting: %w", err)
	}
	defer c.Close()

	if err := c.Hello("localhost"); err != nil {
		return fmt.Errorf("smtp ehlo: %w", err)
	}
	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(&tls.Config{ServerName: s.creds.Host, MinVersion: tls.VersionTLS12}); err != nil {
			return fmt.Errorf("smtp starttls: %w", err)
		}
	}
	if strings.TrimSpace(s.creds.Login) != "" {
		if ok, _ := c.Extension("AUTH"); !ok {
			return fmt.Errorf("smtp auth: server does not advertise AUTH")
		}
		if err := c.Auth(smtp.PlainAuth("", s.creds.Login, s.creds.Secret, s.creds.Host)); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}

	if err := c.Mail(from.Address); err != nil {
		return fmt.Errorf("smtp mail from: %w", err)
	}
	if err := c.Rcpt(to.Address); err != nil {
		return fmt.Errorf("smtp rcpt to: %w", err)
	}
	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}
	if _, err := w.Write(s.compose(from, to, message)); err != nil {
		_ = w.Close()
		return fmt.Errorf("smtp write body: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("smtp end data: %w", err)
	}
	return c.Quit()
}

func (s *EmailSender) compose(from, to *mail.Address, message string) []byte {
	var b strings.Builder
	b.WriteString("From: " + from.String() + "\r\n")
	b.WriteString("To: " + to.String() + "\r\n")
	b.WriteString("Subject: " + s.subject + "\r\n")
	b.WriteString("Date: " + s.now().UTC().Format(time.RFC1123Z) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(message)
	return []byte(b.String())
}
