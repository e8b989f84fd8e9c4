// Package email sends transactional mail over SMTP with STARTTLS. When
// SMTP is not configured, sends are logged and skipped so flows that
// attach email (reports, verification) degrade gracefully.
package email

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/smtp"
	"net/textproto"
)

// ErrNotConfigured indicates SMTP host or credentials are missing.
var ErrNotConfigured = errors.New("email: smtp not configured")

type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

type Sender struct {
	cfg    Config
	logger *slog.Logger
}

func NewSender(cfg Config, logger *slog.Logger) *Sender {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.From == "" {
		cfg.From = cfg.User
	}
	return &Sender{cfg: cfg, logger: logger}
}

func (s *Sender) configured() bool {
	return s.cfg.Host != "" && s.cfg.User != "" && s.cfg.Password != ""
}

// Send delivers a plain-text email.
func (s *Sender) Send(to, subject, body string) error {
	if !s.configured() {
		s.logger.Info("smtp not configured, skipping email", "to", to, "subject", subject)
		return ErrNotConfigured
	}

	var msg bytes.Buffer
	fmt.Fprintf(&msg, "From: %s\r\n", s.cfg.From)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body)

	return s.deliver(to, msg.Bytes())
}

// SendAttachment delivers a plain-text email with one attached file.
func (s *Sender) SendAttachment(to, subject, body, fileName string, fileData []byte) error {
	if !s.configured() {
		s.logger.Info("smtp not configured, skipping email", "to", to, "subject", subject)
		return ErrNotConfigured
	}

	var msg bytes.Buffer
	writer := multipart.NewWriter(&msg)

	fmt.Fprintf(&msg, "From: %s\r\n", s.cfg.From)
	// Headers are written by hand so the multipart writer only handles
	// the body parts.
	header := fmt.Sprintf("To: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: multipart/mixed; boundary=%s\r\n\r\n",
		to, subject, writer.Boundary())
	msg.WriteString(header)

	textPart, err := writer.CreatePart(textproto.MIMEHeader{
		"Content-Type": {"text/plain; charset=utf-8"},
	})
	if err != nil {
		return fmt.Errorf("email: build text part: %w", err)
	}
	if _, err := textPart.Write([]byte(body)); err != nil {
		return fmt.Errorf("email: write text part: %w", err)
	}

	filePart, err := writer.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {"application/octet-stream"},
		"Content-Transfer-Encoding": {"base64"},
		"Content-Disposition":       {fmt.Sprintf(`attachment; filename="%s"`, fileName)},
	})
	if err != nil {
		return fmt.Errorf("email: build attachment part: %w", err)
	}
	encoded := base64.StdEncoding.EncodeToString(fileData)
	// Wrap base64 at 76 columns per RFC 2045.
	for len(encoded) > 0 {
		n := 76
		if n > len(encoded) {
			n = len(encoded)
		}
		if _, err := filePart.Write([]byte(encoded[:n] + "\r\n")); err != nil {
			return fmt.Errorf("email: write attachment: %w", err)
		}
		encoded = encoded[n:]
	}

	if err := writer.Close(); err != nil {
		return fmt.Errorf("email: finish message: %w", err)
	}
	return s.deliver(to, msg.Bytes())
}

func (s *Sender) deliver(to string, msg []byte) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	auth := smtp.PlainAuth("", s.cfg.User, s.cfg.Password, s.cfg.Host)
	if err := smtp.SendMail(addr, auth, s.cfg.From, []string{to}, msg); err != nil {
		return fmt.Errorf("email: send to %s: %w", to, err)
	}
	s.logger.Info("email sent", "to", to)
	return nil
}
