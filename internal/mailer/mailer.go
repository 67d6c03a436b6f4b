// Package mailer はSMTP経由のメール送信を提供する。
package mailer

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// Mailer はメール送信のインターフェース。
// textとhtmlの両方を渡すとmultipart/alternativeで送信される。
type Mailer interface {
	Send(ctx context.Context, to, subject, text, html string) error
}

// Config はSMTP接続の設定を保持する。
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPMailer はSMTPサーバー経由でメールを送信する。
// 送信はレートリミッターで抑制され、SMTPプロバイダの送信上限を超えない。
type SMTPMailer struct {
	config  Config
	limiter *rate.Limiter
}

var _ Mailer = (*SMTPMailer)(nil)

// NewSMTPMailer はSMTPMailerを生成する。
// 送信レートは1通/秒、バースト3通まで。
func NewSMTPMailer(config Config) *SMTPMailer {
	return &SMTPMailer{
		config:  config,
		limiter: rate.NewLimiter(rate.Every(time.Second), 3),
	}
}

// Send はメールを1通送信する。
// ポート465は接続時からTLS、それ以外はSTARTTLSを試みる。
func (m *SMTPMailer) Send(ctx context.Context, to, subject, text, html string) error {
	if err := m.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("mail rate limiter: %w", err)
	}

	msg := buildMessage(m.config.From, to, subject, text, html)
	addr := net.JoinHostPort(m.config.Host, strconv.Itoa(m.config.Port))

	client, err := m.dial(ctx, addr)
	if err != nil {
		return fmt.Errorf("failed to connect to smtp server: %w", err)
	}
	defer client.Close()

	if m.config.Username != "" {
		auth := smtp.PlainAuth("", m.config.Username, m.config.Password, m.config.Host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("smtp auth failed: %w", err)
		}
	}

	if err := client.Mail(m.config.From); err != nil {
		return fmt.Errorf("smtp MAIL command failed: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("smtp RCPT command failed: %w", err)
	}

	wc, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp DATA command failed: %w", err)
	}
	if _, err := wc.Write([]byte(msg)); err != nil {
		return fmt.Errorf("failed to write mail body: %w", err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("failed to finish mail body: %w", err)
	}

	return client.Quit()
}

// dial はSMTPサーバーに接続してクライアントを返す。
func (m *SMTPMailer) dial(ctx context.Context, addr string) (*smtp.Client, error) {
	dialer := &net.Dialer{Timeout: 10 * time.Second}

	if m.config.Port == 465 {
		// implicit TLS
		conn, err := tls.DialWithDialer(dialer, "tcp", addr, &tls.Config{ServerName: m.config.Host})
		if err != nil {
			return nil, err
		}
		return smtp.NewClient(conn, m.config.Host)
	}

	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	client, err := smtp.NewClient(conn, m.config.Host)
	if err != nil {
		conn.Close()
		return nil, err
	}
	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(&tls.Config{ServerName: m.config.Host}); err != nil {
			client.Close()
			return nil, err
		}
	}
	return client, nil
}

// buildMessage はtext+htmlのmultipart/alternative形式のメール本文を組み立てる。
func buildMessage(from, to, subject, text, html string) string {
	const boundary = "rdt-mail-boundary"

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	fmt.Fprintf(&b, "Date: %s\r\n", time.Now().UTC().Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&b, "Content-Type: multipart/alternative; boundary=%q\r\n", boundary)
	b.WriteString("\r\n")

	fmt.Fprintf(&b, "--%s\r\n", boundary)
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	b.WriteString(text)
	b.WriteString("\r\n")

	fmt.Fprintf(&b, "--%s\r\n", boundary)
	b.WriteString("Content-Type: text/html; charset=UTF-8\r\n\r\n")
	b.WriteString(html)
	b.WriteString("\r\n")

	fmt.Fprintf(&b, "--%s--\r\n", boundary)
	return b.String()
}
