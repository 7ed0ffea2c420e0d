package notify

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
)

// EmailConfig is the SMTP configuration for summary emails. Host, From
// and To are required together; Username/Password enable authentication.
type EmailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       string
	UseSSL   bool
}

// EmailChannel sends the full summary as a plain-text email.
type EmailChannel struct {
	config EmailConfig
}

func NewEmailChannel(config EmailConfig) *EmailChannel {
	if config.Port == 0 {
		config.Port = 587
	}
	return &EmailChannel{config: config}
}

func (c *EmailChannel) Name() string {
	return "email"
}

func (c *EmailChannel) Send(ctx context.Context, summary Summary) error {
	msg := c.buildMessage(summary)
	addr := net.JoinHostPort(c.config.Host, strconv.Itoa(c.config.Port))

	if c.config.UseSSL {
		return c.sendTLS(addr, msg)
	}
	return c.sendStartTLS(addr, msg)
}

func (c *EmailChannel) buildMessage(summary Summary) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", c.config.From)
	fmt.Fprintf(&b, "To: %s\r\n", c.config.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", summary.Headline())
	b.WriteString("\r\n")
	b.WriteString(summary.Body())
	b.WriteString("\r\n")
	return []byte(b.String())
}

func (c *EmailChannel) auth() smtp.Auth {
	if c.config.Username == "" {
		return nil
	}
	return smtp.PlainAuth("", c.config.Username, c.config.Password, c.config.Host)
}

// sendStartTLS uses smtp.SendMail, which upgrades to TLS when the server
// advertises STARTTLS.
func (c *EmailChannel) sendStartTLS(addr string, msg []byte) error {
	if err := smtp.SendMail(addr, c.auth(), c.config.From, []string{c.config.To}, msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

// sendTLS speaks SMTP over an implicit TLS connection (port 465 style).
func (c *EmailChannel) sendTLS(addr string, msg []byte) error {
	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: c.config.Host})
	if err != nil {
		return fmt.Errorf("failed to connect to smtp server: %w", err)
	}

	client, err := smtp.NewClient(conn, c.config.Host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to create smtp client: %w", err)
	}
	defer client.Close()

	if auth := c.auth(); auth != nil {
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("smtp authentication failed: %w", err)
		}
	}

	if err := client.Mail(c.config.From); err != nil {
		return fmt.Errorf("smtp MAIL failed: %w", err)
	}
	if err := client.Rcpt(c.config.To); err != nil {
		return fmt.Errorf("smtp RCPT failed: %w", err)
	}

	writer, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp DATA failed: %w", err)
	}
	if _, err := writer.Write(msg); err != nil {
		return fmt.Errorf("failed to write email body: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finish email body: %w", err)
	}

	return client.Quit()
}
