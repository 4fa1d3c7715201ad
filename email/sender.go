package email

import (
	"crypto/tls"
	"fmt"
	"net/smtp"
	"strings"

	"Chronos/Models"
)

// SendEmail delivers one message over SMTP, with implicit TLS when enabled.
func SendEmail(config Models.EmailConfig, message Models.EmailMessage) error {
	if len(message.To) == 0 {
		return fmt.Errorf("email has no recipients")
	}

	var body strings.Builder
	body.WriteString(fmt.Sprintf("From: %s <%s>\r\n", config.FromName, config.FromEmail))
	body.WriteString(fmt.Sprintf("To: %s\r\n", strings.Join(message.To, ", ")))
	body.WriteString(fmt.Sprintf("Subject: %s\r\n", message.Subject))
	body.WriteString("MIME-Version: 1.0\r\n")
	if message.IsHTML {
		body.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	} else {
		body.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	}
	body.WriteString("\r\n")
	body.WriteString(message.Body)

	var auth smtp.Auth
	if config.Username != "" {
		auth = smtp.PlainAuth("", config.Username, config.Password, config.SMTPServer)
	}
	serverAddr := fmt.Sprintf("%s:%d", config.SMTPServer, config.SMTPPort)

	if !config.TLSEnabled {
		return smtp.SendMail(serverAddr, auth, config.FromEmail, message.To, []byte(body.String()))
	}

	conn, err := tls.Dial("tcp", serverAddr, &tls.Config{
		ServerName:         config.SMTPServer,
		InsecureSkipVerify: config.SkipTLSCheck,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, config.SMTPServer)
	if err != nil {
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}
	defer client.Close()

	if auth != nil {
		if err = client.Auth(auth); err != nil {
			return fmt.Errorf("SMTP authentication failed: %w", err)
		}
	}
	if err = client.Mail(config.FromEmail); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	for _, recipient := range message.To {
		if err = client.Rcpt(recipient); err != nil {
			return fmt.Errorf("failed to add recipient %s: %w", recipient, err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to open data connection: %w", err)
	}
	if _, err = w.Write([]byte(body.String())); err != nil {
		return fmt.Errorf("failed to write email body: %w", err)
	}
	if err = w.Close(); err != nil {
		return fmt.Errorf("failed to close data connection: %w", err)
	}
	return client.Quit()
}
