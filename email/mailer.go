package email

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"net/url"
	"os"
	"time"

	"Chronos/Models"
	"Chronos/Reports"

	"github.com/gofiber/template/html"
)

//go:embed templates/*.html
var templateFiles embed.FS

// Views returns the template engine holding the mail bodies and the
// verification result page. Templates in dir, when it exists, replace the
// built-in ones.
func Views(dir string) *html.Engine {
	var engine *html.Engine
	if info, err := os.Stat(dir); dir != "" && err == nil && info.IsDir() {
		engine = html.New(dir, ".html")
	} else {
		sub, err := fs.Sub(templateFiles, "templates")
		if err != nil {
			panic(err)
		}
		engine = html.NewFileSystem(http.FS(sub), ".html")
	}
	engine.AddFunc("duration", Reports.FormatDuration)
	return engine
}

// Sender renders templated mail and hands it to Transport. Without SMTP
// settings mails are only logged.
type Sender struct {
	Config      Models.EmailConfig
	Views       *html.Engine
	FrontendURL string
	Transport   func(Models.EmailConfig, Models.EmailMessage) error
}

func NewSender(config Models.EmailConfig, frontendURL string, views *html.Engine) *Sender {
	return &Sender{
		Config:      config,
		Views:       views,
		FrontendURL: frontendURL,
		Transport:   SendEmail,
	}
}

func (s *Sender) Send(ctx context.Context, message Models.EmailMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.Transport == nil || !s.Config.Configured() {
		log.Printf("SMTP not configured, skipping email %q to %v", message.Subject, message.To)
		return nil
	}
	if err := s.Transport(s.Config, message); err != nil {
		return fmt.Errorf("failed to send email to %v: %w", message.To, err)
	}
	log.Printf("Email %q sent to %v", message.Subject, message.To)
	return nil
}

// SendVerification mails the link that verifies employee's address.
func (s *Sender) SendVerification(ctx context.Context, employee Models.Employee, token string) error {
	link := fmt.Sprintf("%s/verify-email?token=%s", s.FrontendURL, url.QueryEscape(token))
	body, err := s.render("verify_email", map[string]interface{}{
		"FirstName":       employee.FirstName,
		"VerificationURL": link,
	})
	if err != nil {
		return err
	}
	if !s.Config.Configured() {
		log.Printf("Verification link for %s: %s", employee.Email, link)
	}
	return s.Send(ctx, Models.EmailMessage{
		To:      []string{employee.Email},
		Subject: "Verify Your Email Address",
		Body:    body,
		IsHTML:  true,
	})
}

// SendDigest mails the per-employee totals for day.
func (s *Sender) SendDigest(ctx context.Context, to []string, day time.Time, totals []Reports.EmployeeTotal) error {
	if len(to) == 0 {
		return nil
	}
	var total int64
	for _, t := range totals {
		total += t.TotalDuration
	}
	body, err := s.render("digest_email", map[string]interface{}{
		"Day":    day.Format("Monday, 2 January 2006"),
		"Totals": totals,
		"Total":  total,
	})
	if err != nil {
		return err
	}
	return s.Send(ctx, Models.EmailMessage{
		To:      to,
		Subject: fmt.Sprintf("Time tracking digest for %s", day.Format("2006-01-02")),
		Body:    body,
		IsHTML:  true,
	})
}

func (s *Sender) render(name string, data interface{}) (string, error) {
	if s.Views == nil {
		s.Views = Views("")
	}
	var buf bytes.Buffer
	if err := s.Views.Render(&buf, name, data); err != nil {
		return "", fmt.Errorf("failed to render %s: %w", name, err)
	}
	return buf.String(), nil
}
