package Models

type EmailConfig struct {
	SMTPServer   string
	SMTPPort     int
	Username     string
	Password     string
	FromEmail    string
	FromName     string
	TLSEnabled   bool
	SkipTLSCheck bool
}

// Configured reports whether enough is set to reach an SMTP server.
func (c EmailConfig) Configured() bool {
	return c.SMTPServer != "" && c.SMTPPort != 0 && c.FromEmail != ""
}

// EmailMessage is one outgoing mail. Body is HTML when IsHTML is set.
type EmailMessage struct {
	To      []string
	Subject string
	Body    string
	IsHTML  bool
}
