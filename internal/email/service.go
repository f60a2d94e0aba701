// Package email sends transactional mail over SMTP. All messages share one
// HTML layout; each flow only fills in heading, body text, and a single
// call-to-action link.
package email

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"
	"strings"
)

const appName = "Folio"

type Config struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
	FromName string
}

type Service struct {
	config Config
	addr   string
	auth   smtp.Auth
}

func NewService(config Config) *Service {
	return &Service{
		config: config,
		addr:   config.Host + ":" + config.Port,
		auth:   smtp.PlainAuth("", config.Username, config.Password, config.Host),
	}
}

// IsConfigured reports whether SMTP settings are complete enough to send.
// When false the service callers fall back to returning dev tokens in API
// responses instead of mailing them.
func (s *Service) IsConfigured() bool {
	return s.config.Host != "" && s.config.Port != "" && s.config.From != ""
}

// SendVerificationEmail mails the account-activation link.
func (s *Service) SendVerificationEmail(to, userName, verificationURL string) error {
	return s.send(to, verificationMessage(userName, verificationURL))
}

// SendPasswordResetEmail mails the reset link. userName may be empty since
// reset requests do not reveal whether the account exists.
func (s *Service) SendPasswordResetEmail(to, userName, resetURL string) error {
	return s.send(to, resetMessage(userName, resetURL))
}

// SendInviteEmail mails a team invitation with the accept link.
func (s *Service) SendInviteEmail(to, teamName, inviterName, acceptURL string) error {
	return s.send(to, inviteMessage(teamName, inviterName, acceptURL))
}

// message is one rendered email: a heading, a short body, one button, and
// optional notice and footer lines.
type message struct {
	Subject     string
	Heading     string
	Body        string
	ButtonLabel string
	ButtonURL   string
	Notice      string
	Footer      string
}

func verificationMessage(userName, url string) message {
	return message{
		Subject:     fmt.Sprintf("Verify your %s account", appName),
		Heading:     fmt.Sprintf("Welcome, %s!", userName),
		Body:        "Thank you for signing up. Please verify your email address to activate your account.",
		ButtonLabel: "Verify Email Address",
		ButtonURL:   url,
		Notice:      "This verification link will expire in 24 hours.",
		Footer:      fmt.Sprintf("If you didn't create an account with %s, you can safely ignore this email.", appName),
	}
}

func resetMessage(userName, url string) message {
	greeting := "Hi,"
	if userName != "" {
		greeting = fmt.Sprintf("Hi %s,", userName)
	}
	return message{
		Subject:     fmt.Sprintf("Reset your %s password", appName),
		Heading:     "Password Reset Request",
		Body:        greeting + " we received a request to reset your password. Click the button below to choose a new one.",
		ButtonLabel: "Reset Password",
		ButtonURL:   url,
		Notice:      "This reset link will expire in 1 hour.",
		Footer:      "If you didn't request a password reset, you can safely ignore this email. Your password will remain unchanged.",
	}
}

func inviteMessage(teamName, inviterName, url string) message {
	return message{
		Subject:     fmt.Sprintf("You've been invited to join %s on %s", teamName, appName),
		Heading:     fmt.Sprintf("You're invited to %s", teamName),
		Body:        fmt.Sprintf("%s has invited you to collaborate with the team %s on %s.", inviterName, teamName, appName),
		ButtonLabel: "View Invitation",
		ButtonURL:   url,
		Footer:      "If you weren't expecting this invitation, you can safely ignore this email.",
	}
}

func (s *Service) send(to string, m message) error {
	if !s.IsConfigured() {
		return fmt.Errorf("email not configured")
	}

	html, err := renderMessage(m)
	if err != nil {
		return fmt.Errorf("render email: %w", err)
	}

	from := s.config.From
	if s.config.FromName != "" {
		from = fmt.Sprintf("%s <%s>", s.config.FromName, s.config.From)
	}
	recipients := []string{to}

	const boundary = "boundary-folio"
	var msg bytes.Buffer
	fmt.Fprintf(&msg, "To: %s\r\n", strings.Join(recipients, ", "))
	fmt.Fprintf(&msg, "From: %s\r\n", from)
	fmt.Fprintf(&msg, "Subject: %s\r\n", m.Subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&msg, "Content-Type: multipart/alternative; boundary=%q\r\n\r\n", boundary)

	// Plain-text part for clients that refuse HTML.
	fmt.Fprintf(&msg, "--%s\r\n", boundary)
	msg.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	fmt.Fprintf(&msg, "%s\r\n\r\n%s\r\n\r\n%s: %s\r\n\r\n", m.Heading, m.Body, m.ButtonLabel, m.ButtonURL)

	fmt.Fprintf(&msg, "--%s\r\n", boundary)
	msg.WriteString("Content-Type: text/html; charset=UTF-8\r\n\r\n")
	fmt.Fprintf(&msg, "%s\r\n\r\n", html)
	fmt.Fprintf(&msg, "--%s--\r\n", boundary)

	return smtp.SendMail(s.addr, s.auth, s.config.From, recipients, msg.Bytes())
}

var layoutTmpl = template.Must(template.New("layout").Parse(layoutHTML))

func renderMessage(m message) (string, error) {
	var buf bytes.Buffer
	if err := layoutTmpl.Execute(&buf, struct {
		AppName string
		message
	}{AppName: appName, message: m}); err != nil {
		return "", err
	}
	return buf.String(), nil
}

const layoutHTML = `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>{{.Subject}}</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { border-bottom: 2px solid #0066cc; padding-bottom: 10px; margin-bottom: 20px; }
        .button { display: inline-block; padding: 12px 24px; background: #0066cc; color: white; text-decoration: none; border-radius: 4px; margin: 20px 0; }
        .notice { background: #fff3cd; padding: 12px; border-radius: 4px; margin: 20px 0; }
        .footer { margin-top: 30px; padding-top: 20px; border-top: 1px solid #eee; font-size: 12px; color: #666; }
        .link { word-break: break-all; color: #0066cc; }
    </style>
</head>
<body>
    <div class="header">
        <h1>{{.AppName}}</h1>
    </div>

    <h2>{{.Heading}}</h2>

    <p>{{.Body}}</p>

    <p>
        <a href="{{.ButtonURL}}" class="button">{{.ButtonLabel}}</a>
    </p>

    <p>Or copy and paste this link into your browser:</p>
    <p class="link">{{.ButtonURL}}</p>
{{if .Notice}}
    <div class="notice">
        <strong>Important:</strong> {{.Notice}}
    </div>
{{end}}
    <div class="footer">
        <p>{{.Footer}}</p>
    </div>
</body>
</html>`
