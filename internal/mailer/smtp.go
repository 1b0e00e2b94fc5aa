package mailer

import (
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/spec-kit/itdesk/internal/config"
	"github.com/spec-kit/itdesk/internal/domain"
)

// SMTPMailer sends email through a gomail dialer.
type SMTPMailer struct {
	cfg         config.SMTPConfig
	websiteLink string
	dialer      *gomail.Dialer
}

// NewSMTPMailer builds a mailer from SMTP settings.
func NewSMTPMailer(cfg config.SMTPConfig, websiteLink string) *SMTPMailer {
	return &SMTPMailer{
		cfg:         cfg,
		websiteLink: websiteLink,
		dialer:      gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
	}
}

// SendPasscode delivers a one-time passcode.
func (m *SMTPMailer) SendPasscode(to, code string, purpose domain.PasscodePurpose, ttlMinutes int) error {
	action := "log in to"
	if purpose == domain.PurposeRegistration {
		action = "verify your account on"
	}
	subject := "Your IT Desk one-time passcode"
	htmlBody := fmt.Sprintf(`
		<html>
		<body>
			<p>Use the code below to %s the Paramount IT Desk:</p>
			<h2>%s</h2>
			<p>The code expires in %d minutes. If you did not request it, ignore this email.</p>
		</body>
		</html>
	`, action, code, ttlMinutes)
	plainBody := fmt.Sprintf("Use this code to %s the Paramount IT Desk: %s\n\nThe code expires in %d minutes.", action, code, ttlMinutes)
	return m.send(to, subject, htmlBody, plainBody)
}

// SendWelcome delivers the onboarding email after a successful verification.
func (m *SMTPMailer) SendWelcome(to, fullName string) error {
	subject := "Welcome to the Paramount IT Desk"
	htmlBody := fmt.Sprintf(`
		<html>
		<body>
			<p>Hello %s,</p>
			<p>Your account is verified. You can now log issues with the IT desk:</p>
			<p><a href="%s">%s</a></p>
		</body>
		</html>
	`, fullName, m.websiteLink, m.websiteLink)
	plainBody := fmt.Sprintf("Hello %s,\n\nYour account is verified. Log issues at %s", fullName, m.websiteLink)
	return m.send(to, subject, htmlBody, plainBody)
}

// SendIssueLogged acknowledges a newly created issue.
func (m *SMTPMailer) SendIssueLogged(to, reporterName string, issue *domain.Issue) error {
	subject := fmt.Sprintf("Issue logged: %s", issue.Title)
	htmlBody := fmt.Sprintf(`
		<html>
		<body>
			<p>An IT issue has been logged by %s.</p>
			<ul>
				<li>Title: %s</li>
				<li>Category: %s</li>
				<li>Priority: %s</li>
			</ul>
			<p>The IT team will pick it up shortly.</p>
		</body>
		</html>
	`, reporterName, issue.Title, issue.Category, issue.Priority)
	plainBody := fmt.Sprintf("Issue logged by %s\nTitle: %s\nCategory: %s\nPriority: %s",
		reporterName, issue.Title, issue.Category, issue.Priority)
	return m.send(to, subject, htmlBody, plainBody)
}

// SendIssueUpdated notifies the reporter of a status change.
func (m *SMTPMailer) SendIssueUpdated(to string, issue *domain.Issue) error {
	subject := fmt.Sprintf("Issue update: %s", issue.Title)
	htmlBody := fmt.Sprintf(`
		<html>
		<body>
			<p>Your issue <b>%s</b> is now <b>%s</b>.</p>
		</body>
		</html>
	`, issue.Title, issue.Status)
	plainBody := fmt.Sprintf("Your issue %q is now %s.", issue.Title, issue.Status)
	return m.send(to, subject, htmlBody, plainBody)
}

// SendIssueResolved notifies the reporter that work is done.
func (m *SMTPMailer) SendIssueResolved(to string, issue *domain.Issue) error {
	subject := fmt.Sprintf("Issue resolved: %s", issue.Title)
	htmlBody := fmt.Sprintf(`
		<html>
		<body>
			<p>Your issue <b>%s</b> has been resolved.</p>
			<p>Work done: %s</p>
			<p>Recommendation: %s</p>
		</body>
		</html>
	`, issue.Title, issue.WorkDone, issue.Recommendation)
	plainBody := fmt.Sprintf("Your issue %q has been resolved.\nWork done: %s\nRecommendation: %s",
		issue.Title, issue.WorkDone, issue.Recommendation)
	return m.send(to, subject, htmlBody, plainBody)
}

func (m *SMTPMailer) send(to, subject, htmlBody, plainBody string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", msg.FormatAddress(m.cfg.From, m.cfg.FromName))
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", plainBody)
	msg.AddAlternative("text/html", htmlBody)
	return m.dialer.DialAndSend(msg)
}
