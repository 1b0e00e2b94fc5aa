package mailer

import (
	"github.com/spec-kit/itdesk/internal/domain"
)

// Mailer delivers transactional email. Delivery is best-effort: callers
// log failures and never roll back the state change that triggered the send.
type Mailer interface {
	SendPasscode(to, code string, purpose domain.PasscodePurpose, ttlMinutes int) error
	SendWelcome(to, fullName string) error
	SendIssueLogged(to, reporterName string, issue *domain.Issue) error
	SendIssueUpdated(to string, issue *domain.Issue) error
	SendIssueResolved(to string, issue *domain.Issue) error
}
