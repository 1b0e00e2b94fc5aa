package events

import (
	"time"

	"github.com/spec-kit/itdesk/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventIssueCreated  EventType = "issue_created"
	EventIssueUpdated  EventType = "issue_updated"
	EventIssueResolved EventType = "issue_resolved"
)

// Actor encapsulates who triggered an event.
type Actor struct {
	StaffID string           `json:"staff_id"`
	Role    domain.StaffRole `json:"role"`
}

// Event represents a domain event emitted by services. Events are
// transient: they live only for the duration of delivery.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	IssueID   string      `json:"issue_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// IssueCreatedPayload payload.
type IssueCreatedPayload struct {
	Title         string               `json:"title"`
	Category      domain.IssueCategory `json:"category"`
	Priority      domain.IssuePriority `json:"priority"`
	ReporterEmail string               `json:"reporter_email"`
}

// IssueUpdatedPayload payload.
type IssueUpdatedPayload struct {
	OldStatus domain.IssueStatus `json:"old_status,omitempty"`
	NewStatus domain.IssueStatus `json:"new_status,omitempty"`
	Fields    []string           `json:"fields,omitempty"`
}

// IssueResolvedPayload payload.
type IssueResolvedPayload struct {
	Title          string `json:"title"`
	WorkDone       string `json:"work_done,omitempty"`
	Recommendation string `json:"recommendation,omitempty"`
	ReporterEmail  string `json:"reporter_email"`
}
