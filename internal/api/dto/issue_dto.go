package dto

import (
	"time"

	"github.com/spec-kit/itdesk/internal/domain"
)

// CreateIssueRequest payload.
type CreateIssueRequest struct {
	Title         string               `json:"title"`
	Description   string               `json:"description"`
	Category      domain.IssueCategory `json:"category"`
	Priority      domain.IssuePriority `json:"priority"`
	Method        domain.LoggingMethod `json:"method"`
	AttachmentKey *string              `json:"attachment_key"`
}

// UpdateIssueRequest payload for owner content edits.
type UpdateIssueRequest struct {
	Title         *string               `json:"title"`
	Description   *string               `json:"description"`
	Category      *domain.IssueCategory `json:"category"`
	Priority      *domain.IssuePriority `json:"priority"`
	AttachmentKey *string               `json:"attachment_key"`
}

// UpdateStatusRequest payload for support staff status moves.
type UpdateStatusRequest struct {
	Status         domain.IssueStatus `json:"status"`
	WorkDone       string             `json:"work_done"`
	Recommendation string             `json:"recommendation"`
}

// IssueResponse represents a full issue.
type IssueResponse struct {
	ID             string               `json:"id"`
	ReporterID     string               `json:"reporter_id"`
	Title          string               `json:"title"`
	Description    string               `json:"description"`
	Category       domain.IssueCategory `json:"category"`
	Priority       domain.IssuePriority `json:"priority"`
	Method         domain.LoggingMethod `json:"method"`
	AttachmentKey  *string              `json:"attachment_key,omitempty"`
	Status         domain.IssueStatus   `json:"status"`
	WorkDone       string               `json:"work_done,omitempty"`
	Recommendation string               `json:"recommendation,omitempty"`
	ResolvedAt     *time.Time           `json:"resolved_at,omitempty"`
	CreatedAt      time.Time            `json:"created_at"`
	UpdatedAt      time.Time            `json:"updated_at"`
}
