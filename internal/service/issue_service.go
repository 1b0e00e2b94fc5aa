package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/itdesk/internal/domain"
	"github.com/spec-kit/itdesk/internal/events"
	"github.com/spec-kit/itdesk/internal/observability"
	"github.com/spec-kit/itdesk/internal/repository"
	apperrors "github.com/spec-kit/itdesk/pkg/util"
)

// IssueService coordinates the IT issue lifecycle.
type IssueService struct {
	issues     repository.IssueRepository
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
}

// NewIssueService constructs the service.
func NewIssueService(issues repository.IssueRepository, dispatcher events.Dispatcher, metrics *observability.Metrics) *IssueService {
	return &IssueService{issues: issues, dispatcher: dispatcher, metrics: metrics}
}

// IssueCreateInput describes issue creation payload.
type IssueCreateInput struct {
	Title         string
	Description   string
	Category      domain.IssueCategory
	Priority      domain.IssuePriority
	Method        domain.LoggingMethod
	AttachmentKey *string
}

// IssueContentInput describes reporter-editable fields.
type IssueContentInput struct {
	Title         *string
	Description   *string
	Category      *domain.IssueCategory
	Priority      *domain.IssuePriority
	AttachmentKey *string
}

// IssueListFilter describes admin listing filters.
type IssueListFilter struct {
	ReporterID  *string
	Statuses    []domain.IssueStatus
	Priorities  []domain.IssuePriority
	Categories  []domain.IssueCategory
	SearchTerm  *string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Limit       int
	Offset      int
}

// Create validates the enumerated fields, persists the issue with status
// OPEN and emits an issue_created event.
func (s *IssueService) Create(ctx context.Context, reporter *domain.StaffAccount, input IssueCreateInput) (*domain.Issue, error) {
	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)
	if title == "" || description == "" {
		return nil, apperrors.NewValidationError("title and description required", nil)
	}

	category := input.Category
	if category == "" {
		category = domain.CategoryOther
	}
	if !domain.ValidCategory(category) {
		return nil, apperrors.NewValidationError("unknown category", map[string]any{"category": category})
	}
	priority := input.Priority
	if priority == "" {
		priority = domain.PriorityMedium
	}
	if !domain.ValidPriority(priority) {
		return nil, apperrors.NewValidationError("unknown priority", map[string]any{"priority": priority})
	}
	method := input.Method
	if method == "" {
		method = domain.MethodEmail
	}
	if !domain.ValidLoggingMethod(method) {
		return nil, apperrors.NewValidationError("unknown logging method", map[string]any{"method": method})
	}

	issue := &domain.Issue{
		ReporterID:    reporter.ID,
		Title:         title,
		Description:   description,
		Category:      category,
		Priority:      priority,
		Method:        method,
		AttachmentKey: input.AttachmentKey,
		Status:        domain.IssueStatusOpen,
	}
	if err := s.issues.Create(ctx, issue); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.metrics.RecordIssueCreated()

	s.publishEvent(ctx, events.Event{
		Type:    events.EventIssueCreated,
		IssueID: issue.ID,
		Actor:   actorFor(reporter),
		Payload: events.IssueCreatedPayload{
			Title:         issue.Title,
			Category:      issue.Category,
			Priority:      issue.Priority,
			ReporterEmail: reporter.Email,
		},
	})
	return issue, nil
}

// ListOwn returns the requester's issues. The authorization boundary is
// the query itself: nothing outside the reporter's scope is fetched.
func (s *IssueService) ListOwn(ctx context.Context, requester *domain.StaffAccount, limit, offset int) ([]domain.Issue, error) {
	list, err := s.issues.ListByReporter(ctx, requester.ID, limit, offset)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return list, nil
}

// ListAll returns issues across accounts. Support-staff surface.
func (s *IssueService) ListAll(ctx context.Context, requester *domain.StaffAccount, filter IssueListFilter) ([]domain.Issue, error) {
	if requester.Role != domain.StaffRoleAdmin {
		return nil, apperrors.NewForbidden("support staff required")
	}
	repoFilter := repository.IssueFilter{
		ReporterID:  filter.ReporterID,
		Statuses:    filter.Statuses,
		Priorities:  filter.Priorities,
		Categories:  filter.Categories,
		SearchTerm:  filter.SearchTerm,
		CreatedFrom: filter.CreatedFrom,
		CreatedTo:   filter.CreatedTo,
		Limit:       filter.Limit,
		Offset:      filter.Offset,
	}
	list, err := s.issues.ListWithFilter(ctx, repoFilter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return list, nil
}

// Get fetches an issue, permitting the owner and support staff.
func (s *IssueService) Get(ctx context.Context, requester *domain.StaffAccount, id string) (*domain.Issue, error) {
	issue, err := s.fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	if issue.ReporterID != requester.ID && requester.Role != domain.StaffRoleAdmin {
		return nil, apperrors.NewForbidden("not your issue")
	}
	return issue, nil
}

// UpdateContent applies reporter edits. Owner only, and only while the
// issue is still OPEN.
func (s *IssueService) UpdateContent(ctx context.Context, requester *domain.StaffAccount, id string, input IssueContentInput) (*domain.Issue, error) {
	issue, err := s.fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	if issue.ReporterID != requester.ID {
		return nil, apperrors.NewForbidden("not your issue")
	}
	if issue.Status != domain.IssueStatusOpen {
		return nil, apperrors.NewConflict("issue can only be edited while open", map[string]any{"status": issue.Status})
	}

	fields := []string{}
	if input.Title != nil {
		if strings.TrimSpace(*input.Title) == "" {
			return nil, apperrors.NewValidationError("title cannot be empty", nil)
		}
		issue.Title = strings.TrimSpace(*input.Title)
		fields = append(fields, "title")
	}
	if input.Description != nil {
		if strings.TrimSpace(*input.Description) == "" {
			return nil, apperrors.NewValidationError("description cannot be empty", nil)
		}
		issue.Description = strings.TrimSpace(*input.Description)
		fields = append(fields, "description")
	}
	if input.Category != nil {
		if !domain.ValidCategory(*input.Category) {
			return nil, apperrors.NewValidationError("unknown category", map[string]any{"category": *input.Category})
		}
		issue.Category = *input.Category
		fields = append(fields, "category")
	}
	if input.Priority != nil {
		if !domain.ValidPriority(*input.Priority) {
			return nil, apperrors.NewValidationError("unknown priority", map[string]any{"priority": *input.Priority})
		}
		issue.Priority = *input.Priority
		fields = append(fields, "priority")
	}
	if input.AttachmentKey != nil {
		issue.AttachmentKey = input.AttachmentKey
		fields = append(fields, "attachment")
	}
	if len(fields) == 0 {
		return issue, nil
	}

	if err := s.issues.Update(ctx, issue); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.publishEvent(ctx, events.Event{
		Type:    events.EventIssueUpdated,
		IssueID: issue.ID,
		Actor:   actorFor(requester),
		Payload: events.IssueUpdatedPayload{Fields: fields},
	})
	return issue, nil
}

// UpdateStatus moves the issue through its lifecycle. Support staff only.
// Resolving stamps the resolution record and emits issue_resolved; other
// moves emit issue_updated.
func (s *IssueService) UpdateStatus(ctx context.Context, requester *domain.StaffAccount, id string, next domain.IssueStatus, workDone, recommendation string) (*domain.Issue, error) {
	if requester.Role != domain.StaffRoleAdmin {
		return nil, apperrors.NewForbidden("support staff required")
	}
	issue, err := s.fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	if !domain.CanTransition(issue.Status, next) {
		return nil, apperrors.NewInvalidTransition(string(issue.Status), string(next))
	}

	oldStatus := issue.Status
	issue.Status = next
	if next == domain.IssueStatusResolved {
		now := time.Now()
		issue.ResolvedAt = &now
		issue.WorkDone = strings.TrimSpace(workDone)
		issue.Recommendation = strings.TrimSpace(recommendation)
	}
	if err := s.issues.Update(ctx, issue); err != nil {
		return nil, apperrors.MapError(err)
	}

	if next == domain.IssueStatusResolved {
		s.publishEvent(ctx, events.Event{
			Type:    events.EventIssueResolved,
			IssueID: issue.ID,
			Actor:   actorFor(requester),
			Payload: events.IssueResolvedPayload{
				Title:          issue.Title,
				WorkDone:       issue.WorkDone,
				Recommendation: issue.Recommendation,
			},
		})
	} else {
		s.publishEvent(ctx, events.Event{
			Type:    events.EventIssueUpdated,
			IssueID: issue.ID,
			Actor:   actorFor(requester),
			Payload: events.IssueUpdatedPayload{OldStatus: oldStatus, NewStatus: next},
		})
	}
	return issue, nil
}

// Delete removes an issue. Owner only.
func (s *IssueService) Delete(ctx context.Context, requester *domain.StaffAccount, id string) error {
	issue, err := s.fetch(ctx, id)
	if err != nil {
		return err
	}
	if issue.ReporterID != requester.ID {
		return apperrors.NewForbidden("not your issue")
	}
	if err := s.issues.Delete(ctx, id); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}

func (s *IssueService) fetch(ctx context.Context, id string) (*domain.Issue, error) {
	issue, err := s.issues.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("issue", map[string]any{"id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return issue, nil
}

func (s *IssueService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func actorFor(account *domain.StaffAccount) events.Actor {
	return events.Actor{StaffID: account.ID, Role: account.Role}
}
