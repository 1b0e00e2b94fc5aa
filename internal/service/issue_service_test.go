package service

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/itdesk/internal/domain"
	"github.com/spec-kit/itdesk/internal/events"
	"github.com/spec-kit/itdesk/internal/observability"
	"github.com/spec-kit/itdesk/internal/repository"
	apperrors "github.com/spec-kit/itdesk/pkg/util"
)

type fakeIssueRepo struct {
	mu     sync.Mutex
	seq    int
	issues map[string]*domain.Issue
}

func newFakeIssueRepo() *fakeIssueRepo {
	return &fakeIssueRepo{issues: make(map[string]*domain.Issue)}
}

func (f *fakeIssueRepo) Create(_ context.Context, issue *domain.Issue) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	issue.ID = "issue-" + strconv.Itoa(f.seq)
	issue.CreatedAt = time.Now()
	issue.UpdatedAt = issue.CreatedAt
	stored := *issue
	f.issues[issue.ID] = &stored
	return nil
}

func (f *fakeIssueRepo) Update(_ context.Context, issue *domain.Issue) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.issues[issue.ID]; !ok {
		return pgx.ErrNoRows
	}
	issue.UpdatedAt = time.Now()
	stored := *issue
	f.issues[issue.ID] = &stored
	return nil
}

func (f *fakeIssueRepo) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.issues[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(f.issues, id)
	return nil
}

func (f *fakeIssueRepo) GetByID(_ context.Context, id string) (*domain.Issue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	issue, ok := f.issues[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *issue
	return &copied, nil
}

func (f *fakeIssueRepo) ListByReporter(ctx context.Context, reporterID string, limit, offset int) ([]domain.Issue, error) {
	return f.ListWithFilter(ctx, repository.IssueFilter{ReporterID: &reporterID, Limit: limit, Offset: offset})
}

func (f *fakeIssueRepo) ListWithFilter(_ context.Context, filter repository.IssueFilter) ([]domain.Issue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []domain.Issue
	for _, issue := range f.issues {
		if filter.ReporterID != nil && issue.ReporterID != *filter.ReporterID {
			continue
		}
		if len(filter.Statuses) > 0 {
			matched := false
			for _, s := range filter.Statuses {
				if issue.Status == s {
					matched = true
				}
			}
			if !matched {
				continue
			}
		}
		result = append(result, *issue)
	}
	return result, nil
}

type capturedEvents struct {
	mu     sync.Mutex
	events []events.Event
}

func (c *capturedEvents) all() []events.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]events.Event{}, c.events...)
}

func newIssueServiceForTest() (*IssueService, *fakeIssueRepo, *capturedEvents) {
	repo := newFakeIssueRepo()
	dispatcher := events.NewInMemoryDispatcher()
	captured := &capturedEvents{}
	capture := func(_ context.Context, e events.Event) error {
		captured.mu.Lock()
		defer captured.mu.Unlock()
		captured.events = append(captured.events, e)
		return nil
	}
	dispatcher.Subscribe(events.EventIssueCreated, capture)
	dispatcher.Subscribe(events.EventIssueUpdated, capture)
	dispatcher.Subscribe(events.EventIssueResolved, capture)
	return NewIssueService(repo, dispatcher, observability.NewMetrics()), repo, captured
}

func reporter() *domain.StaffAccount {
	return &domain.StaffAccount{
		ID:       "staff-reporter",
		Email:    "jane@paramount.co.ke",
		Role:     domain.StaffRoleUser,
		Verified: true,
		Active:   true,
	}
}

func supportStaff() *domain.StaffAccount {
	return &domain.StaffAccount{
		ID:       "staff-admin",
		Email:    "desk@paramount.co.ke",
		Role:     domain.StaffRoleAdmin,
		Verified: true,
		Active:   true,
	}
}

func TestCreateDefaultsAndEvent(t *testing.T) {
	svc, _, captured := newIssueServiceForTest()

	issue, err := svc.Create(context.Background(), reporter(), IssueCreateInput{
		Title:       "ATM offline",
		Description: "Branch ATM not dispensing",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.IssueStatusOpen, issue.Status)
	assert.Equal(t, domain.CategoryOther, issue.Category)
	assert.Equal(t, domain.PriorityMedium, issue.Priority)
	assert.Equal(t, domain.MethodEmail, issue.Method)
	assert.Equal(t, "staff-reporter", issue.ReporterID)

	evts := captured.all()
	require.Len(t, evts, 1)
	assert.Equal(t, events.EventIssueCreated, evts[0].Type)
	assert.Equal(t, issue.ID, evts[0].IssueID)
	payload, ok := evts[0].Payload.(events.IssueCreatedPayload)
	require.True(t, ok)
	assert.Equal(t, "jane@paramount.co.ke", payload.ReporterEmail)
}

func TestCreateRejectsUnknownEnums(t *testing.T) {
	svc, _, _ := newIssueServiceForTest()
	ctx := context.Background()

	_, err := svc.Create(ctx, reporter(), IssueCreateInput{Title: "x", Description: "y", Category: "PRINTER"})
	assert.True(t, apperrors.HasCode(err, "VALIDATION_FAILED"))

	_, err = svc.Create(ctx, reporter(), IssueCreateInput{Title: "x", Description: "y", Priority: "URGENT"})
	assert.True(t, apperrors.HasCode(err, "VALIDATION_FAILED"))

	_, err = svc.Create(ctx, reporter(), IssueCreateInput{Title: "", Description: "y"})
	assert.True(t, apperrors.HasCode(err, "VALIDATION_FAILED"))
}

func TestGetEnforcesOwnership(t *testing.T) {
	svc, _, _ := newIssueServiceForTest()
	ctx := context.Background()

	issue, err := svc.Create(ctx, reporter(), IssueCreateInput{Title: "x", Description: "y"})
	require.NoError(t, err)

	other := &domain.StaffAccount{ID: "staff-other", Role: domain.StaffRoleUser}
	_, err = svc.Get(ctx, other, issue.ID)
	assert.True(t, apperrors.HasCode(err, "FORBIDDEN"))

	// Support staff can see everything.
	got, err := svc.Get(ctx, supportStaff(), issue.ID)
	require.NoError(t, err)
	assert.Equal(t, issue.ID, got.ID)

	_, err = svc.Get(ctx, reporter(), "missing")
	assert.True(t, apperrors.HasCode(err, "NOT_FOUND"))
}

func TestListOwnIsScopedToReporter(t *testing.T) {
	svc, _, _ := newIssueServiceForTest()
	ctx := context.Background()

	_, err := svc.Create(ctx, reporter(), IssueCreateInput{Title: "mine", Description: "y"})
	require.NoError(t, err)
	other := &domain.StaffAccount{ID: "staff-other", Email: "o@paramount.co.ke", Role: domain.StaffRoleUser}
	_, err = svc.Create(ctx, other, IssueCreateInput{Title: "theirs", Description: "y"})
	require.NoError(t, err)

	list, err := svc.ListOwn(ctx, reporter(), 50, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "mine", list[0].Title)
}

func TestListAllRequiresSupportStaff(t *testing.T) {
	svc, _, _ := newIssueServiceForTest()

	_, err := svc.ListAll(context.Background(), reporter(), IssueListFilter{})
	assert.True(t, apperrors.HasCode(err, "FORBIDDEN"))

	_, err = svc.ListAll(context.Background(), supportStaff(), IssueListFilter{})
	assert.NoError(t, err)
}

func TestUpdateContentOnlyWhileOpen(t *testing.T) {
	svc, repo, captured := newIssueServiceForTest()
	ctx := context.Background()

	issue, err := svc.Create(ctx, reporter(), IssueCreateInput{Title: "x", Description: "y"})
	require.NoError(t, err)

	newTitle := "Core banking down"
	updated, err := svc.UpdateContent(ctx, reporter(), issue.ID, IssueContentInput{Title: &newTitle})
	require.NoError(t, err)
	assert.Equal(t, "Core banking down", updated.Title)

	evts := captured.all()
	require.Len(t, evts, 2)
	assert.Equal(t, events.EventIssueUpdated, evts[1].Type)

	// Non-owner may not edit.
	other := &domain.StaffAccount{ID: "staff-other", Role: domain.StaffRoleUser}
	_, err = svc.UpdateContent(ctx, other, issue.ID, IssueContentInput{Title: &newTitle})
	assert.True(t, apperrors.HasCode(err, "FORBIDDEN"))

	// Once past OPEN the content is frozen.
	stored, err := repo.GetByID(ctx, issue.ID)
	require.NoError(t, err)
	stored.Status = domain.IssueStatusInProgress
	require.NoError(t, repo.Update(ctx, stored))

	_, err = svc.UpdateContent(ctx, reporter(), issue.ID, IssueContentInput{Title: &newTitle})
	assert.True(t, apperrors.HasCode(err, "CONFLICT"))
}

func TestUpdateStatusLifecycle(t *testing.T) {
	svc, _, captured := newIssueServiceForTest()
	ctx := context.Background()

	issue, err := svc.Create(ctx, reporter(), IssueCreateInput{Title: "x", Description: "y"})
	require.NoError(t, err)

	// Reporters cannot move status.
	_, err = svc.UpdateStatus(ctx, reporter(), issue.ID, domain.IssueStatusInProgress, "", "")
	assert.True(t, apperrors.HasCode(err, "FORBIDDEN"))

	moved, err := svc.UpdateStatus(ctx, supportStaff(), issue.ID, domain.IssueStatusInProgress, "", "")
	require.NoError(t, err)
	assert.Equal(t, domain.IssueStatusInProgress, moved.Status)
	assert.Nil(t, moved.ResolvedAt)

	resolved, err := svc.UpdateStatus(ctx, supportStaff(), issue.ID, domain.IssueStatusResolved, "replaced switch", "monitor for a week")
	require.NoError(t, err)
	assert.Equal(t, domain.IssueStatusResolved, resolved.Status)
	require.NotNil(t, resolved.ResolvedAt)
	assert.Equal(t, "replaced switch", resolved.WorkDone)
	assert.Equal(t, "monitor for a week", resolved.Recommendation)

	// RESOLVED is terminal.
	_, err = svc.UpdateStatus(ctx, supportStaff(), issue.ID, domain.IssueStatusOpen, "", "")
	assert.True(t, apperrors.HasCode(err, "INVALID_TRANSITION"))

	evts := captured.all()
	require.Len(t, evts, 3)
	assert.Equal(t, events.EventIssueUpdated, evts[1].Type)
	updatedPayload, ok := evts[1].Payload.(events.IssueUpdatedPayload)
	require.True(t, ok)
	assert.Equal(t, domain.IssueStatusOpen, updatedPayload.OldStatus)
	assert.Equal(t, domain.IssueStatusInProgress, updatedPayload.NewStatus)
	assert.Equal(t, events.EventIssueResolved, evts[2].Type)
}

func TestDeleteOwnerOnly(t *testing.T) {
	svc, _, _ := newIssueServiceForTest()
	ctx := context.Background()

	issue, err := svc.Create(ctx, reporter(), IssueCreateInput{Title: "x", Description: "y"})
	require.NoError(t, err)

	err = svc.Delete(ctx, supportStaff(), issue.ID)
	assert.True(t, apperrors.HasCode(err, "FORBIDDEN"))

	require.NoError(t, svc.Delete(ctx, reporter(), issue.ID))
	_, err = svc.Get(ctx, reporter(), issue.ID)
	assert.True(t, apperrors.HasCode(err, "NOT_FOUND"))
}
