package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/itdesk/internal/config"
	"github.com/spec-kit/itdesk/internal/domain"
	"github.com/spec-kit/itdesk/internal/events"
	"github.com/spec-kit/itdesk/internal/observability"
)

type notifyMailer struct {
	logged   chan string
	updated  chan string
	resolved chan string
}

func newNotifyMailer() *notifyMailer {
	return &notifyMailer{
		logged:   make(chan string, 8),
		updated:  make(chan string, 8),
		resolved: make(chan string, 8),
	}
}

func (m *notifyMailer) SendPasscode(string, string, domain.PasscodePurpose, int) error { return nil }

func (m *notifyMailer) SendWelcome(string, string) error { return nil }

func (m *notifyMailer) SendIssueLogged(to, _ string, _ *domain.Issue) error {
	m.logged <- to
	return nil
}

func (m *notifyMailer) SendIssueUpdated(to string, _ *domain.Issue) error {
	m.updated <- to
	return nil
}

func (m *notifyMailer) SendIssueResolved(to string, _ *domain.Issue) error {
	m.resolved <- to
	return nil
}

type publishedMessage struct {
	channel string
	payload []byte
}

type fakePublisher struct {
	messages chan publishedMessage
}

func newFakePublisher() *fakePublisher {
	return &fakePublisher{messages: make(chan publishedMessage, 8)}
}

func (p *fakePublisher) Publish(_ context.Context, channel string, payload []byte) error {
	p.messages <- publishedMessage{channel: channel, payload: payload}
	return nil
}

func recipients(t *testing.T, ch chan string, n int) []string {
	t.Helper()
	var out []string
	for i := 0; i < n; i++ {
		select {
		case to := <-ch:
			out = append(out, to)
		case <-time.After(2 * time.Second):
			t.Fatalf("expected %d emails, got %d", n, len(out))
		}
	}
	return out
}

func newNotificationFixture(t *testing.T) (events.Dispatcher, *notifyMailer, *fakePublisher, *domain.Issue) {
	t.Helper()
	ctx := context.Background()

	staffRepo := newFakeStaffRepo()
	reporter := &domain.StaffAccount{
		FirstName: "Jane",
		LastName:  "Wanjiru",
		Email:     "jane@paramount.co.ke",
		Role:      domain.StaffRoleUser,
		Verified:  true,
		Active:    true,
	}
	require.NoError(t, staffRepo.Create(ctx, reporter))

	issueRepo := newFakeIssueRepo()
	issue := &domain.Issue{
		ReporterID:  reporter.ID,
		Title:       "ATM offline",
		Description: "not dispensing",
		Category:    domain.CategoryHardware,
		Priority:    domain.PriorityHigh,
		Method:      domain.MethodCall,
		Status:      domain.IssueStatusOpen,
	}
	require.NoError(t, issueRepo.Create(ctx, issue))

	dispatcher := events.NewInMemoryDispatcher()
	mail := newNotifyMailer()
	publisher := newFakePublisher()
	svc := NewNotificationService(
		config.NotificationConfig{SupportEmail: "itsupport@paramount.co.ke", Channel: "notifications"},
		NotificationDependencies{
			Dispatcher: dispatcher,
			Mailer:     mail,
			Publisher:  publisher,
			IssueRepo:  issueRepo,
			StaffRepo:  staffRepo,
			Logger:     zap.NewNop(),
			Metrics:    observability.NewMetrics(),
		})
	svc.RegisterHandlers()
	return dispatcher, mail, publisher, issue
}

func TestIssueCreatedReachesRealtimeChannel(t *testing.T) {
	dispatcher, _, publisher, issue := newNotificationFixture(t)

	stamp := time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC)
	err := dispatcher.Publish(context.Background(), events.Event{
		Type:      events.EventIssueCreated,
		IssueID:   issue.ID,
		Timestamp: stamp,
		Payload:   events.IssueCreatedPayload{Title: issue.Title},
	})
	require.NoError(t, err)

	select {
	case msg := <-publisher.messages:
		assert.Equal(t, "notifications", msg.channel)
		var got realtimePayload
		require.NoError(t, json.Unmarshal(msg.payload, &got))
		assert.Equal(t, issue.ID, got.IssueID)
		assert.Equal(t, "CREATED", got.Kind)
		assert.True(t, got.Timestamp.Equal(stamp))
	case <-time.After(time.Second):
		t.Fatal("nothing published to the realtime channel")
	}
}

func TestStatusEventsReachRealtimeChannel(t *testing.T) {
	dispatcher, _, publisher, issue := newNotificationFixture(t)
	ctx := context.Background()

	require.NoError(t, dispatcher.Publish(ctx, events.Event{Type: events.EventIssueUpdated, IssueID: issue.ID}))
	require.NoError(t, dispatcher.Publish(ctx, events.Event{Type: events.EventIssueResolved, IssueID: issue.ID}))

	var kinds []string
	for i := 0; i < 2; i++ {
		select {
		case msg := <-publisher.messages:
			var got realtimePayload
			require.NoError(t, json.Unmarshal(msg.payload, &got))
			kinds = append(kinds, got.Kind)
		case <-time.After(time.Second):
			t.Fatal("publish missing")
		}
	}
	assert.Equal(t, []string{"UPDATED", "RESOLVED"}, kinds)
}

func TestIssueCreatedNotifiesReporterAndSupport(t *testing.T) {
	dispatcher, mail, _, issue := newNotificationFixture(t)

	err := dispatcher.Publish(context.Background(), events.Event{
		Type:    events.EventIssueCreated,
		IssueID: issue.ID,
	})
	require.NoError(t, err)

	assert.ElementsMatch(t,
		[]string{"jane@paramount.co.ke", "itsupport@paramount.co.ke"},
		recipients(t, mail.logged, 2))
}

func TestIssueUpdatedNotifiesReporterOnly(t *testing.T) {
	dispatcher, mail, _, issue := newNotificationFixture(t)

	err := dispatcher.Publish(context.Background(), events.Event{
		Type:    events.EventIssueUpdated,
		IssueID: issue.ID,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"jane@paramount.co.ke"}, recipients(t, mail.updated, 1))
	select {
	case to := <-mail.updated:
		t.Fatalf("unexpected extra update email to %s", to)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestIssueResolvedNotifiesReporterAndSupport(t *testing.T) {
	dispatcher, mail, _, issue := newNotificationFixture(t)

	err := dispatcher.Publish(context.Background(), events.Event{
		Type:    events.EventIssueResolved,
		IssueID: issue.ID,
	})
	require.NoError(t, err)

	assert.ElementsMatch(t,
		[]string{"jane@paramount.co.ke", "itsupport@paramount.co.ke"},
		recipients(t, mail.resolved, 2))
}

func TestMissingIssueIsIgnored(t *testing.T) {
	dispatcher, mail, _, _ := newNotificationFixture(t)

	err := dispatcher.Publish(context.Background(), events.Event{
		Type:    events.EventIssueCreated,
		IssueID: "missing",
	})
	require.NoError(t, err)

	select {
	case to := <-mail.logged:
		t.Fatalf("unexpected email to %s", to)
	case <-time.After(100 * time.Millisecond):
	}
}
