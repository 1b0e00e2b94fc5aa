package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishInvokesSubscribers(t *testing.T) {
	d := NewInMemoryDispatcher()

	var received []Event
	d.Subscribe(EventIssueCreated, func(_ context.Context, e Event) error {
		received = append(received, e)
		return nil
	})
	d.Subscribe(EventIssueResolved, func(_ context.Context, e Event) error {
		t.Fatal("handler for other type must not fire")
		return nil
	})

	err := d.Publish(context.Background(), Event{ID: "e1", Type: EventIssueCreated, IssueID: "i1"})
	require.NoError(t, err)
	require.Len(t, received, 1)
	assert.Equal(t, "i1", received[0].IssueID)
}

func TestPublishSwallowsHandlerErrors(t *testing.T) {
	d := NewInMemoryDispatcher()

	calls := 0
	d.Subscribe(EventIssueUpdated, func(context.Context, Event) error {
		calls++
		return errors.New("delivery failed")
	})
	d.Subscribe(EventIssueUpdated, func(context.Context, Event) error {
		calls++
		return nil
	})

	err := d.Publish(context.Background(), Event{Type: EventIssueUpdated})
	assert.NoError(t, err)
	assert.Equal(t, 2, calls)
}
