package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcherRunsAllHandlersAndJoinsErrors(t *testing.T) {
	d := NewInMemoryDispatcher()
	var seen []Event
	boom := errors.New("webhook down")

	d.Subscribe(EventUpdateCreated, func(context.Context, Event) error { return boom })
	d.Subscribe(EventUpdateCreated, func(_ context.Context, e Event) error {
		seen = append(seen, e)
		return nil
	})
	d.Subscribe(EventUpdateEdited, func(context.Context, Event) error {
		t.Fatal("wrong event type delivered")
		return nil
	})

	err := d.Publish(context.Background(), Event{Type: EventUpdateCreated, SubjectID: "u1"})
	assert.ErrorIs(t, err, boom)
	require.Len(t, seen, 1)
	assert.NotEmpty(t, seen[0].ID)
	assert.False(t, seen[0].Timestamp.IsZero())
	assert.Equal(t, "u1", seen[0].SubjectID)
}

func TestDispatcherWithoutListeners(t *testing.T) {
	assert.NoError(t, NewInMemoryDispatcher().Publish(context.Background(), Event{Type: EventTeamCreated}))
}
