package audit

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "rollcall/pkg/domain"
	"rollcall/pkg/requestcontext"
)

func TestPublisher_FillsContextFields(t *testing.T) {
	pub := NewPublisher(slog.New(slog.DiscardHandler), 4)

	now := time.Date(2026, 3, 9, 10, 0, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(context.Background(), now)
	ctx = requestcontext.WithRequestID(ctx, "req-1")

	pub.Emit(ctx, Event{Action: ActionClassCreated, Subject: "class-1"})

	got := <-pub.Inbox()
	assert.Equal(t, now, got.Timestamp)
	assert.Equal(t, "req-1", got.RequestID)
}

func TestPublisher_DropsWhenBufferFull(t *testing.T) {
	pub := NewPublisher(slog.New(slog.DiscardHandler), 1)
	ctx := context.Background()

	pub.Emit(ctx, Event{Action: ActionClassCreated, Subject: "kept"})
	// Buffer is full now. This must return immediately instead of blocking.
	done := make(chan struct{})
	go func() {
		pub.Emit(ctx, Event{Action: ActionClassCreated, Subject: "dropped"})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Emit blocked on a full buffer")
	}

	got := <-pub.Inbox()
	assert.Equal(t, "kept", got.Subject)
}

type flakyStore struct {
	mu     sync.Mutex
	events []Event
	fail   bool
}

func (s *flakyStore) Append(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		s.fail = false
		return errors.New("store down")
	}
	s.events = append(s.events, event)
	return nil
}

func (s *flakyStore) List(context.Context, int) ([]Event, error) { return nil, nil }

func (s *flakyStore) stored() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Event(nil), s.events...)
}

func TestWorker_PersistsAndSurvivesStoreErrors(t *testing.T) {
	store := &flakyStore{fail: true}
	pub := NewPublisher(slog.New(slog.DiscardHandler), 8)
	worker := NewWorker(slog.New(slog.DiscardHandler), store, pub.Inbox())

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- worker.Run(ctx) }()

	pub.Emit(ctx, Event{Action: ActionUserLoggedIn, ActorID: id.NewUserID(), Subject: "lost to store error"})
	pub.Emit(ctx, Event{Action: ActionAttendanceGenerated, Subject: "lecture-1"})

	require.Eventually(t, func() bool {
		return len(store.stored()) == 1
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, ActionAttendanceGenerated, store.stored()[0].Action)

	cancel()
	assert.ErrorIs(t, <-errc, context.Canceled)
}

func TestInMemoryStore_ListNewestFirst(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	base := time.Date(2026, 3, 9, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		require.NoError(t, store.Append(ctx, Event{
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			Action:    ActionPhotoRegistered,
			Subject:   string(rune('a' + i)),
		}))
	}

	events, err := store.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "c", events[0].Subject)
	assert.Equal(t, "b", events[1].Subject)
}
