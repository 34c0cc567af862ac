package eventbus

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBus(t *testing.T) EventBus {
	t.Helper()
	bus := NewEventBus(16, slog.New(slog.NewTextHandler(io.Discard, nil)))
	t.Cleanup(func() { _ = bus.Close() })
	return bus
}

func TestEventBus_PublishSolved(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	bus := newTestBus(t)

	received := make(chan ChallengeSolved, 1)
	require.NoError(t, bus.Subscribe(ctx, ChallengeSolvedTopic, func(ctx context.Context, msg *message.Message) error {
		var ev ChallengeSolved
		if err := Decode(msg, &ev); err != nil {
			return err
		}
		received <- ev
		return nil
	}))

	want := ChallengeSolved{ChallengeID: 3, UserID: 9, Username: "alice", Points: 500, SolvedCount: 1, FirstBlood: true}
	require.NoError(t, NewPublisher(bus).PublishSolved(ctx, want))

	select {
	case got := <-received:
		assert.Equal(t, want, got)
	case <-time.After(2 * time.Second):
		t.Fatal("event not delivered")
	}
}

func TestEventBus_HandlerErrorIsRedelivered(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	bus := newTestBus(t)

	var calls atomic.Int32
	attempts := make(chan struct{}, 4)
	require.NoError(t, bus.Subscribe(ctx, ScoresRecalculatedTopic, func(ctx context.Context, msg *message.Message) error {
		attempts <- struct{}{}
		if calls.Add(1) == 1 {
			return errors.New("cache down")
		}
		return nil
	}))

	require.NoError(t, NewPublisher(bus).PublishRecalculated(ctx, ScoresRecalculated{Challenges: 2}))

	for i := 0; i < 2; i++ {
		select {
		case <-attempts:
		case <-time.After(2 * time.Second):
			t.Fatalf("attempt %d not observed", i+1)
		}
	}
}

func TestEventBus_Closed(t *testing.T) {
	bus := NewEventBus(1, nil)
	require.NoError(t, bus.Close())
	msg, err := NewMessage(map[string]int{"a": 1})
	require.NoError(t, err)
	assert.ErrorIs(t, bus.Publish(context.Background(), ChallengeSolvedTopic, msg), ErrClosed)
	assert.NoError(t, bus.Close())
}

func TestPublisher_NilBus(t *testing.T) {
	var p *Publisher
	assert.NoError(t, p.PublishSolved(context.Background(), ChallengeSolved{}))
	assert.NoError(t, NewPublisher(nil).PublishSolved(context.Background(), ChallengeSolved{}))
}
