package leaderboardsubscribers

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Black-And-White-Club/ctf-platform/app/eventbus"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingInvalidator struct {
	calls atomic.Int32
	done  chan struct{}
}

func (c *countingInvalidator) Invalidate(ctx context.Context) {
	c.calls.Add(1)
	c.done <- struct{}{}
}

func TestSubscribeToLeaderboardEvents(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	bus := eventbus.NewEventBus(8, logger)
	t.Cleanup(func() { _ = bus.Close() })

	inv := &countingInvalidator{done: make(chan struct{}, 4)}
	require.NoError(t, NewLeaderboardSubscribers(bus, inv, logger).SubscribeToLeaderboardEvents(ctx))

	pub := eventbus.NewPublisher(bus)
	require.NoError(t, pub.PublishSolved(ctx, eventbus.ChallengeSolved{ChallengeID: 1, UserID: 2}))
	require.NoError(t, pub.PublishRecalculated(ctx, eventbus.ScoresRecalculated{Challenges: 3}))

	for i := 0; i < 2; i++ {
		select {
		case <-inv.done:
		case <-time.After(2 * time.Second):
			t.Fatalf("invalidation %d not observed", i+1)
		}
	}
	assert.Equal(t, int32(2), inv.calls.Load())
}

func TestHandleChallengeSolvedDropsBadPayload(t *testing.T) {
	inv := &countingInvalidator{done: make(chan struct{}, 1)}
	s := NewLeaderboardSubscribers(nil, inv, slog.New(slog.NewTextHandler(io.Discard, nil)))

	err := s.HandleChallengeSolved(context.Background(), message.NewMessage("1", []byte("not json")))
	require.NoError(t, err)
	assert.Zero(t, inv.calls.Load())
}
