package natsutil

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Black-And-White-Club/ctf-platform/app/eventbus"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type published struct {
	subject string
	data    []byte
}

type fakePublisher struct {
	mu   sync.Mutex
	msgs []published
	err  error
	sent chan struct{}
}

func (f *fakePublisher) Publish(subject string, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, published{subject: subject, data: data})
	if f.sent != nil {
		f.sent <- struct{}{}
	}
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func solvedMessage(t *testing.T, ev eventbus.ChallengeSolved) *message.Message {
	t.Helper()
	msg, err := eventbus.NewMessage(ev)
	require.NoError(t, err)
	return msg
}

func TestHandleChallengeSolved(t *testing.T) {
	solvedAt := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	tests := []struct {
		name     string
		event    eventbus.ChallengeSolved
		wantKind string
	}{
		{
			name:     "first blood",
			event:    eventbus.ChallengeSolved{ChallengeID: 3, UserID: 9, Username: "alice", Points: 500, SolvedCount: 1, FirstBlood: true, SolvedAt: solvedAt},
			wantKind: KindFirstBlood,
		},
		{
			name:     "later solve",
			event:    eventbus.ChallengeSolved{ChallengeID: 3, UserID: 10, Username: "bob", Points: 500, SolvedCount: 2, SolvedAt: solvedAt},
			wantKind: KindSolve,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pub := &fakePublisher{}
			relay := NewRelay(pub, "", discardLogger())

			require.NoError(t, relay.HandleChallengeSolved(context.Background(), solvedMessage(t, tt.event)))
			require.Len(t, pub.msgs, 1)
			assert.Equal(t, DefaultSubject, pub.msgs[0].subject)

			var got Announcement
			require.NoError(t, json.Unmarshal(pub.msgs[0].data, &got))
			assert.Equal(t, tt.wantKind, got.Kind)
			assert.Equal(t, tt.event.Username, got.Username)
			assert.Equal(t, tt.event.SolvedCount, got.SolvedCount)
			assert.True(t, solvedAt.Equal(got.SolvedAt))
		})
	}
}

func TestHandleChallengeSolvedPublishFailure(t *testing.T) {
	pub := &fakePublisher{err: errors.New("nats: connection closed")}
	relay := NewRelay(pub, "ctf.test", discardLogger())

	err := relay.HandleChallengeSolved(context.Background(), solvedMessage(t, eventbus.ChallengeSolved{ChallengeID: 1}))
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "ctf.test"))
}

func TestHandleChallengeSolvedDropsBadPayload(t *testing.T) {
	pub := &fakePublisher{}
	relay := NewRelay(pub, "", discardLogger())

	require.NoError(t, relay.HandleChallengeSolved(context.Background(), message.NewMessage("1", []byte("{"))))
	assert.Empty(t, pub.msgs)
}

func TestRelaySubscribe(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := eventbus.NewEventBus(4, discardLogger())
	t.Cleanup(func() { _ = bus.Close() })

	pub := &fakePublisher{sent: make(chan struct{}, 1)}
	require.NoError(t, NewRelay(pub, "ctf.solves", discardLogger()).Subscribe(ctx, bus))
	require.NoError(t, eventbus.NewPublisher(bus).PublishSolved(ctx, eventbus.ChallengeSolved{ChallengeID: 5, FirstBlood: true}))

	select {
	case <-pub.sent:
	case <-time.After(2 * time.Second):
		t.Fatal("announcement not relayed")
	}
}

func TestNkeyOptionRejectsBadSeed(t *testing.T) {
	_, err := nkeyOption("not-a-seed")
	assert.Error(t, err)
}
