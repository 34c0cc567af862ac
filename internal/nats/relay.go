package natsutil

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/Black-And-White-Club/ctf-platform/app/eventbus"
	"github.com/Black-And-White-Club/ctf-platform/app/shared/attr"
	"github.com/ThreeDotsLabs/watermill/message"
)

// DefaultSubject is where solve announcements go when none is configured.
const DefaultSubject = "ctf.solves"

const (
	KindSolve      = "solve"
	KindFirstBlood = "first_blood"
)

// Publisher is the part of *nats.Conn the relay uses.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// Announcement is the payload published for every solve.
type Announcement struct {
	Kind           string    `json:"kind"`
	ChallengeID    int64     `json:"challenge_id"`
	ChallengeTitle string    `json:"challenge_title"`
	UserID         int64     `json:"user_id"`
	Username       string    `json:"username"`
	Points         int       `json:"points"`
	SolvedCount    int       `json:"solved_count"`
	SolvedAt       time.Time `json:"solved_at"`
}

// Relay forwards solve events from the in-process bus to a NATS subject.
type Relay struct {
	conn    Publisher
	subject string
	logger  *slog.Logger
}

// NewRelay creates a Relay publishing on subject.
func NewRelay(conn Publisher, subject string, logger *slog.Logger) *Relay {
	if subject == "" {
		subject = DefaultSubject
	}
	return &Relay{conn: conn, subject: subject, logger: logger}
}

// Subscribe starts relaying ChallengeSolved events from bus.
func (r *Relay) Subscribe(ctx context.Context, bus eventbus.EventBus) error {
	if err := bus.Subscribe(ctx, eventbus.ChallengeSolvedTopic, r.HandleChallengeSolved); err != nil {
		return fmt.Errorf("failed to subscribe solve relay: %w", err)
	}
	r.logger.InfoContext(ctx, "Solve relay started", attr.String("subject", r.subject))
	return nil
}

// HandleChallengeSolved publishes one announcement. Publish failures nack the
// message so the bus redelivers it.
func (r *Relay) HandleChallengeSolved(ctx context.Context, msg *message.Message) error {
	var event eventbus.ChallengeSolved
	if err := eventbus.Decode(msg, &event); err != nil {
		r.logger.WarnContext(ctx, "Dropping unreadable solve event", attr.Error(err))
		return nil
	}

	kind := KindSolve
	if event.FirstBlood {
		kind = KindFirstBlood
	}

	payload, err := json.Marshal(Announcement{
		Kind:           kind,
		ChallengeID:    event.ChallengeID,
		ChallengeTitle: event.ChallengeTitle,
		UserID:         event.UserID,
		Username:       event.Username,
		Points:         event.Points,
		SolvedCount:    event.SolvedCount,
		SolvedAt:       event.SolvedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal announcement: %w", err)
	}

	if err := r.conn.Publish(r.subject, payload); err != nil {
		r.logger.ErrorContext(ctx, "Failed to relay solve",
			attr.ChallengeID(event.ChallengeID),
			attr.UserID(event.UserID),
			attr.Error(err),
		)
		return fmt.Errorf("failed to publish to %s: %w", r.subject, err)
	}
	return nil
}
