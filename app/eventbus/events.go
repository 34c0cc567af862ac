package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

// ChallengeSolvedTopic carries ChallengeSolved events.
const ChallengeSolvedTopic = "ctf.challenge.solved.v1"

// ScoresRecalculatedTopic carries ScoresRecalculated events.
const ScoresRecalculatedTopic = "ctf.scores.recalculated.v1"

// ChallengeSolved is published after a correct submission commits.
type ChallengeSolved struct {
	ChallengeID    int64     `json:"challenge_id"`
	ChallengeTitle string    `json:"challenge_title"`
	UserID         int64     `json:"user_id"`
	Username       string    `json:"username"`
	Points         int       `json:"points"`
	SolvedCount    int       `json:"solved_count"`
	FirstBlood     bool      `json:"first_blood"`
	SolvedAt       time.Time `json:"solved_at"`
}

// ScoresRecalculated is published after a recalculation run or a user score rewrite.
type ScoresRecalculated struct {
	Challenges int       `json:"challenges"`
	Users      int       `json:"users"`
	FinishedAt time.Time `json:"finished_at"`
}

// NewMessage marshals payload into a watermill message with a fresh UUID.
func NewMessage(payload any) (*message.Message, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	return message.NewMessage(watermill.NewUUID(), raw), nil
}

// Decode unmarshals a message payload into out.
func Decode(msg *message.Message, out any) error {
	if err := json.Unmarshal(msg.Payload, out); err != nil {
		return fmt.Errorf("failed to unmarshal %s: %w", msg.UUID, err)
	}
	return nil
}

// Publisher is the narrow publishing contract the services depend on.
type Publisher struct {
	bus EventBus
}

// NewPublisher wraps bus. A nil bus makes every publish a no-op.
func NewPublisher(bus EventBus) *Publisher {
	return &Publisher{bus: bus}
}

// PublishSolved publishes a ChallengeSolved event.
func (p *Publisher) PublishSolved(ctx context.Context, event ChallengeSolved) error {
	return p.publish(ctx, ChallengeSolvedTopic, event)
}

// PublishRecalculated publishes a ScoresRecalculated event.
func (p *Publisher) PublishRecalculated(ctx context.Context, event ScoresRecalculated) error {
	return p.publish(ctx, ScoresRecalculatedTopic, event)
}

func (p *Publisher) publish(ctx context.Context, topic string, payload any) error {
	if p == nil || p.bus == nil {
		return nil
	}
	msg, err := NewMessage(payload)
	if err != nil {
		return err
	}
	return p.bus.Publish(ctx, topic, msg)
}
