package leaderboardsubscribers

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Black-And-White-Club/ctf-platform/app/eventbus"
	"github.com/Black-And-White-Club/ctf-platform/app/shared/attr"
	"github.com/ThreeDotsLabs/watermill/message"
)

// Invalidator drops cached leaderboard pages.
type Invalidator interface {
	Invalidate(ctx context.Context)
}

// LeaderboardSubscribers keeps the cached boards in step with scoring events.
type LeaderboardSubscribers struct {
	bus         eventbus.EventBus
	invalidator Invalidator
	logger      *slog.Logger
}

// NewLeaderboardSubscribers creates a new LeaderboardSubscribers instance.
func NewLeaderboardSubscribers(bus eventbus.EventBus, invalidator Invalidator, logger *slog.Logger) *LeaderboardSubscribers {
	return &LeaderboardSubscribers{
		bus:         bus,
		invalidator: invalidator,
		logger:      logger,
	}
}

// SubscribeToLeaderboardEvents subscribes to scoring events and routes them to handlers.
func (s *LeaderboardSubscribers) SubscribeToLeaderboardEvents(ctx context.Context) error {
	eventSubscriptions := []struct {
		topic   string
		handler eventbus.Handler
	}{
		{
			topic:   eventbus.ChallengeSolvedTopic,
			handler: s.HandleChallengeSolved,
		},
		{
			topic:   eventbus.ScoresRecalculatedTopic,
			handler: s.HandleScoresRecalculated,
		},
	}

	for _, event := range eventSubscriptions {
		if err := s.bus.Subscribe(ctx, event.topic, event.handler); err != nil {
			s.logger.ErrorContext(ctx, "Failed to subscribe to events",
				attr.String("topic", event.topic),
				attr.Error(err),
			)
			return fmt.Errorf("failed to subscribe to %s events: %w", event.topic, err)
		}
	}
	return nil
}

// HandleChallengeSolved invalidates the global pages after a solve.
func (s *LeaderboardSubscribers) HandleChallengeSolved(ctx context.Context, msg *message.Message) error {
	var event eventbus.ChallengeSolved
	if err := eventbus.Decode(msg, &event); err != nil {
		// A payload that cannot be read will not get better on redelivery.
		s.logger.WarnContext(ctx, "Dropping unreadable solve event", attr.Error(err))
		return nil
	}

	s.logger.DebugContext(ctx, "Invalidating leaderboard after solve",
		attr.ChallengeID(event.ChallengeID),
		attr.UserID(event.UserID),
	)
	s.invalidator.Invalidate(ctx)
	return nil
}

// HandleScoresRecalculated invalidates the global pages after a recalculation.
func (s *LeaderboardSubscribers) HandleScoresRecalculated(ctx context.Context, msg *message.Message) error {
	var event eventbus.ScoresRecalculated
	if err := eventbus.Decode(msg, &event); err != nil {
		s.logger.WarnContext(ctx, "Dropping unreadable recalculation event", attr.Error(err))
		return nil
	}

	s.logger.DebugContext(ctx, "Invalidating leaderboard after recalculation",
		attr.Int("challenges", event.Challenges),
		attr.Int("users", event.Users),
	)
	s.invalidator.Invalidate(ctx)
	return nil
}
