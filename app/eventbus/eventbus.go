// Package eventbus is the in-process pub/sub the services publish domain
// events on after their transactions commit.
package eventbus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// ErrClosed is returned by Publish after Close.
var ErrClosed = errors.New("event bus closed")

// Handler processes one message. Returning an error nacks it.
type Handler func(ctx context.Context, msg *message.Message) error

// EventBus publishes and subscribes to topics.
type EventBus interface {
	Publish(ctx context.Context, topic string, msg *message.Message) error
	Subscribe(ctx context.Context, topic string, handler Handler) error
	Close() error
}

// eventBus implements EventBus on a watermill gochannel.
type eventBus struct {
	pubsub *gochannel.GoChannel
	logger *slog.Logger
	wg     sync.WaitGroup
	mu     sync.RWMutex
	closed bool
}

// NewEventBus creates an in-process bus. bufferSize bounds each subscriber's
// queue; zero means unbuffered.
func NewEventBus(bufferSize int64, logger *slog.Logger) EventBus {
	if logger == nil {
		logger = slog.Default()
	}
	pubsub := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: bufferSize,
	}, watermill.NewSlogLogger(logger))

	return &eventBus{pubsub: pubsub, logger: logger}
}

func (eb *eventBus) Publish(ctx context.Context, topic string, msg *message.Message) error {
	eb.mu.RLock()
	defer eb.mu.RUnlock()
	if eb.closed {
		return ErrClosed
	}

	if msg.UUID == "" {
		msg.UUID = watermill.NewUUID()
	}
	msg.SetContext(ctx)

	eb.logger.DebugContext(ctx, "Publishing message",
		slog.String("topic", topic),
		slog.String("message_id", msg.UUID),
	)

	if err := eb.pubsub.Publish(topic, msg); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", topic, err)
	}
	return nil
}

func (eb *eventBus) Subscribe(ctx context.Context, topic string, handler Handler) error {
	messages, err := eb.pubsub.Subscribe(ctx, topic)
	if err != nil {
		return fmt.Errorf("failed to subscribe to topic %s: %w", topic, err)
	}

	eb.logger.InfoContext(ctx, "Subscription started", slog.String("topic", topic))

	eb.wg.Add(1)
	go func() {
		defer eb.wg.Done()
		for msg := range messages {
			if err := handler(msg.Context(), msg); err != nil {
				eb.logger.ErrorContext(ctx, "Handler error",
					slog.String("topic", topic),
					slog.String("message_id", msg.UUID),
					slog.Any("error", err),
				)
				msg.Nack()
				continue
			}
			msg.Ack()
		}
	}()

	return nil
}

// Close stops the pub/sub and waits for subscriber goroutines to drain.
func (eb *eventBus) Close() error {
	eb.mu.Lock()
	if eb.closed {
		eb.mu.Unlock()
		return nil
	}
	eb.closed = true
	eb.mu.Unlock()

	err := eb.pubsub.Close()
	eb.wg.Wait()
	return err
}
