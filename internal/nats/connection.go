package natsutil

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/Black-And-White-Club/ctf-platform/app/shared/attr"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nkeys"
)

// Config holds the NATS connection settings.
type Config struct {
	URL  string
	Name string
	// NKeySeed, when set, authenticates the connection with the seed's key pair.
	NKeySeed string
}

// Connect dials NATS. The connection reconnects indefinitely; state changes
// are logged.
func Connect(cfg Config, logger *slog.Logger) (*nats.Conn, error) {
	if cfg.Name == "" {
		cfg.Name = "ctf-platform"
	}

	opts := []nats.Option{
		nats.Name(cfg.Name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("NATS disconnected", attr.Error(err))
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("NATS reconnected", attr.String("url", c.ConnectedUrl()))
		}),
	}

	if cfg.NKeySeed != "" {
		opt, err := nkeyOption(cfg.NKeySeed)
		if err != nil {
			return nil, err
		}
		opts = append(opts, opt)
	}

	conn, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	logger.Info("Connected to NATS", attr.String("url", conn.ConnectedUrl()))
	return conn, nil
}

func nkeyOption(seed string) (nats.Option, error) {
	kp, err := nkeys.FromSeed([]byte(seed))
	if err != nil {
		return nil, fmt.Errorf("failed to parse nkey seed: %w", err)
	}
	pub, err := kp.PublicKey()
	if err != nil {
		return nil, fmt.Errorf("failed to derive nkey public key: %w", err)
	}
	return nats.Nkey(pub, kp.Sign), nil
}
