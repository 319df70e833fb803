package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nkeys"
)

// NATSPublisher publishes checkout events to NATS JetStream.
type NATSPublisher struct {
	conn   *nats.Conn
	logger hclog.Logger
	prefix string // e.g. "cstyle" -> "cstyle.checkout.upgraded"
}

// NATSOptions configure a NATSPublisher.
type NATSOptions struct {
	Servers  string
	NKeySeed string
	Prefix   string
}

// nkeyOption builds the NKey authenticator from a seed.
func nkeyOption(seed string) (nats.Option, error) {
	kp, err := nkeys.FromSeed([]byte(seed))
	if err != nil {
		return nil, fmt.Errorf("failed to parse NKey seed: %w", err)
	}

	pub, err := kp.PublicKey()
	if err != nil {
		return nil, fmt.Errorf("failed to get public key: %w", err)
	}

	return nats.Nkey(pub, func(nonce []byte) ([]byte, error) {
		sig, err := kp.Sign(nonce)
		if err != nil {
			return nil, fmt.Errorf("failed to sign nonce: %w", err)
		}
		return sig, nil
	}), nil
}

// NewNATSPublisher connects to NATS. An empty NKeySeed connects without
// authentication.
func NewNATSPublisher(opts NATSOptions, logger hclog.Logger) (*NATSPublisher, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	if opts.Servers == "" {
		return nil, fmt.Errorf("no NATS servers configured")
	}

	natsOpts := []nats.Option{
		nats.Name("cstyle"),
		nats.MaxReconnects(5),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logger.Warn("NATS disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("NATS reconnected", "url", nc.ConnectedUrl())
		}),
	}
	if opts.NKeySeed != "" {
		opt, err := nkeyOption(opts.NKeySeed)
		if err != nil {
			return nil, err
		}
		natsOpts = append(natsOpts, opt)
	}

	nc, err := nats.Connect(opts.Servers, natsOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	logger.Debug("connected to NATS", "servers", opts.Servers, "prefix", opts.Prefix)

	return &NATSPublisher{
		conn:   nc,
		logger: logger,
		prefix: opts.Prefix,
	}, nil
}

// Subject returns the full subject an event of kind k is published on.
func Subject(prefix string, k Kind) string {
	if prefix == "" {
		return k.Subject()
	}
	return prefix + "." + k.Subject()
}

// Publish sends event to JetStream and flushes the connection.
func (p *NATSPublisher) Publish(event CheckoutEvent) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	js, err := p.conn.JetStream()
	if err != nil {
		return fmt.Errorf("failed to get JetStream context: %w", err)
	}

	subject := Subject(p.prefix, event.Kind)
	if _, err := js.Publish(subject, data); err != nil {
		p.logger.Error("failed to publish event", "subject", subject, "error", err)
		return fmt.Errorf("failed to publish to %s: %w", subject, err)
	}

	// Published to JetStream already; a flush failure is only worth a warning.
	if err := p.conn.Flush(); err != nil {
		p.logger.Warn("failed to flush NATS connection", "subject", subject, "error", err)
	}

	p.logger.Debug("published event", "subject", subject)
	return nil
}

// Close drains and closes the connection.
func (p *NATSPublisher) Close() error {
	if p.conn != nil {
		p.conn.Drain()
		p.conn.Close()
	}
	return nil
}
