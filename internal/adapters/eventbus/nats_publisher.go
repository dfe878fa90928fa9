package eventbus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	natsgo "github.com/nats-io/nats.go"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/lcalzada-xor/wsentry/internal/core/domain"
	"github.com/lcalzada-xor/wsentry/internal/core/ports"
	"github.com/lcalzada-xor/wsentry/internal/telemetry"
)

// ErrClosed is returned when publishing after Close.
var ErrClosed = errors.New("publisher is closed")

// Config describes the bus connection.
type Config struct {
	URL string
	// Subject is the prefix of every published subject.
	Subject string
	// FailureThreshold consecutive publish failures open the breaker.
	FailureThreshold uint32
	// BreakerTimeout is how long the breaker stays open before probing again.
	BreakerTimeout time.Duration
}

// ClearedMessage is published when the monitor state is wiped.
type ClearedMessage struct {
	Timestamp time.Time `json:"timestamp"`
}

// Publisher forwards attack events to NATS as JSON, one message per event on
// "<subject>.attack.<category>". Publishing is guarded by a circuit breaker so
// an unreachable bus does not flood the logs.
type Publisher struct {
	mu      sync.RWMutex
	conn    *natsgo.Conn
	subject string
	breaker *gobreaker.CircuitBreaker[interface{}]
	closed  bool
}

var _ ports.MonitorObserver = (*Publisher)(nil)

// Connect dials the bus. Reconnection is handled by the client library.
func Connect(cfg Config) (*Publisher, error) {
	if cfg.Subject == "" {
		cfg.Subject = "wsentry"
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.BreakerTimeout <= 0 {
		cfg.BreakerTimeout = 30 * time.Second
	}

	conn, err := natsgo.Connect(cfg.URL,
		natsgo.Name("wsentry"),
		natsgo.MaxReconnects(-1),
		natsgo.ReconnectWait(2*time.Second),
		natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
			if err != nil {
				slog.Warn("Event bus disconnected", "error", err)
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			slog.Info("Event bus reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", cfg.URL, err)
	}

	return &Publisher{
		conn:    conn,
		subject: cfg.Subject,
		breaker: newBreaker(cfg),
	}, nil
}

func newBreaker(cfg Config) *gobreaker.CircuitBreaker[interface{}] {
	return gobreaker.NewCircuitBreaker[interface{}](gobreaker.Settings{
		Name:        "event-bus",
		MaxRequests: 1,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("Circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
		},
	})
}

// AttackSubject returns the subject an event of category is published on.
func (p *Publisher) AttackSubject(category domain.AttackCategory) string {
	return p.subject + ".attack." + strings.ToLower(string(category))
}

// ClearedSubject returns the subject of reset notifications.
func (p *Publisher) ClearedSubject() string {
	return p.subject + ".cleared"
}

// OnSnapshot implements ports.MonitorObserver.
func (p *Publisher) OnSnapshot(ctx context.Context, _ []domain.ChannelStats, events []domain.AttackEvent) {
	for _, ev := range events {
		if err := p.PublishEvent(ctx, ev); err != nil {
			slog.Debug("Event not forwarded", "id", ev.ID, "error", err)
		}
	}
}

// OnCleared implements ports.MonitorObserver.
func (p *Publisher) OnCleared(ctx context.Context) {
	if err := p.publish(ctx, p.ClearedSubject(), ClearedMessage{Timestamp: time.Now()}); err != nil {
		slog.Debug("Reset notice not forwarded", "error", err)
	}
}

// PublishEvent serializes and publishes one attack event.
func (p *Publisher) PublishEvent(ctx context.Context, ev domain.AttackEvent) error {
	return p.publish(ctx, p.AttackSubject(ev.Category), ev)
}

// publish does not honour ctx cancellation; observers outlive the request that triggered them.
func (p *Publisher) publish(_ context.Context, subject string, v interface{}) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrClosed
	}

	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("serialize %s: %w", subject, err)
	}

	_, err = p.breaker.Execute(func() (interface{}, error) {
		return nil, p.conn.Publish(subject, data)
	})
	if err != nil {
		telemetry.EventsForwarded.WithLabelValues("error").Inc()
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	telemetry.EventsForwarded.WithLabelValues("ok").Inc()
	return nil
}

// BreakerState reports the circuit breaker state for diagnostics.
func (p *Publisher) BreakerState() string {
	return p.breaker.State().String()
}

// Close flushes pending messages and closes the connection.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	return p.conn.Drain()
}
