package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/media-vault/video-archive-go/internal/metrics"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// Channels the database triggers notify on. Channel names match the
// table names the triggers are attached to.
const (
	ChannelScheduledArchivals = "scheduled_archivals"
	ChannelTrackedCollections = "tracked_collections"
)

// Listener holds a dedicated Postgres connection subscribed to the
// change channels and forwards every notification to the Hub. LISTEN
// requires its own session, so the listener does not share the pool.
type Listener struct {
	connString       string
	channels         []string
	pollInterval     time.Duration
	reconnectBackoff time.Duration
	hub              *Hub
	logger           *zap.Logger
}

// NewListener creates a Listener for the standard change channels.
func NewListener(connString string, pollInterval, reconnectBackoff time.Duration, hub *Hub, logger *zap.Logger) *Listener {
	return &Listener{
		connString:       connString,
		channels:         []string{ChannelScheduledArchivals, ChannelTrackedCollections},
		pollInterval:     pollInterval,
		reconnectBackoff: reconnectBackoff,
		hub:              hub,
		logger:           logger,
	}
}

// Run listens until ctx is cancelled, reconnecting after connection
// failures. It always returns ctx.Err().
func (l *Listener) Run(ctx context.Context) error {
	for {
		if err := l.listen(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			l.logger.Warn("listener connection lost, reconnecting",
				zap.Duration("backoff", l.reconnectBackoff),
				zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(l.reconnectBackoff):
		}
	}
}

func (l *Listener) listen(ctx context.Context) error {
	conn, err := pgx.Connect(ctx, l.connString)
	if err != nil {
		return fmt.Errorf("connect for listen: %w", err)
	}
	defer conn.Close(context.Background())

	for _, ch := range l.channels {
		if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{ch}.Sanitize()); err != nil {
			return fmt.Errorf("listen on %s: %w", ch, err)
		}
	}

	l.logger.Info("listening for row changes", zap.Strings("channels", l.channels))

	for {
		waitCtx, cancel := context.WithTimeout(ctx, l.pollInterval)
		n, err := conn.WaitForNotification(waitCtx)
		cancel()

		if err != nil {
			// The poll window elapsing is not a failure.
			if waitCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
				continue
			}
			return err
		}

		l.forward(n.Channel, n.Payload)
	}
}

func (l *Listener) forward(channel, payload string) {
	var event ChangeEvent
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		l.logger.Error("malformed notification payload",
			zap.String("channel", channel),
			zap.Error(err))
		return
	}

	metrics.EventsDelivered.WithLabelValues(channel).Inc()
	l.hub.Broadcast(Envelope{Channel: channel, Data: event})
}
