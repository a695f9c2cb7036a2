package session

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Watcher subscribes to the auth-state channel. It is created on startup and
// stopped on shutdown; consumers read decoded events from Events().
type Watcher struct {
	rdb    *redis.Client
	logger *zap.Logger
	pubsub *redis.PubSub
	events chan StateEvent
}

func NewWatcher(rdb *redis.Client, logger *zap.Logger) *Watcher {
	return &Watcher{
		rdb:    rdb,
		logger: logger,
		events: make(chan StateEvent, 16),
	}
}

// Start opens the subscription and begins decoding events in the background.
func (w *Watcher) Start(ctx context.Context) error {
	w.pubsub = w.rdb.Subscribe(ctx, authChannel)
	// force the subscription before declaring ourselves started
	if _, err := w.pubsub.Receive(ctx); err != nil {
		return err
	}
	go w.loop()
	w.logger.Info("Auth state watcher started", zap.String("channel", authChannel))
	return nil
}

// Events returns the decoded auth-state stream. The channel closes when the
// watcher stops.
func (w *Watcher) Events() <-chan StateEvent {
	return w.events
}

// Stop closes the subscription and drains the loop.
func (w *Watcher) Stop() error {
	if w.pubsub == nil {
		return nil
	}
	return w.pubsub.Close()
}

func (w *Watcher) loop() {
	defer close(w.events)
	for msg := range w.pubsub.Channel() {
		var ev StateEvent
		if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
			w.logger.Warn("Dropping malformed auth state event", zap.Error(err))
			continue
		}
		w.logger.Info("Auth state changed",
			zap.String("event", ev.Event),
			zap.Int("user_id", ev.UserID),
		)
		select {
		case w.events <- ev:
		default:
			// a slow consumer must not stall the stream
		}
	}
}
