package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"pkgbot/pkg/logger"
)

const defaultRedisPrefix = "pkgbot:signals:"

// RedisBus shares signals between gateway replicas over Redis pub/sub.
// Every replica receives every signal and dispatches to its own subscribers.
type RedisBus struct {
	log    *logger.Logger
	client *redis.Client
	prefix string

	handlers map[string][]Handler // Message ID -> handlers
	mu       sync.RWMutex

	// Lifecycle
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	pubsub *redis.PubSub

	metrics metrics
}

// RedisBusConfig configures the Redis bus.
type RedisBusConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// NewRedisBus connects to Redis and creates a signal bus.
func NewRedisBus(log *logger.Logger, cfg *RedisBusConfig) (*RedisBus, error) {
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = defaultRedisPrefix
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connecting to Redis: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	b := &RedisBus{
		log:      log,
		client:   client,
		prefix:   prefix,
		handlers: make(map[string][]Handler),
		ctx:      ctx,
		cancel:   cancel,
	}

	log.Info("Redis signal bus initialized",
		zap.String("addr", cfg.Addr),
		zap.Int("db", cfg.DB),
		zap.String("prefix", prefix))

	return b, nil
}

// Start subscribes to every signal channel under the prefix.
func (b *RedisBus) Start() error {
	b.log.Info("Starting Redis signal bus")

	b.pubsub = b.client.PSubscribe(b.ctx, b.prefix+"*")
	if _, err := b.pubsub.Receive(b.ctx); err != nil {
		return fmt.Errorf("subscribing to %s*: %w", b.prefix, err)
	}

	b.wg.Add(1)
	go b.process()

	return nil
}

// Stop closes the subscription and the client.
func (b *RedisBus) Stop() error {
	b.log.Info("Stopping Redis signal bus")

	b.cancel()
	if b.pubsub != nil {
		_ = b.pubsub.Close()
	}
	b.wg.Wait()

	if err := b.client.Close(); err != nil {
		return fmt.Errorf("closing Redis client: %w", err)
	}

	b.log.Info("Redis signal bus stopped")
	return nil
}

// Subscribe registers a handler for a message.
func (b *RedisBus) Subscribe(messageID string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[messageID] = append(b.handlers[messageID], handler)
	b.log.Debug("Subscribed to message", zap.String("message_id", messageID))
}

// Unsubscribe removes all handlers for a message.
func (b *RedisBus) Unsubscribe(messageID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.handlers, messageID)
	b.log.Debug("Unsubscribed from message", zap.String("message_id", messageID))
}

// Publish sends a signal to every replica.
func (b *RedisBus) Publish(sig *Signal) error {
	if sig == nil {
		return fmt.Errorf("signal cannot be nil")
	}

	data, err := json.Marshal(sig)
	if err != nil {
		return fmt.Errorf("marshaling signal: %w", err)
	}

	if err := b.client.Publish(b.ctx, channelName(b.prefix, sig.MessageID), data).Err(); err != nil {
		return fmt.Errorf("publishing to Redis: %w", err)
	}

	b.metrics.incPublished()
	return nil
}

// GetMetrics returns current bus metrics.
func (b *RedisBus) GetMetrics() map[string]uint64 {
	return b.metrics.snapshot()
}

func (b *RedisBus) process() {
	defer b.wg.Done()

	ch := b.pubsub.Channel()

	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}
			b.handleRedisMessage(msg)

		case <-b.ctx.Done():
			return
		}
	}
}

func (b *RedisBus) handleRedisMessage(msg *redis.Message) {
	sig, err := decodeSignal(b.prefix, msg.Channel, msg.Payload)
	if err != nil {
		b.metrics.incErrors()
		b.log.Warn("Discarding malformed signal",
			zap.String("channel", msg.Channel),
			zap.Error(err))
		return
	}

	b.mu.RLock()
	handlers := append([]Handler(nil), b.handlers[sig.MessageID]...)
	b.mu.RUnlock()

	dispatch(b.ctx, b.log, &b.metrics, handlers, sig)
}

func channelName(prefix, messageID string) string {
	return prefix + messageID
}

// decodeSignal parses a pub/sub payload and checks it against its channel name.
func decodeSignal(prefix, channel, payload string) (*Signal, error) {
	messageID, ok := strings.CutPrefix(channel, prefix)
	if !ok || messageID == "" {
		return nil, fmt.Errorf("unexpected channel %q", channel)
	}

	var sig Signal
	if err := json.Unmarshal([]byte(payload), &sig); err != nil {
		return nil, fmt.Errorf("unmarshaling signal: %w", err)
	}
	if sig.MessageID != messageID {
		return nil, fmt.Errorf("signal for %q published on %q", sig.MessageID, channel)
	}
	return &sig, nil
}
