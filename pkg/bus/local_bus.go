package bus

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"pkgbot/pkg/logger"
)

const publishTimeout = 5 * time.Second

// LocalBus is an in-process signal bus using a Go channel.
type LocalBus struct {
	log      *logger.Logger
	handlers map[string][]Handler // Message ID -> handlers
	mu       sync.RWMutex

	signals chan *Signal

	// Lifecycle
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	metrics metrics
}

// NewLocalBus creates a new local signal bus.
func NewLocalBus(log *logger.Logger, bufferSize int) *LocalBus {
	if bufferSize <= 0 {
		bufferSize = 100
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &LocalBus{
		log:      log,
		handlers: make(map[string][]Handler),
		signals:  make(chan *Signal, bufferSize),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start starts the dispatch loop.
func (b *LocalBus) Start() error {
	b.log.Info("Starting signal bus")

	b.wg.Add(1)
	go b.process()

	return nil
}

// Stop stops the bus and waits for the dispatch loop to exit.
// Signals still queued are discarded.
func (b *LocalBus) Stop() error {
	b.log.Info("Stopping signal bus")

	b.cancel()
	b.wg.Wait()

	b.log.Info("Signal bus stopped")
	return nil
}

// Subscribe registers a handler for a message.
func (b *LocalBus) Subscribe(messageID string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[messageID] = append(b.handlers[messageID], handler)
	b.log.Debug("Subscribed to message", zap.String("message_id", messageID))
}

// Unsubscribe removes all handlers for a message.
func (b *LocalBus) Unsubscribe(messageID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.handlers, messageID)
	b.log.Debug("Unsubscribed from message", zap.String("message_id", messageID))
}

// Publish queues a signal for dispatch.
func (b *LocalBus) Publish(sig *Signal) error {
	if sig == nil {
		return fmt.Errorf("signal cannot be nil")
	}
	if b.ctx.Err() != nil {
		return fmt.Errorf("bus is shutting down")
	}

	select {
	case b.signals <- sig:
		b.metrics.incPublished()
		return nil
	case <-b.ctx.Done():
		return fmt.Errorf("bus is shutting down")
	case <-time.After(publishTimeout):
		return fmt.Errorf("timeout publishing signal")
	}
}

// GetMetrics returns current bus metrics.
func (b *LocalBus) GetMetrics() map[string]uint64 {
	return b.metrics.snapshot()
}

func (b *LocalBus) process() {
	defer b.wg.Done()

	for {
		select {
		case sig := <-b.signals:
			dispatch(b.ctx, b.log, &b.metrics, b.handlersFor(sig.MessageID), sig)
		case <-b.ctx.Done():
			return
		}
	}
}

func (b *LocalBus) handlersFor(messageID string) []Handler {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return append([]Handler(nil), b.handlers[messageID]...)
}

// dispatch runs handlers for a signal. Signals for messages nobody awaits are dropped.
func dispatch(ctx context.Context, log *logger.Logger, m *metrics, handlers []Handler, sig *Signal) {
	if len(handlers) == 0 {
		m.incDropped()
		log.Debug("No subscriber for signal",
			zap.String("message_id", sig.MessageID),
			zap.String("user_id", sig.UserID))
		return
	}

	log.Debug("Dispatching signal",
		zap.String("message_id", sig.MessageID),
		zap.String("user_id", sig.UserID),
		zap.Int("index", sig.Index))

	for _, handler := range handlers {
		if err := handler(ctx, sig); err != nil {
			m.incErrors()
			log.Error("Signal handler error",
				zap.String("message_id", sig.MessageID),
				zap.Error(err))
			continue
		}
		m.incDelivered()
	}
}
