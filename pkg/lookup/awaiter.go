package lookup

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"pkgbot/pkg/bus"
	"pkgbot/pkg/chat"
	"pkgbot/pkg/logger"
	"pkgbot/pkg/registry"
)

// DefaultSelectionTimeout bounds the wait for a requester's choice.
const DefaultSelectionTimeout = 60 * time.Second

// Selection is the outcome of waiting for a choice.
// A nil Candidate means the wait timed out.
type Selection struct {
	Candidate *registry.SearchResult
	Index     int
}

// TimedOut reports whether no valid choice arrived.
func (s Selection) TimedOut() bool {
	return s.Candidate == nil
}

// Awaiter watches a posted list for the requester's pick.
// Watch must be called before the selection affordances are offered so a
// pick made while they are still being added is not lost.
type Awaiter interface {
	Watch(ref chat.MessageRef, requesterID string, candidates []registry.SearchResult) Pending
}

// Pending is an armed selection. Close releases it and is safe to call more than once.
type Pending interface {
	Wait(ctx context.Context, timeout time.Duration) (Selection, error)
	Close()
}

// BusAwaiter resolves selections from signals published on the bus.
type BusAwaiter struct {
	bus bus.Bus
	log *logger.Logger
}

var _ Awaiter = (*BusAwaiter)(nil)

// NewBusAwaiter creates an awaiter listening on b.
func NewBusAwaiter(b bus.Bus, log *logger.Logger) *BusAwaiter {
	return &BusAwaiter{bus: b, log: log}
}

// Watch subscribes to signals for ref.MessageID and keeps the first one from
// requesterID with an index inside candidates. Signals from other users,
// out-of-range indexes and anything after the first accepted signal are ignored.
func (a *BusAwaiter) Watch(ref chat.MessageRef, requesterID string, candidates []registry.SearchResult) Pending {
	p := &busPending{
		awaiter:    a,
		messageID:  ref.MessageID,
		candidates: candidates,
		chosen:     make(chan int, 1),
	}
	a.bus.Subscribe(ref.MessageID, func(_ context.Context, sig *bus.Signal) error {
		if sig.UserID != requesterID {
			a.log.Debug("Ignoring selection from another user",
				zap.String("message_id", ref.MessageID),
				zap.String("user_id", sig.UserID))
			return nil
		}
		if sig.Index < 0 || sig.Index >= len(candidates) {
			a.log.Debug("Ignoring out-of-range selection",
				zap.String("message_id", ref.MessageID),
				zap.Int("index", sig.Index))
			return nil
		}
		p.accept.Do(func() { p.chosen <- sig.Index })
		return nil
	})
	return p
}

// AwaitSelection watches ref and blocks until a pick arrives or the wait expires.
func (a *BusAwaiter) AwaitSelection(
	ctx context.Context,
	ref chat.MessageRef,
	requesterID string,
	candidates []registry.SearchResult,
	timeout time.Duration,
) (Selection, error) {
	p := a.Watch(ref, requesterID, candidates)
	defer p.Close()
	return p.Wait(ctx, timeout)
}

type busPending struct {
	awaiter    *BusAwaiter
	messageID  string
	candidates []registry.SearchResult
	chosen     chan int
	accept     sync.Once
	release    sync.Once
}

// Wait returns the accepted pick. Expiry of timeout or ctx yields a timed-out
// Selection, not an error. A pick accepted before Wait was called is returned at once.
func (p *busPending) Wait(ctx context.Context, timeout time.Duration) (Selection, error) {
	defer p.Close()
	select {
	case idx := <-p.chosen:
		return p.selection(idx), nil
	default:
	}
	if timeout <= 0 {
		timeout = DefaultSelectionTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	select {
	case idx := <-p.chosen:
		return p.selection(idx), nil
	case <-ctx.Done():
		return Selection{}, nil
	}
}

func (p *busPending) selection(idx int) Selection {
	candidate := p.candidates[idx]
	return Selection{Candidate: &candidate, Index: idx}
}

func (p *busPending) Close() {
	p.release.Do(func() { p.awaiter.bus.Unsubscribe(p.messageID) })
}
