package channels

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"pkgbot/pkg/logger"
)

// stopTimeout bounds a single channel's disconnect.
const stopTimeout = 30 * time.Second

// State is the connection state of a managed channel.
type State string

const (
	// StateIdle means the channel is registered but not started, usually because it is disabled.
	StateIdle State = "idle"
	// StateConnecting means Start is in progress.
	StateConnecting State = "connecting"
	// StateConnected means the channel is serving commands.
	StateConnected State = "connected"
	// StateFailed means the last Start returned an error.
	StateFailed State = "failed"
)

// Status describes one channel for the status API and gateway logs.
type Status struct {
	ID      string    `json:"id"`
	Name    string    `json:"name"`
	Enabled bool      `json:"enabled"`
	State   State     `json:"state"`
	Since   time.Time `json:"since"`
	Error   string    `json:"error,omitempty"`
}

type entry struct {
	channel Channel
	state   State
	since   time.Time
	err     error
}

// Manager owns the chat channels lookups are served on. It connects them,
// swaps them on config reload and tracks their connection state.
type Manager struct {
	log     *logger.Logger
	entries map[string]*entry
	mu      sync.RWMutex
	now     func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewManager creates an empty channel manager.
func NewManager(log *logger.Logger) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		log:     log,
		entries: make(map[string]*entry),
		now:     time.Now,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Register adds a channel. IDs must be unique.
func (m *Manager) Register(channel Channel) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := channel.ID()
	if _, exists := m.entries[id]; exists {
		return fmt.Errorf("channel %s already registered", id)
	}
	m.entries[id] = &entry{channel: channel, state: StateIdle, since: m.now()}
	m.log.Info("Registered channel", zap.String("id", id), zap.String("name", channel.Name()))
	return nil
}

// Start connects every enabled channel in the background.
func (m *Manager) Start() error {
	m.mu.RLock()
	var enabled []Channel
	for _, e := range m.entries {
		if e.channel.IsEnabled() {
			enabled = append(enabled, e.channel)
		}
	}
	m.mu.RUnlock()

	if len(enabled) == 0 {
		m.log.Warn("No channels enabled, lookups can only run from the CLI")
		return nil
	}
	for _, ch := range enabled {
		m.launch(ch)
	}
	m.log.Info("Connecting channels", zap.Int("count", len(enabled)))
	return nil
}

// launch starts ch and records the resulting state, unless ch was replaced meanwhile.
func (m *Manager) launch(ch Channel) {
	m.setState(ch, StateConnecting, nil)

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		if err := ch.Start(m.ctx); err != nil {
			m.log.Error("Channel failed to connect", zap.String("channel", ch.ID()), zap.Error(err))
			m.setState(ch, StateFailed, err)
			return
		}
		m.setState(ch, StateConnected, nil)
	}()
}

func (m *Manager) setState(ch Channel, state State, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[ch.ID()]
	if !ok || e.channel != ch {
		return
	}
	e.state, e.err, e.since = state, err, m.now()
}

// Stop disconnects every channel and waits for pending starts.
func (m *Manager) Stop() error {
	m.cancel()

	m.mu.RLock()
	all := make([]Channel, 0, len(m.entries))
	for _, e := range m.entries {
		all = append(all, e.channel)
	}
	m.mu.RUnlock()

	for _, ch := range all {
		m.disconnect(ch)
	}
	m.wg.Wait()

	m.log.Info("Channels stopped")
	return nil
}

func (m *Manager) disconnect(ch Channel) {
	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()

	if err := ch.Stop(ctx); err != nil {
		m.log.Error("Error stopping channel", zap.String("channel", ch.ID()), zap.Error(err))
	}
	m.setState(ch, StateIdle, nil)
}

// Remove disconnects and forgets a channel. Unknown IDs are ignored.
func (m *Manager) Remove(channelID string) error {
	m.mu.Lock()
	e, exists := m.entries[channelID]
	delete(m.entries, channelID)
	m.mu.Unlock()
	if !exists {
		return nil
	}

	m.disconnect(e.channel)
	m.log.Info("Removed channel", zap.String("id", channelID))
	return nil
}

// Replace swaps the channel registered under channel.ID() for channel and
// connects it when enabled. Lookups running on the old channel are cancelled.
func (m *Manager) Replace(channel Channel) error {
	if channel == nil {
		return fmt.Errorf("channel cannot be nil")
	}
	id := channel.ID()

	m.mu.Lock()
	old, exists := m.entries[id]
	m.entries[id] = &entry{channel: channel, state: StateIdle, since: m.now()}
	m.mu.Unlock()

	if exists {
		m.disconnect(old.channel)
	}
	m.log.Info("Replaced channel", zap.String("id", id), zap.Bool("enabled", channel.IsEnabled()))

	if channel.IsEnabled() {
		m.launch(channel)
	}
	return nil
}

// Channel returns the channel registered under id.
func (m *Manager) Channel(id string) (Channel, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.entries[id]
	if !ok {
		return nil, false
	}
	return e.channel, true
}

// Snapshot reports every registered channel, ordered by ID.
func (m *Manager) Snapshot() []Status {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Status, 0, len(m.entries))
	for id, e := range m.entries {
		st := Status{
			ID:      id,
			Name:    e.channel.Name(),
			Enabled: e.channel.IsEnabled(),
			State:   e.state,
			Since:   e.since,
		}
		if e.err != nil {
			st.Error = e.err.Error()
		}
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
