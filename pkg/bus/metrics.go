package bus

import "sync"

type metrics struct {
	mu        sync.RWMutex
	published uint64
	delivered uint64
	dropped   uint64
	errors    uint64
}

func (m *metrics) incPublished() { m.add(&m.published) }
func (m *metrics) incDelivered() { m.add(&m.delivered) }
func (m *metrics) incDropped()   { m.add(&m.dropped) }
func (m *metrics) incErrors()    { m.add(&m.errors) }

func (m *metrics) add(counter *uint64) {
	m.mu.Lock()
	*counter++
	m.mu.Unlock()
}

func (m *metrics) snapshot() map[string]uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return map[string]uint64{
		"signals_published": m.published,
		"signals_delivered": m.delivered,
		"signals_dropped":   m.dropped,
		"errors":            m.errors,
	}
}
