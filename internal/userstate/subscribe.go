package userstate

import (
	"sync"

	"benefit-estimator/internal/metrics"
	"benefit-estimator/internal/model"
)

type subscription struct {
	ch   chan model.UserState
	once sync.Once
}

// Subscribe returns a channel that receives the session's snapshot after every
// persisted change. A slow reader only ever sees the latest snapshot. The
// returned cancel func closes the channel and is safe to call more than once.
func (m *Manager) Subscribe(sessionID string) (<-chan model.UserState, func()) {
	sub := &subscription{ch: make(chan model.UserState, 1)}

	m.subsMu.Lock()
	set, ok := m.subs[sessionID]
	if !ok {
		set = make(map[*subscription]struct{})
		m.subs[sessionID] = set
	}
	set[sub] = struct{}{}
	m.subsMu.Unlock()
	metrics.Subscribers.Inc()

	cancel := func() {
		sub.once.Do(func() {
			m.subsMu.Lock()
			delete(m.subs[sessionID], sub)
			if len(m.subs[sessionID]) == 0 {
				delete(m.subs, sessionID)
			}
			close(sub.ch)
			m.subsMu.Unlock()
			metrics.Subscribers.Dec()
		})
	}
	return sub.ch, cancel
}

func (m *Manager) publish(sessionID string, state model.UserState) {
	m.subsMu.Lock()
	defer m.subsMu.Unlock()
	for sub := range m.subs[sessionID] {
		select {
		case sub.ch <- state:
		default:
			// Replace the undelivered snapshot with the newer one.
			select {
			case <-sub.ch:
			default:
			}
			select {
			case sub.ch <- state:
			default:
			}
		}
	}
}
