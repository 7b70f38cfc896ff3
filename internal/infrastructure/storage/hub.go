package storage

import (
	"sync"

	"aura-runtime/internal/application/port/output"
)

const subscriberBuffer = 16

// hub fans writes out to subscribers of a key. Slow subscribers lose the
// oldest pending change rather than blocking writers.
type hub struct {
	mu   sync.Mutex
	subs map[string]map[int]chan output.StorageChange
	seq  int
}

func newHub() *hub {
	return &hub{subs: make(map[string]map[int]chan output.StorageChange)}
}

func (h *hub) subscribe(key string) (<-chan output.StorageChange, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan output.StorageChange, subscriberBuffer)
	id := h.seq
	h.seq++
	if h.subs[key] == nil {
		h.subs[key] = make(map[int]chan output.StorageChange)
	}
	h.subs[key][id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if m, ok := h.subs[key]; ok {
				if c, ok := m[id]; ok {
					delete(m, id)
					close(c)
				}
			}
		})
	}
}

func (h *hub) publish(key string, value []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, ch := range h.subs[key] {
		change := output.StorageChange{Key: key, Value: append([]byte(nil), value...)}
		select {
		case ch <- change:
		default:
			// drop the oldest, keep the newest
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- change:
			default:
			}
		}
	}
}

func (h *hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for key, m := range h.subs {
		for id, ch := range m {
			close(ch)
			delete(m, id)
		}
		delete(h.subs, key)
	}
}
