package gateway

import (
	"container/list"
	"sync"
	"time"
)

// dedupCapacity bounds the fingerprint window size; platforms redeliver
// within seconds of the original send, never hours later, so a bounded
// recent window is sufficient and keeps memory flat under sustained
// traffic even when the time-based window below is configured generously.
const dedupCapacity = 1000

// defaultDedupWindow is how long a fingerprint is remembered when no
// explicit window is configured.
const defaultDedupWindow = 5 * time.Minute

type dedupEntry struct {
	fingerprint string
	seenAt      time.Time
}

// Deduplicator recognizes redelivered events by fingerprint. Platforms
// retry webhook deliveries that don't ack fast enough, so the same event can
// arrive more than once; entries are evicted once they fall outside the
// window or the capacity fills, whichever comes first.
type Deduplicator struct {
	mu       sync.Mutex
	order    *list.List
	index    map[string]*list.Element
	capacity int
	window   time.Duration
}

// NewDeduplicator creates a Deduplicator bounded to dedupCapacity entries
// and defaultDedupWindow.
func NewDeduplicator() *Deduplicator {
	return NewDeduplicatorWithWindow(defaultDedupWindow)
}

// NewDeduplicatorWithWindow creates a Deduplicator with an explicit expiry
// window, normally sourced from RetrievalConfig.DedupWindowSecs. window <= 0
// falls back to defaultDedupWindow.
func NewDeduplicatorWithWindow(window time.Duration) *Deduplicator {
	if window <= 0 {
		window = defaultDedupWindow
	}
	return &Deduplicator{
		order:    list.New(),
		index:    make(map[string]*list.Element),
		capacity: dedupCapacity,
		window:   window,
	}
}

// Seen records fingerprint and reports whether it was already present
// within the configured window.
func (d *Deduplicator) Seen(fingerprint string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := time.Now()
	d.evictExpired(now)

	if elem, ok := d.index[fingerprint]; ok {
		elem.Value.(*dedupEntry).seenAt = now
		d.order.MoveToBack(elem)
		return true
	}

	elem := d.order.PushBack(&dedupEntry{fingerprint: fingerprint, seenAt: now})
	d.index[fingerprint] = elem

	if d.order.Len() > d.capacity {
		oldest := d.order.Front()
		d.order.Remove(oldest)
		delete(d.index, oldest.Value.(*dedupEntry).fingerprint)
	}
	return false
}

// evictExpired drops entries older than the window, oldest first; list
// order tracks insertion/refresh order so the front is always the oldest.
func (d *Deduplicator) evictExpired(now time.Time) {
	for {
		front := d.order.Front()
		if front == nil {
			return
		}
		entry := front.Value.(*dedupEntry)
		if now.Sub(entry.seenAt) <= d.window {
			return
		}
		d.order.Remove(front)
		delete(d.index, entry.fingerprint)
	}
}
