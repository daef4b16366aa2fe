package ocr

import (
	"sort"
	"sync"
)

// Trip records which page opened the breaker of a backend.
type Trip struct {
	Backend string
	Page    int
}

// Breaker is the set of backends considered unavailable for the rest of one
// document. The pipeline creates one per document and passes it into every
// Recognize call; it is safe for concurrent pages.
type Breaker struct {
	mu    sync.RWMutex
	open  map[string]struct{}
	trips []Trip
}

func NewBreaker() *Breaker {
	return &Breaker{open: make(map[string]struct{})}
}

// IsOpen reports whether backend must be skipped
func (b *Breaker) IsOpen(backend string) bool {
	if b == nil {
		return false
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.open[backend]
	return ok
}

// Trip opens the breaker for backend. It returns true only for the call that
// actually opened it.
func (b *Breaker) Trip(backend string, page int) bool {
	if b == nil {
		return false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.open[backend]; ok {
		return false
	}
	b.open[backend] = struct{}{}
	b.trips = append(b.trips, Trip{Backend: backend, Page: page})
	return true
}

// Reset closes every breaker and forgets the trips
func (b *Breaker) Reset() {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.open = make(map[string]struct{})
	b.trips = nil
}

// Open returns the backends currently open, sorted
func (b *Breaker) Open() []string {
	if b == nil {
		return nil
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	names := make([]string, 0, len(b.open))
	for name := range b.open {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Trips returns one entry per opened backend, ordered by page
func (b *Breaker) Trips() []Trip {
	if b == nil {
		return nil
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	trips := append([]Trip(nil), b.trips...)
	sort.SliceStable(trips, func(i, j int) bool {
		if trips[i].Page != trips[j].Page {
			return trips[i].Page < trips[j].Page
		}
		return trips[i].Backend < trips[j].Backend
	})
	return trips
}
