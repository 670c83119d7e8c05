package transport

import (
	"sync"

	"github.com/eyalzus12/FourInARowBattle-sub000/internal/server"
)

// idAllocator hands out peer ids from a bounded range. Ids are unique among
// currently-open connections and go back on the free list only after a
// connection fully closes.
type idAllocator struct {
	mu   sync.Mutex
	next server.PeerID
	max  server.PeerID
	free []server.PeerID
}

func newIDAllocator(max int) *idAllocator {
	return &idAllocator{next: 1, max: server.PeerID(max)}
}

func (a *idAllocator) get() (server.PeerID, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if n := len(a.free); n > 0 {
		id := a.free[n-1]
		a.free = a.free[:n-1]
		return id, true
	}
	if a.next > a.max {
		return 0, false
	}
	id := a.next
	a.next++
	return id, true
}

func (a *idAllocator) put(id server.PeerID) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.free = append(a.free, id)
}
