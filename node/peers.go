package node

import (
	"time"

	"github.com/google/btree"
)

type peerEntry struct {
	id        PeerID
	lastHeard time.Time
}

func lessPeerEntry(a, b peerEntry) bool {
	if !a.lastHeard.Equal(b.lastHeard) {
		return a.lastHeard.Before(b.lastHeard)
	}
	return a.id < b.id
}

// peerRegistry tracks when each known peer was last heard from.
//
// Entries are indexed by last heard time so eviction only visits stale
// peers.
//
// peerRegistry is not thread safe. It is guarded by Node.mu.
type peerRegistry struct {
	lastHeard map[PeerID]time.Time
	byAge     *btree.BTreeG[peerEntry]
}

func newPeerRegistry() *peerRegistry {
	return &peerRegistry{
		lastHeard: make(map[PeerID]time.Time),
		byAge:     btree.NewG(8, lessPeerEntry),
	}
}

// Touch records the peer was heard from at now, adding the peer if unknown.
func (r *peerRegistry) Touch(id PeerID, now time.Time) {
	if prev, ok := r.lastHeard[id]; ok {
		r.byAge.Delete(peerEntry{id: id, lastHeard: prev})
	}
	r.lastHeard[id] = now
	r.byAge.ReplaceOrInsert(peerEntry{id: id, lastHeard: now})
}

// EvictStale removes every peer last heard from more than threshold before
// now, and returns the removed peers.
func (r *peerRegistry) EvictStale(now time.Time, threshold time.Duration) []PeerID {
	cutoff := now.Add(-threshold)

	var stale []peerEntry
	r.byAge.Ascend(func(e peerEntry) bool {
		if !e.lastHeard.Before(cutoff) {
			return false
		}
		stale = append(stale, e)
		return true
	})

	evicted := make([]PeerID, 0, len(stale))
	for _, e := range stale {
		r.byAge.Delete(e)
		delete(r.lastHeard, e.id)
		evicted = append(evicted, e.id)
	}
	return evicted
}

func (r *peerRegistry) LastHeard(id PeerID) (time.Time, bool) {
	t, ok := r.lastHeard[id]
	return t, ok
}

// Snapshot returns the known peer IDs. The returned slice is owned by the
// caller so may be iterated while the registry is modified.
func (r *peerRegistry) Snapshot() []PeerID {
	ids := make([]PeerID, 0, len(r.lastHeard))
	for id := range r.lastHeard {
		ids = append(ids, id)
	}
	return ids
}

func (r *peerRegistry) Entries() map[PeerID]time.Time {
	entries := make(map[PeerID]time.Time, len(r.lastHeard))
	for id, t := range r.lastHeard {
		entries[id] = t
	}
	return entries
}

func (r *peerRegistry) Len() int {
	return len(r.lastHeard)
}

func (r *peerRegistry) Clear() {
	clear(r.lastHeard)
	r.byAge.Clear(false)
}
