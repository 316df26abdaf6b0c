package node

type messageKey struct {
	id         uint64
	originator PeerID
}

// dedupCache records the (ID, originator) of every processed message.
//
// Entries are never expired, so the cache grows with the number of messages
// received until the node is reset.
//
// dedupCache is not thread safe. It is guarded by Node.mu.
type dedupCache struct {
	seen map[messageKey]struct{}
}

func newDedupCache() *dedupCache {
	return &dedupCache{
		seen: make(map[messageKey]struct{}),
	}
}

// Admit returns true and records the message if it hasn't been seen before,
// otherwise returns false.
func (c *dedupCache) Admit(id uint64, originator PeerID) bool {
	key := messageKey{id: id, originator: originator}
	if _, ok := c.seen[key]; ok {
		return false
	}
	c.seen[key] = struct{}{}
	return true
}

func (c *dedupCache) Len() int {
	return len(c.seen)
}

func (c *dedupCache) Clear() {
	clear(c.seen)
}
