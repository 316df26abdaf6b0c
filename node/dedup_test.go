package node

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupCache(t *testing.T) {
	c := newDedupCache()

	assert.True(t, c.Admit(7, 5001))
	assert.False(t, c.Admit(7, 5001))

	// The same ID from a different originator is a different message.
	assert.True(t, c.Admit(7, 5002))
	assert.True(t, c.Admit(8, 5001))
	assert.Equal(t, 3, c.Len())

	c.Clear()
	assert.Equal(t, 0, c.Len())
	assert.True(t, c.Admit(7, 5001))
}
