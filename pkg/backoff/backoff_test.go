package backoff

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackoff_NextWait(t *testing.T) {
	b := New(0, time.Millisecond*100, time.Millisecond*500)

	expected := []time.Duration{
		time.Millisecond * 100,
		time.Millisecond * 200,
		time.Millisecond * 400,
		time.Millisecond * 500,
		time.Millisecond * 500,
	}
	for _, e := range expected {
		wait := b.nextWait()
		assert.GreaterOrEqual(t, wait, e)
		// Jitter adds at most 10%.
		assert.LessOrEqual(t, wait, e+e/10)
		// Track the unjittered backoff to keep the sequence deterministic.
		b.lastBackoff = e
	}
}

func TestBackoff_Retries(t *testing.T) {
	b := New(2, time.Millisecond, time.Millisecond)

	assert.True(t, b.Wait(context.Background()))
	assert.True(t, b.Wait(context.Background()))
	assert.False(t, b.Wait(context.Background()))

	b.Reset()
	assert.True(t, b.Wait(context.Background()))
}

func TestBackoff_Cancelled(t *testing.T) {
	b := New(0, time.Minute, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.False(t, b.Wait(ctx))
}
