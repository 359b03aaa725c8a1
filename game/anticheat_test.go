package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClickGate(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("first click is admitted", func(t *testing.T) {
		g := NewClickGate()
		assert.True(t, g.Admit("p1", t0))
	})

	t.Run("sub-millisecond second click is rejected", func(t *testing.T) {
		g := NewClickGate()
		assert.True(t, g.Admit("p1", t0))
		assert.False(t, g.Admit("p1", t0.Add(999*time.Microsecond)))
		assert.False(t, g.Admit("p1", t0))
	})

	t.Run("one millisecond apart is admitted", func(t *testing.T) {
		g := NewClickGate()
		assert.True(t, g.Admit("p1", t0))
		assert.True(t, g.Admit("p1", t0.Add(time.Millisecond)))
		assert.True(t, g.Admit("p1", t0.Add(5*time.Millisecond)))
	})

	t.Run("rejected click keeps the old baseline", func(t *testing.T) {
		g := NewClickGate()
		assert.True(t, g.Admit("p1", t0))
		assert.False(t, g.Admit("p1", t0.Add(500*time.Microsecond)))
		// 1ms after the admitted click, not after the rejected one
		assert.True(t, g.Admit("p1", t0.Add(time.Millisecond)))
	})

	t.Run("players are tracked independently", func(t *testing.T) {
		g := NewClickGate()
		assert.True(t, g.Admit("p1", t0))
		assert.True(t, g.Admit("p2", t0))
	})

	t.Run("forget resets the baseline", func(t *testing.T) {
		g := NewClickGate()
		assert.True(t, g.Admit("p1", t0))
		g.Forget("p1")
		assert.True(t, g.Admit("p1", t0))
	})
}
