package exam

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_PutGetDelete(t *testing.T) {
	r := NewRegistry()
	s := mustStart(t, abcQuestions(), Options{}, newClock())
	r.Put(s)

	got, err := r.Get("s-1")
	require.NoError(t, err)
	assert.Same(t, s, got)

	assert.True(t, r.Delete("s-1"))
	assert.False(t, r.Delete("s-1"))
	_, err = r.Get("s-1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRegistry_SweepUsesLastActivity(t *testing.T) {
	c := newClock()
	r := NewRegistry()
	s, err := Start("busy", "AWS", abcQuestions(), Options{}, c.Now)
	require.NoError(t, err)
	r.Put(s)

	c.Advance(90 * time.Minute)
	_, err = s.Next()
	require.NoError(t, err)
	c.Advance(90 * time.Minute)

	assert.Empty(t, r.Sweep(c.Now(), 2*time.Hour), "touched 90 minutes ago")
	c.Advance(time.Hour)
	assert.Equal(t, []string{"busy"}, r.Sweep(c.Now(), 2*time.Hour))
	assert.Equal(t, 0, r.Len())
}

func TestNewID_Unique(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := NewID()
		require.False(t, seen[id])
		seen[id] = true
	}
}
