package id

import (
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerator_MonotonicWithinMillisecond(t *testing.T) {
	t.Parallel()

	fixed := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	g := newGenerator(func() time.Time { return fixed }, 42)

	ids := make([]string, 50)
	for i := range ids {
		ids[i] = g.New()
	}
	assert.True(t, sort.StringsAreSorted(ids))

	ts, err := Time(ids[0])
	require.NoError(t, err)
	assert.True(t, ts.Equal(fixed))
}

func TestNew_Unique(t *testing.T) {
	t.Parallel()

	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		s := New()
		assert.Len(t, s, 26)
		assert.False(t, seen[s])
		seen[s] = true
	}
}

func TestTime_Invalid(t *testing.T) {
	t.Parallel()

	_, err := Time("not-a-ulid")
	assert.Error(t, err)
}
