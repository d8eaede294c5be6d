package loadercache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpapenbr/f1telemetry-service-go/pkg/utils/cache"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func TestLoadAndExpire(t *testing.T) {
	clk := &clock{t: time.Unix(0, 0)}
	calls := 0
	c := New(
		WithExpiration[int, string](time.Second),
		WithClock[int, string](clk.now),
		WithLoader[int, string](func(_ context.Context, k int) (string, error) {
			calls++
			return "v", nil
		}),
	)
	for range 3 {
		v, err := c.Get(t.Context(), 1)
		require.NoError(t, err)
		assert.Equal(t, "v", v)
	}
	assert.Equal(t, 1, calls)

	clk.t = clk.t.Add(time.Second)
	_, err := c.Get(t.Context(), 1)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)

	c.Invalidate(1)
	_, err = c.Get(t.Context(), 1)
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestErrorsAreNotCached(t *testing.T) {
	errLoad := errors.New("boom")
	calls := 0
	c := New(WithLoader[string, int](func(_ context.Context, k string) (int, error) {
		calls++
		return 0, errLoad
	}))
	_, err := c.Get(t.Context(), "a")
	assert.ErrorIs(t, err, errLoad)
	_, err = c.Get(t.Context(), "a")
	assert.ErrorIs(t, err, errLoad)
	assert.Equal(t, 2, calls)
}

func TestWithoutLoader(t *testing.T) {
	c := New[string, int]()
	_, err := c.Get(t.Context(), "a")
	assert.ErrorIs(t, err, cache.ErrCacheMiss)
}
