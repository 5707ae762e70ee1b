package geocoder

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

type fakeLimiter struct {
	allowed bool
	err     error
	calls   int
}

func (l *fakeLimiter) Allow(ctx context.Context, key string, limit int64, window time.Duration) (bool, int64, error) {
	l.calls++
	return l.allowed, 1, l.err
}

type staticClient struct {
	calls int
}

func (c *staticClient) Reverse(ctx context.Context, lat, lon float64) ([]Result, error) {
	c.calls++
	return []Result{{FormattedAddress: "somewhere"}}, nil
}

func TestRateLimited_Allowed(t *testing.T) {
	inner := &staticClient{}
	rl := &fakeLimiter{allowed: true}
	c := NewRateLimited(inner, rl, 60)

	res, err := c.Reverse(context.Background(), 1, 2)
	require.NoError(t, err)
	require.Len(t, res, 1)
	require.Equal(t, 1, rl.calls)
	require.Equal(t, 1, inner.calls)
}

func TestRateLimited_Exceeded(t *testing.T) {
	inner := &staticClient{}
	c := NewRateLimited(inner, &fakeLimiter{allowed: false}, 60)

	_, err := c.Reverse(context.Background(), 1, 2)
	require.ErrorIs(t, err, ErrRateLimited)
	require.Zero(t, inner.calls)
}

func TestRateLimited_LimiterErrorPassesThrough(t *testing.T) {
	inner := &staticClient{}
	c := NewRateLimited(inner, &fakeLimiter{err: errors.New("redis down")}, 60)

	res, err := c.Reverse(context.Background(), 1, 2)
	require.NoError(t, err)
	require.Len(t, res, 1)
	require.Equal(t, 1, inner.calls)
}

func TestRateLimited_DisabledWithoutBudget(t *testing.T) {
	inner := &staticClient{}
	rl := &fakeLimiter{allowed: false}
	c := NewRateLimited(inner, rl, 0)

	_, err := c.Reverse(context.Background(), 1, 2)
	require.NoError(t, err)
	require.Zero(t, rl.calls)
}
