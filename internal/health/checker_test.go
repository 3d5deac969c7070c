package health

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckReportsHealthyAndUnhealthy(t *testing.T) {
	c := NewChecker(time.Second)
	c.Register("ok", func(ctx context.Context) error { return nil })
	c.Register("bad", func(ctx context.Context) error { return errors.New("boom") })

	ok, err := c.Check(context.Background(), "ok")
	require.NoError(t, err)
	assert.Equal(t, StatusHealthy, ok.Status)

	bad, err := c.Check(context.Background(), "bad")
	require.NoError(t, err)
	assert.Equal(t, StatusUnhealthy, bad.Status)
	assert.Equal(t, "boom", bad.Message)
}

func TestCheckUnknownNameErrors(t *testing.T) {
	c := NewChecker(time.Second)
	_, err := c.Check(context.Background(), "missing")
	assert.Error(t, err)
}

func TestCheckResultIsCachedUntilTTLExpires(t *testing.T) {
	c := NewChecker(time.Second)
	c.SetCacheTTL(50 * time.Millisecond)

	calls := 0
	c.Register("counted", func(ctx context.Context) error {
		calls++
		return nil
	})

	_, err := c.Check(context.Background(), "counted")
	require.NoError(t, err)
	_, err = c.Check(context.Background(), "counted")
	require.NoError(t, err)
	assert.Equal(t, 1, calls, "second call within the TTL should reuse the cached result")

	time.Sleep(60 * time.Millisecond)
	_, err = c.Check(context.Background(), "counted")
	require.NoError(t, err)
	assert.Equal(t, 2, calls, "call after the TTL expires should re-run the check")
}

func TestUnregisterDropsCheckAndCache(t *testing.T) {
	c := NewChecker(time.Second)
	c.Register("temp", func(ctx context.Context) error { return nil })
	_, err := c.Check(context.Background(), "temp")
	require.NoError(t, err)

	c.Unregister("temp")
	_, err = c.Check(context.Background(), "temp")
	assert.Error(t, err)
}

func TestCheckAllRunsEveryCheckConcurrently(t *testing.T) {
	c := NewChecker(time.Second)
	c.Register("a", func(ctx context.Context) error { return nil })
	c.Register("b", func(ctx context.Context) error { return errors.New("fail") })

	results := c.CheckAll(context.Background())
	require.Len(t, results, 2)
	assert.Equal(t, StatusHealthy, results["a"].Status)
	assert.Equal(t, StatusUnhealthy, results["b"].Status)
}

func TestOverallStatusRollup(t *testing.T) {
	c := NewChecker(time.Second)
	assert.Equal(t, StatusHealthy, c.OverallStatus(context.Background()), "no checks registered means healthy")

	c.Register("a", func(ctx context.Context) error { return nil })
	assert.Equal(t, StatusHealthy, c.OverallStatus(context.Background()))

	c.Register("b", func(ctx context.Context) error { return errors.New("down") })
	assert.Equal(t, StatusUnhealthy, c.OverallStatus(context.Background()), "one unhealthy check makes the overall status unhealthy")
}

func TestRepositoryCheckRequiresPingFunc(t *testing.T) {
	check := RepositoryCheck(nil)
	assert.Error(t, check(context.Background()))

	pinged := false
	check = RepositoryCheck(func(ctx context.Context) error {
		pinged = true
		return nil
	})
	assert.NoError(t, check(context.Background()))
	assert.True(t, pinged)
}

func TestListenerCheckRequiresProbeFunc(t *testing.T) {
	check := ListenerCheck(nil)
	assert.Error(t, check(context.Background()))

	check = ListenerCheck(func(ctx context.Context) error { return nil })
	assert.NoError(t, check(context.Background()))
}
