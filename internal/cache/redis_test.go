package cache

import (
	"context"
	"testing"
	"time"

	"github.com/Domenick1991/legalinmo/internal/domain"
	"github.com/Domenick1991/legalinmo/internal/service/booking"
	"github.com/Domenick1991/legalinmo/internal/session"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisCacheFromClient(client, time.Minute), mr
}

func TestRedisCache_Sessions(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	_, err := c.GetSession(ctx, "nope")
	assert.ErrorIs(t, err, session.ErrNotFound)

	s := &session.Session{ID: "s1", Token: "tok", User: &domain.User{ID: "7", Name: "Admin"}}
	require.NoError(t, c.SaveSession(ctx, s, time.Hour))
	assert.Equal(t, time.Hour, mr.TTL("session:s1"))

	got, err := c.GetSession(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "tok", got.Token)
	assert.Equal(t, "Admin", got.User.Name)

	require.NoError(t, c.DeleteSession(ctx, "s1"))
	_, err = c.GetSession(ctx, "s1")
	assert.ErrorIs(t, err, session.ErrNotFound)
}

func TestRedisCache_SessionExpires(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.SaveSession(ctx, &session.Session{ID: "s1", Token: "tok"}, time.Minute))
	mr.FastForward(2 * time.Minute)

	_, err := c.GetSession(ctx, "s1")
	assert.ErrorIs(t, err, session.ErrNotFound)
}

func TestRedisCache_Flows(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	_, err := c.GetFlow(ctx, "f1")
	assert.ErrorIs(t, err, booking.ErrFlowNotFound)

	price := 500.0
	flow := booking.NewFlow("f1", "UTC", time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC))
	require.NoError(t, flow.ChooseService(domain.Service{ID: "12", Name: "Consultoría Legal", Price: &price}))
	require.NoError(t, c.SaveFlow(ctx, flow, time.Hour))

	got, err := c.GetFlow(ctx, "f1")
	require.NoError(t, err)
	assert.Equal(t, booking.StageAwaitingPayment, got.Stage())
}

func TestRedisCache_FlowLock(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	first, ok, err := c.AcquireFlowLock(ctx, "f1", 30*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NotEmpty(t, first)

	_, ok, err = c.AcquireFlowLock(ctx, "f1", 30*time.Second)
	require.NoError(t, err)
	assert.False(t, ok)

	mr.FastForward(31 * time.Second)
	second, ok, err := c.AcquireFlowLock(ctx, "f1", 30*time.Second)
	require.NoError(t, err)
	assert.True(t, ok, "lock expires with its ttl")
	assert.NotEqual(t, first, second)

	require.NoError(t, c.ReleaseFlowLock(ctx, "f1", first))
	_, ok, err = c.AcquireFlowLock(ctx, "f1", 30*time.Second)
	require.NoError(t, err)
	assert.False(t, ok, "an expired holder cannot release the current lock")

	require.NoError(t, c.ReleaseFlowLock(ctx, "f1", second))
	_, ok, err = c.AcquireFlowLock(ctx, "f1", 30*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisCache_Services(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	got, err := c.GetServices(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)

	services := []domain.Service{{ID: "12", Name: "Consultoría Legal"}}
	require.NoError(t, c.SetServices(ctx, services))
	assert.Equal(t, time.Minute, mr.TTL("cache:services"))

	got, err = c.GetServices(ctx)
	require.NoError(t, err)
	assert.Equal(t, services, got)

	require.NoError(t, c.SetServices(ctx, nil))
	got, err = c.GetServices(ctx)
	require.NoError(t, err)
	assert.NotNil(t, got, "a cached empty list is a hit")
	assert.Empty(t, got)

	require.NoError(t, c.InvalidateServices(ctx))
	got, err = c.GetServices(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)
}
