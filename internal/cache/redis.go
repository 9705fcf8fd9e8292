package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/Domenick1991/legalinmo/config"
	"github.com/Domenick1991/legalinmo/internal/domain"
	"github.com/Domenick1991/legalinmo/internal/service/booking"
	"github.com/Domenick1991/legalinmo/internal/session"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type RedisCache struct {
	client      *redis.Client
	servicesTTL time.Duration
}

func NewRedisCache(cfg config.RedisConfig, servicesTTL time.Duration) *RedisCache {
	return NewRedisCacheFromClient(
		redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		servicesTTL,
	)
}

func NewRedisCacheFromClient(client *redis.Client, servicesTTL time.Duration) *RedisCache {
	return &RedisCache{client: client, servicesTTL: servicesTTL}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

func (c *RedisCache) SaveSession(ctx context.Context, s *session.Session, ttl time.Duration) error {
	return c.setJSON(ctx, sessionKey(s.ID), s, ttl)
}

func (c *RedisCache) GetSession(ctx context.Context, id string) (*session.Session, error) {
	var s session.Session
	found, err := c.getJSON(ctx, sessionKey(id), &s)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, session.ErrNotFound
	}
	return &s, nil
}

func (c *RedisCache) DeleteSession(ctx context.Context, id string) error {
	return c.client.Del(ctx, sessionKey(id)).Err()
}

func (c *RedisCache) SaveFlow(ctx context.Context, flow *booking.Flow, ttl time.Duration) error {
	return c.setJSON(ctx, flowKey(flow.ID), flow, ttl)
}

func (c *RedisCache) GetFlow(ctx context.Context, id string) (*booking.Flow, error) {
	var flow booking.Flow
	found, err := c.getJSON(ctx, flowKey(id), &flow)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, booking.ErrFlowNotFound
	}
	return &flow, nil
}

// releaseLockScript deletes the lock only while it still holds the caller's token.
var releaseLockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

func (c *RedisCache) AcquireFlowLock(ctx context.Context, id string, ttl time.Duration) (string, bool, error) {
	token := uuid.NewString()
	ok, err := c.client.SetNX(ctx, flowLockKey(id), token, ttl).Result()
	if err != nil || !ok {
		return "", false, err
	}
	return token, true, nil
}

// ReleaseFlowLock is a no-op when the lock expired and was taken by another holder.
func (c *RedisCache) ReleaseFlowLock(ctx context.Context, id, token string) error {
	return releaseLockScript.Run(ctx, c.client, []string{flowLockKey(id)}, token).Err()
}

// GetServices returns nil, nil on a cache miss.
func (c *RedisCache) GetServices(ctx context.Context) ([]domain.Service, error) {
	var services []domain.Service
	found, err := c.getJSON(ctx, servicesKey(), &services)
	if err != nil || !found {
		return nil, err
	}
	if services == nil {
		services = []domain.Service{}
	}
	return services, nil
}

func (c *RedisCache) SetServices(ctx context.Context, services []domain.Service) error {
	return c.setJSON(ctx, servicesKey(), services, c.servicesTTL)
}

func (c *RedisCache) InvalidateServices(ctx context.Context) error {
	return c.client.Del(ctx, servicesKey()).Err()
}

func (c *RedisCache) setJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, payload, ttl).Err()
}

func (c *RedisCache) getJSON(ctx context.Context, key string, dst any) (bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, err
	}
	return true, nil
}

func sessionKey(id string) string {
	return "session:" + id
}

func flowKey(id string) string {
	return "flow:" + id
}

func flowLockKey(id string) string {
	return "lock:flow:" + id
}

func servicesKey() string {
	return "cache:services"
}

var (
	_ session.Store         = (*RedisCache)(nil)
	_ booking.FlowStore     = (*RedisCache)(nil)
	_ booking.ServicesCache = (*RedisCache)(nil)
)
