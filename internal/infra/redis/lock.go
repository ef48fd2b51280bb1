package redis

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"bank-gateways-hub/internal/gateway"
)

// Locker guards payment creation per tracking code across instances. One
// SETNX attempt, no spinning: a held lock means a concurrent create is in
// flight and the caller must treat it as a duplicate.
type Locker struct {
	cli *redis.Client
}

var _ gateway.Locker = (*Locker)(nil)

func NewLocker(c *Client) *Locker {
	return &Locker{cli: c.cli}
}

var luaUnlock = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
else
	return 0
end`)

func (l *Locker) TryLock(ctx context.Context, key string, ttl time.Duration) (func(), bool, error) {
	token := uuid.NewString()
	ok, err := l.cli.SetNX(ctx, "paylock:"+key, token, ttl).Result()
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}
	release := func() {
		_, _ = luaUnlock.Run(context.Background(), l.cli, []string{"paylock:" + key}, token).Result()
	}
	return release, true, nil
}
