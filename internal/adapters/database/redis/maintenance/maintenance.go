package maintenance

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const key = "teesheet:maintenance"

// releaseScript deletes the lock only if it still belongs to the caller.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Storage keeps the maintenance window flag that is raised while the
// inventory table is being migrated.
type Storage struct {
	redis *redis.Client
}

func NewStorage(client *redis.Client) *Storage {
	return &Storage{
		redis: client,
	}
}

// Acquire raises the flag for owner. It returns false when someone else
// already holds it.
func (s *Storage) Acquire(ctx context.Context, owner string, ttl time.Duration) (bool, error) {
	return s.redis.SetNX(ctx, key, owner, ttl).Result()
}

func (s *Storage) Release(ctx context.Context, owner string) error {
	return releaseScript.Run(ctx, s.redis, []string{key}, owner).Err()
}

// Holder returns the owner of the flag, or "" when no maintenance is running.
func (s *Storage) Holder(ctx context.Context) (string, error) {
	owner, err := s.redis.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return owner, err
}

func (s *Storage) Active(ctx context.Context) (bool, error) {
	owner, err := s.Holder(ctx)
	return owner != "", err
}
