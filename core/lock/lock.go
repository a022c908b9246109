package lock

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrNotHeld is returned when releasing a lock owned by someone else or already expired.
var ErrNotHeld = errors.New("lock: not held")

// Locker guards a critical section across processes.
type Locker interface {
	// TryAcquire returns false without blocking when another holder owns the lock.
	TryAcquire(ctx context.Context) (bool, error)
	// Release gives the lock up.
	Release(ctx context.Context) error
}

// Config holds Redis connection settings for the run lock.
type Config struct {
	// Addr is the Redis address; empty disables the distributed lock.
	Addr string `mapstructure:"addr" default:""`
	// Password is the Redis password.
	Password string `mapstructure:"password" default:""`
	// DB is the Redis database index.
	DB int `mapstructure:"db" default:"0"`
	// Key is the lock key.
	Key string `mapstructure:"lock_key" default:"guildsync:run"`
	// TTLSeconds bounds how long a crashed holder can keep the lock.
	TTLSeconds int `mapstructure:"lock_ttl_seconds" default:"7200"`
}

// Enabled reports whether a Redis address is configured.
func (c Config) Enabled() bool {
	return c.Addr != ""
}

// releaseScript deletes the key only when it still carries our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker is a single-instance Redis lock using SET NX with a TTL.
type RedisLocker struct {
	client *redis.Client
	key    string
	ttl    time.Duration
	token  string
}

// NewRedisLocker creates a locker on an existing client.
func NewRedisLocker(client *redis.Client, key string, ttl time.Duration) *RedisLocker {
	return &RedisLocker{client: client, key: key, ttl: ttl}
}

// NewRedisClient connects to Redis and verifies it with a ping.
func NewRedisClient(ctx context.Context, cfg Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

// TryAcquire sets the key if absent.
func (l *RedisLocker) TryAcquire(ctx context.Context) (bool, error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, l.key, token, l.ttl).Result()
	if err != nil {
		return false, err
	}
	if ok {
		l.token = token
	}
	return ok, nil
}

// Release deletes the key if this locker still owns it.
func (l *RedisLocker) Release(ctx context.Context) error {
	if l.token == "" {
		return ErrNotHeld
	}
	n, err := releaseScript.Run(ctx, l.client, []string{l.key}, l.token).Int()
	l.token = ""
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotHeld
	}
	return nil
}
