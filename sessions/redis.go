package sessions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/infinitybotlist/eureka/jsonimpl"
	"github.com/redis/go-redis/v9"
)

var _ Store = (*RedisStore)(nil)

const redisPrefix = "connectx:session:"

// RedisStore relies on key TTLs for expiry, so there is nothing to sweep.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// DialRedis parses the URL and pings the server
func DialRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return client, nil
}

func (r *RedisStore) Create(ctx context.Context, userID uuid.UUID, ttl time.Duration) (*Session, error) {
	token, err := newToken()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	sess := &Session{
		Token:     token,
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}

	b, err := jsonimpl.Marshal(sess)
	if err != nil {
		return nil, err
	}

	if err := r.client.Set(ctx, redisPrefix+token, b, ttl).Err(); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}

	return sess, nil
}

func (r *RedisStore) Get(ctx context.Context, token string) (*Session, error) {
	b, err := r.client.Get(ctx, redisPrefix+token).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var sess Session
	if err := jsonimpl.Unmarshal(b, &sess); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	sess.Token = token

	if sess.Expired(time.Now().UTC()) {
		return nil, nil
	}

	return &sess, nil
}

func (r *RedisStore) Delete(ctx context.Context, token string) error {
	return r.client.Del(ctx, redisPrefix+token).Err()
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}
