package cache

import (
	"context"
	"encoding/base64"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

type Config struct {
	Addr     string
	Password string
	AuthTTL  time.Duration
}

// ValkeyClient caches basic-auth credential lookups so hot request paths do
// not hit the users table on every call. Optional: a nil client disables
// caching entirely.
type ValkeyClient struct {
	client  *redis.Client
	authTTL time.Duration
}

func NewValkeyClient(cfg Config) (*ValkeyClient, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           0,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
		DialTimeout:  5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Valkey: %w", err)
	}

	ttl := cfg.AuthTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	return &ValkeyClient{client: rdb, authTTL: ttl}, nil
}

func authKey(email, passwordHash string) string {
	auth := fmt.Sprintf("%s:%s", email, passwordHash)
	return "auth:" + base64.StdEncoding.EncodeToString([]byte(auth))
}

// GetUserAuth returns the cached (userID, role) for a credential pair.
func (v *ValkeyClient) GetUserAuth(ctx context.Context, email, passwordHash string) (int64, string, error) {
	vals, err := v.client.HGetAll(ctx, authKey(email, passwordHash)).Result()
	if err != nil {
		return 0, "", fmt.Errorf("failed to get cached auth: %w", err)
	}
	if len(vals) == 0 {
		return 0, "", redis.Nil
	}

	userID, err := strconv.ParseInt(vals["user_id"], 10, 64)
	if err != nil {
		return 0, "", fmt.Errorf("invalid cached user id: %w", err)
	}

	return userID, vals["role"], nil
}

// SetUserAuth caches a verified credential pair.
func (v *ValkeyClient) SetUserAuth(ctx context.Context, email, passwordHash string, userID int64, role string) error {
	key := authKey(email, passwordHash)
	if err := v.client.HSet(ctx, key, "user_id", userID, "role", role).Err(); err != nil {
		return fmt.Errorf("failed to cache auth: %w", err)
	}
	return v.client.Expire(ctx, key, v.authTTL).Err()
}

// InvalidateUserAuth drops a cached credential pair, used when the user is
// deleted.
func (v *ValkeyClient) InvalidateUserAuth(ctx context.Context, email, passwordHash string) error {
	return v.client.Del(ctx, authKey(email, passwordHash)).Err()
}

func (v *ValkeyClient) Close() error {
	return v.client.Close()
}
