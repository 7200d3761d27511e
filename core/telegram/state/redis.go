package state

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisOptions configures the Redis session mirror.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// RedisMirror stores one JSON document per non-idle session.
type RedisMirror struct {
	client *redis.Client
	prefix string
}

// NewRedisMirror connects to Redis and verifies the connection.
func NewRedisMirror(ctx context.Context, opts RedisOptions) (*RedisMirror, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		PoolSize:     10,
		MinIdleConns: 2,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewRedisMirrorFromClient(rdb, opts.Prefix), nil
}

// NewRedisMirrorFromClient wraps an existing client.
func NewRedisMirrorFromClient(client *redis.Client, prefix string) *RedisMirror {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "quotebot"
	}
	return &RedisMirror{client: client, prefix: prefix}
}

func (r *RedisMirror) key(userID int64) string {
	return r.prefix + ":session:" + strconv.FormatInt(userID, 10)
}

func (r *RedisMirror) pattern() string {
	return r.prefix + ":session:*"
}

// Save writes the session without expiry.
func (r *RedisMirror) Save(ctx context.Context, s Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, r.key(s.UserID), data, 0).Err()
}

// Delete removes the mirrored session.
func (r *RedisMirror) Delete(ctx context.Context, userID int64) error {
	return r.client.Del(ctx, r.key(userID)).Err()
}

// LoadAll scans every mirrored session. Undecodable documents are skipped.
func (r *RedisMirror) LoadAll(ctx context.Context) ([]Session, error) {
	var out []Session
	iter := r.client.Scan(ctx, 0, r.pattern(), 100).Iterator()
	for iter.Next(ctx) {
		data, err := r.client.Get(ctx, iter.Val()).Bytes()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			return nil, err
		}
		var s Session
		if err := json.Unmarshal(data, &s); err != nil {
			continue
		}
		out = append(out, s)
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Close releases the client.
func (r *RedisMirror) Close() error {
	return r.client.Close()
}
