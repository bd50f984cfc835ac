// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sharkteam Contributors

package session

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/samber/oops"
)

const scanBatch = 256

// RedisRegistry stores sessions in Redis so several gateway processes can
// share them. Keys are <prefix>session:<token hash> holding the user ID, with
// the session TTL as the key expiry.
type RedisRegistry struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewRedisRegistry creates a registry over client.
func NewRedisRegistry(client redis.UniversalClient, prefix string, ttl time.Duration) (*RedisRegistry, error) {
	if client == nil {
		return nil, oops.Code("SESSION_CONFIG_INVALID").Errorf("redis client is required")
	}
	return &RedisRegistry{client: client, prefix: prefix, ttl: ttl}, nil
}

// Key returns the redis key for a token hash.
func (r *RedisRegistry) Key(tokenHash string) string {
	return r.prefix + "session:" + tokenHash
}

// Ping checks that redis answers.
func (r *RedisRegistry) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return oops.Code("SESSION_STORE_FAILED").With("operation", "ping").Wrap(err)
	}
	return nil
}

// Create issues a token bound to userID.
func (r *RedisRegistry) Create(ctx context.Context, userID int64) (string, *Session, error) {
	token, s, err := newSession(userID, r.ttl, time.Now())
	if err != nil {
		return "", nil, err
	}
	if err := r.client.Set(ctx, r.Key(s.TokenHash), strconv.FormatInt(userID, 10), r.ttl).Err(); err != nil {
		return "", nil, oops.Code("SESSION_STORE_FAILED").
			With("operation", "set").
			With("user_id", userID).
			Wrap(err)
	}
	return token, s, nil
}

// Resolve returns the user bound to token.
func (r *RedisRegistry) Resolve(ctx context.Context, token string) (int64, error) {
	if token == "" {
		return 0, invalid("empty")
	}
	val, err := r.client.Get(ctx, r.Key(HashToken(token))).Result()
	if errors.Is(err, redis.Nil) {
		return 0, invalid("unknown")
	}
	if err != nil {
		return 0, oops.Code("SESSION_STORE_FAILED").With("operation", "get").Wrap(err)
	}
	userID, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, oops.Code("SESSION_STORE_FAILED").With("operation", "parse").With("value", val).Wrap(err)
	}
	return userID, nil
}

// Invalidate deletes the binding for token.
func (r *RedisRegistry) Invalidate(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := r.client.Del(ctx, r.Key(HashToken(token))).Err(); err != nil {
		return oops.Code("SESSION_STORE_FAILED").With("operation", "del").Wrap(err)
	}
	return nil
}

// Reset deletes every session key under the prefix. A cluster client is
// scanned master by master, since SCAN only walks the node it reaches.
func (r *RedisRegistry) Reset(ctx context.Context) error {
	cluster, ok := r.client.(*redis.ClusterClient)
	if !ok {
		return r.resetNode(ctx, r.client)
	}
	err := cluster.ForEachMaster(ctx, func(ctx context.Context, node *redis.Client) error {
		return r.resetNode(ctx, node)
	})
	if err != nil {
		if _, isOops := oops.AsOops(err); isOops {
			return err
		}
		return oops.Code("SESSION_STORE_FAILED").With("operation", "for each master").Wrap(err)
	}
	return nil
}

// resetNode scans one node. Keys are deleted one per command because a
// cluster node rejects multi-key DEL across hash slots.
func (r *RedisRegistry) resetNode(ctx context.Context, node redis.Cmdable) error {
	var cursor uint64
	for {
		keys, next, err := node.Scan(ctx, cursor, r.prefix+"session:*", scanBatch).Result()
		if err != nil {
			return oops.Code("SESSION_STORE_FAILED").With("operation", "scan").Wrap(err)
		}
		if len(keys) > 0 {
			_, err := node.Pipelined(ctx, func(p redis.Pipeliner) error {
				for _, key := range keys {
					p.Del(ctx, key)
				}
				return nil
			})
			if err != nil {
				return oops.Code("SESSION_STORE_FAILED").With("operation", "del").Wrap(err)
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}
