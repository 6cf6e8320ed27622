package channel

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mesh-intelligence/slate/pkg/types"
)

// keyPrefix namespaces slate presence keys in a shared redis instance.
const keyPrefix = "slate:presence:"

// Redis is the cross-process channel: one redis key per session, JSON body,
// expiring on its own so crashed sessions cannot pollute the keyspace
// forever. The TTL is store-side hygiene; liveness filtering stays a reader
// concern.
type Redis struct {
	client *redis.Client
	appID  string
	ttl    time.Duration
}

// NewRedis connects to the given redis URL and verifies the connection with
// a ping. Session records expire after ttl (zero means ten minutes).
func NewRedis(ctx context.Context, redisURL, appID string, ttl time.Duration) (*Redis, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Redis{client: client, appID: appID, ttl: ttl}, nil
}

// key returns the redis key for one session.
func (r *Redis) key(sessionID string) string {
	return keyPrefix + r.appID + ":" + sessionID
}

// Publish upserts the session record and refreshes its expiry.
func (r *Redis) Publish(ctx context.Context, session types.Session) error {
	body, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := r.client.Set(ctx, r.key(session.ID), body, r.ttl).Err(); err != nil {
		return fmt.Errorf("publish session: %w", err)
	}
	return nil
}

// ReadAll scans the application's session keys and fetches each record.
// Records deleted between scan and fetch are skipped, as are bodies that no
// longer parse; a stale snapshot is acceptable, a failed read is not.
func (r *Redis) ReadAll(ctx context.Context) ([]types.Session, error) {
	var sessions []types.Session

	iter := r.client.Scan(ctx, 0, keyPrefix+r.appID+":*", 0).Iterator()
	for iter.Next(ctx) {
		body, err := r.client.Get(ctx, iter.Val()).Bytes()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read session %s: %w", iter.Val(), err)
		}
		var s types.Session
		if err := json.Unmarshal(body, &s); err != nil {
			continue
		}
		sessions = append(sessions, s)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan sessions: %w", err)
	}
	return sessions, nil
}

// Remove deletes the session record. Absent IDs are not an error.
func (r *Redis) Remove(ctx context.Context, sessionID string) error {
	if err := r.client.Del(ctx, r.key(sessionID)).Err(); err != nil {
		return fmt.Errorf("remove session: %w", err)
	}
	return nil
}

// Close releases the redis connection.
func (r *Redis) Close() error {
	return r.client.Close()
}
