package flow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	sessionKeyPrefix = "accueil:flow:"

	// maxUpdateAttempts bounds optimistic retries when a watched key
	// changes under a transaction.
	maxUpdateAttempts = 8
)

// ErrContention is returned when Update loses every optimistic attempt.
var ErrContention = errors.New("flow session updated concurrently")

// RedisSessions stores sessions as JSON values whose TTL is refreshed on
// every write. Several server instances can share them.
type RedisSessions struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisSessions(client *redis.Client, ttl time.Duration) *RedisSessions {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &RedisSessions{client: client, ttl: ttl}
}

func sessionKey(id string) string {
	return sessionKeyPrefix + id
}

func (r *RedisSessions) Get(ctx context.Context, id string) (*Snapshot, error) {
	raw, err := r.client.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get flow session: %w", err)
	}
	return decodeSnapshot(raw)
}

func (r *RedisSessions) Put(ctx context.Context, snap *Snapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode flow session: %w", err)
	}
	if err := r.client.Set(ctx, sessionKey(snap.ID), raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("put flow session: %w", err)
	}
	return nil
}

// Update runs fn inside a WATCH/MULTI transaction and retries when the key
// changed before EXEC.
func (r *RedisSessions) Update(ctx context.Context, id string, fn func(*Snapshot) error) (*Snapshot, error) {
	key := sessionKey(id)
	var updated *Snapshot

	txf := func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get flow session: %w", err)
		}
		snap, err := decodeSnapshot(raw)
		if err != nil {
			return err
		}
		if err := fn(snap); err != nil {
			return err
		}
		next, err := json.Marshal(snap)
		if err != nil {
			return fmt.Errorf("encode flow session: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, next, r.ttl)
			return nil
		})
		if err != nil {
			return err
		}
		updated = snap
		return nil
	}

	for range maxUpdateAttempts {
		err := r.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return updated, nil
	}
	return nil, ErrContention
}

func (r *RedisSessions) Delete(ctx context.Context, id string) error {
	n, err := r.client.Del(ctx, sessionKey(id)).Result()
	if err != nil {
		return fmt.Errorf("delete flow session: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func decodeSnapshot(raw []byte) (*Snapshot, error) {
	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("decode flow session: %w", err)
	}
	return &snap, nil
}
