package oracle

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	domain "bnpl-ledger/internal/domain/oracle"
	"bnpl-ledger/internal/infrastructure/cache"

	"github.com/redis/go-redis/v9"
)

type proof struct {
	boost      uint64
	verifiedAt time.Time
}

// MemoryVerifier records verified balance proofs in process memory; tests
// and single-node setups use it. RedisVerifier shares proofs across replicas. A proof counts for
// validity after it was recorded; later proofs replace earlier ones.
type MemoryVerifier struct {
	mu       sync.RWMutex
	proofs   map[string]proof
	validity time.Duration
	now      func() time.Time
}

func NewMemoryVerifier(validity time.Duration) *MemoryVerifier {
	return &MemoryVerifier{proofs: map[string]proof{}, validity: validity, now: time.Now}
}

// WithClock replaces the time source.
func (v *MemoryVerifier) WithClock(now func() time.Time) *MemoryVerifier {
	v.now = now
	return v
}

// RecordProof stores a verified proof for user. The boost is capped at
// domain.MaxZKBoost.
func (v *MemoryVerifier) RecordProof(_ context.Context, user string, boost uint64) error {
	v.mu.Lock()
	v.proofs[user] = proof{boost: min(boost, domain.MaxZKBoost), verifiedAt: v.now()}
	v.mu.Unlock()
	return nil
}

func (v *MemoryVerifier) HasValidProof(_ context.Context, user string) (bool, error) {
	v.mu.RLock()
	p, ok := v.proofs[user]
	v.mu.RUnlock()
	return ok && v.now().Before(p.verifiedAt.Add(v.validity)), nil
}

// GetCreditBoost returns the recorded boost even after expiry; callers gate
// on HasValidProof.
func (v *MemoryVerifier) GetCreditBoost(_ context.Context, user string) (uint64, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.proofs[user].boost, nil
}

// RedisVerifier keeps one hash per user under bnpl:zk-proof:<user>. The key
// expires with the proof, so an expired proof also reports no boost.
type RedisVerifier struct {
	rdb      *redis.Client
	validity time.Duration
	now      func() time.Time
}

func NewRedisVerifier(rdb *redis.Client, validity time.Duration) *RedisVerifier {
	return &RedisVerifier{rdb: rdb, validity: validity, now: time.Now}
}

func (v *RedisVerifier) WithClock(now func() time.Time) *RedisVerifier {
	v.now = now
	return v
}

func (v *RedisVerifier) RecordProof(ctx context.Context, user string, boost uint64) error {
	key := cache.Key("zk-proof", user)
	_, err := v.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, key, "boost", min(boost, domain.MaxZKBoost), "verified_at", v.now().UnixMilli())
		p.PExpire(ctx, key, v.validity)
		return nil
	})
	return err
}

func (v *RedisVerifier) load(ctx context.Context, user string) (proof, bool, error) {
	vals, err := v.rdb.HGetAll(ctx, cache.Key("zk-proof", user)).Result()
	if err != nil || len(vals) == 0 {
		return proof{}, false, err
	}
	boost, err := strconv.ParseUint(vals["boost"], 10, 64)
	if err != nil {
		return proof{}, false, fmt.Errorf("zk proof %s: boost: %w", user, err)
	}
	ms, err := strconv.ParseInt(vals["verified_at"], 10, 64)
	if err != nil {
		return proof{}, false, fmt.Errorf("zk proof %s: verified_at: %w", user, err)
	}
	return proof{boost: boost, verifiedAt: time.UnixMilli(ms)}, true, nil
}

func (v *RedisVerifier) HasValidProof(ctx context.Context, user string) (bool, error) {
	p, ok, err := v.load(ctx, user)
	if err != nil || !ok {
		return false, err
	}
	return v.now().Before(p.verifiedAt.Add(v.validity)), nil
}

func (v *RedisVerifier) GetCreditBoost(ctx context.Context, user string) (uint64, error) {
	p, _, err := v.load(ctx, user)
	return p.boost, err
}
