package oracle

import (
	"context"
	"errors"
	"log"
	"strconv"
	"sync"
	"time"

	domain "bnpl-ledger/internal/domain/oracle"
	"bnpl-ledger/internal/infrastructure/cache"

	"github.com/redis/go-redis/v9"
)

// StaticWalletScorer serves wallet bonuses from an in-memory table. Unknown
// wallets score 0.
type StaticWalletScorer struct {
	mu     sync.RWMutex
	scores map[string]uint64
}

func NewStaticWalletScorer(scores map[string]uint64) *StaticWalletScorer {
	s := &StaticWalletScorer{scores: map[string]uint64{}}
	for k, v := range scores {
		s.scores[k] = v
	}
	return s
}

func (s *StaticWalletScorer) Set(user string, bonus uint64) {
	s.mu.Lock()
	s.scores[user] = bonus
	s.mu.Unlock()
}

func (s *StaticWalletScorer) ScoreWalletBonus(_ context.Context, user string) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scores[user], nil
}

// CachedWalletScorer keeps wallet bonuses in redis for ttl. Redis failures
// fall back to the wrapped scorer.
type CachedWalletScorer struct {
	next domain.WalletScorer
	rdb  *redis.Client
	ttl  time.Duration
}

func NewCachedWalletScorer(next domain.WalletScorer, rdb *redis.Client, ttl time.Duration) *CachedWalletScorer {
	return &CachedWalletScorer{next: next, rdb: rdb, ttl: ttl}
}

func (c *CachedWalletScorer) ScoreWalletBonus(ctx context.Context, user string) (uint64, error) {
	key := cache.Key("wallet-score", user)

	raw, err := c.rdb.Get(ctx, key).Result()
	switch {
	case err == nil:
		if v, perr := strconv.ParseUint(raw, 10, 64); perr == nil {
			return v, nil
		}
	case !errors.Is(err, redis.Nil):
		log.Printf("wallet score cache get %s: %v", user, err)
	}

	v, err := c.next.ScoreWalletBonus(ctx, user)
	if err != nil {
		return 0, err
	}
	if err := c.rdb.Set(ctx, key, strconv.FormatUint(v, 10), c.ttl).Err(); err != nil {
		log.Printf("wallet score cache set %s: %v", user, err)
	}
	return v, nil
}
