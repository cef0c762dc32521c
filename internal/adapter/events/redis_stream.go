package events

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"bnpl-ledger/internal/domain/event"
	"bnpl-ledger/internal/infrastructure/cache"

	"github.com/redis/go-redis/v9"
)

// DefaultStream is where committed ledger events are appended.
var DefaultStream = cache.Key("events")

// RedisStreamPublisher appends each event as one stream entry. Entries are
// capped approximately at maxLen; 0 keeps everything.
type RedisStreamPublisher struct {
	rdb    *redis.Client
	stream string
	maxLen int64
}

func NewRedisStreamPublisher(rdb *redis.Client, stream string, maxLen int64) *RedisStreamPublisher {
	if stream == "" {
		stream = DefaultStream
	}
	return &RedisStreamPublisher{rdb: rdb, stream: stream, maxLen: maxLen}
}

func (p *RedisStreamPublisher) Publish(ctx context.Context, evs []event.Event) error {
	if len(evs) == 0 {
		return nil
	}
	pipe := p.rdb.Pipeline()
	for _, e := range evs {
		args := &redis.XAddArgs{Stream: p.stream, Values: fields(e)}
		if p.maxLen > 0 {
			args.MaxLen = p.maxLen
			args.Approx = true
		}
		pipe.XAdd(ctx, args)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("xadd %s: %w", p.stream, err)
	}
	return nil
}

func fields(e event.Event) map[string]any {
	return map[string]any{
		"id":           e.ID,
		"seq":          strconv.FormatUint(e.Seq, 10),
		"type":         string(e.Type),
		"loan_id":      strconv.FormatUint(e.LoanID, 10),
		"account":      e.Account,
		"counterparty": e.Counterparty,
		"amount":       strconv.FormatInt(e.Amount, 10),
		"penalty":      strconv.FormatInt(e.Penalty, 10),
		"score_delta":  strconv.FormatInt(e.ScoreDelta, 10),
		"created_at":   e.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}
