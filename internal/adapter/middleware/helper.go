package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"

	"bnpl-ledger/internal/infrastructure/cache"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	reHex32 = regexp.MustCompile(`^[a-f0-9]{32}$`)

	errMissingRequestAt = errors.New("missing " + HeaderRequestAt)
	errBadRequestAt     = errors.New(HeaderRequestAt + " must be epoch (s/ms) or RFC3339 with timezone")
)

func nowUTC() time.Time { return time.Now().UTC() }

func bodyHash(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func buildKey(method, path, caller, requestID string) string {
	return cache.Key("idem", strings.ToLower(method), path, caller, requestID)
}

// validReqID accepts 32 lower-case hex chars or a lower-case RFC 4122 UUID
// of version 1 to 5.
func validReqID(id string) bool {
	id = strings.TrimSpace(id)
	if reHex32.MatchString(id) {
		return true
	}
	if len(id) != 36 || strings.ToLower(id) != id {
		return false
	}
	u, err := uuid.Parse(id)
	if err != nil {
		return false
	}
	return u.Version() >= 1 && u.Version() <= 5 && u.Variant() == uuid.RFC4122
}

// parseAxRequestAt reads epoch seconds, epoch milliseconds or an RFC 3339
// timestamp. Timestamps without a zone are rejected.
func parseAxRequestAt(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, errMissingRequestAt
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		if n > 1e12 {
			return time.UnixMilli(n).UTC(), nil
		}
		return time.Unix(n, 0).UTC(), nil
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, errBadRequestAt
	}
	return t.UTC(), nil
}

func provisionalSet(ctx context.Context, rdb *redis.Client, key string, entry idempEntry) (bool, error) {
	payload, err := json.Marshal(entry)
	if err != nil {
		return false, err
	}
	return rdb.SetNX(ctx, key, payload, provisionalLockTTL).Result()
}

func saveFinal(ctx context.Context, rdb *redis.Client, key string, entry idempEntry, ttl time.Duration) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return rdb.Set(ctx, key, payload, ttl).Err()
}

func loadEntry(ctx context.Context, rdb *redis.Client, key string) (idempEntry, error) {
	var e idempEntry
	raw, err := rdb.Get(ctx, key).Bytes()
	if err != nil {
		return e, err
	}
	err = json.Unmarshal(raw, &e)
	return e, err
}

// release drops the key so a failed request can be retried with the same id.
func release(ctx context.Context, rdb *redis.Client, key string) error {
	return rdb.Del(ctx, key).Err()
}
