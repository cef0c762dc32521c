package cache

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Namespace prefixes every key the service writes.
const Namespace = "bnpl"

type Options struct {
	Addr     string
	Password string
	DB       int
}

// OpenRedis connects and pings. Callers own the returned client.
func OpenRedis(o Options) (*redis.Client, error) {
	r := redis.NewClient(&redis.Options{Addr: o.Addr, Password: o.Password, DB: o.DB})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.Ping(ctx).Err(); err != nil {
		_ = r.Close()
		return nil, err
	}
	return r, nil
}

// Key joins parts under Namespace, e.g. Key("idem", id) = "bnpl:idem:<id>".
func Key(parts ...string) string {
	return Namespace + ":" + strings.Join(parts, ":")
}
