package middleware

import (
	"bytes"
	"context"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

const (
	HeaderRequestID = "Ax-Request-Id"
	HeaderRequestAt = "Ax-Request-At"
	HeaderReplay    = "Ax-Idempotent-Replay"

	// provisionalLockTTL bounds how long a crashed handler can block retries.
	provisionalLockTTL = 60 * time.Second
	maxClockSkew       = 10 * time.Minute
	storeTimeout       = 2 * time.Second
)

// idempEntry is what sits under a key: a claim while the handler runs, then
// the captured response.
type idempEntry struct {
	InProgress  bool      `json:"in_progress"`
	Code        int       `json:"code"`
	Body        []byte    `json:"body"`
	BodySHA256  string    `json:"body_sha256"`
	RequestID   string    `json:"request_id"`
	RequestAtMS int64     `json:"request_at_ms"`
	CreatedAt   time.Time `json:"created_at"`
}

// capture tees the handler's response so it can be stored after the fact.
type capture struct {
	http.ResponseWriter
	buf  bytes.Buffer
	code int
}

func (w *capture) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *capture) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

type idemRequest struct {
	id   string
	at   time.Time
	body []byte
}

// readIdemRequest validates the idempotency headers and buffers the body. A
// non-empty message means the request must be rejected with 400.
func readIdemRequest(c echo.Context) (idemRequest, string) {
	req := c.Request()
	id := strings.TrimSpace(req.Header.Get(HeaderRequestID))
	switch {
	case id == "":
		return idemRequest{}, "missing " + HeaderRequestID
	case !validReqID(id):
		return idemRequest{}, "invalid " + HeaderRequestID + " format"
	}
	at, err := parseAxRequestAt(req.Header.Get(HeaderRequestAt))
	if err != nil {
		return idemRequest{}, err.Error()
	}
	if skew := nowUTC().Sub(at); skew > maxClockSkew || skew < -maxClockSkew {
		return idemRequest{}, HeaderRequestAt + " too skewed"
	}

	var body []byte
	if req.Body != nil {
		body, _ = io.ReadAll(req.Body)
	}
	req.Body = io.NopCloser(bytes.NewReader(body))
	return idemRequest{id: id, at: at, body: body}, ""
}

// IdempotencyMiddleware makes ledger writes safe to retry. The key is method +
// route + caller + request id, so it must run after CallerMiddleware.
// Responses below 500 are stored and replayed; server errors release the key.
func IdempotencyMiddleware(rdb *redis.Client, ttl time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !isMutating(c.Request().Method) {
				return next(c)
			}
			r, msg := readIdemRequest(c)
			if msg != "" {
				return c.JSON(http.StatusBadRequest, map[string]string{"error": msg})
			}
			caller := Caller(c)
			if caller == "" {
				return c.JSON(http.StatusBadRequest, map[string]string{"error": "missing " + HeaderCallerID})
			}

			key := buildKey(c.Request().Method, c.Path(), caller, r.id)
			entry := idempEntry{
				InProgress:  true,
				BodySHA256:  bodyHash(r.body),
				RequestID:   r.id,
				RequestAtMS: r.at.UnixMilli(),
				CreatedAt:   nowUTC(),
			}

			ctx, cancel := context.WithTimeout(c.Request().Context(), storeTimeout)
			defer cancel()
			claimed, err := provisionalSet(ctx, rdb, key, entry)
			if err != nil {
				return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "idempotency store unavailable"})
			}
			if !claimed {
				return replay(ctx, c, rdb, key, entry.BodySHA256)
			}

			w := &capture{ResponseWriter: c.Response().Writer, code: http.StatusOK}
			c.Response().Writer = w
			if err := next(c); err != nil {
				c.Error(err)
			}

			if w.code >= http.StatusInternalServerError {
				if err := release(context.Background(), rdb, key); err != nil {
					log.Printf("idempotency: release %s: %v", key, err)
				}
				return nil
			}
			entry.InProgress, entry.Code, entry.Body, entry.CreatedAt = false, w.code, w.buf.Bytes(), nowUTC()
			if err := saveFinal(context.Background(), rdb, key, entry, ttl); err != nil {
				log.Printf("idempotency: save %s: %v", key, err)
			}
			return nil
		}
	}
}

// replay answers a request whose key is already taken: the stored response if
// there is one, otherwise a conflict.
func replay(ctx context.Context, c echo.Context, rdb *redis.Client, key, hash string) error {
	cur, err := loadEntry(ctx, rdb, key)
	if err != nil {
		log.Printf("idempotency: load %s: %v", key, err)
	}
	if cur.BodySHA256 != "" && cur.BodySHA256 != hash {
		return c.JSON(http.StatusConflict, map[string]string{"error": HeaderRequestID + " reused with different body"})
	}
	if cur.InProgress || cur.Code == 0 || len(cur.Body) == 0 {
		return c.JSON(http.StatusConflict, map[string]string{"error": "request is already in progress"})
	}
	c.Response().Header().Set(HeaderReplay, "true")
	return c.Blob(cur.Code, echo.MIMEApplicationJSON, cur.Body)
}
