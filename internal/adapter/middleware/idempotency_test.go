package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

const (
	testCaller = "0x00000000000000000000000000000000000000b0"
	testReqID  = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
)

// setupEcho mounts handler on the ledger's repayment routes behind both
// middlewares, in the order cmd/api uses.
func setupEcho(rdb *redis.Client, ttl time.Duration, handler echo.HandlerFunc) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(CallerMiddleware(), IdempotencyMiddleware(rdb, ttl))
	e.POST("/loans/installments", handler)
	e.GET("/loans/:id", handler)
	return e
}

func newMiniredisClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	return mr, redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func headers(reqID, caller string) map[string]string {
	return map[string]string{
		HeaderRequestID: reqID,
		HeaderRequestAt: time.Now().UTC().Format(time.RFC3339),
		HeaderCallerID:  caller,
	}
}

func doReq(t *testing.T, e *echo.Echo, method, path string, body []byte, hdr map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for k, v := range hdr {
		if v != "" {
			req.Header.Set(k, v)
		}
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

// installmentHandler echoes the paid amount and counts invocations.
func installmentHandler(calls *int32) echo.HandlerFunc {
	return func(c echo.Context) error {
		n := atomic.AddInt32(calls, 1)
		var req struct {
			Amount int64 `json:"amount"`
		}
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid body"})
		}
		return c.JSON(http.StatusOK, map[string]any{"paid": req.Amount, "call": n, "caller": Caller(c)})
	}
}

func TestIdempotency_ReadsBypass(t *testing.T) {
	_, rdb := newMiniredisClient(t)
	var calls int32
	e := setupEcho(rdb, time.Minute, installmentHandler(&calls))

	for i := 0; i < 2; i++ {
		if rec := doReq(t, e, http.MethodGet, "/loans/1", nil, nil); rec.Code != http.StatusOK {
			t.Fatalf("GET => want 200, got %d", rec.Code)
		}
	}
	if calls != 2 {
		t.Fatalf("reads must not be deduplicated, calls = %d", calls)
	}
}

func TestIdempotency_RejectsBadHeaders(t *testing.T) {
	_, rdb := newMiniredisClient(t)
	var calls int32
	e := setupEcho(rdb, time.Minute, installmentHandler(&calls))

	skewed := time.Now().UTC().Add(-maxClockSkew - time.Minute).Format(time.RFC3339)
	cases := []struct {
		name string
		edit func(h map[string]string)
	}{
		{"missing request id", func(h map[string]string) { h[HeaderRequestID] = "" }},
		{"malformed request id", func(h map[string]string) { h[HeaderRequestID] = "NOT-VALID" }},
		{"malformed request time", func(h map[string]string) { h[HeaderRequestAt] = "not-a-time" }},
		{"skewed request time", func(h map[string]string) { h[HeaderRequestAt] = skewed }},
		{"missing caller", func(h map[string]string) { h[HeaderCallerID] = "" }},
		{"malformed caller", func(h map[string]string) { h[HeaderCallerID] = "not-an-address" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := headers(testReqID, testCaller)
			tc.edit(h)
			rec := doReq(t, e, http.MethodPost, "/loans/installments", []byte(`{"amount":1}`), h)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("want 400, got %d body=%s", rec.Code, rec.Body.String())
			}
		})
	}
	if calls != 0 {
		t.Fatalf("handler must not run, calls = %d", calls)
	}
}

func TestIdempotency_RetryIsReplayed(t *testing.T) {
	_, rdb := newMiniredisClient(t)
	var calls int32
	e := setupEcho(rdb, 2*time.Minute, installmentHandler(&calls))
	body := []byte(`{"amount":3000000}`)
	h := headers(testReqID, testCaller)

	first := doReq(t, e, http.MethodPost, "/loans/installments", body, h)
	if first.Code != http.StatusOK {
		t.Fatalf("first => want 200, got %d body=%s", first.Code, first.Body.String())
	}
	again := doReq(t, e, http.MethodPost, "/loans/installments", body, h)
	if again.Code != http.StatusOK {
		t.Fatalf("replay => want 200, got %d", again.Code)
	}
	if first.Body.String() != again.Body.String() {
		t.Fatalf("replay body mismatch: %q vs %q", first.Body.String(), again.Body.String())
	}
	if again.Header().Get("Ax-Idempotent-Replay") != "true" {
		t.Fatal("replay should be marked")
	}
	if calls != 1 {
		t.Fatalf("installment charged %d times", calls)
	}
}

func TestIdempotency_KeyIsPerCaller(t *testing.T) {
	_, rdb := newMiniredisClient(t)
	var calls int32
	e := setupEcho(rdb, 2*time.Minute, installmentHandler(&calls))

	for _, caller := range []string{testCaller, "0x00000000000000000000000000000000000000b1"} {
		rec := doReq(t, e, http.MethodPost, "/loans/installments", []byte(`{"amount":1}`), headers(testReqID, caller))
		if rec.Code != http.StatusOK {
			t.Fatalf("caller %s => want 200, got %d", caller, rec.Code)
		}
		var got map[string]any
		_ = json.Unmarshal(rec.Body.Bytes(), &got)
		if got["caller"] != caller {
			t.Fatalf("response for %s came from %v", caller, got["caller"])
		}
	}
	if calls != 2 {
		t.Fatalf("handler calls = %d, want 2", calls)
	}
}

func TestIdempotency_ServerErrorReleasesKey(t *testing.T) {
	_, rdb := newMiniredisClient(t)
	var calls int32
	e := setupEcho(rdb, 2*time.Minute, func(c echo.Context) error {
		if atomic.AddInt32(&calls, 1) == 1 {
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
		}
		return c.JSON(http.StatusOK, map[string]bool{"completed": true})
	})
	h := headers(testReqID, testCaller)

	if rec := doReq(t, e, http.MethodPost, "/loans/installments", []byte(`{}`), h); rec.Code != http.StatusInternalServerError {
		t.Fatalf("first => want 500, got %d", rec.Code)
	}
	rec := doReq(t, e, http.MethodPost, "/loans/installments", []byte(`{}`), h)
	if rec.Code != http.StatusOK || calls != 2 {
		t.Fatalf("retry after 500 => want 200 and 2 calls, got %d and %d", rec.Code, calls)
	}
}

func TestIdempotency_PreconditionFailureIsReplayed(t *testing.T) {
	_, rdb := newMiniredisClient(t)
	var calls int32
	e := setupEcho(rdb, 2*time.Minute, func(c echo.Context) error {
		atomic.AddInt32(&calls, 1)
		return c.JSON(http.StatusUnprocessableEntity, map[string]string{"error": "NoActiveLoan: no active loan", "kind": "NoActiveLoan"})
	})
	h := headers("3f9a6a1b-3d54-4fbe-8b3a-6b3e8d6b2c88", testCaller)

	for i := 0; i < 2; i++ {
		if rec := doReq(t, e, http.MethodPost, "/loans/installments", []byte(`{}`), h); rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("attempt %d => want 422, got %d", i, rec.Code)
		}
	}
	if calls != 1 {
		t.Fatalf("handler calls = %d, want 1", calls)
	}
}

func TestIdempotency_Conflicts(t *testing.T) {
	body := []byte(`{"amount":1}`)
	key := buildKey(http.MethodPost, "/loans/installments", testCaller, testReqID)
	seeded := idempEntry{BodySHA256: bodyHash(body), RequestID: testReqID, RequestAtMS: time.Now().UnixMilli(), CreatedAt: nowUTC()}

	t.Run("in progress", func(t *testing.T) {
		_, rdb := newMiniredisClient(t)
		var calls int32
		e := setupEcho(rdb, time.Minute, installmentHandler(&calls))
		entry := seeded
		entry.InProgress = true
		if ok, err := provisionalSet(context.Background(), rdb, key, entry); err != nil || !ok {
			t.Fatalf("seed: ok=%v err=%v", ok, err)
		}
		if rec := doReq(t, e, http.MethodPost, "/loans/installments", body, headers(testReqID, testCaller)); rec.Code != http.StatusConflict {
			t.Fatalf("want 409, got %d", rec.Code)
		}
		if calls != 0 {
			t.Fatalf("handler ran %d times", calls)
		}
	})

	t.Run("different body", func(t *testing.T) {
		_, rdb := newMiniredisClient(t)
		var calls int32
		e := setupEcho(rdb, time.Minute, installmentHandler(&calls))
		entry := seeded
		entry.Code, entry.Body = http.StatusOK, []byte(`{"paid":1}`)
		if err := saveFinal(context.Background(), rdb, key, entry, 5*time.Minute); err != nil {
			t.Fatalf("seed: %v", err)
		}
		if rec := doReq(t, e, http.MethodPost, "/loans/installments", []byte(`{"amount":2}`), headers(testReqID, testCaller)); rec.Code != http.StatusConflict {
			t.Fatalf("want 409, got %d", rec.Code)
		}
		if calls != 0 {
			t.Fatalf("handler ran %d times", calls)
		}
	})
}

func TestIdempotency_StoreUnavailable(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1})
	var calls int32
	e := setupEcho(rdb, time.Minute, installmentHandler(&calls))

	rec := doReq(t, e, http.MethodPost, "/loans/installments", []byte(`{}`), headers(testReqID, testCaller))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("want 503, got %d", rec.Code)
	}
	if calls != 0 {
		t.Fatalf("handler must not run without the store, calls = %d", calls)
	}
}
