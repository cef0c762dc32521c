package http

import (
	"bytes"
	"context"
	"encoding/json"
	stdhttp "net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"bnpl-ledger/internal/adapter/middleware"
	"bnpl-ledger/internal/adapter/oracle"
	"bnpl-ledger/internal/adapter/repository/gormdb"
	"bnpl-ledger/internal/domain/event"
	"bnpl-ledger/internal/metrics"
	"bnpl-ledger/internal/testutil/dbtest"
	"bnpl-ledger/internal/usecase/ledger"
	"bnpl-ledger/internal/usecase/trustscore"
	"bnpl-ledger/pkg/address"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
)

const unit int64 = 1_000_000

// testServer runs the full route table against a sqlite-backed ledger with a
// controllable clock.
type testServer struct {
	e        *echo.Echo
	uc       *ledger.Usecase
	zk       *oracle.MemoryVerifier
	admin    string
	pool     string
	merchant string

	mu  sync.Mutex
	now time.Time
}

func (s *testServer) clock() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

func (s *testServer) advance(d time.Duration) {
	s.mu.Lock()
	s.now = s.now.Add(d)
	s.mu.Unlock()
}

// newTestServer seeds 100 units of liquidity and one approved merchant. Extra
// middleware runs after CallerMiddleware.
func newTestServer(t *testing.T, mw ...echo.MiddlewareFunc) *testServer {
	t.Helper()
	s := &testServer{
		admin:    address.New(),
		pool:     address.New(),
		merchant: address.New(),
		now:      time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	s.zk = oracle.NewMemoryVerifier(30 * 24 * time.Hour).WithClock(s.clock)

	p := ledger.DefaultParams()
	p.Admin, p.Pool = s.admin, s.pool
	s.uc = ledger.NewUsecase(
		gormdb.NewGormUoW(dbtest.Open(t), s.pool),
		trustscore.NewCalculator(oracle.NewStaticWalletScorer(nil), s.zk),
		event.NopPublisher{},
		metrics.New(prometheus.NewRegistry()),
		p,
	).WithClock(s.clock)

	s.e = echo.New()
	s.e.HideBanner = true
	s.e.Validator = NewValidator()
	Register(s.e, NewHandler(nil), NewLoanHandler(s.uc), NewAdminHandler(s.uc, s.zk),
		append([]echo.MiddlewareFunc{middleware.CallerMiddleware()}, mw...)...)

	ctx := context.Background()
	s.fund(t, s.admin, 1_000*unit)
	if _, err := s.uc.DepositLiquidity(ctx, s.admin, 100*unit); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if _, err := s.uc.AddMerchant(ctx, s.admin, s.merchant, "Demo Merchant", "E-commerce"); err != nil {
		t.Fatalf("add merchant: %v", err)
	}
	return s
}

func (s *testServer) fund(t *testing.T, user string, amount int64) {
	t.Helper()
	ctx := context.Background()
	if _, err := s.uc.Mint(ctx, s.admin, user, amount); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if _, err := s.uc.Approve(ctx, user, 1_000_000*unit); err != nil {
		t.Fatalf("approve: %v", err)
	}
}

func (s *testServer) do(t *testing.T, method, path, caller string, body any) *httptest.ResponseRecorder {
	t.Helper()
	return s.doWith(t, method, path, caller, body, nil)
}

func (s *testServer) doWith(t *testing.T, method, path, caller string, body any, hdr map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var req *stdhttp.Request
	if body != nil {
		req = httptest.NewRequest(method, path, mustJSON(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if caller != "" {
		req.Header.Set(middleware.HeaderCallerID, caller)
	}
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("bad json: %v; raw=%s", err, rec.Body.String())
	}
	return out
}

func wantStatus(t *testing.T, rec *httptest.ResponseRecorder, code int) {
	t.Helper()
	if rec.Code != code {
		t.Fatalf("status = %d, want %d; body=%s", rec.Code, code, rec.Body.String())
	}
}

func wantKind(t *testing.T, rec *httptest.ResponseRecorder, code int, kind string) {
	t.Helper()
	wantStatus(t, rec, code)
	if got := decode[ErrorResponse](t, rec).Kind; got != kind {
		t.Fatalf("kind = %q, want %q", got, kind)
	}
}

func mustJSON(v any) *bytes.Reader {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return bytes.NewReader(b)
}

func containsFieldMsg(list []FieldError, field, substr string) bool {
	for _, fe := range list {
		if fe.Field == field && strings.Contains(fe.Message, substr) {
			return true
		}
	}
	return false
}
