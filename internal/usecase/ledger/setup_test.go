package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"bnpl-ledger/internal/adapter/repository/gormdb"
	"bnpl-ledger/internal/domain/event"
	"bnpl-ledger/internal/metrics"
	"bnpl-ledger/internal/testutil/dbtest"
	"bnpl-ledger/internal/testutil/oraclemock"
	"bnpl-ledger/internal/usecase/trustscore"
	"bnpl-ledger/pkg/address"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

const unit int64 = 1_000_000

var t0 = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

type recordingPublisher struct {
	mu     sync.Mutex
	events []event.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, evs []event.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, evs...)
	return nil
}

func (p *recordingPublisher) types() []event.Type {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]event.Type, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

func (p *recordingPublisher) reset() {
	p.mu.Lock()
	p.events = nil
	p.mu.Unlock()
}

type fixture struct {
	uc       *Usecase
	admin    string
	pool     string
	merchant string
	pub      *recordingPublisher
	wallet   *oraclemock.Wallet
	zk       *oraclemock.ZK
	metrics  *metrics.Metrics

	mu  sync.Mutex
	now time.Time
}

func (f *fixture) clock() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fixture) advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

// newFixture funds the pool with 100 units and approves one merchant.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	f := &fixture{
		admin:    address.New(),
		pool:     address.New(),
		merchant: address.New(),
		pub:      &recordingPublisher{},
		wallet:   &oraclemock.Wallet{},
		zk:       &oraclemock.ZK{},
		metrics:  metrics.New(prometheus.NewRegistry()),
		now:      t0,
	}
	p := DefaultParams()
	p.Admin, p.Pool = f.admin, f.pool

	f.uc = NewUsecase(
		gormdb.NewGormUoW(dbtest.Open(t), f.pool),
		trustscore.NewCalculator(f.wallet, f.zk),
		f.pub,
		f.metrics,
		p,
	).WithClock(f.clock)

	f.fund(t, f.admin, 1_000*unit)
	_, err := f.uc.DepositLiquidity(ctx, f.admin, 100*unit)
	require.NoError(t, err)
	_, err = f.uc.AddMerchant(ctx, f.admin, f.merchant, "Demo Merchant", "E-commerce")
	require.NoError(t, err)
	f.pub.reset()
	return f
}

// fund mints amount to user and approves the ledger for all of it.
func (f *fixture) fund(t *testing.T, user string, amount int64) {
	t.Helper()
	ctx := context.Background()
	_, err := f.uc.Mint(ctx, f.admin, user, amount)
	require.NoError(t, err)
	acc, err := f.uc.BalanceOf(ctx, user)
	require.NoError(t, err)
	_, err = f.uc.Approve(ctx, user, acc.Allowance+amount)
	require.NoError(t, err)
}

func (f *fixture) score(t *testing.T, user string) uint64 {
	t.Helper()
	c, err := f.uc.GetCredit(context.Background(), user)
	require.NoError(t, err)
	return c.RepaymentScore
}

// requireBalanced checks the pool counters against each other and against
// the pool's token account.
func (f *fixture) requireBalanced(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	st, err := f.uc.Stats(ctx)
	require.NoError(t, err)
	p := st.Pool
	require.Equal(t, p.TotalDeposited-p.TotalWithdrawn-p.TotalDisbursed+p.TotalRepaid+p.TotalPenalties, p.AvailableBalance)

	acc, err := f.uc.BalanceOf(ctx, f.pool)
	require.NoError(t, err)
	require.Equal(t, p.AvailableBalance, acc.Balance)
}

func requireKind(t *testing.T, err error, want error) {
	t.Helper()
	require.Error(t, err)
	require.True(t, errors.Is(err, want), "want %v, got %v", want, err)
}
