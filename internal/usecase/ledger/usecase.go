// Package ledger owns every state change of the BNPL protocol: loans, the
// liquidity pool, merchants, the blacklist and the pause flag. Each write is
// one serialised transaction; its events are stored in the same transaction
// and published after commit.
package ledger

import (
	"context"
	"errors"
	"log"
	"time"

	"bnpl-ledger/internal/domain/errs"
	"bnpl-ledger/internal/domain/event"
	"bnpl-ledger/internal/domain/pool"
	"bnpl-ledger/internal/domain/protocol"
	"bnpl-ledger/internal/domain/uow"
	"bnpl-ledger/internal/metrics"
	"bnpl-ledger/internal/usecase/trustscore"
	"bnpl-ledger/pkg/address"

	"github.com/google/uuid"
)

type Usecase struct {
	uow     uow.UnitOfWork
	credit  *trustscore.Calculator
	pub     event.Publisher
	metrics *metrics.Metrics
	params  Params
	now     func() time.Time
}

// NewUsecase wires the ledger. A nil publisher drops events after commit;
// nil metrics disables instrumentation.
func NewUsecase(tx uow.UnitOfWork, credit *trustscore.Calculator, pub event.Publisher, m *metrics.Metrics, p Params) *Usecase {
	if pub == nil {
		pub = event.NopPublisher{}
	}
	p.Admin, _ = address.Normalize(p.Admin)
	p.Pool, _ = address.Normalize(p.Pool)
	return &Usecase{uow: tx, credit: credit, pub: pub, metrics: m, params: p, now: time.Now}
}

// WithClock replaces the time source; tests use it to move through the
// repayment and grace windows.
func (u *Usecase) WithClock(now func() time.Time) *Usecase {
	u.now = now
	return u
}

func (u *Usecase) Params() Params { return u.params }

// op is the state of one ledger write while its transaction is open.
type op struct {
	ctx    context.Context
	now    time.Time
	r      uow.Repos
	st     *protocol.State
	pool   *pool.Pool
	events []*event.Event
	volume map[string]int64
}

func (o *op) emit(e event.Event) {
	e.ID = uuid.NewString()
	e.CreatedAt = o.now
	o.events = append(o.events, &e)
}

func (o *op) lockPool() (*pool.Pool, error) {
	if o.pool != nil {
		return o.pool, nil
	}
	p, err := o.r.Pool.GetForUpdate(o.ctx)
	if err != nil {
		return nil, err
	}
	o.pool = p
	return p, nil
}

func (o *op) savePool() error {
	if o.pool == nil {
		return nil
	}
	return o.r.Pool.Save(o.ctx, o.pool)
}

func (o *op) addVolume(flow string, amount int64) {
	if o.volume == nil {
		o.volume = map[string]int64{}
	}
	o.volume[flow] += amount
}

// write runs fn as one ledger transaction. "now" is read once. Events are
// appended inside the transaction and published only after it commits.
func (u *Usecase) write(ctx context.Context, name string, fn func(o *op) error) error {
	start := time.Now()
	o := &op{ctx: ctx, now: u.now().UTC()}

	err := u.uow.WithinLedgerTx(ctx, func(r uow.Repos, st *protocol.State) error {
		o.r, o.st = r, st
		if err := fn(o); err != nil {
			return err
		}
		if err := o.savePool(); err != nil {
			return err
		}
		return r.Events.Append(ctx, o.events...)
	})
	u.metrics.ObserveOperation(name, outcome(err), start)
	if err != nil {
		return err
	}

	for flow, v := range o.volume {
		u.metrics.AddVolume(flow, v)
	}
	if o.pool != nil {
		u.metrics.SetPoolAvailable(o.pool.AvailableBalance)
	}
	u.publish(ctx, o.events)
	return nil
}

func (u *Usecase) publish(ctx context.Context, evs []*event.Event) {
	if len(evs) == 0 {
		return
	}
	out := make([]event.Event, len(evs))
	for i, e := range evs {
		out[i] = *e
	}
	if err := u.pub.Publish(ctx, out); err != nil {
		log.Printf("ledger: publish %d events: %v", len(out), err)
		u.metrics.IncrementPublishFailures(len(out))
	}
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	if k, ok := errs.KindOf(err); ok {
		return string(k)
	}
	return "error"
}

func (u *Usecase) requireAdmin(caller string) error {
	c, err := address.Normalize(caller)
	if err != nil || u.params.Admin == "" || c != u.params.Admin {
		return errs.ErrUnauthorized
	}
	return nil
}

// parseAccount normalises an account identifier from the outside world.
func parseAccount(field, s string) (string, error) {
	a, err := address.Normalize(s)
	if err != nil {
		if errors.Is(err, address.ErrInvalid) {
			return "", errs.New(errs.InvalidInput, "%s: %q is not an account address", field, s)
		}
		return "", err
	}
	return a, nil
}

// requireUserAccount rejects the protocol's own accounts where a borrower,
// merchant or mint target is expected. Value moved to or from them would
// bypass the pool counters.
func (u *Usecase) requireUserAccount(field, addr string) error {
	switch addr {
	case u.params.Pool:
		return errs.New(errs.InvalidInput, "%s: the pool account cannot be used here", field)
	case u.params.Admin:
		return errs.New(errs.InvalidInput, "%s: the admin account cannot be used here", field)
	}
	return nil
}
