package swap

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"tradedash/pkg/api"
	"tradedash/pkg/quote"
)

var (
	// ErrNoQuote means execution was requested without a quote matching the
	// current draft.
	ErrNoQuote = errors.New("no quote for the current swap inputs")
	// ErrInFlight means a previous execution has not resolved yet; at most
	// one swap runs at a time.
	ErrInFlight = errors.New("a swap is already in flight")
)

// Submitter posts the swap order. Satisfied by *api.Client.
type Submitter interface {
	ExecuteSwap(ctx context.Context, order api.SwapOrder) error
}

// Refresher is the poller surface the executor pokes after a successful
// swap. Satisfied by *source.Poller[T].
type Refresher interface {
	Refresh()
}

// Executor runs swaps with exclusive-in-flight semantics. On success it
// clears the draft and quote and forces the registered pollers (balance,
// recent trades) to refetch immediately instead of waiting for their next
// tick. On failure the draft and quote are left untouched so the user can
// retry without re-entering amounts.
type Executor struct {
	submitter  Submitter
	deriver    *quote.Deriver
	log        *zap.Logger
	refreshers []Refresher

	inFlight atomic.Bool
}

// NewExecutor wires an executor to the deriver holding the draft and quote.
func NewExecutor(submitter Submitter, deriver *quote.Deriver, log *zap.Logger) *Executor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Executor{submitter: submitter, deriver: deriver, log: log}
}

// RefreshAfterSwap registers pollers to force-refresh after every successful
// execution.
func (e *Executor) RefreshAfterSwap(rs ...Refresher) {
	e.refreshers = append(e.refreshers, rs...)
}

// Busy reports whether an execution is currently in flight.
func (e *Executor) Busy() bool { return e.inFlight.Load() }

// Execute submits the swap described by the current draft and quote.
func (e *Executor) Execute(ctx context.Context) error {
	draft := e.deriver.Draft()
	q, ok := e.deriver.Quote()
	if !ok || draft.FromAmount == "" {
		return ErrNoQuote
	}
	amount, err := decimal.NewFromString(draft.FromAmount)
	if err != nil || !amount.IsPositive() {
		return ErrNoQuote
	}
	// The quote must price exactly the draft being executed.
	if q.FromToken != draft.FromToken || q.ToToken != draft.ToToken || !q.FromAmount.Equal(amount) {
		return ErrNoQuote
	}

	if !e.inFlight.CompareAndSwap(false, true) {
		return ErrInFlight
	}
	defer e.inFlight.Store(false)

	order := api.SwapOrder{
		FromToken: draft.FromToken,
		ToToken:   draft.ToToken,
		Amount:    amount,
		Slippage:  q.Slippage,
	}
	if err := e.submitter.ExecuteSwap(ctx, order); err != nil {
		e.log.Warn("swap execution failed",
			zap.String("from", order.FromToken),
			zap.String("to", order.ToToken),
			zap.Error(err))
		return err
	}

	e.deriver.Clear()
	for _, r := range e.refreshers {
		r.Refresh()
	}
	e.log.Info("swap executed",
		zap.String("from", order.FromToken),
		zap.String("to", order.ToToken),
		zap.String("amount", amount.String()))
	return nil
}
