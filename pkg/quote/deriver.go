package quote

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"tradedash/pkg/api"
)

// Draft is the user-editable swap form state. ToAmount is derived: only the
// Deriver writes it, and only from the quote matching the current inputs.
type Draft struct {
	FromToken  string
	ToToken    string
	FromAmount string
	ToAmount   string
}

// Quoter prices a swap. Satisfied by *api.Client.
type Quoter interface {
	GetSwapQuote(ctx context.Context, fromToken, toToken string, amount decimal.Decimal) (api.SwapQuote, error)
}

// Deriver keeps the swap draft and its derived quote in sync. Every input
// change bumps a generation counter and the matching request carries that
// generation; a response is applied only while its generation is still the
// latest, so a slow response for superseded inputs can never overwrite a
// fresher quote, whatever order the network answers in.
type Deriver struct {
	quoter   Quoter
	settle   time.Duration
	log      *zap.Logger
	onUpdate func()

	mu     sync.Mutex
	draft  Draft
	quote  *api.SwapQuote
	gen    uint64
	cancel context.CancelFunc
}

// NewDeriver creates a deriver. settle is the optional input-settling delay
// before a request fires; zero fires on every change.
func NewDeriver(quoter Quoter, settle time.Duration, log *zap.Logger) *Deriver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Deriver{quoter: quoter, settle: settle, log: log}
}

// OnUpdate registers fn to run after every draft or quote change. Must be set
// before the first SetDraft.
func (d *Deriver) OnUpdate(fn func()) { d.onUpdate = fn }

// Draft returns the current draft, including the derived ToAmount.
func (d *Deriver) Draft() Draft {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.draft
}

// Quote returns the current quote, if one matches the draft.
func (d *Deriver) Quote() (api.SwapQuote, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.quote == nil {
		return api.SwapQuote{}, false
	}
	return *d.quote, true
}

// SetDraft applies a user edit to the swap inputs and re-derives the quote.
// An empty, non-numeric or non-positive amount clears the quote without a
// network call. Re-setting an unchanged draft issues no new request.
func (d *Deriver) SetDraft(ctx context.Context, fromToken, toToken, fromAmount string) {
	fromAmount = strings.TrimSpace(fromAmount)

	d.mu.Lock()
	if fromToken == d.draft.FromToken && toToken == d.draft.ToToken && fromAmount == d.draft.FromAmount {
		d.mu.Unlock()
		return
	}

	d.draft = Draft{FromToken: fromToken, ToToken: toToken, FromAmount: fromAmount}
	d.gen++
	gen := d.gen
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}

	amount, err := decimal.NewFromString(fromAmount)
	if fromAmount == "" || err != nil || !amount.IsPositive() {
		d.quote = nil
		d.mu.Unlock()
		d.notify()
		return
	}

	reqCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	d.mu.Unlock()
	d.notify()

	go d.derive(reqCtx, gen, fromToken, toToken, amount)
}

// Flip swaps the direction of the draft, carrying the derived output amount
// over as the new input amount.
func (d *Deriver) Flip(ctx context.Context) {
	d.mu.Lock()
	from, to, amount := d.draft.ToToken, d.draft.FromToken, d.draft.ToAmount
	d.mu.Unlock()
	d.SetDraft(ctx, from, to, amount)
}

// Clear resets the draft amounts and discards the quote. Any in-flight
// derivation is superseded.
func (d *Deriver) Clear() {
	d.mu.Lock()
	d.gen++
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.draft.FromAmount = ""
	d.draft.ToAmount = ""
	d.quote = nil
	d.mu.Unlock()
	d.notify()
}

func (d *Deriver) derive(ctx context.Context, gen uint64, fromToken, toToken string, amount decimal.Decimal) {
	if d.settle > 0 {
		select {
		case <-ctx.Done():
			return
		case <-time.After(d.settle):
		}
	}

	q, err := d.quoter.GetSwapQuote(ctx, fromToken, toToken, amount)

	d.mu.Lock()
	if gen != d.gen {
		d.mu.Unlock()
		d.log.Debug("discarding superseded quote response", zap.Uint64("generation", gen))
		return
	}
	if err != nil {
		// No terminal error here: execution simply stays disabled until a
		// quote exists again.
		d.quote = nil
		d.draft.ToAmount = ""
		d.mu.Unlock()
		d.log.Debug("quote derivation failed", zap.Error(err))
		d.notify()
		return
	}
	d.quote = &q
	d.draft.ToAmount = q.ToAmount.StringFixed(6)
	d.mu.Unlock()
	d.log.Debug("quote derived",
		zap.Uint64("generation", gen),
		zap.String("from", fromToken),
		zap.String("to", toToken),
		zap.String("rate", q.Rate.String()))
	d.notify()
}

func (d *Deriver) notify() {
	if d.onUpdate != nil {
		d.onUpdate()
	}
}
