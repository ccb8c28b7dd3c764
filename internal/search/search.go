// Package search runs address lookups and owns the loading, error and
// result state shown to the user.
//
// Each Search call and each ClearResults bumps a generation counter. A
// lookup applies its outcome only if its generation is still current, so a
// slow response can never overwrite a newer search or a clear.
package search

import (
	"context"
	"log/slog"
	"sync"

	"github.com/zarlcorp/zbook/internal/address"
	"github.com/zarlcorp/zbook/internal/logger"
	"github.com/zarlcorp/zbook/internal/lookup"
)

// MsgMissingInput is shown when postcode or house number is empty.
const MsgMissingInput = "Please enter both postcode and house number"

// Status is the controller state.
type Status int

const (
	Idle Status = iota
	Searching
	Success
	Failed
)

func (s Status) String() string {
	switch s {
	case Searching:
		return "searching"
	case Success:
		return "success"
	case Failed:
		return "failed"
	}
	return "idle"
}

// State is a snapshot of the controller.
type State struct {
	Status  Status
	Loading bool
	Results []address.Address
	Err     string
}

// Searcher performs one remote lookup.
type Searcher interface {
	Search(ctx context.Context, postCode, houseNumber string) lookup.Result
}

// Controller orchestrates validation, lookup and transformation.
type Controller struct {
	client Searcher
	log    *slog.Logger

	mu     sync.Mutex
	state  State
	gen    uint64
	cancel context.CancelFunc
	subs   map[int]func(State)
	nextID int

	// notifyMu orders deliveries; it is taken before mu is released
	notifyMu sync.Mutex

	wg sync.WaitGroup
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the controller's logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) { c.log = l }
}

// New creates a controller in the Idle state.
func New(client Searcher, opts ...Option) *Controller {
	c := &Controller{
		client: client,
		log:    logger.Discard(),
		subs:   make(map[int]func(State)),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// State returns a snapshot of the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot()
}

// Subscribe registers fn to be called with every new state. fn runs on the
// goroutine that changed the state and must not call back into the
// controller synchronously. The returned func unsubscribes.
func (c *Controller) Subscribe(fn func(State)) func() {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.subs[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}

// Search starts a lookup and returns immediately. Empty input fails
// synchronously without calling the client.
func (c *Controller) Search(ctx context.Context, postCode, houseNumber string) {
	if postCode == "" || houseNumber == "" {
		c.mu.Lock()
		c.supersede()
		c.state = State{Status: Failed, Err: MsgMissingInput}
		c.publishLocked()
		return
	}

	c.mu.Lock()
	c.supersede()
	gen := c.gen
	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.state = State{Status: Searching, Loading: true}
	c.publishLocked()

	c.wg.Add(1)
	go c.run(runCtx, cancel, gen, postCode, houseNumber)
}

// ClearResults returns to Idle and discards any in-flight lookup's effect.
func (c *Controller) ClearResults() {
	c.mu.Lock()
	c.supersede()
	c.state = State{Status: Idle}
	c.publishLocked()
}

// Wait blocks until all started lookups have finished.
func (c *Controller) Wait() {
	c.wg.Wait()
}

func (c *Controller) run(ctx context.Context, cancel context.CancelFunc, gen uint64, postCode, houseNumber string) {
	defer c.wg.Done()
	defer cancel()

	res := c.lookup(ctx, postCode, houseNumber)

	var next State
	if res.OK() {
		next = State{Status: Success, Results: transform(res.Records, houseNumber)}
	} else {
		next = State{Status: Failed, Err: res.Message}
	}

	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		c.log.Debug("discarding stale lookup", "postcode", postCode, "generation", gen)
		return
	}
	c.cancel = nil
	c.state = next
	c.publishLocked()
}

// lookup calls the client, converting a panic into a fetch failure.
func (c *Controller) lookup(ctx context.Context, postCode, houseNumber string) (res lookup.Result) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Error("address lookup panicked", "postcode", postCode, "err", r)
			res = lookup.Result{Kind: lookup.KindError, Message: lookup.MsgFetchFailed}
		}
	}()
	return c.client.Search(ctx, postCode, houseNumber)
}

// transform maps records to addresses. The house number searched for is
// attached before transformation so that it takes part in the identity of
// coordinate-less records, matching what a reload of the saved entry yields.
func transform(records []address.Raw, houseNumber string) []address.Address {
	out := make([]address.Address, len(records))
	for i, r := range records {
		if !hasHouseNumber(r) {
			withNumber := make(address.Raw, len(r)+1)
			for k, v := range r {
				withNumber[k] = v
			}
			withNumber["houseNumber"] = houseNumber
			r = withNumber
		}
		out[i] = address.Transform(r)
	}
	return out
}

func hasHouseNumber(r address.Raw) bool {
	for _, k := range []string{"houseNumber", "streetnumber"} {
		if v, ok := r[k]; ok && v != nil && v != "" {
			return true
		}
	}
	return false
}

// supersede invalidates the current generation. Caller holds mu.
func (c *Controller) supersede() {
	c.gen++
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

// publishLocked snapshots state, releases mu and notifies subscribers.
func (c *Controller) publishLocked() {
	s := c.snapshot()
	subs := make([]func(State), 0, len(c.subs))
	for _, fn := range c.subs {
		subs = append(subs, fn)
	}
	c.notifyMu.Lock()
	c.mu.Unlock()
	defer c.notifyMu.Unlock()

	for _, fn := range subs {
		fn(s)
	}
}

func (c *Controller) snapshot() State {
	s := c.state
	if s.Results != nil {
		s.Results = append([]address.Address(nil), s.Results...)
	}
	return s
}
