package search

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/zarlcorp/zbook/internal/address"
	"github.com/zarlcorp/zbook/internal/lookup"
)

// fakeSearcher returns a fixed result and counts calls.
type fakeSearcher struct {
	calls  atomic.Int32
	result lookup.Result
}

func (f *fakeSearcher) Search(_ context.Context, _, _ string) lookup.Result {
	f.calls.Add(1)
	return f.result
}

// gatedSearcher blocks each call until its gate for that postcode is released.
type gatedSearcher struct {
	mu      sync.Mutex
	gates   map[string]chan struct{}
	started chan string
	results map[string]lookup.Result
}

func newGatedSearcher() *gatedSearcher {
	return &gatedSearcher{
		gates:   make(map[string]chan struct{}),
		started: make(chan string, 8),
		results: make(map[string]lookup.Result),
	}
}

func (g *gatedSearcher) gate(postCode string) chan struct{} {
	g.mu.Lock()
	defer g.mu.Unlock()
	ch, ok := g.gates[postCode]
	if !ok {
		ch = make(chan struct{})
		g.gates[postCode] = ch
	}
	return ch
}

func (g *gatedSearcher) respond(postCode string, res lookup.Result) {
	g.mu.Lock()
	g.results[postCode] = res
	g.mu.Unlock()
}

func (g *gatedSearcher) release(postCode string) {
	close(g.gate(postCode))
}

// Search ignores cancellation so tests can release a superseded lookup
// and observe that its outcome is discarded.
func (g *gatedSearcher) Search(_ context.Context, postCode, _ string) lookup.Result {
	g.started <- postCode
	<-g.gate(postCode)

	g.mu.Lock()
	defer g.mu.Unlock()
	return g.results[postCode]
}

type panicSearcher struct{}

func (panicSearcher) Search(context.Context, string, string) lookup.Result {
	panic("boom")
}

func okResult(records ...address.Raw) lookup.Result {
	return lookup.Result{Kind: lookup.KindOK, Records: records}
}

func waitStarted(t *testing.T, g *gatedSearcher, want string) {
	t.Helper()
	select {
	case got := <-g.started:
		if got != want {
			t.Fatalf("started: got %q, want %q", got, want)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("lookup for %q never started", want)
	}
}

func TestNewIsIdle(t *testing.T) {
	c := New(&fakeSearcher{})
	s := c.State()

	if s.Status != Idle {
		t.Errorf("status: got %v, want idle", s.Status)
	}
	if s.Loading || s.Err != "" || len(s.Results) != 0 {
		t.Errorf("unexpected initial state: %+v", s)
	}
}

func TestSearchMissingInput(t *testing.T) {
	tests := []struct {
		name        string
		postCode    string
		houseNumber string
	}{
		{"empty postcode", "", "10"},
		{"empty house number", "1234", ""},
		{"both empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeSearcher{}
			c := New(f)

			c.Search(context.Background(), tt.postCode, tt.houseNumber)
			c.Wait()

			s := c.State()
			if s.Status != Failed {
				t.Errorf("status: got %v, want failed", s.Status)
			}
			if s.Err != MsgMissingInput {
				t.Errorf("err: got %q, want %q", s.Err, MsgMissingInput)
			}
			if s.Loading {
				t.Error("should not be loading")
			}
			if n := f.calls.Load(); n != 0 {
				t.Errorf("client calls: got %d, want 0", n)
			}
		})
	}
}

func TestSearchWhitespaceReachesClient(t *testing.T) {
	f := &fakeSearcher{result: lookup.Result{Kind: lookup.KindError, Message: "Postcode must be all digits and non negative!"}}
	c := New(f)

	c.Search(context.Background(), "   ", "10")
	c.Wait()

	if n := f.calls.Load(); n != 1 {
		t.Fatalf("client calls: got %d, want 1", n)
	}
	if s := c.State(); s.Err != "Postcode must be all digits and non negative!" {
		t.Errorf("err: got %q, want the remote message", s.Err)
	}
}

func TestSearchSuccess(t *testing.T) {
	f := &fakeSearcher{result: okResult(address.Raw{"street": "Test Street", "city": "Test City"})}
	c := New(f)

	c.Search(context.Background(), "1234", "10")
	c.Wait()

	s := c.State()
	if s.Status != Success {
		t.Fatalf("status: got %v, want success (err %q)", s.Status, s.Err)
	}
	if s.Loading {
		t.Error("loading should be cleared")
	}
	if s.Err != "" {
		t.Errorf("err: got %q, want empty", s.Err)
	}
	if len(s.Results) != 1 {
		t.Fatalf("results: got %d, want 1", len(s.Results))
	}
	if s.Results[0].Street != "Test Street" {
		t.Errorf("street: got %q, want Test Street", s.Results[0].Street)
	}
	if s.Results[0].HouseNumber != "10" {
		t.Errorf("house number: got %q, want 10", s.Results[0].HouseNumber)
	}
	if s.Results[0].ID == "" {
		t.Error("result should have an id")
	}
}

func TestSearchResultIDMatchesReload(t *testing.T) {
	f := &fakeSearcher{result: okResult(address.Raw{"street": "Test Street", "city": "Test City", "postcode": "1234"})}
	c := New(f)

	c.Search(context.Background(), "1234", "10")
	c.Wait()

	got := c.State().Results[0]
	reloaded := address.Transform(address.Raw{
		"street":      got.Street,
		"city":        got.City,
		"postCode":    got.PostCode,
		"houseNumber": got.HouseNumber,
	})
	if reloaded.ID != got.ID {
		t.Errorf("id changed on reload: %q vs %q", reloaded.ID, got.ID)
	}
}

func TestSearchKeepsRecordHouseNumber(t *testing.T) {
	f := &fakeSearcher{result: okResult(address.Raw{"street": "Test Street", "houseNumber": "12a"})}
	c := New(f)

	c.Search(context.Background(), "1234", "12")
	c.Wait()

	if got := c.State().Results[0].HouseNumber; got != "12a" {
		t.Errorf("house number: got %q, want 12a", got)
	}
}

func TestSearchFailure(t *testing.T) {
	f := &fakeSearcher{result: lookup.Result{Kind: lookup.KindError, Message: lookup.MsgNoResults}}
	c := New(f)

	c.Search(context.Background(), "1234", "10")
	c.Wait()

	s := c.State()
	if s.Status != Failed {
		t.Errorf("status: got %v, want failed", s.Status)
	}
	if s.Err != lookup.MsgNoResults {
		t.Errorf("err: got %q, want %q", s.Err, lookup.MsgNoResults)
	}
	if len(s.Results) != 0 {
		t.Errorf("results: got %d, want 0", len(s.Results))
	}
}

func TestSearchClearsPreviousResults(t *testing.T) {
	g := newGatedSearcher()
	g.respond("1111", okResult(address.Raw{"street": "First"}))
	c := New(g)

	c.Search(context.Background(), "1111", "1")
	waitStarted(t, g, "1111")
	g.release("1111")
	c.Wait()

	c.Search(context.Background(), "2222", "2")
	waitStarted(t, g, "2222")

	s := c.State()
	if s.Status != Searching || !s.Loading {
		t.Errorf("expected searching while in flight, got %+v", s)
	}
	if len(s.Results) != 0 {
		t.Errorf("results should be cleared while searching, got %d", len(s.Results))
	}

	g.release("2222")
	c.Wait()
}

func TestPanicBecomesFetchFailure(t *testing.T) {
	c := New(panicSearcher{})

	c.Search(context.Background(), "1234", "10")
	c.Wait()

	s := c.State()
	if s.Status != Failed {
		t.Errorf("status: got %v, want failed", s.Status)
	}
	if s.Err != lookup.MsgFetchFailed {
		t.Errorf("err: got %q, want %q", s.Err, lookup.MsgFetchFailed)
	}
}

func TestClearDuringInFlightSearch(t *testing.T) {
	g := newGatedSearcher()
	g.respond("1234", okResult(address.Raw{"street": "Late Street"}))
	c := New(g)

	c.Search(context.Background(), "1234", "10")
	waitStarted(t, g, "1234")

	c.ClearResults()
	g.release("1234")
	c.Wait()

	s := c.State()
	if s.Status != Idle {
		t.Errorf("status: got %v, want idle", s.Status)
	}
	if len(s.Results) != 0 {
		t.Errorf("cleared results resurrected: %+v", s.Results)
	}
	if s.Loading {
		t.Error("loading should be false after clear")
	}
}

func TestLaterSearchWins(t *testing.T) {
	g := newGatedSearcher()
	g.respond("1111", okResult(address.Raw{"street": "Old Street"}))
	g.respond("2222", okResult(address.Raw{"street": "New Street"}))
	c := New(g)

	c.Search(context.Background(), "1111", "1")
	waitStarted(t, g, "1111")
	c.Search(context.Background(), "2222", "2")
	waitStarted(t, g, "2222")

	// newer resolves first, then the stale one
	g.release("2222")
	g.release("1111")
	c.Wait()

	s := c.State()
	if s.Status != Success {
		t.Fatalf("status: got %v, want success", s.Status)
	}
	if len(s.Results) != 1 || s.Results[0].Street != "New Street" {
		t.Errorf("stale response applied: %+v", s.Results)
	}
}

func TestSupersededLookupIsCanceled(t *testing.T) {
	canceled := make(chan struct{})

	c := New(searcherFunc(func(ctx context.Context, postCode, _ string) lookup.Result {
		if postCode == "1111" {
			<-ctx.Done()
			close(canceled)
			return lookup.Result{Kind: lookup.KindError, Message: lookup.MsgFetchFailed}
		}
		return okResult(address.Raw{"street": "Second"})
	}))

	c.Search(context.Background(), "1111", "1")
	c.Search(context.Background(), "2222", "2")

	select {
	case <-canceled:
	case <-time.After(2 * time.Second):
		t.Fatal("first lookup was not canceled")
	}
	c.Wait()

	if got := c.State(); got.Status != Success || got.Results[0].Street != "Second" {
		t.Errorf("unexpected state: %+v", got)
	}
}

type searcherFunc func(ctx context.Context, postCode, houseNumber string) lookup.Result

func (f searcherFunc) Search(ctx context.Context, postCode, houseNumber string) lookup.Result {
	return f(ctx, postCode, houseNumber)
}

func TestSubscribe(t *testing.T) {
	f := &fakeSearcher{result: okResult(address.Raw{"street": "Test Street"})}
	c := New(f)

	var mu sync.Mutex
	var got []Status
	unsub := c.Subscribe(func(s State) {
		mu.Lock()
		got = append(got, s.Status)
		mu.Unlock()
	})

	c.Search(context.Background(), "1234", "10")
	c.Wait()

	mu.Lock()
	if len(got) != 2 || got[0] != Searching || got[1] != Success {
		t.Errorf("states: got %v, want [searching success]", got)
	}
	mu.Unlock()

	unsub()
	c.ClearResults()

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 2 {
		t.Errorf("received state after unsubscribe: %v", got)
	}
}

func TestStateIsSnapshot(t *testing.T) {
	f := &fakeSearcher{result: okResult(address.Raw{"street": "Test Street"})}
	c := New(f)

	c.Search(context.Background(), "1234", "10")
	c.Wait()

	s := c.State()
	s.Results[0].Street = "Mutated"

	if got := c.State().Results[0].Street; got != "Test Street" {
		t.Errorf("state mutated through snapshot: %q", got)
	}
}

func TestStatusString(t *testing.T) {
	tests := []struct {
		s    Status
		want string
	}{
		{Idle, "idle"},
		{Searching, "searching"},
		{Success, "success"},
		{Failed, "failed"},
	}
	for _, tt := range tests {
		if got := tt.s.String(); got != tt.want {
			t.Errorf("%d: got %q, want %q", tt.s, got, tt.want)
		}
	}
}
