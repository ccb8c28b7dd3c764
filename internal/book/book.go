// Package book holds the saved address book and keeps it in sync with a
// persistence gateway.
package book

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"

	"github.com/zarlcorp/zbook/internal/address"
	"github.com/zarlcorp/zbook/internal/apperr"
	"github.com/zarlcorp/zbook/internal/logger"
	"github.com/zarlcorp/zbook/internal/store"
)

// StorageKey is the gateway key holding the whole list.
const StorageKey = "addresses"

// MsgSaveFailed is the user-facing message of a failed write.
const MsgSaveFailed = "Could not save the address book"

// Store is the ordered, id-unique list of saved addresses.
//
// Every mutation and the write that follows it happen under one operation
// lock, so writes reach the gateway in mutation order and the last write
// always holds the latest list.
type Store struct {
	gw  store.Gateway
	log *slog.Logger

	op sync.Mutex // serialises mutate+persist and LoadSaved

	mu      sync.RWMutex
	list    []address.Address
	loading bool
	subs    map[int]func([]address.Address)
	nextID  int
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the store's logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.log = l }
}

// New creates an empty store that reports Loading until LoadSaved completes.
func New(gw store.Gateway, opts ...Option) *Store {
	s := &Store{
		gw:      gw,
		log:     logger.Discard(),
		loading: true,
		subs:    make(map[int]func([]address.Address)),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Dispatch applies an action and persists the resulting list. The in-memory
// change is kept even when the write fails; the returned error is then a
// persistence *apperr.Error.
func (s *Store) Dispatch(ctx context.Context, a Action) error {
	s.op.Lock()
	defer s.op.Unlock()

	list := s.apply(a)
	return s.persist(ctx, a.op(), list)
}

// Add inserts a, or replaces the entry with the same id in place.
func (s *Store) Add(ctx context.Context, a address.Address) error {
	return s.Dispatch(ctx, AddAction{Address: a})
}

// Remove deletes the entry with id. An absent id leaves the list unchanged
// but is still persisted.
func (s *Store) Remove(ctx context.Context, id string) error {
	return s.Dispatch(ctx, RemoveAction{ID: id})
}

// LoadSaved replaces the list with what the gateway holds. A missing,
// malformed or unreadable document leaves the list empty; the problem is
// logged, never returned. Loading is false afterwards.
func (s *Store) LoadSaved(ctx context.Context) {
	s.op.Lock()
	defer s.op.Unlock()

	saved := s.readSaved(ctx)
	s.apply(ReplaceAction{Addresses: saved})

	s.mu.Lock()
	s.loading = false
	s.mu.Unlock()
}

func (s *Store) readSaved(ctx context.Context) []address.Address {
	data, err := s.gw.GetItem(ctx, StorageKey)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.log.Error("load address book", "err", err)
		}
		return nil
	}

	var raws []address.Raw
	if err := json.Unmarshal(data, &raws); err != nil {
		s.log.Warn("load address book: saved value is not a list", "err", err)
		return nil
	}

	return address.TransformAll(raws)
}

// Loading reports whether the initial load is still pending.
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// List returns a copy of the saved addresses in order.
func (s *Store) List() []address.Address {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clone(s.list)
}

// Get returns the entry with id.
func (s *Store) Get(id string) (address.Address, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.list {
		if a.ID == id {
			return a, true
		}
	}
	return address.Address{}, false
}

// Subscribe registers fn to receive the list after every change. fn must
// not call back into Dispatch, Add, Remove or LoadSaved synchronously. The
// returned func unsubscribes.
func (s *Store) Subscribe(fn func([]address.Address)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// apply reduces the action into the list and notifies subscribers.
// Caller holds op.
func (s *Store) apply(a Action) []address.Address {
	s.mu.Lock()
	s.list = reduce(s.list, a)
	list := clone(s.list)
	subs := make([]func([]address.Address), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(clone(list))
	}
	return list
}

// persist writes the whole list. Caller holds op.
func (s *Store) persist(ctx context.Context, op string, list []address.Address) error {
	if list == nil {
		list = []address.Address{}
	}
	if err := s.gw.SetItem(ctx, StorageKey, list); err != nil {
		s.log.Error("save address book", "op", op, "count", len(list), "err", err)
		return apperr.Persistence(MsgSaveFailed, err).WithOp(op)
	}
	return nil
}

func clone(list []address.Address) []address.Address {
	if list == nil {
		return nil
	}
	return append([]address.Address(nil), list...)
}
