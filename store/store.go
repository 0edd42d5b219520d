// Package store provides a minimal state container built on draft.Produce:
// a single immutable state value advanced by dispatched recipes, with
// subscribers notified after every change.
package store

import (
	"errors"
	"fmt"
	"sync"

	"github.com/goimmut/draft"
	"github.com/goimmut/draft/patch"
)

// ErrDispatch reports reentrant use of the store: dispatching, reading the
// state, subscribing or unsubscribing while a recipe is executing.
var ErrDispatch = errors.New("store: invalid dispatch")

// Recipe mutates a draft of the store's state.
type Recipe func(state any) error

// Listener observes state transitions. prev and next are both immutable;
// when nothing changed the store does not notify.
type Listener func(prev, next any)

// Store holds one immutable state value.
type Store struct {
	mu          sync.Mutex
	state       any
	dispatching bool
	opts        []draft.Option

	subMu  sync.Mutex
	nextID int
	subs   map[int]Listener
}

// New returns a store initialized with the given state. The state is
// locked; initial must be a node tree.
func New(initial any, opts ...draft.Option) (*Store, error) {
	if _, err := draft.Produce(initial, func(any) error { return nil }, opts...); err != nil {
		return nil, err
	}
	return &Store{
		state: draft.Lock(initial),
		opts:  opts,
		subs:  map[int]Listener{},
	}, nil
}

// State returns the current immutable state. Reading the state from inside
// a recipe panics with ErrDispatch; the enclosing Dispatch recovers it into
// its returned error.
func (s *Store) State() any {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dispatching {
		panic(fmt.Errorf("%w: state read during dispatch", ErrDispatch))
	}
	return s.state
}

// checkNotDispatching panics with ErrDispatch when called while a recipe is
// executing.
func (s *Store) checkNotDispatching(op string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dispatching {
		panic(fmt.Errorf("%w: %s during dispatch", ErrDispatch, op))
	}
}

// Dispatch advances the state by running recipe against a draft of it.
// Dispatching from inside a recipe fails with ErrDispatch.
func (s *Store) Dispatch(recipe Recipe) (any, error) {
	next, _, _, err := s.dispatch(recipe, false)
	return next, err
}

// DispatchWithPatches is Dispatch returning the forward and inverse patches
// of the transition.
func (s *Store) DispatchWithPatches(recipe Recipe) (any, patch.Patch, patch.Patch, error) {
	return s.dispatch(recipe, true)
}

func (s *Store) dispatch(recipe Recipe, withPatches bool) (any, patch.Patch, patch.Patch, error) {
	s.mu.Lock()
	if s.dispatching {
		s.mu.Unlock()
		return nil, nil, nil, fmt.Errorf("%w: reentrant dispatch", ErrDispatch)
	}
	s.dispatching = true
	prev := s.state
	s.mu.Unlock()

	var (
		next any
		fwd  patch.Patch
		inv  patch.Patch
		err  error
	)
	func() {
		// Reentrant State/Subscribe calls inside the recipe panic with
		// ErrDispatch; surface them as the dispatch error.
		defer func() {
			if r := recover(); r != nil {
				if e, ok := r.(error); ok && errors.Is(e, ErrDispatch) {
					next, fwd, inv, err = nil, nil, nil, e
					return
				}
				panic(r)
			}
		}()
		if withPatches {
			next, fwd, inv, err = draft.ProduceWithPatches(prev, func(d any) error { return recipe(d) }, s.opts...)
		} else {
			next, err = draft.Produce(prev, func(d any) error { return recipe(d) }, s.opts...)
		}
	}()

	s.mu.Lock()
	s.dispatching = false
	if err != nil {
		s.mu.Unlock()
		return nil, nil, nil, err
	}
	s.state = next
	s.mu.Unlock()

	if !identical(prev, next) {
		s.notify(prev, next)
	}
	return next, fwd, inv, nil
}

// Subscribe registers a listener and returns a function that removes it.
// Subscribing or unsubscribing from inside a recipe panics with ErrDispatch;
// the enclosing Dispatch recovers it into its returned error.
func (s *Store) Subscribe(l Listener) (unsubscribe func()) {
	s.checkNotDispatching("subscribe")
	s.subMu.Lock()
	defer s.subMu.Unlock()
	id := s.nextID
	s.nextID++
	s.subs[id] = l
	return func() {
		s.checkNotDispatching("unsubscribe")
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.subs, id)
	}
}

func (s *Store) notify(prev, next any) {
	s.subMu.Lock()
	listeners := make([]Listener, 0, len(s.subs))
	for _, l := range s.subs {
		listeners = append(listeners, l)
	}
	s.subMu.Unlock()
	for _, l := range listeners {
		l(prev, next)
	}
}

func identical(a, b any) bool {
	an, aok := a.(draft.Node)
	bn, bok := b.(draft.Node)
	if aok && bok {
		return an == bn
	}
	return false
}
