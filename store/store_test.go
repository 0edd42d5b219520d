package store

import (
	"errors"
	"testing"

	"github.com/goimmut/draft"
)

func newCounterState() *draft.Object {
	o := draft.NewObject()
	o.Set("count", 0)
	o.Set("log", draft.NewList())
	return o
}

func TestStore_DispatchAdvancesState(t *testing.T) {
	s, err := New(newCounterState())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	before := s.State()

	next, err := s.Dispatch(func(state any) error {
		o := state.(*draft.Object)
		o.Set("count", o.Get("count").(int)+1)
		return nil
	})
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if next.(*draft.Object).Get("count") != 1 {
		t.Errorf("count = %v, want 1", next.(*draft.Object).Get("count"))
	}
	if s.State() != next {
		t.Errorf("State() does not return the dispatched result")
	}
	if before.(*draft.Object).Get("count") != 0 {
		t.Errorf("previous state was modified")
	}
}

func TestStore_NoopDispatchKeepsIdentity(t *testing.T) {
	s, err := New(newCounterState())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	before := s.State()

	notified := false
	s.Subscribe(func(prev, next any) { notified = true })

	next, err := s.Dispatch(func(state any) error { return nil })
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if next != before {
		t.Errorf("no-op dispatch changed state identity")
	}
	if notified {
		t.Errorf("no-op dispatch notified subscribers")
	}
}

func TestStore_SubscribeAndUnsubscribe(t *testing.T) {
	s, err := New(newCounterState())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	var calls int
	var gotPrev, gotNext any
	unsub := s.Subscribe(func(prev, next any) {
		calls++
		gotPrev, gotNext = prev, next
	})

	before := s.State()
	next, err := s.Dispatch(func(state any) error {
		state.(*draft.Object).Set("count", 1)
		return nil
	})
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if calls != 1 {
		t.Fatalf("listener calls = %d, want 1", calls)
	}
	if gotPrev != before || gotNext != next {
		t.Errorf("listener got (%v, %v)", gotPrev, gotNext)
	}

	unsub()
	if _, err := s.Dispatch(func(state any) error {
		state.(*draft.Object).Set("count", 2)
		return nil
	}); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if calls != 1 {
		t.Errorf("unsubscribed listener was called")
	}
}

func TestStore_ReentrantDispatchFails(t *testing.T) {
	s, err := New(newCounterState())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	_, err = s.Dispatch(func(state any) error {
		_, inner := s.Dispatch(func(any) error { return nil })
		if !errors.Is(inner, ErrDispatch) {
			t.Errorf("inner Dispatch() error = %v, want ErrDispatch", inner)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("outer Dispatch() error = %v", err)
	}

	// The guard resets after a dispatch completes.
	if _, err := s.Dispatch(func(any) error { return nil }); err != nil {
		t.Errorf("Dispatch() after reentrancy attempt error = %v", err)
	}
}

func TestStore_ReentrantStateReadFails(t *testing.T) {
	s, err := New(newCounterState())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	before := s.State()

	_, err = s.Dispatch(func(state any) error {
		s.State()
		return nil
	})
	if !errors.Is(err, ErrDispatch) {
		t.Fatalf("Dispatch() error = %v, want ErrDispatch", err)
	}
	if s.State() != before {
		t.Errorf("failed dispatch changed the state")
	}
}

func TestStore_ReentrantSubscribeFails(t *testing.T) {
	s, err := New(newCounterState())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	unsub := s.Subscribe(func(any, any) {})

	_, err = s.Dispatch(func(state any) error {
		s.Subscribe(func(any, any) {})
		return nil
	})
	if !errors.Is(err, ErrDispatch) {
		t.Fatalf("Dispatch() with inner Subscribe error = %v, want ErrDispatch", err)
	}

	_, err = s.Dispatch(func(state any) error {
		unsub()
		return nil
	})
	if !errors.Is(err, ErrDispatch) {
		t.Fatalf("Dispatch() with inner unsubscribe error = %v, want ErrDispatch", err)
	}

	// The guard resets; both calls work between dispatches.
	unsub()
	if _, err := s.Dispatch(func(any) error { return nil }); err != nil {
		t.Errorf("Dispatch() after reentrancy attempts error = %v", err)
	}
}

func TestStore_RecipeErrorLeavesStateUntouched(t *testing.T) {
	s, err := New(newCounterState())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	before := s.State()
	boom := errors.New("boom")

	_, err = s.Dispatch(func(state any) error {
		state.(*draft.Object).Set("count", 99)
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Dispatch() error = %v, want boom", err)
	}
	if s.State() != before {
		t.Errorf("failed dispatch changed the state")
	}
}

func TestStore_DispatchWithPatches(t *testing.T) {
	s, err := New(newCounterState())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	before := s.State()

	next, fwd, inv, err := s.DispatchWithPatches(func(state any) error {
		state.(*draft.Object).Set("count", 5)
		return nil
	})
	if err != nil {
		t.Fatalf("DispatchWithPatches() error = %v", err)
	}
	if len(fwd) != 1 || fwd[0].Path != "/count" {
		t.Errorf("fwd = %v", fwd)
	}
	if len(inv) != 1 || inv[0].Value != 0 {
		t.Errorf("inv = %v", inv)
	}

	replayed, err := draft.Apply(before, fwd)
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if !draft.Equal(replayed, next) {
		t.Errorf("forward patch did not reproduce the dispatched state")
	}
}

func TestStore_RejectsNonDraftableInitialState(t *testing.T) {
	if _, err := New(42); err == nil {
		t.Fatalf("New(42) did not error")
	}
}
