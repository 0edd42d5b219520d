package draft

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/goimmut/draft/patch"
)

// Produce runs recipe against a draft of base and returns the next
// immutable value. The draft records every change; untouched subtrees of
// the result are the very same instances as in base, and a recipe that
// changes nothing returns base itself. The returned value is locked.
func Produce[T any](base T, recipe func(draft T) error, opts ...Option) (T, error) {
	var zero T
	res, _, _, err := produce(any(base), func(d any) (any, error) {
		return nil, recipe(d.(T))
	}, false, opts)
	if err != nil {
		return zero, err
	}
	out, ok := res.(T)
	if !ok {
		return zero, fmt.Errorf("%w: result %T is not %T", ErrDraft, res, zero)
	}
	return out, nil
}

// ProduceValue is Produce for recipes that return their result. Returning
// the draft itself (or a value derived from it by mutation) behaves like
// Produce; returning any other value replaces the result wholesale.
func ProduceValue[T any](base T, recipe func(draft T) (T, error), opts ...Option) (T, error) {
	var zero T
	res, _, _, err := produce(any(base), func(d any) (any, error) {
		r, err := recipe(d.(T))
		if err != nil {
			return nil, err
		}
		return any(r), nil
	}, false, opts)
	if err != nil {
		return zero, err
	}
	out, ok := res.(T)
	if !ok {
		return zero, fmt.Errorf("%w: result %T is not %T", ErrDraft, res, zero)
	}
	return out, nil
}

// ProduceWithPatches is Produce plus the forward and inverse RFC 6902
// patches describing the change. Applying the forward patch to base yields
// the result; applying the inverse patch to the result yields base. When
// called on a draft of an enclosing Produce that is itself collecting
// patches, the operations bubble up to it and both returned patches are
// empty.
func ProduceWithPatches[T any](base T, recipe func(draft T) error, opts ...Option) (T, patch.Patch, patch.Patch, error) {
	var zero T
	res, fwd, inv, err := produce(any(base), func(d any) (any, error) {
		return nil, recipe(d.(T))
	}, true, opts)
	if err != nil {
		return zero, nil, nil, err
	}
	out, ok := res.(T)
	if !ok {
		return zero, nil, nil, fmt.Errorf("%w: result %T is not %T", ErrDraft, res, zero)
	}
	return out, fwd, inv, nil
}

// Producer binds a recipe into a reusable transition function.
func Producer[T any](recipe func(draft T) error, opts ...Option) func(T) (T, error) {
	return func(base T) (T, error) {
		return Produce(base, recipe, opts...)
	}
}

func produce(base any, recipe func(any) (any, error), withPatches bool, opts []Option) (result any, fwd, inv patch.Patch, err error) {
	cfg := newConfig(opts)

	// Producing from a live draft nests: the child scope starts from a
	// snapshot of the draft's current view and feeds patches upward.
	src := base
	var parent *scope
	if n, ok := asNode(base); ok {
		if st := n.baseState(); st != nil {
			if st.revoked {
				return nil, nil, nil, fmt.Errorf("%w: cannot produce from a revoked draft", ErrRevoked)
			}
			parent = st.scope
			src = Current(base)
		}
	}

	n, ok := asNode(src)
	if !ok {
		return nil, nil, nil, fmt.Errorf("%w: cannot produce from %T", ErrNotDraftable, src)
	}
	if err := validateTree(src, cfg); err != nil {
		return nil, nil, nil, err
	}
	// The base becomes the immutable original the draft records against.
	lockValue(src)

	collect := withPatches || (parent != nil && parent.patches)
	s := newScope(cfg, parent, collect)

	d, derr := s.createDraft(n, nil)
	if derr != nil {
		s.dispose()
		return nil, nil, nil, derr
	}

	defer func() {
		if r := recover(); r != nil {
			s.dispose()
			if e, ok := r.(error); ok && errors.Is(e, ErrDraft) {
				result, fwd, inv, err = nil, nil, nil, e
				return
			}
			panic(r)
		}
	}()

	rep, rerr := recipe(d)
	if rerr != nil {
		s.dispose()
		return nil, nil, nil, rerr
	}

	target := any(d)
	replaced := false
	if !isNilValue(rep) && !valueIdentical(rep, any(d)) {
		target = rep
		replaced = true
	}

	result, err = s.finish(target, src, replaced)
	if err != nil {
		return nil, nil, nil, err
	}
	return result, s.fwd, s.inv, nil
}

func isNilValue(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func:
		return rv.IsNil()
	}
	return false
}
