package draft

import "fmt"

// state is the bookkeeping attached to every draft node. Plain nodes carry
// no state; a non-nil state means the node is (or was) a draft.
type state struct {
	scope    *scope
	original any
	path     *PathSegment
	changed  bool
	revoked  bool
}

func (s *state) base() *state { return s }

// checkUsable panics with ErrRevoked if the owning scope has already been
// closed. Accessors call this on every draft touch.
func (s *state) checkUsable() {
	if s.revoked {
		panic(fmt.Errorf("%w: the owning scope has been closed", ErrRevoked))
	}
}

func (s *state) childPath(token string) *PathSegment {
	if s.scope == nil || !s.scope.patches {
		return nil
	}
	return s.path.child(token)
}

// draftChild implements the lazy drafting rule shared by object properties
// and collection elements: reading a locked node through a draft yields a
// child draft of the same scope, created at most once and memoized by the
// caller. Everything else, scalars, values set during the recipe, and
// values read while the scope is finishing, comes back as-is.
func (s *state) draftChild(v any, token string, memo func(any)) any {
	n, ok := asNode(v)
	if !ok {
		return v
	}
	if s.scope == nil || s.scope.finishing || s.scope.passesThrough(v) {
		return v
	}
	if n.baseState() != nil || !n.Locked() {
		return v
	}
	child, err := s.scope.createDraft(n, s.childPath(token))
	if err != nil {
		panic(err)
	}
	memo(child)
	return child
}

// objectState tracks lazily drafted children in a side table so that an
// unchanged object can still hand out drafts without losing its identity.
type objectState struct {
	state
	children   map[string]any
	childOrder []string
}

func (s *objectState) recordChild(name string, child any) {
	if _, ok := s.children[name]; !ok {
		s.childOrder = append(s.childOrder, name)
	}
	s.children[name] = child
}

// collectionState serves lists and maps. owned tracks whether the draft has
// claimed a private copy of the backing storage yet; changed additionally
// records that the collection must not collapse back to its original.
type collectionState struct {
	state
	owned bool
}

func (s *collectionState) ensureOwned(cow func()) {
	if s.owned {
		return
	}
	cow()
	s.owned = true
}

// modify runs a write against the collection under the copy-on-write-once
// contract. The copy is suppressed while the owning scope is finishing so
// reconciliation can rewrite elements in place.
func (s *collectionState) modify(cow, apply func()) {
	s.checkUsable()
	if s.scope != nil && s.scope.finishing {
		apply()
		return
	}
	s.ensureOwned(cow)
	s.changed = true
	apply()
}
