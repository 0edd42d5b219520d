package draft

import (
	"fmt"

	"github.com/goimmut/draft/patch"
)

// scope owns every draft created during one Produce call. Closing the scope
// revokes all of its drafts; nested Produce calls get child scopes that
// bubble their patches up to the parent.
type scope struct {
	cfg       *config
	parent    *scope
	drafts    []Node
	finishing bool
	patches   bool
	fwd       patch.Patch
	inv       patch.Patch
}

func newScope(cfg *config, parent *scope, patches bool) *scope {
	return &scope{cfg: cfg, parent: parent, patches: patches}
}

func (s *scope) passesThrough(v any) bool {
	return s.cfg.passesThrough(v)
}

// createDraft attaches a new draft for source to this scope. source must be
// a node that is not already a draft of this scope.
func (s *scope) createDraft(source Node, path *PathSegment) (Node, error) {
	if st := source.baseState(); st != nil && st.scope == s {
		return nil, fmt.Errorf("%w: value is already a draft of this scope", ErrDraft)
	}
	var d Node
	switch src := source.(type) {
	case *Object:
		o := &Object{typ: src.typ, keys: src.keys, props: src.props}
		o.st = &objectState{
			state:    state{scope: s, original: src, path: path},
			children: map[string]any{},
		}
		d = o
	case *List:
		l := &List{elems: src.elems}
		l.st = &collectionState{state: state{scope: s, original: src, path: path}}
		d = l
	case *Map:
		m := &Map{entries: src.entries}
		m.st = &collectionState{state: state{scope: s, original: src, path: path}}
		d = m
	default:
		return nil, fmt.Errorf("%w: %T", ErrNotDraftable, source)
	}
	s.drafts = append(s.drafts, d)
	return d, nil
}

// dispose revokes every draft the scope handed out. Idempotent.
func (s *scope) dispose() {
	for _, d := range s.drafts {
		revokeDraft(d)
	}
	s.drafts = nil
}

func revokeDraft(n Node) {
	st := n.baseState()
	if st == nil || st.revoked {
		return
	}
	st.revoked = true
}

// finish reconciles the scope's result, locks it, and settles the patch
// streams. base is the pre-draft source, used for the inverse of a
// wholesale replacement. The scope is always disposed, even on error.
func (s *scope) finish(root, base any, replaced bool) (result any, err error) {
	defer s.dispose()
	s.finishing = true

	ctx := newReconcileContext()
	result, _, err = s.reconcileValue(ctx, root, 0)
	if err != nil {
		return nil, err
	}
	lockValue(result)

	if s.patches {
		if replaced {
			// A replacement supersedes any granular edits made before it.
			s.fwd = patch.Patch{{Op: patch.OperationTypeReplace, Path: "", Value: result}}
			s.inv = patch.Patch{{Op: patch.OperationTypeReplace, Path: "", Value: base}}
		}
		if s.parent != nil && s.parent.patches {
			// Nested scopes feed the parent; the single reversal of the
			// inverse stream happens only at the root scope.
			s.parent.fwd = append(s.parent.fwd, s.fwd...)
			s.parent.inv = append(s.parent.inv, s.inv...)
			s.fwd, s.inv = nil, nil
		} else {
			s.inv = s.inv.Reversed()
		}
	}
	return result, nil
}

func (s *scope) emit(fwd, inv patch.Operation) {
	s.fwd = append(s.fwd, fwd)
	s.inv = append(s.inv, inv)
}

// reconcileContext carries the per-finish bookkeeping for the depth-first
// walk: drafts currently being resolved (for cycle unrolling), finished
// results, the original each changed result replaced (for tolerant patch
// equality), and deferred writes that re-close unrolled cycles.
type reconcileContext struct {
	resolving map[*state]bool
	resolved  map[*state]any
	originOf  map[Node]any
	settled   map[Node]bool
	pending   map[*state][]func(final any)
}

func newReconcileContext() *reconcileContext {
	return &reconcileContext{
		resolving: map[*state]bool{},
		resolved:  map[*state]any{},
		originOf:  map[Node]any{},
		settled:   map[Node]bool{},
		pending:   map[*state][]func(any){},
	}
}

// reconcileValue resolves one value depth-first. The second return is
// non-nil only when v is a draft currently being resolved further up the
// stack: the caller gets the draft's original for now and must register a
// deferred write keyed on that state to pick up the final result.
func (s *scope) reconcileValue(ctx *reconcileContext, v any, depth int) (any, *state, error) {
	if depth > s.cfg.maxDepth {
		return nil, nil, fmt.Errorf("%w: reconcile depth exceeds %d", ErrCircularReference, s.cfg.maxDepth)
	}
	if v == nil {
		return nil, nil, nil
	}
	n, ok := asNode(v)
	if !ok || s.passesThrough(v) {
		return v, nil, nil
	}
	if ctx.settled[n] {
		return v, nil, nil
	}
	st := n.baseState()
	if st == nil {
		if n.Locked() {
			return v, nil, nil
		}
		return s.reconcileFresh(ctx, n, depth)
	}
	if st.scope != s {
		if st.revoked {
			return nil, nil, fmt.Errorf("%w: reconcile reached a draft of a closed scope", ErrRevoked)
		}
		// A live draft belonging to an enclosing scope: freeze its view.
		return Current(v), nil, nil
	}
	if r, ok := ctx.resolved[st]; ok {
		return r, nil, nil
	}
	if ctx.resolving[st] {
		return st.original, st, nil
	}
	ctx.resolving[st] = true

	var (
		res any
		err error
	)
	switch d := n.(type) {
	case *Object:
		res, err = s.reconcileObject(ctx, d, depth)
	case *List:
		res, err = s.reconcileList(ctx, d, depth)
	case *Map:
		res, err = s.reconcileMap(ctx, d, depth)
	}
	delete(ctx.resolving, st)
	if err != nil {
		return nil, nil, err
	}
	ctx.resolved[st] = res
	if rn, ok := asNode(res); ok {
		ctx.settled[rn] = true
		if !valueIdentical(res, st.original) {
			ctx.originOf[rn] = st.original
		}
	}
	for _, fix := range ctx.pending[st] {
		fix(res)
	}
	delete(ctx.pending, st)
	return res, nil, nil
}

// reconcileFresh descends into a node created during the recipe, resolving
// any drafts stored inside it in place. Fresh nodes keep their identity.
func (s *scope) reconcileFresh(ctx *reconcileContext, n Node, depth int) (any, *state, error) {
	switch d := n.(type) {
	case *Object:
		for _, k := range d.keys {
			cv := d.props[k]
			res, pend, err := s.reconcileValue(ctx, cv, depth+1)
			if err != nil {
				return nil, nil, err
			}
			if !valueIdentical(res, cv) {
				d.props[k] = res
			}
			if pend != nil {
				k := k
				ctx.pending[pend] = append(ctx.pending[pend], func(final any) {
					d.props[k] = final
				})
			}
		}
	case *List:
		for i := range d.elems {
			cv := d.elems[i]
			res, pend, err := s.reconcileValue(ctx, cv, depth+1)
			if err != nil {
				return nil, nil, err
			}
			if !valueIdentical(res, cv) {
				d.elems[i] = res
			}
			if pend != nil {
				i := i
				ctx.pending[pend] = append(ctx.pending[pend], func(final any) {
					d.elems[i] = final
				})
			}
		}
	case *Map:
		for _, k := range sortedKeys(d.entries) {
			cv := d.entries[k]
			res, pend, err := s.reconcileValue(ctx, cv, depth+1)
			if err != nil {
				return nil, nil, err
			}
			if !valueIdentical(res, cv) {
				d.entries[k] = res
			}
			if pend != nil {
				k := k
				ctx.pending[pend] = append(ctx.pending[pend], func(final any) {
					d.entries[k] = final
				})
			}
		}
	}
	ctx.settled[n] = true
	return n, nil, nil
}

func (s *scope) reconcileObject(ctx *reconcileContext, d *Object, depth int) (any, error) {
	st := d.st
	orig := st.original.(*Object)

	// Children handed out through reads, in creation order.
	for _, name := range st.childOrder {
		child, ok := st.children[name]
		if !ok {
			continue
		}
		res, pend, err := s.reconcileValue(ctx, child, depth+1)
		if err != nil {
			return nil, err
		}
		stored := d.props[name]
		if !valueIdentical(res, stored) {
			st.copyOnWriteOnce(d)
			d.setProp(name, res)
		}
		if pend != nil {
			name := name
			st.copyOnWriteOnce(d)
			ctx.pending[pend] = append(ctx.pending[pend], func(final any) {
				d.props[name] = final
			})
		}
	}

	// Values written directly into the draft's own storage.
	if st.changed {
		for _, name := range d.keys {
			cv := d.props[name]
			cn, ok := asNode(cv)
			if !ok {
				continue
			}
			if cn.baseState() == nil && cn.Locked() {
				continue
			}
			res, pend, err := s.reconcileValue(ctx, cv, depth+1)
			if err != nil {
				return nil, err
			}
			if !valueIdentical(res, cv) {
				d.props[name] = res
			}
			if pend != nil {
				name := name
				ctx.pending[pend] = append(ctx.pending[pend], func(final any) {
					d.props[name] = final
				})
			}
		}
	}

	if !st.changed {
		return orig, nil
	}
	if s.patches {
		s.diffObject(ctx, st.path.String(), orig, d)
	}
	// The result shares the draft's private storage so that deferred
	// cycle writes land in the final node.
	return &Object{typ: d.typ, keys: d.keys, props: d.props}, nil
}

func (s *scope) reconcileList(ctx *reconcileContext, d *List, depth int) (any, error) {
	st := d.st
	orig := st.original.(*List)

	if st.owned {
		for i := range d.elems {
			cv := d.elems[i]
			if _, ok := asNode(cv); !ok {
				continue
			}
			if isDraftOf(cv, s) {
				// Drafting an element counts as a touch even when its
				// content round-trips unchanged.
				st.changed = true
			}
			res, pend, err := s.reconcileValue(ctx, cv, depth+1)
			if err != nil {
				return nil, err
			}
			if !valueIdentical(res, cv) {
				d.elems[i] = res
			}
			if pend != nil {
				i := i
				ctx.pending[pend] = append(ctx.pending[pend], func(final any) {
					d.elems[i] = final
				})
			}
		}
	}

	if !st.changed {
		return orig, nil
	}
	if s.patches {
		s.diffList(ctx, st.path.String(), orig.elems, d.elems)
	}
	return &List{elems: d.elems}, nil
}

func (s *scope) reconcileMap(ctx *reconcileContext, d *Map, depth int) (any, error) {
	st := d.st
	orig := st.original.(*Map)

	if st.owned {
		for _, k := range sortedKeys(d.entries) {
			cv := d.entries[k]
			if _, ok := asNode(cv); !ok {
				continue
			}
			if isDraftOf(cv, s) {
				st.changed = true
			}
			res, pend, err := s.reconcileValue(ctx, cv, depth+1)
			if err != nil {
				return nil, err
			}
			if !valueIdentical(res, cv) {
				d.entries[k] = res
			}
			if pend != nil {
				k := k
				ctx.pending[pend] = append(ctx.pending[pend], func(final any) {
					d.entries[k] = final
				})
			}
		}
	}

	if !st.changed {
		return orig, nil
	}
	if s.patches {
		s.diffMap(ctx, st.path.String(), orig, d)
	}
	return &Map{entries: d.entries}, nil
}

func isDraftOf(v any, s *scope) bool {
	n, ok := asNode(v)
	if !ok {
		return false
	}
	st := n.baseState()
	return st != nil && st.scope == s
}

// validateTree rejects source graphs with cycles or nesting beyond the
// configured maximum depth before any draft is created.
func validateTree(v any, cfg *config) error {
	return validateNode(v, cfg, 0, map[Node]bool{})
}

func validateNode(v any, cfg *config, depth int, stack map[Node]bool) error {
	n, ok := asNode(v)
	if !ok {
		return nil
	}
	if depth > cfg.maxDepth {
		return fmt.Errorf("%w: graph depth exceeds %d", ErrCircularReference, cfg.maxDepth)
	}
	if stack[n] {
		return fmt.Errorf("%w: cycle in source graph", ErrCircularReference)
	}
	stack[n] = true
	defer delete(stack, n)
	switch d := n.(type) {
	case *Object:
		for _, k := range d.keys {
			if err := validateNode(d.props[k], cfg, depth+1, stack); err != nil {
				return err
			}
		}
	case *List:
		for _, e := range d.elems {
			if err := validateNode(e, cfg, depth+1, stack); err != nil {
				return err
			}
		}
	case *Map:
		for _, e := range d.entries {
			if err := validateNode(e, cfg, depth+1, stack); err != nil {
				return err
			}
		}
	}
	return nil
}
