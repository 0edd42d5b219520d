package draft

// Kind identifies the draftable variant of a node.
type Kind int

const (
	// KindObject is a record with named properties.
	KindObject Kind = iota
	// KindList is an ordered collection.
	KindList
	// KindMap is a string-keyed associative collection.
	KindMap
)

func (k Kind) String() string {
	switch k {
	case KindObject:
		return "object"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	}
	return "unknown"
}

// Node is implemented by the three draftable container types: *Object,
// *List and *Map. Every other value passes through drafting untouched.
type Node interface {
	// Kind reports the container variant.
	Kind() Kind
	// Locked reports whether the node has been made permanently immutable.
	Locked() bool

	baseState() *state
}

func asNode(v any) (Node, bool) {
	switch n := v.(type) {
	case *Object:
		return n, n != nil
	case *List:
		return n, n != nil
	case *Map:
		return n, n != nil
	}
	return nil, false
}

// IsDraft reports whether v is a live draft: a node attached to a scope
// that has not been closed yet.
func IsDraft(v any) bool {
	n, ok := asNode(v)
	if !ok {
		return false
	}
	st := n.baseState()
	return st != nil && !st.revoked
}

// IsLocked reports whether v is a locked (immutable) node. Non-node values
// report false.
func IsLocked(v any) bool {
	n, ok := asNode(v)
	return ok && n.Locked()
}

// Lock marks v and every node nested below it as permanently immutable and
// returns v. Later mutation attempts fail with ErrImmutable.
func Lock(v any) any {
	lockValue(v)
	return v
}

func lockValue(v any) {
	switch n := v.(type) {
	case *Object:
		if n == nil || n.locked {
			return
		}
		n.locked = true
		for _, k := range n.keys {
			lockValue(n.props[k])
		}
	case *List:
		if n == nil || n.locked {
			return
		}
		n.locked = true
		for _, e := range n.elems {
			lockValue(e)
		}
	case *Map:
		if n == nil || n.locked {
			return
		}
		n.locked = true
		for _, e := range n.entries {
			lockValue(e)
		}
	}
}

// Current returns a snapshot of v as it is right now: drafts materialize
// into plain nodes, untouched subtrees resolve back to their original
// instances. The snapshot is not locked.
func Current(v any) any {
	n, ok := asNode(v)
	if !ok {
		return v
	}
	switch d := n.(type) {
	case *Object:
		return currentObject(d)
	case *List:
		return currentList(d)
	case *Map:
		return currentMap(d)
	}
	return v
}

func currentObject(d *Object) any {
	st := d.st
	if st == nil && d.locked {
		return d
	}
	var orig *Object
	dirty := false
	if st != nil {
		st.checkUsable()
		orig = st.original.(*Object)
		dirty = st.changed
	}
	out := &Object{typ: d.typ, props: map[string]any{}}
	for _, name := range d.keys {
		v := d.props[name]
		if st != nil {
			if c, ok := st.children[name]; ok {
				v = c
			}
		}
		cv := Current(v)
		out.setProp(name, cv)
		if orig != nil {
			if old, ok := orig.props[name]; !ok || !valueIdentical(cv, old) {
				dirty = true
			}
		} else if !valueIdentical(cv, v) {
			dirty = true
		}
	}
	if !dirty {
		if orig != nil {
			return orig
		}
		return d
	}
	return out
}

func currentList(d *List) any {
	st := d.st
	if st == nil && d.locked {
		return d
	}
	var orig *List
	dirty := false
	if st != nil {
		st.checkUsable()
		orig = st.original.(*List)
		dirty = st.changed
	}
	elems := make([]any, len(d.elems))
	for i, v := range d.elems {
		cv := Current(v)
		elems[i] = cv
		if orig != nil {
			if i >= len(orig.elems) || !valueIdentical(cv, orig.elems[i]) {
				dirty = true
			}
		} else if !valueIdentical(cv, v) {
			dirty = true
		}
	}
	if orig != nil && len(elems) != len(orig.elems) {
		dirty = true
	}
	if !dirty {
		if orig != nil {
			return orig
		}
		return d
	}
	return &List{elems: elems}
}

func currentMap(d *Map) any {
	st := d.st
	if st == nil && d.locked {
		return d
	}
	var orig *Map
	dirty := false
	if st != nil {
		st.checkUsable()
		orig = st.original.(*Map)
		dirty = st.changed
	}
	entries := make(map[string]any, len(d.entries))
	for k, v := range d.entries {
		cv := Current(v)
		entries[k] = cv
		if orig != nil {
			if old, ok := orig.entries[k]; !ok || !valueIdentical(cv, old) {
				dirty = true
			}
		} else if !valueIdentical(cv, v) {
			dirty = true
		}
	}
	if orig != nil && len(entries) != len(orig.entries) {
		dirty = true
	}
	if !dirty {
		if orig != nil {
			return orig
		}
		return d
	}
	return &Map{entries: entries}
}
