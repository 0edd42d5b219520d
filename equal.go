package draft

import "reflect"

// valueIdentical is the cheap identity test used throughout reconciliation:
// nodes compare by pointer, everything else by deep equality.
func valueIdentical(a, b any) bool {
	an, aok := asNode(a)
	bn, bok := asNode(b)
	if aok || bok {
		return aok && bok && an == bn
	}
	return reflect.DeepEqual(a, b)
}

// tolerantEqual extends valueIdentical so that a live draft compares equal
// to the original it was drafted from, in either direction. Used by
// membership tests like List.Contains.
func tolerantEqual(a, b any) bool {
	if valueIdentical(a, b) {
		return true
	}
	if an, ok := asNode(a); ok {
		if st := an.baseState(); st != nil && valueIdentical(st.original, b) {
			return true
		}
	}
	if bn, ok := asNode(b); ok {
		if st := bn.baseState(); st != nil && valueIdentical(st.original, a) {
			return true
		}
	}
	return false
}

// Equal reports deep structural equality of two values. Drafts compare by
// their current contents. For objects and maps, a property holding nil
// compares equal to an absent property.
func Equal(a, b any) bool {
	return structuralEqual(Current(a), Current(b))
}

func structuralEqual(a, b any) bool {
	if valueIdentical(a, b) {
		return true
	}
	switch x := a.(type) {
	case *Object:
		y, ok := b.(*Object)
		if !ok {
			return false
		}
		return propsEqual(x.props, y.props)
	case *List:
		y, ok := b.(*List)
		if !ok {
			return false
		}
		if len(x.elems) != len(y.elems) {
			return false
		}
		for i := range x.elems {
			if !structuralEqual(Current(x.elems[i]), Current(y.elems[i])) {
				return false
			}
		}
		return true
	case *Map:
		y, ok := b.(*Map)
		if !ok {
			return false
		}
		return propsEqual(x.entries, y.entries)
	}
	if _, ok := asNode(b); ok {
		return false
	}
	return reflect.DeepEqual(a, b)
}

// propsEqual compares two property sets treating nil values as absent.
func propsEqual(a, b map[string]any) bool {
	for k, av := range a {
		bv := b[k]
		if av == nil && bv == nil {
			continue
		}
		if !structuralEqual(Current(av), Current(bv)) {
			return false
		}
	}
	for k, bv := range b {
		if _, ok := a[k]; ok {
			continue
		}
		if bv != nil {
			return false
		}
	}
	return true
}
