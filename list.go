package draft

import (
	"fmt"
	"slices"
	"strconv"
)

// List is an ordered collection. A fresh List is mutable; Lock makes it
// permanently immutable, and Produce hands out draft Lists backed by a
// shared view of the original until the first write.
type List struct {
	locked bool
	elems  []any
	st     *collectionState
}

// NewList returns a mutable list holding the given elements.
func NewList(elems ...any) *List {
	return &List{elems: elems}
}

// Kind returns KindList.
func (l *List) Kind() Kind { return KindList }

// Locked reports whether the list is permanently immutable.
func (l *List) Locked() bool { return l.locked }

func (l *List) baseState() *state {
	if l.st == nil {
		return nil
	}
	return l.st.base()
}

// Len returns the number of elements.
func (l *List) Len() int {
	if l.st != nil {
		l.st.checkUsable()
	}
	return len(l.elems)
}

// IsReadOnly reports whether writes would fail: the list is locked or its
// owning scope has closed. A fresh list that was never locked or drafted is
// a mutable builder and reports false.
func (l *List) IsReadOnly() bool {
	return l.locked || (l.st != nil && l.st.revoked)
}

// Get returns the element at index i. Reading a draftable element through a
// draft replaces the stored element with a child draft of the same scope;
// repeated reads return the same child.
func (l *List) Get(i int) any {
	if st := l.st; st != nil {
		st.checkUsable()
		l.checkIndex(i, len(l.elems))
		return st.draftChild(l.elems[i], strconv.Itoa(i), func(child any) {
			st.ensureOwned(func() { l.elems = slices.Clone(l.elems) })
			l.elems[i] = child
		})
	}
	l.checkIndex(i, len(l.elems))
	return l.elems[i]
}

// Set replaces the element at index i.
func (l *List) Set(i int, v any) {
	l.checkIndex(i, l.Len())
	l.mutate(func() { l.elems[i] = v })
}

// Add appends elements to the end of the list.
func (l *List) Add(vs ...any) {
	l.mutate(func() { l.elems = append(l.elems, vs...) })
}

// Insert places v at index i, shifting later elements right. i may equal
// Len, which appends.
func (l *List) Insert(i int, v any) {
	if i < 0 || i > l.Len() {
		panic(fmt.Errorf("%w: insert index %d out of range [0,%d]", ErrDraft, i, l.Len()))
	}
	l.mutate(func() { l.elems = slices.Insert(l.elems, i, v) })
}

// RemoveAt removes the element at index i, shifting later elements left.
func (l *List) RemoveAt(i int) {
	l.checkIndex(i, l.Len())
	l.mutate(func() { l.elems = slices.Delete(l.elems, i, i+1) })
}

// Remove removes the first element equal to v and reports whether one was
// found. An unsuccessful remove does not mark a draft changed.
func (l *List) Remove(v any) bool {
	i := l.IndexOf(v)
	if i < 0 {
		return false
	}
	l.RemoveAt(i)
	return true
}

// Clear removes all elements.
func (l *List) Clear() {
	if l.Len() == 0 {
		return
	}
	l.mutate(func() { l.elems = []any{} })
}

// IndexOf returns the index of the first element equal to v, or -1. A draft
// element compares equal to the original it was drafted from.
func (l *List) IndexOf(v any) int {
	if l.st != nil {
		l.st.checkUsable()
	}
	for i, e := range l.elems {
		if tolerantEqual(e, v) {
			return i
		}
	}
	return -1
}

// Contains reports whether the list holds an element equal to v.
func (l *List) Contains(v any) bool {
	return l.IndexOf(v) >= 0
}

// Range calls fn for every element in order until fn returns false. Each
// call re-reads the current length, so the enumeration always starts from
// the list's present contents. Elements are read through Get.
func (l *List) Range(fn func(i int, v any) bool) {
	for i := 0; i < l.Len(); i++ {
		if !fn(i, l.Get(i)) {
			return
		}
	}
}

// Values returns the elements as a slice, read through Get.
func (l *List) Values() []any {
	out := make([]any, 0, l.Len())
	l.Range(func(_ int, v any) bool {
		out = append(out, v)
		return true
	})
	return out
}

func (l *List) mutate(apply func()) {
	if l.locked {
		panic(fmt.Errorf("%w: cannot modify a locked list", ErrImmutable))
	}
	if st := l.st; st != nil {
		st.modify(func() { l.elems = slices.Clone(l.elems) }, apply)
		return
	}
	apply()
}

func (l *List) checkIndex(i, n int) {
	if i < 0 || i >= n {
		panic(fmt.Errorf("%w: index %d out of range [0,%d)", ErrDraft, i, n))
	}
}
