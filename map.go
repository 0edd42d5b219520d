package draft

import (
	"fmt"
	"maps"
	"sort"
)

// Map is a string-keyed associative collection. Enumeration order is the
// sorted key order, which keeps generated patches deterministic.
type Map struct {
	locked  bool
	entries map[string]any
	st      *collectionState
}

// NewMap returns an empty mutable map.
func NewMap() *Map {
	return &Map{entries: map[string]any{}}
}

// Kind returns KindMap.
func (m *Map) Kind() Kind { return KindMap }

// Locked reports whether the map is permanently immutable.
func (m *Map) Locked() bool { return m.locked }

func (m *Map) baseState() *state {
	if m.st == nil {
		return nil
	}
	return m.st.base()
}

// IsReadOnly reports whether writes would fail: the map is locked or its
// owning scope has closed. A fresh map that was never locked or drafted is
// a mutable builder and reports false.
func (m *Map) IsReadOnly() bool {
	return m.locked || (m.st != nil && m.st.revoked)
}

// Len returns the number of entries.
func (m *Map) Len() int {
	if m.st != nil {
		m.st.checkUsable()
	}
	return len(m.entries)
}

// Has reports whether the key is present.
func (m *Map) Has(key string) bool {
	if m.st != nil {
		m.st.checkUsable()
	}
	_, ok := m.entries[key]
	return ok
}

// Get returns the value for key, or nil when absent. Reading a draftable
// value through a draft replaces the stored entry with a child draft of the
// same scope; repeated reads return the same child.
func (m *Map) Get(key string) any {
	v, _ := m.GetOK(key)
	return v
}

// GetOK is Get with an explicit presence report, for entries that
// legitimately hold nil.
func (m *Map) GetOK(key string) (any, bool) {
	if st := m.st; st != nil {
		st.checkUsable()
		v, ok := m.entries[key]
		if !ok {
			return nil, false
		}
		return st.draftChild(v, key, func(child any) {
			st.ensureOwned(func() { m.entries = maps.Clone(m.entries) })
			m.entries[key] = child
		}), true
	}
	v, ok := m.entries[key]
	return v, ok
}

// Set stores a value under key.
func (m *Map) Set(key string, v any) {
	m.mutate(func() {
		if m.entries == nil {
			m.entries = map[string]any{}
		}
		m.entries[key] = v
	})
}

// Delete removes the entry for key and reports whether it was present.
// Deleting an absent key is a no-op and does not mark a draft changed.
func (m *Map) Delete(key string) bool {
	if m.st != nil {
		m.st.checkUsable()
	}
	if _, ok := m.entries[key]; !ok {
		return false
	}
	m.mutate(func() { delete(m.entries, key) })
	return true
}

// Clear removes all entries.
func (m *Map) Clear() {
	if m.Len() == 0 {
		return
	}
	m.mutate(func() { m.entries = map[string]any{} })
}

// Keys returns the keys in sorted order.
func (m *Map) Keys() []string {
	if m.st != nil {
		m.st.checkUsable()
	}
	return sortedKeys(m.entries)
}

// Range calls fn for every entry in sorted key order until fn returns
// false. Values are read through Get.
func (m *Map) Range(fn func(key string, v any) bool) {
	for _, k := range m.Keys() {
		if !fn(k, m.Get(k)) {
			return
		}
	}
}

// Values returns the values in sorted key order, read through Get.
func (m *Map) Values() []any {
	out := make([]any, 0, m.Len())
	m.Range(func(_ string, v any) bool {
		out = append(out, v)
		return true
	})
	return out
}

func (m *Map) mutate(apply func()) {
	if m.locked {
		panic(fmt.Errorf("%w: cannot modify a locked map", ErrImmutable))
	}
	if st := m.st; st != nil {
		st.modify(func() { m.entries = maps.Clone(m.entries) }, apply)
		return
	}
	apply()
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
