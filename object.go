package draft

import (
	"fmt"
	"maps"
	"slices"
)

// Object is a record with named, ordered properties. A fresh Object is
// mutable; Lock makes it permanently immutable, and Produce hands out draft
// Objects that record changes against an immutable original.
type Object struct {
	locked bool
	typ    string
	keys   []string
	props  map[string]any
	st     *objectState
}

// NewObject returns an empty mutable object.
func NewObject() *Object {
	return &Object{props: map[string]any{}}
}

// Kind returns KindObject.
func (o *Object) Kind() Kind { return KindObject }

// Locked reports whether the object is permanently immutable.
func (o *Object) Locked() bool { return o.locked }

func (o *Object) baseState() *state {
	if o.st == nil {
		return nil
	}
	return o.st.base()
}

// TypeName reports the registered struct type this object was wrapped from,
// or the empty string for objects built directly.
func (o *Object) TypeName() string { return o.typ }

// Len returns the number of properties.
func (o *Object) Len() int {
	if o.st != nil {
		o.st.checkUsable()
	}
	return len(o.keys)
}

// Keys returns the property names in insertion order.
func (o *Object) Keys() []string {
	if o.st != nil {
		o.st.checkUsable()
	}
	return slices.Clone(o.keys)
}

// Has reports whether the property is present.
func (o *Object) Has(name string) bool {
	if o.st != nil {
		o.st.checkUsable()
	}
	_, ok := o.props[name]
	return ok
}

// Get returns the value of the named property, or nil when absent. Reading
// a draftable value through a draft returns a child draft of the same
// scope; repeated reads return the same child.
func (o *Object) Get(name string) any {
	if st := o.st; st != nil {
		st.checkUsable()
		if c, ok := st.children[name]; ok {
			return c
		}
		v, ok := o.props[name]
		if !ok {
			return nil
		}
		return st.draftChild(v, name, func(child any) {
			st.recordChild(name, child)
		})
	}
	return o.props[name]
}

// Set stores a property value. On a draft the first write claims a private
// copy of the backing storage; the original is never touched.
func (o *Object) Set(name string, v any) {
	if o.locked {
		panic(fmt.Errorf("%w: cannot set %q on a locked object", ErrImmutable, name))
	}
	if st := o.st; st != nil {
		st.checkUsable()
		if st.scope != nil && st.scope.finishing {
			o.setProp(name, v)
			return
		}
		st.copyOnWriteOnce(o)
		o.setProp(name, v)
		delete(st.children, name)
		return
	}
	o.setProp(name, v)
}

// Delete removes a property. Deleting an absent property is a no-op and
// does not mark a draft changed.
func (o *Object) Delete(name string) {
	if o.locked {
		panic(fmt.Errorf("%w: cannot delete %q from a locked object", ErrImmutable, name))
	}
	if st := o.st; st != nil {
		st.checkUsable()
		if _, ok := o.props[name]; !ok {
			return
		}
		st.copyOnWriteOnce(o)
		o.deleteProp(name)
		delete(st.children, name)
		return
	}
	o.deleteProp(name)
}

// Range calls fn for every property in insertion order until fn returns
// false. Values are read through Get, so on drafts they are lazily drafted.
func (o *Object) Range(fn func(name string, v any) bool) {
	for _, name := range o.Keys() {
		if !fn(name, o.Get(name)) {
			return
		}
	}
}

func (o *Object) setProp(name string, v any) {
	if o.props == nil {
		o.props = map[string]any{}
	}
	if _, ok := o.props[name]; !ok {
		o.keys = append(o.keys, name)
	}
	o.props[name] = v
}

func (o *Object) deleteProp(name string) {
	if _, ok := o.props[name]; !ok {
		return
	}
	delete(o.props, name)
	if i := slices.Index(o.keys, name); i >= 0 {
		o.keys = slices.Delete(o.keys, i, i+1)
	}
}

// copyOnWriteOnce claims a private copy of the original's storage on the
// first write and marks the draft changed. Subsequent writes are direct.
func (s *objectState) copyOnWriteOnce(o *Object) {
	if s.changed {
		return
	}
	s.changed = true
	orig := s.original.(*Object)
	o.keys = slices.Clone(orig.keys)
	o.props = maps.Clone(orig.props)
	if o.props == nil {
		o.props = map[string]any{}
	}
}
