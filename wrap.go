package draft

import (
	"fmt"
	"reflect"

	"github.com/goimmut/draft/internal/core"
)

// Wrap converts a plain Go value into a locked node tree. Registered
// structs become objects, slices and arrays become lists, string-keyed
// maps become maps, and scalars pass through unchanged. Nil pointers,
// slices and maps wrap to nil.
func Wrap(v any) (any, error) {
	n, err := wrapValue(reflect.ValueOf(v))
	if err != nil {
		return nil, err
	}
	lockValue(n)
	return n, nil
}

// MustWrap is Wrap that panics on error.
func MustWrap(v any) any {
	n, err := Wrap(v)
	if err != nil {
		panic(err)
	}
	return n
}

func wrapValue(rv reflect.Value) (any, error) {
	if !rv.IsValid() {
		return nil, nil
	}
	switch rv.Kind() {
	case reflect.Interface, reflect.Pointer:
		if rv.IsNil() {
			return nil, nil
		}
		return wrapValue(rv.Elem())
	case reflect.Struct:
		b, ok := bindingForType(rv.Type())
		if !ok {
			return nil, fmt.Errorf("%w: struct %s is not registered, call Bind first", ErrNotDraftable, rv.Type())
		}
		o := &Object{typ: b.name, props: map[string]any{}}
		for _, f := range b.info.Fields {
			fv, err := wrapValue(rv.Field(f.Index))
			if err != nil {
				return nil, err
			}
			o.setProp(f.Name, fv)
		}
		return o, nil
	case reflect.Slice:
		if rv.IsNil() {
			return nil, nil
		}
		return wrapSequence(rv)
	case reflect.Array:
		return wrapSequence(rv)
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, fmt.Errorf("%w: map key type %s, only string keys are supported", ErrNotDraftable, rv.Type().Key())
		}
		if rv.IsNil() {
			return nil, nil
		}
		m := &Map{entries: make(map[string]any, rv.Len())}
		iter := rv.MapRange()
		for iter.Next() {
			ev, err := wrapValue(iter.Value())
			if err != nil {
				return nil, err
			}
			m.entries[iter.Key().String()] = ev
		}
		return m, nil
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64, reflect.String:
		return rv.Interface(), nil
	default:
		return nil, fmt.Errorf("%w: unsupported kind %s", ErrNotDraftable, rv.Kind())
	}
}

func wrapSequence(rv reflect.Value) (any, error) {
	l := &List{elems: make([]any, rv.Len())}
	for i := 0; i < rv.Len(); i++ {
		ev, err := wrapValue(rv.Index(i))
		if err != nil {
			return nil, err
		}
		l.elems[i] = ev
	}
	return l, nil
}

// Unwrap materializes a node tree back into a Go value of type T. Drafts
// unwrap through their current view. Object properties with no matching
// struct field are ignored; missing properties leave the field zero.
func Unwrap[T any](v any) (T, error) {
	var zero T
	t := reflect.TypeOf(&zero).Elem()
	out := reflect.New(t).Elem()
	if err := unwrapInto(out, Current(v)); err != nil {
		return zero, err
	}
	return out.Interface().(T), nil
}

func unwrapInto(dst reflect.Value, v any) error {
	if v == nil {
		dst.SetZero()
		return nil
	}
	for dst.Kind() == reflect.Pointer {
		if dst.IsNil() {
			dst.Set(reflect.New(dst.Type().Elem()))
		}
		dst = dst.Elem()
	}
	switch n := v.(type) {
	case *Object:
		if dst.Kind() == reflect.Interface {
			return unwrapObjectInterface(dst, n)
		}
		if dst.Kind() != reflect.Struct {
			return fmt.Errorf("%w: cannot unwrap object into %s", ErrNotDraftable, dst.Type())
		}
		info := core.GetTypeInfo(dst.Type())
		for _, f := range info.Fields {
			pv, ok := n.props[f.Name]
			if !ok {
				continue
			}
			if err := unwrapInto(dst.Field(f.Index), Current(pv)); err != nil {
				return err
			}
		}
		return nil
	case *List:
		switch dst.Kind() {
		case reflect.Slice:
			out := reflect.MakeSlice(dst.Type(), len(n.elems), len(n.elems))
			for i, e := range n.elems {
				if err := unwrapInto(out.Index(i), Current(e)); err != nil {
					return err
				}
			}
			dst.Set(out)
			return nil
		case reflect.Array:
			if dst.Len() != len(n.elems) {
				return fmt.Errorf("%w: list length %d does not match array %s", ErrNotDraftable, len(n.elems), dst.Type())
			}
			for i, e := range n.elems {
				if err := unwrapInto(dst.Index(i), Current(e)); err != nil {
					return err
				}
			}
			return nil
		default:
			return fmt.Errorf("%w: cannot unwrap list into %s", ErrNotDraftable, dst.Type())
		}
	case *Map:
		if dst.Kind() != reflect.Map || dst.Type().Key().Kind() != reflect.String {
			return fmt.Errorf("%w: cannot unwrap map into %s", ErrNotDraftable, dst.Type())
		}
		out := reflect.MakeMapWithSize(dst.Type(), len(n.entries))
		for k, e := range n.entries {
			ev := reflect.New(dst.Type().Elem()).Elem()
			if err := unwrapInto(ev, Current(e)); err != nil {
				return err
			}
			out.SetMapIndex(reflect.ValueOf(k), ev)
		}
		dst.Set(out)
		return nil
	}

	rv := reflect.ValueOf(v)
	switch {
	case rv.Type().AssignableTo(dst.Type()):
		dst.Set(rv)
	case rv.Type().ConvertibleTo(dst.Type()) && dst.Kind() != reflect.String:
		dst.Set(rv.Convert(dst.Type()))
	default:
		return fmt.Errorf("%w: cannot unwrap %T into %s", ErrNotDraftable, v, dst.Type())
	}
	return nil
}

// unwrapObjectInterface resolves an object into an interface destination by
// looking up the object's registered type name.
func unwrapObjectInterface(dst reflect.Value, n *Object) error {
	b, ok := bindingForName(n.typ)
	if !ok {
		return fmt.Errorf("%w: object type %q is not registered", ErrNotDraftable, n.typ)
	}
	out := reflect.New(b.typ).Elem()
	if err := unwrapInto(out, n); err != nil {
		return err
	}
	if !out.Type().AssignableTo(dst.Type()) {
		return fmt.Errorf("%w: %s does not implement %s", ErrNotDraftable, b.typ, dst.Type())
	}
	dst.Set(out)
	return nil
}
