package draft

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/goimmut/draft/internal/core"
)

// binding associates a registered struct type with its cached field layout.
type binding struct {
	typ  reflect.Type
	name string
	info *core.TypeInfo
}

var (
	bindingsByType sync.Map // reflect.Type -> *binding
	bindingsByName sync.Map // string -> *binding
)

// Bind registers the struct type T so Wrap and Unwrap can convert between
// T values and object nodes. Field visibility follows the `draft` struct
// tag: exported fields are included under their own name unless renamed or
// excluded with `draft:"-"`. Binding the same type again is a no-op.
func Bind[T any]() error {
	t := reflect.TypeOf((*T)(nil)).Elem()
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return fmt.Errorf("%w: %s is not a struct type", ErrNotDraftable, t)
	}
	b := &binding{typ: t, name: t.String(), info: core.GetTypeInfo(t)}
	bindingsByType.Store(t, b)
	bindingsByName.Store(b.name, b)
	return nil
}

// MustBind is Bind that panics on error, for package-level registration.
func MustBind[T any]() {
	if err := Bind[T](); err != nil {
		panic(err)
	}
}

func bindingForType(t reflect.Type) (*binding, bool) {
	v, ok := bindingsByType.Load(t)
	if !ok {
		return nil, false
	}
	return v.(*binding), true
}

func bindingForName(name string) (*binding, bool) {
	v, ok := bindingsByName.Load(name)
	if !ok {
		return nil, false
	}
	return v.(*binding), true
}
