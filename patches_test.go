package draft

import (
	"testing"

	"github.com/goimmut/draft/patch"
)

func opsEqual(t *testing.T, got patch.Patch, want []patch.Operation) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("patch length = %d, want %d\ngot: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i].Op != want[i].Op || got[i].Path != want[i].Path {
			t.Errorf("op %d = {%s %s}, want {%s %s}", i, got[i].Op, got[i].Path, want[i].Op, want[i].Path)
			continue
		}
		if want[i].Value != nil && !Equal(got[i].Value, want[i].Value) {
			t.Errorf("op %d value = %v, want %v", i, got[i].Value, want[i].Value)
		}
	}
}

func TestPatches_ReplaceProperty(t *testing.T) {
	base := newPerson()

	_, fwd, inv, err := ProduceWithPatches(base, func(d *Object) error {
		d.Set("FirstName", "Jane")
		return nil
	})
	if err != nil {
		t.Fatalf("ProduceWithPatches() error = %v", err)
	}
	opsEqual(t, fwd, []patch.Operation{
		{Op: patch.OperationTypeReplace, Path: "/FirstName", Value: "Jane"},
	})
	opsEqual(t, inv, []patch.Operation{
		{Op: patch.OperationTypeReplace, Path: "/FirstName", Value: "John"},
	})
}

func TestPatches_AddAndRemoveProperty(t *testing.T) {
	base := newPerson()

	_, fwd, inv, err := ProduceWithPatches(base, func(d *Object) error {
		d.Set("MiddleName", "Q")
		d.Delete("LastName")
		return nil
	})
	if err != nil {
		t.Fatalf("ProduceWithPatches() error = %v", err)
	}
	opsEqual(t, fwd, []patch.Operation{
		{Op: patch.OperationTypeRemove, Path: "/LastName"},
		{Op: patch.OperationTypeAdd, Path: "/MiddleName", Value: "Q"},
	})
	opsEqual(t, inv, []patch.Operation{
		{Op: patch.OperationTypeRemove, Path: "/MiddleName"},
		{Op: patch.OperationTypeAdd, Path: "/LastName", Value: "Doe"},
	})
}

func TestPatches_NestedChangeReportedAtChildPathOnly(t *testing.T) {
	base := newPerson()

	_, fwd, inv, err := ProduceWithPatches(base, func(d *Object) error {
		d.Get("Address").(*Object).Set("City", "Shelbyville")
		return nil
	})
	if err != nil {
		t.Fatalf("ProduceWithPatches() error = %v", err)
	}
	opsEqual(t, fwd, []patch.Operation{
		{Op: patch.OperationTypeReplace, Path: "/Address/City", Value: "Shelbyville"},
	})
	opsEqual(t, inv, []patch.Operation{
		{Op: patch.OperationTypeReplace, Path: "/Address/City", Value: "Springfield"},
	})
}

func TestPatches_ListAppend(t *testing.T) {
	base := NewObject()
	base.Set("list", NewList(1, 2))

	_, fwd, inv, err := ProduceWithPatches(base, func(d *Object) error {
		d.Get("list").(*List).Add(3, 4)
		return nil
	})
	if err != nil {
		t.Fatalf("ProduceWithPatches() error = %v", err)
	}
	opsEqual(t, fwd, []patch.Operation{
		{Op: patch.OperationTypeAdd, Path: "/list/-", Value: 3},
		{Op: patch.OperationTypeAdd, Path: "/list/-", Value: 4},
	})
	opsEqual(t, inv, []patch.Operation{
		{Op: patch.OperationTypeRemove, Path: "/list/3"},
		{Op: patch.OperationTypeRemove, Path: "/list/2"},
	})
}

func TestPatches_ListMiddleInsertUsesConcreteIndex(t *testing.T) {
	base := NewObject()
	base.Set("list", NewList("a", "c"))

	_, fwd, inv, err := ProduceWithPatches(base, func(d *Object) error {
		d.Get("list").(*List).Insert(1, "b")
		return nil
	})
	if err != nil {
		t.Fatalf("ProduceWithPatches() error = %v", err)
	}
	opsEqual(t, fwd, []patch.Operation{
		{Op: patch.OperationTypeAdd, Path: "/list/1", Value: "b"},
	})
	opsEqual(t, inv, []patch.Operation{
		{Op: patch.OperationTypeRemove, Path: "/list/1"},
	})
}

func TestPatches_ListRemovalsDescend(t *testing.T) {
	base := NewObject()
	base.Set("list", NewList("a", "b", "c", "d"))

	_, fwd, inv, err := ProduceWithPatches(base, func(d *Object) error {
		l := d.Get("list").(*List)
		l.RemoveAt(2) // drop c
		l.RemoveAt(1) // drop b
		return nil
	})
	if err != nil {
		t.Fatalf("ProduceWithPatches() error = %v", err)
	}
	opsEqual(t, fwd, []patch.Operation{
		{Op: patch.OperationTypeRemove, Path: "/list/2"},
		{Op: patch.OperationTypeRemove, Path: "/list/1"},
	})
	opsEqual(t, inv, []patch.Operation{
		{Op: patch.OperationTypeAdd, Path: "/list/1", Value: "b"},
		{Op: patch.OperationTypeAdd, Path: "/list/2", Value: "c"},
	})
}

func TestPatches_ListMixedEdit(t *testing.T) {
	base := NewObject()
	base.Set("list", NewList("a", "b", "c", "d", "e"))

	_, fwd, inv, err := ProduceWithPatches(base, func(d *Object) error {
		l := d.Get("list").(*List)
		l.RemoveAt(3)    // drop d -> a b c e
		l.RemoveAt(1)    // drop b -> a c e
		l.Insert(2, "x") // -> a c x e
		return nil
	})
	if err != nil {
		t.Fatalf("ProduceWithPatches() error = %v", err)
	}
	opsEqual(t, fwd, []patch.Operation{
		{Op: patch.OperationTypeRemove, Path: "/list/3"},
		{Op: patch.OperationTypeRemove, Path: "/list/1"},
		{Op: patch.OperationTypeAdd, Path: "/list/2", Value: "x"},
	})
	opsEqual(t, inv, []patch.Operation{
		{Op: patch.OperationTypeRemove, Path: "/list/2"},
		{Op: patch.OperationTypeAdd, Path: "/list/1", Value: "b"},
		{Op: patch.OperationTypeAdd, Path: "/list/3", Value: "d"},
	})
}

func TestPatches_MapSetAndDelete(t *testing.T) {
	m := NewMap()
	m.Set("a", 1)
	m.Set("b", 2)
	base := NewObject()
	base.Set("m", m)

	_, fwd, inv, err := ProduceWithPatches(base, func(d *Object) error {
		dm := d.Get("m").(*Map)
		dm.Set("c", 3)
		dm.Delete("a")
		return nil
	})
	if err != nil {
		t.Fatalf("ProduceWithPatches() error = %v", err)
	}
	opsEqual(t, fwd, []patch.Operation{
		{Op: patch.OperationTypeRemove, Path: "/m/a"},
		{Op: patch.OperationTypeAdd, Path: "/m/c", Value: 3},
	})
	opsEqual(t, inv, []patch.Operation{
		{Op: patch.OperationTypeRemove, Path: "/m/c"},
		{Op: patch.OperationTypeAdd, Path: "/m/a", Value: 1},
	})
}

func TestPatches_TouchedCollectionEmitsNoOps(t *testing.T) {
	inner := NewObject()
	inner.Set("v", 1)
	m := NewMap()
	m.Set("k", inner)
	base := NewObject()
	base.Set("m", m)

	res, fwd, inv, err := ProduceWithPatches(base, func(d *Object) error {
		// Reading through the map drafts the entry. Nothing is modified.
		d.Get("m").(*Map).Get("k")
		return nil
	})
	if err != nil {
		t.Fatalf("ProduceWithPatches() error = %v", err)
	}
	if len(fwd) != 0 || len(inv) != 0 {
		t.Errorf("touch emitted ops: fwd=%v inv=%v", fwd, inv)
	}
	// A drafted entry still counts as a touch: the map loses identity.
	if res.Get("m") == base.Get("m") {
		t.Errorf("touched map kept its identity")
	}
	if !Equal(res, base) {
		t.Errorf("touched result is not structurally equal to base")
	}
}

func TestPatches_TouchedObjectKeepsIdentity(t *testing.T) {
	base := newPerson()

	res, fwd, _, err := ProduceWithPatches(base, func(d *Object) error {
		d.Get("Address")
		return nil
	})
	if err != nil {
		t.Fatalf("ProduceWithPatches() error = %v", err)
	}
	if len(fwd) != 0 {
		t.Errorf("object touch emitted ops: %v", fwd)
	}
	if res != base {
		t.Errorf("object touch changed identity")
	}
}

func TestPatches_NoOps(t *testing.T) {
	base := newPerson()

	_, fwd, inv, err := ProduceWithPatches(base, func(d *Object) error { return nil })
	if err != nil {
		t.Fatalf("ProduceWithPatches() error = %v", err)
	}
	if len(fwd) != 0 || len(inv) != 0 {
		t.Errorf("no-op recipe emitted ops: fwd=%v inv=%v", fwd, inv)
	}
}

func TestPatches_EscapedPropertyNames(t *testing.T) {
	base := NewObject()
	base.Set("a/b", 1)
	base.Set("c~d", 2)

	_, fwd, _, err := ProduceWithPatches(base, func(d *Object) error {
		d.Set("a/b", 10)
		d.Set("c~d", 20)
		return nil
	})
	if err != nil {
		t.Fatalf("ProduceWithPatches() error = %v", err)
	}
	opsEqual(t, fwd, []patch.Operation{
		{Op: patch.OperationTypeReplace, Path: "/a~1b", Value: 10},
		{Op: patch.OperationTypeReplace, Path: "/c~0d", Value: 20},
	})
}

func TestPatches_RoundTripThroughApply(t *testing.T) {
	base := newPerson()
	base.Set("list", NewList(1, 2, 3))

	res, fwd, inv, err := ProduceWithPatches(base, func(d *Object) error {
		d.Set("FirstName", "Jane")
		d.Get("Address").(*Object).Set("City", "Shelbyville")
		l := d.Get("list").(*List)
		l.RemoveAt(0)
		l.Add(4)
		return nil
	})
	if err != nil {
		t.Fatalf("ProduceWithPatches() error = %v", err)
	}

	replayed, err := Apply(base, fwd)
	if err != nil {
		t.Fatalf("Apply(base, fwd) error = %v", err)
	}
	if !Equal(replayed, res) {
		t.Errorf("forward patch did not reproduce the result")
	}

	undone, err := Apply(res, inv)
	if err != nil {
		t.Fatalf("Apply(res, inv) error = %v", err)
	}
	if !Equal(undone, base) {
		t.Errorf("inverse patch did not restore the base")
	}
}
