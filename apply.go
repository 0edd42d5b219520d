package draft

import (
	"fmt"

	"github.com/goimmut/draft/internal/core"
	"github.com/goimmut/draft/patch"
)

// Apply applies a patch to an immutable value and returns the patched
// value. The input is never modified; unchanged subtrees are shared with
// it. Operations apply sequentially, so each one observes the effect of
// the ones before it.
func Apply[T any](base T, ops patch.Patch) (T, error) {
	var zero T
	cur := any(base)

	i := 0
	for i < len(ops) {
		if ops[i].Path == "" {
			op := ops[i]
			switch op.Op {
			case patch.OperationTypeAdd, patch.OperationTypeReplace:
				cur = Lock(op.Value)
			case patch.OperationTypeTest:
				if !Equal(cur, op.Value) {
					return zero, fmt.Errorf("%w: op %d: test failed at document root", ErrPatch, i)
				}
			default:
				return zero, fmt.Errorf("%w: op %d: %s not valid at document root", ErrPatch, i, op.Op)
			}
			i++
			continue
		}

		j := i
		for j < len(ops) && ops[j].Path != "" {
			j++
		}
		batch := ops[i:j]
		offset := i

		res, err := Produce[any](cur, func(d any) error {
			for k, op := range batch {
				if err := applyOp(d, op); err != nil {
					return fmt.Errorf("%w: op %d (%s %s): %v", ErrPatch, offset+k, op.Op, op.Path, err)
				}
			}
			return nil
		})
		if err != nil {
			return zero, err
		}
		cur = res
		i = j
	}

	out, ok := cur.(T)
	if !ok {
		return zero, fmt.Errorf("%w: result %T is not %T", ErrPatch, cur, zero)
	}
	return out, nil
}

func applyOp(root any, op patch.Operation) error {
	toks := core.ParsePointer(op.Path)
	if len(toks) == 0 {
		return fmt.Errorf("empty path")
	}

	cur := root
	for _, t := range toks[:len(toks)-1] {
		next, err := step(cur, t)
		if err != nil {
			return err
		}
		cur = next
	}

	last := toks[len(toks)-1]
	switch n := cur.(type) {
	case *Object:
		switch op.Op {
		case patch.OperationTypeAdd, patch.OperationTypeReplace:
			if op.Op == patch.OperationTypeReplace && !n.Has(last.Key) {
				return fmt.Errorf("property %q not found", last.Key)
			}
			n.Set(last.Key, op.Value)
		case patch.OperationTypeRemove:
			if !n.Has(last.Key) {
				return fmt.Errorf("property %q not found", last.Key)
			}
			n.Delete(last.Key)
		case patch.OperationTypeTest:
			if !Equal(n.Get(last.Key), op.Value) {
				return fmt.Errorf("test failed at %q", last.Key)
			}
		default:
			return fmt.Errorf("unsupported op %q", op.Op)
		}
	case *Map:
		switch op.Op {
		case patch.OperationTypeAdd:
			n.Set(last.Key, op.Value)
		case patch.OperationTypeReplace:
			if !n.Has(last.Key) {
				return fmt.Errorf("key %q not found", last.Key)
			}
			n.Set(last.Key, op.Value)
		case patch.OperationTypeRemove:
			if !n.Delete(last.Key) {
				return fmt.Errorf("key %q not found", last.Key)
			}
		case patch.OperationTypeTest:
			if !Equal(n.Get(last.Key), op.Value) {
				return fmt.Errorf("test failed at %q", last.Key)
			}
		default:
			return fmt.Errorf("unsupported op %q", op.Op)
		}
	case *List:
		switch op.Op {
		case patch.OperationTypeAdd:
			if last.Append {
				n.Add(op.Value)
				return nil
			}
			if !last.IsIndex {
				return fmt.Errorf("expected list index, got %q", last.Key)
			}
			n.Insert(last.Index, op.Value)
		case patch.OperationTypeReplace:
			if !last.IsIndex {
				return fmt.Errorf("expected list index, got %q", last.Key)
			}
			n.Set(last.Index, op.Value)
		case patch.OperationTypeRemove:
			if !last.IsIndex {
				return fmt.Errorf("expected list index, got %q", last.Key)
			}
			n.RemoveAt(last.Index)
		case patch.OperationTypeTest:
			if !last.IsIndex {
				return fmt.Errorf("expected list index, got %q", last.Key)
			}
			if !Equal(n.Get(last.Index), op.Value) {
				return fmt.Errorf("test failed at index %d", last.Index)
			}
		default:
			return fmt.Errorf("unsupported op %q", op.Op)
		}
	default:
		return fmt.Errorf("cannot apply %s to %T", op.Op, cur)
	}
	return nil
}

func step(cur any, t core.Token) (any, error) {
	switch n := cur.(type) {
	case *Object:
		v := n.Get(t.Key)
		if v == nil {
			return nil, fmt.Errorf("path segment %q not found", t.Key)
		}
		return v, nil
	case *Map:
		v, ok := n.GetOK(t.Key)
		if !ok {
			return nil, fmt.Errorf("path segment %q not found", t.Key)
		}
		return v, nil
	case *List:
		if !t.IsIndex {
			return nil, fmt.Errorf("expected list index, got %q", t.Key)
		}
		if t.Index < 0 || t.Index >= n.Len() {
			return nil, fmt.Errorf("index %d out of range [0,%d)", t.Index, n.Len())
		}
		return n.Get(t.Index), nil
	default:
		return nil, fmt.Errorf("cannot traverse %T at %q", cur, t.Key)
	}
}
