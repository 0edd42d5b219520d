package draft

import (
	"github.com/goimmut/draft/internal/core"
	"github.com/goimmut/draft/patch"
)

// The diff generators compare a changed draft's final storage against its
// original and emit forward and inverse operations. Forward operations
// assume sequential application; inverse operations are accumulated in
// forward order and reversed once, at the root scope.

// patchEqual is the tolerant equality used by diff generation: values are
// equal when identical, or when cur is the reconciled (or still live)
// descendant of old. This keeps a parent from re-reporting a change that
// was already reported at the child's own path.
func (s *scope) patchEqual(ctx *reconcileContext, old, cur any) bool {
	if valueIdentical(old, cur) {
		return true
	}
	cn, ok := asNode(cur)
	if !ok {
		return false
	}
	if cst := cn.baseState(); cst != nil && valueIdentical(cst.original, old) {
		return true
	}
	if from, ok := ctx.originOf[cn]; ok && valueIdentical(from, old) {
		return true
	}
	return false
}

func (s *scope) diffObject(ctx *reconcileContext, base string, orig, cur *Object) {
	for _, name := range orderedUnion(orig.keys, cur.keys) {
		old, oldOk := orig.props[name]
		now, nowOk := cur.props[name]
		if oldOk && nowOk && s.patchEqual(ctx, old, now) {
			continue
		}
		oldNil := !oldOk || old == nil
		nowNil := !nowOk || now == nil
		if oldNil && nowNil {
			continue
		}
		p := core.JoinPointer(base, core.EscapeToken(name))
		switch {
		case oldNil:
			s.emit(
				patch.Operation{Op: patch.OperationTypeAdd, Path: p, Value: now},
				patch.Operation{Op: patch.OperationTypeRemove, Path: p},
			)
		case nowNil:
			s.emit(
				patch.Operation{Op: patch.OperationTypeRemove, Path: p},
				patch.Operation{Op: patch.OperationTypeAdd, Path: p, Value: old},
			)
		default:
			s.emit(
				patch.Operation{Op: patch.OperationTypeReplace, Path: p, Value: now},
				patch.Operation{Op: patch.OperationTypeReplace, Path: p, Value: old},
			)
		}
	}
}

func (s *scope) diffMap(ctx *reconcileContext, base string, orig, cur *Map) {
	oldKeys := sortedKeys(orig.entries)

	for _, k := range oldKeys {
		if _, ok := cur.entries[k]; ok {
			continue
		}
		p := core.JoinPointer(base, core.EscapeToken(k))
		s.emit(
			patch.Operation{Op: patch.OperationTypeRemove, Path: p},
			patch.Operation{Op: patch.OperationTypeAdd, Path: p, Value: orig.entries[k]},
		)
	}
	for _, k := range oldKeys {
		now, ok := cur.entries[k]
		if !ok {
			continue
		}
		old := orig.entries[k]
		if s.patchEqual(ctx, old, now) {
			continue
		}
		p := core.JoinPointer(base, core.EscapeToken(k))
		s.emit(
			patch.Operation{Op: patch.OperationTypeReplace, Path: p, Value: now},
			patch.Operation{Op: patch.OperationTypeReplace, Path: p, Value: old},
		)
	}
	for _, k := range sortedKeys(cur.entries) {
		if _, ok := orig.entries[k]; ok {
			continue
		}
		p := core.JoinPointer(base, core.EscapeToken(k))
		s.emit(
			patch.Operation{Op: patch.OperationTypeAdd, Path: p, Value: cur.entries[k]},
			patch.Operation{Op: patch.OperationTypeRemove, Path: p},
		)
	}
}

func (s *scope) diffList(ctx *reconcileContext, base string, old, cur []any) {
	eq := func(x, y any) bool { return s.patchEqual(ctx, x, y) }
	n, m := len(old), len(cur)

	head := 0
	for head < n && head < m && eq(old[head], cur[head]) {
		head++
	}
	tail := 0
	for tail < n-head && tail < m-head && eq(old[n-1-tail], cur[m-1-tail]) {
		tail++
	}

	switch {
	case head+tail == m:
		// Only removals. Back to front, so each operation's index is
		// valid after the ones emitted before it.
		for i := n - tail - 1; i >= head; i-- {
			p := core.JoinIndex(base, i)
			s.emit(
				patch.Operation{Op: patch.OperationTypeRemove, Path: p},
				patch.Operation{Op: patch.OperationTypeAdd, Path: p, Value: old[i]},
			)
		}
	case head+tail == n:
		// Only insertions. Front to back at final indices; a pure tail
		// append uses the "-" pointer.
		for i := head; i < m-tail; i++ {
			p := core.JoinIndex(base, i)
			fwdPath := p
			if head == n {
				fwdPath = core.JoinPointer(base, "-")
			}
			s.emit(
				patch.Operation{Op: patch.OperationTypeAdd, Path: fwdPath, Value: cur[i]},
				patch.Operation{Op: patch.OperationTypeRemove, Path: p},
			)
		}
	default:
		pairs := longestCommonSubsequence(old[head:n-tail], cur[head:m-tail], eq)
		keepOld := make(map[int]bool, len(pairs))
		keepCur := make(map[int]bool, len(pairs))
		for _, pr := range pairs {
			keepOld[head+pr.a] = true
			keepCur[head+pr.b] = true
		}
		for i := n - tail - 1; i >= head; i-- {
			if keepOld[i] {
				continue
			}
			p := core.JoinIndex(base, i)
			s.emit(
				patch.Operation{Op: patch.OperationTypeRemove, Path: p},
				patch.Operation{Op: patch.OperationTypeAdd, Path: p, Value: old[i]},
			)
		}
		for j := head; j < m-tail; j++ {
			if keepCur[j] {
				continue
			}
			p := core.JoinIndex(base, j)
			s.emit(
				patch.Operation{Op: patch.OperationTypeAdd, Path: p, Value: cur[j]},
				patch.Operation{Op: patch.OperationTypeRemove, Path: p},
			)
		}
	}
}

// orderedUnion merges two key sets preserving the order of a and appending
// keys only present in b.
func orderedUnion(a, b []string) []string {
	out := make([]string, 0, len(a)+len(b))
	seen := make(map[string]bool, len(a))
	for _, k := range a {
		out = append(out, k)
		seen[k] = true
	}
	for _, k := range b {
		if !seen[k] {
			out = append(out, k)
		}
	}
	return out
}
