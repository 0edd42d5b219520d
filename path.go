package draft

import (
	"strings"

	"github.com/goimmut/draft/internal/core"
)

// PathSegment is one node of an immutable, parent-linked chain of path
// segments leading from the root of a draft tree to the current node. The
// chain is shared between drafts: appending a child never mutates the
// parent. A nil *PathSegment is the root and renders as the empty path.
type PathSegment struct {
	parent *PathSegment
	value  string
}

// child returns a new segment extending p. Paths are only materialized when
// patch generation is active; callers pass nil through otherwise.
func (p *PathSegment) child(value string) *PathSegment {
	return &PathSegment{parent: p, value: value}
}

// String renders the full JSON Pointer path by walking the parent links back
// to the root.
func (p *PathSegment) String() string {
	if p == nil {
		return ""
	}
	var values []string
	for s := p; s != nil; s = s.parent {
		values = append(values, s.value)
	}
	var b strings.Builder
	for i := len(values) - 1; i >= 0; i-- {
		b.WriteByte('/')
		b.WriteString(core.EscapeToken(values[i]))
	}
	return b.String()
}
