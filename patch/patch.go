package patch

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Patch is an ordered sequence of Operations. Operations are meant to be
// applied sequentially: every operation observes the effect of the ones
// before it.
type Patch []Operation

// FromJSON decodes an RFC 6902 JSON document into a Patch.
func FromJSON(data []byte) (Patch, error) {
	var p Patch
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("patch: decoding: %w", err)
	}
	return p, nil
}

// ToJSON encodes the patch as an RFC 6902 JSON document. An empty patch
// encodes as an empty array rather than null.
func (p Patch) ToJSON() ([]byte, error) {
	if p == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(p)
}

// Reversed returns a copy of the patch with the operation order reversed.
// Inverse patches are accumulated in forward-application order and must be
// reversed before being applied.
func (p Patch) Reversed() Patch {
	out := make(Patch, len(p))
	for i, op := range p {
		out[len(p)-1-i] = op
	}
	return out
}

func (p Patch) String() string {
	if len(p) == 0 {
		return "[]"
	}
	var b strings.Builder
	b.WriteString("[")
	for i, op := range p {
		if i > 0 {
			b.WriteString(", ")
		}
		if op.Value != nil {
			fmt.Fprintf(&b, "{%s %s %v}", op.Op, op.Path, op.Value)
		} else {
			fmt.Fprintf(&b, "{%s %s}", op.Op, op.Path)
		}
	}
	b.WriteString("]")
	return b.String()
}
