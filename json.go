package draft

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// MarshalJSON encodes the object with its properties in insertion order.
// Drafts encode their current view.
func (o *Object) MarshalJSON() ([]byte, error) {
	if o.st != nil {
		return json.Marshal(Current(o))
	}
	var b bytes.Buffer
	b.WriteByte('{')
	for i, k := range o.keys {
		if i > 0 {
			b.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		b.Write(kb)
		b.WriteByte(':')
		vb, err := json.Marshal(o.props[k])
		if err != nil {
			return nil, err
		}
		b.Write(vb)
	}
	b.WriteByte('}')
	return b.Bytes(), nil
}

// MarshalJSON encodes the list as a JSON array. Drafts encode their current
// view.
func (l *List) MarshalJSON() ([]byte, error) {
	if l.st != nil {
		return json.Marshal(Current(l))
	}
	var b bytes.Buffer
	b.WriteByte('[')
	for i, e := range l.elems {
		if i > 0 {
			b.WriteByte(',')
		}
		eb, err := json.Marshal(e)
		if err != nil {
			return nil, err
		}
		b.Write(eb)
	}
	b.WriteByte(']')
	return b.Bytes(), nil
}

// MarshalJSON encodes the map with keys in sorted order. Drafts encode
// their current view.
func (m *Map) MarshalJSON() ([]byte, error) {
	if m.st != nil {
		return json.Marshal(Current(m))
	}
	var b bytes.Buffer
	b.WriteByte('{')
	for i, k := range sortedKeys(m.entries) {
		if i > 0 {
			b.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		b.Write(kb)
		b.WriteByte(':')
		vb, err := json.Marshal(m.entries[k])
		if err != nil {
			return nil, err
		}
		b.Write(vb)
	}
	b.WriteByte('}')
	return b.Bytes(), nil
}

// ToJSON encodes a value, node tree or scalar, as JSON.
func ToJSON(v any) ([]byte, error) {
	return json.Marshal(v)
}

// FromJSON decodes a JSON document into a locked node tree: JSON objects
// become maps, arrays become lists, numbers become float64.
func FromJSON(data []byte) (any, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: decoding: %v", ErrDraft, err)
	}
	n := fromJSONValue(raw)
	lockValue(n)
	return n, nil
}

func fromJSONValue(v any) any {
	switch x := v.(type) {
	case map[string]any:
		m := &Map{entries: make(map[string]any, len(x))}
		for k, e := range x {
			m.entries[k] = fromJSONValue(e)
		}
		return m
	case []any:
		l := &List{elems: make([]any, len(x))}
		for i, e := range x {
			l.elems[i] = fromJSONValue(e)
		}
		return l
	default:
		return v
	}
}
