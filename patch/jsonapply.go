package patch

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/goimmut/draft/internal/core"
)

// ApplyJSON applies the patch to a raw JSON document and returns the patched
// document. The input document is never modified. Operations are applied
// sequentially; the first failing operation aborts the whole application.
func ApplyJSON(doc []byte, p Patch) ([]byte, error) {
	out := doc
	for i, op := range p {
		var err error
		out, err = applyJSONOp(out, op)
		if err != nil {
			return nil, fmt.Errorf("patch: op %d (%s %s): %w", i, op.Op, op.Path, err)
		}
	}
	return out, nil
}

func applyJSONOp(doc []byte, op Operation) ([]byte, error) {
	toks := core.ParsePointer(op.Path)

	if len(toks) == 0 {
		return applyRootOp(doc, op)
	}

	last := toks[len(toks)-1]
	parentToks := toks[:len(toks)-1]
	parentPath := gjsonPath(parentToks)

	var parent gjson.Result
	if len(parentToks) == 0 {
		parent = gjson.ParseBytes(doc)
	} else {
		parent = gjson.GetBytes(doc, parentPath)
		if !parent.Exists() {
			return nil, fmt.Errorf("parent path %q not found", op.Path)
		}
	}

	if parent.IsArray() && (last.IsIndex || last.Append) {
		return applyArrayOp(doc, parent, parentPath, last, op)
	}

	fullPath := gjsonPath(toks)
	switch op.Op {
	case OperationTypeAdd:
		raw, err := json.Marshal(op.Value)
		if err != nil {
			return nil, err
		}
		return sjson.SetRawBytes(doc, fullPath, raw)
	case OperationTypeReplace:
		if !gjson.GetBytes(doc, fullPath).Exists() {
			return nil, fmt.Errorf("path %q not found", op.Path)
		}
		raw, err := json.Marshal(op.Value)
		if err != nil {
			return nil, err
		}
		return sjson.SetRawBytes(doc, fullPath, raw)
	case OperationTypeRemove:
		if !gjson.GetBytes(doc, fullPath).Exists() {
			return nil, fmt.Errorf("path %q not found", op.Path)
		}
		return sjson.DeleteBytes(doc, fullPath)
	case OperationTypeTest:
		return doc, testValue(gjson.GetBytes(doc, fullPath), op.Value)
	default:
		return nil, fmt.Errorf("unsupported op %q", op.Op)
	}
}

func applyRootOp(doc []byte, op Operation) ([]byte, error) {
	switch op.Op {
	case OperationTypeAdd, OperationTypeReplace:
		return json.Marshal(op.Value)
	case OperationTypeTest:
		return doc, testValue(gjson.ParseBytes(doc), op.Value)
	default:
		return nil, fmt.Errorf("op %q not valid at document root", op.Op)
	}
}

func applyArrayOp(doc []byte, parent gjson.Result, parentPath string, last core.Token, op Operation) ([]byte, error) {
	elems := parent.Array()
	raws := make([]string, len(elems))
	for i, e := range elems {
		raws[i] = e.Raw
	}

	idx := last.Index
	if last.Append {
		idx = len(raws)
	}

	switch op.Op {
	case OperationTypeAdd:
		if idx < 0 || idx > len(raws) {
			return nil, fmt.Errorf("index %d out of bounds (len %d)", idx, len(raws))
		}
		raw, err := json.Marshal(op.Value)
		if err != nil {
			return nil, err
		}
		raws = append(raws, "")
		copy(raws[idx+1:], raws[idx:])
		raws[idx] = string(raw)
	case OperationTypeRemove:
		if idx < 0 || idx >= len(raws) {
			return nil, fmt.Errorf("index %d out of bounds (len %d)", idx, len(raws))
		}
		raws = append(raws[:idx], raws[idx+1:]...)
	case OperationTypeReplace:
		if idx < 0 || idx >= len(raws) {
			return nil, fmt.Errorf("index %d out of bounds (len %d)", idx, len(raws))
		}
		raw, err := json.Marshal(op.Value)
		if err != nil {
			return nil, err
		}
		raws[idx] = string(raw)
	case OperationTypeTest:
		if idx < 0 || idx >= len(raws) {
			return nil, fmt.Errorf("index %d out of bounds (len %d)", idx, len(raws))
		}
		return doc, testValue(elems[idx], op.Value)
	default:
		return nil, fmt.Errorf("unsupported op %q", op.Op)
	}

	rebuilt := "[" + strings.Join(raws, ",") + "]"
	if parentPath == "" {
		return []byte(rebuilt), nil
	}
	return sjson.SetRawBytes(doc, parentPath, []byte(rebuilt))
}

// testValue compares a document value against an expected value, normalizing
// both through JSON so that numeric types compare by value.
func testValue(got gjson.Result, want any) error {
	if !got.Exists() {
		return fmt.Errorf("test failed: value not found")
	}
	wantRaw, err := json.Marshal(want)
	if err != nil {
		return err
	}
	var wantNorm, gotNorm any
	if err := json.Unmarshal(wantRaw, &wantNorm); err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(got.Raw), &gotNorm); err != nil {
		return err
	}
	if !reflect.DeepEqual(gotNorm, wantNorm) {
		return fmt.Errorf("test failed: expected %s, got %s", wantRaw, got.Raw)
	}
	return nil
}

// gjsonPath converts decoded JSON Pointer tokens into a gjson/sjson path.
func gjsonPath(toks []core.Token) string {
	var b strings.Builder
	for i, t := range toks {
		if i > 0 {
			b.WriteByte('.')
		}
		if t.IsIndex {
			b.WriteString(strconv.Itoa(t.Index))
			continue
		}
		b.WriteString(escapeGJSON(t.Key))
	}
	return b.String()
}

func escapeGJSON(key string) string {
	var b strings.Builder
	for _, r := range key {
		switch r {
		case '.', '*', '?', '\\', '|', '#', '@':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
