package patch

// OperationType defines the allowed JSON Patch operation types.
type OperationType string

const (
	OperationTypeAdd     OperationType = "add"
	OperationTypeRemove  OperationType = "remove"
	OperationTypeReplace OperationType = "replace"
	OperationTypeTest    OperationType = "test"
)

// Operation represents a single operation in a Patch. Paths use JSON Pointer
// (RFC 6901) syntax; the "-" segment addresses the position past the end of
// a list.
type Operation struct {
	Op    OperationType `json:"op"`
	Path  string        `json:"path"`
	Value any           `json:"value,omitempty"` // Used for "add", "replace", "test".
	From  string        `json:"from,omitempty"`  // Reserved for "move" and "copy" when decoding external patches.
}
