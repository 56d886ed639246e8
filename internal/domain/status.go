package domain

// StatusKind classifies a remote document against local vault state.
type StatusKind int

const (
	StatusNew StatusKind = iota
	StatusExists
	StatusUpdated
	StatusConflict
)

// String returns a human-readable status name.
func (k StatusKind) String() string {
	switch k {
	case StatusNew:
		return "new"
	case StatusExists:
		return "exists"
	case StatusUpdated:
		return "updated"
	case StatusConflict:
		return "conflict"
	default:
		return "unknown"
	}
}

// ImportStatus is the duplicate index's verdict for one remote document.
// It is derived state and never persisted.
type ImportStatus struct {
	Kind   StatusKind
	Reason string

	// Existing is set when the verdict references a local note.
	Existing *LocalRecord

	// RequiresUserChoice is true when the index cannot decide
	// automatically and the conflict protocol must be invoked.
	RequiresUserChoice bool
}
