package domain

import "time"

// DocumentState is a document's position in the per-item state machine.
type DocumentState int

const (
	StatePending DocumentState = iota
	StateImporting
	StateCompleted
	StateFailed
	StateSkipped
)

// String returns a human-readable state name.
func (s DocumentState) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateImporting:
		return "importing"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	case StateSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// Terminal reports whether the state machine can leave this state.
func (s DocumentState) Terminal() bool {
	return s == StateCompleted || s == StateFailed || s == StateSkipped
}

// DocumentProgress tracks one selected document through a run. Created when
// the run starts, mutated in place, retained until the next run begins.
type DocumentProgress struct {
	ID            string
	Title         string
	State         DocumentState
	Percent       int
	Message       string
	Error         string
	ResultingFile string
	StartedAt     time.Time
	FinishedAt    time.Time
}

// ImportRun is the aggregate view of one pipeline invocation.
type ImportRun struct {
	ID         string
	Total      int
	Completed  int
	Failed     int
	Skipped    int
	Percent    float64
	Running    bool
	Cancelled  bool
	StartedAt  time.Time
	Throughput float64 // documents per second
	ETA        time.Duration
}

// Processed is the number of documents in a terminal state.
func (r ImportRun) Processed() int {
	return r.Completed + r.Failed + r.Skipped
}

// FailureRecord retains everything needed to retry a failed document
// without re-fetching it.
type FailureRecord struct {
	Document RemoteDocument
	Meta     DocumentMeta
	Message  string
	At       time.Time
}

// NoteFile is the converter's output for one document.
type NoteFile struct {
	Filename string
	Body     string
	Preamble Preamble
}
