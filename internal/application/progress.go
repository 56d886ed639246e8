package application

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"noteferry/internal/domain"
)

// RunCallback receives an ImportRun snapshot on every state transition.
type RunCallback func(domain.ImportRun)

// DocumentCallback receives a DocumentProgress snapshot on every
// per-document transition.
type DocumentCallback func(domain.DocumentProgress)

// Tracker derives run-level and per-document progress from orchestrator
// events. Callbacks are plain synchronous functions and must be cheap;
// they are invoked outside the tracker lock.
type Tracker struct {
	mu    sync.Mutex
	run   domain.ImportRun
	docs  map[string]*domain.DocumentProgress
	onRun RunCallback
	onDoc DocumentCallback
}

// NewTracker creates a tracker. Either callback may be nil.
func NewTracker(onRun RunCallback, onDoc DocumentCallback) *Tracker {
	return &Tracker{
		docs:  make(map[string]*domain.DocumentProgress),
		onRun: onRun,
		onDoc: onDoc,
	}
}

// Begin resets the tracker for a new run over the given selection.
func (t *Tracker) Begin(metas []domain.DocumentMeta) {
	t.mu.Lock()
	t.run = domain.ImportRun{
		ID:        uuid.NewString(),
		Total:     len(metas),
		Running:   true,
		StartedAt: time.Now(),
	}
	t.docs = make(map[string]*domain.DocumentProgress, len(metas))
	for _, m := range metas {
		t.docs[m.ID] = &domain.DocumentProgress{
			ID:    m.ID,
			Title: m.Title,
			State: domain.StatePending,
		}
	}
	run := t.run
	t.mu.Unlock()

	t.emitRun(run)
}

// Start marks a document as importing.
func (t *Tracker) Start(id string) {
	t.transition(id, func(d *domain.DocumentProgress) {
		d.State = domain.StateImporting
		d.Percent = 10
		d.Message = "importing"
		d.StartedAt = time.Now()
	})
}

// Step updates a document's progress without changing state.
func (t *Tracker) Step(id string, percent int, message string) {
	t.transition(id, func(d *domain.DocumentProgress) {
		d.Percent = percent
		d.Message = message
	})
}

// Complete marks a document done and records the resulting file.
func (t *Tracker) Complete(id, resultingFile string) {
	t.transition(id, func(d *domain.DocumentProgress) {
		d.State = domain.StateCompleted
		d.Percent = 100
		d.Message = "imported"
		d.ResultingFile = resultingFile
		d.FinishedAt = time.Now()
	})
}

// Fail marks a document failed with the error message captured verbatim.
func (t *Tracker) Fail(id, errMsg string) {
	t.transition(id, func(d *domain.DocumentProgress) {
		d.State = domain.StateFailed
		d.Percent = 100
		d.Message = "failed"
		d.Error = errMsg
		d.FinishedAt = time.Now()
	})
}

// Skip marks a document skipped with a reason.
func (t *Tracker) Skip(id, reason string) {
	t.transition(id, func(d *domain.DocumentProgress) {
		d.State = domain.StateSkipped
		d.Percent = 100
		d.Message = reason
		d.FinishedAt = time.Now()
	})
}

// Finish marks the run ended. cancelled is sticky for the snapshot.
func (t *Tracker) Finish(cancelled bool) {
	t.mu.Lock()
	t.run.Running = false
	t.run.Cancelled = cancelled
	t.recompute()
	run := t.run
	t.mu.Unlock()

	t.emitRun(run)
}

// transition applies fn to one document and re-derives the aggregate.
func (t *Tracker) transition(id string, fn func(*domain.DocumentProgress)) {
	t.mu.Lock()
	d, ok := t.docs[id]
	if !ok {
		t.mu.Unlock()
		return
	}
	fn(d)
	t.recompute()
	doc := *d
	run := t.run
	t.mu.Unlock()

	t.emitDoc(doc)
	t.emitRun(run)
}

// recompute re-derives counts, percent, throughput, and ETA. Callers hold
// the lock.
func (t *Tracker) recompute() {
	var completed, failed, skipped int
	for _, d := range t.docs {
		switch d.State {
		case domain.StateCompleted:
			completed++
		case domain.StateFailed:
			failed++
		case domain.StateSkipped:
			skipped++
		}
	}
	t.run.Completed = completed
	t.run.Failed = failed
	t.run.Skipped = skipped

	processed := t.run.Processed()
	if t.run.Total > 0 {
		t.run.Percent = float64(processed) / float64(t.run.Total) * 100
	}

	elapsed := time.Since(t.run.StartedAt).Seconds()
	if elapsed > 0 && processed > 0 {
		t.run.Throughput = float64(processed) / elapsed
		remaining := t.run.Total - processed
		t.run.ETA = time.Duration(float64(remaining)/t.run.Throughput) * time.Second
	}
}

// Snapshot returns a copy of the current run aggregate.
func (t *Tracker) Snapshot() domain.ImportRun {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.run
}

// Document returns a copy of one document's progress.
func (t *Tracker) Document(id string) (domain.DocumentProgress, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	d, ok := t.docs[id]
	if !ok {
		return domain.DocumentProgress{}, false
	}
	return *d, true
}

// AllDocuments returns copies of every document's progress.
func (t *Tracker) AllDocuments() []domain.DocumentProgress {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]domain.DocumentProgress, 0, len(t.docs))
	for _, d := range t.docs {
		out = append(out, *d)
	}
	return out
}

func (t *Tracker) emitRun(run domain.ImportRun) {
	if t.onRun != nil {
		t.onRun(run)
	}
}

func (t *Tracker) emitDoc(doc domain.DocumentProgress) {
	if t.onDoc != nil {
		t.onDoc(doc)
	}
}
