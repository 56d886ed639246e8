package application

import (
	"sort"
	"sync"
	"time"

	"noteferry/internal/domain"
)

// FailureRegistry retains failed documents with enough context to retry
// them without a re-fetch. Entries leave the registry only on a successful
// import of the same id.
type FailureRegistry struct {
	mu      sync.Mutex
	records map[string]domain.FailureRecord
}

// NewFailureRegistry creates an empty registry.
func NewFailureRegistry() *FailureRegistry {
	return &FailureRegistry{records: make(map[string]domain.FailureRecord)}
}

// Add records a failure, replacing any earlier one for the same id.
func (r *FailureRegistry) Add(doc domain.RemoteDocument, meta domain.DocumentMeta, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[doc.ID] = domain.FailureRecord{
		Document: doc,
		Meta:     meta,
		Message:  message,
		At:       time.Now(),
	}
}

// Remove drops the record for id, if present.
func (r *FailureRegistry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.records, id)
}

// All returns the records ordered by failure time.
func (r *FailureRegistry) All() []domain.FailureRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.FailureRecord, 0, len(r.records))
	for _, rec := range r.records {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].At.Before(out[j].At) })
	return out
}

// Len returns the number of retained failures.
func (r *FailureRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}
