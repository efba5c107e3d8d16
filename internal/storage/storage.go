package storage

import (
	"sync"

	"github.com/Tiliavir/timesheet/internal/model"
)

// Repository is the in-memory entry collection. State lives for the
// process lifetime only; insertion order is kept for listing.
type Repository struct {
	mu      sync.RWMutex
	entries []model.Entry
}

// NewRepository returns a repository holding the given entries in order.
func NewRepository(seed ...model.Entry) *Repository {
	entries := make([]model.Entry, 0, len(seed))
	entries = append(entries, seed...)
	return &Repository{entries: entries}
}

// List returns a snapshot of all entries in insertion order.
func (r *Repository) List() []model.Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Len returns the number of stored entries.
func (r *Repository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Get returns the entry with the given id.
func (r *Repository) Get(id string) (model.Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if i := r.indexOf(id); i >= 0 {
		return r.entries[i], true
	}
	return model.Entry{}, false
}

// Insert appends entry. The caller guarantees entry.ID is set and unique.
func (r *Repository) Insert(entry model.Entry) model.Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
	return entry
}

// Update merges p over the entry with the given id and returns the merged
// record, or model.ErrNotFound.
func (r *Repository) Update(id string, p model.Patch) (model.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.indexOf(id)
	if i < 0 {
		return model.Entry{}, model.ErrNotFound
	}
	r.entries[i] = p.Apply(r.entries[i])
	return r.entries[i], nil
}

// Delete removes the entry with the given id and reports whether it existed.
func (r *Repository) Delete(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.indexOf(id)
	if i < 0 {
		return false
	}
	r.entries = append(r.entries[:i], r.entries[i+1:]...)
	return true
}

// indexOf must be called with mu held.
func (r *Repository) indexOf(id string) int {
	for i, e := range r.entries {
		if e.ID == id {
			return i
		}
	}
	return -1
}

// DemoEntries returns the three sample entries the store starts with when
// demo seeding is enabled.
func DemoEntries() []model.Entry {
	return []model.Entry{
		{
			ID:          "1",
			WeekNumber:  1,
			Date:        "2025-01-06",
			Status:      model.StatusSubmitted,
			Hours:       model.Float(40),
			Description: model.String("Week 1 timesheet"),
		},
		{
			ID:          "2",
			WeekNumber:  2,
			Date:        "2025-01-13",
			Status:      model.StatusApproved,
			Hours:       model.Float(40),
			Description: model.String("Week 2 timesheet"),
		},
		{
			ID:          "3",
			WeekNumber:  3,
			Date:        "2025-01-20",
			Status:      model.StatusDraft,
			Hours:       model.Float(35),
			Description: model.String("Week 3 timesheet"),
		},
	}
}
