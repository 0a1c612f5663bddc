package run

import (
	"sort"
	"sync"

	"github.com/zdemat/interceptor/internal/store"
	"github.com/zdemat/interceptor/internal/window"
	"github.com/zdemat/interceptor/pkg/types"
)

// Run is one logical data-collection session.
//
// Store and threshold are safe for concurrent reads; Window and the pending
// buffer belong to the scheduler goroutine exclusively.
type Run struct {
	ID     int
	Store  *store.Store
	Window *window.Window

	mu        sync.RWMutex
	threshold int

	pending []types.Record
}

// Threshold returns the run's current spot-count cutoff.
func (r *Run) Threshold() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.threshold
}

// SetThreshold replaces the cutoff. The new value applies retroactively on
// the next recomputation; thresholds are not versioned.
func (r *Run) SetThreshold(t int) {
	r.mu.Lock()
	r.threshold = t
	r.mu.Unlock()
}

// Enqueue appends records to the pending buffer. Scheduler goroutine only.
func (r *Run) Enqueue(records []types.Record) {
	r.pending = append(r.pending, records...)
}

// TakePending hands over the pending buffer and leaves it empty. Scheduler
// goroutine only.
func (r *Run) TakePending() []types.Record {
	p := r.pending
	r.pending = nil
	return p
}

// Registry holds all known runs keyed by id.
type Registry struct {
	mu               sync.RWMutex
	runs             map[int]*Run
	defaultThreshold int
}

// NewRegistry creates an empty Registry. New runs start with defaultThreshold
// as their cutoff.
func NewRegistry(defaultThreshold int) *Registry {
	return &Registry{
		runs:             make(map[int]*Run),
		defaultThreshold: defaultThreshold,
	}
}

// Route resolves each record's run, creating runs as needed, and enqueues
// the record in that run's pending buffer. Records are processed in batch
// order, so cross-run interleaving is preserved within each run's own store.
//
// A record tagged with a non-positive run id is assigned to a fresh run,
// max(existing ids)+1, starting at 1.
//
// Route returns the ids of runs created by this batch, in creation order, so
// the caller can announce them to the presentation layer. Scheduler
// goroutine only.
func (g *Registry) Route(batch []types.TaggedRecord) []int {
	var created []int
	for _, tr := range batch {
		id := tr.RunID
		if id <= 0 {
			id = g.nextID()
		}
		r, isNew := g.resolve(id)
		if isNew {
			created = append(created, id)
		}
		r.Enqueue([]types.Record{tr.Record})
	}
	return created
}

// Get returns the run for the given id.
func (g *Registry) Get(id int) (*Run, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	r, ok := g.runs[id]
	return r, ok
}

// IDs returns all known run ids in ascending order.
func (g *Registry) IDs() []int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]int, 0, len(g.runs))
	for id := range g.runs {
		out = append(out, id)
	}
	sort.Ints(out)
	return out
}

// Count returns the number of runs created so far.
func (g *Registry) Count() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.runs)
}

// All returns every run, ordered by id.
func (g *Registry) All() []*Run {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]*Run, 0, len(g.runs))
	for _, r := range g.runs {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// SetDefaultThreshold changes the cutoff newly created runs start with.
// Existing runs keep whatever threshold they were adjusted to.
func (g *Registry) SetDefaultThreshold(t int) {
	g.mu.Lock()
	g.defaultThreshold = t
	g.mu.Unlock()
}

// resolve returns the run for id, creating it if unseen.
func (g *Registry) resolve(id int) (*Run, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if r, ok := g.runs[id]; ok {
		return r, false
	}
	r := &Run{
		ID:        id,
		Store:     store.New(),
		Window:    window.New(),
		threshold: g.defaultThreshold,
	}
	g.runs[id] = r
	return r, true
}

// nextID returns max(existing ids)+1, or 1 for an empty registry.
func (g *Registry) nextID() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	next := 1
	for id := range g.runs {
		if id >= next {
			next = id + 1
		}
	}
	return next
}
