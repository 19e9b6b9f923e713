package form

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// OrphanFunc receives uploads whose form was abandoned or whose URL was
// replaced before submission.
type OrphanFunc func(ctx context.Context, owner string, uploads []Upload)

// Registry keeps live form instances keyed by id and scoped to the browser
// session that opened them.
type Registry struct {
	mu      sync.Mutex
	forms   map[string]*Instance
	idle    time.Duration
	orphans OrphanFunc
	now     func() time.Time
}

func NewRegistry(idle time.Duration, orphans OrphanFunc) *Registry {
	if idle <= 0 {
		idle = 30 * time.Minute
	}
	return &Registry{
		forms:   make(map[string]*Instance),
		idle:    idle,
		orphans: orphans,
		now:     time.Now,
	}
}

func (r *Registry) NewCreate(owner, module, schemaType string) *Instance {
	return r.add(owner, ModeCreate, module, schemaType, "", nil)
}

// NewEdit opens a form pre-populated verbatim from an existing post.
func (r *Registry) NewEdit(owner, module, schemaType, postID string, data map[string]any) *Instance {
	return r.add(owner, ModeEdit, module, schemaType, postID, data)
}

func (r *Registry) add(owner string, mode Mode, module, schemaType, editID string, data map[string]any) *Instance {
	inst := newInstance(uuid.NewString(), owner, mode, module, schemaType, editID, data, r.now)
	inst.orphans = func(uploads []Upload) {
		r.report(context.Background(), owner, uploads)
	}
	r.mu.Lock()
	r.forms[inst.id] = inst
	r.mu.Unlock()
	return inst
}

// Get returns the instance only to the session that owns it.
func (r *Registry) Get(owner, id string) (*Instance, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inst, ok := r.forms[id]
	if !ok || inst.owner != owner {
		return nil, false
	}
	return inst, true
}

// Discard drops an instance, reporting its uncommitted uploads.
func (r *Registry) Discard(ctx context.Context, owner, id string) {
	r.mu.Lock()
	inst, ok := r.forms[id]
	if ok && inst.owner == owner {
		delete(r.forms, id)
	}
	r.mu.Unlock()
	if ok && inst.owner == owner {
		r.report(ctx, owner, inst.takePending())
	}
}

// Sweep drops instances idle past the registry timeout and returns how many
// were removed. Busy instances are left alone.
func (r *Registry) Sweep(ctx context.Context) int {
	cutoff := r.now().Add(-r.idle)
	var expired []*Instance

	r.mu.Lock()
	for id, inst := range r.forms {
		touched, busy := inst.idleSince()
		if busy || touched.After(cutoff) {
			continue
		}
		delete(r.forms, id)
		expired = append(expired, inst)
	}
	r.mu.Unlock()

	for _, inst := range expired {
		r.report(ctx, inst.owner, inst.takePending())
	}
	return len(expired)
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.forms)
}

func (r *Registry) report(ctx context.Context, owner string, uploads []Upload) {
	if len(uploads) == 0 || r.orphans == nil {
		return
	}
	r.orphans(ctx, owner, uploads)
}
