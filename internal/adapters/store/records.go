package store

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"leaderdesk/internal/domain"

	"github.com/google/uuid"
)

// Storage keys, one per entity collection.
const (
	TipsKey       = "truora_tips"
	ActivitiesKey = "truora_activities"
	TasksKey      = "truora_tasks"
)

// Records is an owned mutable sequence of entities synced to a
// persistent blob. Every mutation serializes to the blob before it is
// considered complete: memory and blob move in lockstep.
type Records[T any] struct {
	mu    sync.RWMutex
	blob  Blob
	key   string
	idOf  func(T) string
	items []T
	subs  []func([]T)
}

// NewRecords loads the collection stored under key. An unparsable
// blob fails hard with ErrStoreCorrupt rather than silently starting
// from an empty list.
func NewRecords[T any](blob Blob, key string, idOf func(T) string) (*Records[T], error) {
	r := &Records[T]{blob: blob, key: key, idOf: idOf}

	raw, ok, err := blob.Get(key)
	if err != nil {
		return nil, err
	}
	if ok && raw != "" {
		if err := json.Unmarshal([]byte(raw), &r.items); err != nil {
			return nil, fmt.Errorf("%w: key %q: %v", domain.ErrStoreCorrupt, key, err)
		}
	}
	return r, nil
}

// List returns a snapshot copy of the collection.
func (r *Records[T]) List() []T {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]T, len(r.items))
	copy(out, r.items)
	return out
}

// Get returns the record with the given id.
func (r *Records[T]) Get(id string) (T, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, item := range r.items {
		if r.idOf(item) == id {
			return item, nil
		}
	}
	var zero T
	return zero, domain.ErrRecordNotFound
}

// Add appends a record and persists the collection.
func (r *Records[T]) Add(item T) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	next := append(append([]T(nil), r.items...), item)
	if err := r.persist(next); err != nil {
		return err
	}
	r.items = next
	r.notify()
	return nil
}

// Update applies patch to the record with the given id and persists
// the collection. The patched record is returned.
func (r *Records[T]) Update(id string, patch func(*T)) (T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var zero T
	idx := -1
	for i, item := range r.items {
		if r.idOf(item) == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return zero, domain.ErrRecordNotFound
	}

	next := append([]T(nil), r.items...)
	patch(&next[idx])
	if err := r.persist(next); err != nil {
		return zero, err
	}
	r.items = next
	r.notify()
	return next[idx], nil
}

// Remove deletes the record with the given id and persists the
// collection.
func (r *Records[T]) Remove(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	next := make([]T, 0, len(r.items))
	for _, item := range r.items {
		if r.idOf(item) != id {
			next = append(next, item)
		}
	}
	if len(next) == len(r.items) {
		return domain.ErrRecordNotFound
	}

	if err := r.persist(next); err != nil {
		return err
	}
	r.items = next
	r.notify()
	return nil
}

// Len returns the current number of records.
func (r *Records[T]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}

// Subscribe registers fn to be called with a snapshot after every
// committed mutation. Callbacks run synchronously under the store
// lock; keep them cheap.
func (r *Records[T]) Subscribe(fn func([]T)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subs = append(r.subs, fn)
}

// persist writes the candidate collection to the blob. The in-memory
// list is only swapped after the write succeeds.
func (r *Records[T]) persist(items []T) error {
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode %q: %w", r.key, err)
	}
	return r.blob.Set(r.key, string(data))
}

func (r *Records[T]) notify() {
	if len(r.subs) == 0 {
		return
	}
	snapshot := make([]T, len(r.items))
	copy(snapshot, r.items)
	for _, fn := range r.subs {
		fn(snapshot)
	}
}

// NewID builds a generation-time unique token: prefix, wall-clock
// millis, and a random suffix. No global counter is needed.
func NewID(prefix string) string {
	return fmt.Sprintf("%s_%d_%s", prefix, time.Now().UnixMilli(), uuid.NewString()[:8])
}

// NewTipStore opens the tip record collection.
func NewTipStore(blob Blob) (*Records[domain.Tip], error) {
	return NewRecords(blob, TipsKey, func(t domain.Tip) string { return t.ID })
}

// NewActivityStore opens the activity collection.
func NewActivityStore(blob Blob) (*Records[domain.Activity], error) {
	return NewRecords(blob, ActivitiesKey, func(a domain.Activity) string { return a.ID })
}

// NewTaskStore opens the task collection.
func NewTaskStore(blob Blob) (*Records[domain.Task], error) {
	return NewRecords(blob, TasksKey, func(t domain.Task) string { return t.ID })
}
