package toast

import (
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

const DefaultDuration = 2 * time.Second

type Kind string

const (
	KindInfo    Kind = "info"
	KindSuccess Kind = "success"
	KindWarning Kind = "warning"
	KindError   Kind = "error"
)

// Toast is a transient user notification.
type Toast struct {
	ID       string        `json:"id"`
	Message  string        `json:"message"`
	Kind     Kind          `json:"kind"`
	Duration time.Duration `json:"duration"`
}

// Registry keeps the live toasts in creation order. Each Add schedules
// exactly one removal; Remove is idempotent so the timer and a manual
// dismissal may race.
type Registry struct {
	defaultDuration time.Duration

	toasts      []Toast
	timers      map[string]*time.Timer
	subscribers map[int]func([]Toast)
	nextSub     int
	closed      bool

	mux sync.Mutex
}

func New(defaultDuration time.Duration) *Registry {
	if defaultDuration <= 0 {
		defaultDuration = DefaultDuration
	}
	return &Registry{
		defaultDuration: defaultDuration,
		timers:          make(map[string]*time.Timer),
		subscribers:     make(map[int]func([]Toast)),
	}
}

// Add enqueues a toast and returns its id immediately.
func (r *Registry) Add(message string, kind Kind, duration time.Duration) string {
	if kind == "" {
		kind = KindInfo
	}
	if duration <= 0 {
		duration = r.defaultDuration
	}

	t := Toast{
		ID:       uuid.NewString(),
		Message:  message,
		Kind:     kind,
		Duration: duration,
	}

	r.mux.Lock()
	if r.closed {
		r.mux.Unlock()
		return t.ID
	}
	r.toasts = append(r.toasts, t)
	r.timers[t.ID] = time.AfterFunc(duration, func() { r.Remove(t.ID) })
	snapshot := r.snapshotLocked()
	r.mux.Unlock()

	r.notify(snapshot)
	return t.ID
}

// Remove drops the toast with the given id. Unknown ids are ignored.
// A still pending timer is left alone; when it fires it finds nothing.
func (r *Registry) Remove(id string) {
	r.mux.Lock()
	idx := slices.IndexFunc(r.toasts, func(t Toast) bool { return t.ID == id })
	if idx < 0 {
		r.mux.Unlock()
		return
	}
	r.toasts = slices.Delete(r.toasts, idx, idx+1)
	delete(r.timers, id)
	snapshot := r.snapshotLocked()
	r.mux.Unlock()

	r.notify(snapshot)
}

func (r *Registry) Info(message string, duration time.Duration) string {
	return r.Add(message, KindInfo, duration)
}

func (r *Registry) Success(message string, duration time.Duration) string {
	return r.Add(message, KindSuccess, duration)
}

func (r *Registry) Warning(message string, duration time.Duration) string {
	return r.Add(message, KindWarning, duration)
}

func (r *Registry) Error(message string, duration time.Duration) string {
	return r.Add(message, KindError, duration)
}

// List returns a copy of the live toasts.
func (r *Registry) List() []Toast {
	r.mux.Lock()
	defer r.mux.Unlock()
	return r.snapshotLocked()
}

// Subscribe registers fn to be called with the toast list after every
// change. The returned func unsubscribes.
func (r *Registry) Subscribe(fn func([]Toast)) func() {
	r.mux.Lock()
	id := r.nextSub
	r.nextSub++
	r.subscribers[id] = fn
	r.mux.Unlock()

	return func() {
		r.mux.Lock()
		delete(r.subscribers, id)
		r.mux.Unlock()
	}
}

// Close stops all pending timers and clears the list.
func (r *Registry) Close() {
	r.mux.Lock()
	for _, t := range r.timers {
		t.Stop()
	}
	r.timers = make(map[string]*time.Timer)
	r.toasts = nil
	r.closed = true
	r.mux.Unlock()

	r.notify(nil)
}

func (r *Registry) snapshotLocked() []Toast {
	return slices.Clone(r.toasts)
}

func (r *Registry) notify(snapshot []Toast) {
	r.mux.Lock()
	subs := make([]func([]Toast), 0, len(r.subscribers))
	for _, fn := range r.subscribers {
		subs = append(subs, fn)
	}
	r.mux.Unlock()

	for _, fn := range subs {
		fn(snapshot)
	}
}
