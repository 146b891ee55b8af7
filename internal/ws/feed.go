package ws

import (
	"sync"

	"skillconnect/internal/chat"
	"skillconnect/internal/models"
)

// Feed holds received notifications, most recent first. A capacity of zero
// keeps all of them.
type Feed struct {
	ring *chat.Ring[models.Notification]

	subscribers map[int]func(models.Notification)
	nextSub     int
	mu          sync.Mutex
}

func NewFeed(capacity int) *Feed {
	return &Feed{
		ring:        chat.NewRing[models.Notification](capacity),
		subscribers: make(map[int]func(models.Notification)),
	}
}

// Prepend adds n in front of the feed.
func (f *Feed) Prepend(n models.Notification) {
	f.ring.Add(n)

	f.mu.Lock()
	subs := make([]func(models.Notification), 0, len(f.subscribers))
	for _, fn := range f.subscribers {
		subs = append(subs, fn)
	}
	f.mu.Unlock()

	for _, fn := range subs {
		fn(n)
	}
}

// List returns the notifications, newest first.
func (f *Feed) List() []models.Notification {
	return f.ring.Newest()
}

func (f *Feed) Len() int {
	return f.ring.Len()
}

// Clear empties the feed, for example on logout.
func (f *Feed) Clear() {
	f.ring.Reset()
}

// Subscribe registers fn for every new notification.
func (f *Feed) Subscribe(fn func(models.Notification)) func() {
	f.mu.Lock()
	id := f.nextSub
	f.nextSub++
	f.subscribers[id] = fn
	f.mu.Unlock()

	return func() {
		f.mu.Lock()
		delete(f.subscribers, id)
		f.mu.Unlock()
	}
}
