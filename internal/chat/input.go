package chat

import (
	"log/slog"
	"sync"
	"time"
)

const (
	// LongPressThreshold opens the reaction picker.
	LongPressThreshold = 500 * time.Millisecond
	// TypingIdle is how long after the last keystroke typing stops.
	TypingIdle = 2 * time.Second
)

// PressTracker fires onLongPress when a message is held for the threshold.
// Releasing earlier cancels it.
type PressTracker struct {
	threshold   time.Duration
	onLongPress func(messageID string)

	timer *time.Timer
	// gen invalidates timers that fired after Release.
	gen   int
	fired bool

	mu sync.Mutex
}

func NewPressTracker(threshold time.Duration, onLongPress func(messageID string)) *PressTracker {
	if threshold <= 0 {
		threshold = LongPressThreshold
	}
	return &PressTracker{threshold: threshold, onLongPress: onLongPress}
}

// Press starts tracking a hold on messageID, replacing any earlier press.
func (p *PressTracker) Press(messageID string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.timer != nil {
		p.timer.Stop()
	}
	p.gen++
	p.fired = false
	gen := p.gen
	p.timer = time.AfterFunc(p.threshold, func() {
		p.mu.Lock()
		if gen != p.gen {
			p.mu.Unlock()
			return
		}
		p.fired = true
		p.mu.Unlock()
		p.onLongPress(messageID)
	})
}

// Release ends the hold and reports whether it counted as a long press.
func (p *PressTracker) Release() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	p.gen++
	fired := p.fired
	p.fired = false
	return fired
}

// TypingNotifier turns keystrokes into typing frames: true on the first
// keystroke, false once input has been idle.
type TypingNotifier struct {
	send func(typing bool) error
	idle time.Duration

	typing bool
	timer  *time.Timer
	gen    int

	mu sync.Mutex
}

func NewTypingNotifier(idle time.Duration, send func(typing bool) error) *TypingNotifier {
	if idle <= 0 {
		idle = TypingIdle
	}
	return &TypingNotifier{send: send, idle: idle}
}

// Input records a keystroke.
func (t *TypingNotifier) Input() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.typing {
		t.typing = true
		t.emit(true)
	}
	if t.timer != nil {
		t.timer.Stop()
	}
	t.gen++
	gen := t.gen
	t.timer = time.AfterFunc(t.idle, func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		if gen != t.gen || !t.typing {
			return
		}
		t.typing = false
		t.emit(false)
	})
}

// Stop ends typing immediately, for example when the message is sent.
func (t *TypingNotifier) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.gen++
	if t.typing {
		t.typing = false
		t.emit(false)
	}
}

// Cancel forgets any typing state without sending a frame. Used when the
// channel the frames would go to is gone.
func (t *TypingNotifier) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.gen++
	t.typing = false
}

func (t *TypingNotifier) emit(typing bool) {
	if err := t.send(typing); err != nil {
		slog.Warn("failed to send typing frame", "typing", typing, "error", err)
	}
}

// Playback tracks which voice messages are playing. Several may play at
// once.
type Playback struct {
	playing map[string]bool
	mu      sync.Mutex
}

func NewPlayback() *Playback {
	return &Playback{playing: make(map[string]bool)}
}

// Toggle flips the message's state and returns the new one.
func (p *Playback) Toggle(messageID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.playing[messageID] {
		delete(p.playing, messageID)
		return false
	}
	p.playing[messageID] = true
	return true
}

func (p *Playback) Playing(messageID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing[messageID]
}

// Finished is called when a clip reaches its end.
func (p *Playback) Finished(messageID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.playing, messageID)
}

func (p *Playback) Count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.playing)
}
