package progress

import (
	"log/slog"
	"sync"

	"github.com/p-n-ai/pai-quiz/internal/quiz"
)

const defaultFeedBuffer = 16

// Event announces a newly saved attempt.
type Event struct {
	Type       string            `json:"type"`
	Progress   quiz.UserProgress `json:"progress"`
	Percentage int               `json:"percentage"`
	Grade      string            `json:"grade"`
}

type subscriber struct {
	ch   chan Event
	once sync.Once
}

// Feed fans saved attempts out to subscribers of the same user. Publishing
// never blocks: a subscriber whose buffer is full misses the event.
type Feed struct {
	subs   map[string]map[*subscriber]struct{}
	buffer int
	mu     sync.RWMutex
}

// NewFeed creates a feed whose subscribers buffer up to buffer events.
func NewFeed(buffer int) *Feed {
	if buffer <= 0 {
		buffer = defaultFeedBuffer
	}
	return &Feed{
		subs:   make(map[string]map[*subscriber]struct{}),
		buffer: buffer,
	}
}

// Subscribe returns a channel of events for userID and a function that
// cancels the subscription and closes the channel. Cancel is safe to call
// more than once.
func (f *Feed) Subscribe(userID string) (<-chan Event, func()) {
	s := &subscriber{ch: make(chan Event, f.buffer)}

	f.mu.Lock()
	if f.subs[userID] == nil {
		f.subs[userID] = make(map[*subscriber]struct{})
	}
	f.subs[userID][s] = struct{}{}
	f.mu.Unlock()

	cancel := func() {
		f.mu.Lock()
		delete(f.subs[userID], s)
		if len(f.subs[userID]) == 0 {
			delete(f.subs, userID)
		}
		f.mu.Unlock()
		s.once.Do(func() { close(s.ch) })
	}
	return s.ch, cancel
}

// Publish delivers p to every subscriber of p.UserID.
func (f *Feed) Publish(p quiz.UserProgress) {
	pct := Percentage(p.Score, p.TotalQuestions)
	ev := Event{Type: "progress.saved", Progress: p, Percentage: pct, Grade: Grade(pct)}

	f.mu.RLock()
	defer f.mu.RUnlock()
	for s := range f.subs[p.UserID] {
		select {
		case s.ch <- ev:
		default:
			slog.Debug("live feed subscriber is full, dropping event", "user_id", p.UserID)
		}
	}
}

// Subscribers returns how many subscriptions userID has.
func (f *Feed) Subscribers(userID string) int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.subs[userID])
}
