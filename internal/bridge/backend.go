// Package bridge holds the native object the web frontend talks to.
package bridge

import (
	"log/slog"
	"math"
	"sync"

	"github.com/rennerdo30/taqyon/internal/logging"
)

// InitialMessage is the message a new Backend starts with.
const InitialMessage = "Hello from Go backend!"

// ReplyPrefix is prepended to text echoed by SendToBackend.
const ReplyPrefix = "Backend received: "

// Backend is the bridged state: a message and a counter. Writes that do not
// change a value are not announced.
//
// Notifications are delivered one at a time in the order the writes
// happened, outside the state lock. A handler may call back into the
// Backend; notifications it causes are delivered after it returns. When
// several goroutines write at once, one of them delivers the queued
// notifications for all.
type Backend struct {
	mu      sync.Mutex
	message string
	count   int64

	messageChanged subscribers[string]
	countChanged   subscribers[int64]
	sendToFrontend subscribers[string]

	pending     []func()
	dispatching bool

	log *slog.Logger
}

// NewBackend returns a Backend in its initial state.
func NewBackend() *Backend {
	return &Backend{
		message: InitialMessage,
		log:     logging.WithComponent("bridge"),
	}
}

// Message returns the current message.
func (b *Backend) Message() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.message
}

// SetMessage stores text and notifies subscribers if it changed.
func (b *Backend) SetMessage(text string) {
	b.mu.Lock()
	if b.message == text {
		b.mu.Unlock()
		return
	}
	b.message = text
	b.log.Debug("message changed", "message", text)
	drain := b.enqueueLocked(notify(b.messageChanged.snapshot(), text))
	b.mu.Unlock()

	if drain {
		b.drain()
	}
}

// SendToBackend answers text with a sendToFrontend notification. State is
// not touched.
func (b *Backend) SendToBackend(text string) {
	b.log.Debug("message from frontend", "text", text)

	b.mu.Lock()
	drain := b.enqueueLocked(notify(b.sendToFrontend.snapshot(), ReplyPrefix+text))
	b.mu.Unlock()

	if drain {
		b.drain()
	}
}

// Count returns the current counter value.
func (b *Backend) Count() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.count
}

// SetCount stores n and notifies subscribers if it changed. Every call is
// logged, including ones that change nothing. Negative values are ignored.
func (b *Backend) SetCount(n int64) {
	b.mu.Lock()
	drain := b.setCountLocked(n)
	b.mu.Unlock()

	if drain {
		b.drain()
	}
}

// IncrementCount sets the counter to its current value plus one. At
// math.MaxInt64 the counter stays put.
func (b *Backend) IncrementCount() {
	b.mu.Lock()
	current := b.count
	b.log.Info("incrementCount called", "count", current)
	if current == math.MaxInt64 {
		b.mu.Unlock()
		b.log.Warn("count is at its maximum, not incrementing", "count", current)
		return
	}
	drain := b.setCountLocked(current + 1)
	b.mu.Unlock()

	if drain {
		b.drain()
	}
}

// setCountLocked reports whether the caller has to drain the queue.
func (b *Backend) setCountLocked(n int64) bool {
	b.log.Info("setCount called", "value", n, "current", b.count)

	if n < 0 {
		b.log.Warn("ignoring negative count", "value", n)
		return false
	}
	if b.count == n {
		return false
	}
	b.count = n
	return b.enqueueLocked(notify(b.countChanged.snapshot(), n))
}

func notify[T any](handlers []func(T), v T) func() {
	if len(handlers) == 0 {
		return nil
	}
	return func() {
		for _, h := range handlers {
			h(v)
		}
	}
}

// enqueueLocked queues n and reports whether the caller became the
// dispatcher.
func (b *Backend) enqueueLocked(n func()) bool {
	if n == nil {
		return false
	}
	b.pending = append(b.pending, n)
	if b.dispatching {
		return false
	}
	b.dispatching = true
	return true
}

func (b *Backend) drain() {
	defer func() {
		if r := recover(); r != nil {
			b.mu.Lock()
			b.pending = nil
			b.dispatching = false
			b.mu.Unlock()
			panic(r)
		}
	}()

	for {
		b.mu.Lock()
		if len(b.pending) == 0 {
			b.dispatching = false
			b.mu.Unlock()
			return
		}
		next := b.pending[0]
		b.pending[0] = nil
		b.pending = b.pending[1:]
		b.mu.Unlock()

		next()
	}
}

// OnMessageChanged registers fn for message changes. The returned func
// removes it.
func (b *Backend) OnMessageChanged(fn func(message string)) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.messageChanged.add(fn)
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.messageChanged.remove(id)
	}
}

// OnCountChanged registers fn for counter changes.
func (b *Backend) OnCountChanged(fn func(count int64)) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.countChanged.add(fn)
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.countChanged.remove(id)
	}
}

// OnSendToFrontend registers fn for replies produced by SendToBackend.
func (b *Backend) OnSendToFrontend(fn func(reply string)) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.sendToFrontend.add(fn)
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.sendToFrontend.remove(id)
	}
}

// Snapshot is a point-in-time copy of the bridged state.
type Snapshot struct {
	Message string `json:"message"`
	Count   int64  `json:"count"`
}

// Snapshot returns the current state.
func (b *Backend) Snapshot() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Snapshot{Message: b.message, Count: b.count}
}

// subscribers keeps handlers in registration order. Callers hold the
// Backend's lock.
type subscribers[T any] struct {
	next int
	subs []subscription[T]
}

type subscription[T any] struct {
	id int
	fn func(T)
}

func (s *subscribers[T]) add(fn func(T)) int {
	s.next++
	s.subs = append(s.subs, subscription[T]{id: s.next, fn: fn})
	return s.next
}

func (s *subscribers[T]) remove(id int) {
	for i, sub := range s.subs {
		if sub.id == id {
			s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
			return
		}
	}
}

func (s *subscribers[T]) snapshot() []func(T) {
	if len(s.subs) == 0 {
		return nil
	}
	out := make([]func(T), len(s.subs))
	for i, sub := range s.subs {
		out[i] = sub.fn
	}
	return out
}
