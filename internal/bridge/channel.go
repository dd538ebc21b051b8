package bridge

// Events the Channel emits to the page.
const (
	EventMessageChanged = "backend:messageChanged"
	EventCountChanged   = "backend:countChanged"
	EventSendToFrontend = "backend:sendToFrontend"
)

// Emitter delivers events to the page.
type Emitter interface {
	EventsEmit(name string, data ...interface{})
}

// Channel is bound into the web view as window.go.bridge.Channel. Every
// exported method is callable from JavaScript, so it exposes nothing beyond
// the two properties and two actions of the Backend.
type Channel struct {
	backend *Backend
}

// NewChannel binds backend to the page. Backend notifications are forwarded
// through emitter for the lifetime of the process.
func NewChannel(backend *Backend, emitter Emitter) *Channel {
	backend.OnMessageChanged(func(message string) {
		emitter.EventsEmit(EventMessageChanged, message)
	})
	backend.OnCountChanged(func(count int64) {
		emitter.EventsEmit(EventCountChanged, count)
	})
	backend.OnSendToFrontend(func(reply string) {
		emitter.EventsEmit(EventSendToFrontend, reply)
	})
	return &Channel{backend: backend}
}

// Message returns the current message.
func (c *Channel) Message() string { return c.backend.Message() }

// SetMessage updates the message.
func (c *Channel) SetMessage(text string) { c.backend.SetMessage(text) }

// Count returns the counter.
func (c *Channel) Count() int64 { return c.backend.Count() }

// SetCount updates the counter.
func (c *Channel) SetCount(n int64) { c.backend.SetCount(n) }

// SendToBackend echoes text back as a backend:sendToFrontend event.
func (c *Channel) SendToBackend(text string) { c.backend.SendToBackend(text) }

// IncrementCount adds one to the counter.
func (c *Channel) IncrementCount() { c.backend.IncrementCount() }
