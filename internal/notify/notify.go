// Package notify defines editor notifications (toasts) and their delivery.
package notify

import (
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Kind is the severity of a notification.
type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
	KindWarning Kind = "warning"
	KindInfo    Kind = "info"
)

// DefaultDuration is how long a notification without an explicit duration stays up.
const DefaultDuration = 3 * time.Second

// Action is the single button a notification may carry. Remote clients invoke it by ID.
type Action struct {
	ID      string `json:"id"`
	Label   string `json:"label"`
	OnClick func() `json:"-"`
}

// Notification is a toast shown to the editor.
type Notification struct {
	Message  string        `json:"message"`
	Kind     Kind          `json:"kind"`
	Duration time.Duration `json:"-"`
	Action   *Action       `json:"action,omitempty"`
}

// MarshalJSON adds duration_ms for clients.
func (n Notification) MarshalJSON() ([]byte, error) {
	type alias Notification
	d := n.Duration
	if d <= 0 {
		d = DefaultDuration
	}
	return json.Marshal(struct {
		alias
		DurationMs int64 `json:"duration_ms"`
	}{alias(n), d.Milliseconds()})
}

// Notifier delivers notifications. Implementations must not block for long.
type Notifier interface {
	Notify(n Notification)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(n Notification)

// Notify calls f(n).
func (f NotifierFunc) Notify(n Notification) { f(n) }

// Multi fans a notification out to every notifier.
type Multi []Notifier

// Notify delivers n to each notifier in order.
func (m Multi) Notify(n Notification) {
	for _, x := range m {
		if x != nil {
			x.Notify(n)
		}
	}
}

// Logger writes notifications to a zap logger.
type Logger struct {
	logger *zap.Logger
}

// NewLogger creates a logging notifier.
func NewLogger(logger *zap.Logger) *Logger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Logger{logger: logger}
}

// Notify logs n; errors at warn level, everything else at debug.
func (l *Logger) Notify(n Notification) {
	fields := []zap.Field{zap.String("kind", string(n.Kind)), zap.String("message", n.Message)}
	if n.Action != nil {
		fields = append(fields, zap.String("action", n.Action.Label), zap.String("action_id", n.Action.ID))
	}
	if n.Kind == KindError {
		l.logger.Warn("notification", fields...)
		return
	}
	l.logger.Debug("notification", fields...)
}

// Recorder keeps every notification; used by tests.
type Recorder struct {
	mu    sync.Mutex
	items []Notification
}

// Notify stores n.
func (r *Recorder) Notify(n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, n)
}

// All returns the recorded notifications in order.
func (r *Recorder) All() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.items...)
}

// Last returns the most recent notification.
func (r *Recorder) Last() (Notification, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.items) == 0 {
		return Notification{}, false
	}
	return r.items[len(r.items)-1], true
}

// Reset forgets recorded notifications.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = nil
}
