package services

import (
	"fmt"
	"sync"
	"time"

	"trono-server/models"
)

// PositionErrorCode mirrors the error codes of platform geolocation APIs.
type PositionErrorCode string

const (
	PermissionDenied    PositionErrorCode = "permission_denied"
	PositionUnavailable PositionErrorCode = "position_unavailable"
	PositionTimeout     PositionErrorCode = "timeout"
)

// PositionError is reported through a source's error channel. It never ends a watch.
type PositionError struct {
	Code    PositionErrorCode
	Message string
}

func (e *PositionError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("position error: %s", e.Code)
	}
	return fmt.Sprintf("position error: %s: %s", e.Code, e.Message)
}

// ParsePositionErrorCode validates a device-reported code.
func ParsePositionErrorCode(s string) (PositionErrorCode, error) {
	switch code := PositionErrorCode(s); code {
	case PermissionDenied, PositionUnavailable, PositionTimeout:
		return code, nil
	default:
		return "", fmt.Errorf("unknown position error code: %q", s)
	}
}

// SourceOptions is advisory configuration for a position source.
type SourceOptions struct {
	EnableHighAccuracy bool
	// MaximumAge is how old a fix may be before it is treated as stale.
	MaximumAge time.Duration
	// Timeout is how long a watcher may go without a fix before a timeout error is reported.
	Timeout time.Duration
}

func DefaultSourceOptions() SourceOptions {
	return SourceOptions{
		EnableHighAccuracy: true,
		MaximumAge:         5 * time.Second,
		Timeout:            10 * time.Second,
	}
}

// PositionSource is a push-based provider of raw device positions.
// Watch returns ok == false when the source is not available; otherwise clear
// ends the subscription.
type PositionSource interface {
	Watch(opts SourceOptions, onFix func(models.Position), onError func(error)) (clear func(), ok bool)
}

// PingSource is a PositionSource fed by devices posting their fixes to the server.
// Push and Fail may be called from any goroutine.
type PingSource struct {
	enabled bool
	now     func() time.Time

	mu       sync.Mutex
	nextID   int
	watchers map[int]*pingWatcher
}

type pingWatcher struct {
	opts    SourceOptions
	onFix   func(models.Position)
	onError func(error)
	timer   *time.Timer
}

// NewPingSource returns a source; a disabled source reports itself unavailable to watchers.
func NewPingSource(enabled bool, now func() time.Time) *PingSource {
	if now == nil {
		now = time.Now
	}
	return &PingSource{
		enabled:  enabled,
		now:      now,
		watchers: make(map[int]*pingWatcher),
	}
}

func (s *PingSource) Watch(opts SourceOptions, onFix func(models.Position), onError func(error)) (func(), bool) {
	if s == nil || !s.enabled {
		return nil, false
	}

	w := &pingWatcher{opts: opts, onFix: onFix, onError: onError}

	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.watchers[id] = w
	if opts.Timeout > 0 {
		w.timer = time.AfterFunc(opts.Timeout, func() { s.timeout(id) })
	}
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if w.timer != nil {
				w.timer.Stop()
			}
			delete(s.watchers, id)
		})
	}, true
}

// Push delivers a fix received just now. See PushAt.
func (s *PingSource) Push(pos models.Position) {
	s.PushAt(pos, s.now())
}

// PushAt delivers a fix the server received at receivedAt. Its age is measured on the
// server clock only: fixes received longer than a watcher's MaximumAge ago are reported
// as unavailable instead of delivered. The device timestamp is kept for display and is
// stamped with receivedAt when zero.
func (s *PingSource) PushAt(pos models.Position, receivedAt time.Time) {
	if pos.Timestamp.IsZero() {
		pos.Timestamp = receivedAt
	}
	age := s.now().Sub(receivedAt)

	for _, w := range s.snapshot() {
		if w.opts.MaximumAge > 0 && age > w.opts.MaximumAge {
			w.onError(&PositionError{Code: PositionUnavailable, Message: "stale fix"})
			continue
		}
		if w.timer != nil {
			w.timer.Reset(w.opts.Timeout)
		}
		w.onFix(pos)
	}
}

// Fail reports a device-side error to every watcher.
func (s *PingSource) Fail(err error) {
	for _, w := range s.snapshot() {
		w.onError(err)
	}
}

func (s *PingSource) timeout(id int) {
	s.mu.Lock()
	w, ok := s.watchers[id]
	if ok {
		w.timer.Reset(w.opts.Timeout)
	}
	s.mu.Unlock()

	if ok {
		w.onError(&PositionError{Code: PositionTimeout, Message: "no fix received"})
	}
}

func (s *PingSource) snapshot() []*pingWatcher {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*pingWatcher, 0, len(s.watchers))
	for _, w := range s.watchers {
		out = append(out, w)
	}
	return out
}
