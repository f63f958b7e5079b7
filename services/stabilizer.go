package services

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"trono-server/metrics"
	"trono-server/models"
	"trono-server/utils/geo"
)

// MinMovementThresholdMeters is the smallest movement treated as real rather than GPS jitter.
const MinMovementThresholdMeters = 10.0

// accuracyRescueFactor: a stationary fix is still accepted when its accuracy radius is
// below this fraction of the previous one.
const accuracyRescueFactor = 0.5

// Stabilizer turns noisy raw fixes into a stream of materially different positions and
// keeps the last accepted one in a durable cache.
type Stabilizer struct {
	source    PositionSource
	cache     LocationCache
	logger    *slog.Logger
	opts      SourceOptions
	threshold float64
}

type StabilizerOption func(*Stabilizer)

// WithSourceOptions overrides DefaultSourceOptions.
func WithSourceOptions(opts SourceOptions) StabilizerOption {
	return func(s *Stabilizer) { s.opts = opts }
}

// WithThreshold overrides MinMovementThresholdMeters.
func WithThreshold(meters float64) StabilizerOption {
	return func(s *Stabilizer) { s.threshold = meters }
}

func NewStabilizer(source PositionSource, cache LocationCache, logger *slog.Logger, options ...StabilizerOption) *Stabilizer {
	s := &Stabilizer{
		source:    source,
		cache:     cache,
		logger:    logger,
		opts:      DefaultSourceOptions(),
		threshold: MinMovementThresholdMeters,
	}
	for _, o := range options {
		o(s)
	}
	return s
}

// CachedLocation returns the last persisted position, if any.
func (s *Stabilizer) CachedLocation(ctx context.Context) (models.Position, bool) {
	if s.cache == nil {
		return models.Position{}, false
	}
	return s.cache.Get(ctx)
}

// SetCachedLocation persists pos as the last known position. Best effort.
func (s *Stabilizer) SetCachedLocation(ctx context.Context, pos models.Position) {
	if s.cache == nil {
		return
	}
	s.cache.Set(ctx, pos)
}

// IsSignificantMovement reports whether next should replace prev: the first fix always
// counts, then either movement of at least threshold meters or a fix that is more than
// twice as precise as the previous one.
func IsSignificantMovement(prev *models.Position, next models.Position, threshold float64) bool {
	if prev == nil {
		return true
	}

	distance := geo.Distance(prev.Latitude, prev.Longitude, next.Latitude, next.Longitude)
	accuracyImproved := prev.Accuracy > 0 && next.Accuracy > 0 &&
		next.Accuracy < prev.Accuracy*accuracyRescueFactor

	return distance >= threshold || accuracyImproved
}

type watch struct {
	stabilizer *Stabilizer
	ctx        context.Context
	onUpdate   func(models.Position)

	mu      sync.Mutex
	last    *models.Position
	stopped atomic.Bool
	// delivering is set while onUpdate runs, under mu.
	delivering atomic.Bool
}

// StartWatching subscribes to the position source and calls onUpdate with every accepted
// fix. It returns nil when the source is unavailable. The returned stop function is
// idempotent and may be called from inside onUpdate; once it returns, no new onUpdate
// call begins.
func (s *Stabilizer) StartWatching(ctx context.Context, onUpdate func(models.Position)) (stop func()) {
	if s.source == nil {
		return nil
	}

	w := &watch{stabilizer: s, ctx: ctx, onUpdate: onUpdate}
	if cached, ok := s.CachedLocation(ctx); ok {
		w.last = &cached
	}

	clearWatch, ok := s.source.Watch(s.opts, w.handleFix, w.handleError)
	if !ok {
		s.logger.WarnContext(ctx, "position source unavailable")
		return nil
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			w.stopped.Store(true)
			// Wait out a fix that is being checked right now. A fix whose onUpdate has
			// already begun is not waited for: it may be the caller.
			if w.delivering.Load() {
				clearWatch()
				return
			}
			w.mu.Lock()
			defer w.mu.Unlock()
			clearWatch()
		})
	}
}

func (w *watch) handleFix(pos models.Position) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped.Load() {
		return
	}

	s := w.stabilizer
	if !IsSignificantMovement(w.last, pos, s.threshold) {
		metrics.LocationFixes.WithLabelValues("rejected").Inc()
		return
	}

	metrics.LocationFixes.WithLabelValues("accepted").Inc()
	accepted := pos
	w.last = &accepted
	s.SetCachedLocation(w.ctx, accepted)

	w.delivering.Store(true)
	defer w.delivering.Store(false)
	w.onUpdate(accepted)
}

func (w *watch) handleError(err error) {
	if w.stopped.Load() {
		return
	}

	code := "unknown"
	var posErr *PositionError
	if errors.As(err, &posErr) {
		code = string(posErr.Code)
	}
	metrics.PositionErrors.WithLabelValues(code).Inc()
	w.stabilizer.logger.WarnContext(w.ctx, "position source error", slog.String("code", code), slog.Any("error", err))
}
