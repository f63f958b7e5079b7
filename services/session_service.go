package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"trono-server/models"
)

var (
	ErrInvalidCoordinates = errors.New("invalid coordinates")
	ErrInvalidMapView     = errors.New("invalid map view")
)

// SessionState is the per-device application state the presentation layer reads and
// mutates. Values are copies; mutate through SessionService.
type SessionState struct {
	Filters      models.FilterCriteria `json:"filters"`
	UserLocation *models.Position      `json:"user_location,omitempty"`
	SelectedPOI  string                `json:"selected_poi,omitempty"`
	MapView      models.MapView        `json:"map_view"`
}

type SessionConfig struct {
	// CacheKey is the prefix of each session's last-known location slot.
	CacheKey      string
	SourceOptions SourceOptions
	// IdleTimeout evicts sessions that have not pinged for this long.
	IdleTimeout time.Duration
	// DefaultMapView is where a new session's map starts. Zero means models.DefaultMapView.
	DefaultMapView models.MapView
}

type session struct {
	mu       sync.RWMutex
	state    SessionState
	lastSeen time.Time

	source     *PingSource
	stabilizer *Stabilizer
	stop       func()
}

func (s *session) setLocation(pos models.Position) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.UserLocation = &pos
}

func (s *session) snapshot() SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state := s.state
	state.Filters.Types = append([]models.Amenity(nil), s.state.Filters.Types...)
	if s.state.UserLocation != nil {
		loc := *s.state.UserLocation
		state.UserLocation = &loc
	}
	return state
}

// SessionService owns one stabilized location stream per session. Devices feed it
// through Ping; readers get the last accepted position.
type SessionService struct {
	ctx         context.Context
	redisClient *redis.Client
	cfg         SessionConfig
	logger      *slog.Logger
	now         func() time.Time

	mu       sync.Mutex
	sessions map[string]*session
}

// NewSessionService ties every watcher to ctx; cancel it, or call Close, to release them.
func NewSessionService(ctx context.Context, redisClient *redis.Client, cfg SessionConfig, logger *slog.Logger) *SessionService {
	if cfg.CacheKey == "" {
		cfg.CacheKey = DefaultLocationCacheKey
	}
	if cfg.DefaultMapView == (models.MapView{}) {
		cfg.DefaultMapView = models.DefaultMapView()
	}
	return &SessionService{
		ctx:         ctx,
		redisClient: redisClient,
		cfg:         cfg,
		logger:      logger,
		now:         time.Now,
		sessions:    make(map[string]*session),
	}
}

func (s *SessionService) get(sessionID string) (*session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionID]
	return sess, ok
}

// open returns the session, starting its watch on first use.
func (s *SessionService) open(sessionID string) *session {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[sessionID]; ok {
		sess.mu.Lock()
		sess.lastSeen = s.now()
		sess.mu.Unlock()
		return sess
	}

	cache := NewRedisLocationCache(s.redisClient, s.cfg.CacheKey+":"+sessionID, s.logger)
	sess := &session{
		state:    SessionState{MapView: s.cfg.DefaultMapView},
		lastSeen: s.now(),
		source:   NewPingSource(true, s.now),
	}
	sess.stabilizer = NewStabilizer(sess.source, cache, s.logger.With(slog.String("session", sessionID)),
		WithSourceOptions(s.cfg.SourceOptions))

	// Show the last known position right away, before the first live fix.
	if cached, ok := sess.stabilizer.CachedLocation(s.ctx); ok {
		sess.state.UserLocation = &cached
	}
	sess.stop = sess.stabilizer.StartWatching(s.ctx, sess.setLocation)

	s.sessions[sessionID] = sess
	s.logger.DebugContext(s.ctx, "session opened", slog.String("session", sessionID))
	return sess
}

// Ping feeds a raw device fix, received just now, into the session's stabilizer.
func (s *SessionService) Ping(ctx context.Context, sessionID string, pos models.Position) error {
	return s.PingAt(ctx, sessionID, pos, s.now())
}

// PingAt is Ping for a fix the server received at receivedAt. Staleness is judged from
// receivedAt, never from the device timestamp.
func (s *SessionService) PingAt(ctx context.Context, sessionID string, pos models.Position, receivedAt time.Time) error {
	if !pos.ValidCoordinates() {
		return fmt.Errorf("%w: lat=%f, lon=%f", ErrInvalidCoordinates, pos.Latitude, pos.Longitude)
	}

	sess := s.open(sessionID)
	s.logger.DebugContext(ctx, "location ping",
		slog.String("session", sessionID), slog.Float64("lat", pos.Latitude), slog.Float64("lon", pos.Longitude))
	sess.source.PushAt(pos, receivedAt)
	return nil
}

// ReportError forwards a device-side position error to the session's watch.
func (s *SessionService) ReportError(ctx context.Context, sessionID string, code PositionErrorCode, message string) {
	sess := s.open(sessionID)
	s.logger.DebugContext(ctx, "device reported position error",
		slog.String("session", sessionID), slog.String("code", string(code)))
	sess.source.Fail(&PositionError{Code: code, Message: message})
}

// Location returns the last accepted position, falling back to the durable cache for
// sessions this process has not seen yet.
func (s *SessionService) Location(ctx context.Context, sessionID string) (models.Position, bool) {
	if sess, ok := s.get(sessionID); ok {
		if loc := sess.snapshot().UserLocation; loc != nil {
			return *loc, true
		}
		return models.Position{}, false
	}
	cache := NewRedisLocationCache(s.redisClient, s.cfg.CacheKey+":"+sessionID, s.logger)
	return cache.Get(ctx)
}

// State returns a copy of the session state. Unknown sessions read as a fresh state.
func (s *SessionService) State(sessionID string) SessionState {
	if sess, ok := s.get(sessionID); ok {
		return sess.snapshot()
	}
	return SessionState{MapView: s.cfg.DefaultMapView}
}

func (s *SessionService) SetFilters(sessionID string, criteria models.FilterCriteria) {
	sess := s.open(sessionID)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.state.Filters = criteria
}

// SetSelected records the POI the user has open; an empty id clears it.
func (s *SessionService) SetSelected(sessionID, poiID string) {
	sess := s.open(sessionID)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.state.SelectedPOI = poiID
}

// SetMapView records the viewport the client is showing.
func (s *SessionService) SetMapView(sessionID string, view models.MapView) error {
	if !view.Valid() {
		return fmt.Errorf("%w: lat=%f, lon=%f, zoom=%f", ErrInvalidMapView, view.Latitude, view.Longitude, view.Zoom)
	}

	sess := s.open(sessionID)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.state.MapView = view
	return nil
}

// Evict stops and forgets sessions idle since before now-IdleTimeout. It returns how many were removed.
func (s *SessionService) Evict(now time.Time) int {
	if s.cfg.IdleTimeout <= 0 {
		return 0
	}

	var stale []*session
	s.mu.Lock()
	for id, sess := range s.sessions {
		sess.mu.RLock()
		idle := now.Sub(sess.lastSeen)
		sess.mu.RUnlock()
		if idle > s.cfg.IdleTimeout {
			stale = append(stale, sess)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()

	for _, sess := range stale {
		if sess.stop != nil {
			sess.stop()
		}
	}
	return len(stale)
}

// Run evicts idle sessions every interval until ctx is done, then closes everything.
func (s *SessionService) Run(ctx context.Context, interval time.Duration) error {
	defer s.Close()
	if interval <= 0 {
		<-ctx.Done()
		return nil
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			if n := s.Evict(now); n > 0 {
				s.logger.InfoContext(ctx, "evicted idle sessions", slog.Int("count", n))
			}
		}
	}
}

// Close stops every session's watch.
func (s *SessionService) Close() {
	s.mu.Lock()
	sessions := s.sessions
	s.sessions = make(map[string]*session)
	s.mu.Unlock()

	for _, sess := range sessions {
		if sess.stop != nil {
			sess.stop()
		}
	}
}
