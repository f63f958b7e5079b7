package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"reflect"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"trono-server/metrics"
	"trono-server/models"
)

// POIService keeps an in-memory snapshot of the POI collection for the ranker.
type POIService struct {
	store  POIStore
	logger *slog.Logger

	mu       sync.RWMutex
	snapshot POISnapshot
}

func NewPOIService(store POIStore, logger *slog.Logger) *POIService {
	return &POIService{store: store, logger: logger}
}

// Init seeds the store from seedFile when it is empty, then loads the first snapshot.
func (s *POIService) Init(ctx context.Context, seedFile string) error {
	count, err := s.store.Count(ctx)
	if err != nil {
		return err
	}

	if count == 0 && seedFile != "" {
		s.logger.InfoContext(ctx, "no POIs found, seeding sample data", slog.String("file", seedFile))
		if err := s.seed(ctx, seedFile); err != nil {
			return err
		}
	}

	return s.Refresh(ctx)
}

func (s *POIService) seed(ctx context.Context, seedFile string) error {
	file, err := os.Open(seedFile)
	if err != nil {
		return fmt.Errorf("failed to open POI seed file: %w", err)
	}
	defer file.Close()

	var pois []models.POI
	if err := json.NewDecoder(file).Decode(&pois); err != nil {
		return fmt.Errorf("failed to decode POI seed file: %w", err)
	}

	if err := s.store.InsertMany(ctx, pois); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "seeded POIs", slog.Int("count", len(pois)))
	return nil
}

// Refresh reloads the collection. The snapshot version only moves when the contents changed,
// so memoized rankings survive no-op reloads.
func (s *POIService) Refresh(ctx context.Context) error {
	ctx, span := otel.Tracer("POIService").Start(ctx, "Refresh")
	defer span.End()

	pois, err := s.store.LoadAll(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load failed")
		return err
	}

	s.mu.Lock()
	changed := s.snapshot.Version == 0 || !reflect.DeepEqual(s.snapshot.POIs, pois)
	if changed {
		s.snapshot = POISnapshot{Version: s.snapshot.Version + 1, POIs: pois}
	}
	version := s.snapshot.Version
	s.mu.Unlock()

	metrics.POISnapshotSize.Set(float64(len(pois)))
	span.SetAttributes(attribute.Int64("snapshot.version", int64(version)), attribute.Bool("snapshot.changed", changed))
	s.logger.DebugContext(ctx, "POI snapshot refreshed",
		slog.Int("count", len(pois)), slog.Uint64("version", version), slog.Bool("changed", changed))
	return nil
}

// Run refreshes the snapshot every interval until ctx is done. Failed refreshes keep the
// previous snapshot.
func (s *POIService) Run(ctx context.Context, interval time.Duration) error {
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
		case <-ticker.C:
			if err := s.Refresh(ctx); err != nil && !errors.Is(err, context.Canceled) {
				s.logger.ErrorContext(ctx, "failed to refresh POI snapshot", slog.Any("error", err))
			}
		}
	}
}

// Snapshot returns the current read-only snapshot.
func (s *POIService) Snapshot() POISnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

// Find looks a POI up by id in the current snapshot.
func (s *POIService) Find(id string) (models.POI, bool) {
	for _, poi := range s.Snapshot().POIs {
		if poi.ID == id {
			return poi, true
		}
	}
	return models.POI{}, false
}
