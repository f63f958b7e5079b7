package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"trono-server/models"
)

type MockPOIStore struct {
	mock.Mock
}

func (m *MockPOIStore) LoadAll(ctx context.Context) ([]models.POI, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.POI), args.Error(1)
}

func (m *MockPOIStore) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPOIStore) InsertMany(ctx context.Context, pois []models.POI) error {
	args := m.Called(ctx, pois)
	return args.Error(0)
}

func TestPOIService_InitSeedsEmptyStore(t *testing.T) {
	seed := []byte(`[
		{"id": "1", "name": "Mercado", "latitude": -17.78, "longitude": -63.18, "verified": true, "is_free": true},
		{"id": "2", "name": "Terminal", "latitude": -17.79, "longitude": -63.16, "verified": false, "price": 1}
	]`)
	path := filepath.Join(t.TempDir(), "pois.json")
	require.NoError(t, os.WriteFile(path, seed, 0o600))

	store := new(MockPOIStore)
	store.On("Count", mock.Anything).Return(int64(0), nil)
	store.On("InsertMany", mock.Anything, mock.MatchedBy(func(pois []models.POI) bool {
		return len(pois) == 2 && pois[0].ID == "1" && pois[1].Price == 1
	})).Return(nil)
	store.On("LoadAll", mock.Anything).Return([]models.POI{{ID: "1"}, {ID: "2"}}, nil)

	svc := NewPOIService(store, discardLogger())
	require.NoError(t, svc.Init(context.Background(), path))

	snap := svc.Snapshot()
	assert.Equal(t, uint64(1), snap.Version)
	assert.Len(t, snap.POIs, 2)
	store.AssertExpectations(t)
}

func TestPOIService_InitSkipsSeedWhenPopulated(t *testing.T) {
	store := new(MockPOIStore)
	store.On("Count", mock.Anything).Return(int64(4), nil)
	store.On("LoadAll", mock.Anything).Return([]models.POI{{ID: "1"}}, nil)

	svc := NewPOIService(store, discardLogger())
	require.NoError(t, svc.Init(context.Background(), "does-not-exist.json"))

	store.AssertNotCalled(t, "InsertMany", mock.Anything, mock.Anything)
	assert.Len(t, svc.Snapshot().POIs, 1)
}

func TestPOIService_InitFailsOnBadSeedFile(t *testing.T) {
	store := new(MockPOIStore)
	store.On("Count", mock.Anything).Return(int64(0), nil)

	err := NewPOIService(store, discardLogger()).Init(context.Background(), filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorContains(t, err, "failed to open POI seed file")
}

func TestPOIService_RefreshVersioning(t *testing.T) {
	store := new(MockPOIStore)
	store.On("LoadAll", mock.Anything).Return([]models.POI{{ID: "1"}}, nil).Twice()
	store.On("LoadAll", mock.Anything).Return([]models.POI{{ID: "1"}, {ID: "2"}}, nil).Once()
	store.On("LoadAll", mock.Anything).Return(nil, errors.New("connection reset")).Once()

	svc := NewPOIService(store, discardLogger())
	ctx := context.Background()

	require.NoError(t, svc.Refresh(ctx))
	assert.Equal(t, uint64(1), svc.Snapshot().Version)

	require.NoError(t, svc.Refresh(ctx))
	assert.Equal(t, uint64(1), svc.Snapshot().Version, "unchanged contents keep the version")

	require.NoError(t, svc.Refresh(ctx))
	assert.Equal(t, uint64(2), svc.Snapshot().Version)

	assert.Error(t, svc.Refresh(ctx))
	snap := svc.Snapshot()
	assert.Equal(t, uint64(2), snap.Version, "failed refresh keeps the previous snapshot")
	assert.Len(t, snap.POIs, 2)
}

func TestPOIService_Find(t *testing.T) {
	store := new(MockPOIStore)
	store.On("LoadAll", mock.Anything).Return([]models.POI{{ID: "1", Name: "One"}, {ID: "2", Name: "Two"}}, nil)

	svc := NewPOIService(store, discardLogger())
	require.NoError(t, svc.Refresh(context.Background()))

	poi, ok := svc.Find("2")
	require.True(t, ok)
	assert.Equal(t, "Two", poi.Name)

	_, ok = svc.Find("3")
	assert.False(t, ok)
}

func TestPOIService_RunStopsWithContext(t *testing.T) {
	store := new(MockPOIStore)
	store.On("LoadAll", mock.Anything).Return([]models.POI{{ID: "1"}}, nil)

	svc := NewPOIService(store, discardLogger())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx, 5*time.Millisecond) }()

	assert.Eventually(t, func() bool { return svc.Snapshot().Version == 1 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
