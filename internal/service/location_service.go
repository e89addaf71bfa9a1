package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"playdates/internal/models"
)

// Location errors
var (
	ErrLocationTimeout     = errors.New("location request timed out")
	ErrLocationDenied      = errors.New("location permission denied")
	ErrLocationUnavailable = errors.New("location unavailable")
)

// Geolocator resolves a parent's current coordinates. Implementations
// may geocode a stored address or call out to an external provider.
type Geolocator interface {
	Locate(ctx context.Context, parentID int64) (models.Coordinates, error)
}

type cachedLocation struct {
	coords    models.Coordinates
	expiresAt time.Time
}

// LocationService resolves parent locations with a TTL cache in front
// of the Geolocator. Clients that obtain coordinates themselves (for
// example from the browser geolocation API) can report them directly,
// which also refreshes the cache.
type LocationService struct {
	geolocator Geolocator
	timeout    time.Duration
	cacheTTL   time.Duration

	mu    sync.Mutex
	cache map[int64]cachedLocation
}

// NewLocationService creates a new location service
func NewLocationService(geolocator Geolocator, timeout, cacheTTL time.Duration) *LocationService {
	return &LocationService{
		geolocator: geolocator,
		timeout:    timeout,
		cacheTTL:   cacheTTL,
		cache:      make(map[int64]cachedLocation),
	}
}

// Resolve returns the parent's coordinates, from cache when fresh.
// A nil result with a nil error means no location is known and the
// caller should degrade gracefully rather than fail.
func (s *LocationService) Resolve(ctx context.Context, parentID int64) (*models.Coordinates, error) {
	s.mu.Lock()
	if entry, ok := s.cache[parentID]; ok && time.Now().Before(entry.expiresAt) {
		coords := entry.coords
		s.mu.Unlock()
		return &coords, nil
	}
	s.mu.Unlock()

	if s.geolocator == nil {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	coords, err := s.geolocator.Locate(ctx, parentID)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, ErrLocationTimeout
		}
		return nil, err
	}

	s.store(parentID, coords)
	return &coords, nil
}

// Report stores client-provided coordinates for a parent
func (s *LocationService) Report(parentID int64, coords models.Coordinates) {
	s.store(parentID, coords)
}

// Invalidate drops a parent's cached location
func (s *LocationService) Invalidate(parentID int64) {
	s.mu.Lock()
	delete(s.cache, parentID)
	s.mu.Unlock()
}

// Sweep removes expired cache entries; run periodically from the server
func (s *LocationService) Sweep() {
	now := time.Now()
	s.mu.Lock()
	for id, entry := range s.cache {
		if now.After(entry.expiresAt) {
			delete(s.cache, id)
		}
	}
	s.mu.Unlock()
}

func (s *LocationService) store(parentID int64, coords models.Coordinates) {
	s.mu.Lock()
	s.cache[parentID] = cachedLocation{
		coords:    coords,
		expiresAt: time.Now().Add(s.cacheTTL),
	}
	s.mu.Unlock()
}
