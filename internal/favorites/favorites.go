// Package favorites stores the places a client has saved, keyed by an opaque
// owner id.
package favorites

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kjstillabower/city-guide-service/internal/models"
)

var (
	// ErrNotFound is returned by Remove when the owner has not saved the place.
	ErrNotFound = errors.New("favorite not found")
	// ErrInvalid is returned when a favorite lacks an owner or place id.
	ErrInvalid = errors.New("invalid favorite")
)

// Store persists favorites. Add is idempotent per (owner, place); List is newest first.
type Store interface {
	List(ctx context.Context, ownerID string) ([]models.Favorite, error)
	Add(ctx context.Context, fav models.Favorite) (models.Favorite, error)
	Remove(ctx context.Context, ownerID, placeID string) error
	IsFavorite(ctx context.Context, ownerID, placeID string) (bool, error)
	Close() error
}

func checkFavorite(fav models.Favorite) error {
	if strings.TrimSpace(fav.OwnerID) == "" {
		return fmt.Errorf("%w: owner id required", ErrInvalid)
	}
	if strings.TrimSpace(fav.PlaceID) == "" {
		return fmt.Errorf("%w: place id required", ErrInvalid)
	}
	return nil
}

type memKey struct{ owner, place string }

// MemoryStore keeps favorites in process memory. Contents are lost on restart.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[memKey]models.Favorite
	now  func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[memKey]models.Favorite), now: time.Now}
}

func (s *MemoryStore) List(ctx context.Context, ownerID string) ([]models.Favorite, error) {
	s.mu.RLock()
	out := make([]models.Favorite, 0)
	for k, f := range s.data {
		if k.owner == ownerID {
			out = append(out, f)
		}
	}
	s.mu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemoryStore) Add(ctx context.Context, fav models.Favorite) (models.Favorite, error) {
	if err := checkFavorite(fav); err != nil {
		return models.Favorite{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	k := memKey{fav.OwnerID, fav.PlaceID}
	if existing, ok := s.data[k]; ok {
		return existing, nil
	}
	fav.ID = uuid.NewString()
	fav.CreatedAt = s.now().UTC()
	s.data[k] = fav
	return fav, nil
}

func (s *MemoryStore) Remove(ctx context.Context, ownerID, placeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := memKey{ownerID, placeID}
	if _, ok := s.data[k]; !ok {
		return ErrNotFound
	}
	delete(s.data, k)
	return nil
}

func (s *MemoryStore) IsFavorite(ctx context.Context, ownerID, placeID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.data[memKey{ownerID, placeID}]
	return ok, nil
}

func (s *MemoryStore) Close() error { return nil }
