package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/LeslieKogi/sunrise-backend/internal/entity"
	"github.com/LeslieKogi/sunrise-backend/internal/repository"
)

type FlavourStore interface {
	ListAvailable(ctx context.Context) ([]*entity.Flavour, error)
	ListAll(ctx context.Context) ([]*entity.Flavour, error)
	GetByID(ctx context.Context, id int) (*entity.Flavour, error)
	Create(ctx context.Context, flavour *entity.Flavour) (*entity.Flavour, error)
	Update(ctx context.Context, id int, patch entity.FlavourPatch) error
	Delete(ctx context.Context, id int) error
}

type FlavourService struct {
	flavourRepo FlavourStore
	rdb         *redis.Client
	cacheTTL    time.Duration
	now         func() time.Time
}

// NewFlavourService creates a new instance of FlavourService. rdb may be nil,
// in which case single-flavour reads go straight to the store.
func NewFlavourService(flavourRepo FlavourStore, rdb *redis.Client, cacheTTL time.Duration) *FlavourService {
	return &FlavourService{
		flavourRepo: flavourRepo,
		rdb:         rdb,
		cacheTTL:    cacheTTL,
		now:         func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
	}
}

func flavourCacheKey(id int) string {
	return fmt.Sprintf("flavour:%d", id)
}

// ListAvailable returns the flavours shown to customers.
func (s *FlavourService) ListAvailable(ctx context.Context) ([]*entity.Flavour, error) {
	flavours, err := s.flavourRepo.ListAvailable(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Error listing available flavours")
		return nil, err
	}
	return flavours, nil
}

// ListAll returns every flavour, including unavailable ones.
func (s *FlavourService) ListAll(ctx context.Context) ([]*entity.Flavour, error) {
	flavours, err := s.flavourRepo.ListAll(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Error listing flavours")
		return nil, err
	}
	return flavours, nil
}

// Get reads through the cache.
func (s *FlavourService) Get(ctx context.Context, id int) (*entity.Flavour, error) {
	if cached := s.readCache(ctx, id); cached != nil {
		return cached, nil
	}

	flavour, err := s.flavourRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, newError(ErrNotFound, "Flavour %d not found", id)
		}
		logger.Error().Err(err).Msgf("Error getting flavour by ID %d", id)
		return nil, err
	}

	s.writeCache(ctx, flavour)
	return flavour, nil
}

func (s *FlavourService) Create(ctx context.Context, in entity.FlavourInput) (*entity.Flavour, error) {
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" || in.Price == nil {
		return nil, newError(ErrInvalidInput, "Missing required fields: name and price")
	}
	if !in.Price.IsPositive() {
		return nil, newError(ErrInvalidInput, "Price must be a positive number")
	}

	flavour := &entity.Flavour{
		Name:        strings.TrimSpace(*in.Name),
		Description: in.Description,
		Price:       *in.Price,
		ImageURL:    in.ImageURL,
		IsAvailable: true,
		CreatedAt:   s.now(),
	}
	if in.IsAvailable != nil {
		flavour.IsAvailable = *in.IsAvailable
	}

	created, err := s.flavourRepo.Create(ctx, flavour)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, newError(ErrConflict, "Flavour %q already exists", flavour.Name)
		}
		logger.Error().Err(err).Msg("Error creating flavour")
		return nil, err
	}

	logger.Info().Int("flavour_id", created.ID).Msgf("Created flavour %s", created.Name)
	return created, nil
}

// Update applies the supplied fields only.
func (s *FlavourService) Update(ctx context.Context, id int, patch entity.FlavourPatch) (*entity.Flavour, error) {
	if patch.Name.Set {
		if patch.Name.Null || strings.TrimSpace(patch.Name.Value) == "" {
			return nil, newError(ErrInvalidInput, "Name cannot be empty")
		}
		patch.Name.Value = strings.TrimSpace(patch.Name.Value)
	}
	if patch.Price.Set && (patch.Price.Null || !patch.Price.Value.IsPositive()) {
		return nil, newError(ErrInvalidInput, "Price must be a positive number")
	}
	if patch.IsAvailable.Set && patch.IsAvailable.Null {
		return nil, newError(ErrInvalidInput, "is_available cannot be null")
	}

	err := s.flavourRepo.Update(ctx, id, patch)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil, newError(ErrNotFound, "Flavour %d not found", id)
	case errors.Is(err, repository.ErrDuplicate):
		return nil, newError(ErrConflict, "Flavour %q already exists", patch.Name.Value)
	case err != nil:
		logger.Error().Err(err).Msgf("Error updating flavour %d", id)
		return nil, err
	}

	s.evictCache(ctx, id)

	flavour, err := s.flavourRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, newError(ErrNotFound, "Flavour %d not found", id)
		}
		return nil, err
	}
	return flavour, nil
}

// Delete removes a flavour. Existing order items keep their price snapshot.
func (s *FlavourService) Delete(ctx context.Context, id int) error {
	err := s.flavourRepo.Delete(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return newError(ErrNotFound, "Flavour %d not found", id)
	}
	if err != nil {
		logger.Error().Err(err).Msgf("Error deleting flavour %d", id)
		return err
	}

	s.evictCache(ctx, id)
	logger.Info().Int("flavour_id", id).Msg("Deleted flavour")
	return nil
}

func (s *FlavourService) readCache(ctx context.Context, id int) *entity.Flavour {
	if s.rdb == nil {
		return nil
	}
	data, err := s.rdb.Get(ctx, flavourCacheKey(id)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.Error().Err(err).Msgf("Error getting flavour %d from cache", id)
		}
		return nil
	}

	var flavour entity.Flavour
	if err := json.Unmarshal(data, &flavour); err != nil {
		logger.Error().Err(err).Msgf("Error unmarshalling cached flavour %d", id)
		return nil
	}
	return &flavour
}

func (s *FlavourService) writeCache(ctx context.Context, flavour *entity.Flavour) {
	if s.rdb == nil {
		return
	}
	data, err := json.Marshal(flavour)
	if err != nil {
		logger.Error().Err(err).Msgf("Error marshalling flavour %d", flavour.ID)
		return
	}
	if err := s.rdb.Set(ctx, flavourCacheKey(flavour.ID), data, s.cacheTTL).Err(); err != nil {
		logger.Error().Err(err).Msgf("Error setting flavour %d in cache", flavour.ID)
	}
}

func (s *FlavourService) evictCache(ctx context.Context, id int) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Del(ctx, flavourCacheKey(id)).Err(); err != nil {
		logger.Error().Err(err).Msgf("Error deleting flavour %d from cache", id)
	}
}
