package account

import (
	"context"

	"github.com/geocoder89/rentalhub/internal/domain/provider"
	"github.com/geocoder89/rentalhub/internal/domain/user"
)

// AddFavorite adds providerID to the actor's favorites and returns the
// updated set of provider ids.
func (s *Service) AddFavorite(ctx context.Context, actor user.Actor, providerID string) ([]string, error) {
	if _, err := s.providers.GetByID(ctx, providerID); err != nil {
		return nil, err
	}

	if err := s.favorites.Add(ctx, actor.ID, providerID); err != nil {
		return nil, err
	}

	return s.favorites.ListIDs(ctx, actor.ID)
}

func (s *Service) RemoveFavorite(ctx context.Context, actor user.Actor, providerID string) ([]string, error) {
	if err := s.favorites.Remove(ctx, actor.ID, providerID); err != nil {
		return nil, err
	}

	return s.favorites.ListIDs(ctx, actor.ID)
}

func (s *Service) ListFavorites(ctx context.Context, actor user.Actor) ([]provider.Summary, error) {
	return s.favorites.ListProviders(ctx, actor.ID)
}
