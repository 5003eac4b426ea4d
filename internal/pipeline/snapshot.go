package pipeline

import (
	"context"
	"fmt"

	"github.com/couchcryptid/beachhub-recommender/internal/domain"
)

// Recommender is the entry point the serving layer and the publisher call.
type Recommender interface {
	BuildRecommendations(ctx context.Context, beaches []domain.Beach, prefs *domain.UserPreferences) ([]domain.RecommendationItem, error)
}

// CatalogSnapshot builds default-preference recommendations for every beach in a catalog.
type CatalogSnapshot struct {
	catalog     domain.BeachCatalog
	recommender Recommender
}

// NewCatalogSnapshot creates a snapshotter over the catalog.
func NewCatalogSnapshot(catalog domain.BeachCatalog, r Recommender) *CatalogSnapshot {
	return &CatalogSnapshot{catalog: catalog, recommender: r}
}

// Snapshot lists the catalog and recommends all of it with no preferences.
func (s *CatalogSnapshot) Snapshot(ctx context.Context) ([]domain.RecommendationItem, error) {
	beaches, err := s.catalog.ListBeaches(ctx)
	if err != nil {
		return nil, fmt.Errorf("list beaches: %w", err)
	}
	return s.recommender.BuildRecommendations(ctx, beaches, nil)
}

// CheckReadiness reports ready once the catalog can be listed.
func (s *CatalogSnapshot) CheckReadiness(ctx context.Context) error {
	if _, err := s.catalog.ListBeaches(ctx); err != nil {
		return fmt.Errorf("beach catalog: %w", err)
	}
	return nil
}
