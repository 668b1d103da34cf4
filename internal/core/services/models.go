package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/pdfchat/internal/core/domain"
	"github.com/custodia-labs/pdfchat/internal/core/ports/driven"
	"github.com/custodia-labs/pdfchat/internal/core/ports/driving"
	"github.com/custodia-labs/pdfchat/internal/logger"
)

// Ensure ModelCatalogService implements the interface.
var _ driving.ModelCatalog = (*ModelCatalogService)(nil)

// ModelCatalogService discovers the models a server has installed.
type ModelCatalogService struct {
	model driven.ChatModel
}

// NewModelCatalogService creates a new model catalog.
func NewModelCatalogService(model driven.ChatModel) *ModelCatalogService {
	return &ModelCatalogService{model: model}
}

// Discover lists available models. An empty server is reported through
// Discovery.Unavailable, not as an error.
func (s *ModelCatalogService) Discover(ctx context.Context) (driving.Discovery, error) {
	models, err := s.model.ListModels(ctx)
	if err != nil {
		return driving.Discovery{}, fmt.Errorf("discover models: %w", err)
	}

	logger.Debug("discovered %d models", len(models))
	return driving.Discovery{
		Models:      models,
		Unavailable: len(models) == 0,
	}, nil
}

// Resolve returns preferred if installed, otherwise the first installed model.
// A preferred name without a tag matches its ":latest" variant.
func (s *ModelCatalogService) Resolve(ctx context.Context, preferred string) (string, error) {
	discovery, err := s.Discover(ctx)
	if err != nil {
		return "", err
	}
	if discovery.Unavailable {
		return "", domain.ErrModelUnavailable
	}
	if preferred == "" {
		return discovery.Models[0], nil
	}

	for _, name := range discovery.Models {
		if name == preferred || name == preferred+":latest" {
			return name, nil
		}
	}

	return "", fmt.Errorf("%w: model %q is not installed (available: %s)",
		domain.ErrInvalidConfiguration, preferred, strings.Join(discovery.Models, ", "))
}
