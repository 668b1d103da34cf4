package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/pdfchat/internal/core/domain"
)

func modelsReturning(models []string, err error) *mockChatModel {
	return &mockChatModel{
		ListModelsFunc: func(context.Context) ([]string, error) {
			return models, err
		},
	}
}

func TestModelCatalogService_Discover(t *testing.T) {
	svc := NewModelCatalogService(modelsReturning([]string{"llama3.2:latest", "mistral:7b"}, nil))

	discovery, err := svc.Discover(context.Background())
	require.NoError(t, err)
	assert.False(t, discovery.Unavailable)
	assert.Equal(t, []string{"llama3.2:latest", "mistral:7b"}, discovery.Models)
}

func TestModelCatalogService_Discover_Empty(t *testing.T) {
	svc := NewModelCatalogService(modelsReturning(nil, nil))

	discovery, err := svc.Discover(context.Background())
	require.NoError(t, err)
	assert.True(t, discovery.Unavailable)
	assert.Empty(t, discovery.Models)
}

func TestModelCatalogService_Discover_ServerDown(t *testing.T) {
	cause := fmt.Errorf("%w: %w", domain.ErrModelUnavailable, errConnectionRefused)
	svc := NewModelCatalogService(modelsReturning(nil, cause))

	_, err := svc.Discover(context.Background())
	assert.ErrorIs(t, err, domain.ErrModelUnavailable)
	assert.ErrorIs(t, err, errConnectionRefused)
}

func TestModelCatalogService_Resolve(t *testing.T) {
	installed := []string{"llama3.2:latest", "mistral:7b"}

	tests := []struct {
		name      string
		preferred string
		want      string
		wantErr   error
	}{
		{"empty picks first", "", "llama3.2:latest", nil},
		{"exact match", "mistral:7b", "mistral:7b", nil},
		{"untagged matches latest", "llama3.2", "llama3.2:latest", nil},
		{"not installed", "phi3", "", domain.ErrInvalidConfiguration},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewModelCatalogService(modelsReturning(installed, nil))

			got, err := svc.Resolve(context.Background(), tt.preferred)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestModelCatalogService_Resolve_NoModels(t *testing.T) {
	svc := NewModelCatalogService(modelsReturning([]string{}, nil))

	_, err := svc.Resolve(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrModelUnavailable)
}
