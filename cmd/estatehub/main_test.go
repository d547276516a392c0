package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"estatehub/internal/domain/property"
	"estatehub/internal/infra/storage/memory"
)

func TestLoadPropertyFixtures(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	path := filepath.Join(t.TempDir(), "properties.json")
	require.NoError(t, os.WriteFile(path, []byte(`[
		{"id":"p-1","host":"h-1","title":"Loft","price_per_night":"120.50","currency":"eur","active":true},
		{"id":"p-2","host":"h-1","title":"","price_per_night":"80","currency":"EUR","active":true},
		{"id":"p-3","host":"h-2","title":"Barn","price_per_night":"cheap","currency":"EUR"}
	]`), 0o600))

	repo := memory.NewPropertyRepository()
	require.NoError(t, loadPropertyFixtures(ctx, repo, path, logger))

	p, err := repo.ByID(ctx, "p-1")
	require.NoError(t, err)
	assert.Equal(t, "EUR", p.Currency)
	assert.Equal(t, "120.5", p.PricePerNight.String())
	assert.True(t, p.Active)

	_, err = repo.ByID(ctx, "p-2")
	assert.ErrorIs(t, err, property.ErrPropertyNotFound)
	_, err = repo.ByID(ctx, "p-3")
	assert.ErrorIs(t, err, property.ErrPropertyNotFound)

	// Reloading keeps the stored version moving forward.
	require.NoError(t, loadPropertyFixtures(ctx, repo, path, logger))
	again, err := repo.ByID(ctx, "p-1")
	require.NoError(t, err)
	assert.Greater(t, again.Version, p.Version)
}

func TestLoadPropertyFixturesMissingFile(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	err := loadPropertyFixtures(context.Background(), memory.NewPropertyRepository(), filepath.Join(t.TempDir(), "none.json"), logger)
	assert.NoError(t, err)
}
