package bootstrap

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wsbpanel/internal/adapters/config"
	"wsbpanel/internal/adapters/csvstore"
	"wsbpanel/pkg/logger"
)

func TestProvideMatcher_FromCSVUniverse(t *testing.T) {
	path := filepath.Join(t.TempDir(), "russel_3000.csv")
	require.NoError(t, os.WriteFile(path, []byte("Ticker;Name\nAAPL;Apple Inc\nTSLA;Tesla Inc\nF;Ford Motor Co\n"), 0o644))

	cfg := &config.Config{Universe: config.UniverseConfig{Source: "csv", CSVPath: path}}
	matcher, err := provideMatcher(t.Context(), csvstore.NewUniverseFile(path), cfg, logger.Get())
	require.NoError(t, err)

	// single letter symbols are not part of the universe
	assert.Len(t, matcher.Tickers(), 2)
	assert.Equal(t, []string{"TSLA"}, matcher.Match("Tesla deliveries beat"))
}

func TestProvideMatcher_MissingUniverse(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.csv")
	cfg := &config.Config{Universe: config.UniverseConfig{Source: "csv", CSVPath: path}}

	_, err := provideMatcher(t.Context(), csvstore.NewUniverseFile(path), cfg, logger.Get())
	require.Error(t, err)
}

func TestProvideStorageCollector_NoStores(t *testing.T) {
	assert.NotNil(t, provideStorageCollector(nil, nil, logger.Get()))
}
