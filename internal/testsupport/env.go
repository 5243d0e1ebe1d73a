package testsupport

import (
	"os"
	"testing"

	"github.com/kelseyhightower/envconfig"

	"wsbpanel/internal/adapters/config"
)

// Integration tests read the same variables as the pipeline. A backend whose
// host variable is unset skips the calling test.

// PostgresConfig loads the Postgres section or skips the test
func PostgresConfig(t *testing.T) config.PostgresConfig {
	t.Helper()

	var cfg config.PostgresConfig
	loadSection(t, "POSTGRES_HOST", &cfg)
	return cfg
}

// ClickHouseConfig loads the ClickHouse section or skips the test
func ClickHouseConfig(t *testing.T) config.ClickHouseConfig {
	t.Helper()

	var cfg config.ClickHouseConfig
	loadSection(t, "CLICKHOUSE_HOST", &cfg)
	cfg.Enabled = true
	return cfg
}

// RedisConfig loads the Redis section or skips the test
func RedisConfig(t *testing.T) config.RedisConfig {
	t.Helper()

	var cfg config.RedisConfig
	loadSection(t, "REDIS_HOST", &cfg)
	cfg.Enabled = true
	return cfg
}

func loadSection(t *testing.T, hostKey string, section interface{}) {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	if os.Getenv(hostKey) == "" {
		t.Skipf("integration environment missing, set %s to run", hostKey)
	}
	if err := envconfig.Process("", section); err != nil {
		t.Fatalf("failed to load %s config: %v", hostKey, err)
	}
}
