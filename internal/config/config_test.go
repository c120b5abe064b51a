package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		App:    AppConfig{Environment: "development"},
		Logger: LoggerConfig{Level: "info"},
		Store:  StoreConfig{DataPath: "/var/lib/trustwave"},
		Relay: RelayConfig{
			CatalogURL: DefaultCatalogRelay,
			TrustURL:   DefaultTrustRelay,
		},
		Trust: TrustConfig{
			ProviderKey: DefaultGenesisCurator,
			Threshold:   50,
			BatchSize:   500,
			MaxRecords:  100000,
		},
		Catalog: CatalogConfig{
			SongsListTag:     DefaultSongsListTag,
			MusiciansListTag: DefaultMusiciansListTag,
			FetchLimit:       1000,
			ReactionLimit:    2000,
		},
		PodcastIndex: PodcastIndexConfig{RequestsPerSecond: 1},
	}
}

// parseIsolated runs Parse with a .env path that does not exist.
func parseIsolated(t *testing.T, args ...string) (*Config, error) {
	t.Helper()
	args = append([]string{"-env-file", filepath.Join(t.TempDir(), "missing.env"), "-data-path", t.TempDir()}, args...)
	return Parse(args)
}

func TestValidate_ValidConfig(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidate_Failures(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad environment", func(c *Config) { c.App.Environment = "test" }},
		{"bad log level", func(c *Config) { c.Logger.Level = "verbose" }},
		{"empty data path", func(c *Config) { c.Store.DataPath = "" }},
		{"http relay", func(c *Config) { c.Relay.CatalogURL = "https://relay.example" }},
		{"short provider key", func(c *Config) { c.Trust.ProviderKey = "abc" }},
		{"threshold above scale", func(c *Config) { c.Trust.Threshold = 101 }},
		{"batch larger than ceiling", func(c *Config) { c.Trust.MaxRecords = 100 }},
		{"missing list tag", func(c *Config) { c.Catalog.SongsListTag = "" }},
		{"zero fetch limit", func(c *Config) { c.Catalog.FetchLimit = 0 }},
		{"zero podcast index rate", func(c *Config) { c.PodcastIndex.RequestsPerSecond = 0 }},
		{"malformed janitor key", func(c *Config) { c.Janitor.SecretKey = "not-hex" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestParse_Defaults(t *testing.T) {
	cfg, err := parseIsolated(t)
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.App.Environment)
	assert.Equal(t, DefaultCatalogRelay, cfg.Relay.CatalogURL)
	assert.Equal(t, DefaultTrustRelay, cfg.Relay.TrustURL)
	assert.Equal(t, DefaultGenesisCurator, cfg.Trust.ProviderKey)
	assert.Equal(t, 50, cfg.Trust.Threshold)
	assert.Equal(t, 500, cfg.Trust.BatchSize)
	assert.Equal(t, 100000, cfg.Trust.MaxRecords)
	assert.Equal(t, 1000, cfg.Catalog.FetchLimit)
	assert.Equal(t, 2000, cfg.Catalog.ReactionLimit)
	assert.Equal(t, 2*time.Minute, cfg.Catalog.CacheTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.Catalog.TrendingWindow)
	assert.Equal(t, 15*time.Second, cfg.Relay.QueryTimeout)
	assert.Equal(t, 10*time.Second, cfg.Relay.PublishTimeout)
	assert.Equal(t, 50, cfg.Janitor.BatchSize)
	assert.Equal(t, 2*time.Second, cfg.Janitor.BatchDelay)
	assert.InDelta(t, 1.0, cfg.PodcastIndex.RequestsPerSecond, 0)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)
	assert.Equal(t, map[string]int{DefaultGenesisCurator: 100}, cfg.Trust.SystemCurators)
}

func TestParse_FlagBeatsEnv(t *testing.T) {
	t.Setenv("TRUST_THRESHOLD", "70")
	t.Setenv("SERVER_PORT", "9000")

	cfg, err := parseIsolated(t, "-trust-threshold", "60")
	require.NoError(t, err)

	assert.Equal(t, 60, cfg.Trust.Threshold)
	assert.Equal(t, "9000", cfg.Server.Port)
}

func TestParse_TOMLFileIsLowestPriority(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "trustwave.toml")
	content := `
[logger]
level = "debug"

[catalog]
cache_ttl = "5m"
fetch_limit = 250

[trust]
threshold = 40
system_curators = ["` + DefaultGenesisCurator + `:90"]

[janitor]
dry_run = true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("CATALOG_FETCH_LIMIT", "300")

	cfg, err := parseIsolated(t, "-config", path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.Equal(t, 5*time.Minute, cfg.Catalog.CacheTTL)
	assert.Equal(t, 300, cfg.Catalog.FetchLimit, "environment overrides file")
	assert.Equal(t, 40, cfg.Trust.Threshold)
	assert.Equal(t, 90, cfg.Trust.SystemCurators[DefaultGenesisCurator])
	assert.True(t, cfg.Janitor.DryRun)
}

func TestParse_MissingConfigFile(t *testing.T) {
	_, err := parseIsolated(t, "-config", filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestParse_InvalidDuration(t *testing.T) {
	t.Setenv("RELAY_QUERY_TIMEOUT", "soon")

	_, err := parseIsolated(t)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "query timeout")
}

func TestParse_EnvFile(t *testing.T) {
	envPath := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envPath, []byte("# comment\nJANITOR_BATCH_SIZE='25'\n"), 0o600))
	t.Setenv("JANITOR_BATCH_SIZE", "")

	cfg, err := Parse([]string{"-env-file", envPath, "-data-path", t.TempDir()})
	require.NoError(t, err)
	assert.Equal(t, 25, cfg.Janitor.BatchSize)
}

func TestParseCurators(t *testing.T) {
	other := "aa" + DefaultGenesisCurator[2:]

	curators, err := parseCurators(DefaultGenesisCurator + ":80, " + other)
	require.NoError(t, err)
	assert.Equal(t, 80, curators[DefaultGenesisCurator])
	assert.Equal(t, 100, curators[other])

	_, err = parseCurators("nothex:5")
	assert.Error(t, err)
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	got, err := expandPath("~/tw", "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "tw"), got)

	got, err = expandPath("", "/default")
	require.NoError(t, err)
	assert.Equal(t, "/default", got)
}

func TestDerivedPaths(t *testing.T) {
	cfg := validConfig()
	assert.Equal(t, "/var/lib/trustwave/db", cfg.BadgerPath())
	assert.Equal(t, "/var/lib/trustwave/jobs.db", cfg.SQLitePath())
	assert.Equal(t, "/var/lib/trustwave/search", cfg.SearchPath())
}
