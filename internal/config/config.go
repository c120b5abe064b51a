// Package config provides application configuration management with support for
// command-line flags, environment variables, .env files and an optional TOML file.
package config

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Well-known network endpoints and identities of the TrustWave catalog.
const (
	DefaultCatalogRelay      = "wss://dcosl.brainstorm.world"
	DefaultTrustRelay        = "wss://nip85.brainstorm.world"
	DefaultGenesisCurator    = "b83a28b7e4e5d20bd960c5faeb6625f95529166b8bdb045d42634a2f35919450"
	DefaultSongsListTag      = "39998:" + DefaultGenesisCurator + ":17c49d8b-c0d9-49bf-875f-6c7568f45f38"
	DefaultMusiciansListTag  = "39998:" + DefaultGenesisCurator + ":8623051e-1736-437d-92b1-9049b86def30"
	DefaultPodcastIndexProxy = "https://trustwave-pi-proxy.malfactoryst.workers.dev"
)

// Config holds the application configuration.
type Config struct {
	App          AppConfig
	Logger       LoggerConfig
	Server       ServerConfig
	Store        StoreConfig
	Relay        RelayConfig
	Trust        TrustConfig
	Catalog      CatalogConfig
	PodcastIndex PodcastIndexConfig
	Janitor      JanitorConfig
	Import       ImportConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	CORSOrigins  []string
}

// StoreConfig holds local storage configuration.
type StoreConfig struct {
	// DataPath holds the badger directory, the sqlite job database and the search index.
	DataPath string
}

// RelayConfig holds signed-event store endpoints and their per-operation bounds.
type RelayConfig struct {
	CatalogURL     string
	TrustURL       string
	QueryTimeout   time.Duration
	PublishTimeout time.Duration
}

// TrustConfig holds trust map construction settings.
type TrustConfig struct {
	ProviderKey string
	Threshold   int
	BatchSize   int
	MaxRecords  int
	// SystemCurators maps pubkey to a fallback rank applied when the provider has none.
	SystemCurators map[string]int
}

// CatalogConfig holds catalog materialization settings.
type CatalogConfig struct {
	SongsListTag     string
	MusiciansListTag string
	FetchLimit       int
	ReactionLimit    int
	CacheTTL         time.Duration
	TrendingWindow   time.Duration
}

// PodcastIndexConfig holds external catalog index settings.
type PodcastIndexConfig struct {
	BaseURL           string
	RequestsPerSecond float64
	Timeout           time.Duration
}

// JanitorConfig holds settings for the non-music cleanup job.
type JanitorConfig struct {
	// SecretKey is the hex secp256k1 key used to sign janitor downvotes.
	SecretKey  string
	BatchSize  int
	BatchDelay time.Duration
	DryRun     bool
}

// ImportConfig holds settings for record imports.
type ImportConfig struct {
	// SecretKey signs records published by the background importer.
	SecretKey       string
	BlurHash        bool
	EpisodesPerFeed int
}

// LoadConfig loads configuration from the process arguments.
func LoadConfig() (*Config, error) {
	return Parse(os.Args[1:])
}

// Parse loads configuration from multiple sources with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. TOML config file (-config).
// 5. Default values (lowest priority).
func Parse(args []string) (*Config, error) {
	fs := flag.NewFlagSet("trustwave", flag.ContinueOnError)

	env := fs.String("env", "", "Environment (development, staging, production)")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error)")
	dataPath := fs.String("data-path", "", "Directory for local state (hidden items, job checkpoints, search index)")
	envFile := fs.String("env-file", ".env", "Path to .env file")
	configFile := fs.String("config", "", "Path to TOML config file")

	serverPort := fs.String("port", "", "Server port (default: 8080)")
	readTimeout := fs.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := fs.String("write-timeout", "", "HTTP write timeout (default: 30s)")
	idleTimeout := fs.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")
	corsOrigins := fs.String("cors-origins", "", "Comma separated allowed CORS origins (default: *)")

	catalogRelay := fs.String("catalog-relay", "", "Relay holding lists and reactions")
	trustRelay := fs.String("trust-relay", "", "Relay holding trusted assertions")
	queryTimeout := fs.String("query-timeout", "", "Per-query relay timeout (default: 15s)")
	publishTimeout := fs.String("publish-timeout", "", "Relay publish acknowledgment timeout (default: 10s)")

	provider := fs.String("trust-provider", "", "Pubkey of the trusted assertion provider")
	threshold := fs.String("trust-threshold", "", "Minimum rank (exclusive) for a reaction to count (default: 50)")

	cacheTTL := fs.String("catalog-cache-ttl", "", "Materialized catalog cache lifetime (default: 2m)")
	piBaseURL := fs.String("podcast-index-url", "", "Podcast Index proxy base URL")

	janitorDryRun := fs.String("janitor-dry-run", "", "Report janitor verdicts without publishing (default: false)")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	// Load .env file if it exists (silently ignore if not found).
	_ = loadEnvFile(*envFile)

	file, err := loadFileValues(getConfigValue(*configFile, "CONFIG_FILE", ""))
	if err != nil {
		return nil, fmt.Errorf("invalid config file: %w", err)
	}
	def := file.orDefault

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", def("app.env", "development")),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", def("logger.level", "info")),
		},
		Server: ServerConfig{
			Port:        getConfigValue(*serverPort, "SERVER_PORT", def("server.port", "8080")),
			CORSOrigins: splitList(getConfigValue(*corsOrigins, "CORS_ORIGINS", def("server.cors_origins", "*"))),
		},
		Store: StoreConfig{
			DataPath: getConfigValue(*dataPath, "DATA_PATH", def("store.data_path", "")),
		},
		Relay: RelayConfig{
			CatalogURL: getConfigValue(*catalogRelay, "CATALOG_RELAY", def("relay.catalog_url", DefaultCatalogRelay)),
			TrustURL:   getConfigValue(*trustRelay, "TRUST_RELAY", def("relay.trust_url", DefaultTrustRelay)),
		},
		Trust: TrustConfig{
			ProviderKey: getConfigValue(*provider, "TRUST_PROVIDER", def("trust.provider_key", DefaultGenesisCurator)),
			Threshold:   getIntConfigValue(*threshold, "TRUST_THRESHOLD", file.intOr("trust.threshold", 50)),
			BatchSize:   getIntConfigValue("", "TRUST_BATCH_SIZE", file.intOr("trust.batch_size", 500)),
			MaxRecords:  getIntConfigValue("", "TRUST_MAX_RECORDS", file.intOr("trust.max_records", 100000)),
		},
		Catalog: CatalogConfig{
			SongsListTag:     getConfigValue("", "SONGS_LIST_TAG", def("catalog.songs_list_tag", DefaultSongsListTag)),
			MusiciansListTag: getConfigValue("", "MUSICIANS_LIST_TAG", def("catalog.musicians_list_tag", DefaultMusiciansListTag)),
			FetchLimit:       getIntConfigValue("", "CATALOG_FETCH_LIMIT", file.intOr("catalog.fetch_limit", 1000)),
			ReactionLimit:    getIntConfigValue("", "CATALOG_REACTION_LIMIT", file.intOr("catalog.reaction_limit", 2000)),
		},
		PodcastIndex: PodcastIndexConfig{
			BaseURL: getConfigValue(*piBaseURL, "PODCAST_INDEX_URL", def("podcast_index.base_url", DefaultPodcastIndexProxy)),
		},
		Janitor: JanitorConfig{
			SecretKey: getConfigValue("", "JANITOR_SECRET_KEY", def("janitor.secret_key", "")),
			BatchSize: getIntConfigValue("", "JANITOR_BATCH_SIZE", file.intOr("janitor.batch_size", 50)),
			DryRun:    getBoolConfigValue(*janitorDryRun, "JANITOR_DRY_RUN", file.boolOr("janitor.dry_run", false)),
		},
		Import: ImportConfig{
			SecretKey:       getConfigValue("", "IMPORT_SECRET_KEY", def("import.secret_key", "")),
			BlurHash:        getBoolConfigValue("", "IMPORT_BLURHASH", file.boolOr("import.blurhash", true)),
			EpisodesPerFeed: getIntConfigValue("", "IMPORT_EPISODES_PER_FEED", file.intOr("import.episodes_per_feed", 100)),
		},
	}

	curators, err := parseCurators(getConfigValue("", "SYSTEM_CURATORS", def("trust.system_curators", DefaultGenesisCurator+":100")))
	if err != nil {
		return nil, fmt.Errorf("invalid system curators: %w", err)
	}
	cfg.Trust.SystemCurators = curators

	rps, err := strconv.ParseFloat(getConfigValue("", "PODCAST_INDEX_RPS", def("podcast_index.requests_per_second", "1")), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid podcast index rate: %w", err)
	}
	cfg.PodcastIndex.RequestsPerSecond = rps

	durations := []struct {
		name   string
		value  string
		target *time.Duration
	}{
		{"read timeout", getConfigValue(*readTimeout, "SERVER_READ_TIMEOUT", def("server.read_timeout", "15s")), &cfg.Server.ReadTimeout},
		{"write timeout", getConfigValue(*writeTimeout, "SERVER_WRITE_TIMEOUT", def("server.write_timeout", "30s")), &cfg.Server.WriteTimeout},
		{"idle timeout", getConfigValue(*idleTimeout, "SERVER_IDLE_TIMEOUT", def("server.idle_timeout", "60s")), &cfg.Server.IdleTimeout},
		{"query timeout", getConfigValue(*queryTimeout, "RELAY_QUERY_TIMEOUT", def("relay.query_timeout", "15s")), &cfg.Relay.QueryTimeout},
		{"publish timeout", getConfigValue(*publishTimeout, "RELAY_PUBLISH_TIMEOUT", def("relay.publish_timeout", "10s")), &cfg.Relay.PublishTimeout},
		{"catalog cache ttl", getConfigValue(*cacheTTL, "CATALOG_CACHE_TTL", def("catalog.cache_ttl", "2m")), &cfg.Catalog.CacheTTL},
		{"trending window", getConfigValue("", "TRENDING_WINDOW", def("catalog.trending_window", "168h")), &cfg.Catalog.TrendingWindow},
		{"podcast index timeout", getConfigValue("", "PODCAST_INDEX_TIMEOUT", def("podcast_index.timeout", "30s")), &cfg.PodcastIndex.Timeout},
		{"janitor batch delay", getConfigValue("", "JANITOR_BATCH_DELAY", def("janitor.batch_delay", "2s")), &cfg.Janitor.BatchDelay},
	}
	for _, d := range durations {
		parsed, err := time.ParseDuration(d.value)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", d.name, d.value, err)
		}
		*d.target = parsed
	}

	if err := cfg.expandDataPath(); err != nil {
		return nil, fmt.Errorf("invalid data path: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %q (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Store.DataPath == "" {
		return errors.New("data path cannot be empty after expansion")
	}

	for name, u := range map[string]string{"catalog relay": c.Relay.CatalogURL, "trust relay": c.Relay.TrustURL} {
		if !strings.HasPrefix(u, "wss://") && !strings.HasPrefix(u, "ws://") {
			return fmt.Errorf("%s must be a websocket URL: %q", name, u)
		}
	}

	if !isHexKey(c.Trust.ProviderKey) {
		return fmt.Errorf("trust provider must be a 64 character hex pubkey: %q", c.Trust.ProviderKey)
	}
	if c.Trust.Threshold < 0 || c.Trust.Threshold > 100 {
		return fmt.Errorf("trust threshold must be between 0 and 100, got %d", c.Trust.Threshold)
	}
	if c.Trust.BatchSize <= 0 || c.Trust.MaxRecords < c.Trust.BatchSize {
		return fmt.Errorf("trust batch size %d must be positive and not exceed max records %d", c.Trust.BatchSize, c.Trust.MaxRecords)
	}

	if c.Catalog.SongsListTag == "" || c.Catalog.MusiciansListTag == "" {
		return errors.New("songs and musicians list tags are required")
	}
	if c.Catalog.FetchLimit <= 0 || c.Catalog.ReactionLimit <= 0 {
		return errors.New("catalog fetch and reaction limits must be positive")
	}

	if c.PodcastIndex.RequestsPerSecond <= 0 {
		return fmt.Errorf("podcast index rate must be positive, got %v", c.PodcastIndex.RequestsPerSecond)
	}

	if c.Janitor.SecretKey != "" && !isHexKey(c.Janitor.SecretKey) {
		return errors.New("janitor secret key must be 64 hex characters")
	}
	if c.Import.SecretKey != "" && !isHexKey(c.Import.SecretKey) {
		return errors.New("import secret key must be 64 hex characters")
	}

	return nil
}

// BadgerPath returns the directory of the hidden-items store.
func (c *Config) BadgerPath() string {
	return filepath.Join(c.Store.DataPath, "db")
}

// SQLitePath returns the path of the job checkpoint database.
func (c *Config) SQLitePath() string {
	return filepath.Join(c.Store.DataPath, "jobs.db")
}

// SearchPath returns the directory of the catalog search index.
func (c *Config) SearchPath() string {
	return filepath.Join(c.Store.DataPath, "search")
}

// expandPath expands ~ and makes the path absolute.
// If path is empty and defaultPath is provided, uses the default.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

func (c *Config) expandDataPath() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}

	expanded, err := expandPath(c.Store.DataPath, filepath.Join(homeDir, ".trustwave"))
	if err != nil {
		return err
	}
	c.Store.DataPath = expanded
	return nil
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}
	return defaultValue
}

// getBoolConfigValue returns a bool from flag, env var, or default.
// Accepts: "true", "1", "yes" (case-insensitive) as true; anything else is false.
func getBoolConfigValue(flagValue, envKey string, defaultValue bool) bool {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	return parseBool(strValue)
}

func parseBool(s string) bool {
	s = strings.ToLower(s)
	return s == "true" || s == "1" || s == "yes"
}

// getIntConfigValue returns an int from flag, env var, or default.
func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	result, err := strconv.Atoi(strValue)
	if err != nil {
		return defaultValue
	}
	return result
}

// parseCurators parses "pubkey:rank,pubkey:rank". A bare pubkey gets rank 100.
func parseCurators(s string) (map[string]int, error) {
	curators := make(map[string]int)
	for _, item := range splitList(s) {
		key, rankStr, found := strings.Cut(item, ":")
		rank := 100
		if found {
			r, err := strconv.Atoi(rankStr)
			if err != nil {
				return nil, fmt.Errorf("rank for %s: %w", key, err)
			}
			rank = r
		}
		if !isHexKey(key) {
			return nil, fmt.Errorf("curator %q is not a hex pubkey", key)
		}
		curators[strings.ToLower(key)] = rank
	}
	return curators, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func isHexKey(s string) bool {
	if len(s) != 64 {
		return false
	}
	for _, r := range s {
		if !strings.ContainsRune("0123456789abcdefABCDEF", r) {
			return false
		}
	}
	return true
}

// loadEnvFile loads environment variables from a .env file.
// Format: KEY=value (one per line, # for comments).
func loadEnvFile(path string) error {
	file, err := os.Open(path) //#nosec G304 -- Config file path from user input is expected
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}
		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"'`)

		// Real environment variables take precedence over the .env file.
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to set env var %s: %w", key, err)
			}
		}
	}

	return scanner.Err()
}
