package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/hpungsan/recipevault/internal/recipe"
)

// Environment variables that override config.json.
const (
	EnvStorageKey           = "RECIPEVAULT_STORAGE_KEY"
	EnvDefaultImage         = "RECIPEVAULT_DEFAULT_IMAGE"
	EnvOperatorPasswordHash = "RECIPEVAULT_OPERATOR_PASSWORD_HASH"
	EnvSessionTTLMinutes    = "RECIPEVAULT_SESSION_TTL_MINUTES"
)

// Config holds application configuration.
type Config struct {
	// StorageKey names the slot holding the recipe document
	StorageKey string `json:"storage_key"`

	// DefaultImage is substituted when a recipe is saved without images
	DefaultImage string `json:"default_image"`

	// OperatorPasswordHash is an argon2id hash (see `recipevault hash-password`).
	// Empty disables operator login in the web UI.
	OperatorPasswordHash string `json:"operator_password_hash,omitempty"`

	// SessionTTLMinutes is how long a web operator session stays valid.
	SessionTTLMinutes int `json:"session_ttl_minutes"`

	// LoginRatePerMinute and LoginBurst throttle login attempts per client.
	LoginRatePerMinute int `json:"login_rate_per_minute"`
	LoginBurst         int `json:"login_burst"`

	// AllowedPaths is an allowlist of directories for import/export operations.
	// Paths outside ~/.recipevault/exports require either being in this list or AllowUnsafePaths=true.
	// Paths should be absolute (relative paths are ignored).
	AllowedPaths []string `json:"allowed_paths,omitempty"`

	// AllowUnsafePaths disables directory restrictions for import/export.
	// Symlink and extension checks still apply.
	AllowUnsafePaths bool `json:"allow_unsafe_paths,omitempty"`

	// DBMaxOpenConns limits the maximum number of open database connections.
	// 0 means use sql.DB default (unlimited).
	DBMaxOpenConns int `json:"db_max_open_conns,omitempty"`

	// DBMaxIdleConns limits the maximum number of idle database connections.
	DBMaxIdleConns int `json:"db_max_idle_conns,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	// Unknown tool names are logged as warnings.
	DisabledTools []string `json:"disabled_tools,omitempty"`

	// DisabledTypes is a list of type names to disable entirely.
	// Known types: "recipe".
	DisabledTypes []string `json:"disabled_types,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		StorageKey:         "recipevault_data",
		DefaultImage:       recipe.DefaultImage,
		SessionTTLMinutes:  720,
		LoginRatePerMinute: 5,
		LoginBurst:         5,
	}
}

// Load loads configuration from baseDir/config.json, then applies
// baseDir/.env and RECIPEVAULT_* environment overrides.
// Returns default config if neither exists.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.recipevault.
func Load(baseDir string) (*Config, error) {
	cfg, err := loadFile(filepath.Join(baseDir, "config.json"))
	if err != nil {
		return nil, err
	}
	if err := ApplyEnv(cfg, filepath.Join(baseDir, ".env")); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv loads envFile (if present) into the process environment without
// overriding variables that are already set, then copies RECIPEVAULT_*
// values onto cfg.
func ApplyEnv(cfg *Config, envFile string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}

	if v := strings.TrimSpace(os.Getenv(EnvStorageKey)); v != "" {
		cfg.StorageKey = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvDefaultImage)); v != "" {
		cfg.DefaultImage = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvOperatorPasswordHash)); v != "" {
		cfg.OperatorPasswordHash = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvSessionTTLMinutes)); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.New(EnvSessionTTLMinutes + " must be an integer")
		}
		if n > 0 {
			cfg.SessionTTLMinutes = n
		}
	}
	return nil
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFile loads configuration from a specific file path.
// Returns default config if the file doesn't exist.
func loadFile(configPath string) (*Config, error) {
	cfg, err := loadFileRaw(configPath)
	if err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(), cfg), nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; arrays are merged and deduplicated.
func Merge(base, overlay *Config) *Config {
	result := &Config{}

	// Scalars: overlay wins if non-zero, else base
	result.StorageKey = firstNonEmpty(overlay.StorageKey, base.StorageKey)
	result.DefaultImage = firstNonEmpty(overlay.DefaultImage, base.DefaultImage)
	result.OperatorPasswordHash = firstNonEmpty(overlay.OperatorPasswordHash, base.OperatorPasswordHash)
	result.SessionTTLMinutes = firstPositive(overlay.SessionTTLMinutes, base.SessionTTLMinutes)
	result.LoginRatePerMinute = firstPositive(overlay.LoginRatePerMinute, base.LoginRatePerMinute)
	result.LoginBurst = firstPositive(overlay.LoginBurst, base.LoginBurst)
	result.DBMaxOpenConns = firstPositive(overlay.DBMaxOpenConns, base.DBMaxOpenConns)
	result.DBMaxIdleConns = firstPositive(overlay.DBMaxIdleConns, base.DBMaxIdleConns)

	// Booleans: overlay wins if true, else base
	result.AllowUnsafePaths = base.AllowUnsafePaths || overlay.AllowUnsafePaths

	// Arrays: merge and deduplicate
	result.AllowedPaths = mergeStringSlice(base.AllowedPaths, overlay.AllowedPaths)
	result.DisabledTools = mergeStringSlice(base.DisabledTools, overlay.DisabledTools)
	result.DisabledTypes = mergeStringSlice(base.DisabledTypes, overlay.DisabledTypes)

	return result
}

func firstNonEmpty(a, b string) string {
	if strings.TrimSpace(a) != "" {
		return strings.TrimSpace(a)
	}
	return b
}

func firstPositive(a, b int) int {
	if a > 0 {
		return a
	}
	return b
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, s := range append(append([]string(nil), a...), b...) {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}
