package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	DefaultCatalogURL = "https://get.kalka.io/curseforge.json"
	DefaultDetailURL  = "https://addons-ecs.forgesvc.net/api/v2/addon"
	DefaultUserAgent  = "cfcli / kalka.io"
	DefaultModLoader  = "forge"
	cacheFileName     = "curseforge.json"
	databaseFileName  = "cfmods.db"
)

// DefaultGameVersions is used when no version is configured: the whole
// 1.16 release family.
var DefaultGameVersions = []string{"1.16.1", "1.16.2", "1.16.3", "1.16.4", "1.16.5"}

// familyVersion stands for the whole 1.16 family when given on its own.
const familyVersion = "1.16.5"

// expandVersions turns a lone "1.16.5" into DefaultGameVersions. Any other
// list, including "1.16.5" next to other versions, is used as given.
func expandVersions(versions []string) []string {
	if len(versions) == 1 && versions[0] == familyVersion {
		return append([]string(nil), DefaultGameVersions...)
	}
	return versions
}

// Config holds all configuration for the application.
// Values are loaded by Viper from a .env file and/or environment variables,
// then overridden by command-line flags.
type Config struct {
	ModLoader           string        `mapstructure:"CF_MODLOADER"`
	GameVersions        []string      `mapstructure:"-"`
	DownloadDir         string        `mapstructure:"CF_DOWNLOAD_DIR"`
	DisableDependencies bool          `mapstructure:"CF_DISABLE_DEPENDENCIES"`
	CatalogURL          string        `mapstructure:"CF_CATALOG_URL"`
	DetailURL           string        `mapstructure:"CF_DETAIL_URL"`
	CachePath           string        `mapstructure:"CF_CACHE_PATH"`
	UserAgent           string        `mapstructure:"USERAGENT"`
	HTTPTimeout         time.Duration `mapstructure:"CF_HTTP_TIMEOUT"`
	DatabasePath        string        `mapstructure:"CF_DATABASE_PATH"`
	LogFile             string        `mapstructure:"CF_LOG_FILE"`
	LogLevel            string        `mapstructure:"CF_LOG_LEVEL"`
}

var envKeys = []string{
	"CF_MODLOADER",
	"CF_GAME_VERSIONS",
	"CF_DOWNLOAD_DIR",
	"CF_DISABLE_DEPENDENCIES",
	"CF_CATALOG_URL",
	"CF_DETAIL_URL",
	"CF_CACHE_PATH",
	"USERAGENT",
	"CF_HTTP_TIMEOUT",
	"CF_DATABASE_PATH",
	"CF_LOG_FILE",
	"CF_LOG_LEVEL",
}

// LoadConfig reads configuration from an optional .env file in path and
// from environment variables. Defaults are applied but directories are not
// validated yet; call Validate after flags have been applied.
func LoadConfig(path string) (Config, error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName(".env")
	v.SetConfigType("env")

	vipErr := v.ReadInConfig()
	if _, ok := vipErr.(viper.ConfigFileNotFoundError); ok {
		slog.Debug("Config file (.env) not found, relying on environment variables.")
	} else if vipErr != nil {
		return Config{}, fmt.Errorf("fatal error config file: %w", vipErr)
	}

	v.AutomaticEnv()
	for _, key := range envKeys {
		if err := v.BindEnv(key); err != nil {
			slog.Warn("Unable to bind env var", "key", key, "error", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unable to decode into struct, %w", err)
	}
	cfg.GameVersions = expandVersions(splitList(v.GetString("CF_GAME_VERSIONS")))

	processConfigDefaults(&cfg)
	return cfg, nil
}

// processConfigDefaults fills every unset field with its default.
func processConfigDefaults(cfg *Config) {
	if cfg.ModLoader == "" {
		cfg.ModLoader = DefaultModLoader
	}
	cfg.ModLoader = strings.ToLower(cfg.ModLoader)
	if len(cfg.GameVersions) == 0 {
		cfg.GameVersions = append([]string(nil), DefaultGameVersions...)
	}
	if cfg.CatalogURL == "" {
		cfg.CatalogURL = DefaultCatalogURL
	}
	if cfg.DetailURL == "" {
		cfg.DetailURL = DefaultDetailURL
	}
	cfg.DetailURL = strings.TrimRight(cfg.DetailURL, "/")
	if cfg.CachePath == "" {
		cfg.CachePath = filepath.Join(os.TempDir(), cacheFileName)
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.DownloadDir == "" {
		if wd, err := os.Getwd(); err == nil {
			cfg.DownloadDir = wd
		} else {
			cfg.DownloadDir = "."
		}
	}
	if cfg.DatabasePath == "" {
		if dir, err := os.UserCacheDir(); err == nil {
			cfg.DatabasePath = filepath.Join(dir, "cfmods", databaseFileName)
		} else {
			cfg.DatabasePath = filepath.Join(os.TempDir(), databaseFileName)
		}
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
}

// ApplyFlags overrides config values with any flag the user set explicitly.
func ApplyFlags(cfg *Config, flags *pflag.FlagSet) error {
	if flags.Changed("modloader") {
		loader, err := flags.GetString("modloader")
		if err != nil {
			return err
		}
		cfg.ModLoader = strings.ToLower(loader)
	}
	if flags.Changed("version") {
		versions, err := flags.GetStringSlice("version")
		if err != nil {
			return err
		}
		cfg.GameVersions = expandVersions(versions)
	}
	if flags.Changed("disable-dependencies") {
		disable, err := flags.GetBool("disable-dependencies")
		if err != nil {
			return err
		}
		cfg.DisableDependencies = disable
	}
	if flags.Changed("download-path") {
		dir, err := flags.GetString("download-path")
		if err != nil {
			return err
		}
		cfg.DownloadDir = dir
	}
	return nil
}

// Validate checks values that cannot be defaulted.
func Validate(cfg *Config) error {
	switch cfg.ModLoader {
	case "forge", "fabric":
	default:
		return fmt.Errorf("unsupported modloader %q (want forge or fabric)", cfg.ModLoader)
	}
	if len(cfg.GameVersions) == 0 {
		return fmt.Errorf("at least one game version is required")
	}
	if cfg.HTTPTimeout < 0 {
		return fmt.Errorf("CF_HTTP_TIMEOUT must not be negative")
	}
	return validateAndEnsureDirectories(cfg)
}

// validateAndEnsureDirectories checks the download directory exists (it is
// never created) and creates the parents of the cache and database files.
func validateAndEnsureDirectories(cfg *Config) error {
	if cfg.DownloadDir == "" {
		return fmt.Errorf("download directory is required")
	}
	info, err := os.Stat(cfg.DownloadDir)
	if err != nil {
		return fmt.Errorf("download directory %q: %w", cfg.DownloadDir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("download directory %q is not a directory", cfg.DownloadDir)
	}

	for _, file := range []string{cfg.CachePath, cfg.DatabasePath} {
		dir := filepath.Dir(file)
		if err := os.MkdirAll(dir, 0755); err != nil {
			slog.Error("Failed to create directory", "path", dir, "error", err)
			return err
		}
	}
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
