package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/pflag"
)

func TestProcessConfigDefaults(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		cfg := Config{}
		processConfigDefaults(&cfg)

		if cfg.ModLoader != "forge" {
			t.Errorf("Expected ModLoader to be forge, got %s", cfg.ModLoader)
		}
		if len(cfg.GameVersions) != 5 || cfg.GameVersions[4] != "1.16.5" {
			t.Errorf("Expected the 1.16 family by default, got %v", cfg.GameVersions)
		}
		if cfg.UserAgent != DefaultUserAgent {
			t.Errorf("Expected default UserAgent, got %s", cfg.UserAgent)
		}
		if cfg.CatalogURL != DefaultCatalogURL || cfg.DetailURL != DefaultDetailURL {
			t.Error("Expected default endpoints")
		}
		if filepath.Base(cfg.CachePath) != "curseforge.json" {
			t.Errorf("Unexpected cache path %s", cfg.CachePath)
		}
		if cfg.DownloadDir == "" || cfg.DatabasePath == "" {
			t.Error("Expected download dir and database path defaults")
		}
	})

	t.Run("respects existing values", func(t *testing.T) {
		cfg := Config{
			ModLoader:    "Fabric",
			GameVersions: []string{"1.18.2"},
			UserAgent:    "custom-agent",
			DetailURL:    "http://example.test/addon/",
		}
		processConfigDefaults(&cfg)

		if cfg.ModLoader != "fabric" {
			t.Errorf("Expected ModLoader to be lowercased fabric, got %s", cfg.ModLoader)
		}
		if len(cfg.GameVersions) != 1 || cfg.GameVersions[0] != "1.18.2" {
			t.Errorf("Expected GameVersions to stay, got %v", cfg.GameVersions)
		}
		if cfg.UserAgent != "custom-agent" {
			t.Errorf("Expected UserAgent to stay custom-agent, got %s", cfg.UserAgent)
		}
		if cfg.DetailURL != "http://example.test/addon" {
			t.Errorf("Expected trailing slash trimmed, got %s", cfg.DetailURL)
		}
	})
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("CF_MODLOADER", "fabric")
	t.Setenv("CF_GAME_VERSIONS", "1.17.1, 1.17")
	t.Setenv("CF_DISABLE_DEPENDENCIES", "true")
	t.Setenv("CF_HTTP_TIMEOUT", "30s")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if cfg.ModLoader != "fabric" {
		t.Errorf("Expected fabric, got %s", cfg.ModLoader)
	}
	if len(cfg.GameVersions) != 2 || cfg.GameVersions[0] != "1.17.1" || cfg.GameVersions[1] != "1.17" {
		t.Errorf("Unexpected versions %v", cfg.GameVersions)
	}
	if !cfg.DisableDependencies {
		t.Error("Expected dependencies disabled")
	}
	if cfg.HTTPTimeout.String() != "30s" {
		t.Errorf("Expected 30s timeout, got %s", cfg.HTTPTimeout)
	}
}

func TestApplyFlags(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.StringP("modloader", "m", "forge", "")
	flags.StringSliceP("version", "v", nil, "")
	flags.Bool("disable-dependencies", false, "")
	flags.StringP("download-path", "d", "", "")

	if err := flags.Parse([]string{"-m", "FABRIC", "-v", "1.16.5", "-v", "1.16.4", "--disable-dependencies"}); err != nil {
		t.Fatalf("parse: %v", err)
	}

	cfg := Config{ModLoader: "forge", GameVersions: DefaultGameVersions, DownloadDir: "/keep"}
	if err := ApplyFlags(&cfg, flags); err != nil {
		t.Fatalf("ApplyFlags: %v", err)
	}
	if cfg.ModLoader != "fabric" {
		t.Errorf("Expected fabric, got %s", cfg.ModLoader)
	}
	if len(cfg.GameVersions) != 2 {
		t.Errorf("Expected two versions, got %v", cfg.GameVersions)
	}
	if !cfg.DisableDependencies {
		t.Error("Expected dependencies disabled")
	}
	if cfg.DownloadDir != "/keep" {
		t.Errorf("Unset flag must not override, got %s", cfg.DownloadDir)
	}
}

func TestApplyFlagsSingleFamilyVersion(t *testing.T) {
	tests := []struct {
		args []string
		want []string
	}{
		{[]string{"-v", "1.16.5"}, DefaultGameVersions},
		{[]string{"-v", "1.16.4"}, []string{"1.16.4"}},
		{[]string{"-v", "1.16.5", "-v", "1.16.4"}, []string{"1.16.5", "1.16.4"}},
		{[]string{"-v", "1.18.2"}, []string{"1.18.2"}},
	}

	for _, tt := range tests {
		t.Run(strings.Join(tt.args, " "), func(t *testing.T) {
			flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
			flags.StringSliceP("version", "v", nil, "")
			if err := flags.Parse(tt.args); err != nil {
				t.Fatalf("parse: %v", err)
			}

			cfg := Config{GameVersions: []string{"1.12.2"}}
			if err := ApplyFlags(&cfg, flags); err != nil {
				t.Fatalf("ApplyFlags: %v", err)
			}
			if strings.Join(cfg.GameVersions, ",") != strings.Join(tt.want, ",") {
				t.Errorf("GameVersions = %v, want %v", cfg.GameVersions, tt.want)
			}
		})
	}
}

func TestLoadConfigExpandsFamilyVersion(t *testing.T) {
	t.Setenv("CF_GAME_VERSIONS", "1.16.5")
	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if len(cfg.GameVersions) != len(DefaultGameVersions) {
		t.Errorf("Expected the 1.16 family, got %v", cfg.GameVersions)
	}
}

func TestValidateAndEnsureDirectories(t *testing.T) {
	tmpDir := t.TempDir()

	t.Run("missing download dir", func(t *testing.T) {
		cfg := Config{DownloadDir: filepath.Join(tmpDir, "nope")}
		if err := validateAndEnsureDirectories(&cfg); err == nil {
			t.Error("Expected error for missing download directory")
		}
	})

	t.Run("download dir is a file", func(t *testing.T) {
		file := filepath.Join(tmpDir, "file")
		if err := os.WriteFile(file, nil, 0644); err != nil {
			t.Fatal(err)
		}
		cfg := Config{DownloadDir: file}
		if err := validateAndEnsureDirectories(&cfg); err == nil {
			t.Error("Expected error when download path is a file")
		}
	})

	t.Run("creates cache and database parents", func(t *testing.T) {
		cfg := Config{
			DownloadDir:  tmpDir,
			CachePath:    filepath.Join(tmpDir, "cache", "curseforge.json"),
			DatabasePath: filepath.Join(tmpDir, "state", "cfmods.db"),
		}
		if err := validateAndEnsureDirectories(&cfg); err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		for _, sub := range []string{"cache", "state"} {
			if _, err := os.Stat(filepath.Join(tmpDir, sub)); os.IsNotExist(err) {
				t.Errorf("Directory %s was not created", sub)
			}
		}
	})
}

func TestValidateRejectsUnknownLoader(t *testing.T) {
	cfg := Config{ModLoader: "quilt", GameVersions: []string{"1.18"}, DownloadDir: t.TempDir()}
	if err := Validate(&cfg); err == nil {
		t.Error("Expected error for unsupported modloader")
	}
}
