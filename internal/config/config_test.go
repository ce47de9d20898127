package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

// TestNewConfig verifies the documented defaults.
func TestNewConfig(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()

	t.Run("default Concurrency is 4", func(t *testing.T) {
		t.Parallel()
		if cfg.Concurrency != 4 {
			t.Errorf("expected Concurrency to be 4, got %d", cfg.Concurrency)
		}
	})

	t.Run("default MaxPages is unlimited", func(t *testing.T) {
		t.Parallel()
		if cfg.MaxPages != 0 {
			t.Errorf("expected MaxPages to be 0, got %d", cfg.MaxPages)
		}
	})

	t.Run("default Timeout is 30 seconds", func(t *testing.T) {
		t.Parallel()
		if cfg.Timeout != 30*time.Second {
			t.Errorf("expected Timeout to be 30s, got %v", cfg.Timeout)
		}
	})

	t.Run("database is enabled", func(t *testing.T) {
		t.Parallel()
		if !cfg.SaveToDB || cfg.DBDir == "" {
			t.Errorf("expected database in %q to be enabled", cfg.DBDir)
		}
	})

	t.Run("default format is text", func(t *testing.T) {
		t.Parallel()
		if cfg.Format != FormatText {
			t.Errorf("expected text format, got %q", cfg.Format)
		}
	})

	t.Run("defaults need only a source", func(t *testing.T) {
		t.Parallel()
		c := NewConfig()
		c.Sources = []string{"youjizz"}
		if err := c.Validate(); err != nil {
			t.Errorf("expected no error, got %v", err)
		}
	})
}

// TestConfigValidate tests one validation rule per case.
func TestConfigValidate(t *testing.T) {
	t.Parallel()

	validConfig := func() *Config {
		cfg := NewConfig()
		cfg.Sources = []string{"youjizz"}
		return cfg
	}

	tests := []struct {
		name   string
		modify func(*Config)
		want   error
	}{
		{name: "valid config", modify: func(*Config) {}, want: nil},
		{name: "multiple sources", modify: func(c *Config) { c.Sources = []string{"a", "b"} }, want: nil},
		{name: "no sources", modify: func(c *Config) { c.Sources = nil }, want: ErrNoSource},
		{
			name: "start with several sources",
			modify: func(c *Config) {
				c.Sources = []string{"a", "b"}
				c.StartURL = "https://example.com/list/9.html"
			},
			want: ErrStartWithMultipleSources,
		},
		{
			name: "start and resume",
			modify: func(c *Config) {
				c.StartURL = "https://example.com/list/9.html"
				c.Resume = true
			},
			want: ErrConflictingStart,
		},
		{name: "zero concurrency", modify: func(c *Config) { c.Concurrency = 0 }, want: ErrInvalidConcurrency},
		{name: "negative max pages", modify: func(c *Config) { c.MaxPages = -1 }, want: ErrInvalidMaxPages},
		{name: "negative max items", modify: func(c *Config) { c.MaxItems = -1 }, want: ErrInvalidMaxItems},
		{name: "zero batch size", modify: func(c *Config) { c.BatchSize = 0 }, want: ErrInvalidBatchSize},
		{name: "zero timeout", modify: func(c *Config) { c.Timeout = 0 }, want: ErrInvalidTimeout},
		{name: "negative delay", modify: func(c *Config) { c.CrawlDelay = -time.Second }, want: ErrInvalidCrawlDelay},
		{name: "zero delay", modify: func(c *Config) { c.CrawlDelay = 0 }, want: nil},
		{name: "negative retries", modify: func(c *Config) { c.Retries = -1 }, want: ErrInvalidRetries},
		{name: "negative body size", modify: func(c *Config) { c.MaxBodySize = -1 }, want: ErrInvalidMaxBodySize},
		{name: "unknown format", modify: func(c *Config) { c.Format = "html" }, want: ErrInvalidFormat},
		{name: "markdown format", modify: func(c *Config) { c.Format = FormatMarkdown }, want: nil},
		{name: "no sink", modify: func(c *Config) { c.SaveToDB = false }, want: ErrNoSink},
		{
			name: "dry run is a sink",
			modify: func(c *Config) {
				c.SaveToDB = false
				c.DryRun = true
			},
			want: nil,
		},
		{
			name: "endpoint is a sink",
			modify: func(c *Config) {
				c.SaveToDB = false
				c.Endpoint = "https://api.example.com/graphql"
			},
			want: nil,
		},
		{
			name: "resume without store",
			modify: func(c *Config) {
				c.SaveToDB = false
				c.DryRun = true
				c.Resume = true
			},
			want: ErrResumeWithoutStore,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := validConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.want == nil {
				if err != nil {
					t.Errorf("expected no error, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

// TestFileGetSiteConfig tests merging of defaults and site entries.
func TestFileGetSiteConfig(t *testing.T) {
	t.Parallel()

	cf := &File{
		Defaults: SiteConfig{
			Cookie:      "age_verified=1",
			Headers:     map[string]string{"Accept-Language": "en"},
			Concurrency: 2,
		},
		Sites: map[string]SiteConfig{
			"youjizz": {
				Headers:        map[string]string{"Referer": "https://www.youjizz.com/"},
				MaxPages:       10,
				MaxItems:       100,
				Start:          "https://www.youjizz.com/newest-clips/40.html",
				IgnorePatterns: []string{"/videos/vr-*"},
			},
			"example": {
				Cookie:      "consent=yes",
				Concurrency: 8,
			},
		},
	}

	t.Run("unknown source gets defaults", func(t *testing.T) {
		t.Parallel()

		got := cf.GetSiteConfig("missing")
		if diff := cmp.Diff(cf.Defaults, got); diff != "" {
			t.Errorf("unexpected config (-want +got):\n%s", diff)
		}
	})

	t.Run("site entries override and merge", func(t *testing.T) {
		t.Parallel()

		want := SiteConfig{
			Cookie: "age_verified=1",
			Headers: map[string]string{
				"Accept-Language": "en",
				"Referer":         "https://www.youjizz.com/",
			},
			Concurrency:    2,
			MaxPages:       10,
			MaxItems:       100,
			Start:          "https://www.youjizz.com/newest-clips/40.html",
			IgnorePatterns: []string{"/videos/vr-*"},
		}
		if diff := cmp.Diff(want, cf.GetSiteConfig("youjizz")); diff != "" {
			t.Errorf("unexpected config (-want +got):\n%s", diff)
		}
	})

	t.Run("scalar overrides", func(t *testing.T) {
		t.Parallel()

		got := cf.GetSiteConfig("example")
		if got.Cookie != "consent=yes" || got.Concurrency != 8 {
			t.Errorf("unexpected config %+v", got)
		}
	})

	t.Run("defaults are not mutated", func(t *testing.T) {
		t.Parallel()

		_ = cf.GetSiteConfig("youjizz")
		if len(cf.Defaults.Headers) != 1 {
			t.Errorf("expected default headers untouched, got %v", cf.Defaults.Headers)
		}
	})
}

// TestConfigSite tests the lookup through Config.
func TestConfigSite(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()
	if got := cfg.Site("youjizz"); got.Cookie != "" || got.Headers != nil {
		t.Errorf("expected zero site config, got %+v", got)
	}

	cfg.SiteConfigs = &File{Defaults: SiteConfig{Cookie: "a=b"}}
	if got := cfg.Site("youjizz"); got.Cookie != "a=b" {
		t.Errorf("expected default cookie, got %+v", got)
	}
}

// TestLoadConfigFile tests the LoadConfigFile function.
func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("returns ErrConfigNotFound for non-existent file", func(t *testing.T) {
		t.Parallel()

		cfg, err := LoadConfigFile("/nonexistent/path/.pagewalk")
		if !errors.Is(err, ErrConfigNotFound) {
			t.Fatalf("expected ErrConfigNotFound, got: %v", err)
		}
		if cfg != nil {
			t.Error("expected nil config when file not found")
		}
	})

	t.Run("loads valid YAML config", func(t *testing.T) {
		t.Parallel()

		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, DefaultConfigFile)
		content := `defaults:
  cookie: "age_verified=1"
  concurrency: 2
sites:
  youjizz:
    maxPages: 5
    start: "https://www.youjizz.com/newest-clips/12.html"
    headers:
      Referer: "https://www.youjizz.com/"
    ignorePatterns:
      - "/videos/vr-*"
sourceFiles:
  - sources/mysite.yaml
  - /etc/pagewalk/other.yaml
`
		if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		cfg, err := LoadConfigFile(configPath)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Defaults.Cookie != "age_verified=1" || cfg.Defaults.Concurrency != 2 {
			t.Errorf("unexpected defaults %+v", cfg.Defaults)
		}

		site, ok := cfg.Sites["youjizz"]
		if !ok {
			t.Fatal("expected youjizz in sites")
		}
		if site.MaxPages != 5 || !strings.HasSuffix(site.Start, "/12.html") {
			t.Errorf("unexpected site %+v", site)
		}
		if site.Headers["Referer"] != "https://www.youjizz.com/" {
			t.Error("expected Referer header")
		}

		want := []string{
			filepath.Join(tmpDir, "sources", "mysite.yaml"),
			"/etc/pagewalk/other.yaml",
		}
		if diff := cmp.Diff(want, cfg.SourcePaths()); diff != "" {
			t.Errorf("unexpected source paths (-want +got):\n%s", diff)
		}
	})

	t.Run("returns error for invalid YAML", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), DefaultConfigFile)
		if err := os.WriteFile(configPath, []byte(`invalid: yaml: content: [}`), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}
		if _, err := LoadConfigFile(configPath); err == nil {
			t.Error("expected error for invalid YAML")
		}
	})

	t.Run("initializes nil Sites map", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), DefaultConfigFile)
		if err := os.WriteFile(configPath, []byte("defaults:\n  maxPages: 3\n"), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}
		cfg, err := LoadConfigFile(configPath)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Sites == nil {
			t.Error("expected Sites map to be initialized")
		}
	})
}

// TestFindConfigFile tests the FindConfigFile function.
func TestFindConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("returns explicit path if exists", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), "custom.yaml")
		if err := os.WriteFile(configPath, []byte("defaults: {}"), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}
		if got := FindConfigFile(configPath); got != configPath {
			t.Errorf("expected %q, got %q", configPath, got)
		}
	})

	t.Run("returns empty for non-existent explicit path", func(t *testing.T) {
		t.Parallel()

		if got := FindConfigFile("/nonexistent/path/config.yaml"); got != "" {
			t.Errorf("expected empty string, got %q", got)
		}
	})
}

// TestEnv tests .env parsing and environment overrides.
func TestEnv(t *testing.T) {
	t.Parallel()

	t.Run("loads env file", func(t *testing.T) {
		const name = "PAGEWALK_TEST_ENV_FILE"
		t.Cleanup(func() { _ = os.Unsetenv(name) })

		path := filepath.Join(t.TempDir(), DefaultEnvFile)
		if err := os.WriteFile(path, []byte(name+"=loaded\n"), 0600); err != nil {
			t.Fatalf("failed to write env file: %v", err)
		}
		if err := LoadEnv(path); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := os.Getenv(name); got != "loaded" {
			t.Errorf("expected variable from env file, got %q", got)
		}
	})

	t.Run("missing env file is ignored", func(t *testing.T) {
		t.Parallel()

		if err := LoadEnv(filepath.Join(t.TempDir(), "missing.env")); err != nil {
			t.Errorf("expected missing file to be ignored, got %v", err)
		}
	})

	t.Run("environment fills empty fields only", func(t *testing.T) {
		t.Parallel()

		env := map[string]string{
			EnvAPIKey:   "from-env",
			EnvEndpoint: "https://env.example.com/graphql",
			EnvProxy:    "127.0.0.1:9050",
		}
		lookup := func(key string) (string, bool) {
			v, ok := env[key]
			return v, ok
		}

		cfg := NewConfig()
		cfg.Endpoint = "https://flag.example.com/graphql"
		cfg.applyEnv(lookup)

		if cfg.APIKey != "from-env" {
			t.Errorf("expected API key from env, got %q", cfg.APIKey)
		}
		if cfg.Endpoint != "https://flag.example.com/graphql" {
			t.Errorf("expected flag endpoint to win, got %q", cfg.Endpoint)
		}
		if cfg.ProxyAddress != "127.0.0.1:9050" {
			t.Errorf("expected proxy from env, got %q", cfg.ProxyAddress)
		}
	})
}

// TestXDGDirs tests XDG directory functions.
func TestXDGDirs(t *testing.T) {
	t.Parallel()

	if !strings.HasSuffix(XDGDataDir(), AppName) {
		t.Errorf("unexpected data dir %q", XDGDataDir())
	}
	if !strings.HasSuffix(XDGConfigDir(), AppName) {
		t.Errorf("unexpected config dir %q", XDGConfigDir())
	}
	if filepath.Dir(SourcesDir()) != XDGConfigDir() {
		t.Errorf("expected sources dir below config dir, got %q", SourcesDir())
	}
}
