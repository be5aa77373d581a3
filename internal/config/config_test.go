package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/hoanghai1803/tweetgen/internal/models"
)

var requiredEnv = []string{
	EnvOpenAIKey,
	EnvSnowflakeUser,
	EnvSnowflakePassword,
	EnvSnowflakeAccount,
	EnvSnowflakeWarehouse,
	EnvSnowflakeDatabase,
	EnvSnowflakeSchema,
}

// setRequiredEnv sets every required environment variable to a value derived
// from its name.
func setRequiredEnv(t *testing.T) {
	t.Helper()
	for _, name := range requiredEnv {
		t.Setenv(name, strings.ToLower(name)+"-value")
	}
}

// writeTestConfig is a helper that writes a TOML config file to a temp directory
// and returns its path.
func writeTestConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "tweetgen.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing test config: %v", err)
	}
	return path
}

func TestLoad_DefaultsApplied(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load(Options{Path: filepath.Join(t.TempDir(), "missing.toml")})
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}

	if cfg.Output.Path != "generated_tweets.csv" {
		t.Errorf("Output.Path = %q, want %q", cfg.Output.Path, "generated_tweets.csv")
	}
	if cfg.Output.NumItems != 5 {
		t.Errorf("Output.NumItems = %d, want %d", cfg.Output.NumItems, 5)
	}
	if cfg.AI.Model != "gpt-4o" {
		t.Errorf("AI.Model = %q, want %q", cfg.AI.Model, "gpt-4o")
	}
	if cfg.AI.Temperature != 0.8 {
		t.Errorf("AI.Temperature = %v, want %v", cfg.AI.Temperature, 0.8)
	}
	if cfg.AI.MaxTokensPerItem != 150 {
		t.Errorf("AI.MaxTokensPerItem = %d, want %d", cfg.AI.MaxTokensPerItem, 150)
	}
	if cfg.Warehouse.Driver != DriverSnowflake {
		t.Errorf("Warehouse.Driver = %q, want %q", cfg.Warehouse.Driver, DriverSnowflake)
	}
	if diff := cmp.Diff([]string{"SquadsProtocol", "Carlos_0x", "SimkinStepan"}, cfg.Grounding.Authors); diff != "" {
		t.Errorf("Grounding.Authors mismatch (-want +got):\n%s", diff)
	}
	if cfg.Grounding.Limit != 100 {
		t.Errorf("Grounding.Limit = %d, want %d", cfg.Grounding.Limit, 100)
	}
	if diff := cmp.Diff([]string{"sytaylor", "chuk_xyz"}, cfg.Recency.Authors); diff != "" {
		t.Errorf("Recency.Authors mismatch (-want +got):\n%s", diff)
	}
	if cfg.Recency.Limit != 500 {
		t.Errorf("Recency.Limit = %d, want %d", cfg.Recency.Limit, 500)
	}
}

func TestLoad_CredentialsFromEnv(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load(Options{})
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}

	got := map[string]string{
		EnvOpenAIKey:          cfg.AI.APIKey,
		EnvSnowflakeUser:      cfg.Warehouse.User,
		EnvSnowflakePassword:  cfg.Warehouse.Password,
		EnvSnowflakeAccount:   cfg.Warehouse.Account,
		EnvSnowflakeWarehouse: cfg.Warehouse.Warehouse,
		EnvSnowflakeDatabase:  cfg.Warehouse.Database,
		EnvSnowflakeSchema:    cfg.Warehouse.Schema,
	}
	for name, value := range got {
		if want := strings.ToLower(name) + "-value"; value != want {
			t.Errorf("%s = %q, want %q", name, value, want)
		}
	}
}

func TestLoad_MissingCredential(t *testing.T) {
	for _, name := range requiredEnv {
		t.Run(name, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv(name, "")

			_, err := Load(Options{})
			if err == nil {
				t.Fatalf("Load() expected error with %s unset, got nil", name)
			}
			if !errors.Is(err, models.ErrConfiguration) {
				t.Errorf("Load() error = %v, want ErrConfiguration", err)
			}
			if !strings.Contains(err.Error(), name) {
				t.Errorf("Load() error %q should name %s", err, name)
			}
		})
	}
}

func TestLoad_MissingCredentials_AllListed(t *testing.T) {
	for _, name := range requiredEnv {
		t.Setenv(name, "")
	}

	_, err := Load(Options{})
	if err == nil {
		t.Fatal("Load() expected error with no credentials, got nil")
	}
	for _, name := range requiredEnv {
		if !strings.Contains(err.Error(), name) {
			t.Errorf("Load() error %q should name %s", err, name)
		}
	}
}

func TestLoad_ValidConfig(t *testing.T) {
	setRequiredEnv(t)
	content := `
[ai]
model = "gpt-4o-mini"
base_url = "http://localhost:8080/v1/"
temperature = 0.0
max_tokens_per_item = 80
timeout_seconds = 30

[warehouse]
role = "ANALYST"

[grounding]
authors = ["alice"]
limit = 10

[recency]
authors = ["bob", "carol"]
limit = 20

[feeds]
urls = ["https://example.com/feed.xml"]
max_items_per_feed = 3

[output]
path = "out/tweets.csv"
num_items = 12
`
	path := writeTestConfig(t, content)

	cfg, err := Load(Options{Path: path, PathRequired: true})
	if err != nil {
		t.Fatalf("Load(%q) unexpected error: %v", path, err)
	}

	if cfg.AI.Model != "gpt-4o-mini" {
		t.Errorf("AI.Model = %q, want %q", cfg.AI.Model, "gpt-4o-mini")
	}
	if cfg.AI.BaseURL != "http://localhost:8080/v1/" {
		t.Errorf("AI.BaseURL = %q, want %q", cfg.AI.BaseURL, "http://localhost:8080/v1/")
	}
	if cfg.AI.Temperature != 0 {
		t.Errorf("AI.Temperature = %v, want explicit 0", cfg.AI.Temperature)
	}
	if cfg.AI.MaxTokensPerItem != 80 {
		t.Errorf("AI.MaxTokensPerItem = %d, want %d", cfg.AI.MaxTokensPerItem, 80)
	}
	if cfg.AI.TimeoutSeconds != 30 {
		t.Errorf("AI.TimeoutSeconds = %d, want %d", cfg.AI.TimeoutSeconds, 30)
	}
	if cfg.Warehouse.Role != "ANALYST" {
		t.Errorf("Warehouse.Role = %q, want %q", cfg.Warehouse.Role, "ANALYST")
	}
	if diff := cmp.Diff(QueryConfig{Authors: []string{"alice"}, Limit: 10}, cfg.Grounding); diff != "" {
		t.Errorf("Grounding mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(QueryConfig{Authors: []string{"bob", "carol"}, Limit: 20}, cfg.Recency); diff != "" {
		t.Errorf("Recency mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(FeedsConfig{URLs: []string{"https://example.com/feed.xml"}, MaxItemsPerFeed: 3}, cfg.Feeds); diff != "" {
		t.Errorf("Feeds mismatch (-want +got):\n%s", diff)
	}
	if cfg.Output.Path != "out/tweets.csv" {
		t.Errorf("Output.Path = %q, want %q", cfg.Output.Path, "out/tweets.csv")
	}
	if cfg.Output.NumItems != 12 {
		t.Errorf("Output.NumItems = %d, want %d", cfg.Output.NumItems, 12)
	}
}

func TestLoad_FlagOverrides(t *testing.T) {
	setRequiredEnv(t)
	path := writeTestConfig(t, `
[output]
path = "from-file.csv"
num_items = 9
`)

	output := "from-flag.csv"
	numItems := 3
	cfg, err := Load(Options{Path: path, OutputPath: &output, NumItems: &numItems})
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}

	if cfg.Output.Path != "from-flag.csv" {
		t.Errorf("Output.Path = %q, want %q (flag should override file)", cfg.Output.Path, "from-flag.csv")
	}
	if cfg.Output.NumItems != 3 {
		t.Errorf("Output.NumItems = %d, want %d (flag should override file)", cfg.Output.NumItems, 3)
	}
}

func TestLoad_CredentialsNotReadFromFile(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv(EnvOpenAIKey, "")
	path := writeTestConfig(t, `
[ai]
api_key = "sk-from-file"
`)

	_, err := Load(Options{Path: path})
	if !errors.Is(err, models.ErrConfiguration) {
		t.Fatalf("Load() error = %v, want ErrConfiguration (api key must come from the environment)", err)
	}
}

func TestLoad_ExplicitMissingFile(t *testing.T) {
	setRequiredEnv(t)

	_, err := Load(Options{Path: filepath.Join(t.TempDir(), "nope.toml"), PathRequired: true})
	if !errors.Is(err, models.ErrConfiguration) {
		t.Fatalf("Load() error = %v, want ErrConfiguration", err)
	}
}

func TestLoad_MalformedFile(t *testing.T) {
	setRequiredEnv(t)
	path := writeTestConfig(t, "[output\npath = ")

	_, err := Load(Options{Path: path})
	if !errors.Is(err, models.ErrConfiguration) {
		t.Fatalf("Load() error = %v, want ErrConfiguration", err)
	}
}

func TestLoad_SQLiteDriver(t *testing.T) {
	for _, name := range requiredEnv {
		t.Setenv(name, "")
	}
	t.Setenv(EnvOpenAIKey, "sk-test")

	t.Run("path set", func(t *testing.T) {
		path := writeTestConfig(t, `
[warehouse]
driver = "sqlite"
path = "mirror.db"
`)
		cfg, err := Load(Options{Path: path})
		if err != nil {
			t.Fatalf("Load() unexpected error: %v (snowflake vars are not required for sqlite)", err)
		}
		if cfg.Warehouse.Path != "mirror.db" {
			t.Errorf("Warehouse.Path = %q, want %q", cfg.Warehouse.Path, "mirror.db")
		}
	})

	t.Run("path missing", func(t *testing.T) {
		path := writeTestConfig(t, `
[warehouse]
driver = "sqlite"
`)
		if _, err := Load(Options{Path: path}); !errors.Is(err, models.ErrConfiguration) {
			t.Fatalf("Load() error = %v, want ErrConfiguration", err)
		}
	})
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "zero tweets", content: "[output]\nnum_items = 0\n"},
		{name: "negative tweets", content: "[output]\nnum_items = -2\n"},
		{name: "unknown driver", content: "[warehouse]\ndriver = \"postgres\"\n"},
		{name: "unknown provider", content: "[ai]\nprovider = \"gemini\"\n"},
		{name: "empty grounding authors", content: "[grounding]\nauthors = []\n"},
		{name: "negative recency limit", content: "[recency]\nlimit = -1\n"},
		{name: "negative timeout", content: "[ai]\ntimeout_seconds = -5\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequiredEnv(t)
			path := writeTestConfig(t, tt.content)

			_, err := Load(Options{Path: path})
			if err == nil {
				t.Fatalf("Load() expected error for %s, got nil", tt.name)
			}
			if !errors.Is(err, models.ErrConfiguration) {
				t.Errorf("Load() error = %v, want ErrConfiguration", err)
			}
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	const key = "TWEETGEN_DOTENV_TEST"
	t.Cleanup(func() { os.Unsetenv(key) })
	os.Unsetenv(key)

	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte(key+"=from-dotenv\n"), 0o644); err != nil {
		t.Fatalf("writing .env: %v", err)
	}

	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("LoadDotEnv() unexpected error: %v", err)
	}
	if got := os.Getenv(key); got != "from-dotenv" {
		t.Errorf("%s = %q, want %q", key, got, "from-dotenv")
	}
}

func TestLoadDotEnv_DoesNotOverride(t *testing.T) {
	const key = "TWEETGEN_DOTENV_KEEP"
	t.Setenv(key, "from-shell")

	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte(key+"=from-dotenv\n"), 0o644); err != nil {
		t.Fatalf("writing .env: %v", err)
	}

	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("LoadDotEnv() unexpected error: %v", err)
	}
	if got := os.Getenv(key); got != "from-shell" {
		t.Errorf("%s = %q, want %q (existing variables win)", key, got, "from-shell")
	}
}

func TestLoadDotEnv_MissingFile(t *testing.T) {
	if err := LoadDotEnv(filepath.Join(t.TempDir(), ".env")); err != nil {
		t.Fatalf("LoadDotEnv() error = %v, want nil for missing file", err)
	}
}
