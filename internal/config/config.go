package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/hoanghai1803/tweetgen/internal/models"
)

// DefaultPath is the config file read when --config is not given. It is
// optional: a missing file at this path just means "use defaults".
const DefaultPath = "tweetgen.toml"

// Config holds all application configuration.
type Config struct {
	AI        AIConfig        `toml:"ai"`
	Warehouse WarehouseConfig `toml:"warehouse"`
	Grounding QueryConfig     `toml:"grounding"`
	Recency   QueryConfig     `toml:"recency"`
	Feeds     FeedsConfig     `toml:"feeds"`
	Output    OutputConfig    `toml:"output"`
}

// AIConfig holds generation service settings. The API key only ever comes
// from the environment.
type AIConfig struct {
	Provider         string  `toml:"provider"`
	APIKey           string  `toml:"-"`
	Model            string  `toml:"model"`
	BaseURL          string  `toml:"base_url"`
	Temperature      float64 `toml:"temperature"`
	MaxTokensPerItem int     `toml:"max_tokens_per_item"`
	TimeoutSeconds   int     `toml:"timeout_seconds"`
}

// WarehouseConfig holds connection parameters for the sample warehouse.
// Credentials and locators come from SNOWFLAKE_* environment variables.
type WarehouseConfig struct {
	Driver string `toml:"driver"` // "snowflake" | "sqlite"
	Role   string `toml:"role"`
	Path   string `toml:"path"` // sqlite only

	User      string `toml:"-"`
	Password  string `toml:"-"`
	Account   string `toml:"-"`
	Warehouse string `toml:"-"`
	Database  string `toml:"-"`
	Schema    string `toml:"-"`
}

// QueryConfig selects which authors' posts make up a sample set.
type QueryConfig struct {
	Authors []string `toml:"authors"`
	Limit   int      `toml:"limit"`
}

// FeedsConfig lists RSS/Atom feeds whose items are appended to the recency set.
type FeedsConfig struct {
	URLs            []string `toml:"urls"`
	MaxItemsPerFeed int      `toml:"max_items_per_feed"`
}

// OutputConfig controls where and how many posts are written.
type OutputConfig struct {
	Path     string `toml:"path"`
	NumItems int    `toml:"num_items"`
}

// Options tells Load where to read the file from and which command-line
// values were explicitly set. Nil overrides leave the file/default value.
type Options struct {
	Path         string
	PathRequired bool
	OutputPath   *string
	NumItems     *int
}

// Environment variables that must all be present.
const (
	EnvOpenAIKey          = "OPENAI_API_KEY"
	EnvSnowflakeUser      = "SNOWFLAKE_USER"
	EnvSnowflakePassword  = "SNOWFLAKE_PASSWORD"
	EnvSnowflakeAccount   = "SNOWFLAKE_ACCOUNT"
	EnvSnowflakeWarehouse = "SNOWFLAKE_WAREHOUSE"
	EnvSnowflakeDatabase  = "SNOWFLAKE_DATABASE"
	EnvSnowflakeSchema    = "SNOWFLAKE_SCHEMA"
)

const (
	DriverSnowflake = "snowflake"
	DriverSQLite    = "sqlite"
)

// Load builds the configuration from defaults, the optional TOML file, the
// environment and finally the command-line overrides, in that order of
// priority. Every failure wraps models.ErrConfiguration.
func Load(opts Options) (*Config, error) {
	var (
		cfg Config
		md  toml.MetaData
	)

	if opts.Path != "" {
		data, err := os.ReadFile(opts.Path)
		switch {
		case errors.Is(err, fs.ErrNotExist) && !opts.PathRequired:
			slog.Debug("no config file, using defaults", "path", opts.Path)
		case err != nil:
			return nil, fmt.Errorf("%w: reading config file: %w", models.ErrConfiguration, err)
		default:
			md, err = toml.Decode(string(data), &cfg)
			if err != nil {
				return nil, fmt.Errorf("%w: parsing config file: %w", models.ErrConfiguration, err)
			}
		}
	}

	applyDefaults(&cfg, md)
	applyEnvOverrides(&cfg)

	if opts.OutputPath != nil {
		cfg.Output.Path = *opts.OutputPath
	}
	if opts.NumItems != nil {
		cfg.Output.NumItems = *opts.NumItems
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrConfiguration, err)
	}

	return &cfg, nil
}

// LoadDotEnv loads KEY=VALUE pairs from a .env file into the process
// environment without overriding variables that are already set. A missing
// file is not an error.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("%w: loading %s: %w", models.ErrConfiguration, path, err)
	}
	slog.Debug("loaded environment file", "path", path)
	return nil
}

// applyDefaults sets default values for any zero-valued fields. Fields where
// zero is meaningful are only defaulted when the file did not define them.
func applyDefaults(cfg *Config, md toml.MetaData) {
	if cfg.AI.Provider == "" {
		cfg.AI.Provider = "openai"
	}
	if cfg.AI.Model == "" {
		cfg.AI.Model = "gpt-4o"
	}
	if !md.IsDefined("ai", "temperature") {
		cfg.AI.Temperature = 0.8
	}
	if cfg.AI.MaxTokensPerItem == 0 {
		cfg.AI.MaxTokensPerItem = 150
	}
	if cfg.AI.TimeoutSeconds == 0 {
		cfg.AI.TimeoutSeconds = 120
	}

	if cfg.Warehouse.Driver == "" {
		cfg.Warehouse.Driver = DriverSnowflake
	}

	if !md.IsDefined("grounding", "authors") {
		cfg.Grounding.Authors = []string{"SquadsProtocol", "Carlos_0x", "SimkinStepan"}
	}
	if cfg.Grounding.Limit == 0 {
		cfg.Grounding.Limit = 100
	}
	if !md.IsDefined("recency", "authors") {
		cfg.Recency.Authors = []string{"sytaylor", "chuk_xyz"}
	}
	if cfg.Recency.Limit == 0 {
		cfg.Recency.Limit = 500
	}

	if cfg.Feeds.MaxItemsPerFeed == 0 {
		cfg.Feeds.MaxItemsPerFeed = 20
	}

	if cfg.Output.Path == "" {
		cfg.Output.Path = "generated_tweets.csv"
	}
	if !md.IsDefined("output", "num_items") {
		cfg.Output.NumItems = 5
	}
}

// applyEnvOverrides copies credentials from the environment. Values are
// passed through verbatim.
func applyEnvOverrides(cfg *Config) {
	cfg.AI.APIKey = os.Getenv(EnvOpenAIKey)

	cfg.Warehouse.User = os.Getenv(EnvSnowflakeUser)
	cfg.Warehouse.Password = os.Getenv(EnvSnowflakePassword)
	cfg.Warehouse.Account = os.Getenv(EnvSnowflakeAccount)
	cfg.Warehouse.Warehouse = os.Getenv(EnvSnowflakeWarehouse)
	cfg.Warehouse.Database = os.Getenv(EnvSnowflakeDatabase)
	cfg.Warehouse.Schema = os.Getenv(EnvSnowflakeSchema)
}

// validate performs presence checks on credentials and sanity checks on the
// few numeric settings.
func validate(cfg *Config) error {
	if cfg.AI.Provider != "openai" {
		return fmt.Errorf("invalid ai.provider %q: must be \"openai\"", cfg.AI.Provider)
	}

	switch cfg.Warehouse.Driver {
	case DriverSnowflake, DriverSQLite:
	default:
		return fmt.Errorf("invalid warehouse.driver %q: must be \"snowflake\" or \"sqlite\"", cfg.Warehouse.Driver)
	}

	missing := missingCredentials(cfg)
	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	if cfg.Warehouse.Driver == DriverSQLite && cfg.Warehouse.Path == "" {
		return errors.New("warehouse.path is required when warehouse.driver is \"sqlite\"")
	}

	if cfg.Output.Path == "" {
		return errors.New("output path must not be empty")
	}
	if cfg.Output.NumItems < 1 {
		return fmt.Errorf("invalid number of tweets %d: must be >= 1", cfg.Output.NumItems)
	}

	if err := validateQuery("grounding", cfg.Grounding); err != nil {
		return err
	}
	if err := validateQuery("recency", cfg.Recency); err != nil {
		return err
	}

	if cfg.AI.MaxTokensPerItem < 1 {
		return fmt.Errorf("invalid ai.max_tokens_per_item %d: must be >= 1", cfg.AI.MaxTokensPerItem)
	}
	if cfg.AI.TimeoutSeconds < 0 {
		return fmt.Errorf("invalid ai.timeout_seconds %d: must be >= 0", cfg.AI.TimeoutSeconds)
	}

	return nil
}

func validateQuery(name string, q QueryConfig) error {
	if len(q.Authors) == 0 {
		return fmt.Errorf("%s.authors must not be empty", name)
	}
	if q.Limit < 1 {
		return fmt.Errorf("invalid %s.limit %d: must be >= 1", name, q.Limit)
	}
	return nil
}

// missingCredentials lists the required environment variables that are
// empty, in a stable order. The SNOWFLAKE_* set is only required for the
// snowflake driver.
func missingCredentials(cfg *Config) []string {
	type required struct {
		env   string
		value string
	}
	checks := []required{{EnvOpenAIKey, cfg.AI.APIKey}}

	if cfg.Warehouse.Driver == DriverSnowflake {
		checks = append(checks,
			required{EnvSnowflakeUser, cfg.Warehouse.User},
			required{EnvSnowflakePassword, cfg.Warehouse.Password},
			required{EnvSnowflakeAccount, cfg.Warehouse.Account},
			required{EnvSnowflakeWarehouse, cfg.Warehouse.Warehouse},
			required{EnvSnowflakeDatabase, cfg.Warehouse.Database},
			required{EnvSnowflakeSchema, cfg.Warehouse.Schema},
		)
	}

	var missing []string
	for _, c := range checks {
		if c.value == "" {
			missing = append(missing, c.env)
		}
	}
	return missing
}
