package config

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

const (
	_envPrefix    = "FILESHARE"
	_envDelimiter = "__"
)

// Config represents the fileshare configuration.
type Config struct {
	Database *Database
	GraphQL  *GraphQL
	Log      *Log
}

type Database struct {
	Driver string
	DSN    string
}

// GraphQL holds the paging settings of the query API.
type GraphQL struct {
	DefaultPageSize int
	PaginationLimit int
	// CursorSecret signs cursors when set.
	CursorSecret string
}

type Log struct {
	Level  string
	Format string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "file::memory:")
	v.SetDefault("graphql.default_page_size", 10)
	v.SetDefault("graphql.pagination_limit", 100)
	v.SetDefault("graphql.cursor_secret", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Load reads the configuration from path, when given, and from FILESHARE_
// environment variables, e.g. FILESHARE_GRAPHQL__PAGINATION_LIMIT.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(_envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", _envDelimiter))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "failed to read config file %s", path)
		}
	}

	cfg := &Config{
		Database: &Database{
			Driver: v.GetString("database.driver"),
			DSN:    v.GetString("database.dsn"),
		},
		GraphQL: &GraphQL{
			DefaultPageSize: v.GetInt("graphql.default_page_size"),
			PaginationLimit: v.GetInt("graphql.pagination_limit"),
			CursorSecret:    v.GetString("graphql.cursor_secret"),
		},
		Log: &Log{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "mysql", "sqlite":
	default:
		return errors.Errorf("unsupported database driver %q", c.Database.Driver)
	}

	if c.GraphQL.DefaultPageSize <= 0 || c.GraphQL.DefaultPageSize > c.GraphQL.PaginationLimit {
		return errors.Errorf(
			"default page size must be between 1 and the pagination limit (%d), got %d",
			c.GraphQL.PaginationLimit, c.GraphQL.DefaultPageSize,
		)
	}

	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return errors.Wrap(err, "invalid log level")
	}

	switch c.Log.Format {
	case "text", "json":
	default:
		return errors.Errorf("unsupported log format %q", c.Log.Format)
	}

	return nil
}
