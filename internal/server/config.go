package server

import (
	"context"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/slidesmith/slidesmith/pkg/plan"
)

// Config is the TOML service configuration.
//
//	[server]
//	addr = ":8080"
//
//	[store]
//	backend = "memory"        # memory, redis, mongo
//	redis_addr = "localhost:6379"
//	mongo_uri = "mongodb://localhost:27017"
//	mongo_database = "slidesmith"
//	mongo_collection = "usage"
//
//	[ai]
//	api_key = ""              # empty disables the AI strategy
//	model = ""                # default gpt-4o-mini
//
//	[deck]
//	output_dir = "generated"
//	theme = "corporate"
type Config struct {
	Server struct {
		Addr string `toml:"addr"`
	} `toml:"server"`
	Store struct {
		Backend         string `toml:"backend"`
		RedisAddr       string `toml:"redis_addr"`
		MongoURI        string `toml:"mongo_uri"`
		MongoDatabase   string `toml:"mongo_database"`
		MongoCollection string `toml:"mongo_collection"`
	} `toml:"store"`
	AI struct {
		APIKey string `toml:"api_key"`
		Model  string `toml:"model"`
	} `toml:"ai"`
	Deck struct {
		OutputDir string `toml:"output_dir"`
		Theme     string `toml:"theme"`
	} `toml:"deck"`
}

// LoadConfig reads a TOML config file and applies defaults. An empty
// path returns the defaults alone.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := toml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Store.Backend == "" {
		c.Store.Backend = "memory"
	}
	if c.Store.RedisAddr == "" {
		c.Store.RedisAddr = "localhost:6379"
	}
	if c.Store.MongoURI == "" {
		c.Store.MongoURI = "mongodb://localhost:27017"
	}
	if c.Store.MongoDatabase == "" {
		c.Store.MongoDatabase = "slidesmith"
	}
	if c.Store.MongoCollection == "" {
		c.Store.MongoCollection = "usage"
	}
	if c.Deck.OutputDir == "" {
		c.Deck.OutputDir = "generated"
	}
	if c.Deck.Theme == "" {
		c.Deck.Theme = "corporate"
	}
}

func (c *Config) validate() error {
	switch c.Store.Backend {
	case "memory", "redis", "mongo":
		return nil
	default:
		return fmt.Errorf("unknown store backend %q (expected memory, redis or mongo)", c.Store.Backend)
	}
}

// BuildStore connects the configured usage store.
func (c *Config) BuildStore(ctx context.Context) (plan.Store, error) {
	switch c.Store.Backend {
	case "redis":
		store := plan.NewRedisStore(c.Store.RedisAddr)
		if err := store.Ping(ctx); err != nil {
			return nil, fmt.Errorf("redis at %s: %w", c.Store.RedisAddr, err)
		}
		return store, nil
	case "mongo":
		return plan.NewMongoStore(ctx, c.Store.MongoURI, c.Store.MongoDatabase, c.Store.MongoCollection)
	default:
		return plan.NewMemoryStore(), nil
	}
}
