package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"

	"github.com/xydata/oracle/indexer"
	"github.com/xydata/oracle/server"
	"github.com/xydata/oracle/types"
)

const (
	configDir    = "config"
	dataDir      = "data"
	configFile   = "config.toml"
	genesisFile  = "genesis.json"
	envPrefix    = "XYDATA"
	dbName       = "application"
	defaultLevel = "info"
)

// Config is the node configuration file.
type Config struct {
	ChainID   string        `mapstructure:"chain-id" toml:"chain-id"`
	LogLevel  string        `mapstructure:"log-level" toml:"log-level"`
	DBBackend string        `mapstructure:"db-backend" toml:"db-backend"`
	API       server.Config `mapstructure:"api" toml:"api"`
	Indexer   IndexerConfig `mapstructure:"indexer" toml:"indexer"`
}

// IndexerConfig enables the Postgres read model.
type IndexerConfig struct {
	Enable         bool   `mapstructure:"enable" toml:"enable"`
	DSN            string `mapstructure:"dsn" toml:"dsn"`
	ResyncSchedule string `mapstructure:"resync-schedule" toml:"resync-schedule"`
}

func DefaultConfig() Config {
	return Config{
		ChainID:   types.DefaultChainID,
		LogLevel:  defaultLevel,
		DBBackend: "goleveldb",
		API:       server.DefaultConfig(),
		Indexer: IndexerConfig{
			ResyncSchedule: indexer.DefaultResyncSchedule,
		},
	}
}

func configPath(home string) string {
	return filepath.Join(home, configDir, configFile)
}

func genesisPath(home string) string {
	return filepath.Join(home, configDir, genesisFile)
}

// WriteConfigFile writes cfg as TOML.
func WriteConfigFile(path string, cfg Config) error {
	bz, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, bz, 0o644)
}

// LoadConfig reads <home>/config/config.toml, applying XYDATA_ environment
// overrides such as XYDATA_API_ADDRESS.
func LoadConfig(home string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath(home))
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	defaults := DefaultConfig()
	v.SetDefault("chain-id", defaults.ChainID)
	v.SetDefault("log-level", defaults.LogLevel)
	v.SetDefault("db-backend", defaults.DBBackend)
	v.SetDefault("api.address", defaults.API.Address)
	v.SetDefault("api.allowed-origins", defaults.API.AllowedOrigins)
	v.SetDefault("api.read-timeout", defaults.API.ReadTimeout)
	v.SetDefault("api.write-timeout", defaults.API.WriteTimeout)
	v.SetDefault("api.enable-metrics", defaults.API.EnableMetrics)
	v.SetDefault("indexer.enable", false)
	v.SetDefault("indexer.dsn", "")
	v.SetDefault("indexer.resync-schedule", defaults.Indexer.ResyncSchedule)

	if err := v.ReadInConfig(); err != nil {
		if !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}
