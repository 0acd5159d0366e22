package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sync"
	"time"

	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/pelletier/go-toml/v2"

	"github.com/xydata/oracle/crypto/ethsecp256k1"
	"github.com/xydata/oracle/oracle/log"
)

const fileName = "config.toml"

var (
	globalConfig configData
	home         string
	mu           sync.RWMutex
)

type configData struct {
	Node   nodeConfig   `toml:"node"`
	Key    keyConfig    `toml:"key"`
	Worker workerConfig `toml:"worker"`
	Fetch  fetchConfig  `toml:"fetch"`
	Retry  retryConfig  `toml:"retry"`
	Resync resyncConfig `toml:"resync"`
	Health healthConfig `toml:"health"`
	Feeds  []Feed       `toml:"feeds"`
}

type nodeConfig struct {
	ChainID  string `toml:"chain_id"`
	Endpoint string `toml:"endpoint"`
	Timeout  string `toml:"timeout"`
}

type keyConfig struct {
	Name string `toml:"name"`
	Dir  string `toml:"dir"`
}

type workerConfig struct {
	Count     int `toml:"count"`
	QueueSize int `toml:"queue_size"`
}

type fetchConfig struct {
	Timeout   string `toml:"timeout"`
	RateLimit int    `toml:"rate_limit"`
	CacheTTL  string `toml:"cache_ttl"`
}

type retryConfig struct {
	MaxInterval    string `toml:"max_interval"`
	MaxElapsedTime string `toml:"max_elapsed_time"`
}

type resyncConfig struct {
	Schedule string `toml:"schedule"`
}

type healthConfig struct {
	Interval string `toml:"interval"`
	Listen   string `toml:"listen"`
}

// Feed tells the daemon where to observe one data type. Path is a gjson path
// into the response and Decimals scales the decimal value to an integer.
type Feed struct {
	DataType string `toml:"data_type"`
	URL      string `toml:"url"`
	Path     string `toml:"path"`
	Decimals uint32 `toml:"decimals"`
}

func defaultConfig(home string) configData {
	return configData{
		Node: nodeConfig{
			ChainID:  "xydata-1",
			Endpoint: "http://127.0.0.1:1317",
			Timeout:  "10s",
		},
		Key: keyConfig{
			Name: "oracle",
			Dir:  filepath.Join(home, "keys"),
		},
		Worker: workerConfig{
			Count:     4,
			QueueSize: 1 << 10,
		},
		Fetch: fetchConfig{
			Timeout:   "10s",
			RateLimit: 5,
			CacheTTL:  "15s",
		},
		Retry: retryConfig{
			MaxInterval:    "10s",
			MaxElapsedTime: "1m",
		},
		Resync: resyncConfig{
			Schedule: "@every 1m",
		},
		Health: healthConfig{
			Interval: "30s",
			Listen:   "127.0.0.1:26680",
		},
		Feeds: []Feed{{
			DataType: "SOL/USD",
			URL:      "https://api.coingecko.com/api/v3/simple/price?ids=solana&vs_currencies=usd",
			Path:     "solana.usd",
			Decimals: 2,
		}},
	}
}

// Load reads <home>/config.toml, writing the defaults first when it is missing.
func Load(oracleHome string) error {
	path := filepath.Join(oracleHome, fileName)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := createDefaultConfig(oracleHome, path); err != nil {
			return fmt.Errorf("failed to create default config: %w", err)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg configData
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("failed to parse TOML: %w", err)
	}
	if err := validateConfig(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	mu.Lock()
	globalConfig = cfg
	home = oracleHome
	mu.Unlock()

	log.Infof("Loaded config from %s", path)
	return nil
}

// DefaultHome is ~/.oracled.
func DefaultHome() string {
	osHome, err := os.UserHomeDir()
	if err != nil {
		return ".oracled"
	}
	return filepath.Join(osHome, ".oracled")
}

func createDefaultConfig(oracleHome, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	data, err := toml.Marshal(defaultConfig(oracleHome))
	if err != nil {
		return fmt.Errorf("failed to marshal TOML: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func validateConfig(cfg configData) error {
	if cfg.Node.ChainID == "" {
		return fmt.Errorf("chain ID is required")
	}

	if cfg.Node.Endpoint == "" {
		return fmt.Errorf("node endpoint is required")
	}

	if cfg.Key.Name == "" {
		return fmt.Errorf("key name is required")
	}

	if cfg.Key.Dir == "" {
		return fmt.Errorf("key directory is required")
	}

	if cfg.Worker.Count <= 0 {
		return fmt.Errorf("worker count must be positive")
	}

	if cfg.Worker.QueueSize <= 0 {
		return fmt.Errorf("worker queue size must be positive")
	}

	if cfg.Fetch.RateLimit <= 0 {
		return fmt.Errorf("fetch rate limit must be positive")
	}

	for name, value := range map[string]string{
		"node timeout":    cfg.Node.Timeout,
		"fetch timeout":   cfg.Fetch.Timeout,
		"cache ttl":       cfg.Fetch.CacheTTL,
		"retry interval":  cfg.Retry.MaxInterval,
		"retry elapsed":   cfg.Retry.MaxElapsedTime,
		"health interval": cfg.Health.Interval,
	} {
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid %s %q: %w", name, value, err)
		}
	}

	if cfg.Health.Listen != "" {
		if _, _, err := net.SplitHostPort(cfg.Health.Listen); err != nil {
			return fmt.Errorf("invalid health listen address %q: %w", cfg.Health.Listen, err)
		}
	}

	if cfg.Resync.Schedule == "" {
		return fmt.Errorf("resync schedule is required")
	}

	seen := make(map[string]bool)
	for _, feed := range cfg.Feeds {
		if feed.DataType == "" || feed.URL == "" || feed.Path == "" {
			return fmt.Errorf("feed %q needs data_type, url and path", feed.DataType)
		}
		if seen[feed.DataType] {
			return fmt.Errorf("duplicate feed %q", feed.DataType)
		}
		if feed.Decimals > 18 {
			return fmt.Errorf("feed %q decimals %d exceed 18", feed.DataType, feed.Decimals)
		}
		seen[feed.DataType] = true
	}

	return nil
}

func get() configData {
	mu.RLock()
	defer mu.RUnlock()
	return globalConfig
}

func duration(value string) time.Duration {
	d, _ := time.ParseDuration(value)
	return d
}

func Print() {
	log.Infof("%-15s: %s", "Home", Home())
	log.Infof("%-15s: %s", "Chain ID", ChainID())
	log.Infof("%-15s: %s", "Node Endpoint", Endpoint())
	log.Infof("%-15s: %s", "Key Name", KeyName())
	log.Infof("%-15s: %s", "Key Dir", KeyDir())
	log.Infof("%-15s: %d", "Workers", Workers())
	log.Infof("%-15s: %s", "Resync", ResyncSchedule())
	if listen := HealthListen(); listen != "" {
		log.Infof("%-15s: %s", "Health", listen)
	}
	for _, feed := range Feeds() {
		log.Infof("%-15s: %s <- %s (%s)", "Feed", feed.DataType, feed.URL, feed.Path)
	}
}

func Home() string {
	mu.RLock()
	defer mu.RUnlock()
	return home
}

func ChainID() string {
	return get().Node.ChainID
}

func Endpoint() string {
	return get().Node.Endpoint
}

func NodeTimeout() time.Duration {
	return duration(get().Node.Timeout)
}

func KeyName() string {
	return get().Key.Name
}

func KeyDir() string {
	return get().Key.Dir
}

// Key loads the signing key named in the config.
func Key() (*ethsecp256k1.PrivKey, error) {
	return ethsecp256k1.LoadKey(ethsecp256k1.KeyPath(KeyDir(), KeyName()))
}

// Address is the address of the signing key, or nil when it cannot be loaded.
func Address() sdk.AccAddress {
	key, err := Key()
	if err != nil {
		return nil
	}
	return key.Address()
}

func Workers() int {
	return get().Worker.Count
}

func ChannelSize() int {
	return get().Worker.QueueSize
}

func FetchTimeout() time.Duration {
	return duration(get().Fetch.Timeout)
}

func RateLimit() int {
	return get().Fetch.RateLimit
}

func CacheTTL() time.Duration {
	return duration(get().Fetch.CacheTTL)
}

func RetryMaxInterval() time.Duration {
	return duration(get().Retry.MaxInterval)
}

func RetryMaxElapsedTime() time.Duration {
	return duration(get().Retry.MaxElapsedTime)
}

func ResyncSchedule() string {
	return get().Resync.Schedule
}

func HealthInterval() time.Duration {
	return duration(get().Health.Interval)
}

// HealthListen is the address serving /healthz, empty when disabled.
func HealthListen() string {
	return get().Health.Listen
}

func Feeds() []Feed {
	return append([]Feed(nil), get().Feeds...)
}

// FeedFor returns the feed serving dataType.
func FeedFor(dataType string) (Feed, bool) {
	for _, feed := range get().Feeds {
		if feed.DataType == dataType {
			return feed, true
		}
	}
	return Feed{}, false
}

// SetHealthListenForTesting overrides the health address of the installed config.
func SetHealthListenForTesting(addr string) {
	mu.Lock()
	defer mu.Unlock()
	globalConfig.Health.Listen = addr
}

// SetForTesting installs the defaults rooted at testHome with the given
// chain, endpoint and feeds.
func SetForTesting(testHome, chainID, endpoint string, feeds ...Feed) {
	cfg := defaultConfig(testHome)
	cfg.Node.ChainID = chainID
	cfg.Node.Endpoint = endpoint
	cfg.Feeds = feeds
	cfg.Retry.MaxInterval = "50ms"
	cfg.Retry.MaxElapsedTime = "2s"
	cfg.Health.Listen = ""

	mu.Lock()
	defer mu.Unlock()
	globalConfig = cfg
	home = testHome
}
