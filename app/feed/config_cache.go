package feed

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

var configExtensions = []string{".yml", ".yaml"}

// ConfigCache holds the per-feed yaml configurations of a directory. The feed name is
// the file name without extension.
type ConfigCache struct {
	feedsDir string
	mu       sync.RWMutex
	configs  map[string]*Config
}

func NewConfigCache(feedsDir string) *ConfigCache {
	return &ConfigCache{
		feedsDir: feedsDir,
		configs:  make(map[string]*Config),
	}
}

// Run (re)loads every config in the directory. The cache is replaced only when all
// files are valid; a missing directory yields an empty cache.
func (cc *ConfigCache) Run() error {
	entries, err := os.ReadDir(cc.feedsDir)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read feeds directory: %w", err)
	}

	configs := make(map[string]*Config)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		ext := filepath.Ext(entry.Name())
		if !isConfigExtension(ext) {
			continue
		}
		feedName := strings.TrimSuffix(entry.Name(), ext)

		if _, dup := configs[feedName]; dup {
			return fmt.Errorf("duplicate configuration for feed %s", feedName)
		}

		feedConfig, err := readConfig(filepath.Join(cc.feedsDir, entry.Name()), feedName)
		if err != nil {
			return err
		}
		configs[feedName] = feedConfig

		slog.Debug("Configuration loaded", "feed", feedName, "enabled", feedConfig.Settings.Enabled,
			"language", feedConfig.Settings.Language, "refresh_interval", feedConfig.Settings.RefreshInterval)
	}

	cc.mu.Lock()
	cc.configs = configs
	cc.mu.Unlock()

	return nil
}

// LoadConfig re-reads a single feed's file and replaces its cached config
func (cc *ConfigCache) LoadConfig(feedName string) (*Config, error) {
	configFile, err := cc.findConfigFile(feedName)
	if err != nil {
		return nil, err
	}

	feedConfig, err := readConfig(configFile, feedName)
	if err != nil {
		return nil, err
	}

	cc.mu.Lock()
	cc.configs[feedName] = feedConfig
	cc.mu.Unlock()

	return feedConfig, nil
}

func (cc *ConfigCache) GetConfig(feedName string) (*Config, error) {
	cc.mu.RLock()
	defer cc.mu.RUnlock()

	feedConfig, ok := cc.configs[feedName]
	if !ok {
		return nil, fmt.Errorf("feed config with name '%s' not found", feedName)
	}
	return feedConfig, nil
}

func (cc *ConfigCache) GetConfigs() map[string]*Config {
	return cc.selectConfigs(func(*Config) bool { return true })
}

func (cc *ConfigCache) GetEnabledConfigs() map[string]*Config {
	return cc.selectConfigs(func(c *Config) bool { return c.Settings.Enabled })
}

// Names returns the cached feed names in ascending order
func (cc *ConfigCache) Names() []string {
	cc.mu.RLock()
	defer cc.mu.RUnlock()

	names := make([]string, 0, len(cc.configs))
	for name := range cc.configs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (cc *ConfigCache) GetConfigCount() int {
	cc.mu.RLock()
	defer cc.mu.RUnlock()
	return len(cc.configs)
}

func (cc *ConfigCache) selectConfigs(keep func(*Config) bool) map[string]*Config {
	cc.mu.RLock()
	defer cc.mu.RUnlock()

	selected := make(map[string]*Config, len(cc.configs))
	for name, feedConfig := range cc.configs {
		if keep(feedConfig) {
			selected[name] = feedConfig
		}
	}
	return selected
}

func (cc *ConfigCache) findConfigFile(feedName string) (string, error) {
	for _, ext := range configExtensions {
		path := filepath.Join(cc.feedsDir, feedName+ext)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("no configuration file for feed %s in %s", feedName, cc.feedsDir)
}

func isConfigExtension(ext string) bool {
	for _, e := range configExtensions {
		if ext == e {
			return true
		}
	}
	return false
}
