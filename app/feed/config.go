package feed

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

var supportedLanguages = map[string]bool{
	"en": true,
	"ru": true,
	"ja": true,
}

var defaultSettings = ConfigSettings{
	RefreshInterval: 3600,
	MaxItems:        100,
	Timeout:         30,
}

// Config is one feed's yaml file. Name is the file name without extension.
type Config struct {
	Name     string         `yaml:"-"`
	URL      string         `yaml:"url"`
	Settings ConfigSettings `yaml:"settings"`
	Filters  []ConfigFilter `yaml:"filters"`
}

type ConfigSettings struct {
	Enabled         bool   `yaml:"enabled"`
	RefreshInterval int    `yaml:"refresh_interval"` // seconds
	MaxItems        int    `yaml:"max_items"`
	Timeout         int    `yaml:"timeout"`         // seconds
	ExtractContent  bool   `yaml:"extract_content"` // fetch articles and add their lead to keywords
	Language        string `yaml:"language"`        // keyword extraction language, e.g. "ru", "en", "ja"
}

type ConfigFilter struct {
	Field    string   `yaml:"field"`
	Includes []string `yaml:"includes"`
	Excludes []string `yaml:"excludes"`
}

func readConfig(configFile, feedName string) (*Config, error) {
	data, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", configFile, err)
	}

	feedConfig := Config{Settings: defaultSettings}
	if err := yaml.Unmarshal(data, &feedConfig); err != nil {
		return nil, fmt.Errorf("failed to parse YAML in %s: %w", configFile, err)
	}
	feedConfig.Name = feedName

	// Explicit zeros fall back to the defaults as well
	if feedConfig.Settings.RefreshInterval == 0 {
		feedConfig.Settings.RefreshInterval = defaultSettings.RefreshInterval
	}
	if feedConfig.Settings.MaxItems == 0 {
		feedConfig.Settings.MaxItems = defaultSettings.MaxItems
	}
	if feedConfig.Settings.Timeout == 0 {
		feedConfig.Settings.Timeout = defaultSettings.Timeout
	}

	if err := feedConfig.validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", configFile, err)
	}

	return &feedConfig, nil
}

// validate reports every problem of the config at once
func (c *Config) validate() error {
	var errs []error

	if c.URL == "" {
		errs = append(errs, errors.New("feed URL is required"))
	}

	if c.Settings.RefreshInterval < 0 {
		errs = append(errs, errors.New("refresh interval must be non-negative"))
	}
	if c.Settings.MaxItems < 0 {
		errs = append(errs, errors.New("max items must be non-negative"))
	}
	if c.Settings.Timeout < 0 {
		errs = append(errs, errors.New("timeout must be non-negative"))
	}

	if lang := c.Settings.Language; lang != "" && !supportedLanguages[baseLanguage(lang)] {
		errs = append(errs, fmt.Errorf("unsupported language: %s", lang))
	}

	for i, filter := range c.Filters {
		if _, ok := fieldValues[filter.Field]; !ok {
			errs = append(errs, fmt.Errorf("invalid filter field at index %d: %s", i, filter.Field))
		}
		if len(filter.Includes) == 0 && len(filter.Excludes) == 0 {
			errs = append(errs, fmt.Errorf("filter at index %d must have at least one include or exclude rule", i))
		}
	}

	return errors.Join(errs...)
}

func baseLanguage(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if i := strings.IndexAny(lang, "-_"); i > 0 {
		return lang[:i]
	}
	return lang
}
