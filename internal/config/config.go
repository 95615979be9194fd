package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"
)

// Manager handles loading and hot-reloading configuration.
type Manager struct {
	v         *viper.Viper
	mu        sync.RWMutex
	config    *Config
	callbacks []func(*Config)
}

// NewManager creates a new config manager and loads initial config.
func NewManager(cfgFile string) (*Manager, error) {
	cm := &Manager{
		v:         viper.New(),
		callbacks: make([]func(*Config), 0),
	}

	if err := cm.initViper(cfgFile); err != nil {
		return nil, err
	}

	cfg, err := cm.load()
	if err != nil {
		return nil, err
	}
	cm.config = cfg

	return cm, nil
}

// initViper sets up viper with defaults and config file.
func (cm *Manager) initViper(cfgFile string) error {
	d := DefaultConfig()
	defaults := map[string]any{
		"render.engine":        d.Render.Engine,
		"render.pdftoppm_path": d.Render.PdftoppmPath,
		"render.base_dpi":      d.Render.BaseDPI,
		"fonts.serif":          d.Fonts.Serif,
		"fonts.sans":           d.Fonts.Sans,
		"fonts.mono":           d.Fonts.Mono,
		"fonts.humanist":       d.Fonts.Humanist,
		"fonts.fallback":       d.Fonts.Fallback,
		"ocr.languages":        d.OCR.Languages,
		"ocr.attempts":         d.OCR.Attempts,
		"export.prefix":        d.Export.Prefix,
		"features.auth":        d.Features.Auth,
		"features.database":    d.Features.Database,
		"features.ocr":         d.Features.OCR,
		"features.merge_split": d.Features.MergeSplit,
		"server.max_upload_mb": d.Server.MaxUploadMB,
	}
	for key, value := range defaults {
		cm.v.SetDefault(key, value)
	}

	// Environment variables with FOLIO_ prefix, e.g. FOLIO_FEATURES_OCR
	cm.v.SetEnvPrefix("FOLIO")
	cm.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	cm.v.AutomaticEnv()

	if cfgFile != "" {
		cm.v.SetConfigFile(cfgFile)
	} else {
		cm.v.SetConfigName("config")
		cm.v.SetConfigType("yaml")
		cm.v.AddConfigPath(".")
		cm.v.AddConfigPath("$HOME/.folio")
	}

	// Config file is optional
	if err := cm.v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	return nil
}

// load parses the current viper state into a Config struct.
// Sections missing from the file keep their defaults field by field.
func (cm *Manager) load() (*Config, error) {
	cfg := DefaultConfig()
	if err := cm.v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg, nil
}

// Get returns the current configuration (thread-safe).
func (cm *Manager) Get() *Config {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.config
}

// Features returns the current feature toggles.
func (cm *Manager) Features() Features {
	return cm.Get().Features
}

// OnChange registers a callback for config changes.
func (cm *Manager) OnChange(fn func(*Config)) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.callbacks = append(cm.callbacks, fn)
}

// WatchConfig enables hot-reloading of configuration.
func (cm *Manager) WatchConfig() {
	cm.v.OnConfigChange(func(e fsnotify.Event) {
		cfg, err := cm.load()
		if err != nil {
			return
		}

		cm.mu.Lock()
		cm.config = cfg
		callbacks := make([]func(*Config), len(cm.callbacks))
		copy(callbacks, cm.callbacks)
		cm.mu.Unlock()

		for _, fn := range callbacks {
			fn(cfg)
		}
	})
	cm.v.WatchConfig()
}

// ResolveEnvVars expands ${ENV_VAR} references in a string.
func ResolveEnvVars(value string) string {
	if value == "" {
		return value
	}
	pattern := regexp.MustCompile(`\$\{([^}]+)\}`)
	return pattern.ReplaceAllStringFunc(value, func(match string) string {
		varName := match[2 : len(match)-1]
		return os.Getenv(varName)
	})
}

// TessdataPrefix returns the tessdata path with ${ENV_VAR} references resolved.
func (c *Config) TessdataPrefix() string {
	return ResolveEnvVars(c.OCR.TessdataPrefix)
}

// WriteDefault writes the default configuration to the specified path.
func WriteDefault(path string) error {
	cfg := DefaultConfig()
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# Folio configuration
# render.engine: poppler (needs pdftoppm on PATH) or mupdf
# fonts.*: pdfcpu font names used when a requested font cannot be matched
# features: deployment toggles, reloaded while the server runs

`)
	return os.WriteFile(path, append(header, data...), 0o644)
}
