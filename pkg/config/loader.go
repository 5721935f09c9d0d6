package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"
)

// venueflowYAML is the complete venueflow.yaml file structure.
type venueflowYAML struct {
	Defaults *TenantSettings `yaml:"defaults"`
	Queue    *QueueConfig    `yaml:"queue"`
	LLM      *LLMConfig      `yaml:"llm"`
	Snapshot *SnapshotConfig `yaml:"snapshot"`
}

// Initialize loads, validates, and returns ready-to-use configuration.
//
// Steps performed:
//  1. Load venueflow.yaml from configDir (optional; built-ins apply when absent)
//  2. Merge user values over built-in defaults
//  3. Validate
func Initialize(configDir string) (*Config, error) {
	log := slog.With("config_dir", configDir)
	log.Info("Initializing configuration")

	cfg := &Config{
		configDir: configDir,
		Defaults:  builtinDefaults(),
		Queue:     builtinQueue(),
		LLM:       builtinLLM(),
		Snapshot:  builtinSnapshot(),
	}

	path := filepath.Join(configDir, "venueflow.yaml")
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		log.Info("No venueflow.yaml found, using built-in defaults")
	case err != nil:
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	default:
		var user venueflowYAML
		if err := yaml.Unmarshal(data, &user); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		if err := merge(cfg, &user); err != nil {
			return nil, fmt.Errorf("failed to merge configuration: %w", err)
		}
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	stats := cfg.Stats()
	log.Info("Configuration initialized",
		"faq_entries", stats.FAQEntries,
		"managers", stats.Managers)
	return cfg, nil
}

// merge overlays user-provided values onto the built-in defaults.
// User values win; zero values fall through to the defaults.
func merge(cfg *Config, user *venueflowYAML) error {
	if user.Defaults != nil {
		if err := mergo.Merge(user.Defaults, cfg.Defaults); err != nil {
			return err
		}
		cfg.Defaults = user.Defaults
	}
	if user.Queue != nil {
		if err := mergo.Merge(user.Queue, cfg.Queue); err != nil {
			return err
		}
		cfg.Queue = user.Queue
	}
	if user.LLM != nil {
		if err := mergo.Merge(user.LLM, cfg.LLM); err != nil {
			return err
		}
		cfg.LLM = user.LLM
	}
	if user.Snapshot != nil {
		if err := mergo.Merge(user.Snapshot, cfg.Snapshot); err != nil {
			return err
		}
		cfg.Snapshot = user.Snapshot
	}
	return nil
}

func validate(cfg *Config) error {
	d := cfg.Defaults.Deposit
	if d.Percentage < 0 || d.Percentage > 100 {
		return newValidationError("defaults.deposit", "percentage", "must be between 0 and 100")
	}
	if d.FixedAmount < 0 {
		return newValidationError("defaults.deposit", "fixed_amount", "must not be negative")
	}
	if d.DeadlineDays < 0 {
		return newValidationError("defaults.deposit", "deadline_days", "must not be negative")
	}
	if d.Required && d.Percentage == 0 && d.FixedAmount == 0 {
		return newValidationError("defaults.deposit", "required", "requires a percentage or fixed_amount")
	}
	switch cfg.Defaults.EmailFormat {
	case "", "text", "html":
	default:
		return newValidationError("defaults", "email_format", "must be 'text' or 'html'")
	}
	switch cfg.Defaults.DetectionMode {
	case "", DetectionUnified, DetectionLegacy:
	default:
		return newValidationError("defaults", "detection_mode", "must be 'unified' or 'legacy'")
	}
	if cfg.LLM.Timeout <= 0 {
		return newValidationError("llm", "timeout", "must be positive")
	}
	if cfg.LLM.MaxRetries < 0 {
		return newValidationError("llm", "max_retries", "must not be negative")
	}
	if cfg.Snapshot.TTL <= 0 {
		return newValidationError("snapshot", "ttl", "must be positive")
	}
	if cfg.Queue.CleanupInterval <= 0 {
		return newValidationError("queue", "cleanup_interval", "must be positive")
	}
	return nil
}
