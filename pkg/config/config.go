package config

// Config is the umbrella configuration object returned by Initialize()
// and threaded through the application.
type Config struct {
	configDir string

	Defaults *TenantSettings
	Queue    *QueueConfig
	LLM      *LLMConfig
	Snapshot *SnapshotConfig
}

// ConfigDir returns the configuration directory path.
func (c *Config) ConfigDir() string { return c.configDir }

// Stats contains statistics about loaded configuration, for startup logging.
type Stats struct {
	FAQEntries int
	Managers   int
}

// Stats returns configuration statistics.
func (c *Config) Stats() Stats {
	s := Stats{}
	if c.Defaults != nil {
		s.FAQEntries = len(c.Defaults.FAQ)
		s.Managers = len(c.Defaults.Managers)
	}
	return s
}
