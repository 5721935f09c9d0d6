package config

import "time"

// builtinDefaults are the settings every tenant starts from; user YAML is
// merged on top.
func builtinDefaults() *TenantSettings {
	on := true
	return &TenantSettings{
		Deposit: DepositPolicy{
			Required:     true,
			Percentage:   30,
			DeadlineDays: 14,
		},
		EmailFormat:   "text",
		LLMProvider:   "stub",
		PrefilterOn:   &on,
		DetectionMode: DetectionUnified,
		SiteVisit: SiteVisitSettings{
			Enabled:   true,
			TimeSlots: []string{"10:00", "14:00", "16:00"},
		},
		Venue: VenueInfo{
			Name: "Venue",
			Tone: "warm and professional",
		},
	}
}

func builtinQueue() *QueueConfig {
	return &QueueConfig{
		TaskRetention:           72 * time.Hour,
		CleanupInterval:         time.Hour,
		GracefulShutdownTimeout: 30 * time.Second,
	}
}

func builtinLLM() *LLMConfig {
	return &LLMConfig{
		DefaultProvider: "stub",
		Timeout:         30 * time.Second,
		MaxRetries:      1,
	}
}

func builtinSnapshot() *SnapshotConfig {
	return &SnapshotConfig{
		TTL:              7 * 24 * time.Hour,
		SummaryThreshold: 400,
	}
}
