package config

import (
	"strings"
	"time"

	"crowsnest/pkg/config"
)

// Config holds all service configuration, loaded from the environment.
type Config struct {
	Port        string
	DatabaseURL string

	VIPName        string
	ScanInterval   time.Duration
	AlertThreshold float64
	Autostart      bool
	MockSeed       int64

	AssessorTimeout time.Duration
	ConfidenceFloor float64

	KafkaBrokers []string

	OfficialImages []string
}

// Load reads service configuration from the environment. Every field has a
// workable default; only external integrations (database, LLM, Kafka) are
// genuinely optional.
func Load() Config {
	cfg := Config{
		Port:        config.GetEnv("PORT", "18040"),
		DatabaseURL: config.GetEnv("DATABASE_URL", ""),

		VIPName:        config.GetEnv("VIP_TARGET_NAME", "Jane Celebrity"),
		ScanInterval:   config.GetEnvDuration("SCAN_INTERVAL", 30*time.Second),
		AlertThreshold: config.GetEnvFloat("ALERT_THRESHOLD", 0.30),
		Autostart:      config.GetEnvBool("MONITOR_AUTOSTART", false),
		MockSeed:       int64(config.GetEnvInt("MOCK_FEED_SEED", 0)),

		AssessorTimeout: config.GetEnvDuration("ASSESSOR_TIMEOUT", 20*time.Second),
		ConfidenceFloor: config.GetEnvFloat("CONFIDENCE_FLOOR", 0.5),

		KafkaBrokers:   splitList(config.GetEnv("KAFKA_BROKERS", "")),
		OfficialImages: splitList(config.GetEnv("OFFICIAL_IMAGE_REFS", "")),
	}
	return cfg
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
