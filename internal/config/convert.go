package config

import (
	"github.com/wardenlabs/promptguard/pkg/guard"
	"github.com/wardenlabs/promptguard/pkg/guard/stream"
	"github.com/wardenlabs/promptguard/pkg/logging"
)

// GuardConfig projects the engine-facing fields of Settings onto a
// guard.GuardConfig.
func (s Settings) GuardConfig() guard.GuardConfig {
	return guard.GuardConfig{
		RiskThreshold:           s.RiskThreshold,
		EnableSanitization:      s.EnableSanitization,
		EnableContextSeparation: s.EnableContextSeparation,
		MaxProcessingTimeMs:     s.MaxProcessingTimeMs,
		EnablePerfMonitoring:    s.EnablePerfMonitoring,
	}
}

// StreamConfig projects the streaming-window fields of Settings onto a
// stream.Config.
func (s Settings) StreamConfig() stream.Config {
	return stream.Config{
		ChunkSize:          s.ChunkSize,
		OverlapSize:        s.OverlapSize,
		TrustLevel:         guard.TrustLevel(s.TrustLevel),
		EnableSanitization: s.EnableSanitization,
	}
}

// LoggingConfig projects the ambient logging fields of Settings onto a
// logging.Config. Service is supplied by the caller since it identifies the
// component (e.g. "guard", "stream", "cli"), not the user's configuration.
func (s Settings) LoggingConfig(service string) logging.Config {
	return logging.Config{
		Level:   parseLevel(s.LogLevel),
		LogDir:  s.LogDir,
		Service: service,
		JSON:    s.LogJSON,
	}
}

func parseLevel(level string) logging.Level {
	switch level {
	case "debug":
		return logging.LevelDebug
	case "warn":
		return logging.LevelWarn
	case "error":
		return logging.LevelError
	default:
		return logging.LevelInfo
	}
}
