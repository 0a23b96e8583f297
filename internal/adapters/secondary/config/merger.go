package config

import (
	"github.com/mcortelli/pathwatch/internal/domain/entities"
)

// ConfigMerger implements the ConfigMerger interface
type ConfigMerger struct{}

// NewConfigMerger creates a new configuration merger
func NewConfigMerger() *ConfigMerger {
	return &ConfigMerger{}
}

// Merge merges multiple configurations with later configs taking precedence.
// Nil configs are skipped; zero values never override.
func (m *ConfigMerger) Merge(configs ...*entities.Config) *entities.Config {
	result := deepCopy(GetDefaultConfig())

	for _, config := range configs {
		if config != nil {
			m.mergeInto(result, config)
		}
	}

	return result
}

// ApplyFlags applies CLI flag overrides to a configuration
func (m *ConfigMerger) ApplyFlags(config *entities.Config, flags map[string]interface{}) *entities.Config {
	result := deepCopy(config)

	if port, ok := flags["port"].(int); ok && port > 0 {
		result.Server.Port = port
	}

	if host, ok := flags["host"].(string); ok && host != "" {
		result.Server.Host = host
	}

	if root, ok := flags["root"].(string); ok && root != "" {
		result.Watch.Root = root
	}

	if filters, ok := flags["filters"].([]string); ok && len(filters) > 0 {
		result.Watch.Filters = append([]string(nil), filters...)
	}

	if usePolling, ok := flags["poll"].(bool); ok && usePolling {
		result.Watch.UsePolling = true
	}

	if intervalMs, ok := flags["poll-interval-ms"].(int); ok && intervalMs > 0 {
		result.Watch.PollIntervalMs = intervalMs
	}

	if noCache, ok := flags["no-cache"].(bool); ok && noCache {
		result.Cache.Enabled = false
	}

	return result
}

// mergeInto merges overlay into base field-wise
func (m *ConfigMerger) mergeInto(base, overlay *entities.Config) {
	if overlay.Server.Host != "" {
		base.Server.Host = overlay.Server.Host
	}
	if overlay.Server.Port != 0 {
		base.Server.Port = overlay.Server.Port
	}
	if overlay.Server.ReadTimeout != 0 {
		base.Server.ReadTimeout = overlay.Server.ReadTimeout
	}
	if overlay.Server.WriteTimeout != 0 {
		base.Server.WriteTimeout = overlay.Server.WriteTimeout
	}
	if overlay.Server.ShutdownTimeout != 0 {
		base.Server.ShutdownTimeout = overlay.Server.ShutdownTimeout
	}
	if len(overlay.Server.CORSOrigins) > 0 {
		base.Server.CORSOrigins = append([]string(nil), overlay.Server.CORSOrigins...)
	}

	if overlay.Watch.Root != "" {
		base.Watch.Root = overlay.Watch.Root
	}
	if len(overlay.Watch.Filters) > 0 {
		base.Watch.Filters = append([]string(nil), overlay.Watch.Filters...)
	}
	if overlay.Watch.UsePolling {
		base.Watch.UsePolling = true
	}
	if overlay.Watch.PollIntervalMs != 0 {
		base.Watch.PollIntervalMs = overlay.Watch.PollIntervalMs
	}

	if overlay.Cache.Size != 0 {
		base.Cache.Size = overlay.Cache.Size
	}
	if overlay.Cache.WatchFilter != "" {
		base.Cache.WatchFilter = overlay.Cache.WatchFilter
	}
	if overlay.Cache.Enabled {
		base.Cache.Enabled = true
	}

	if overlay.Logging.Level != "" {
		base.Logging.Level = overlay.Logging.Level
	}
	if overlay.Logging.JSONFormat {
		base.Logging.JSONFormat = true
	}
}

// deepCopy creates an independent copy of a configuration
func deepCopy(config *entities.Config) *entities.Config {
	copied := *config
	copied.Server.CORSOrigins = append([]string(nil), config.Server.CORSOrigins...)
	copied.Watch.Filters = append([]string(nil), config.Watch.Filters...)
	return &copied
}
