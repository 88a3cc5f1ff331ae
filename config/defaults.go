// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package config

import "time"

const (
	// Default number of rotated backups kept by the pruner.
	defaultMaxBackups = 5
	// Default pruner interval in minutes.
	defaultPruneIntervalMinutes = 10

	// Default request body cap, 1 MiB.
	defaultMaxBodyBytes = 1 << 20

	// Default and maximum search page sizes.
	defaultPageSize    = 20
	defaultMaxPageSize = 100

	// Default number of cached collation keys.
	defaultCollationCacheSize = 4096

	// Default mirror upload timeout in seconds.
	defaultMirrorTimeoutSeconds = 30

	// Default limiter budget: 60 writes per minute with a burst of 10.
	defaultLimiterWrites       = 60
	defaultLimiterBurst        = 10
	defaultLimiterIdleMinutes  = 15
	defaultLimiterIntervalSecs = 60
	defaultLimiterIPv4Prefix   = 32
	defaultLimiterIPv6Prefix   = 64
)

// SetDefaults populates the configuration with default values.
func (cfg *ServerConfig) SetDefaults() {
	cfg.Basic.Host = "localhost"
	cfg.Basic.Port = "5000"

	cfg.Store.DataFile = "./data.json"
	cfg.Store.BackupDir = "./backups"
	cfg.Store.QuarantineDir = ""
	cfg.Store.MaxBackups = defaultMaxBackups
	cfg.Store.PruneInterval = defaultPruneIntervalMinutes * time.Minute

	cfg.Collation.Mode = CollationPinyin
	cfg.Collation.Locale = "zh"
	cfg.Collation.CacheSize = defaultCollationCacheSize

	cfg.Mirror.Enabled = false
	cfg.Mirror.Region = "us-east-1"
	cfg.Mirror.Prefix = "backups/"
	cfg.Mirror.Timeout = defaultMirrorTimeoutSeconds * time.Second

	cfg.Request.MaxBodyBytes = defaultMaxBodyBytes
	cfg.Request.PromptPrefix = "Nai"
	cfg.Request.PageSize = defaultPageSize
	cfg.Request.MaxPageSize = defaultMaxPageSize

	cfg.Log.Level = "info"
	cfg.Log.Outputs = []string{"/dev/stderr"}
	cfg.Log.Format = "console"

	cfg.Limiter.Enabled = false
	cfg.Limiter.WritesPerInterval = defaultLimiterWrites
	cfg.Limiter.Interval = defaultLimiterIntervalSecs * time.Second
	cfg.Limiter.Burst = defaultLimiterBurst
	cfg.Limiter.IdleTimeout = defaultLimiterIdleMinutes * time.Minute
	cfg.Limiter.IPv4Prefix = defaultLimiterIPv4Prefix
	cfg.Limiter.IPv6Prefix = defaultLimiterIPv6Prefix
	cfg.Limiter.TrustedProxies = nil
}
