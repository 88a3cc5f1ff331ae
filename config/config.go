// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package config

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/rs/zerolog/log"

	"github.com/self-exiler/NaiBotAssistant/core/idgen"
)

// Global exposes the server configuration.
var Global ServerConfig

// Possible values for Collation.Mode.
const (
	CollationPinyin    CollationMode = "pinyin"
	CollationLocale    CollationMode = "locale"
	CollationCodepoint CollationMode = "codepoint"
)

// CollationMode selects the collation key provider used to order categories and terms.
type CollationMode string

// ServerConfig holds the application configuration.
type ServerConfig struct {
	Build buildInfo `yaml:"-"`

	Basic struct {
		Host                     string      `env:"NAIBOT_HOST,overwrite" yaml:"host"`
		Port                     string      `env:"NAIBOT_PORT,overwrite" yaml:"port"`
		UnixSocket               string      `env:"NAIBOT_UNIXSOCKET" yaml:"unixSocket"`
		RawUnixSocketPermissions string      `env:"NAIBOT_UNIXSOCKET_PERMISSIONS" yaml:"unixSocketPermissions"`
		UnixSocketPermissions    os.FileMode `yaml:"-"`
	} `yaml:"basic"`

	Store struct {
		DataFile      string        `env:"NAIBOT_DATA_FILE,overwrite" yaml:"dataFile"`
		BackupDir     string        `env:"NAIBOT_BACKUP_DIR,overwrite" yaml:"backupDir"`
		QuarantineDir string        `env:"NAIBOT_QUARANTINE_DIR,overwrite" yaml:"quarantineDir"`
		MaxBackups    int           `env:"NAIBOT_MAX_BACKUPS,overwrite" yaml:"maxBackups"`
		PruneInterval time.Duration `env:"NAIBOT_PRUNE_INTERVAL,overwrite" yaml:"pruneInterval"`
	} `yaml:"store"`

	Collation struct {
		Mode   CollationMode `env:"NAIBOT_COLLATION,overwrite" yaml:"mode"`
		Locale string        `env:"NAIBOT_COLLATION_LOCALE,overwrite" yaml:"locale"`

		// Keys remembered per process; 0 disables the key cache.
		CacheSize int `env:"NAIBOT_COLLATION_CACHE,overwrite" yaml:"cacheSize"`
	} `yaml:"collation"`

	Mirror struct {
		Enabled      bool          `env:"NAIBOT_MIRROR,overwrite" yaml:"enabled"`
		Bucket       string        `env:"NAIBOT_MIRROR_BUCKET,overwrite" yaml:"bucket"`
		Region       string        `env:"NAIBOT_MIRROR_REGION,overwrite" yaml:"region"`
		Endpoint     string        `env:"NAIBOT_MIRROR_ENDPOINT,overwrite" yaml:"endpoint"`
		Prefix       string        `env:"NAIBOT_MIRROR_PREFIX,overwrite" yaml:"prefix"`
		UsePathStyle bool          `env:"NAIBOT_MIRROR_PATH_STYLE,overwrite" yaml:"usePathStyle"`
		Timeout      time.Duration `env:"NAIBOT_MIRROR_TIMEOUT,overwrite" yaml:"timeout"`
	} `yaml:"mirror"`

	Request struct {
		MaxBodyBytes int64  `env:"NAIBOT_MAX_BODY_BYTES,overwrite" yaml:"maxBodyBytes"`
		PromptPrefix string `env:"NAIBOT_PROMPT_PREFIX,overwrite" yaml:"promptPrefix"`
		PageSize     int    `env:"NAIBOT_PAGE_SIZE,overwrite" yaml:"pageSize"`
		MaxPageSize  int    `env:"NAIBOT_MAX_PAGE_SIZE,overwrite" yaml:"maxPageSize"`
	} `yaml:"request"`

	Instance struct {
		StartingTime string    `yaml:"-"`
		Started      time.Time `yaml:"-"`
		InstanceID   string    `yaml:"-"`
	} `yaml:"instance"`

	Development struct {
		InDevelopment bool `env:"NAIBOT_DEV" yaml:"inDevelopment"`
	} `yaml:"development"`

	Log struct {
		Level   string   `env:"NAIBOT_LOG_LEVEL,overwrite" yaml:"logLevel"`
		Outputs []string `env:"NAIBOT_LOG_OUTPUTS,overwrite" yaml:"logOutputs"`
		Format  string   `env:"NAIBOT_LOG_FORMAT,overwrite" yaml:"logFormat"`
	} `yaml:"log"`

	Limiter struct {
		Enabled           bool          `env:"NAIBOT_LIMITER,overwrite" yaml:"enabled"`
		WritesPerInterval int           `env:"NAIBOT_LIMITER_WRITES,overwrite" yaml:"writesPerInterval"`
		Interval          time.Duration `env:"NAIBOT_LIMITER_INTERVAL,overwrite" yaml:"interval"`
		Burst             int           `env:"NAIBOT_LIMITER_BURST,overwrite" yaml:"burst"`
		PassIPs           []string      `env:"NAIBOT_LIMITER_PASS_IPS,overwrite" yaml:"passList"`
		IdleTimeout       time.Duration `env:"NAIBOT_LIMITER_IDLE_TIMEOUT,overwrite" yaml:"idleTimeout"`

		// Clients sharing a network of this size share one bucket.
		IPv4Prefix int `env:"NAIBOT_LIMITER_IPV4_PREFIX,overwrite" yaml:"ipv4Prefix"`
		IPv6Prefix int `env:"NAIBOT_LIMITER_IPV6_PREFIX,overwrite" yaml:"ipv6Prefix"`

		// Peers whose X-Real-IP and X-Forwarded-For headers are believed.
		// Empty means any private or loopback peer.
		TrustedProxies []string `env:"NAIBOT_LIMITER_TRUSTED_PROXIES,overwrite" yaml:"trustedProxies"`
	} `yaml:"limiter"`
}

// LoadConfig loads the server configuration from the command line, the
// environment and the configuration file.
func (cfg *ServerConfig) LoadConfig() error {
	parsedConfigFlagValue := parseCommandLineArgs()

	// Check if the -config flag was explicitly set by the user.
	configFlagUserSet := false

	flag.Visit(func(f *flag.Flag) {
		if f.Name == "config" {
			configFlagUserSet = true
		}
	})

	var configFilePath string

	// Determine the config file path with the correct precedence:
	// 1. Command-line flag (-config)
	// 2. Environment variable (NAIBOT_CONFIGFILE)
	// 3. Default path with fallback check
	if configFlagUserSet {
		configFilePath = parsedConfigFlagValue
	} else {
		configFilePath = ResolvePath(parsedConfigFlagValue)
	}

	if err := cfg.Load(configFilePath); err != nil {
		return err
	}

	cfg.print()

	return nil
}

// ResolvePath picks the configuration file when none was given explicitly:
// NAIBOT_CONFIGFILE first, then def, then "./config.yml" if def is missing.
func ResolvePath(def string) string {
	if envVar := os.Getenv("NAIBOT_CONFIGFILE"); envVar != "" {
		return envVar
	}

	if _, err := os.Stat(def); os.IsNotExist(err) {
		ymlPath := "./config.yml"
		if _, statErr := os.Stat(ymlPath); statErr == nil {
			return ymlPath
		}
	}

	return def
}

// Load populates cfg from defaults, the YAML file at configFilePath, a .env
// file and the environment, in that order, then validates the result.
//
// Unlike LoadConfig it does not touch the command line, so it can be used by
// tools that parse their own flags.
func (cfg *ServerConfig) Load(configFilePath string) error {
	cfg.SetDefaults()

	cfg.Build.load()

	cfg.Instance.InstanceID = idgen.Make()
	cfg.Instance.Started = time.Now().UTC()
	cfg.Instance.StartingTime = cfg.Instance.Started.Format("2006-01-02 15:04")

	if err := cfg.readYAML(configFilePath); err != nil {
		return fmt.Errorf("error loading YAML config: %w", err)
	}

	if err := useDotEnv(); err != nil {
		return fmt.Errorf("error using .env file: %w", err)
	}

	if err := readEnv(cfg); err != nil {
		return fmt.Errorf("error loading environment variables: %w", err)
	}

	if err := cfg.validateAndSet(); err != nil {
		return fmt.Errorf("configuration invalid: %w", err)
	}

	cfg.setupAudit()

	// Heuristically check for containerized environment and warn if host is not a wildcard address.
	if cfg.Basic.UnixSocket == "" && isContainerized() && cfg.Basic.Host != "0.0.0.0" && cfg.Basic.Host != "::" {
		log.Warn().
			Str("host", cfg.Basic.Host).
			Msg("Running in a containerized environment but host is not a wildcard address (e.g., '0.0.0.0' or '::'). This may prevent the service from being accessible outside the container.")
	}

	return nil
}

var skippedPathPrefixes = []string{"/metrics", "/api/v1/health"}

// ShouldSkipServerLogging determines if a request should bypass the logging middleware.
func (cfg *ServerConfig) ShouldSkipServerLogging(path string) bool {
	if cfg.Development.InDevelopment {
		return false
	}

	for _, prefix := range skippedPathPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}

	return false
}

// isContainerized checks for common indicators of a containerized environment.
//
// This is a heuristic and may not be 100% accurate.
func isContainerized() bool {
	if os.Getenv("KUBERNETES_SERVICE_HOST") != "" {
		return true
	}

	if _, err := os.Stat("/.dockerenv"); err == nil {
		return true
	}

	if _, err := os.Stat("/.containerenv"); err == nil {
		return true
	}

	// #nosec G304 -- We are checking for the existence and content of a well-known system file for heuristics.
	cgroup, err := os.ReadFile("/proc/self/cgroup")
	if err == nil {
		content := string(cgroup)

		return strings.Contains(content, "docker") ||
			strings.Contains(content, "kubepods") ||
			strings.Contains(content, "containerd") ||
			strings.Contains(content, "lxc") ||
			strings.Contains(content, "crio") ||
			// systemd-nspawn containers
			strings.Contains(content, ".machine")
	}

	return false
}

// GetDurationEncoderOption returns a YAML encoder option that marshals
// time.Duration into a human-readable string format (e.g., "30m", "1h").
func GetDurationEncoderOption() yaml.EncodeOption {
	return yaml.CustomMarshaler[time.Duration](
		func(d time.Duration) ([]byte, error) {
			return yaml.Marshal(d.String())
		},
	)
}
