// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package config

import (
	"errors"
	"fmt"
	"net/netip"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"

	"github.com/rs/zerolog/log"
	"golang.org/x/text/language"
)

// validation errors.
var (
	errUnixSocketWithHostPort       = errors.New("unix socket configured - cannot specify Host and Port simultaneously")
	errUnixSocketInvalidPermissions = errors.New("invalid Basic.UnixSocketPermissions value")
	errEmptyDataFile                = errors.New("store.dataFile cannot be empty")
	errEmptyBackupDir               = errors.New("store.backupDir cannot be empty")
	errNegativeMaxBackups           = errors.New("store.maxBackups cannot be negative")
	errInvalidCollationMode         = errors.New("invalid Collation.Mode")
	errInvalidCollationCache        = errors.New("collation.cacheSize cannot be negative")
	errInvalidCollationLocale       = errors.New("invalid Collation.Locale")
	errMirrorBucketRequired         = errors.New("mirror.bucket is required when the mirror is enabled")
	errInvalidMirrorEndpoint        = errors.New("invalid Mirror.Endpoint")
	errInvalidMaxBodyBytes          = errors.New("request.maxBodyBytes must be positive")
	errInvalidPageSize              = errors.New("request.pageSize must be positive and not exceed request.maxPageSize")
	errInvalidLimiterRate           = errors.New("limiter.writesPerInterval and limiter.interval must be positive")
	errInvalidLimiterBurst          = errors.New("limiter.burst must be positive")
	errInvalidLimiterPrefix         = errors.New("limiter.ipv4Prefix must be 1-32 and limiter.ipv6Prefix 1-128")
	errInvalidLimiterAddress        = errors.New("limiter address lists take IP addresses or CIDR prefixes")
)

var fileModeOctalRegexp = regexp.MustCompile(`^0?[0-7]{3}$`)

// validateAndSet validates the server configuration and populates derived fields.
func (cfg *ServerConfig) validateAndSet() error {
	if err := cfg.validateListener(); err != nil {
		return err
	}

	if err := cfg.validateStore(); err != nil {
		return err
	}

	switch cfg.Collation.Mode {
	case CollationPinyin, CollationCodepoint:
	case CollationLocale:
		if _, err := language.Parse(cfg.Collation.Locale); err != nil {
			return fmt.Errorf("%w %q: %w", errInvalidCollationLocale, cfg.Collation.Locale, err)
		}
	default:
		return fmt.Errorf("%w %q", errInvalidCollationMode, cfg.Collation.Mode)
	}

	if cfg.Collation.CacheSize < 0 {
		return fmt.Errorf("%w: %d", errInvalidCollationCache, cfg.Collation.CacheSize)
	}

	if cfg.Mirror.Enabled {
		if cfg.Mirror.Bucket == "" {
			return errMirrorBucketRequired
		}

		if cfg.Mirror.Endpoint != "" {
			if u, err := url.Parse(cfg.Mirror.Endpoint); err != nil || u.Scheme == "" || u.Host == "" {
				return fmt.Errorf("%w %q", errInvalidMirrorEndpoint, cfg.Mirror.Endpoint)
			}
		}
	}

	if cfg.Request.MaxBodyBytes <= 0 {
		return errInvalidMaxBodyBytes
	}

	if cfg.Request.PageSize <= 0 || cfg.Request.PageSize > cfg.Request.MaxPageSize {
		return errInvalidPageSize
	}

	// Skip validating Limiter configuration if it's not enabled
	if !cfg.Limiter.Enabled {
		return nil
	}

	if cfg.Limiter.WritesPerInterval <= 0 || cfg.Limiter.Interval <= 0 {
		return errInvalidLimiterRate
	}

	if cfg.Limiter.Burst <= 0 {
		return errInvalidLimiterBurst
	}

	if cfg.Limiter.IPv4Prefix < 1 || cfg.Limiter.IPv4Prefix > 32 ||
		cfg.Limiter.IPv6Prefix < 1 || cfg.Limiter.IPv6Prefix > 128 {
		return errInvalidLimiterPrefix
	}

	for _, entry := range slices.Concat(cfg.Limiter.PassIPs, cfg.Limiter.TrustedProxies) {
		if _, err := netip.ParsePrefix(entry); err == nil {
			continue
		}

		if _, err := netip.ParseAddr(entry); err != nil {
			return fmt.Errorf("%w: %q", errInvalidLimiterAddress, entry)
		}
	}

	return nil
}

func (cfg *ServerConfig) validateListener() error {
	if cfg.Basic.UnixSocket == "" {
		if cfg.Basic.Host == "" {
			cfg.Basic.Host = "localhost"
			log.Info().
				Str("host", cfg.Basic.Host).
				Msg("Binding to default host")
		}

		if cfg.Basic.Port == "" {
			cfg.Basic.Port = "5000"
			log.Info().
				Str("port", cfg.Basic.Port).
				Msg("Using default port")
		}

		return nil
	}

	// The defaults fill Host and Port, so only a user-provided value conflicts.
	if _, hostSet := os.LookupEnv("NAIBOT_HOST"); hostSet {
		return errUnixSocketWithHostPort
	}

	if _, portSet := os.LookupEnv("NAIBOT_PORT"); portSet {
		return errUnixSocketWithHostPort
	}

	cfg.Basic.Host, cfg.Basic.Port = "", ""

	switch {
	case cfg.Basic.RawUnixSocketPermissions == "":
		cfg.Basic.UnixSocketPermissions = 0o666
	case fileModeOctalRegexp.MatchString(cfg.Basic.RawUnixSocketPermissions):
		rawMode, _ := strconv.ParseUint(cfg.Basic.RawUnixSocketPermissions, 8, 32)

		cfg.Basic.UnixSocketPermissions = os.FileMode(rawMode)
	default:
		return errUnixSocketInvalidPermissions
	}

	return nil
}

func (cfg *ServerConfig) validateStore() error {
	if cfg.Store.DataFile == "" {
		return errEmptyDataFile
	}

	if cfg.Store.BackupDir == "" {
		return errEmptyBackupDir
	}

	if cfg.Store.MaxBackups < 0 {
		return errNegativeMaxBackups
	}

	// Corrupt documents are quarantined next to the primary unless told otherwise.
	if cfg.Store.QuarantineDir == "" {
		cfg.Store.QuarantineDir = filepath.Dir(cfg.Store.DataFile)
	}

	return nil
}
