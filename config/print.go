// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package config

import (
	"fmt"
	"net/url"
	"os"

	"github.com/goccy/go-yaml"
	"github.com/rs/zerolog/log"
)

const redactedValue = "[redacted]"

func (cfg *ServerConfig) print() {
	log.Info().
		Str("version", BuildVersion).
		Str("revision", cfg.Build.Revision()).
		Str("instance", cfg.Instance.InstanceID).
		Msg("Starting NaiBot")

	// Redact sensitive fields using a shallow copy of the config.
	printableConfig := *cfg

	// Endpoints may carry credentials in their userinfo.
	if u, err := url.Parse(printableConfig.Mirror.Endpoint); err == nil && u.User != nil {
		u.User = url.User(redactedValue)
		printableConfig.Mirror.Endpoint = u.String()
	}

	configYAML, err := yaml.MarshalWithOptions(
		printableConfig,
		GetDurationEncoderOption(),
	)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal config to YAML for printing")

		return
	}

	log.Info().
		Msg("Application configuration:")
	fmt.Fprintln(os.Stderr, string(configYAML))
}
