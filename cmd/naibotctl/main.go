// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
naibotctl maintains a NaiBot glossary offline: checking, exporting and
importing the document, adding entries and managing backups.

It uses the same configuration file and environment variables as the
server. Do not run write commands against a document that a running
server owns; the server keeps its own copy in memory and will overwrite
the result on its next write.
*/
package main

import (
	"os"

	"github.com/rs/zerolog/log"

	"github.com/self-exiler/NaiBotAssistant/core/audit"
)

func main() {
	audit.SetDefaultLogger()

	if err := newRootCommand().Execute(); err != nil {
		log.Error().Err(err).Msg("naibotctl failed")
		os.Exit(1)
	}
}
