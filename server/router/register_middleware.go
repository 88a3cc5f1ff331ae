// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package router

import (
	"fmt"

	"github.com/self-exiler/NaiBotAssistant/config"
	"github.com/self-exiler/NaiBotAssistant/server/middleware"
	"github.com/self-exiler/NaiBotAssistant/server/middleware/limiter"
	"github.com/self-exiler/NaiBotAssistant/server/middleware/set_request_context"
)

// RegisterMiddleware installs the middleware chain. It fails only when the
// limiter is enabled with an address list it cannot parse.
func (router *Router) RegisterMiddleware() error {
	// the first middleware is the most outer / first executed one
	router.Use(middleware.WithServerTiming)
	router.Use(middleware.Compress)
	router.Use(middleware.NormalizeURL)                // handle trailing slashes and legacy paths
	router.Use(set_request_context.WithRequestContext) // needed for everything else
	router.Use(middleware.SetResponseHeaders)          // all responses need this

	if config.Global.Limiter.Enabled {
		if err := limiter.Init(); err != nil {
			return fmt.Errorf("failed to configure limiter: %w", err)
		}

		router.Use(limiter.Evaluate)
	}

	return nil
}
