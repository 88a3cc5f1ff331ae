// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package middleware provides HTTP request handling functionality for NaiBot.

Route definitions are centralized in router.DefineRoutes; the chain order is
set in router.RegisterMiddleware.
*/
package middleware
