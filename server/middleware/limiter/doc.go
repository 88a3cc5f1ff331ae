// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package limiter is a middleware that rate limits mutating HTTP requests per
client network.

Every write rewrites the whole glossary document and rotates a backup, so
writes are limited; reads are not.
*/
package limiter
