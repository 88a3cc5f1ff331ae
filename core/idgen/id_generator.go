// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package idgen

import (
	"crypto/rand"
	"encoding/base64"
	"time"
)

// stampLayout sorts lexically in time order and never contains a path separator.
const stampLayout = "20060102T150405.000000000"

// Make makes a short ID with a 6 byte timestamp and 3 bytes of entropy.
func Make() string {
	entropy := [3]byte{'a', 'a', 'a'}

	_, _ = rand.Read(entropy[:])

	return maketime(time.Now()) + base64.RawURLEncoding.EncodeToString(entropy[:])
}

func maketime(t time.Time) string {
	return t.Format("150405")
}

// Stamp formats t in UTC with nanosecond resolution, for file names that must
// order by creation time.
func Stamp(t time.Time) string {
	return t.UTC().Format(stampLayout)
}

// ParseStamp is the inverse of Stamp.
func ParseStamp(s string) (time.Time, error) {
	return time.ParseInLocation(stampLayout, s, time.UTC)
}
