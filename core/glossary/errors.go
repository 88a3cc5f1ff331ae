// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package glossary

import "errors"

var (
	// ErrNotObject is returned when decoding a Store from JSON that is not an object.
	ErrNotObject = errors.New("glossary document is not a JSON object")

	// ErrNotList is returned when a category's value is not a list of terms.
	ErrNotList = errors.New("category value is not a list of terms")

	// ErrTrailingData is returned when a document continues after its top-level object.
	ErrTrailingData = errors.New("unexpected data after glossary document")
)
