// SPDX-License-Identifier: ice License 1.0

package terror

// Public API.

type (
	// Err attaches loggable, non-sensitive context to an error.
	Err struct {
		error
		Data map[string]any `json:"data"`
	}
)
