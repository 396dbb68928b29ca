// SPDX-License-Identifier: ice License 1.0

package totp

import (
	"encoding/base32"
	"strings"

	"github.com/pkg/errors"

	"github.com/ximeleavesystem-glitch/xime-gate-otp-engine/terror"
)

// ParseSecret decodes a base32 (RFC 4648) shared secret.
// Case, surrounding whitespace and trailing padding are ignored.
func ParseSecret(encoded string) (Secret, error) {
	normalized := strings.ToUpper(strings.TrimRight(strings.TrimSpace(encoded), "="))
	if normalized == "" {
		return Secret{}, invalidSecret("empty")
	}
	key, err := base32.StdEncoding.WithPadding(base32.NoPadding).DecodeString(normalized)
	if err != nil {
		return Secret{}, terror.New(errors.Wrapf(ErrInvalidSecret, "base32 decoding failed: %v", err), map[string]any{"reason": "encoding"})
	}
	if len(key) == 0 {
		return Secret{}, invalidSecret("empty")
	}

	return Secret{key: key}, nil
}

func NewSecret(key []byte) (Secret, error) {
	if len(key) == 0 {
		return Secret{}, invalidSecret("empty")
	}

	return Secret{key: append([]byte(nil), key...)}, nil
}

func (s Secret) IsZero() bool {
	return len(s.key) == 0
}

func (s Secret) Bytes() []byte {
	return append([]byte(nil), s.key...)
}

func (s Secret) Base32() string {
	return base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(s.key)
}

func (Secret) String() string {
	return redactedSecret
}

func (s Secret) GoString() string {
	return s.String()
}

func (Secret) MarshalJSON() ([]byte, error) {
	return []byte(`"` + redactedSecret + `"`), nil
}

func invalidSecret(reason string) error {
	return terror.New(errors.Wrapf(ErrInvalidSecret, "secret is %v", reason), map[string]any{"reason": reason})
}
