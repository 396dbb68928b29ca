// SPDX-License-Identifier: ice License 1.0

package totp

import (
	"crypto/hmac"
	"encoding/binary"
	"math"
	stdlibtime "time"

	"github.com/pkg/errors"
	"github.com/pquerna/otp"

	"github.com/ximeleavesystem-glitch/xime-gate-otp-engine/terror"
	"github.com/ximeleavesystem-glitch/xime-gate-otp-engine/time"
)

// Longer periods would overflow time.Duration arithmetic on window boundaries.
const maxPeriod = uint64(math.MaxInt64 / int64(stdlibtime.Second))

// Derive computes the RFC 6238 code of the window that now falls into.
func Derive(secret Secret, params *Parameters, now *time.Time) (string, error) {
	if err := checkInputs(secret, params); err != nil {
		return "", err
	}

	return deriveAt(secret.key, params, WindowOf(now, params.Period).Counter()), nil
}

// DeriveAt computes the RFC 4226 code for an explicit moving factor.
func DeriveAt(secret Secret, params *Parameters, counter uint64) (string, error) {
	if err := checkInputs(secret, params); err != nil {
		return "", err
	}

	return deriveAt(secret.key, params, counter), nil
}

func deriveAt(key []byte, params *Parameters, counter uint64) string {
	var movingFactor [counterSize]byte
	binary.BigEndian.PutUint64(movingFactor[:], counter)
	mac := hmac.New(params.Algorithm.hashAlgorithm().Hash, key)
	mac.Write(movingFactor[:]) //nolint:errcheck,revive // hash.Hash never fails to write.
	sum := mac.Sum(nil)
	offset := sum[len(sum)-1] & offsetMask
	truncated := binary.BigEndian.Uint32(sum[offset:offset+4]) & truncationMask

	return otp.Digits(params.Digits).Format(int32(uint64(truncated) % pow10(params.Digits))) //nolint:gosec // Always < 2^31.
}

func pow10(digits int) uint64 {
	mod := uint64(1)
	for range digits {
		mod *= 10
	}

	return mod
}

func checkInputs(secret Secret, params *Parameters) error {
	if err := params.Validate(); err != nil {
		return err
	}
	if secret.IsZero() {
		return invalidSecret("empty")
	}

	return nil
}

func (p *Parameters) Validate() error {
	var reason string
	switch {
	case p == nil:
		reason = "missing"
	case !p.Algorithm.Valid():
		reason = "algorithm"
	case p.Digits <= 0 || p.Digits > maxDigits:
		reason = "digits"
	case p.Period == 0 || p.Period > maxPeriod:
		reason = "period"
	case p.GraceSeconds > p.Period:
		reason = "graceSeconds"
	default:
		return nil
	}

	return terror.New(errors.Wrapf(ErrInvalidParameters, "%v is out of range", reason), map[string]any{"reason": reason})
}

func (a Algorithm) Valid() bool {
	switch a {
	case AlgorithmSHA1, AlgorithmSHA256, AlgorithmSHA512:
		return true
	default:
		return false
	}
}

func (a Algorithm) hashAlgorithm() otp.Algorithm {
	switch a {
	case AlgorithmSHA256:
		return otp.AlgorithmSHA256
	case AlgorithmSHA512:
		return otp.AlgorithmSHA512
	default:
		return otp.AlgorithmSHA1
	}
}
