// SPDX-License-Identifier: ice License 1.0

package totp

import (
	"github.com/pkg/errors"

	"github.com/ximeleavesystem-glitch/xime-gate-otp-engine/time"
	"github.com/ximeleavesystem-glitch/xime-gate-otp-engine/totp/internal"
)

// Public API.

const (
	AlgorithmSHA1   Algorithm = "SHA1"
	AlgorithmSHA256 Algorithm = "SHA256"
	AlgorithmSHA512 Algorithm = "SHA512"

	ModeNone          Mode = ""
	ModeCurrent       Mode = "current"
	ModePreviousGrace Mode = "previous_grace"
)

var (
	ErrInvalidSecret     = errors.New("invalid secret")
	ErrInvalidParameters = errors.New("invalid otp parameters")
)

type (
	TOTP interface {
		Generator
		Verifier

		Parameters() Parameters
	}
	Generator interface {
		GenerateCode(now *time.Time, secret Secret) (*GeneratedCode, error)
		GenerateURI(secret Secret, account string) string
	}
	Verifier interface {
		// VerifyCode never returns an error for a wrong or malformed code, only for misconfiguration.
		VerifyCode(now *time.Time, secret Secret, code string) (*VerificationResult, error)
	}

	Algorithm string
	Mode      string

	// Secret is the decoded shared key. Build it with ParseSecret.
	Secret struct {
		key []byte
	}
	Parameters struct {
		Algorithm    Algorithm `yaml:"algorithm" mapstructure:"algorithm" validate:"required,oneof=SHA1 SHA256 SHA512"`
		Digits       int       `yaml:"digits" mapstructure:"digits" validate:"min=1,max=10"`
		Period       uint64    `yaml:"period" mapstructure:"period" validate:"min=1"`
		GraceSeconds uint64    `yaml:"graceSeconds" mapstructure:"graceSeconds" validate:"ltefield=Period"`
	}
	// Window is the period-sized slice of time a timestamp falls into.
	Window struct {
		Index     int64
		Elapsed   uint64
		Remaining uint64
		period    uint64
	}
	GeneratedCode struct {
		ExpiresAt        *time.Time `json:"expiresAt,omitempty" swaggertype:"string" example:"2024-07-25T08:20:00Z"`
		Code             string     `json:"code" example:"012345"`
		ValidForSeconds  uint64     `json:"validForSeconds" example:"300"`
		RemainingSeconds uint64     `json:"remainingSeconds" example:"100"`
	}
	VerificationResult struct {
		Mode  Mode `json:"mode,omitempty" example:"current" enums:"current,previous_grace"`
		Valid bool `json:"valid" example:"true"`
	}
)

// Private API.

const (
	counterSize      = 8
	maxDigits        = 10
	truncationMask   = 0x7fffffff
	offsetMask       = 0x0f
	redactedSecret   = "***"
	defaultIssuer    = "XIME"
	defaultLabel     = "GateOTP"
	defaultAlgorithm = AlgorithmSHA1
	defaultDigits    = 6
	defaultPeriod    = 300
	defaultGrace     = 60

	graceSecondsConfigKey = ".totp.graceSeconds"
)

type (
	totp struct {
		provisioner internal.Provisioner
		cfg         *config
	}
	config struct {
		TOTP struct {
			Issuer     string `yaml:"issuer" mapstructure:"issuer"`
			Label      string `yaml:"label" mapstructure:"label"`
			Parameters `yaml:",inline" mapstructure:",squash"`
		} `yaml:"totp" mapstructure:"totp"`
	}
)
