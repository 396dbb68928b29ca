// SPDX-License-Identifier: ice License 1.0

package totp

import (
	"crypto/subtle"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	appcfg "github.com/ximeleavesystem-glitch/xime-gate-otp-engine/config"
	"github.com/ximeleavesystem-glitch/xime-gate-otp-engine/log"
	"github.com/ximeleavesystem-glitch/xime-gate-otp-engine/time"
	"github.com/ximeleavesystem-glitch/xime-gate-otp-engine/totp/internal"
	googleauthenticator "github.com/ximeleavesystem-glitch/xime-gate-otp-engine/totp/internal/googleauthenticator"
)

func New(applicationYAMLKey string) TOTP {
	var cfg config
	appcfg.MustLoadFromKey(applicationYAMLKey, &cfg)
	cfg.setDefaults(appcfg.IsSet(applicationYAMLKey + graceSecondsConfigKey))
	err := validator.New(validator.WithRequiredStructEnabled()).Struct(&cfg.TOTP.Parameters)
	log.Panic(errors.Wrapf(err, "invalid totp parameters for %v", applicationYAMLKey)) //nolint:revive // That's intended.
	log.Panic(cfg.TOTP.Parameters.Validate())                                           //nolint:revive // That's intended.

	return &totp{provisioner: googleauthenticator.New(), cfg: &cfg}
}

func DefaultParameters() Parameters {
	return Parameters{
		Algorithm:    defaultAlgorithm,
		Digits:       defaultDigits,
		Period:       defaultPeriod,
		GraceSeconds: defaultGrace,
	}
}

// Generate returns the code of the window now falls into, together with how long it stays valid.
func Generate(secret Secret, params *Parameters, now *time.Time) (*GeneratedCode, error) {
	code, err := Derive(secret, params, now)
	if err != nil {
		return nil, err
	}
	window := WindowOf(now, params.Period)

	return &GeneratedCode{
		Code:             code,
		ValidForSeconds:  params.Period,
		RemainingSeconds: window.Remaining,
		ExpiresAt:        window.End(),
	}, nil
}

// Verify accepts the code of the current window, or the one of the previous window
// while no more than params.GraceSeconds have elapsed into the current one.
// Wrong and malformed codes are both reported as an invalid result, never as an error,
// and both cost the same HMAC computations.
func Verify(secret Secret, params *Parameters, code string, now *time.Time) (*VerificationResult, error) {
	if err := checkInputs(secret, params); err != nil {
		return nil, err
	}
	window := WindowOf(now, params.Period)
	current := deriveAt(secret.key, params, window.Counter())
	var previous string
	if window.Elapsed <= params.GraceSeconds {
		previous = deriveAt(secret.key, params, window.Counter()-1)
	}
	if !wellFormed(code, params.Digits) {
		return &VerificationResult{Mode: ModeNone}, nil
	}
	if matches(code, current) {
		return &VerificationResult{Valid: true, Mode: ModeCurrent}, nil
	}
	if previous != "" && matches(code, previous) {
		return &VerificationResult{Valid: true, Mode: ModePreviousGrace}, nil
	}

	return &VerificationResult{Mode: ModeNone}, nil
}

func wellFormed(code string, digits int) bool {
	if len(code) != digits {
		return false
	}
	for i := range len(code) {
		if code[i] < '0' || code[i] > '9' {
			return false
		}
	}

	return true
}

func matches(submitted, expected string) bool {
	return subtle.ConstantTimeCompare([]byte(submitted), []byte(expected)) == 1
}

func (t *totp) GenerateCode(now *time.Time, secret Secret) (*GeneratedCode, error) {
	return Generate(secret, &t.cfg.TOTP.Parameters, now)
}

func (t *totp) VerifyCode(now *time.Time, secret Secret, code string) (*VerificationResult, error) {
	return Verify(secret, &t.cfg.TOTP.Parameters, code, now)
}

func (t *totp) GenerateURI(secret Secret, account string) string {
	if account == "" {
		account = t.cfg.TOTP.Label
	}
	params := t.cfg.TOTP.Parameters
	enrollment := t.provisioner.Create(&internal.Key{
		Hash:     params.Algorithm.hashAlgorithm().Hash,
		HashName: string(params.Algorithm),
		Secret:   secret.key,
		Digits:   params.Digits,
		Period:   int(params.Period), //nolint:gosec // Bounded by maxPeriod.
	})

	return enrollment.ProvisioningUri(account, t.cfg.TOTP.Issuer)
}

func (t *totp) Parameters() Parameters {
	return t.cfg.TOTP.Parameters
}

// setDefaults never overrides a configured graceSeconds, including an explicit 0.
func (c *config) setDefaults(graceConfigured bool) {
	if c.TOTP.Issuer == "" {
		c.TOTP.Issuer = defaultIssuer
	}
	if c.TOTP.Label == "" {
		c.TOTP.Label = defaultLabel
	}
	if c.TOTP.Algorithm == "" {
		c.TOTP.Algorithm = defaultAlgorithm
	}
	if c.TOTP.Digits == 0 {
		c.TOTP.Digits = defaultDigits
	}
	if c.TOTP.Period == 0 {
		c.TOTP.Period = defaultPeriod
	}
	if !graceConfigured {
		c.TOTP.GraceSeconds = min(defaultGrace, c.TOTP.Period)
	}
}
