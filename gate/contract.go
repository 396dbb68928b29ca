// SPDX-License-Identifier: ice License 1.0

package gate

import (
	"github.com/ximeleavesystem-glitch/xime-gate-otp-engine/server"
	"github.com/ximeleavesystem-glitch/xime-gate-otp-engine/time"
	"github.com/ximeleavesystem-glitch/xime-gate-otp-engine/totp"
)

// Public API.

const (
	GateCodePath   = "/api/gateCode"
	VerifyCodePath = "/api/verifyCode"

	SecretEnvVar = "OTP_SECRET"
)

type (
	Option          func(*service)
	GenerateCodeArg struct{}
	VerifyCodeArg   struct {
		Code CandidateCode `json:"code" example:"012345"`
	}
	// VerifyCodeFailure is the verify answer to a body that is not JSON at all.
	VerifyCodeFailure struct {
		Error string `json:"error" example:"invalid JSON"`
		Code  string `json:"code" example:"INVALID_JSON"`
		Valid bool   `json:"valid" example:"false"`
	}
	// CandidateCode accepts both JSON strings and JSON numbers; anything else decodes to an empty candidate.
	CandidateCode     string
	PreflightResponse struct {
		OK bool `json:"ok" example:"true"`
	}
)

// Private API.

const (
	cacheControlHeader = "Cache-Control"
	noStore            = "no-store"
	invalidJSONCode    = "INVALID_JSON"
	maxVerifyBodySize  = 4 << 10
)

var (
	_ server.State = (*service)(nil)
)

type (
	service struct {
		totp               totp.TOTP
		now                func() *time.Time
		secret             totp.Secret
		applicationYAMLKey string
	}
)
