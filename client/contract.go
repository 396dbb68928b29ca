// SPDX-License-Identifier: ice License 1.0

package client

import (
	"context"
	stdlibtime "time"

	"github.com/imroc/req/v3"
	"github.com/pkg/errors"

	"github.com/ximeleavesystem-glitch/xime-gate-otp-engine/totp"
)

// Public API.

var (
	ErrUnexpectedStatus = errors.New("unexpected response status")
)

type (
	// Client talks to the gate endpoints. A wrong or malformed code is a normal result, not an error.
	Client interface {
		GateCode(ctx context.Context) (*totp.GeneratedCode, error)
		VerifyCode(ctx context.Context, code string) (*totp.VerificationResult, error)
	}
	Option func(*req.Client)
)

// Private API.

const (
	requestDeadline  = 10 * stdlibtime.Second
	retryCount       = 3
	minRetryInterval = 10 * stdlibtime.Millisecond
	maxRetryInterval = 500 * stdlibtime.Millisecond
)

type (
	client struct {
		http *req.Client
	}
	verifyCodeRequest struct {
		Code string `json:"code"`
	}
	errorResponse struct {
		Data  map[string]any `json:"data,omitempty"`
		Error string         `json:"error"`
		Code  string         `json:"code,omitempty"`
	}
)
