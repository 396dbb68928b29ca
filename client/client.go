// SPDX-License-Identifier: ice License 1.0

package client

import (
	"context"
	"net/http"
	stdlibtime "time"

	"github.com/goccy/go-json"
	"github.com/imroc/req/v3"
	"github.com/pkg/errors"

	"github.com/ximeleavesystem-glitch/xime-gate-otp-engine/gate"
	"github.com/ximeleavesystem-glitch/xime-gate-otp-engine/log"
	"github.com/ximeleavesystem-glitch/xime-gate-otp-engine/terror"
	"github.com/ximeleavesystem-glitch/xime-gate-otp-engine/totp"
)

func New(baseURL string, opts ...Option) Client {
	httpClient := req.C().
		SetBaseURL(baseURL).
		SetJsonMarshal(json.Marshal).
		SetJsonUnmarshal(json.Unmarshal).
		SetTimeout(requestDeadline).
		SetCommonRetryCount(retryCount).
		SetCommonRetryBackoffInterval(minRetryInterval, maxRetryInterval).
		SetCommonRetryHook(func(resp *req.Response, err error) {
			switch {
			case err != nil:
				log.Error(errors.Wrap(err, "gate request failed, retrying... "))
			case resp.GetStatusCode() == http.StatusTooManyRequests:
				log.Error(errors.New("gate rate limit reached, retrying... "))
			case resp.GetStatusCode() >= http.StatusInternalServerError:
				log.Error(errors.Errorf("gate request failed with status %v, retrying... ", resp.GetStatusCode()))
			}
		}).
		SetCommonRetryCondition(func(resp *req.Response, err error) bool {
			return err != nil || resp.GetStatusCode() == http.StatusTooManyRequests || resp.GetStatusCode() >= http.StatusInternalServerError
		})
	for _, opt := range opts {
		opt(httpClient)
	}

	return &client{http: httpClient}
}

func WithRetryCount(count int) Option {
	return func(c *req.Client) {
		c.SetCommonRetryCount(count)
	}
}

func WithTimeout(timeout stdlibtime.Duration) Option {
	return func(c *req.Client) {
		c.SetTimeout(timeout)
	}
}

func (c *client) GateCode(ctx context.Context) (*totp.GeneratedCode, error) {
	var (
		result  totp.GeneratedCode
		failure errorResponse
	)
	resp, err := c.http.R().
		SetContext(ctx).
		SetSuccessResult(&result).
		SetErrorResult(&failure).
		Get(gate.GateCodePath)
	if err = checkResponse(resp, err, &failure); err != nil {
		return nil, errors.Wrap(err, "failed to get gate code")
	}

	return &result, nil
}

func (c *client) VerifyCode(ctx context.Context, code string) (*totp.VerificationResult, error) {
	var (
		result  totp.VerificationResult
		failure errorResponse
	)
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(&verifyCodeRequest{Code: code}).
		SetSuccessResult(&result).
		SetErrorResult(&failure).
		Post(gate.VerifyCodePath)
	if err = checkResponse(resp, err, &failure); err != nil {
		return nil, errors.Wrap(err, "failed to verify gate code")
	}

	return &result, nil
}

func checkResponse(resp *req.Response, err error, failure *errorResponse) error {
	if err != nil {
		return errors.Wrap(err, "request failed")
	}
	if resp.IsSuccessState() {
		return nil
	}

	return terror.New(
		errors.Wrapf(ErrUnexpectedStatus, "status %v: %v", resp.GetStatusCode(), failure.Error),
		map[string]any{"status": resp.GetStatusCode(), "code": failure.Code})
}
