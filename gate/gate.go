// SPDX-License-Identifier: ice License 1.0

package gate

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/pkg/errors"

	appcfg "github.com/ximeleavesystem-glitch/xime-gate-otp-engine/config"
	"github.com/ximeleavesystem-glitch/xime-gate-otp-engine/log"
	"github.com/ximeleavesystem-glitch/xime-gate-otp-engine/server"
	"github.com/ximeleavesystem-glitch/xime-gate-otp-engine/terror"
	"github.com/ximeleavesystem-glitch/xime-gate-otp-engine/time"
	"github.com/ximeleavesystem-glitch/xime-gate-otp-engine/totp"
)

func New(applicationYAMLKey string, opts ...Option) server.State {
	svc := &service{
		totp:               totp.New(applicationYAMLKey),
		now:                time.Now,
		applicationYAMLKey: applicationYAMLKey,
	}
	for _, opt := range opts {
		opt(svc)
	}

	return svc
}

func WithSecret(secret totp.Secret) Option {
	return func(s *service) {
		s.secret = secret
	}
}

func WithClock(now func() *time.Time) Option {
	return func(s *service) {
		s.now = now
	}
}

// LoadSecret reads the base32 secret from <APPLICATION_YAML_KEY>_OTP_SECRET, or OTP_SECRET if that one is not set.
func LoadSecret(applicationYAMLKey string) (totp.Secret, error) {
	encoded := appcfg.LookupEnv(applicationYAMLKey, SecretEnvVar)
	if encoded == "" {
		return totp.Secret{}, terror.New(
			errors.Wrapf(totp.ErrInvalidSecret, "neither %v_%v nor %v is set", appcfg.EnvName(applicationYAMLKey), SecretEnvVar, SecretEnvVar),
			map[string]any{"reason": "missing"})
	}
	secret, err := totp.ParseSecret(encoded)

	return secret, errors.Wrapf(err, "invalid %v", SecretEnvVar)
}

func (s *service) Init(_ context.Context, _ context.CancelFunc) {
	if s.secret.IsZero() {
		secret, err := LoadSecret(s.applicationYAMLKey)
		log.Panic(err) //nolint:revive // We must not start without a secret.
		s.secret = secret
	}
	params := s.totp.Parameters()
	log.Info("gate otp engine initialized",
		"algorithm", params.Algorithm, "digits", params.Digits, "period", params.Period, "graceSeconds", params.GraceSeconds)
}

func (*service) Close(_ context.Context) error {
	return nil
}

func (s *service) CheckHealth(_ context.Context) error {
	if s.secret.IsZero() {
		return errors.Wrap(totp.ErrInvalidSecret, "secret is not loaded")
	}

	return nil
}

func (s *service) RegisterRoutes(router *server.Router) {
	router.
		GET(GateCodePath, server.RootHandler(s.GenerateCode)).
		OPTIONS(GateCodePath, preflight).
		POST(VerifyCodePath, requireJSONBody, server.RootHandler(s.VerifyCode)).
		OPTIONS(VerifyCodePath, preflight)
}

// GenerateCode godoc
//
//	@Schemes
//	@Description	Returns the gate code of the current time window and how long it remains valid.
//	@Tags			Gate
//	@Produce		json
//	@Success		200	{object}	totp.GeneratedCode
//	@Failure		500	{object}	server.ErrorResponse
//	@Failure		504	{object}	server.ErrorResponse	"if request times out"
//	@Router			/api/gateCode [GET].
func (s *service) GenerateCode(
	_ context.Context,
	_ *server.Request[GenerateCodeArg, totp.GeneratedCode],
) (*server.Response[totp.GeneratedCode], *server.Response[server.ErrorResponse]) {
	code, err := s.totp.GenerateCode(s.now(), s.secret)
	if err != nil {
		return nil, server.Unexpected(errors.Wrapf(err, "failed to generate gate code, reason: %v", reason(err)))
	}
	resp := server.OK(code)
	resp.Headers = map[string]string{cacheControlHeader: noStore}

	return resp, nil
}

// VerifyCode godoc
//
//	@Schemes
//	@Description	Checks a submitted gate code. The previous window's code is accepted only during the first grace seconds of a new window.
//	@Tags			Gate
//	@Accept			json
//	@Produce		json
//	@Param			request	body		VerifyCodeArg	true	"Request params"
//	@Success		200		{object}	totp.VerificationResult
//	@Failure		400		{object}	VerifyCodeFailure		"if the body is not valid JSON"
//	@Failure		500		{object}	server.ErrorResponse
//	@Failure		504		{object}	server.ErrorResponse	"if request times out"
//	@Router			/api/verifyCode [POST].
func (s *service) VerifyCode(
	_ context.Context,
	req *server.Request[VerifyCodeArg, totp.VerificationResult],
) (*server.Response[totp.VerificationResult], *server.Response[server.ErrorResponse]) {
	result, err := s.totp.VerifyCode(s.now(), s.secret, strings.TrimSpace(string(req.Data.Code)))
	if err != nil {
		return nil, server.Unexpected(errors.Wrapf(err, "failed to verify gate code, reason: %v", reason(err)))
	}
	if result.Valid {
		log.Debug("gate code accepted", "mode", result.Mode, "requestId", req.RequestID)
	}
	resp := server.OK(result)
	resp.Headers = map[string]string{cacheControlHeader: noStore}

	return resp, nil
}

// requireJSONBody rejects syntactically broken bodies with {"valid":false,...}, so that verify answers always carry `valid`.
func requireJSONBody(ginCtx *gin.Context) {
	body, err := io.ReadAll(http.MaxBytesReader(ginCtx.Writer, ginCtx.Request.Body, maxVerifyBodySize))
	if err == nil && len(bytes.TrimSpace(body)) != 0 && !json.Valid(body) {
		err = errors.New("malformed JSON")
	}
	if err != nil {
		log.Debug("rejected verify body", "error", err, "requestId", ginCtx.Writer.Header().Get(server.RequestIDHeader))
		ginCtx.AbortWithStatusJSON(http.StatusBadRequest, &VerifyCodeFailure{Error: "invalid JSON", Code: invalidJSONCode})

		return
	}
	ginCtx.Request.Body = io.NopCloser(bytes.NewReader(body))
	ginCtx.Next()
}

func preflight(ginCtx *gin.Context) {
	ginCtx.JSON(http.StatusOK, &PreflightResponse{OK: true})
}

func reason(err error) string {
	if val, found := terror.Value(err, "reason"); found {
		return fmt.Sprint(val)
	}

	return "unknown"
}

// UnmarshalJSON treats any well-formed body that is not an object as carrying no code.
func (a *VerifyCodeArg) UnmarshalJSON(data []byte) error {
	if trimmed := bytes.TrimSpace(data); len(trimmed) == 0 || trimmed[0] != '{' {
		*a = VerifyCodeArg{}

		return nil
	}
	type verifyCodeArg VerifyCodeArg
	var arg verifyCodeArg
	if err := json.Unmarshal(data, &arg); err != nil {
		return errors.Wrapf(err, "failed to decode verify code request")
	}
	*a = VerifyCodeArg(arg)

	return nil
}

func (c *CandidateCode) UnmarshalJSON(data []byte) error {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	var value any
	if err := decoder.Decode(&value); err != nil {
		return errors.Wrapf(err, "failed to decode candidate code")
	}
	switch val := value.(type) {
	case string:
		*c = CandidateCode(val)
	case json.Number:
		*c = CandidateCode(val.String())
	default:
		*c = ""
	}

	return nil
}
