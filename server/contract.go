// SPDX-License-Identifier: ice License 1.0

package server

import (
	"context"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
)

// Public API.

type (
	Router = gin.Engine
	Server interface {
		// ListenAndServe starts everything and blocks indefinitely.
		ListenAndServe(ctx context.Context, cancel context.CancelFunc)
	}
	// State is the actual custom behaviour that has to be implemented by users of this package to customize their http server`s lifecycle.
	State interface {
		Init(ctx context.Context, cancel context.CancelFunc)
		Close(ctx context.Context) error
		RegisterRoutes(r *Router)
		CheckHealth(ctx context.Context) error
	}
	Request[REQ any, RESP any] struct {
		Data           *REQ                        `json:"data,omitempty"`
		ginCtx         *gin.Context                //nolint:structcheck // Wrong.
		RequestID      string                      `json:"requestId,omitempty"`
		ClientIP       net.IP                      `json:"clientIp,omitempty"`
		bindings       map[requestBinding]struct{} //nolint:structcheck // Wrong.
		requiredFields []string                    //nolint:structcheck // Wrong.
	}
	Response[RESP any] struct {
		Data    *RESP
		Headers map[string]string
		Code    int
	}
	// ErrorResponse is the struct that is eventually serialized as a negative response back to the user.
	ErrorResponse struct {
		error `json:"-" swaggerignore:"true"`
		Data  map[string]any `json:"data,omitempty"`
		Error string         `json:"error" example:"something is missing"`
		Code  string         `json:"code,omitempty" example:"SOMETHING_NOT_FOUND"`
	}
	Config struct {
		CORS struct {
			AllowedOrigins []string      `yaml:"allowedOrigins" mapstructure:"allowedOrigins"`
			MaxAge         time.Duration `yaml:"maxAge" mapstructure:"maxAge"`
		} `yaml:"cors" mapstructure:"cors"`
		HTTPServer struct {
			CertPath string `yaml:"certPath" mapstructure:"certPath"`
			KeyPath  string `yaml:"keyPath" mapstructure:"keyPath"`
			Port     uint16 `yaml:"port" mapstructure:"port"`
		} `yaml:"httpServer" mapstructure:"httpServer"`
		DefaultEndpointTimeout time.Duration `yaml:"defaultEndpointTimeout" mapstructure:"defaultEndpointTimeout"`
	}
)

const (
	RequestIDHeader = "X-Request-Id"
)

// Private API.

const (
	jsonBinding requestBinding = iota
	uriBinding
	queryBinding
	headerBinding

	requestIDCtxKey        = "requestIDCtxKey"
	fallbackRequestTimeout = 30 * time.Second
)

var (
	//nolint:gochecknoglobals // Because its loaded once, at runtime.
	development bool
	//nolint:gochecknoglobals // Because its loaded once, at runtime.
	cfg Config
)

type (
	healthCheck struct{}
	requestBinding uint8
	// | srv is the internal representation of everything needed to bootstrap the http server.
	srv struct {
		State
		server      *http.Server
		router      *Router
		quit        chan<- os.Signal
		swaggerRoot string
	}
)
