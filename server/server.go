// SPDX-License-Identifier: ice License 1.0

package server

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/rs/cors"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	appCfg "github.com/ximeleavesystem-glitch/xime-gate-otp-engine/config"
	"github.com/ximeleavesystem-glitch/xime-gate-otp-engine/log"
)

func New(state State, cfgKey, swaggerRoot string) Server {
	appCfg.MustLoadFromKey(cfgKey, &cfg)
	appCfg.MustLoadFromKey("development", &development)

	return &srv{State: state, swaggerRoot: swaggerRoot}
}

// NewHandler builds the same handler ListenAndServe would serve, without listening or calling State.Init.
func NewHandler(state State, cfgKey string) http.Handler {
	s, ok := New(state, cfgKey, "").(*srv)
	if !ok {
		log.Panic(errors.New("unexpected server implementation"))
	}
	s.setupRouter()

	return s.handler()
}

func (s *srv) ListenAndServe(ctx context.Context, cancel context.CancelFunc) {
	s.Init(ctx, cancel)
	s.setupRouter() //nolint:contextcheck // Nope, we don't need it.
	s.setupServer(ctx)
	quit := make(chan os.Signal, 1)
	s.quit = quit
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go s.startServer()
	s.wait(ctx, quit)
	s.shutDown() //nolint:contextcheck // Nope, we want to gracefully shutdown on a different context.
}

func (s *srv) setupRouter() {
	if !development {
		gin.SetMode(gin.ReleaseMode)
		s.router = gin.New()
		s.router.Use(gin.Recovery())
	} else {
		s.router = gin.Default()
	}
	log.Info(fmt.Sprintf("GIN Mode: %v", gin.Mode()))
	s.router.RemoteIPHeaders = []string{"cf-connecting-ip", "X-Real-IP", "X-Forwarded-For"}
	s.router.HandleMethodNotAllowed = true
	s.router.RedirectFixedPath = true
	s.router.RemoveExtraSlash = true
	s.router.UseRawPath = true
	s.router.Use(requestID)
	s.router.NoMethod(methodNotAllowed)
	s.router.NoRoute(notFound)

	log.Info("registering routes...")
	s.RegisterRoutes(s.router)
	log.Info(fmt.Sprintf("%v routes registered", len(s.router.Routes())))
	s.setupSwaggerRoutes()
	s.setupHealthCheckRoutes()
}

func (s *srv) setupHealthCheckRoutes() {
	s.router.GET("health-check", RootHandler(func(ctx context.Context, req *Request[healthCheck, map[string]string]) (*Response[map[string]string], *Response[ErrorResponse]) { //nolint:lll // .
		if err := s.State.CheckHealth(ctx); err != nil {
			return nil, Unexpected(errors.Wrapf(err, "health check failed"))
		}

		return OK(&map[string]string{"clientIp": req.ClientIP.String()}), nil
	}))
}

func (s *srv) setupSwaggerRoutes() {
	root := s.swaggerRoot
	if root == "" {
		return
	}
	s.router.
		GET(root, func(c *gin.Context) {
			c.Redirect(http.StatusFound, (&url.URL{Path: fmt.Sprintf("%v/swagger/index.html", root)}).RequestURI())
		}).
		GET(fmt.Sprintf("%v/swagger/*any", root), ginSwagger.WrapHandler(swaggerFiles.Handler))
}

// handler answers CORS preflights for the configured origins and passes them on to the router,
// so that routes can decide on the preflight body.
func (s *srv) handler() http.Handler {
	allowedOrigins := cfg.CORS.AllowedOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}

	return cors.New(cors.Options{
		AllowedOrigins:     allowedOrigins,
		AllowedMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:     []string{"*"},
		ExposedHeaders:     []string{RequestIDHeader},
		MaxAge:             int(cfg.CORS.MaxAge.Seconds()),
		OptionsPassthrough: true,
	}).Handler(s.router)
}

func (*srv) tlsEnabled() bool {
	return cfg.HTTPServer.CertPath != "" && cfg.HTTPServer.KeyPath != ""
}

func (s *srv) setupServer(ctx context.Context) {
	handler := s.handler()
	if !s.tlsEnabled() {
		handler = h2c.NewHandler(handler, &http2.Server{})
	}
	s.server = &http.Server{ //nolint:gosec // Not an issue, each request has a deadline set by the handler; and we're behind a proxy.
		Addr:    fmt.Sprintf(":%v", cfg.HTTPServer.Port),
		Handler: handler,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}
}

func (s *srv) startServer() {
	defer log.Info("server stopped listening")
	log.Info(fmt.Sprintf("server started listening on %v...", cfg.HTTPServer.Port))

	isUnexpectedError := func(err error) bool {
		return err != nil &&
			!errors.Is(err, io.EOF) &&
			!errors.Is(err, http.ErrServerClosed)
	}

	var err error
	if s.tlsEnabled() {
		err = errors.Wrap(s.server.ListenAndServeTLS(cfg.HTTPServer.CertPath, cfg.HTTPServer.KeyPath), "server.ListenAndServeTLS failed")
	} else {
		err = errors.Wrap(s.server.ListenAndServe(), "server.ListenAndServe failed")
	}
	if isUnexpectedError(err) {
		s.quit <- syscall.SIGTERM
		log.Error(err)
	}
}

func (*srv) wait(ctx context.Context, quit <-chan os.Signal) {
	select {
	case <-ctx.Done():
	case <-quit:
	}
}

func (s *srv) shutDown() {
	ctx, cancel := context.WithTimeout(context.Background(), endpointTimeout())
	defer cancel()
	log.Info("shutting down server...")

	if err := s.server.Shutdown(ctx); err != nil && !errors.Is(err, io.EOF) {
		log.Error(errors.Wrap(err, "server shutdown failed"))
	} else {
		log.Info("server shutdown succeeded")
	}

	if err := s.State.Close(ctx); err != nil && !errors.Is(err, io.EOF) {
		log.Error(errors.Wrap(err, "state close failed"))
	} else {
		log.Info("state close succeeded")
	}
}
