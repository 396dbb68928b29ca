// SPDX-License-Identifier: ice License 1.0
//go:build !zerolog

package log

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/pkg/errors"

	"github.com/ximeleavesystem-glitch/xime-gate-otp-engine/config"
)

// .
var (
	//nolint:gochecknoglobals // Immutable singleton.
	appCfg cfg
	//nolint:gochecknoglobals // Immutable singleton.
	severities = map[string]int{debug: 0, info: 1, warn: 2}
)

//nolint:gochecknoinits // log is global, so it's initialization can be done in init
func init() {
	log.SetFlags(log.LstdFlags | log.Lmsgprefix | log.LUTC | log.Lshortfile | log.Lmicroseconds)
	config.MustLoadFromKey(configKey, &appCfg)
}

func enabled(level string) bool {
	configured, found := severities[strings.ToLower(appCfg.Level)]
	if !found {
		configured = severities[info]
	}
	requested, found := severities[level]

	return !found || requested >= configured
}

func printf(prefix string, msg any, fields ...any) {
	format := make([]string, 0, len(fields)+1)
	for range len(fields) + 1 {
		format = append(format, "%v")
	}
	vals := make([]any, 0, len(fields)+1)
	vals = append(vals, msg)
	vals = append(vals, fields...)

	//nolint:mnd,gomnd // Skip printf and the public wrapper.
	if err := log.Output(3, fmt.Sprintf(prefix+":"+strings.Join(format, " "), vals...)); err != nil {
		fmt.Fprintln(os.Stderr, err) //nolint:errcheck,revive // Nothing else we can do.
	}
}

func Error(err error, fields ...any) {
	if err == nil {
		return
	}
	printf("ERROR", err.Error(), fields...)
}

func Debug(msg string, fields ...any) {
	if enabled(debug) {
		printf("DEBUG", msg, fields...)
	}
}

func Info(msg string, fields ...any) {
	if enabled(info) {
		printf("INFO", msg, fields...)
	}
}

func Warn(msg string, fields ...any) {
	if enabled(warn) {
		printf("WARN", msg, fields...)
	}
}

func Fatal(anything any, fields ...any) {
	if anything == nil {
		return
	}
	defer os.Exit(1)
	Error(asError(anything), fields...)
}

func Panic(anything any, fields ...any) {
	if anything == nil {
		return
	}
	defer func() {
		panic(anything)
	}()
	Error(asError(anything), fields...)
}

func Level() string {
	return appCfg.Level
}

func asError(anything any) error {
	switch obj := anything.(type) {
	case error:
		return obj
	case string:
		return errors.New(obj)
	default:
		return errors.Errorf("%#v", obj)
	}
}
