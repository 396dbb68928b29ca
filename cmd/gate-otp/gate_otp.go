// SPDX-License-Identifier: ice License 1.0

package main

import (
	"context"

	"github.com/ximeleavesystem-glitch/xime-gate-otp-engine/cmd/gate-otp/api"
	"github.com/ximeleavesystem-glitch/xime-gate-otp-engine/gate"
	"github.com/ximeleavesystem-glitch/xime-gate-otp-engine/server"
)

const (
	applicationYamlKey = "cmd/gate-otp"
	swaggerRoot        = "/gate/otp"
)

// @title						Gate OTP API
// @version					latest
// @description				Issues and verifies short-lived gate codes.
// @query.collection.format	multi
// @schemes					https
// @contact.name				XIME
// @contact.url				https://xime.example.com
// @BasePath					/.
func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	api.SwaggerInfo.BasePath = "/"
	server.New(gate.New(applicationYamlKey), applicationYamlKey, swaggerRoot).ListenAndServe(ctx, cancel)
}
