// SPDX-License-Identifier: ice License 1.0

package googleauthenticator

import (
	"encoding/base32"
	"strings"

	"github.com/xlzd/gotp"

	"github.com/ximeleavesystem-glitch/xime-gate-otp-engine/totp/internal"
)

type (
	googleProvisioner struct{}
)

func New() internal.Provisioner {
	return &googleProvisioner{}
}

func (*googleProvisioner) Create(key *internal.Key) internal.Enrollment {
	encodedSecret := base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(key.Secret)
	hasher := &gotp.Hasher{HashName: strings.ToLower(key.HashName), Digest: key.Hash}

	return gotp.NewTOTP(encodedSecret, key.Digits, key.Period, hasher)
}
