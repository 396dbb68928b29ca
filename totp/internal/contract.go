// SPDX-License-Identifier: ice License 1.0

package internal

import (
	"hash"
)

type (
	Provisioner interface {
		Create(key *Key) Enrollment
	}
	Enrollment interface {
		ProvisioningUri(accountName, issuerName string) string
	}
	Key struct {
		Hash     func() hash.Hash
		HashName string
		Secret   []byte
		Digits   int
		Period   int
	}
)
