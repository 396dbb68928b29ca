// SPDX-License-Identifier: ice License 1.0

package testing

import (
	"testing"
	stdlibtime "time"

	"github.com/stretchr/testify/assert"
)

func TestClock(t *testing.T) {
	t.Parallel()
	clock := NewClock(1_721_895_000)
	assert.Equal(t, int64(1_721_895_000), clock.Now().Unix())
	assert.Equal(t, stdlibtime.UTC, clock.Now().Location())
	clock.Advance(61 * stdlibtime.Second)
	assert.Equal(t, int64(1_721_895_061), clock.Now().Unix())
	clock.Set(-1)
	assert.Equal(t, int64(-1), clock.Now().Unix())
}

func TestMustMarshal(t *testing.T) {
	t.Parallel()
	type sample struct {
		Code string `json:"code"`
	}
	assert.JSONEq(t, `{"code":"012345"}`, MustMarshal(t, &sample{Code: "012345"}))
	assert.Equal(t, &sample{Code: "012345"}, MustUnmarshal[sample](t, `{"code":"012345"}`))
}
