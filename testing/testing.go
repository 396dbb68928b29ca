// SPDX-License-Identifier: ice License 1.0

package testing

import (
	"context"
	"testing"
	stdlibtime "time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"

	"github.com/ximeleavesystem-glitch/xime-gate-otp-engine/time"
)

func GIVEN(_ string, logic func()) {
	logic()
}

func WHEN(_ string, logic func()) {
	logic()
}

func THEN(logic func()) {
	logic()
}

func IT(_ string, logic func()) {
	logic()
}

func AND(_ string, logic func()) {
	logic()
}

func SETUP(_ string, logic func()) {
	logic()
}

// Clock is a manually driven time source, usable wherever a func() *time.Time is expected.
type Clock struct {
	now stdlibtime.Time
}

func NewClock(epochSeconds int64) *Clock {
	return &Clock{now: stdlibtime.Unix(epochSeconds, 0).UTC()}
}

func (c *Clock) Now() *time.Time {
	return time.New(c.now)
}

func (c *Clock) Set(epochSeconds int64) {
	c.now = stdlibtime.Unix(epochSeconds, 0).UTC()
}

func (c *Clock) Advance(d stdlibtime.Duration) {
	c.now = c.now.Add(d)
}

func MustMarshal(tb testing.TB, val any) string {
	tb.Helper()
	valueBytes, err := json.MarshalContext(context.Background(), val)
	require.NoError(tb, err)

	return string(valueBytes)
}

func MustUnmarshal[T any](tb testing.TB, val string) *T {
	tb.Helper()
	tt := new(T)
	require.NoError(tb, json.UnmarshalContext(context.Background(), []byte(val), tt))

	return tt
}
