// SPDX-License-Identifier: ice License 1.0

package totp

import (
	"github.com/ximeleavesystem-glitch/xime-gate-otp-engine/time"
)

// WindowOf splits now into period-sized windows, flooring towards negative infinity.
// A zero period yields the zero Window.
func WindowOf(now *time.Time, period uint64) Window {
	if period == 0 || period > maxPeriod {
		return Window{}
	}
	length := int64(period)
	epochSec := now.Unix()
	index, elapsed := epochSec/length, epochSec%length
	if elapsed < 0 {
		index--
		elapsed += length
	}

	return Window{
		Index:     index,
		Elapsed:   uint64(elapsed),
		Remaining: period - uint64(elapsed),
		period:    period,
	}
}

func (w Window) Counter() uint64 {
	return uint64(w.Index) //nolint:gosec // Pre-epoch windows wrap, like any RFC 6238 counter would.
}

func (w Window) Start() *time.Time {
	return time.Unix(w.Index * int64(w.period))
}

func (w Window) End() *time.Time {
	return time.Unix((w.Index + 1) * int64(w.period))
}
