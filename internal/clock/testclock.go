// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package clock

import "time"

// SetNowFuncForTest pins GetSec (and therefore GetDelta) to fn's return
// value, returning a restore func. Exported so packages that schedule
// work off of GetDelta, not just GetSec, can get deterministic tests
// without reaching into this package's unexported nowFn directly.
func SetNowFuncForTest(fn func() time.Time) (restore func()) {
	prev := nowFn
	nowFn = fn
	return func() { nowFn = prev }
}
