// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeToSec(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    float64
		wantErr bool
	}{
		{name: "midnight", input: "00:00:00", want: 0},
		{name: "noon", input: "12:00:00", want: 43200},
		{name: "with millis", input: "01:00:00.5", want: 3600.5},
		{name: "empty", input: "", want: 0},
		{name: "malformed", input: "not-a-time", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := TimeToSec(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 0.001)
		})
	}
}

func TestGetSec(t *testing.T) {
	defer func() { nowFn = time.Now }()
	nowFn = func() time.Time {
		return time.Date(2026, time.July, 31, 13, 30, 15, 0, time.Local)
	}

	got := GetSec()
	assert.InDelta(t, 13*3600+30*60+15, got, 0.001)
}

func TestCheckSync(t *testing.T) {
	cfg := SyncConfig{StopThreshold: 11}

	assert.True(t, CheckSync(5, cfg))
	assert.True(t, CheckSync(-11, cfg))
	assert.False(t, CheckSync(11.01, cfg))
	assert.False(t, CheckSync(-20, cfg))
}

func TestGetDelta(t *testing.T) {
	defer func() { nowFn = time.Now }()
	nowFn = func() time.Time {
		return time.Date(2026, time.July, 31, 6, 0, 10, 0, time.Local)
	}

	cfg := SyncConfig{DayStartSec: 6 * 3600, LengthSec: SecondsPerDay, StopThreshold: 11}

	delta, totalDelta := GetDelta(cfg, 6*3600)
	assert.InDelta(t, 10, delta, 0.01)
	assert.InDelta(t, SecondsPerDay-10, totalDelta, 0.01)
}

func TestGetDelta_WrapAroundMidnight(t *testing.T) {
	defer func() { nowFn = time.Now }()
	// now just after midnight, day starts at 06:00 the previous cycle
	nowFn = func() time.Time {
		return time.Date(2026, time.July, 31, 0, 0, 5, 0, time.Local)
	}

	cfg := SyncConfig{DayStartSec: 6 * 3600, LengthSec: SecondsPerDay, StopThreshold: 11}

	_, totalDelta := GetDelta(cfg, 5)
	// sec(5) is before day start (21600), so totalDelta should treat it
	// as having wrapped into the next cycle.
	assert.Greater(t, totalDelta, 0.0)
}
