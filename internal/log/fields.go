// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package log

// Canonical field name constants for structured logging.
const (
	FieldCorrelationID = "correlation_id"
	FieldEvent         = "event"
	FieldComponent     = "component"

	FieldPlaylistPath = "playlist_path"
	FieldSourcePath    = "source_path"
	FieldIndex         = "index"
	FieldBegin         = "begin"
	FieldDelta         = "delta"
	FieldTotalDelta    = "total_delta"
	FieldState         = "state"
)
