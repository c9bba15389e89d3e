// Package store provides persistence backends for the calendar service: a
// SQLite archive for downloaded defaults documents and a Parquet exporter for
// materialized schedules.
package store

import (
	"context"

	"tradecal/internal/schedule"
)

// ScheduleExporter writes a materialized schedule to durable storage for
// offline analysis.
type ScheduleExporter interface {
	// ExportSchedule writes the day and session tables of s.
	ExportSchedule(ctx context.Context, s *schedule.Schedule) error
}

// DefaultsRevision is an archived defaults document with its fetch time.
type DefaultsRevision struct {
	ID        int64
	FetchedAt int64 // Unix ms
	Data      []byte
}
