package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"

	"tradecal/internal/schedule"
)

// Compile-time interface checks.
var _ ScheduleExporter = (*ParquetExporter)(nil)

// ParquetExporter writes schedules to Parquet files on disk. Each schedule
// gets its own directory holding a day table and a session table:
//
//	<DataDir>/<name>/days.parquet
//	<DataDir>/<name>/sessions.parquet
type ParquetExporter struct {
	DataDir string
}

// NewParquetExporter creates a ParquetExporter rooted at the given data
// directory.
func NewParquetExporter(dataDir string) *ParquetExporter {
	return &ParquetExporter{DataDir: dataDir}
}

// ---------------------------------------------------------------------------
// Parquet record types (on-disk schema)
// ---------------------------------------------------------------------------

// DayRecord is the Parquet schema for one schedule day.
type DayRecord struct {
	Schedule     string `parquet:"schedule"`
	DayID        int32  `parquet:"day_id"`
	YearMonthDay int32  `parquet:"year_month_day"`
	StartTime    int64  `parquet:"start_time,timestamp(millisecond)"` // Unix ms
	EndTime      int64  `parquet:"end_time,timestamp(millisecond)"`   // Unix ms
	Trading      bool   `parquet:"trading"`
	SessionCount int32  `parquet:"session_count"`
}

// SessionRecord is the Parquet schema for one session of a schedule day.
type SessionRecord struct {
	Schedule  string `parquet:"schedule"`
	DayID     int32  `parquet:"day_id"`
	StartTime int64  `parquet:"start_time,timestamp(millisecond)"` // Unix ms
	EndTime   int64  `parquet:"end_time,timestamp(millisecond)"`   // Unix ms
	Type      string `parquet:"type"`
	Trading   bool   `parquet:"trading"`
}

// ---------------------------------------------------------------------------
// Export
// ---------------------------------------------------------------------------

// ExportSchedule writes the full day and session tables of s, replacing any
// previous export of the same schedule.
func (e *ParquetExporter) ExportSchedule(ctx context.Context, s *schedule.Schedule) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	days := s.Days()
	dayRecords := make([]DayRecord, 0, len(days))
	var sessionRecords []SessionRecord
	for _, d := range days {
		dayRecords = append(dayRecords, DayRecord{
			Schedule:     s.Name(),
			DayID:        d.DayID(),
			YearMonthDay: d.YearMonthDay(),
			StartTime:    d.StartTime(),
			EndTime:      d.EndTime(),
			Trading:      d.IsTrading(),
			SessionCount: int32(len(d.Sessions())),
		})
		for _, sess := range d.Sessions() {
			sessionRecords = append(sessionRecords, SessionRecord{
				Schedule:  s.Name(),
				DayID:     d.DayID(),
				StartTime: sess.StartTime(),
				EndTime:   sess.EndTime(),
				Type:      string(sess.Type()),
				Trading:   sess.IsTrading(),
			})
		}
	}

	if err := writeParquetFile(e.dayPath(s.Name()), dayRecords); err != nil {
		return fmt.Errorf("writing day table for %s: %w", s.Name(), err)
	}
	if err := writeParquetFile(e.sessionPath(s.Name()), sessionRecords); err != nil {
		return fmt.Errorf("writing session table for %s: %w", s.Name(), err)
	}
	return nil
}

// ReadDays reads back the exported day table of a schedule.
func (e *ParquetExporter) ReadDays(name string) ([]DayRecord, error) {
	return readParquetFile[DayRecord](e.dayPath(name))
}

// ReadSessions reads back the exported session table of a schedule.
func (e *ParquetExporter) ReadSessions(name string) ([]SessionRecord, error) {
	return readParquetFile[SessionRecord](e.sessionPath(name))
}

// ---------------------------------------------------------------------------
// Path helpers
// ---------------------------------------------------------------------------

func (e *ParquetExporter) dayPath(name string) string {
	return filepath.Join(e.DataDir, name, "days.parquet")
}

func (e *ParquetExporter) sessionPath(name string) string {
	return filepath.Join(e.DataDir, name, "sessions.parquet")
}

// ---------------------------------------------------------------------------
// Parquet file helpers
// ---------------------------------------------------------------------------

func writeParquetFile[T any](path string, records []T) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return parquet.WriteFile(path, records)
}

func readParquetFile[T any](path string) ([]T, error) {
	rows, err := parquet.ReadFile[T](path)
	if err != nil {
		return nil, err
	}
	return rows, nil
}
