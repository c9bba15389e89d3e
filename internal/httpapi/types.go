package httpapi

import (
	"tradecal/internal/schedule"
)

// ScheduleJSON is the wire form of schedule metadata.
type ScheduleJSON struct {
	Name         string `json:"name"`
	TimeZone     string `json:"time_zone"`
	TimeZoneName string `json:"time_zone_name,omitempty"`
	DayCount     int    `json:"day_count"`
	FirstDayID   int32  `json:"first_day_id"`
	LastDayID    int32  `json:"last_day_id"`
}

// SessionJSON is the wire form of a session. Times are Unix milliseconds and
// the span is half-open.
type SessionJSON struct {
	DayID     int32  `json:"day_id"`
	StartTime int64  `json:"start_time"`
	EndTime   int64  `json:"end_time"`
	Type      string `json:"type"`
	Trading   bool   `json:"trading"`
}

// DayJSON is the wire form of a schedule day.
type DayJSON struct {
	DayID        int32         `json:"day_id"`
	YearMonthDay int32         `json:"year_month_day"`
	StartTime    int64         `json:"start_time"`
	EndTime      int64         `json:"end_time"`
	Trading      bool          `json:"trading"`
	Sessions     []SessionJSON `json:"sessions"`
}

// SchedulesResponse lists the schedules the server is serving.
type SchedulesResponse struct {
	Schedules []ScheduleJSON `json:"schedules"`
}

// VenuesResponse lists the trading venues known for a schedule key.
type VenuesResponse struct {
	Key    string   `json:"key"`
	Venues []string `json:"venues"`
}

// DefaultsResponse reports the outcome of a defaults document update.
type DefaultsResponse struct {
	Accepted bool `json:"accepted"`
}

func convertSchedule(s *schedule.Schedule) ScheduleJSON {
	days := s.Days()
	return ScheduleJSON{
		Name:         s.Name(),
		TimeZone:     s.TimeZoneID(),
		TimeZoneName: s.TimeZoneDisplayName(),
		DayCount:     len(days),
		FirstDayID:   days[0].DayID(),
		LastDayID:    days[len(days)-1].DayID(),
	}
}

func convertSession(dayID int32, s *schedule.Session) SessionJSON {
	return SessionJSON{
		DayID:     dayID,
		StartTime: s.StartTime(),
		EndTime:   s.EndTime(),
		Type:      string(s.Type()),
		Trading:   s.IsTrading(),
	}
}

func convertDay(d *schedule.Day) DayJSON {
	sessions := make([]SessionJSON, 0, len(d.Sessions()))
	for _, s := range d.Sessions() {
		sessions = append(sessions, convertSession(d.DayID(), s))
	}
	return DayJSON{
		DayID:        d.DayID(),
		YearMonthDay: d.YearMonthDay(),
		StartTime:    d.StartTime(),
		EndTime:      d.EndTime(),
		Trading:      d.IsTrading(),
		Sessions:     sessions,
	}
}
