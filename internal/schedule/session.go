// Package schedule models trading calendars: it materializes a compact
// schedule definition into an ordered, gap-free partition of calendar time
// into days and sessions, and answers time-indexed queries against it
// (which session covers this instant, where is the nearest trading session,
// and so on). All query types are immutable after construction and safe for
// concurrent readers without locking.
package schedule

import "fmt"

// SessionType classifies a session within a trading day.
type SessionType string

const (
	SessionTypeNoTrading   SessionType = "no-trading"
	SessionTypePreMarket   SessionType = "pre-market"
	SessionTypeRegular     SessionType = "regular"
	SessionTypeAfterMarket SessionType = "after-market"
)

// IsTrading reports whether instruments trade during sessions of this type.
func (t SessionType) IsTrading() bool {
	return t == SessionTypePreMarket || t == SessionTypeRegular || t == SessionTypeAfterMarket
}

// Session is a half-open time interval [StartTime, EndTime) within a single
// day, tagged with a session type. Sessions never span a day boundary.
type Session struct {
	startTime   int64
	endTime     int64
	sessionType SessionType
}

// StartTime returns the inclusive start of the session in Unix milliseconds.
func (s *Session) StartTime() int64 { return s.startTime }

// EndTime returns the exclusive end of the session in Unix milliseconds.
func (s *Session) EndTime() int64 { return s.endTime }

// Type returns the session classification.
func (s *Session) Type() SessionType { return s.sessionType }

// IsTrading reports whether instruments trade during this session.
func (s *Session) IsTrading() bool { return s.sessionType.IsTrading() }

// IsRegular reports whether this is a regular trading session.
func (s *Session) IsRegular() bool { return s.sessionType == SessionTypeRegular }

// ContainsTime reports whether t falls within [StartTime, EndTime).
func (s *Session) ContainsTime(t int64) bool {
	return t >= s.startTime && t < s.endTime
}

func (s *Session) String() string {
	return fmt.Sprintf("Session(%s, %d, %d)", s.sessionType, s.startTime, s.endTime)
}

// SessionFact is the raw session descriptor consumed when building a
// schedule. Facts come from a definition materializer or an external
// calendar importer.
type SessionFact struct {
	StartTime int64
	EndTime   int64
	Type      SessionType
}

// DayFact is the raw day descriptor consumed when building a schedule.
// A fact sequence must be in strictly increasing time order, contiguous,
// and consistent across DayID and YearMonthDay.
type DayFact struct {
	DayID        int32
	YearMonthDay int32
	StartTime    int64
	EndTime      int64
	Sessions     []SessionFact
}
