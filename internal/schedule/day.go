package schedule

import (
	"fmt"
	"sort"
)

// Day is a half-open time interval [StartTime, EndTime) covering exactly one
// civil day of the schedule's calendar. It owns an ordered, gap-free,
// non-overlapping sequence of sessions whose union is the day interval.
type Day struct {
	dayID        int32
	yearMonthDay int32
	startTime    int64
	endTime      int64
	trading      bool
	sessions     []*Session
}

// DayID returns the day identifier: the number of civil days since
// 1970-01-01, increasing by exactly 1 per day.
func (d *Day) DayID() int32 { return d.dayID }

// YearMonthDay returns the packed civil date key, year*10000+month*100+day.
func (d *Day) YearMonthDay() int32 { return d.yearMonthDay }

// StartTime returns the inclusive start of the day in Unix milliseconds.
func (d *Day) StartTime() int64 { return d.startTime }

// EndTime returns the exclusive end of the day in Unix milliseconds.
func (d *Day) EndTime() int64 { return d.endTime }

// IsTrading reports whether the day contains at least one trading session.
func (d *Day) IsTrading() bool { return d.trading }

// Sessions returns the day's sessions in time order. The returned slice is a
// read-only view shared with the day and must not be modified.
func (d *Day) Sessions() []*Session { return d.sessions }

// ContainsTime reports whether t falls within [StartTime, EndTime).
func (d *Day) ContainsTime(t int64) bool {
	return t >= d.startTime && t < d.endTime
}

// SessionByTime returns the session containing t, or nil if t is outside
// the day.
func (d *Day) SessionByTime(t int64) *Session {
	if !d.ContainsTime(t) {
		return nil
	}
	i := sort.Search(len(d.sessions), func(i int) bool {
		return d.sessions[i].endTime > t
	})
	return d.sessions[i]
}

func (d *Day) String() string {
	return fmt.Sprintf("Day(%d, %d)", d.dayID, d.yearMonthDay)
}

// newDay validates a day fact and constructs an immutable Day.
func newDay(f DayFact) (*Day, error) {
	if f.DayID < minDayID || f.DayID > maxDayID {
		return nil, fmt.Errorf("day %d: dayID outside valid range", f.DayID)
	}
	if want := ymdFromDayID(f.DayID); f.YearMonthDay != want {
		return nil, fmt.Errorf("day %d: yearMonthDay %d inconsistent with dayID (want %d)",
			f.DayID, f.YearMonthDay, want)
	}
	if f.StartTime >= f.EndTime {
		return nil, fmt.Errorf("day %d: empty or inverted interval [%d, %d)", f.DayID, f.StartTime, f.EndTime)
	}
	if len(f.Sessions) == 0 {
		return nil, fmt.Errorf("day %d: no sessions", f.DayID)
	}

	d := &Day{
		dayID:        f.DayID,
		yearMonthDay: f.YearMonthDay,
		startTime:    f.StartTime,
		endTime:      f.EndTime,
		sessions:     make([]*Session, 0, len(f.Sessions)),
	}
	prev := f.StartTime
	for i, sf := range f.Sessions {
		if sf.StartTime != prev {
			return nil, fmt.Errorf("day %d: session %d starts at %d, want %d (gap or overlap)",
				f.DayID, i, sf.StartTime, prev)
		}
		if sf.EndTime <= sf.StartTime {
			return nil, fmt.Errorf("day %d: session %d has non-positive length", f.DayID, i)
		}
		d.sessions = append(d.sessions, &Session{
			startTime:   sf.StartTime,
			endTime:     sf.EndTime,
			sessionType: sf.Type,
		})
		if sf.Type.IsTrading() {
			d.trading = true
		}
		prev = sf.EndTime
	}
	if prev != f.EndTime {
		return nil, fmt.Errorf("day %d: sessions end at %d, want day end %d", f.DayID, prev, f.EndTime)
	}
	return d, nil
}
