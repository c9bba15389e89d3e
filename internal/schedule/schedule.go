package schedule

import (
	"strings"

	"tradecal/internal/profile"
)

// maxNearestDays bounds nearest-session search to one year of consecutive
// days so a filter matching only rare session kinds cannot scan unbounded
// history. The bound is part of the contract, not a tunable.
const maxNearestDays = 366

// Schedule is an immutable trading calendar for one instrument class or
// venue. All methods are read-only and safe for unbounded concurrent use.
type Schedule struct {
	name                string
	timeZoneID          string
	timeZoneDisplayName string
	idx                 *scheduleIndex
}

// NewSchedule builds a schedule from an ordered day fact sequence. It fails
// on any violation of the gap-free, contiguous, monotonic-key invariants,
// since every subsequent lookup depends on them.
func NewSchedule(name, timeZoneID, timeZoneDisplayName string, facts []DayFact) (*Schedule, error) {
	idx, err := buildIndex(facts)
	if err != nil {
		return nil, err
	}
	return &Schedule{
		name:                name,
		timeZoneID:          timeZoneID,
		timeZoneDisplayName: timeZoneDisplayName,
		idx:                 idx,
	}, nil
}

// Name returns the schedule name.
func (s *Schedule) Name() string { return s.name }

// TimeZoneID returns the identifier of the zone the schedule is defined in.
func (s *Schedule) TimeZoneID() string { return s.timeZoneID }

// TimeZoneDisplayName returns the display name of the schedule's zone.
func (s *Schedule) TimeZoneDisplayName() string { return s.timeZoneDisplayName }

// Days returns the covered days in order. The returned slice is a read-only
// view shared with the schedule and must not be modified.
func (s *Schedule) Days() []*Day { return s.idx.days }

// GetDayByTime returns the day containing the given instant, or nil when it
// falls outside the covered range.
func (s *Schedule) GetDayByTime(t int64) *Day { return s.idx.dayByTime(t) }

// GetDayByID returns the day with the given identifier, or nil when it
// falls outside the covered range.
func (s *Schedule) GetDayByID(dayID int32) *Day { return s.idx.dayByID(dayID) }

// GetDayByYearMonthDay returns the day for a packed civil date key
// (year*10000+month*100+day). A key with no exact day forward-rounds to the
// next existing day; keys outside the valid civil range return nil.
func (s *Schedule) GetDayByYearMonthDay(ymd int32) *Day { return s.idx.dayByYearMonthDay(ymd) }

// GetSessionByTime returns the session containing the given instant, or nil
// when it falls outside the covered range.
func (s *Schedule) GetSessionByTime(t int64) *Session {
	d := s.idx.dayByTime(t)
	if d == nil {
		return nil
	}
	return d.SessionByTime(t)
}

// GetNearestSessionByTime returns the first session at or after t accepted
// by the filter. It returns nil immediately when t falls outside the
// covered range, and nil when no acceptable session exists within 366 days.
func (s *Schedule) GetNearestSessionByTime(t int64, filter SessionFilter) *Session {
	d := s.idx.dayByTime(t)
	if d == nil {
		return nil
	}
	return s.scanForward(d, t, filter)
}

// FindNearestSessionByTime behaves like GetNearestSessionByTime but
// tolerates an anchor before the covered range by starting the search at
// the first covered day. Anchors at or past the end still return nil.
func (s *Schedule) FindNearestSessionByTime(t int64, filter SessionFilter) *Session {
	d := s.idx.dayByTime(t)
	if d == nil {
		if len(s.idx.days) == 0 || t >= s.idx.days[0].startTime {
			return nil
		}
		d = s.idx.days[0]
	}
	return s.scanForward(d, t, filter)
}

// scanForward scans sessions from the one covering or following t, across
// day boundaries, for at most maxNearestDays consecutive days.
func (s *Schedule) scanForward(d *Day, t int64, filter SessionFilter) *Session {
	for scanned := 0; d != nil && scanned < maxNearestDays; scanned++ {
		for _, sess := range d.sessions {
			if sess.endTime <= t {
				continue
			}
			if filter.Accept(sess) {
				return sess
			}
		}
		d = s.idx.dayByID(d.dayID + 1)
	}
	return nil
}

// GetInstance returns the default schedule for an instrument profile, or
// (nil, nil) when no schedule is defined for it. The current defaults
// document is consulted at construction time only; schedules already built
// are unaffected by later defaults updates.
func GetInstance(p *profile.InstrumentProfile) (*Schedule, error) {
	return GetInstanceForVenue(p, "")
}

// GetInstanceForVenue returns the schedule for a profile at a specific
// trading venue, or (nil, nil) when none is defined.
func GetInstanceForVenue(p *profile.InstrumentProfile, venue string) (*Schedule, error) {
	if p == nil {
		return nil, nil
	}
	if p.InlineDefinition() {
		if venue != "" {
			return nil, nil
		}
		return GetInstanceForDefinition(p.TradingHours)
	}
	key := p.ScheduleKey()
	if key == "" {
		return nil, nil
	}
	if venue != "" {
		key = key + "." + venue
	}
	def, ok := currentDocument().lookup(key)
	if !ok {
		return nil, nil
	}
	return buildNamed(key, def)
}

// GetInstanceForDefinition returns the schedule for a definition string or
// defaults-document key, or (nil, nil) when it resolves to nothing.
func GetInstanceForDefinition(definition string) (*Schedule, error) {
	definition = strings.TrimSpace(definition)
	if definition == "" {
		return nil, nil
	}
	if !strings.Contains(definition, "=") {
		def, ok := currentDocument().lookup(definition)
		if !ok {
			return nil, nil
		}
		return buildNamed(definition, def)
	}
	return buildNamed("", definition)
}

// TradingVenues returns the venue identifiers the defaults document knows
// for a profile's schedule key, in sorted order. The result is empty when
// the profile resolves inline or to nothing.
func TradingVenues(p *profile.InstrumentProfile) []string {
	key := p.ScheduleKey()
	if key == "" {
		return nil
	}
	return currentDocument().venues(key)
}

// buildNamed materializes a definition into a schedule. A definition that
// does not parse is an unresolvable schedule (nil, nil); a fact sequence
// violating structural invariants is a loud error.
func buildNamed(key, definition string) (*Schedule, error) {
	def, err := ParseDefinition(definition)
	if err != nil {
		return nil, nil
	}
	facts, err := def.Materialize()
	if err != nil {
		return nil, nil
	}
	name := def.Name
	if name == "" {
		name = key
	}
	return NewSchedule(name, def.TimeZone, def.displayName(), facts)
}
