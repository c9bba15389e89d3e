package schedule

import (
	"fmt"
	"sort"
)

// scheduleIndex holds the ordered day sequence of one schedule together with
// its lookup structures. Days form a gap-free, non-overlapping partition of
// the covered range; dayIDs are contiguous, so the dayID lookup is a plain
// offset and the time and yearMonthDay lookups are binary searches.
type scheduleIndex struct {
	days []*Day
}

// buildIndex constructs the index from an ordered fact sequence, validating
// every contiguity and monotonicity invariant. A violation here is a defect
// in the fact source and fails construction before any query can observe an
// inconsistent schedule.
func buildIndex(facts []DayFact) (*scheduleIndex, error) {
	if len(facts) == 0 {
		return nil, fmt.Errorf("schedule: no days")
	}
	idx := &scheduleIndex{days: make([]*Day, 0, len(facts))}
	for i, f := range facts {
		d, err := newDay(f)
		if err != nil {
			return nil, fmt.Errorf("schedule: %w", err)
		}
		if i > 0 {
			prev := idx.days[i-1]
			if d.dayID != prev.dayID+1 {
				return nil, fmt.Errorf("schedule: dayID jumps from %d to %d", prev.dayID, d.dayID)
			}
			if d.startTime != prev.endTime {
				return nil, fmt.Errorf("schedule: day %d starts at %d, want %d (gap or overlap)",
					d.dayID, d.startTime, prev.endTime)
			}
			if d.yearMonthDay <= prev.yearMonthDay {
				return nil, fmt.Errorf("schedule: yearMonthDay not increasing at day %d", d.dayID)
			}
		}
		idx.days = append(idx.days, d)
	}
	return idx, nil
}

// dayByTime returns the day whose interval contains t, or nil when t lies
// outside the covered range.
func (x *scheduleIndex) dayByTime(t int64) *Day {
	n := len(x.days)
	if n == 0 || t < x.days[0].startTime || t >= x.days[n-1].endTime {
		return nil
	}
	i := sort.Search(n, func(i int) bool { return x.days[i].endTime > t })
	return x.days[i]
}

// dayByID returns the day with the given identifier, or nil when it is not
// covered. DayIDs are contiguous so this is a bounds-checked offset.
func (x *scheduleIndex) dayByID(id int32) *Day {
	if len(x.days) == 0 || id < minDayID || id > maxDayID {
		return nil
	}
	off := int(id) - int(x.days[0].dayID)
	if off < 0 || off >= len(x.days) {
		return nil
	}
	return x.days[off]
}

// dayByYearMonthDay returns the day with the given key. When no day carries
// the exact key (a calendar gap or an invalid date), it forward-rounds to
// the day with the smallest key strictly greater than the requested one.
func (x *scheduleIndex) dayByYearMonthDay(ymd int32) *Day {
	if ymd < minYearMonthDay || ymd > maxYearMonthDay {
		return nil
	}
	i := sort.Search(len(x.days), func(i int) bool { return x.days[i].yearMonthDay >= ymd })
	if i == len(x.days) {
		return nil
	}
	return x.days[i]
}
