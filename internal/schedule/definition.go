package schedule

import (
	"fmt"
	"strings"
	"time"
)

// Definition is the parsed form of a compact textual schedule definition.
// The grammar is a semicolon-separated list of key=value pairs:
//
//	name=NYSE;tz=America/New_York;range=2024-01-01..2026-01-01;days=Mon-Fri;
//	pre=04:00-09:30;reg=09:30-16:00;post=16:00-20:00;
//	hd=2024-01-01,2024-07-04;sd=2024-11-29:09:30-13:00;tzname=Eastern Time
//
// tz and reg are required. days defaults to Mon-Fri. hd lists full-day
// holidays; sd lists special days whose regular hours differ (half days),
// with pre and post following the shifted open and close. range bounds the
// materialized calendar as a half-open [start, end) and defaults to Jan 1
// of last year through Jan 1 two years ahead.
type Definition struct {
	Name         string
	TimeZone     string
	TimeZoneName string
	StartYMD     int32
	EndYMD       int32
	Weekdays     [7]bool
	Pre          *daySpan
	Reg          daySpan
	Post         *daySpan
	Holidays     map[int32]bool
	Special      map[int32]daySpan
}

// daySpan is a half-open wall-clock interval within one day, in minutes
// from local midnight.
type daySpan struct {
	startMin int
	endMin   int
}

var weekdayNames = map[string]time.Weekday{
	"sun": time.Sunday, "mon": time.Monday, "tue": time.Tuesday, "wed": time.Wednesday,
	"thu": time.Thursday, "fri": time.Friday, "sat": time.Saturday,
}

// ParseDefinition parses a schedule definition string.
func ParseDefinition(s string) (*Definition, error) {
	def := &Definition{
		Holidays: make(map[int32]bool),
		Special:  make(map[int32]daySpan),
	}
	var haveReg, haveDays, haveRange bool

	for _, tok := range strings.Split(s, ";") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		key, val, ok := strings.Cut(tok, "=")
		if !ok {
			return nil, fmt.Errorf("definition: %q is not key=value", tok)
		}
		key = strings.TrimSpace(key)
		val = strings.TrimSpace(val)
		switch key {
		case "name":
			def.Name = val
		case "tz":
			def.TimeZone = val
		case "tzname":
			def.TimeZoneName = val
		case "days":
			if err := parseWeekdays(val, &def.Weekdays); err != nil {
				return nil, err
			}
			haveDays = true
		case "pre":
			sp, err := parseDaySpan(val)
			if err != nil {
				return nil, fmt.Errorf("definition: pre: %w", err)
			}
			def.Pre = &sp
		case "reg":
			sp, err := parseDaySpan(val)
			if err != nil {
				return nil, fmt.Errorf("definition: reg: %w", err)
			}
			def.Reg = sp
			haveReg = true
		case "post":
			sp, err := parseDaySpan(val)
			if err != nil {
				return nil, fmt.Errorf("definition: post: %w", err)
			}
			def.Post = &sp
		case "hd":
			for _, ds := range strings.Split(val, ",") {
				ymd, err := parseDateYMD(strings.TrimSpace(ds))
				if err != nil {
					return nil, fmt.Errorf("definition: hd: %w", err)
				}
				def.Holidays[ymd] = true
			}
		case "sd":
			for _, item := range strings.Split(val, ",") {
				date, hours, ok := strings.Cut(strings.TrimSpace(item), ":")
				if !ok {
					return nil, fmt.Errorf("definition: sd: %q is not date:hours", item)
				}
				ymd, err := parseDateYMD(date)
				if err != nil {
					return nil, fmt.Errorf("definition: sd: %w", err)
				}
				sp, err := parseDaySpan(hours)
				if err != nil {
					return nil, fmt.Errorf("definition: sd %s: %w", date, err)
				}
				def.Special[ymd] = sp
			}
		case "range":
			from, to, ok := strings.Cut(val, "..")
			if !ok {
				return nil, fmt.Errorf("definition: range: %q is not from..to", val)
			}
			start, err := parseDateYMD(strings.TrimSpace(from))
			if err != nil {
				return nil, fmt.Errorf("definition: range: %w", err)
			}
			end, err := parseDateYMD(strings.TrimSpace(to))
			if err != nil {
				return nil, fmt.Errorf("definition: range: %w", err)
			}
			if start >= end {
				return nil, fmt.Errorf("definition: range %s is empty", val)
			}
			def.StartYMD, def.EndYMD = start, end
			haveRange = true
		default:
			return nil, fmt.Errorf("definition: unknown key %q", key)
		}
	}

	if def.TimeZone == "" {
		return nil, fmt.Errorf("definition: tz is required")
	}
	if !haveReg {
		return nil, fmt.Errorf("definition: reg is required")
	}
	if def.Pre != nil && def.Pre.endMin > def.Reg.startMin {
		return nil, fmt.Errorf("definition: pre overlaps regular hours")
	}
	if def.Post != nil && def.Post.startMin < def.Reg.endMin {
		return nil, fmt.Errorf("definition: post overlaps regular hours")
	}
	if !haveDays {
		for wd := time.Monday; wd <= time.Friday; wd++ {
			def.Weekdays[wd] = true
		}
	}
	if !haveRange {
		year := time.Now().Year()
		def.StartYMD = ymdFromCivil(year-1, time.January, 1)
		def.EndYMD = ymdFromCivil(year+2, time.January, 1)
	}
	return def, nil
}

func parseWeekdays(val string, out *[7]bool) error {
	if from, to, ok := strings.Cut(val, "-"); ok {
		a, okA := weekdayNames[strings.ToLower(strings.TrimSpace(from))]
		b, okB := weekdayNames[strings.ToLower(strings.TrimSpace(to))]
		if !okA || !okB {
			return fmt.Errorf("definition: days: bad weekday range %q", val)
		}
		for wd := a; ; wd = (wd + 1) % 7 {
			out[wd] = true
			if wd == b {
				return nil
			}
		}
	}
	for _, name := range strings.Split(val, ",") {
		wd, ok := weekdayNames[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return fmt.Errorf("definition: days: bad weekday %q", name)
		}
		out[wd] = true
	}
	return nil
}

// parseDaySpan parses "HH:MM-HH:MM" into minutes from midnight. 24:00 is
// accepted as an end bound.
func parseDaySpan(val string) (daySpan, error) {
	from, to, ok := strings.Cut(val, "-")
	if !ok {
		return daySpan{}, fmt.Errorf("%q is not HH:MM-HH:MM", val)
	}
	start, err := parseMinutes(from)
	if err != nil {
		return daySpan{}, err
	}
	end, err := parseMinutes(to)
	if err != nil {
		return daySpan{}, err
	}
	if start >= end || end > 24*60 {
		return daySpan{}, fmt.Errorf("%q is empty or out of order", val)
	}
	return daySpan{startMin: start, endMin: end}, nil
}

func parseMinutes(val string) (int, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(val))
	if err != nil {
		if strings.TrimSpace(val) == "24:00" {
			return 24 * 60, nil
		}
		return 0, fmt.Errorf("bad time of day %q", val)
	}
	return t.Hour()*60 + t.Minute(), nil
}

func parseDateYMD(val string) (int32, error) {
	t, err := time.Parse("2006-01-02", val)
	if err != nil {
		return 0, fmt.Errorf("bad date %q", val)
	}
	return ymdFromCivil(t.Year(), t.Month(), t.Day()), nil
}

// displayName returns the configured time zone display name, falling back
// to the zone identifier.
func (def *Definition) displayName() string {
	if def.TimeZoneName != "" {
		return def.TimeZoneName
	}
	return def.TimeZone
}

// typedSpan pairs a wall-clock span with its session type during
// materialization.
type typedSpan struct {
	daySpan
	sessionType SessionType
}

// Materialize expands the definition into an ordered, contiguous day fact
// sequence: one day per civil date of the range, midnight to midnight in
// the definition's time zone, clamped to the valid civil date range.
func (def *Definition) Materialize() ([]DayFact, error) {
	loc, err := time.LoadLocation(def.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("definition: loading time zone %q: %w", def.TimeZone, err)
	}

	startID := dayIDFromYMDClamped(def.StartYMD)
	endID := dayIDFromYMDClamped(def.EndYMD)
	if startID < minDayID {
		startID = minDayID
	}
	if endID > maxDayID+1 {
		endID = maxDayID + 1
	}
	if startID >= endID {
		return nil, fmt.Errorf("definition: empty range after clamping")
	}

	facts := make([]DayFact, 0, endID-startID)
	y, m, d := civilFromDayID(startID)
	dayStart := time.Date(y, m, d, 0, 0, 0, 0, loc)
	for id := startID; id < endID; id++ {
		y, m, d := civilFromDayID(id)
		dayEnd := time.Date(y, m, d+1, 0, 0, 0, 0, loc)
		ymd := ymdFromCivil(y, m, d)

		fact := DayFact{
			DayID:        id,
			YearMonthDay: ymd,
			StartTime:    dayStart.UnixMilli(),
			EndTime:      dayEnd.UnixMilli(),
		}
		fact.Sessions = def.materializeSessions(ymd, dayStart.Weekday(), y, m, d, loc, fact.StartTime, fact.EndTime)
		facts = append(facts, fact)
		dayStart = dayEnd
	}
	return facts, nil
}

// materializeSessions builds the gap-free session sequence for one day.
func (def *Definition) materializeSessions(ymd int32, wd time.Weekday, y int, m time.Month, d int, loc *time.Location, dayStart, dayEnd int64) []SessionFact {
	if !def.Weekdays[wd] || def.Holidays[ymd] {
		return []SessionFact{{StartTime: dayStart, EndTime: dayEnd, Type: SessionTypeNoTrading}}
	}

	reg := def.Reg
	if sp, ok := def.Special[ymd]; ok {
		reg = sp
	}
	// Pre-market runs until the open and after-market from the close, so on
	// special days both follow the shifted regular session.
	var spans []typedSpan
	if def.Pre != nil && def.Pre.startMin < reg.startMin {
		spans = append(spans, typedSpan{daySpan{def.Pre.startMin, reg.startMin}, SessionTypePreMarket})
	}
	spans = append(spans, typedSpan{reg, SessionTypeRegular})
	if def.Post != nil && def.Post.endMin > reg.endMin {
		spans = append(spans, typedSpan{daySpan{reg.endMin, def.Post.endMin}, SessionTypeAfterMarket})
	}

	// Wall-clock minute to instant. DST shifts make some wall times
	// ambiguous or nonexistent; time.Date resolves them, and results are
	// clamped below to keep the sequence monotonic.
	instant := func(minute int) int64 {
		return time.Date(y, m, d, minute/60, minute%60, 0, 0, loc).UnixMilli()
	}

	var sessions []SessionFact
	cursor := dayStart
	push := func(end int64, st SessionType) {
		if end > dayEnd {
			end = dayEnd
		}
		if end <= cursor {
			return
		}
		sessions = append(sessions, SessionFact{StartTime: cursor, EndTime: end, Type: st})
		cursor = end
	}
	for _, sp := range spans {
		push(instant(sp.startMin), SessionTypeNoTrading)
		push(instant(sp.endMin), sp.sessionType)
	}
	push(dayEnd, SessionTypeNoTrading)
	return sessions
}

// dayIDFromYMDClamped converts a YearMonthDay key to a day identifier. The
// components need not form an existing date; out-of-range components are
// normalized by civil arithmetic.
func dayIDFromYMDClamped(ymd int32) int32 {
	y, m, d := splitYMD(ymd)
	return dayIDFromCivil(y, m, d)
}
