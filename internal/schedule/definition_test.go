package schedule

import (
	"testing"
	"time"
)

func TestParseDefinition(t *testing.T) {
	def, err := ParseDefinition(testDefinition)
	if err != nil {
		t.Fatalf("ParseDefinition: %v", err)
	}
	if def.Name != "NYSE" || def.TimeZone != "America/New_York" {
		t.Errorf("parsed name/tz = %q/%q", def.Name, def.TimeZone)
	}
	if def.TimeZoneName != "Eastern Time" {
		t.Errorf("parsed tzname = %q", def.TimeZoneName)
	}
	if !def.Weekdays[time.Monday] || !def.Weekdays[time.Friday] || def.Weekdays[time.Saturday] {
		t.Errorf("parsed weekdays = %v", def.Weekdays)
	}
	if def.Pre == nil || def.Pre.startMin != 4*60 || def.Pre.endMin != 9*60+30 {
		t.Errorf("parsed pre = %+v", def.Pre)
	}
	if def.Reg.startMin != 9*60+30 || def.Reg.endMin != 16*60 {
		t.Errorf("parsed reg = %+v", def.Reg)
	}
	if !def.Holidays[20240704] {
		t.Error("holiday 2024-07-04 not parsed")
	}
	if sp, ok := def.Special[20241129]; !ok || sp.endMin != 13*60 {
		t.Errorf("special day 2024-11-29 = %+v, %v", sp, ok)
	}
	if def.StartYMD != 20240101 || def.EndYMD != 20250101 {
		t.Errorf("parsed range = %d..%d", def.StartYMD, def.EndYMD)
	}
}

func TestParseDefinitionDefaults(t *testing.T) {
	def, err := ParseDefinition("tz=UTC;reg=09:00-17:00")
	if err != nil {
		t.Fatalf("ParseDefinition: %v", err)
	}
	for wd := time.Monday; wd <= time.Friday; wd++ {
		if !def.Weekdays[wd] {
			t.Errorf("default weekdays missing %v", wd)
		}
	}
	if def.Weekdays[time.Saturday] || def.Weekdays[time.Sunday] {
		t.Error("default weekdays include the weekend")
	}
	if def.StartYMD >= def.EndYMD {
		t.Errorf("default range %d..%d is empty", def.StartYMD, def.EndYMD)
	}
	if def.displayName() != "UTC" {
		t.Errorf("displayName = %q, want tz fallback", def.displayName())
	}
}

func TestParseDefinitionErrors(t *testing.T) {
	bad := []string{
		"",
		"reg=09:30-16:00",                         // missing tz
		"tz=UTC",                                  // missing reg
		"tz=UTC;reg=16:00-09:30",                  // inverted hours
		"tz=UTC;reg=09:30-16:00;pre=05:00-10:00",  // pre overlaps reg
		"tz=UTC;reg=09:30-16:00;post=15:00-20:00", // post overlaps reg
		"tz=UTC;reg=09:30-16:00;days=Mon-Funday",
		"tz=UTC;reg=09:30-16:00;hd=July 4",
		"tz=UTC;reg=09:30-16:00;sd=2024-11-29",
		"tz=UTC;reg=09:30-16:00;range=2025-01-01..2024-01-01",
		"tz=UTC;reg=09:30-16:00;bogus=1",
		"just words",
	}
	for _, s := range bad {
		if _, err := ParseDefinition(s); err == nil {
			t.Errorf("ParseDefinition(%q) accepted invalid input", s)
		}
	}
}

func TestMaterializeWeekDayShape(t *testing.T) {
	def, err := ParseDefinition(testDefinition)
	if err != nil {
		t.Fatalf("ParseDefinition: %v", err)
	}
	facts, err := def.Materialize()
	if err != nil {
		t.Fatalf("Materialize: %v", err)
	}
	byYMD := make(map[int32]DayFact, len(facts))
	for _, f := range facts {
		byYMD[f.YearMonthDay] = f
	}

	// Ordinary weekday: overnight, pre, regular, after, evening.
	want := []SessionType{
		SessionTypeNoTrading, SessionTypePreMarket, SessionTypeRegular,
		SessionTypeAfterMarket, SessionTypeNoTrading,
	}
	f := byYMD[20240312]
	if len(f.Sessions) != len(want) {
		t.Fatalf("2024-03-12 has %d sessions, want %d", len(f.Sessions), len(want))
	}
	for i, s := range f.Sessions {
		if s.Type != want[i] {
			t.Errorf("2024-03-12 session %d = %v, want %v", i, s.Type, want[i])
		}
	}

	// Holiday and weekend: a single whole-day no-trading session.
	for _, ymd := range []int32{20240704, 20240316} {
		f := byYMD[ymd]
		if len(f.Sessions) != 1 || f.Sessions[0].Type != SessionTypeNoTrading {
			t.Errorf("%d sessions = %+v, want one no-trading session", ymd, f.Sessions)
		}
		if f.Sessions[0].StartTime != f.StartTime || f.Sessions[0].EndTime != f.EndTime {
			t.Errorf("%d no-trading session does not span the day", ymd)
		}
	}

	// Half day: the after-market follows the early close.
	f = byYMD[20241129]
	var regEnd, postStart int64
	for _, s := range f.Sessions {
		switch s.Type {
		case SessionTypeRegular:
			regEnd = s.EndTime
		case SessionTypeAfterMarket:
			postStart = s.StartTime
		}
	}
	if regEnd == 0 || regEnd != postStart {
		t.Errorf("half day: regular ends %d, after-market starts %d", regEnd, postStart)
	}
	if want := easternMillis(t, 2024, time.November, 29, 13, 0); regEnd != want {
		t.Errorf("half day close = %d, want %d", regEnd, want)
	}
}

func TestMaterializeClampsToValidRange(t *testing.T) {
	def, err := ParseDefinition("tz=UTC;reg=09:00-17:00;range=9999-12-01..9999-12-31")
	if err != nil {
		t.Fatalf("ParseDefinition: %v", err)
	}
	facts, err := def.Materialize()
	if err != nil {
		t.Fatalf("Materialize: %v", err)
	}
	last := facts[len(facts)-1]
	if last.YearMonthDay != maxYearMonthDay {
		t.Errorf("last materialized day = %d, want %d", last.YearMonthDay, maxYearMonthDay)
	}
	// The result still builds into a valid schedule.
	if _, err := NewSchedule("edge", "UTC", "UTC", facts); err != nil {
		t.Errorf("NewSchedule at range edge: %v", err)
	}
}
