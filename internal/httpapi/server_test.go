package httpapi

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"tradecal/internal/schedule"
)

const testDefinition = "name=NYSE;tz=America/New_York;tzname=Eastern Time;days=Mon-Fri;" +
	"pre=04:00-09:30;reg=09:30-16:00;post=16:00-20:00;" +
	"hd=2024-01-01,2024-07-04;range=2024-01-01..2025-01-01"

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	sched, err := schedule.GetInstanceForDefinition(testDefinition)
	if err != nil || sched == nil {
		t.Fatalf("building test schedule: %v", err)
	}

	s := NewServer(slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.AddSchedule(sched)

	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func getJSON(t *testing.T, url string, wantStatus int, v any) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != wantStatus {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("GET %s: status %d, want %d (body %s)", url, resp.StatusCode, wantStatus, body)
	}
	if v != nil {
		if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
			t.Fatalf("decoding %s response: %v", url, err)
		}
	}
}

func easternMillis(t *testing.T, year int, month time.Month, day, hour, min int) int64 {
	t.Helper()
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatal(err)
	}
	return time.Date(year, month, day, hour, min, 0, 0, loc).UnixMilli()
}

func TestListSchedules(t *testing.T) {
	ts := newTestServer(t)

	var resp SchedulesResponse
	getJSON(t, ts.URL+"/api/v1/schedules", http.StatusOK, &resp)
	if len(resp.Schedules) != 1 {
		t.Fatalf("len(schedules) = %d, want 1", len(resp.Schedules))
	}
	s := resp.Schedules[0]
	if s.Name != "NYSE" {
		t.Errorf("Name = %q, want NYSE", s.Name)
	}
	if s.TimeZone != "America/New_York" {
		t.Errorf("TimeZone = %q, want America/New_York", s.TimeZone)
	}
	if s.DayCount != 366 {
		t.Errorf("DayCount = %d, want 366", s.DayCount)
	}
	if s.LastDayID-s.FirstDayID != 365 {
		t.Errorf("day id span = %d, want 365", s.LastDayID-s.FirstDayID)
	}
}

func TestGetSchedule(t *testing.T) {
	ts := newTestServer(t)

	var s ScheduleJSON
	getJSON(t, ts.URL+"/api/v1/schedules/NYSE", http.StatusOK, &s)
	if s.Name != "NYSE" || s.TimeZoneName != "Eastern Time" {
		t.Errorf("schedule = %+v", s)
	}

	getJSON(t, ts.URL+"/api/v1/schedules/NOPE", http.StatusNotFound, nil)
}

func TestDayLookup(t *testing.T) {
	ts := newTestServer(t)
	base := ts.URL + "/api/v1/schedules/NYSE/day"

	noon := easternMillis(t, 2024, time.July, 3, 12, 0)

	var byTime DayJSON
	getJSON(t, base+"?time="+itoa(noon), http.StatusOK, &byTime)
	if byTime.YearMonthDay != 20240703 {
		t.Errorf("day by time ymd = %d, want 20240703", byTime.YearMonthDay)
	}
	if !byTime.Trading {
		t.Error("July 3 2024 should be a trading day")
	}
	if len(byTime.Sessions) == 0 {
		t.Error("day has no sessions")
	}

	var byID DayJSON
	getJSON(t, base+"?id="+itoa(int64(byTime.DayID)), http.StatusOK, &byID)
	if byID.YearMonthDay != byTime.YearMonthDay {
		t.Errorf("day by id ymd = %d, want %d", byID.YearMonthDay, byTime.YearMonthDay)
	}

	var byYMD DayJSON
	getJSON(t, base+"?ymd=20240704", http.StatusOK, &byYMD)
	if byYMD.Trading {
		t.Error("July 4 2024 should be a holiday")
	}

	// Non-existent ymd forward-rounds to the next existing day.
	var rounded DayJSON
	getJSON(t, base+"?ymd=20240230", http.StatusOK, &rounded)
	if rounded.YearMonthDay != 20240301 {
		t.Errorf("forward-rounded ymd = %d, want 20240301", rounded.YearMonthDay)
	}

	// Parameter validation.
	getJSON(t, base, http.StatusBadRequest, nil)
	getJSON(t, base+"?time=1&id=2", http.StatusBadRequest, nil)
	getJSON(t, base+"?time=abc", http.StatusBadRequest, nil)

	// Out of range.
	getJSON(t, base+"?ymd=20990101", http.StatusNotFound, nil)
}

func TestSessionLookup(t *testing.T) {
	ts := newTestServer(t)
	base := ts.URL + "/api/v1/schedules/NYSE/session"

	// Mid regular session on a trading day.
	noon := easternMillis(t, 2024, time.July, 3, 12, 0)
	var sess SessionJSON
	getJSON(t, base+"?time="+itoa(noon), http.StatusOK, &sess)
	if sess.Type != string(schedule.SessionTypeRegular) {
		t.Errorf("session type = %q, want regular", sess.Type)
	}
	if noon < sess.StartTime || noon >= sess.EndTime {
		t.Errorf("session [%d, %d) does not contain %d", sess.StartTime, sess.EndTime, noon)
	}

	// Saturday noon, nearest trading session is Monday pre-market open.
	saturday := easternMillis(t, 2024, time.July, 6, 12, 0)
	var nearest SessionJSON
	getJSON(t, base+"?time="+itoa(saturday)+"&nearest=strict", http.StatusOK, &nearest)
	monPre := easternMillis(t, 2024, time.July, 8, 4, 0)
	if nearest.StartTime != monPre {
		t.Errorf("nearest session start = %d, want %d (Monday 04:00 ET)", nearest.StartTime, monPre)
	}

	// Regular-only filter skips the pre-market session.
	var regular SessionJSON
	getJSON(t, base+"?time="+itoa(saturday)+"&nearest=strict&filter=regular", http.StatusOK, &regular)
	if regular.Type != string(schedule.SessionTypeRegular) {
		t.Errorf("filtered session type = %q, want regular", regular.Type)
	}

	// Before the schedule range: strict misses, find succeeds.
	before := easternMillis(t, 2023, time.June, 1, 12, 0)
	getJSON(t, base+"?time="+itoa(before)+"&nearest=strict", http.StatusNotFound, nil)
	var found SessionJSON
	getJSON(t, base+"?time="+itoa(before)+"&nearest=find", http.StatusOK, &found)
	firstPre := easternMillis(t, 2024, time.January, 2, 4, 0)
	if found.StartTime != firstPre {
		t.Errorf("found session start = %d, want %d (Jan 2 04:00 ET)", found.StartTime, firstPre)
	}

	// Parameter validation.
	getJSON(t, base+"?time="+itoa(noon)+"&filter=regular", http.StatusBadRequest, nil)
	getJSON(t, base+"?time="+itoa(noon)+"&nearest=bogus", http.StatusBadRequest, nil)
	getJSON(t, base+"?time="+itoa(saturday)+"&nearest=strict&filter=bogus", http.StatusBadRequest, nil)
}

func TestDefaultsUpdateAndVenues(t *testing.T) {
	ts := newTestServer(t)

	// Unknown key yields an empty venue list.
	var empty VenuesResponse
	getJSON(t, ts.URL+"/api/v1/venues?type=UNKNOWN", http.StatusOK, &empty)
	if len(empty.Venues) != 0 {
		t.Errorf("venues for unknown key = %v, want empty", empty.Venues)
	}

	doc := "TESTTYPE.AAA=tz=UTC;reg=08:00-16:00\n" +
		"TESTTYPE.BBB=tz=UTC;reg=09:00-17:00\n"
	resp, err := http.Post(ts.URL+"/api/v1/defaults", "text/plain", strings.NewReader(doc))
	if err != nil {
		t.Fatalf("POST defaults: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("POST defaults status = %d, want 200", resp.StatusCode)
	}

	var venues VenuesResponse
	getJSON(t, ts.URL+"/api/v1/venues?type=TESTTYPE", http.StatusOK, &venues)
	if venues.Key != "TESTTYPE" {
		t.Errorf("venues key = %q, want TESTTYPE", venues.Key)
	}
	if len(venues.Venues) != 2 || venues.Venues[0] != "AAA" || venues.Venues[1] != "BBB" {
		t.Errorf("venues = %v, want [AAA BBB]", venues.Venues)
	}

	// The hours parameter takes precedence over type as the schedule key.
	getJSON(t, ts.URL+"/api/v1/venues?type=OTHER&hours=TESTTYPE", http.StatusOK, &venues)
	if len(venues.Venues) != 2 {
		t.Errorf("venues by hours key = %v, want [AAA BBB]", venues.Venues)
	}

	// A malformed document is rejected and leaves the current one in place.
	resp, err = http.Post(ts.URL+"/api/v1/defaults", "text/plain", strings.NewReader("not a document"))
	if err != nil {
		t.Fatalf("POST bad defaults: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("POST bad defaults status = %d, want 422", resp.StatusCode)
	}
	getJSON(t, ts.URL+"/api/v1/venues?type=TESTTYPE", http.StatusOK, &venues)
	if len(venues.Venues) != 2 {
		t.Errorf("venues after rejected update = %v, want [AAA BBB]", venues.Venues)
	}
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}
