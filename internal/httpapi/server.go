// Package httpapi serves the calendar query API over HTTP.
package httpapi

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"sync"

	"tradecal/internal/profile"
	"tradecal/internal/schedule"
)

// maxDefaultsBody bounds uploaded defaults documents.
const maxDefaultsBody = 8 << 20

// Server serves schedule queries for a set of named schedules. Schedules are
// immutable; the map is guarded so defaults updates can rebuild entries while
// queries are in flight.
type Server struct {
	mu        sync.RWMutex
	schedules map[string]*schedule.Schedule
	log       *slog.Logger
}

// NewServer creates a Server with no schedules loaded.
func NewServer(log *slog.Logger) *Server {
	return &Server{
		schedules: make(map[string]*schedule.Schedule),
		log:       log,
	}
}

// AddSchedule registers (or replaces) a schedule under its name.
func (s *Server) AddSchedule(sched *schedule.Schedule) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.schedules[sched.Name()] = sched
}

func (s *Server) schedule(name string) *schedule.Schedule {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.schedules[name]
}

// RegisterRoutes registers all API routes on the given mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/schedules", s.handleSchedules)
	mux.HandleFunc("GET /api/v1/schedules/{name}", s.handleSchedule)
	mux.HandleFunc("GET /api/v1/schedules/{name}/day", s.handleDay)
	mux.HandleFunc("GET /api/v1/schedules/{name}/session", s.handleSession)
	mux.HandleFunc("GET /api/v1/venues", s.handleVenues)
	mux.HandleFunc("POST /api/v1/defaults", s.handleDefaults)
}

// Handler returns an http.Handler with CORS middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return corsMiddleware(mux)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encoding JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// ---------------------------------------------------------------------------
// Handlers
// ---------------------------------------------------------------------------

func (s *Server) handleSchedules(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	names := make([]string, 0, len(s.schedules))
	for name := range s.schedules {
		names = append(names, name)
	}
	sort.Strings(names)
	resp := SchedulesResponse{Schedules: make([]ScheduleJSON, 0, len(names))}
	for _, name := range names {
		resp.Schedules = append(resp.Schedules, convertSchedule(s.schedules[name]))
	}
	s.mu.RUnlock()

	writeJSON(w, resp)
}

func (s *Server) handleSchedule(w http.ResponseWriter, r *http.Request) {
	sched := s.schedule(r.PathValue("name"))
	if sched == nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown schedule %q", r.PathValue("name")))
		return
	}
	writeJSON(w, convertSchedule(sched))
}

// handleDay answers a day lookup by exactly one of the time, id, or ymd
// query parameters.
func (s *Server) handleDay(w http.ResponseWriter, r *http.Request) {
	sched := s.schedule(r.PathValue("name"))
	if sched == nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown schedule %q", r.PathValue("name")))
		return
	}

	q := r.URL.Query()
	set := 0
	for _, k := range []string{"time", "id", "ymd"} {
		if q.Has(k) {
			set++
		}
	}
	if set != 1 {
		writeError(w, http.StatusBadRequest, "exactly one of time, id, ymd is required")
		return
	}

	var day *schedule.Day
	switch {
	case q.Has("time"):
		t, err := strconv.ParseInt(q.Get("time"), 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "time must be Unix milliseconds")
			return
		}
		day = sched.GetDayByTime(t)
	case q.Has("id"):
		id, err := strconv.ParseInt(q.Get("id"), 10, 32)
		if err != nil {
			writeError(w, http.StatusBadRequest, "id must be a day identifier")
			return
		}
		day = sched.GetDayByID(int32(id))
	default:
		ymd, err := strconv.ParseInt(q.Get("ymd"), 10, 32)
		if err != nil {
			writeError(w, http.StatusBadRequest, "ymd must be a YYYYMMDD number")
			return
		}
		day = sched.GetDayByYearMonthDay(int32(ymd))
	}

	if day == nil {
		writeError(w, http.StatusNotFound, "no day for the requested key")
		return
	}
	writeJSON(w, convertDay(day))
}

// handleSession answers a session lookup at a given instant. Without the
// nearest parameter it returns the session containing the instant. With
// nearest=strict or nearest=find it searches forward for a session accepted
// by the filter parameter; strict requires the instant to be inside the
// schedule's range, find also accepts instants before it.
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	sched := s.schedule(r.PathValue("name"))
	if sched == nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown schedule %q", r.PathValue("name")))
		return
	}

	q := r.URL.Query()
	t, err := strconv.ParseInt(q.Get("time"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "time must be Unix milliseconds")
		return
	}

	var sess *schedule.Session
	switch q.Get("nearest") {
	case "":
		if q.Has("filter") {
			writeError(w, http.StatusBadRequest, "filter requires nearest=strict or nearest=find")
			return
		}
		sess = sched.GetSessionByTime(t)
	case "strict", "find":
		filter := schedule.FilterTrading
		if q.Has("filter") {
			filter, err = schedule.ParseFilter(q.Get("filter"))
			if err != nil {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
		}
		if q.Get("nearest") == "strict" {
			sess = sched.GetNearestSessionByTime(t, filter)
		} else {
			sess = sched.FindNearestSessionByTime(t, filter)
		}
	default:
		writeError(w, http.StatusBadRequest, "nearest must be strict or find")
		return
	}

	if sess == nil {
		writeError(w, http.StatusNotFound, "no session for the requested instant")
		return
	}
	day := sched.GetDayByTime(sess.StartTime())
	writeJSON(w, convertSession(day.DayID(), sess))
}

// handleVenues lists the trading venues the defaults document knows for an
// instrument profile described by the symbol, type, and hours query
// parameters.
func (s *Server) handleVenues(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	p := &profile.InstrumentProfile{
		Symbol:       q.Get("symbol"),
		Type:         q.Get("type"),
		TradingHours: q.Get("hours"),
	}
	venues := schedule.TradingVenues(p)
	if venues == nil {
		venues = []string{}
	}
	writeJSON(w, VenuesResponse{Key: p.ScheduleKey(), Venues: venues})
}

// handleDefaults replaces the process-wide defaults document. Schedules the
// server already holds are unaffected; only schedules built afterwards see
// the new document.
func (s *Server) handleDefaults(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxDefaultsBody+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "reading request body failed")
		return
	}
	if len(data) > maxDefaultsBody {
		writeError(w, http.StatusRequestEntityTooLarge, "defaults document too large")
		return
	}

	if !schedule.SetDefaults(data) {
		writeError(w, http.StatusUnprocessableEntity, "defaults document rejected")
		return
	}
	s.log.Info("defaults document updated", "bytes", len(data))
	writeJSON(w, DefaultsResponse{Accepted: true})
}
