// Package tradecal provides a Go SDK for the tradecal-server API.
package tradecal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Schedule is schedule metadata as served by the API.
type Schedule struct {
	Name         string `json:"name"`
	TimeZone     string `json:"time_zone"`
	TimeZoneName string `json:"time_zone_name,omitempty"`
	DayCount     int    `json:"day_count"`
	FirstDayID   int32  `json:"first_day_id"`
	LastDayID    int32  `json:"last_day_id"`
}

// Session is a half-open trading session interval. Times are Unix
// milliseconds.
type Session struct {
	DayID     int32  `json:"day_id"`
	StartTime int64  `json:"start_time"`
	EndTime   int64  `json:"end_time"`
	Type      string `json:"type"`
	Trading   bool   `json:"trading"`
}

// Day is one schedule day with its session partition.
type Day struct {
	DayID        int32     `json:"day_id"`
	YearMonthDay int32     `json:"year_month_day"`
	StartTime    int64     `json:"start_time"`
	EndTime      int64     `json:"end_time"`
	Trading      bool      `json:"trading"`
	Sessions     []Session `json:"sessions"`
}

type schedulesResponse struct {
	Schedules []Schedule `json:"schedules"`
}

type venuesResponse struct {
	Key    string   `json:"key"`
	Venues []string `json:"venues"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Client calls the tradecal-server HTTP API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new tradecal API client.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// ListSchedules returns metadata for every schedule the server serves.
func (c *Client) ListSchedules(ctx context.Context) ([]Schedule, error) {
	var resp schedulesResponse
	if err := c.get(ctx, "/api/v1/schedules", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Schedules, nil
}

// GetSchedule returns metadata for one schedule, or (nil, nil) when the
// server does not know it.
func (c *Client) GetSchedule(ctx context.Context, name string) (*Schedule, error) {
	var s Schedule
	ok, err := c.getMaybe(ctx, "/api/v1/schedules/"+url.PathEscape(name), nil, &s)
	if err != nil || !ok {
		return nil, err
	}
	return &s, nil
}

// DayByTime returns the day containing the instant t (Unix ms), or
// (nil, nil) when t lies outside the schedule.
func (c *Client) DayByTime(ctx context.Context, name string, t int64) (*Day, error) {
	return c.day(ctx, name, url.Values{"time": {strconv.FormatInt(t, 10)}})
}

// DayByID returns the day with the given day identifier, or (nil, nil).
func (c *Client) DayByID(ctx context.Context, name string, dayID int32) (*Day, error) {
	return c.day(ctx, name, url.Values{"id": {strconv.FormatInt(int64(dayID), 10)}})
}

// DayByYearMonthDay returns the day for a YYYYMMDD key, forward-rounding to
// the next existing day, or (nil, nil) when none follows.
func (c *Client) DayByYearMonthDay(ctx context.Context, name string, ymd int32) (*Day, error) {
	return c.day(ctx, name, url.Values{"ymd": {strconv.FormatInt(int64(ymd), 10)}})
}

func (c *Client) day(ctx context.Context, name string, q url.Values) (*Day, error) {
	var d Day
	ok, err := c.getMaybe(ctx, "/api/v1/schedules/"+url.PathEscape(name)+"/day", q, &d)
	if err != nil || !ok {
		return nil, err
	}
	return &d, nil
}

// SessionByTime returns the session containing the instant t, or (nil, nil)
// when t lies outside the schedule.
func (c *Client) SessionByTime(ctx context.Context, name string, t int64) (*Session, error) {
	q := url.Values{"time": {strconv.FormatInt(t, 10)}}
	return c.session(ctx, name, q)
}

// NearestSession searches forward from t for a session accepted by the named
// filter ("any", "trading", "regular", ...). With strict set, t must lie
// inside the schedule's range; otherwise instants before the range are also
// accepted. Returns (nil, nil) when no session is found.
func (c *Client) NearestSession(ctx context.Context, name string, t int64, filter string, strict bool) (*Session, error) {
	q := url.Values{"time": {strconv.FormatInt(t, 10)}}
	if strict {
		q.Set("nearest", "strict")
	} else {
		q.Set("nearest", "find")
	}
	if filter != "" {
		q.Set("filter", filter)
	}
	return c.session(ctx, name, q)
}

func (c *Client) session(ctx context.Context, name string, q url.Values) (*Session, error) {
	var s Session
	ok, err := c.getMaybe(ctx, "/api/v1/schedules/"+url.PathEscape(name)+"/session", q, &s)
	if err != nil || !ok {
		return nil, err
	}
	return &s, nil
}

// TradingVenues returns the venue identifiers known for a schedule key
// (an instrument type or a defaults-document key).
func (c *Client) TradingVenues(ctx context.Context, key string) ([]string, error) {
	var resp venuesResponse
	if err := c.get(ctx, "/api/v1/venues", url.Values{"type": {key}}, &resp); err != nil {
		return nil, err
	}
	return resp.Venues, nil
}

// SetDefaults uploads a defaults document to the server. It reports whether
// the server accepted the document; a rejected document is not an error.
func (c *Client) SetDefaults(ctx context.Context, doc []byte) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/v1/defaults", bytes.NewReader(doc))
	if err != nil {
		return false, err
	}
	req.Header.Set("Content-Type", "text/plain")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusUnprocessableEntity:
		return false, nil
	default:
		return false, apiError(resp)
	}
}

// ---------------------------------------------------------------------------
// HTTP plumbing
// ---------------------------------------------------------------------------

// get performs a GET and decodes the response; any non-200 status is an
// error.
func (c *Client) get(ctx context.Context, path string, q url.Values, v any) error {
	ok, err := c.getMaybe(ctx, path, q, v)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("GET %s: not found", path)
	}
	return nil
}

// getMaybe performs a GET and decodes the response. A 404 is reported as
// (false, nil) so lookup misses map onto the (nil, nil) convention.
func (c *Client) getMaybe(ctx context.Context, path string, q url.Values, v any) (bool, error) {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return false, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
			return false, fmt.Errorf("decoding %s response: %w", path, err)
		}
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, apiError(resp)
	}
}

func apiError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var e errorResponse
	if json.Unmarshal(body, &e) == nil && e.Error != "" {
		return fmt.Errorf("%s %s: %s (status %d)",
			resp.Request.Method, resp.Request.URL.Path, e.Error, resp.StatusCode)
	}
	return fmt.Errorf("%s %s: status %d",
		resp.Request.Method, resp.Request.URL.Path, resp.StatusCode)
}
