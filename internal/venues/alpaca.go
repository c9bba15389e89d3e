// Package venues imports trading calendars from external venue APIs and
// converts them to hours definitions.
package venues

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"

	"tradecal/internal/schedule"
	"tradecal/internal/util"
)

// Standard XNYS session bounds. Calendar days deviating from these become
// short-day overrides in the generated definition.
const (
	standardOpen  = "09:30"
	standardClose = "16:00"
	preStart      = "04:00"
	postEnd       = "20:00"
)

// calendarAPI is the slice of the Alpaca client the importer needs.
// *alpaca.Client satisfies it.
type calendarAPI interface {
	GetCalendar(req alpaca.GetCalendarRequest) ([]alpaca.CalendarDay, error)
}

var _ calendarAPI = (*alpaca.Client)(nil)

// CalendarImporter fetches the Alpaca trading calendar and converts it to an
// hours definition that materializes the same trading days.
type CalendarImporter struct {
	client     calendarAPI
	limiter    *util.RateLimiter
	logger     *slog.Logger
	retryDelay time.Duration
}

// NewCalendarImporter creates an importer backed by the Alpaca trading API.
func NewCalendarImporter(apiKey, apiSecret, baseURL string, logger *slog.Logger) *CalendarImporter {
	client := alpaca.NewClient(alpaca.ClientOpts{
		APIKey:    apiKey,
		APISecret: apiSecret,
		BaseURL:   baseURL,
	})
	return &CalendarImporter{
		client:     client,
		limiter:    util.NewRateLimiter(200),
		logger:     logger,
		retryDelay: time.Second,
	}
}

// ImportDefinition fetches the trading calendar for [start, end] and returns
// an hours definition for the named schedule. Weekdays missing from the
// calendar become holidays; days whose open or close deviates from the
// standard session become short-day overrides.
func (i *CalendarImporter) ImportDefinition(ctx context.Context, name string, start, end time.Time) (string, error) {
	if err := i.limiter.Wait(ctx); err != nil {
		return "", err
	}

	var calendar []alpaca.CalendarDay
	err := util.Retry(ctx, 3, i.retryDelay, func() error {
		var err error
		calendar, err = i.client.GetCalendar(alpaca.GetCalendarRequest{
			Start: start,
			End:   end,
		})
		return err
	})
	if err != nil {
		return "", fmt.Errorf("fetching trading calendar: %w", err)
	}
	if len(calendar) == 0 {
		return "", fmt.Errorf("trading calendar is empty for %s..%s",
			start.Format("2006-01-02"), end.Format("2006-01-02"))
	}

	i.logger.Info("imported trading calendar",
		"name", name,
		"days", len(calendar),
		"first", calendar[0].Date,
		"last", calendar[len(calendar)-1].Date)

	return buildDefinition(name, calendar, start, end), nil
}

// ImportSchedule fetches the trading calendar and builds a schedule from the
// resulting definition.
func (i *CalendarImporter) ImportSchedule(ctx context.Context, name string, start, end time.Time) (*schedule.Schedule, error) {
	def, err := i.ImportDefinition(ctx, name, start, end)
	if err != nil {
		return nil, err
	}
	s, err := schedule.GetInstanceForDefinition(def)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, fmt.Errorf("generated definition did not produce a schedule")
	}
	return s, nil
}

// buildDefinition converts a list of trading calendar days into an hours
// definition string.
func buildDefinition(name string, calendar []alpaca.CalendarDay, start, end time.Time) string {
	open := make(map[string]alpaca.CalendarDay, len(calendar))
	for _, d := range calendar {
		open[d.Date] = d
	}

	var holidays, shortDays []string
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		wd := d.Weekday()
		if wd == time.Saturday || wd == time.Sunday {
			continue
		}
		date := d.Format("2006-01-02")
		day, ok := open[date]
		if !ok {
			holidays = append(holidays, date)
			continue
		}
		if day.Open != standardOpen || day.Close != standardClose {
			shortDays = append(shortDays, fmt.Sprintf("%s:%s-%s", date, day.Open, day.Close))
		}
	}
	sort.Strings(holidays)
	sort.Strings(shortDays)

	var b strings.Builder
	fmt.Fprintf(&b, "name=%s;tz=America/New_York;tzname=Eastern Time;days=Mon-Fri", name)
	fmt.Fprintf(&b, ";pre=%s-%s;reg=%s-%s;post=%s-%s",
		preStart, standardOpen, standardOpen, standardClose, standardClose, postEnd)
	// The definition range end is exclusive; extend by one day so the last
	// calendar day is materialized.
	fmt.Fprintf(&b, ";range=%s..%s", start.Format("2006-01-02"), end.AddDate(0, 0, 1).Format("2006-01-02"))
	if len(holidays) > 0 {
		fmt.Fprintf(&b, ";hd=%s", strings.Join(holidays, ","))
	}
	if len(shortDays) > 0 {
		fmt.Fprintf(&b, ";sd=%s", strings.Join(shortDays, ","))
	}
	return b.String()
}
