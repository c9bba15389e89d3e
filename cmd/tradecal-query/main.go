// Command-line client for schedule queries, either against a running
// tradecal-server or locally from a definition string or defaults key.
//
// Usage:
//
//	tradecal-query -schedule NYSE [-time 2024-07-03T12:00:00Z | -ymd 20240703 | -id 19907]
//	tradecal-query -schedule NYSE -session -time ... [-nearest strict|find] [-filter regular]
//	tradecal-query -definition "tz=UTC;reg=08:00-16:00" -time ...
//	tradecal-query -venues STOCK
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"tradecal/internal/schedule"
	"tradecal/pkg/tradecal"
)

func main() {
	server := flag.String("server", "http://localhost:8080", "tradecal-server base URL")
	name := flag.String("schedule", "", "schedule name on the server")
	definition := flag.String("definition", "", "query locally from a definition string or defaults key")
	timeArg := flag.String("time", "", "instant as RFC 3339 or Unix milliseconds (default now)")
	ymd := flag.Int("ymd", 0, "day key as YYYYMMDD")
	id := flag.Int("id", 0, "day identifier")
	session := flag.Bool("session", false, "look up a session instead of a day")
	nearest := flag.String("nearest", "", "nearest-session search mode: strict or find")
	filter := flag.String("filter", "", "session filter for nearest search (any, trading, regular, ...)")
	venues := flag.String("venues", "", "list trading venues for a schedule key")
	flag.Parse()

	if *definition != "" {
		queryLocal(*definition, *timeArg, *ymd, *id, *session, *nearest, *filter)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	client := tradecal.NewClient(*server)

	if *venues != "" {
		vs, err := client.TradingVenues(ctx, *venues)
		if err != nil {
			log.Fatalf("listing venues: %v", err)
		}
		printJSON(vs)
		return
	}

	if *name == "" {
		schedules, err := client.ListSchedules(ctx)
		if err != nil {
			log.Fatalf("listing schedules: %v", err)
		}
		printJSON(schedules)
		return
	}

	instant, err := parseInstant(*timeArg)
	if err != nil {
		log.Fatalf("parsing -time: %v", err)
	}

	if *session {
		var s *tradecal.Session
		if *nearest != "" {
			s, err = client.NearestSession(ctx, *name, instant, *filter, *nearest == "strict")
		} else {
			s, err = client.SessionByTime(ctx, *name, instant)
		}
		if err != nil {
			log.Fatalf("session lookup: %v", err)
		}
		if s == nil {
			fmt.Fprintln(os.Stderr, "no session found")
			os.Exit(1)
		}
		printJSON(s)
		return
	}

	var d *tradecal.Day
	switch {
	case *ymd != 0:
		d, err = client.DayByYearMonthDay(ctx, *name, int32(*ymd))
	case *id != 0:
		d, err = client.DayByID(ctx, *name, int32(*id))
	default:
		d, err = client.DayByTime(ctx, *name, instant)
	}
	if err != nil {
		log.Fatalf("day lookup: %v", err)
	}
	if d == nil {
		fmt.Fprintln(os.Stderr, "no day found")
		os.Exit(1)
	}
	printJSON(d)
}

// queryLocal builds the schedule in-process and answers the lookup without
// a server.
func queryLocal(definition, timeArg string, ymd, id int, session bool, nearest, filterName string) {
	sched, err := schedule.GetInstanceForDefinition(definition)
	if err != nil {
		log.Fatalf("building schedule: %v", err)
	}
	if sched == nil {
		log.Fatalf("%q resolves to no schedule", definition)
	}

	instant, err := parseInstant(timeArg)
	if err != nil {
		log.Fatalf("parsing -time: %v", err)
	}

	if session {
		var s *schedule.Session
		if nearest != "" {
			filter, err := schedule.ParseFilter(filterName)
			if err != nil {
				log.Fatalf("parsing -filter: %v", err)
			}
			if nearest == "strict" {
				s = sched.GetNearestSessionByTime(instant, filter)
			} else {
				s = sched.FindNearestSessionByTime(instant, filter)
			}
		} else {
			s = sched.GetSessionByTime(instant)
		}
		if s == nil {
			fmt.Fprintln(os.Stderr, "no session found")
			os.Exit(1)
		}
		fmt.Println(s)
		return
	}

	var d *schedule.Day
	switch {
	case ymd != 0:
		d = sched.GetDayByYearMonthDay(int32(ymd))
	case id != 0:
		d = sched.GetDayByID(int32(id))
	default:
		d = sched.GetDayByTime(instant)
	}
	if d == nil {
		fmt.Fprintln(os.Stderr, "no day found")
		os.Exit(1)
	}
	fmt.Println(d)
	for _, s := range d.Sessions() {
		fmt.Println(" ", s)
	}
}

// parseInstant accepts RFC 3339 or raw Unix milliseconds; empty means now.
func parseInstant(s string) (int64, error) {
	if s == "" {
		return time.Now().UnixMilli(), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UnixMilli(), nil
	}
	var ms int64
	if _, err := fmt.Sscanf(s, "%d", &ms); err != nil {
		return 0, fmt.Errorf("%q is neither RFC 3339 nor Unix milliseconds", s)
	}
	return ms, nil
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		log.Fatalf("encoding output: %v", err)
	}
}
