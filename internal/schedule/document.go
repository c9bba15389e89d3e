package schedule

import (
	"bufio"
	"bytes"
	"fmt"
	"sort"
	"strings"
)

// document is a parsed defaults document: a properties-style text mapping
// schedule keys to definition strings. Venue-specific entries use a
// "key.venue" form. Documents are immutable once parsed; the defaults
// manager swaps whole documents atomically.
type document struct {
	entries map[string]string
}

// parseDocument parses and validates defaults document bytes. Every entry's
// definition must parse; a single bad entry rejects the whole document so an
// invalid download can never replace a valid cache.
func parseDocument(data []byte) (*document, error) {
	doc := &document{entries: make(map[string]string)}
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		key, val, ok := strings.Cut(text, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" || strings.ContainsAny(key, " \t") {
			return nil, fmt.Errorf("defaults document: line %d: not a key=definition entry", line)
		}
		if _, err := ParseDefinition(val); err != nil {
			return nil, fmt.Errorf("defaults document: line %d: %w", line, err)
		}
		doc.entries[key] = strings.TrimSpace(val)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("defaults document: %w", err)
	}
	if len(doc.entries) == 0 {
		return nil, fmt.Errorf("defaults document: no entries")
	}
	return doc, nil
}

// lookup returns the definition string for a schedule key.
func (d *document) lookup(key string) (string, bool) {
	val, ok := d.entries[key]
	return val, ok
}

// venues returns the sorted venue suffixes of all "key.venue" entries for
// the given base key.
func (d *document) venues(key string) []string {
	prefix := key + "."
	var out []string
	for k := range d.entries {
		if strings.HasPrefix(k, prefix) {
			out = append(out, k[len(prefix):])
		}
	}
	sort.Strings(out)
	return out
}

// builtinDefaults backs schedule resolution before any defaults document has
// been downloaded or set. Hours are wall-clock in each venue's zone.
const builtinDefaults = `# Built-in schedule defaults.
NYSE=name=NYSE;tz=America/New_York;tzname=Eastern Time;days=Mon-Fri;pre=04:00-09:30;reg=09:30-16:00;post=16:00-20:00;hd=2025-01-01,2025-01-20,2025-02-17,2025-04-18,2025-05-26,2025-06-19,2025-07-04,2025-09-01,2025-11-27,2025-12-25,2026-01-01,2026-01-19,2026-02-16,2026-04-03,2026-05-25,2026-06-19,2026-07-03,2026-09-07,2026-11-26,2026-12-25;sd=2025-07-03:09:30-13:00,2025-11-28:09:30-13:00,2025-12-24:09:30-13:00,2026-11-27:09:30-13:00,2026-12-24:09:30-13:00
NASDAQ=name=NASDAQ;tz=America/New_York;tzname=Eastern Time;days=Mon-Fri;pre=04:00-09:30;reg=09:30-16:00;post=16:00-20:00;hd=2025-01-01,2025-01-20,2025-02-17,2025-04-18,2025-05-26,2025-06-19,2025-07-04,2025-09-01,2025-11-27,2025-12-25,2026-01-01,2026-01-19,2026-02-16,2026-04-03,2026-05-25,2026-06-19,2026-07-03,2026-09-07,2026-11-26,2026-12-25;sd=2025-07-03:09:30-13:00,2025-11-28:09:30-13:00,2025-12-24:09:30-13:00,2026-11-27:09:30-13:00,2026-12-24:09:30-13:00
CME=name=CME;tz=America/Chicago;tzname=Central Time;days=Mon-Fri;reg=08:30-15:00;hd=2025-01-01,2025-12-25,2026-01-01,2026-12-25
STOCK.XNYS=name=NYSE;tz=America/New_York;tzname=Eastern Time;days=Mon-Fri;pre=04:00-09:30;reg=09:30-16:00;post=16:00-20:00
STOCK.XNAS=name=NASDAQ;tz=America/New_York;tzname=Eastern Time;days=Mon-Fri;pre=04:00-09:30;reg=09:30-16:00;post=16:00-20:00
FUTURE.XCME=name=CME;tz=America/Chicago;tzname=Central Time;days=Mon-Fri;reg=08:30-15:00
`

var builtinDocument = mustParseDocument([]byte(builtinDefaults))

func mustParseDocument(data []byte) *document {
	doc, err := parseDocument(data)
	if err != nil {
		panic(err)
	}
	return doc
}
