package schedule

import (
	"strings"
	"testing"
)

const testDocument = `# test defaults
NYSE=` + testDefinition + `
STOCK.AAA=tz=UTC;reg=09:00-17:00;range=2024-01-01..2025-01-01
STOCK.BBB=tz=UTC;reg=10:00-18:00;range=2024-01-01..2025-01-01
`

func TestParseDocument(t *testing.T) {
	doc, err := parseDocument([]byte(testDocument))
	if err != nil {
		t.Fatalf("parseDocument: %v", err)
	}
	if _, ok := doc.lookup("NYSE"); !ok {
		t.Error("NYSE entry missing")
	}
	if _, ok := doc.lookup("nope"); ok {
		t.Error("lookup invented an entry")
	}
	venues := doc.venues("STOCK")
	if len(venues) != 2 || venues[0] != "AAA" || venues[1] != "BBB" {
		t.Errorf("venues(STOCK) = %v", venues)
	}
	if v := doc.venues("NYSE"); len(v) != 0 {
		t.Errorf("venues(NYSE) = %v, want empty", v)
	}
}

func TestParseDocumentRejectsBadInput(t *testing.T) {
	bad := []string{
		"",
		"# only comments\n",
		"NYSE\n",
		"bad key=tz=UTC;reg=09:00-17:00\n",
		"NYSE=tz=UTC\n", // entry definition invalid
		testDocument + "X=garbage\n",
	}
	for _, s := range bad {
		if _, err := parseDocument([]byte(s)); err == nil {
			t.Errorf("parseDocument(%q) accepted invalid input", s)
		}
	}
}

func TestBuiltinDefaults(t *testing.T) {
	// The built-in document must stay parseable and resolve the venues a
	// bare process is expected to know.
	for _, key := range []string{"NYSE", "NASDAQ", "CME", "STOCK.XNYS", "STOCK.XNAS", "FUTURE.XCME"} {
		if _, ok := builtinDocument.lookup(key); !ok {
			t.Errorf("built-in defaults missing %q", key)
		}
	}
	venues := builtinDocument.venues("STOCK")
	if strings.Join(venues, ",") != "XNAS,XNYS" {
		t.Errorf("built-in STOCK venues = %v", venues)
	}
}
