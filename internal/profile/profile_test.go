package profile

import "testing"

func TestScheduleKey(t *testing.T) {
	tests := []struct {
		name    string
		profile *InstrumentProfile
		want    string
	}{
		{"nil profile", nil, ""},
		{"trading hours key", &InstrumentProfile{Symbol: "AAPL", Type: "STOCK", TradingHours: "NYSE"}, "NYSE"},
		{"falls back to type", &InstrumentProfile{Symbol: "AAPL", Type: "STOCK"}, "STOCK"},
		{"inline definition", &InstrumentProfile{Symbol: "AAPL", TradingHours: "tz=UTC;reg=09:30-16:00"}, ""},
		{"empty profile", &InstrumentProfile{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.profile.ScheduleKey(); got != tt.want {
				t.Errorf("ScheduleKey() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestInlineDefinition(t *testing.T) {
	p := &InstrumentProfile{TradingHours: "tz=UTC;reg=09:30-16:00"}
	if !p.InlineDefinition() {
		t.Error("definition with '=' should be inline")
	}
	p = &InstrumentProfile{TradingHours: "NYSE"}
	if p.InlineDefinition() {
		t.Error("bare key should not be inline")
	}
	if (&InstrumentProfile{}).InlineDefinition() {
		t.Error("empty trading hours should not be inline")
	}
}
