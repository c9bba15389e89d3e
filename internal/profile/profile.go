// Package profile defines instrument profiles: static descriptions of
// tradable instruments used to resolve their trading schedules.
package profile

import "strings"

// InstrumentProfile describes one instrument class. TradingHours is either
// an inline schedule definition (contains '=') or a key into the defaults
// document; when empty, the instrument Type is used as the key.
type InstrumentProfile struct {
	Symbol       string
	Type         string
	Description  string
	Currency     string
	TradingHours string
}

// ScheduleKey returns the defaults-document key this profile resolves
// through, or "" when the profile carries an inline definition or nothing
// at all.
func (p *InstrumentProfile) ScheduleKey() string {
	if p == nil || p.InlineDefinition() {
		return ""
	}
	if p.TradingHours != "" {
		return p.TradingHours
	}
	return p.Type
}

// InlineDefinition reports whether TradingHours carries a full schedule
// definition rather than a defaults-document key.
func (p *InstrumentProfile) InlineDefinition() bool {
	return p != nil && strings.Contains(p.TradingHours, "=")
}
