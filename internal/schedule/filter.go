package schedule

import (
	"fmt"
	"strings"
)

// SessionFilter selects acceptable sessions for nearest-session search.
// Implementations must be pure functions of the session so that search
// results are deterministic and repeatable.
type SessionFilter interface {
	Accept(s *Session) bool
}

// SessionFilterFunc adapts a predicate to the SessionFilter interface.
type SessionFilterFunc func(s *Session) bool

// Accept calls f(s).
func (f SessionFilterFunc) Accept(s *Session) bool { return f(s) }

// Built-in session filters.
var (
	// FilterAny accepts every session.
	FilterAny SessionFilter = SessionFilterFunc(func(*Session) bool { return true })

	// FilterTrading accepts sessions during which trading occurs.
	FilterTrading SessionFilter = SessionFilterFunc((*Session).IsTrading)

	// FilterNonTrading accepts sessions during which no trading occurs.
	FilterNonTrading SessionFilter = SessionFilterFunc(func(s *Session) bool { return !s.IsTrading() })

	// FilterRegular accepts regular trading sessions only.
	FilterRegular SessionFilter = SessionFilterFunc((*Session).IsRegular)

	// FilterPreMarket accepts pre-market sessions only.
	FilterPreMarket SessionFilter = SessionFilterFunc(func(s *Session) bool { return s.Type() == SessionTypePreMarket })

	// FilterAfterMarket accepts after-market sessions only.
	FilterAfterMarket SessionFilter = SessionFilterFunc(func(s *Session) bool { return s.Type() == SessionTypeAfterMarket })
)

// ParseFilter resolves a filter name used by the CLI and HTTP API.
func ParseFilter(name string) (SessionFilter, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "any":
		return FilterAny, nil
	case "trading":
		return FilterTrading, nil
	case "nontrading", "non-trading":
		return FilterNonTrading, nil
	case "regular":
		return FilterRegular, nil
	case "pre", "premarket", "pre-market":
		return FilterPreMarket, nil
	case "after", "aftermarket", "after-market":
		return FilterAfterMarket, nil
	}
	return nil, fmt.Errorf("unknown session filter %q", name)
}
