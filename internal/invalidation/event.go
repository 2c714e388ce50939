// Package invalidation consumes external cache-clear events. The cache is
// never correctness-critical, so an aggressive clear is always safe; the
// consumer's only job is to apply clears promptly and keep running.
package invalidation

import (
	"fmt"
	"strings"
	"time"
)

// Scopes an event may target.
const (
	ScopeGeocode = "geocode"
	ScopeDataset = "dataset"
	ScopeAll     = "all"
)

// Event is one cache invalidation message.
type Event struct {
	Version int       `json:"version"`
	Op      string    `json:"op"` // only "clear" is defined
	Scope   string    `json:"scope"`
	TS      time.Time `json:"ts"`
	Reason  string    `json:"reason,omitempty"`
	Source  string    `json:"source,omitempty"`
}

func (e Event) Validate() error {
	if e.Version != 1 {
		return fmt.Errorf("version must be 1")
	}
	if e.Op != "clear" {
		return fmt.Errorf("op must be clear")
	}
	switch strings.TrimSpace(e.Scope) {
	case ScopeGeocode, ScopeDataset, ScopeAll:
	default:
		return fmt.Errorf("scope must be %s|%s|%s", ScopeGeocode, ScopeDataset, ScopeAll)
	}
	if e.TS.IsZero() {
		return fmt.Errorf("ts is required")
	}
	return nil
}
