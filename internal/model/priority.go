package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Priority is a ticket priority. It is persisted as its rank so that ordering
// by the column orders by urgency.
type Priority int

const (
	PriorityLow    Priority = 1
	PriorityMedium Priority = 2
	PriorityHigh   Priority = 3
)

// DefaultPriority is the lowest priority.
const DefaultPriority = PriorityLow

var priorityLabels = map[Priority]string{
	PriorityLow:    "Low",
	PriorityMedium: "Medium",
	PriorityHigh:   "High",
}

// Labels from the first (Portuguese) frontend are still accepted on input.
var priorityAliases = map[string]Priority{
	"low":    PriorityLow,
	"baixa":  PriorityLow,
	"medium": PriorityMedium,
	"média":  PriorityMedium,
	"media":  PriorityMedium,
	"high":   PriorityHigh,
	"alta":   PriorityHigh,
}

// ParsePriority parses a priority label, case-insensitively.
func ParsePriority(s string) (Priority, error) {
	if p, ok := priorityAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return p, nil
	}
	return 0, fmt.Errorf("invalid priority: %q", s)
}

func (p Priority) String() string {
	if label, ok := priorityLabels[p]; ok {
		return label
	}
	return fmt.Sprintf("Priority(%d)", int(p))
}

// IsValid reports whether p is one of the known priorities.
func (p Priority) IsValid() bool {
	_, ok := priorityLabels[p]
	return ok
}

// MarshalJSON encodes the priority as its label.
func (p Priority) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

// UnmarshalJSON accepts any label ParsePriority understands.
func (p *Priority) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("priority must be a string: %w", err)
	}
	parsed, err := ParsePriority(s)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
