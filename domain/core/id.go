package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ID represents a domain identifier
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered generation
func NewID() ID {
	// UUID v7 gives sortable IDs; fall back to v4 if the clock source fails
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return ID(id.String())
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty
func (id ID) IsEmpty() bool {
	return id == ""
}

// Domain-specific ID types
type (
	EntityID     ID
	HypothesisID ID
	SignalID     ID
	EvidenceID   ID
	RunID        ID
)

// String conversions for domain IDs
func (id EntityID) String() string     { return ID(id).String() }
func (id HypothesisID) String() string { return ID(id).String() }
func (id SignalID) String() string     { return ID(id).String() }
func (id EvidenceID) String() string   { return ID(id).String() }
func (id RunID) String() string        { return ID(id).String() }

// ParseEntityID parses a string into EntityID
func ParseEntityID(s string) (EntityID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("entity ID cannot be empty")
	}
	return EntityID(s), nil
}

// ParseHypothesisID parses a string into HypothesisID
func ParseHypothesisID(s string) (HypothesisID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("hypothesis ID cannot be empty")
	}
	return HypothesisID(s), nil
}

// ParseSignalID parses a string into SignalID
func ParseSignalID(s string) (SignalID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("signal ID cannot be empty")
	}
	return SignalID(s), nil
}

// ParseRunID parses a string into RunID
func ParseRunID(s string) (RunID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("run ID cannot be empty")
	}
	return RunID(s), nil
}
