package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Not found errors
	ErrNotFound           = errors.New("resource not found")
	ErrHypothesisNotFound = fmt.Errorf("%w: hypothesis", ErrNotFound)
	ErrSignalNotFound     = fmt.Errorf("%w: signal", ErrNotFound)
	ErrEntityNotFound     = fmt.Errorf("%w: entity", ErrNotFound)

	// Lifecycle errors
	ErrHypothesisTerminal = errors.New("hypothesis is in a terminal status")
	ErrChannelsExhausted  = errors.New("no eligible channels remain")

	// Budget errors
	ErrIterationBudget = errors.New("iteration budget exhausted")
	ErrCostBudget      = errors.New("cost budget exhausted")

	// Collaborator errors
	ErrMalformedVerdict = errors.New("malformed collaborator verdict")
	ErrCollectFailed    = errors.New("evidence collection failed")
)

// Error constructors with context
func NewNotFoundError(resource string, id string) error {
	return fmt.Errorf("%w: %s with id %s", ErrNotFound, resource, id)
}

func NewTerminalError(id HypothesisID, status string) error {
	return fmt.Errorf("%w: %s is %s", ErrHypothesisTerminal, id, status)
}

// Error checking helpers
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsBudgetError(err error) bool {
	return errors.Is(err, ErrIterationBudget) || errors.Is(err, ErrCostBudget)
}

func IsCollaboratorError(err error) bool {
	return errors.Is(err, ErrMalformedVerdict) || errors.Is(err, ErrCollectFailed)
}
