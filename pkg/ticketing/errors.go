package ticketing

import (
	"errors"
	"fmt"

	"github.com/Jacobbrewer1/wardenbot/pkg/entities"
)

var (
	// ErrNotConfigured is returned when the guild is missing a setting needed for the operation.
	ErrNotConfigured = errors.New("tickets not configured")

	// ErrNoSuchTicket is returned when a thread is not a ticket.
	ErrNoSuchTicket = errors.New("no such ticket")

	// ErrForbidden is returned when the actor may not perform the operation.
	ErrForbidden = errors.New("forbidden")

	// ErrNotFound is returned by a Directory when an entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDeliveryRefused is returned by a Messenger when the recipient does not accept messages.
	ErrDeliveryRefused = errors.New("delivery refused")
)

// ConfigError names the setting that is missing.
type ConfigError struct {
	Setting entities.Setting
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %s", ErrNotConfigured, e.Setting)
}

func (e *ConfigError) Is(target error) bool {
	return target == ErrNotConfigured
}

// SideEffectError is returned when a transition was recorded but some of its side effects failed.
type SideEffectError struct {
	// Transition is the transition that happened.
	Transition string

	// Err is the joined side effect errors.
	Err error
}

func (e *SideEffectError) Error() string {
	return fmt.Sprintf("ticket %s: side effects failed: %v", e.Transition, e.Err)
}

func (e *SideEffectError) Unwrap() error {
	return e.Err
}
