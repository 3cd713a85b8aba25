package workflow

import "context"

// StateMachine tracks the current status of one entity and validates transitions
type StateMachine[S State] interface {
	// State returns the current state
	State() S

	// CanFire returns true if the trigger is configured for the current state
	CanFire(trigger Trigger) bool

	// Fire attempts to execute the trigger, transitioning to the new state if allowed
	Fire(ctx context.Context, trigger Trigger) error

	// PermittedTriggers returns all triggers configured for the current state
	PermittedTriggers() []Trigger

	// IsTerminal reports whether no trigger is configured for the current state
	IsTerminal() bool
}
