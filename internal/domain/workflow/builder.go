package workflow

import (
	"context"
	"fmt"
	"sort"
)

// GuardFunc evaluates whether a transition should be allowed
type GuardFunc func(ctx context.Context) bool

// Builder collects the transition table of one entity's state machine
type Builder[S State] interface {
	// Configure returns the configuration for transitions leaving state
	Configure(state S) StateConfiguration[S]

	// Build creates a state machine positioned at initialState.
	// It returns ErrInvalidState if initialState is not a member of the enum.
	Build(initialState S) (StateMachine[S], error)
}

// StateConfiguration configures transitions for a specific state
type StateConfiguration[S State] interface {
	// Permit allows a trigger to transition to the target state
	Permit(trigger Trigger, toState S) StateConfiguration[S]

	// PermitIf allows a trigger to transition to the target state if the guard passes
	PermitIf(trigger Trigger, toState S, guard GuardFunc) StateConfiguration[S]
}

type transition[S State] struct {
	toState S
	guard   GuardFunc
}

type stateConfig[S State] struct {
	transitions map[Trigger][]transition[S]
}

type builder[S State] struct {
	configurations map[S]*stateConfig[S]
}

type machine[S State] struct {
	current        S
	configurations map[S]*stateConfig[S]
}

// NewBuilder creates a new state machine builder
func NewBuilder[S State]() Builder[S] {
	return &builder[S]{configurations: make(map[S]*stateConfig[S])}
}

// Configure panics on a state outside the enum; tables are built from constants.
func (b *builder[S]) Configure(state S) StateConfiguration[S] {
	if !state.IsValid() {
		panic(fmt.Sprintf("invalid state: %s", state))
	}

	config, exists := b.configurations[state]
	if !exists {
		config = &stateConfig[S]{transitions: make(map[Trigger][]transition[S])}
		b.configurations[state] = config
	}
	return config
}

func (b *builder[S]) Build(initialState S) (StateMachine[S], error) {
	if !initialState.IsValid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidState, initialState)
	}

	// machines never share transition slices with the builder
	configs := make(map[S]*stateConfig[S], len(b.configurations))
	for state, config := range b.configurations {
		transitions := make(map[Trigger][]transition[S], len(config.transitions))
		for trigger, ts := range config.transitions {
			transitions[trigger] = append([]transition[S]{}, ts...)
		}
		configs[state] = &stateConfig[S]{transitions: transitions}
	}

	return &machine[S]{current: initialState, configurations: configs}, nil
}

func (c *stateConfig[S]) Permit(trigger Trigger, toState S) StateConfiguration[S] {
	return c.PermitIf(trigger, toState, nil)
}

func (c *stateConfig[S]) PermitIf(trigger Trigger, toState S, guard GuardFunc) StateConfiguration[S] {
	if !toState.IsValid() {
		panic(fmt.Sprintf("invalid target state: %s", toState))
	}

	c.transitions[trigger] = append(c.transitions[trigger], transition[S]{toState: toState, guard: guard})
	return c
}

func (m *machine[S]) State() S {
	return m.current
}

// CanFire does not evaluate guards; it only consults the table.
func (m *machine[S]) CanFire(trigger Trigger) bool {
	config, exists := m.configurations[m.current]
	if !exists {
		return false
	}
	return len(config.transitions[trigger]) > 0
}

func (m *machine[S]) Fire(ctx context.Context, trigger Trigger) error {
	config, exists := m.configurations[m.current]
	if !exists {
		return fmt.Errorf("%w: cannot fire %s from %s (terminal)", ErrInvalidTransition, trigger, m.current)
	}

	transitions := config.transitions[trigger]
	if len(transitions) == 0 {
		return fmt.Errorf("%w: cannot fire %s from %s", ErrInvalidTransition, trigger, m.current)
	}

	// first passing guard wins
	for _, t := range transitions {
		if t.guard == nil || t.guard(ctx) {
			m.current = t.toState
			return nil
		}
	}

	return fmt.Errorf("%w: trigger %s from state %s", ErrGuardFailed, trigger, m.current)
}

func (m *machine[S]) PermittedTriggers() []Trigger {
	config, exists := m.configurations[m.current]
	if !exists {
		return []Trigger{}
	}

	triggers := make([]Trigger, 0, len(config.transitions))
	for trigger := range config.transitions {
		triggers = append(triggers, trigger)
	}
	sort.Slice(triggers, func(i, j int) bool { return triggers[i] < triggers[j] })
	return triggers
}

func (m *machine[S]) IsTerminal() bool {
	return len(m.PermittedTriggers()) == 0
}
