// Package wizard is the step state machine of the event creation flow.
package wizard

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Step is a wizard page.
type Step int

const (
	StepEvent Step = iota
	StepSession
	StepTicket
	StepForm
	StepPreview
)

var stepNames = [...]string{"event", "session", "ticket", "form", "preview"}

func (s Step) String() string {
	if s < StepEvent || s > StepPreview {
		return fmt.Sprintf("step(%d)", int(s))
	}
	return stepNames[s]
}

// MarshalJSON encodes the step by name.
func (s Step) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes a step name.
func (s *Step) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err != nil {
		return err
	}
	for i, n := range stepNames {
		if n == name {
			*s = Step(i)
			return nil
		}
	}
	return fmt.Errorf("unknown step %q", name)
}

// ErrTerminalStep is returned by Next on the last step.
var ErrTerminalStep = errors.New("already on the last step")

// GateError explains why the wizard did not advance.
type GateError struct {
	Step   Step
	Reason string
}

func (e *GateError) Error() string {
	return fmt.Sprintf("cannot leave %s step: %s", e.Step, e.Reason)
}

// Hooks are the checks and side effects attached to a step.
// Gate returns a *GateError (or any error) to block Next. Exit runs after the
// gate passed and before the step changes; an error from it also blocks Next.
type Hooks struct {
	Gate func() error
	Exit func() error
}

// Machine tracks the current step. It is not safe for concurrent use.
type Machine struct {
	step  Step
	hooks map[Step]Hooks
}

// New creates a machine on the first step.
func New(hooks map[Step]Hooks) *Machine {
	return &Machine{step: StepEvent, hooks: hooks}
}

// Step returns the current step.
func (m *Machine) Step() Step { return m.step }

// Next runs the current step's gate and exit normalization, then advances one step.
func (m *Machine) Next() (Step, error) {
	if m.step == StepPreview {
		return m.step, ErrTerminalStep
	}
	h := m.hooks[m.step]
	if h.Gate != nil {
		if err := h.Gate(); err != nil {
			return m.step, err
		}
	}
	if h.Exit != nil {
		if err := h.Exit(); err != nil {
			return m.step, fmt.Errorf("leave %s step: %w", m.step, err)
		}
	}
	m.step++
	return m.step, nil
}

// Prev moves one step back without any checks. It is a no-op on the first step.
func (m *Machine) Prev() Step {
	if m.step > StepEvent {
		m.step--
	}
	return m.step
}
