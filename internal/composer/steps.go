package composer

import (
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/aura-events/composer/internal/notify"
	"github.com/aura-events/composer/internal/wizard"
)

// stepHooks wires the step gates and the ticket exit normalization. The
// closures run inside Next, so they execute with mu held.
func (c *Composer) stepHooks() map[wizard.Step]wizard.Hooks {
	return map[wizard.Step]wizard.Hooks{
		wizard.StepEvent: {Gate: func() error {
			if strings.TrimSpace(c.event.EventName) == "" {
				c.focus = "event_name"
				return &wizard.GateError{Step: wizard.StepEvent, Reason: "Please enter an event name"}
			}
			return nil
		}},
		wizard.StepSession: {Gate: func() error {
			if !c.sessions.HasSession() {
				return &wizard.GateError{Step: wizard.StepSession, Reason: "Please add at least one session"}
			}
			if issues := c.sessions.Validate(); len(issues) > 0 {
				c.focus = issues[0].Path
				return &wizard.GateError{Step: wizard.StepSession, Reason: "Please fix the session errors"}
			}
			return nil
		}},
		wizard.StepTicket: {
			Gate: func() error {
				if !c.tickets.HasTicket() {
					return &wizard.GateError{Step: wizard.StepTicket, Reason: "Please add at least one ticket"}
				}
				if issues := c.tickets.Validate(c.sessions.All()); len(issues) > 0 {
					c.focus = issues[0].Path
					return &wizard.GateError{Step: wizard.StepTicket, Reason: "Please fix the ticket errors"}
				}
				if c.tickets.AllStopped() {
					return &wizard.GateError{Step: wizard.StepTicket, Reason: "At least one ticket must be on sale"}
				}
				return nil
			},
			Exit: func() error {
				return c.tickets.Normalize(c.sessions.All())
			},
		},
		wizard.StepForm: {Gate: func() error {
			if !c.forms.Has() {
				return nil
			}
			if issues := c.forms.Validate(); len(issues) > 0 {
				c.focus = "form_block." + issues[0].Path()
				return &wizard.GateError{Step: wizard.StepForm, Reason: "Please fix the form errors"}
			}
			return nil
		}},
	}
}

// Step returns the current wizard step.
func (c *Composer) Step() wizard.Step {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.wizard.Step()
}

// Next advances the wizard when the current step's gate passes. A failed gate
// is reported through the notifier and leaves the draft untouched.
func (c *Composer) Next() (wizard.Step, error) {
	c.mu.Lock()
	defer c.unlock()
	step, err := c.wizard.Next()
	if err == nil {
		return step, nil
	}
	var gate *wizard.GateError
	switch {
	case errors.As(err, &gate):
		c.notifyLocked(notify.Notification{Message: gate.Reason, Kind: notify.KindError})
	case errors.Is(err, wizard.ErrTerminalStep):
	default:
		c.logger.Error("leave step", zap.Stringer("step", step), zap.Error(err))
		c.notifyLocked(notify.Notification{Message: "Could not update the sale times", Kind: notify.KindError})
	}
	return step, err
}

// Prev moves the wizard one step back without any checks.
func (c *Composer) Prev() wizard.Step {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.wizard.Prev()
}
