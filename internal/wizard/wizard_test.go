package wizard

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNext_AdvancesThroughAllSteps(t *testing.T) {
	m := New(nil)
	assert.Equal(t, StepEvent, m.Step())
	for want := StepSession; want <= StepPreview; want++ {
		got, err := m.Next()
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := m.Next()
	assert.ErrorIs(t, err, ErrTerminalStep)
	assert.Equal(t, StepPreview, m.Step())
}

func TestNext_GateBlocksWithoutExit(t *testing.T) {
	exits := 0
	open := false
	m := New(map[Step]Hooks{
		StepEvent: {
			Gate: func() error {
				if !open {
					return &GateError{Step: StepEvent, Reason: "title is empty"}
				}
				return nil
			},
			Exit: func() error { exits++; return nil },
		},
	})

	step, err := m.Next()
	var gerr *GateError
	require.True(t, errors.As(err, &gerr))
	assert.Equal(t, StepEvent, gerr.Step)
	assert.Equal(t, StepEvent, step)
	assert.Equal(t, 0, exits)

	open = true
	step, err = m.Next()
	require.NoError(t, err)
	assert.Equal(t, StepSession, step)
	assert.Equal(t, 1, exits)
}

func TestNext_ExitErrorBlocks(t *testing.T) {
	m := New(map[Step]Hooks{StepEvent: {Exit: func() error { return errors.New("boom") }}})
	step, err := m.Next()
	assert.Error(t, err)
	assert.Equal(t, StepEvent, step)
}

func TestPrev_NoChecks(t *testing.T) {
	gateCalls := 0
	m := New(map[Step]Hooks{
		StepSession: {Gate: func() error { gateCalls++; return errors.New("blocked") }},
	})
	_, err := m.Next()
	require.NoError(t, err)
	assert.Equal(t, StepEvent, m.Prev())
	assert.Equal(t, StepEvent, m.Prev())
	assert.Equal(t, 0, gateCalls)
}

func TestStepJSON(t *testing.T) {
	b, err := json.Marshal(StepTicket)
	require.NoError(t, err)
	assert.Equal(t, `"ticket"`, string(b))
	assert.Equal(t, "step(9)", Step(9).String())
}
