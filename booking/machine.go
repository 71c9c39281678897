// Package booking drives a filtered candidate through hold and book,
// guarded by a process-wide state machine that admits at most one attempt
// at a time.
package booking

import (
	"log/slog"

	"github.com/robbyt/go-fsm"
)

// Attempt states. The machine is process-wide: one booked appointment ends
// the run, and a failed attempt re-arms scanning for later rounds.
const (
	StateScanning = "scanning"
	StateHolding  = "holding"
	StateBooked   = "booked"
	StateFailed   = "failed"
)

var transitions = map[string][]string{
	StateScanning: {StateHolding, StateFailed},
	StateHolding:  {StateBooked, StateFailed},
	StateBooked:   {},
	StateFailed:   {StateScanning},
}

// Machine wraps the attempt state machine. All transitions funnel through
// the methods below; holding is entered only via the TryHold compare-and-set
// so concurrent candidates cannot race into competing holds.
type Machine struct {
	fsm *fsm.Machine
}

// NewMachine starts a machine in the scanning state.
func NewMachine() (*Machine, error) {
	m, err := fsm.New(slog.Default().Handler(), StateScanning, transitions)
	if err != nil {
		return nil, err
	}
	return &Machine{fsm: m}, nil
}

// TryHold attempts scanning → holding. It reports false when the machine
// already left scanning, in which case the caller must not issue a hold.
func (m *Machine) TryHold() bool {
	return m.fsm.TransitionIfCurrentState(StateScanning, StateHolding) == nil
}

// Book marks the terminal booked state.
func (m *Machine) Book() {
	m.transition(StateBooked)
}

// Fail records a failed attempt.
func (m *Machine) Fail() {
	m.transition(StateFailed)
}

// Rearm returns a failed machine to scanning so polling can resume.
func (m *Machine) Rearm() {
	m.transition(StateScanning)
}

// Current returns the machine's state name.
func (m *Machine) Current() string {
	return m.fsm.GetState()
}

func (m *Machine) transition(to string) {
	if err := m.fsm.Transition(to); err != nil {
		slog.Error("state transition rejected",
			slog.String("from", m.fsm.GetState()),
			slog.String("to", to),
			slog.Any("error", err),
		)
	}
}
