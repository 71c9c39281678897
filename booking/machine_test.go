package booking

import (
	"sync"
	"testing"
)

func newTestMachine(t *testing.T) *Machine {
	t.Helper()
	m, err := NewMachine()
	if err != nil {
		t.Fatalf("new machine: %v", err)
	}
	return m
}

func TestTryHoldAdmitsOnlyFromScanning(t *testing.T) {
	m := newTestMachine(t)

	if !m.TryHold() {
		t.Fatalf("first TryHold should win")
	}
	if m.TryHold() {
		t.Fatalf("second TryHold should lose while holding")
	}
	if got := m.Current(); got != StateHolding {
		t.Fatalf("state = %q, want %q", got, StateHolding)
	}
}

func TestConcurrentTryHoldAdmitsExactlyOne(t *testing.T) {
	m := newTestMachine(t)

	const attempts = 32
	var wg sync.WaitGroup
	var mu sync.Mutex
	winners := 0
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if m.TryHold() {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if winners != 1 {
		t.Fatalf("winners = %d, want exactly 1", winners)
	}
	if got := m.Current(); got != StateHolding {
		t.Fatalf("state = %q, want %q", got, StateHolding)
	}
}

func TestFailRearmAllowsNextHold(t *testing.T) {
	m := newTestMachine(t)

	if !m.TryHold() {
		t.Fatalf("TryHold should win on a fresh machine")
	}
	m.Fail()
	if got := m.Current(); got != StateFailed {
		t.Fatalf("state = %q, want %q", got, StateFailed)
	}
	m.Rearm()
	if got := m.Current(); got != StateScanning {
		t.Fatalf("state = %q, want %q", got, StateScanning)
	}
	if !m.TryHold() {
		t.Fatalf("re-armed machine should admit another hold")
	}
}

func TestBookedIsTerminal(t *testing.T) {
	m := newTestMachine(t)

	if !m.TryHold() {
		t.Fatalf("TryHold should win on a fresh machine")
	}
	m.Book()
	if got := m.Current(); got != StateBooked {
		t.Fatalf("state = %q, want %q", got, StateBooked)
	}
	if m.TryHold() {
		t.Fatalf("booked machine must not admit another hold")
	}

	m.Rearm()
	if got := m.Current(); got != StateBooked {
		t.Fatalf("state = %q after illegal rearm, want %q", got, StateBooked)
	}
}
