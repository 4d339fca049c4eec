package hwclock

import "sync"

// DefaultFreq is the counter frequency assumed when none is given:
// half the 80 MHz peripheral bus clock of the reference hardware.
const DefaultFreq uint64 = 40_000_000

// Sim is a manually stepped timer peripheral. The counter only moves
// when Advance is called, which makes every interrupt deterministic:
// tests and the script sandbox step the clock and observe exactly the
// firings that hardware would have produced.
//
// Register semantics follow the usual count/compare pair: the interrupt
// flag latches when the counter reaches the compare value while the
// comparator is enabled, and stays set until acknowledged. Delivery of
// the latched interrupt waits for the IRQ line to be enabled.
type Sim struct {
	freq uint64

	// irqMu is the interrupt line. It is held for the whole of every
	// ISR invocation, so Disable() from task context excludes the ISR.
	irqMu sync.Mutex

	mu      sync.Mutex // guards the registers below
	count   uint64
	compare uint64
	enabled bool
	pending bool
	isr     ISR
}

// NewSim returns a simulated source with the counter at zero and the
// comparator disabled. A freq of 0 selects DefaultFreq.
func NewSim(freq uint64) *Sim {
	if freq == 0 {
		freq = DefaultFreq
	}
	return &Sim{freq: freq}
}

func (s *Sim) Read() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

func (s *Sim) Arm(deadline uint64) {
	s.mu.Lock()
	s.compare = deadline
	s.enabled = true
	if s.count >= deadline {
		s.pending = true
	}
	s.mu.Unlock()
}

func (s *Sim) Disarm() {
	s.mu.Lock()
	s.enabled = false
	s.mu.Unlock()
}

func (s *Sim) Acknowledge() {
	s.mu.Lock()
	s.pending = false
	s.mu.Unlock()
}

func (s *Sim) SetISR(isr ISR) {
	s.mu.Lock()
	s.isr = isr
	s.mu.Unlock()
}

func (s *Sim) IRQ() IRQLine { return (*simIRQ)(s) }

func (s *Sim) Freq() uint64 { return s.freq }

// Advance moves the counter forward by n ticks and delivers any
// interrupt this raises. Re-arms performed inside the ISR are honoured:
// if the new compare value is also at or below the counter, the ISR
// runs again before Advance returns, just as hardware would re-enter it.
func (s *Sim) Advance(n uint64) {
	s.mu.Lock()
	s.count += n
	if s.enabled && s.count >= s.compare {
		s.pending = true
	}
	s.mu.Unlock()
	s.deliver()
}

// deliver runs the ISR while an interrupt is pending. The IRQ line is
// held for each invocation; the register lock is not, so the ISR is
// free to call Read, Arm, Disarm and Acknowledge.
func (s *Sim) deliver() {
	s.irqMu.Lock()
	defer s.irqMu.Unlock()
	for {
		s.mu.Lock()
		isr := s.isr
		fire := s.pending && isr != nil
		s.mu.Unlock()
		if !fire {
			return
		}
		isr()
	}
}

// simIRQ implements IRQLine on top of the delivery lock.
type simIRQ Sim

func (q *simIRQ) Disable() { q.irqMu.Lock() }

func (q *simIRQ) Enable() {
	q.irqMu.Unlock()
	// An Arm issued inside the critical section may have latched an
	// interrupt for a deadline already reached; deliver it now.
	(*Sim)(q).deliver()
}
