// Package hwclock defines the capability contract between the alarm
// scheduler and the single hardware countdown/compare timer it drives.
// The scheduler never touches timer registers directly; it sees a
// monotonic 64-bit counter, one programmable comparator and one
// interrupt line. Two implementations are provided: Sim, a manually
// stepped peripheral for tests and the script sandbox, and Mono, a
// monotonic wall-clock backed source used by the daemon.
package hwclock

// ISR is the routine a Source invokes on every compare match. It runs
// in interrupt context: a Source guarantees that two invocations never
// overlap and that delivery is excluded while the IRQ line is disabled.
type ISR func()

// IRQLine gates delivery of a Source's compare interrupt. A
// Disable/Enable pair is the critical section task-context code holds
// while mutating state it shares with the ISR. Calls do not nest.
type IRQLine interface {
	Disable()
	Enable()
}

// Source is the hardware timer capability contract. All methods must be
// safe to call from inside the ISR with short, bounded latency.
type Source interface {
	// Read returns the current value of the free-running counter.
	// The counter is monotonic and never wraps within device lifetime.
	Read() uint64

	// Arm programs the comparator to fire once the counter reaches
	// deadline, and enables it. A deadline already in the past raises
	// the interrupt immediately.
	Arm(deadline uint64)

	// Disarm disables the comparator. A disabled comparator never
	// raises a new interrupt, but one already raised stays pending
	// until acknowledged.
	Disarm()

	// Acknowledge clears the pending interrupt. The ISR calls this
	// before anything else.
	Acknowledge()

	// SetISR registers the interrupt service routine. Must be called
	// before the comparator is first armed.
	SetISR(isr ISR)

	// IRQ returns the interrupt line of this source's comparator.
	IRQ() IRQLine

	// Freq returns the counter frequency in ticks per second.
	Freq() uint64
}
