package hwclock

import (
	"sync"
	"time"
)

// Mono adapts the process monotonic clock to the Source contract. The
// counter is the time elapsed since construction, expressed in ticks of
// the configured frequency; the comparator is emulated with a
// time.Timer that invokes the registered ISR when the deadline's
// wall-clock moment arrives.
//
// The IRQ line is a mutex held around every ISR delivery, which gives
// task-context callers the same exclusion a disabled interrupt source
// gives on hardware.
type Mono struct {
	freq  uint64
	epoch time.Time

	irqMu sync.Mutex

	mu      sync.Mutex
	isr     ISR
	timer   *time.Timer
	gen     uint64 // bumped by Disarm; invalidates in-flight timers
	pending bool
}

// NewMono returns a monotonic source ticking at freq (0 selects
// DefaultFreq). The counter reads zero at the moment of the call.
func NewMono(freq uint64) *Mono {
	if freq == 0 {
		freq = DefaultFreq
	}
	return &Mono{freq: freq, epoch: time.Now()}
}

func (m *Mono) Read() uint64 {
	return m.ticksSince(time.Since(m.epoch))
}

// ticksSince converts an elapsed duration to ticks without overflowing
// the intermediate product for realistic frequencies.
func (m *Mono) ticksSince(d time.Duration) uint64 {
	sec := uint64(d / time.Second)
	rem := uint64(d % time.Second)
	return sec*m.freq + rem*m.freq/uint64(time.Second)
}

// tickDelay converts a tick count to a duration.
func (m *Mono) tickDelay(ticks uint64) time.Duration {
	sec := ticks / m.freq
	rem := ticks % m.freq
	return time.Duration(sec)*time.Second + time.Duration(rem*uint64(time.Second)/m.freq)
}

func (m *Mono) Arm(deadline uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.timer != nil {
		m.timer.Stop()
	}
	var delay time.Duration
	if now := m.Read(); deadline > now {
		delay = m.tickDelay(deadline - now)
	}
	gen := m.gen
	m.timer = time.AfterFunc(delay, func() { m.fire(gen) })
}

func (m *Mono) Disarm() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gen++
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}

func (m *Mono) Acknowledge() {
	m.mu.Lock()
	m.pending = false
	m.mu.Unlock()
}

func (m *Mono) SetISR(isr ISR) {
	m.mu.Lock()
	m.isr = isr
	m.mu.Unlock()
}

func (m *Mono) IRQ() IRQLine { return (*monoIRQ)(m) }

func (m *Mono) Freq() uint64 { return m.freq }

// fire delivers one compare interrupt. A generation mismatch means the
// comparator was disarmed after this timer was set; the interrupt is
// then stale and dropped, matching a comparator disabled before the
// counter reached it.
func (m *Mono) fire(gen uint64) {
	m.irqMu.Lock()
	defer m.irqMu.Unlock()
	m.mu.Lock()
	if gen != m.gen {
		m.mu.Unlock()
		return
	}
	m.pending = true
	isr := m.isr
	m.mu.Unlock()
	if isr != nil {
		isr()
	}
}

type monoIRQ Mono

func (q *monoIRQ) Disable() { q.irqMu.Lock() }
func (q *monoIRQ) Enable()  { q.irqMu.Unlock() }
