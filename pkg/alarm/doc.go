// Package alarm implements an interrupt-driven deadline scheduler for a
// single hardware countdown/compare timer. One-shot and periodic alarms
// are held in a fixed-capacity set ordered by absolute deadline; the
// scheduling engine keeps the comparator armed to the nearest deadline
// and hands fired callbacks to a dispatcher so user code never runs at
// interrupt priority.
//
// The active set is deliberately a shift-based ordered array rather
// than a heap: with at most 16 entries the contiguous scan has a
// smaller and more predictable interrupt-context worst case than
// pointer-based rebalancing.
//
// Mutations from task context run with the timer's interrupt line
// disabled; the ISR relies on the hardware's own guarantee that it is
// never re-entered.
package alarm
