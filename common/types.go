package common

import "time"

// Alarm states reported by alarm.list.
const (
	StateArmed = "armed"
	StateInert = "inert"
)

// CreateParams is the input for alarm.create. Exactly one of Seconds,
// Millis and Micros must be positive.
type CreateParams struct {
	Label    string  `json:"label,omitempty"`
	Seconds  float64 `json:"seconds,omitempty"`
	Millis   int64   `json:"milliseconds,omitempty"`
	Micros   int64   `json:"microseconds,omitempty"`
	Periodic bool    `json:"periodic,omitempty"`
}

// CreateResult is the response for alarm.create.
type CreateResult struct {
	ID       string `json:"id"`
	Deadline uint64 `json:"deadline"`
	Interval uint64 `json:"interval"`
}

// IDParam addresses a single daemon-managed alarm.
type IDParam struct {
	ID string `json:"id"`
}

// AlarmInfo is one entry in the alarm.list response.
type AlarmInfo struct {
	ID        string `json:"id"`
	Label     string `json:"label,omitempty"`
	State     string `json:"state"`
	Deadline  uint64 `json:"deadline,omitempty"`
	Remaining uint64 `json:"remaining,omitempty"`
	Interval  uint64 `json:"interval"`
	Periodic  bool   `json:"periodic"`
	Fired     uint64 `json:"fired"`
}

// ListResult is the response for alarm.list.
type ListResult struct {
	Now    uint64       `json:"now"`
	Freq   uint64       `json:"freq"`
	Alarms []*AlarmInfo `json:"alarms"`
}

// HistoryParams is the input for alarm.history.
type HistoryParams struct {
	Limit int `json:"limit,omitempty"`
}

// HistoryEntry is one journalled firing.
type HistoryEntry struct {
	ID       string    `json:"id"`
	Label    string    `json:"label,omitempty"`
	Deadline uint64    `json:"deadline"`
	FiredAt  time.Time `json:"firedAt"`
	Periodic bool      `json:"periodic"`
}

// HistoryResult is the response for alarm.history.
type HistoryResult struct {
	Entries []*HistoryEntry `json:"entries"`
}

// VersionResult is the response for system.version.
type VersionResult struct {
	Version   string `json:"version"`
	Commit    string `json:"commit,omitempty"`
	BuildType string `json:"buildType,omitempty"`
}

// EmptyResult is the placeholder response for methods with no data.
type EmptyResult struct{}

// FireEvent is pushed over the event stream for every dispatched
// firing.
type FireEvent struct {
	ID       string    `json:"id"`
	Label    string    `json:"label,omitempty"`
	Deadline uint64    `json:"deadline"`
	FiredAt  time.Time `json:"firedAt"`
	Periodic bool      `json:"periodic"`
}
