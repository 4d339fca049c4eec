package server

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/creachadair/jrpc2"
	"github.com/creachadair/jrpc2/handler"
	"github.com/creachadair/jrpc2/jhttp"

	"github.com/machtimer/machtimer/common"
	"github.com/machtimer/machtimer/internal/history"
	"github.com/machtimer/machtimer/pkg/alarm"
	"github.com/machtimer/machtimer/pkg/logger"
)

// Custom JSON-RPC error codes for alarm operations.
const (
	codeInvalidDuration = jrpc2.Code(-32001)
	codeTooManyAlarms   = jrpc2.Code(-32002)
	codeAlarmNotFound   = jrpc2.Code(-32003)
	codeInvalidParams   = jrpc2.Code(-32602)
)

// RPCConfig holds configuration for the JSON-RPC endpoint.
type RPCConfig struct {
	Secret    string // Auth token for the HTTP/WebSocket surface (empty means HTTP RPC disabled)
	Version   string // Daemon version
	Commit    string // Git commit
	BuildType string // Build type
}

// managed pairs a scheduler alarm with the daemon-side bookkeeping the
// RPC surface exposes: a stable id, a label, and firing statistics.
// Its mutex also orders the create path against the first dispatch, so
// a near-immediate firing never observes a half-built record.
type managed struct {
	mu           sync.Mutex
	id           string
	label        string
	periodic     bool
	alarm        *alarm.Alarm
	fired        uint64
	nextDeadline uint64
}

// RPCServer manages the JSON-RPC 2.0 method handlers and HTTP bridge.
type RPCServer struct {
	bridge    jhttp.Bridge
	methods   handler.Map
	secret    string
	version   string
	commit    string
	buildType string
	log       logger.Logger
	sched     *alarm.Scheduler
	journal   *history.Journal // nil disables the firing journal
	hub       *Hub
	stop      func()

	mu     sync.Mutex
	alarms map[string]*managed
}

// NewRPCServer creates an RPCServer with method handlers and HTTP
// bridge. journal may be nil; stop is invoked by system.shutdown.
func NewRPCServer(cfg *RPCConfig, sched *alarm.Scheduler, journal *history.Journal, hub *Hub, log logger.Logger, stop func()) *RPCServer {
	rs := &RPCServer{
		secret:    cfg.Secret,
		version:   cfg.Version,
		commit:    cfg.Commit,
		buildType: cfg.BuildType,
		log:       log,
		sched:     sched,
		journal:   journal,
		hub:       hub,
		stop:      stop,
		alarms:    make(map[string]*managed),
	}

	rs.methods = handler.Map{
		"system.getVersion": handler.New(rs.systemGetVersion),
		"system.shutdown":   handler.New(rs.systemShutdown),
		"alarm.create":      handler.New(rs.alarmCreate),
		"alarm.cancel":      handler.New(rs.alarmCancel),
		"alarm.resume":      handler.New(rs.alarmResume),
		"alarm.delete":      handler.New(rs.alarmDelete),
		"alarm.list":        handler.New(rs.alarmList),
		"alarm.history":     handler.New(rs.alarmHistory),
	}

	rs.bridge = jhttp.NewBridge(rs.methods, nil)
	return rs
}

func (rs *RPCServer) systemGetVersion(_ context.Context) (*common.VersionResult, error) {
	return &common.VersionResult{
		Version:   rs.version,
		Commit:    rs.commit,
		BuildType: rs.buildType,
	}, nil
}

func (rs *RPCServer) systemShutdown(_ context.Context) (*common.EmptyResult, error) {
	rs.log.Info("shutdown requested over rpc")
	// Let the response flush before the transport goes away.
	time.AfterFunc(100*time.Millisecond, rs.stop)
	return &common.EmptyResult{}, nil
}

// fireRecorder builds the dispatch handler for a managed alarm. It
// counts the firing, pushes an event to subscribers and journals it.
func (rs *RPCServer) fireRecorder(m *managed) alarm.Handler {
	return func(_ any) {
		m.mu.Lock()
		m.fired++
		ev := common.FireEvent{
			ID:       m.id,
			Label:    m.label,
			Deadline: m.nextDeadline,
			FiredAt:  time.Now(),
			Periodic: m.periodic,
		}
		if m.periodic {
			m.nextDeadline = m.alarm.Deadline()
		} else {
			m.nextDeadline = 0
		}
		m.mu.Unlock()

		rs.hub.Broadcast(ev)
		if rs.journal != nil {
			err := rs.journal.Append(&common.HistoryEntry{
				ID:       ev.ID,
				Label:    ev.Label,
				Deadline: ev.Deadline,
				FiredAt:  ev.FiredAt,
				Periodic: ev.Periodic,
			})
			if err != nil {
				rs.log.Warning("journal append failed: %v", err)
			}
		}
	}
}

// alarmCreate schedules a new alarm and registers it under a fresh id.
func (rs *RPCServer) alarmCreate(_ context.Context, p *common.CreateParams) (*common.CreateResult, error) {
	id, err := newID()
	if err != nil {
		return nil, err
	}
	m := &managed{id: id, label: p.Label, periodic: p.Periodic}

	// Hold m.mu across scheduling so the first dispatch of a very short
	// alarm blocks until the record is complete.
	m.mu.Lock()
	a, err := rs.sched.NewAlarm(rs.fireRecorder(m), alarm.Duration{
		Seconds: p.Seconds,
		Millis:  p.Millis,
		Micros:  p.Micros,
	}, m, p.Periodic)
	if err != nil {
		m.mu.Unlock()
		return nil, mapAlarmError(err)
	}
	m.alarm = a
	m.nextDeadline = a.Deadline()
	m.mu.Unlock()

	rs.mu.Lock()
	rs.alarms[m.id] = m
	rs.mu.Unlock()

	rs.log.Info("alarm %s created (interval=%d periodic=%v)", m.id, a.Interval(), p.Periodic)
	return &common.CreateResult{ID: m.id, Deadline: a.Deadline(), Interval: a.Interval()}, nil
}

// alarmCancel disarms an alarm but keeps it registered so it can be
// resumed later. Cancelling an inert alarm succeeds.
func (rs *RPCServer) alarmCancel(_ context.Context, p *common.IDParam) (*common.EmptyResult, error) {
	m, err := rs.lookup(p.ID)
	if err != nil {
		return nil, err
	}
	m.alarm.Cancel()
	m.mu.Lock()
	m.nextDeadline = 0
	m.mu.Unlock()
	return &common.EmptyResult{}, nil
}

// alarmResume re-arms a cancelled or fired one-shot alarm with its
// original interval. Resuming an armed alarm is a no-op.
func (rs *RPCServer) alarmResume(_ context.Context, p *common.IDParam) (*common.EmptyResult, error) {
	m, err := rs.lookup(p.ID)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	if m.alarm.Armed() {
		m.mu.Unlock()
		return &common.EmptyResult{}, nil
	}
	if err := m.alarm.Callback(rs.fireRecorder(m), m); err != nil {
		m.mu.Unlock()
		return nil, mapAlarmError(err)
	}
	m.nextDeadline = m.alarm.Deadline()
	m.mu.Unlock()
	return &common.EmptyResult{}, nil
}

// alarmDelete disarms an alarm and removes it from the registry.
// Deleting an unknown id is an error; deleting twice therefore fails
// the second time.
func (rs *RPCServer) alarmDelete(_ context.Context, p *common.IDParam) (*common.EmptyResult, error) {
	m, err := rs.lookup(p.ID)
	if err != nil {
		return nil, err
	}
	m.alarm.Delete()
	rs.mu.Lock()
	delete(rs.alarms, p.ID)
	rs.mu.Unlock()
	return &common.EmptyResult{}, nil
}

func (rs *RPCServer) alarmList(_ context.Context) (*common.ListResult, error) {
	rs.mu.Lock()
	snapshot := make([]*managed, 0, len(rs.alarms))
	for _, m := range rs.alarms {
		snapshot = append(snapshot, m)
	}
	rs.mu.Unlock()

	now := rs.sched.Now()
	res := &common.ListResult{
		Now:    now,
		Freq:   rs.sched.Freq(),
		Alarms: make([]*common.AlarmInfo, 0, len(snapshot)),
	}
	for _, m := range snapshot {
		m.mu.Lock()
		info := &common.AlarmInfo{
			ID:       m.id,
			Label:    m.label,
			State:    common.StateInert,
			Interval: m.alarm.Interval(),
			Periodic: m.periodic,
			Fired:    m.fired,
		}
		if m.alarm.Armed() {
			info.State = common.StateArmed
			info.Deadline = m.alarm.Deadline()
			if info.Deadline > now {
				info.Remaining = info.Deadline - now
			}
		}
		m.mu.Unlock()
		res.Alarms = append(res.Alarms, info)
	}
	sort.Slice(res.Alarms, func(i, j int) bool { return res.Alarms[i].ID < res.Alarms[j].ID })
	return res, nil
}

func (rs *RPCServer) alarmHistory(_ context.Context, p *common.HistoryParams) (*common.HistoryResult, error) {
	if rs.journal == nil {
		return &common.HistoryResult{}, nil
	}
	entries, err := rs.journal.Recent(p.Limit)
	if err != nil {
		return nil, err
	}
	return &common.HistoryResult{Entries: entries}, nil
}

func (rs *RPCServer) lookup(id string) (*managed, error) {
	if id == "" {
		return nil, &jrpc2.Error{Code: codeInvalidParams, Message: "missing required param: id"}
	}
	rs.mu.Lock()
	m, ok := rs.alarms[id]
	rs.mu.Unlock()
	if !ok {
		return nil, &jrpc2.Error{Code: codeAlarmNotFound, Message: "no alarm with id " + id}
	}
	return m, nil
}

// mapAlarmError translates scheduler errors into JSON-RPC errors.
func mapAlarmError(err error) error {
	switch {
	case errors.Is(err, alarm.ErrInvalidDuration):
		return &jrpc2.Error{Code: codeInvalidDuration, Message: err.Error()}
	case errors.Is(err, alarm.ErrTooManyAlarms):
		return &jrpc2.Error{Code: codeTooManyAlarms, Message: err.Error()}
	default:
		return err
	}
}

func newID() (string, error) {
	var buf [4]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf[:]), nil
}

// Close shuts down the jrpc2 bridge, releasing internal goroutines.
func (rs *RPCServer) Close() error {
	rs.bridge.Close()
	return nil
}
