// Package daemon wires the alarm scheduler, firing journal and RPC
// surface into a single long-running process with start, stop and
// graceful shutdown capabilities.
package daemon

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/machtimer/machtimer/common"
	"github.com/machtimer/machtimer/internal/history"
	"github.com/machtimer/machtimer/internal/secrets"
	"github.com/machtimer/machtimer/internal/server"
	"github.com/machtimer/machtimer/pkg/alarm"
	"github.com/machtimer/machtimer/pkg/hwclock"
	"github.com/machtimer/machtimer/pkg/logger"
)

// Sentinel errors for the daemon lifecycle.
var (
	// ErrAlreadyRunning is returned when Run is called on a running daemon.
	ErrAlreadyRunning = errors.New("daemon is already running")

	// ErrNotRunning is returned when Shutdown is called on a stopped daemon.
	ErrNotRunning = errors.New("daemon is not running")
)

// Config holds the daemon configuration. Zero values select defaults.
type Config struct {
	// Freq is the tick frequency of the alarm clock in Hz.
	Freq uint64

	// Port is the TCP fallback port; the web endpoint uses Port+1.
	Port int

	// QueueDepth bounds the deferred callback queue.
	QueueDepth int

	// ConfigDir holds the journal and the fallback secret file.
	ConfigDir string

	// JournalPath overrides the journal location. Empty disables the
	// override; "off" disables the journal entirely.
	JournalPath string

	// JournalKeep is the number of journal rows retained.
	JournalKeep int

	// Secret overrides the keyring-managed RPC token.
	Secret string

	// Build metadata reported by system.getVersion.
	Version   string
	Commit    string
	BuildType string
}

// JournalOff disables the firing journal when set as JournalPath.
const JournalOff = "off"

func (c *Config) withDefaults() (*Config, error) {
	out := *c
	if out.Freq == 0 {
		out.Freq = hwclock.DefaultFreq
	}
	if out.Port == 0 {
		out.Port = common.DefaultTCPPort
	}
	if out.QueueDepth == 0 {
		out.QueueDepth = alarm.DefaultQueueDepth
	}
	if out.ConfigDir == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return nil, err
		}
		out.ConfigDir = filepath.Join(base, "machtimer")
	}
	if out.JournalPath == "" {
		out.JournalPath = filepath.Join(out.ConfigDir, "journal.db")
	}
	return &out, nil
}

// Daemon is the long-running alarm service.
type Daemon struct {
	cfg *Config
	log logger.Logger

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
}

// New creates a daemon from the given configuration. A nil config
// selects all defaults.
func New(cfg *Config, log logger.Logger) *Daemon {
	if cfg == nil {
		cfg = &Config{}
	}
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Daemon{cfg: cfg, log: log}
}

// Run starts the daemon and blocks until the context is canceled or
// Shutdown is called. The active alarm set is built fresh on every
// start; only the firing journal persists across runs.
func (d *Daemon) Run(ctx context.Context) error {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return ErrAlreadyRunning
	}
	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	d.running = true
	d.mu.Unlock()

	defer func() {
		d.mu.Lock()
		d.running = false
		d.cancel = nil
		d.mu.Unlock()
		cancel()
	}()

	cfg, err := d.cfg.withDefaults()
	if err != nil {
		return err
	}

	secret := cfg.Secret
	if secret == "" {
		secret, err = secrets.Load(cfg.ConfigDir)
		if err != nil {
			// Without a token the HTTP surface rejects everything; the
			// socket transport still works.
			d.log.Warning("no rpc secret available: %v", err)
			secret = ""
		}
	}

	journal := d.openJournal(cfg)
	if journal != nil {
		defer journal.Close()
	}

	dispatcher := alarm.NewQueueDispatcher(ctx, cfg.QueueDepth, d.log)
	sched := alarm.NewScheduler(hwclock.NewMono(cfg.Freq), dispatcher)

	hub := server.NewHub()
	rs := server.NewRPCServer(&server.RPCConfig{
		Secret:    secret,
		Version:   cfg.Version,
		Commit:    cfg.Commit,
		BuildType: cfg.BuildType,
	}, sched, journal, hub, d.log, cancel)

	srv := server.NewServer(d.log, rs, cfg.Port)
	d.log.Info("daemon starting (freq=%d port=%d)", cfg.Freq, cfg.Port)

	err = srv.Start(ctx)

	// The server may return with the context still live, e.g. when no
	// listener could be opened. The dispatch worker only exits on
	// cancellation, so cancel before waiting on it.
	cancel()

	// Let queued callbacks drain before the journal closes under them.
	dispatcher.Wait()
	if dropped := dispatcher.Dropped(); dropped > 0 {
		d.log.Warning("%d alarm firings were dropped by the dispatch queue", dropped)
	}
	return err
}

func (d *Daemon) openJournal(cfg *Config) *history.Journal {
	if cfg.JournalPath == JournalOff {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(cfg.JournalPath), 0755); err != nil {
		d.log.Warning("journal directory unavailable, history disabled: %v", err)
		return nil
	}
	journal, err := history.Open(cfg.JournalPath, cfg.JournalKeep)
	if err != nil {
		d.log.Warning("journal unavailable, history disabled: %v", err)
		return nil
	}
	return journal
}

// Shutdown stops a running daemon. Returns ErrNotRunning if it is not
// running.
func (d *Daemon) Shutdown() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.running {
		return ErrNotRunning
	}
	d.cancel()
	return nil
}

// IsRunning reports whether the daemon is currently running.
func (d *Daemon) IsRunning() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.running
}
