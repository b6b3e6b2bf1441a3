// Package daemon runs the watch, publish and validate cycle.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gogpu/shaderd/builder"
	"github.com/gogpu/shaderd/notify"
	"github.com/gogpu/shaderd/publish"
	"github.com/gogpu/shaderd/verify"
)

// State is the lifecycle state of a Driver.
type State int32

const (
	StateIdle State = iota
	StateStarting
	StateWatching
	StateStopped
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStarting:
		return "starting"
	case StateWatching:
		return "watching"
	case StateStopped:
		return "stopped"
	}
	return fmt.Sprintf("State(%d)", int32(s))
}

// Source produces compile outcomes. *builder.Watcher implements it.
type Source interface {
	Watch(ctx context.Context, onOutcome func(*builder.Outcome)) (*builder.Outcome, error)
}

// Publisher copies outcomes to their destination. *publish.Publisher
// implements it.
type Publisher interface {
	Publish(ctx context.Context, outcome *builder.Outcome, policy publish.Policy) ([]publish.Artifact, error)
}

// Validator validates one published module. *verify.Orchestrator
// implements it.
type Validator interface {
	Validate(ctx context.Context, path string, mode verify.Mode) (*verify.Report, error)
}

// ErrAlreadyStarted is returned by Start on a Driver that was started before.
var ErrAlreadyStarted = errors.New("daemon: driver already started")

// Driver publishes every outcome of a Source and validates the result.
//
// Only the first compilation and the first publish can fail the Driver.
// After that every failure is logged and sent to Events, and the Driver
// keeps watching until its context is done.
type Driver struct {
	Source    Source
	Publisher Publisher
	Policy    publish.Policy

	// Validator is required unless Mode is verify.ModeNone.
	Validator Validator
	Mode      verify.Mode

	// Events defaults to notify.Discard.
	Events notify.Publisher
	Logger *slog.Logger

	mu     sync.Mutex // serializes cycles
	state  atomic.Int32
	cycles atomic.Int64
}

// State returns the current lifecycle state.
func (d *Driver) State() State {
	return State(d.state.Load())
}

// Cycles returns how many outcomes have been published.
func (d *Driver) Cycles() int64 {
	return d.cycles.Load()
}

// Start compiles and publishes the project once, then keeps watching in the
// background until ctx is done. The returned error is fatal: the watch is
// not running when Start fails.
func (d *Driver) Start(ctx context.Context) error {
	if !d.state.CompareAndSwap(int32(StateIdle), int32(StateStarting)) {
		return ErrAlreadyStarted
	}
	if d.Mode != verify.ModeNone && d.Validator == nil {
		d.state.Store(int32(StateStopped))
		return fmt.Errorf("daemon: validation mode %s needs a validator", d.Mode)
	}
	log := d.logger()

	watchCtx, cancel := context.WithCancel(ctx)

	// Held until the first cycle is done so later outcomes queue behind it.
	d.mu.Lock()
	defer d.mu.Unlock()

	first, err := d.Source.Watch(watchCtx, func(out *builder.Outcome) {
		d.mu.Lock()
		defer d.mu.Unlock()
		if watchCtx.Err() != nil {
			return
		}
		_ = d.cycle(watchCtx, out)
	})
	if err != nil {
		cancel()
		d.state.Store(int32(StateStopped))
		d.event(notify.EventCompileFailed, "", "", err.Error())
		return fmt.Errorf("initial compilation failed: %w", err)
	}

	if err := d.cycle(watchCtx, first); err != nil {
		cancel()
		d.state.Store(int32(StateStopped))
		return fmt.Errorf("initial publish failed: %w", err)
	}

	d.state.Store(int32(StateWatching))
	log.Info("watching for changes", "destination", d.Policy.String())

	context.AfterFunc(ctx, func() {
		cancel()
		d.state.Store(int32(StateStopped))
	})
	return nil
}

// Run is Start followed by waiting for ctx to be done.
func (d *Driver) Run(ctx context.Context) error {
	if err := d.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	d.logger().Info("shutting down")
	return nil
}

// CompileFailed reports a compile failure that happened while watching.
// Wire it to builder.Watcher.OnError.
func (d *Driver) CompileFailed(err error) {
	d.event(notify.EventCompileFailed, "", "", err.Error())
}

// cycle publishes out and validates what was published. Only the publish
// error is returned; validation failures are reported and swallowed.
func (d *Driver) cycle(ctx context.Context, out *builder.Outcome) error {
	log := d.logger()

	artifacts, err := d.Publisher.Publish(ctx, out, d.Policy)
	if err != nil {
		log.Error("publishing shader modules failed", "error", err)
		var copyErr *publish.CopyError
		if errors.As(err, &copyErr) {
			d.event(notify.EventPublishFailed, copyErr.Entry, copyErr.Dest, err.Error())
		} else {
			d.event(notify.EventPublishFailed, "", "", err.Error())
		}
		return err
	}
	d.cycles.Add(1)

	for _, a := range artifacts {
		log.Info("published shader module", "entry", a.Entry, "path", a.Path)
		d.event(notify.EventPublished, a.Entry, a.Path, "")
	}

	if d.Mode == verify.ModeNone {
		return nil
	}
	for _, a := range artifacts {
		d.validate(ctx, a)
	}
	return nil
}

func (d *Driver) validate(ctx context.Context, a publish.Artifact) {
	log := d.logger().With("path", a.Path)
	report, err := d.Validator.Validate(ctx, a.Path, d.Mode)
	if err != nil {
		log.Error("shader validation failed", "error", err)
		msg := err.Error()
		if report != nil && report.BinaryDiagnostic != "" {
			msg = report.BinaryDiagnostic
		}
		if report != nil && report.TextDiagnostic != "" {
			msg = report.TextDiagnostic
		}
		d.event(notify.EventValidationFailed, a.Entry, a.Path, msg)
		return
	}
	log.Info("shader validation passed", "mode", d.Mode.String())
	d.event(notify.EventValidated, a.Entry, a.Path, "")
}

func (d *Driver) event(typ, entry, path, msg string) {
	events := d.Events
	if events == nil {
		events = notify.Discard
	}
	events.Publish(notify.Event{
		Type:    typ,
		Entry:   entry,
		Path:    path,
		Message: msg,
		Time:    time.Now(),
	})
}

func (d *Driver) logger() *slog.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return slog.Default()
}
