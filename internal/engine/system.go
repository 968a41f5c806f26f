package engine

import (
	"encoding/json"
	"errors"
	"time"
)

// ErrNotInitialized is returned when a lifecycle transition is attempted out
// of order, e.g. Start before Initialize.
var ErrNotInitialized = errors.New("system not initialized")

// System is one registered game subsystem. The manager drives every system
// through the same lifecycle: Initialize, Start, repeated Update calls while
// running, Stop, Destroy.
type System interface {
	Name() string
	Initialize() error
	Start() error
	Stop()
	Update(dt time.Duration)
	Destroy()
}

// Snapshotter is implemented by systems that persist state in save files.
// SnapshotKey names the save-file section the system owns.
type Snapshotter interface {
	SnapshotKey() string
	Snapshot() (json.RawMessage, error)
	Restore(data json.RawMessage) error
}

// Lifecycle tracks initialization and running state for a system. Systems
// embed it and call the Begin helpers at the top of each transition;
// duplicate transitions are no-ops and out-of-order ones are hard errors.
type Lifecycle struct {
	initialized bool
	running     bool
}

// BeginInit marks the system initialized. Returns false if it already was,
// in which case the caller should log and skip its own setup.
func (l *Lifecycle) BeginInit() bool {
	if l.initialized {
		return false
	}
	l.initialized = true
	return true
}

// BeginStart marks the system running. Returns ErrNotInitialized when
// Initialize has not run, and (false, nil) when already running.
func (l *Lifecycle) BeginStart() (bool, error) {
	if !l.initialized {
		return false, ErrNotInitialized
	}
	if l.running {
		return false, nil
	}
	l.running = true
	return true, nil
}

// BeginStop clears the running flag. Returns false if not running.
func (l *Lifecycle) BeginStop() bool {
	if !l.running {
		return false
	}
	l.running = false
	return true
}

// Running reports whether the system is between Start and Stop.
func (l *Lifecycle) Running() bool { return l.running }

// Initialized reports whether Initialize has completed.
func (l *Lifecycle) Initialized() bool { return l.initialized }

// ResetLifecycle returns the tracker to its pristine state, for Destroy.
func (l *Lifecycle) ResetLifecycle() {
	l.initialized = false
	l.running = false
}

// Result is the outcome of a player-facing operation: build, upgrade,
// task assignment and the like. Message is empty on success.
type Result struct {
	OK      bool   `json:"ok"`
	Message string `json:"message,omitempty"`
}

// Failure builds a failed Result with the given reason.
func Failure(message string) Result { return Result{Message: message} }

// Success is the zero-friction OK result.
func Success() Result { return Result{OK: true} }
