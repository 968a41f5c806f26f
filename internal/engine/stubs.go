package engine

import (
	"log/slog"
	"time"
)

// StubSystem reserves a name in the update order for a feature that has no
// simulation logic yet. It participates in the full lifecycle so wiring and
// ordering can be exercised before the real system lands.
type StubSystem struct {
	Lifecycle
	name string
}

// NewStubSystem creates a named placeholder system.
func NewStubSystem(name string) *StubSystem {
	return &StubSystem{name: name}
}

func (s *StubSystem) Name() string { return s.name }

func (s *StubSystem) Initialize() error {
	if !s.BeginInit() {
		slog.Warn("system already initialized", "system", s.name)
	}
	return nil
}

func (s *StubSystem) Start() error {
	ok, err := s.BeginStart()
	if err != nil {
		return err
	}
	if !ok {
		slog.Warn("system already running", "system", s.name)
	}
	return nil
}

func (s *StubSystem) Stop() {
	if !s.BeginStop() {
		slog.Warn("system not running", "system", s.name)
	}
}

func (s *StubSystem) Update(time.Duration) {}

func (s *StubSystem) Destroy() { s.ResetLifecycle() }
