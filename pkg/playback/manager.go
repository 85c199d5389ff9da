package playback

import (
	"context"
	"sync"
	"time"

	"github.com/dacweb/dac/pkg/metrics"
	"github.com/dacweb/dac/pkg/models"
	"github.com/dacweb/dac/pkg/progress"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
)

// Session is one viewing session: a controller bound to the viewer's device
// progress, driving a widget in the viewer's browser.
type Session struct {
	ID         string
	DeviceID   string
	Controller *Controller

	mu       sync.Mutex
	current  *RemotePlayer
	retired  []*RemotePlayer
	lastSeen time.Time
	release  func()
}

func (s *Session) newPlayer(cfg PlayerConfig) (Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != nil {
		s.retired = append(s.retired, s.current)
	}
	s.current = NewRemotePlayer(cfg)
	return s.current, nil
}

// ReportPosition forwards a position the page observed to the live widget.
// Reports for any other chapter are dropped and ReportPosition returns false.
func (s *Session) ReportPosition(chapterID string, position float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil || s.current.Config().ChapterID != chapterID {
		return false
	}
	s.current.ReportPosition(position)
	return true
}

// TakeCommands drains commands queued for the page, including ones left on
// widgets that have since been replaced.
func (s *Session) TakeCommands() []Command {
	s.mu.Lock()
	defer s.mu.Unlock()

	cmds := []Command{}
	for _, p := range s.retired {
		cmds = append(cmds, p.TakeCommands()...)
	}
	s.retired = nil
	if s.current != nil {
		cmds = append(cmds, s.current.TakeCommands()...)
	}
	return cmds
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = now
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// Manager owns the live sessions and reaps the ones nobody has touched within
// the TTL.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session
	registry *progress.Registry
	opts     Options
	ttl      time.Duration
	now      func() time.Time

	stop chan struct{}
	done chan struct{}
}

func NewManager(registry *progress.Registry, opts Options, ttl time.Duration) *Manager {
	return &Manager{
		sessions: map[string]*Session{},
		registry: registry,
		opts:     opts,
		ttl:      ttl,
		now:      time.Now,
	}
}

// Start runs the reaper until Shutdown.
func (m *Manager) Start(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stop != nil {
		return
	}
	m.stop = make(chan struct{})
	m.done = make(chan struct{})

	interval := m.ttl / 2
	if interval < time.Second {
		interval = time.Second
	}

	go func(stop, done chan struct{}) {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				if n := m.Reap(); n > 0 {
					logger.FromContext(ctx).Info("reaped idle playback sessions", logger.Data{"count": n})
				}
			}
		}
	}(m.stop, m.done)
}

// Shutdown stops the reaper and closes every session.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	stop, done := m.stop, m.done
	m.stop, m.done = nil, nil
	sessions := m.sessions
	m.sessions = map[string]*Session{}
	metrics.SetPlaybackSessions(0)
	m.mu.Unlock()

	if stop != nil {
		close(stop)
		<-done
	}
	for _, s := range sessions {
		m.closeSession(s)
	}
}

// Open starts a session for the device on the given chapter. A chapter whose
// video can't be played still gets a session; its snapshot carries the error.
func (m *Manager) Open(ctx context.Context, deviceID string, module *models.Module, chapterID string) (*Session, error) {
	ctx = context.WithoutCancel(ctx)
	tracker, release := m.registry.Acquire(ctx, deviceID)

	s := &Session{
		ID:       uuid.NewString(),
		DeviceID: deviceID,
		lastSeen: m.now(),
		release:  release,
	}
	s.Controller = NewController(ctx, tracker, s.newPlayer, m.opts)

	if err := s.Controller.Open(module, chapterID); err != nil && !errors.Is(err, ErrInvalidVideoID) {
		m.closeSession(s)
		return nil, err
	}

	m.mu.Lock()
	m.sessions[s.ID] = s
	metrics.SetPlaybackSessions(len(m.sessions))
	m.mu.Unlock()
	return s, nil
}

// Get returns the device's session and marks it as recently used. Sessions
// belonging to other devices are reported as missing.
func (m *Manager) Get(id, deviceID string) (*Session, error) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	m.mu.Unlock()
	if !ok || s.DeviceID != deviceID {
		return nil, errors.WithStack(ErrSessionNotFound)
	}
	s.touch(m.now())
	return s, nil
}

// Close ends the device's session and returns the commands the page still
// needs to run.
func (m *Manager) Close(id, deviceID string) ([]Command, error) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if !ok || s.DeviceID != deviceID {
		m.mu.Unlock()
		return nil, errors.WithStack(ErrSessionNotFound)
	}
	delete(m.sessions, id)
	metrics.SetPlaybackSessions(len(m.sessions))
	m.mu.Unlock()

	m.closeSession(s)
	return s.TakeCommands(), nil
}

// Reap closes sessions idle for longer than the TTL and returns how many it
// closed.
func (m *Manager) Reap() int {
	cutoff := m.now().Add(-m.ttl)

	m.mu.Lock()
	var expired []*Session
	for id, s := range m.sessions {
		if s.idleSince().Before(cutoff) {
			expired = append(expired, s)
			delete(m.sessions, id)
		}
	}
	metrics.SetPlaybackSessions(len(m.sessions))
	m.mu.Unlock()

	for _, s := range expired {
		m.closeSession(s)
	}
	return len(expired)
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *Manager) closeSession(s *Session) {
	s.Controller.Close()
	s.release()
}
