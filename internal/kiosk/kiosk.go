// Package kiosk runs the unattended self-service capture loop: a periodic
// frame grab submitted to the face identifier, driving check-in/check-out.
package kiosk

import (
	"context"
	"errors"
	"sync"
	"time"

	"gymtrack/internal/aiclient"
	"gymtrack/internal/attendance"
	"gymtrack/internal/logger"
	"gymtrack/internal/member"
	"gymtrack/internal/metrics"
)

// State of the kiosk screen.
type State string

const (
	StateOff       State = "off"
	StateIdle      State = "idle"
	StateAnalyzing State = "analyzing"
	StateSuccess   State = "success"
	StateWarning   State = "warning"
)

// SubMode selects between automated face capture and QR/name search.
type SubMode string

const (
	SubModeFace SubMode = "face"
	SubModeQR   SubMode = "qr"
)

// FrameSource produces JPEG frames from the kiosk camera. Close releases
// the camera.
type FrameSource interface {
	Capture(ctx context.Context) ([]byte, error)
	Close() error
}

// Presence is the slice of the attendance controller the loop needs.
type Presence interface {
	HandlePresence(memberID string, mode attendance.Mode) (*attendance.PresenceResult, error)
}

// Roster lists identification candidates.
type Roster interface {
	List() []member.Member
}

// Config carries the loop timings.
type Config struct {
	ScanInterval time.Duration // tick between capture attempts
	RetryDelay   time.Duration // pause after a no-match before idling
	ResetDelay   time.Duration // how long success/warning stays on screen
}

func (c *Config) defaults() {
	if c.ScanInterval <= 0 {
		c.ScanInterval = 5 * time.Second
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = 2 * time.Second
	}
	if c.ResetDelay <= 0 {
		c.ResetDelay = 4 * time.Second
	}
}

// View is the kiosk screen snapshot served to clients.
type View struct {
	State   State                      `json:"state"`
	SubMode SubMode                    `json:"subMode,omitempty"`
	Result  *attendance.PresenceResult `json:"result,omitempty"`
}

// Session owns one kiosk screen. The capture loop and its reset delays are
// bound to the session context, so leaving kiosk mode or switching to the
// QR sub-mode cancels everything in flight and releases the camera.
type Session struct {
	frames     FrameSource
	identifier aiclient.Identifier
	presence   Presence
	roster     Roster
	log        logger.Logger
	metrics    *metrics.Metrics
	cfg        Config

	mu      sync.Mutex
	state   State
	subMode SubMode
	result  *attendance.PresenceResult
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewSession wires a kiosk session. metrics may be nil.
func NewSession(frames FrameSource, identifier aiclient.Identifier, presence Presence, roster Roster, log logger.Logger, m *metrics.Metrics, cfg Config) *Session {
	cfg.defaults()
	return &Session{
		frames:     frames,
		identifier: identifier,
		presence:   presence,
		roster:     roster,
		log:        log,
		metrics:    m,
		cfg:        cfg,
		state:      StateOff,
	}
}

// Start enters kiosk mode in the given sub-mode. In face mode the capture
// loop begins ticking; in QR mode the kiosk waits for manual scans. A
// running loop is stopped first.
func (s *Session) Start(mode SubMode) {
	s.stopLoop()

	s.mu.Lock()
	s.subMode = mode
	s.state = StateIdle
	s.result = nil
	if mode != SubModeFace {
		s.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})
	done := s.done
	s.mu.Unlock()

	go s.run(ctx, done)
	s.log.Info("kiosk capture loop started", "interval", s.cfg.ScanInterval.String())
}

// Stop leaves kiosk mode, cancelling the loop and releasing the camera.
func (s *Session) Stop() {
	s.stopLoop()
	s.mu.Lock()
	s.state = StateOff
	s.result = nil
	s.mu.Unlock()
	if err := s.frames.Close(); err != nil {
		s.log.Warn("camera release failed", "error", err)
	}
}

// View returns the current screen state.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return View{State: s.state, SubMode: s.subMode, Result: s.result}
}

func (s *Session) stopLoop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()
	if cancel != nil {
		cancel()
		<-done
	}
}

func (s *Session) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(s.cfg.ScanInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.scanOnce(ctx)
		}
	}
}

// scanOnce runs one capture+identify cycle. It executes on the loop
// goroutine, so at most one analysis is in flight and the idle gate holds.
func (s *Session) scanOnce(ctx context.Context) {
	s.mu.Lock()
	if s.state != StateIdle {
		s.mu.Unlock()
		return
	}
	s.state = StateAnalyzing
	s.mu.Unlock()

	frame, err := s.frames.Capture(ctx)
	if err != nil {
		s.log.Warn("frame capture failed", "error", err)
		s.backToIdle(ctx, s.cfg.RetryDelay)
		return
	}

	candidates := s.candidates()
	start := time.Now()
	memberID, err := s.identifier.Identify(ctx, frame, candidates)
	if s.metrics != nil {
		s.metrics.IdentifyLatency.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		// Service failure and "face not recognized" look the same here.
		outcome := "unknown"
		if !errors.Is(err, aiclient.ErrUnknown) {
			outcome = "error"
			s.log.Warn("identification call failed", "error", err)
		}
		if s.metrics != nil {
			s.metrics.Identifications.WithLabelValues(outcome).Inc()
		}
		s.backToIdle(ctx, s.cfg.RetryDelay)
		return
	}
	if s.metrics != nil {
		s.metrics.Identifications.WithLabelValues("match").Inc()
	}

	res, err := s.presence.HandlePresence(memberID, attendance.ModeKiosk)
	if err != nil || res == nil {
		s.backToIdle(ctx, s.cfg.RetryDelay)
		return
	}

	s.mu.Lock()
	s.result = res
	if res.Standing == attendance.StandingWarning {
		s.state = StateWarning
	} else {
		s.state = StateSuccess
	}
	s.mu.Unlock()

	s.backToIdle(ctx, s.cfg.ResetDelay)
}

// backToIdle waits out the display window then clears the screen, unless
// the session is cancelled first.
func (s *Session) backToIdle(ctx context.Context, after time.Duration) {
	select {
	case <-ctx.Done():
		return
	case <-time.After(after):
	}
	s.mu.Lock()
	s.state = StateIdle
	s.result = nil
	s.mu.Unlock()
}

func (s *Session) candidates() []aiclient.Candidate {
	members := s.roster.List()
	out := make([]aiclient.Candidate, 0, len(members))
	for _, m := range members {
		out = append(out, aiclient.Candidate{ID: m.ID, Nombre: m.Nombre, Foto: m.Foto})
	}
	return out
}
