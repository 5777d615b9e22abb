package kiosk

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"gymtrack/internal/aiclient"
	"gymtrack/internal/attendance"
	"gymtrack/internal/logger"
	"gymtrack/internal/member"
)

type fakeFrames struct {
	mu       sync.Mutex
	captures int
	closed   bool
	err      error
}

func (f *fakeFrames) Capture(ctx context.Context) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.captures++
	if f.err != nil {
		return nil, f.err
	}
	return []byte{0xff, 0xd8}, nil
}

func (f *fakeFrames) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeFrames) wasClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

type fakeIdentifier struct {
	mu    sync.Mutex
	id    string
	err   error
	calls int
}

func (f *fakeIdentifier) Identify(ctx context.Context, image []byte, candidates []aiclient.Candidate) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.id, nil
}

func (f *fakeIdentifier) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakePresence struct {
	mu    sync.Mutex
	calls []string
	res   *attendance.PresenceResult
}

func (f *fakePresence) HandlePresence(memberID string, mode attendance.Mode) (*attendance.PresenceResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, memberID)
	return f.res, nil
}

func (f *fakePresence) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeRoster struct{ members []member.Member }

func (f *fakeRoster) List() []member.Member { return f.members }

func fastConfig() Config {
	return Config{ScanInterval: 5 * time.Millisecond, RetryDelay: 5 * time.Millisecond, ResetDelay: 20 * time.Millisecond}
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal(msg)
}

func TestStartStopLifecycle(t *testing.T) {
	frames := &fakeFrames{}
	ident := &fakeIdentifier{err: aiclient.ErrUnknown}
	s := NewSession(frames, ident, &fakePresence{}, &fakeRoster{}, logger.NewNop(), nil, fastConfig())

	if got := s.View().State; got != StateOff {
		t.Fatalf("initial state = %s, want off", got)
	}

	s.Start(SubModeFace)
	if got := s.View().State; got != StateIdle && got != StateAnalyzing {
		t.Fatalf("state after start = %s, want idle or analyzing", got)
	}
	waitFor(t, time.Second, func() bool { return ident.callCount() > 0 }, "capture loop never ran")

	s.Stop()
	if got := s.View().State; got != StateOff {
		t.Fatalf("state after stop = %s, want off", got)
	}
	if !frames.wasClosed() {
		t.Fatal("stop should release the camera")
	}

	calls := ident.callCount()
	time.Sleep(30 * time.Millisecond)
	if ident.callCount() != calls {
		t.Fatal("loop kept running after stop")
	}
}

func TestQRSubModeDoesNotCapture(t *testing.T) {
	frames := &fakeFrames{}
	ident := &fakeIdentifier{}
	s := NewSession(frames, ident, &fakePresence{}, &fakeRoster{}, logger.NewNop(), nil, fastConfig())

	s.Start(SubModeQR)
	time.Sleep(30 * time.Millisecond)
	if ident.callCount() != 0 {
		t.Fatal("qr mode must not run the capture loop")
	}
	if got := s.View().SubMode; got != SubModeQR {
		t.Fatalf("subMode = %s, want qr", got)
	}
	s.Stop()
}

func TestUnknownFaceReturnsToIdleWithoutPresence(t *testing.T) {
	presence := &fakePresence{}
	ident := &fakeIdentifier{err: aiclient.ErrUnknown}
	s := NewSession(&fakeFrames{}, ident, presence, &fakeRoster{}, logger.NewNop(), nil, fastConfig())

	s.Start(SubModeFace)
	defer s.Stop()

	waitFor(t, time.Second, func() bool { return ident.callCount() >= 2 }, "loop did not keep scanning after a no-match")
	if presence.callCount() != 0 {
		t.Fatal("no-match must not reach the attendance controller")
	}
	waitFor(t, time.Second, func() bool { return s.View().State == StateIdle || s.View().State == StateAnalyzing }, "kiosk stuck outside idle after no-match")
}

func TestMatchShowsResultThenResets(t *testing.T) {
	m := member.Member{ID: "m1", Nombre: "Juan Pérez", Status: member.StatusActivo}
	presence := &fakePresence{res: &attendance.PresenceResult{
		Member: m, CheckedIn: true, Standing: attendance.StandingSuccess,
	}}
	ident := &fakeIdentifier{id: "m1"}
	s := NewSession(&fakeFrames{}, ident, presence, &fakeRoster{members: []member.Member{m}}, logger.NewNop(), nil, fastConfig())

	s.Start(SubModeFace)
	defer s.Stop()

	waitFor(t, time.Second, func() bool {
		v := s.View()
		return v.State == StateSuccess && v.Result != nil && v.Result.Member.ID == "m1"
	}, "match never surfaced on the kiosk screen")

	waitFor(t, time.Second, func() bool {
		v := s.View()
		return (v.State == StateIdle || v.State == StateAnalyzing) && (v.State != StateSuccess)
	}, "screen never reset after the display window")
}

func TestWarningStandingShowsWarningState(t *testing.T) {
	m := member.Member{ID: "m3", Nombre: "Roberto Gomez", Status: member.StatusVencido}
	presence := &fakePresence{res: &attendance.PresenceResult{
		Member: m, CheckedIn: true, Standing: attendance.StandingWarning,
	}}
	s := NewSession(&fakeFrames{}, &fakeIdentifier{id: "m3"}, presence, &fakeRoster{members: []member.Member{m}}, logger.NewNop(), nil, fastConfig())

	s.Start(SubModeFace)
	defer s.Stop()

	waitFor(t, time.Second, func() bool { return s.View().State == StateWarning }, "warning standing never shown")
}

func TestCaptureErrorRetries(t *testing.T) {
	frames := &fakeFrames{err: errors.New("camera offline")}
	ident := &fakeIdentifier{}
	s := NewSession(frames, ident, &fakePresence{}, &fakeRoster{}, logger.NewNop(), nil, fastConfig())

	s.Start(SubModeFace)
	defer s.Stop()

	waitFor(t, time.Second, func() bool {
		frames.mu.Lock()
		defer frames.mu.Unlock()
		return frames.captures >= 2
	}, "loop did not retry after capture failure")
	if ident.callCount() != 0 {
		t.Fatal("identify must not run without a frame")
	}
}
