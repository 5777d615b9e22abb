package attendance

import (
	"sync"
	"time"

	"gymtrack/internal/logger"
	"gymtrack/internal/member"
	"gymtrack/internal/metrics"
)

// Mode distinguishes the unattended kiosk from the staff dashboard.
type Mode string

const (
	ModeKiosk  Mode = "kiosk"
	ModeManual Mode = "manual"
)

// Standing is the visual state the kiosk shows after a recognition.
type Standing string

const (
	StandingSuccess Standing = "success"
	StandingWarning Standing = "warning"
)

// Registry is the read-only view of the member roll the controller needs.
type Registry interface {
	Get(id string) (member.Member, error)
	List() []member.Member
}

// PresenceResult describes what HandlePresence did.
type PresenceResult struct {
	Member    member.Member `json:"member"`
	Record    Record        `json:"record"`
	CheckedIn bool          `json:"checkedIn"`
	Alerts    []string      `json:"alerts,omitempty"`
	Standing  Standing      `json:"standing,omitempty"`
}

// Banner is the transient alert surfaced on the staff dashboard after a
// manual check-in. It expires on its own; readers past the deadline see
// nothing.
type Banner struct {
	Member  member.Member `json:"member"`
	Alerts  []string      `json:"alerts"`
	Expires time.Time     `json:"-"`
}

// Service is the check-in/check-out controller. Presence events from the
// kiosk loop and from manual search both land here.
type Service struct {
	ledger    *Ledger
	registry  Registry
	log       logger.Logger
	metrics   *metrics.Metrics
	capacity  int
	bannerTTL time.Duration

	mu     sync.Mutex
	banner *Banner

	now func() time.Time
}

// NewService wires the controller. metrics may be nil.
func NewService(ledger *Ledger, registry Registry, log logger.Logger, m *metrics.Metrics, capacity int, bannerTTL time.Duration) *Service {
	if capacity <= 0 {
		capacity = 50
	}
	if bannerTTL <= 0 {
		bannerTTL = 5 * time.Second
	}
	return &Service{
		ledger:    ledger,
		registry:  registry,
		log:       log,
		metrics:   m,
		capacity:  capacity,
		bannerTTL: bannerTTL,
		now:       time.Now,
	}
}

// Ledger exposes the underlying ledger for read endpoints.
func (s *Service) Ledger() *Ledger { return s.ledger }

// HandlePresence toggles the member's session. Unknown member ids are a
// silent no-op (nil result, nil error). A member with an open session is
// checked out; recognition cannot tell arriving from leaving, so the
// toggle stands for both.
func (s *Service) HandlePresence(memberID string, mode Mode) (*PresenceResult, error) {
	m, err := s.registry.Get(memberID)
	if err != nil {
		s.log.Debug("presence for unknown member ignored", "memberId", memberID)
		return nil, nil
	}

	rec, opened := s.ledger.Toggle(memberID)
	res := &PresenceResult{Member: m, Record: rec, CheckedIn: opened}
	if mode == ModeKiosk {
		if m.InGoodStanding() {
			res.Standing = StandingSuccess
		} else {
			res.Standing = StandingWarning
		}
	}

	if !opened {
		if s.metrics != nil {
			s.metrics.CheckOuts.Inc()
		}
		s.log.Info("member checked out", "memberId", memberID, "minutes", rec.DurationMinutes(s.now()))
		return res, nil
	}

	if s.metrics != nil {
		s.metrics.CheckIns.Inc()
	}
	res.Alerts = ComposeAlerts(m, s.now())
	if mode != ModeKiosk {
		s.setBanner(m, res.Alerts)
	}

	s.log.Info("member checked in", "memberId", memberID, "mode", string(mode), "alerts", res.Alerts)
	return res, nil
}

// Banner returns the current staff alert banner, or nil once its window
// has passed.
func (s *Service) Banner() *Banner {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.banner == nil || s.now().After(s.banner.Expires) {
		s.banner = nil
		return nil
	}
	b := *s.banner
	return &b
}

func (s *Service) setBanner(m member.Member, alerts []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.banner = &Banner{Member: m, Alerts: alerts, Expires: s.now().Add(s.bannerTTL)}
}

// Occupancy is the capacity gauge. Display-only: nothing rejects a
// check-in past capacity.
type Occupancy struct {
	Active   int     `json:"active"`
	Capacity int     `json:"capacity"`
	Percent  float64 `json:"percent"`
	Tier     string  `json:"tier"`
}

// Occupancy reports the current gauge reading.
func (s *Service) Occupancy() Occupancy {
	active := s.ledger.ActiveCount()
	pct := float64(active) / float64(s.capacity) * 100
	if pct > 100 {
		pct = 100
	}
	tier := "green"
	switch {
	case pct >= 90:
		tier = "red"
	case pct >= 70:
		tier = "orange"
	}
	return Occupancy{Active: active, Capacity: s.capacity, Percent: pct, Tier: tier}
}
