package attendance

import (
	"errors"
	"testing"
	"time"

	"gymtrack/internal/logger"
	"gymtrack/internal/member"
)

type stubRegistry struct {
	members map[string]member.Member
}

func (r *stubRegistry) Get(id string) (member.Member, error) {
	m, ok := r.members[id]
	if !ok {
		return member.Member{}, errors.New("not found")
	}
	return m, nil
}

func (r *stubRegistry) List() []member.Member {
	out := make([]member.Member, 0, len(r.members))
	for _, m := range r.members {
		out = append(out, m)
	}
	return out
}

func newTestService(members ...member.Member) (*Service, *Ledger) {
	reg := &stubRegistry{members: map[string]member.Member{}}
	for _, m := range members {
		reg.members[m.ID] = m
	}
	ledger := NewLedger()
	svc := NewService(ledger, reg, logger.NewNop(), nil, 50, 5*time.Second)
	return svc, ledger
}

func TestHandlePresenceUnknownMemberIsSilent(t *testing.T) {
	svc, ledger := newTestService()

	res, err := svc.HandlePresence("ghost", ModeKiosk)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res != nil {
		t.Fatalf("result = %+v, want nil for unknown member", res)
	}
	if ledger.ActiveCount() != 0 {
		t.Fatal("unknown member must not touch the ledger")
	}
}

func TestHandlePresenceTogglesCheckInThenOut(t *testing.T) {
	svc, ledger := newTestService(member.Member{
		ID: "m1", Nombre: "Juan Pérez", Status: member.StatusActivo, FechaVencimiento: "2030-01-01",
	})

	res, err := svc.HandlePresence("m1", ModeKiosk)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.CheckedIn {
		t.Fatal("first presence should check in")
	}
	if res.Standing != StandingSuccess {
		t.Fatalf("standing = %s, want success for member in good standing", res.Standing)
	}
	if !ledger.HasActive("m1") {
		t.Fatal("member should have an open session")
	}

	res, err = svc.HandlePresence("m1", ModeKiosk)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.CheckedIn {
		t.Fatal("second presence should check out")
	}
	if len(res.Alerts) != 0 {
		t.Fatalf("check-out carried alerts %v, alerts are a check-in concern", res.Alerts)
	}
	if ledger.HasActive("m1") {
		t.Fatal("session should be closed")
	}
	if len(ledger.History()) != 1 {
		t.Fatal("closed session should land in history")
	}
}

func TestHandlePresenceExpiredDebtorWarnsWithTags(t *testing.T) {
	svc, ledger := newTestService(member.Member{
		ID: "m3", Nombre: "Roberto Gomez", Status: member.StatusVencido, Deuda: 500,
		FechaVencimiento: "2025-01-01",
	})

	res, err := svc.HandlePresence("m3", ModeKiosk)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Standing != StandingWarning {
		t.Fatalf("standing = %s, want warning", res.Standing)
	}
	if len(res.Alerts) != 2 || res.Alerts[0] != AlertVencida || res.Alerts[1] != AlertPagoPendiente {
		t.Fatalf("alerts = %v, want [%s %s]", res.Alerts, AlertVencida, AlertPagoPendiente)
	}
	// Entry is never blocked, only flagged.
	if !ledger.HasActive("m3") {
		t.Fatal("flagged member must still be checked in")
	}
}

func TestManualPresenceSetsBannerKioskDoesNot(t *testing.T) {
	svc, _ := newTestService(
		member.Member{ID: "m1", Nombre: "Juan", Status: member.StatusVencido},
		member.Member{ID: "m2", Nombre: "Maria", Status: member.StatusVencido},
	)

	if _, err := svc.HandlePresence("m1", ModeKiosk); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if svc.Banner() != nil {
		t.Fatal("kiosk presence must not raise the staff banner")
	}

	if _, err := svc.HandlePresence("m2", ModeManual); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b := svc.Banner()
	if b == nil {
		t.Fatal("manual check-in should raise the banner")
	}
	if b.Member.ID != "m2" {
		t.Fatalf("banner member = %s, want m2", b.Member.ID)
	}
}

func TestBannerExpires(t *testing.T) {
	svc, _ := newTestService(member.Member{ID: "m1", Nombre: "Juan", Status: member.StatusActivo})

	clock := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return clock }

	if _, err := svc.HandlePresence("m1", ModeManual); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if svc.Banner() == nil {
		t.Fatal("banner should be visible inside its window")
	}

	clock = clock.Add(6 * time.Second)
	if svc.Banner() != nil {
		t.Fatal("banner should have expired")
	}
}

func TestOccupancyTiers(t *testing.T) {
	tests := []struct {
		name     string
		active   int
		wantPct  float64
		wantTier string
	}{
		{"empty", 0, 0, "green"},
		{"comfortable", 30, 60, "green"},
		{"busy", 35, 70, "orange"},
		{"nearly full", 45, 90, "red"},
		{"over capacity clamps", 60, 100, "red"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, ledger := newTestService()
			base := time.Date(2025, 6, 2, 7, 0, 0, 0, time.UTC)
			for i := 0; i < tt.active; i++ {
				ledger.Backfill(string(rune('a'+i%26))+string(rune('0'+i/26)), base, nil)
			}

			occ := svc.Occupancy()
			if occ.Active != tt.active {
				t.Fatalf("active = %d, want %d", occ.Active, tt.active)
			}
			if occ.Capacity != 50 {
				t.Fatalf("capacity = %d, want 50", occ.Capacity)
			}
			if occ.Percent != tt.wantPct {
				t.Fatalf("percent = %v, want %v", occ.Percent, tt.wantPct)
			}
			if occ.Tier != tt.wantTier {
				t.Fatalf("tier = %s, want %s", occ.Tier, tt.wantTier)
			}
		})
	}
}
