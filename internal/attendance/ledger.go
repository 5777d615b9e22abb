package attendance

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Record is one attendance session. A record with no CheckOutAt is active;
// once stamped it moves to history and is never mutated again.
type Record struct {
	ID         string     `json:"id"`
	MemberID   string     `json:"memberId"`
	CheckInAt  time.Time  `json:"checkInAt"`
	CheckOutAt *time.Time `json:"checkOutAt,omitempty"`
}

// Active reports whether the session is still open.
func (r Record) Active() bool { return r.CheckOutAt == nil }

// DurationMinutes is the whole minutes elapsed since check-in, frozen at
// check-out for closed records.
func (r Record) DurationMinutes(now time.Time) int {
	end := now
	if r.CheckOutAt != nil {
		end = *r.CheckOutAt
	}
	return int(end.Sub(r.CheckInAt) / time.Minute)
}

// Ledger keeps the active and historical sessions in memory,
// most-recent-first. All mutations run under one lock, so the
// check-active-then-open toggle is a single atomic transition: two
// near-simultaneous presence events for the same member cannot both open
// a session.
type Ledger struct {
	mu      sync.RWMutex
	active  []Record
	history []Record

	now func() time.Time
}

// NewLedger returns an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{now: time.Now}
}

// Toggle opens a session for the member, or closes the existing one.
// Returns the affected record and whether a session was opened.
func (l *Ledger) Toggle(memberID string) (Record, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if i := l.activeIndex(memberID); i >= 0 {
		return l.closeAt(i), false
	}
	return l.open(memberID), true
}

// Open creates an active session unless one already exists, in which case
// it is a no-op and the existing record is returned.
func (l *Ledger) Open(memberID string) (Record, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if i := l.activeIndex(memberID); i >= 0 {
		return l.active[i], false
	}
	return l.open(memberID), true
}

// Close stamps the member's active session and moves it to history.
// The second return is false when the member has no active session.
func (l *Ledger) Close(memberID string) (Record, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	i := l.activeIndex(memberID)
	if i < 0 {
		return Record{}, false
	}
	return l.closeAt(i), true
}

// Backfill inserts an operator-entered record. When checkOut is non-nil the
// record goes straight to history without ever having been active.
func (l *Ledger) Backfill(memberID string, checkIn time.Time, checkOut *time.Time) Record {
	rec := Record{
		ID:        uuid.NewString(),
		MemberID:  memberID,
		CheckInAt: checkIn,
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if checkOut != nil {
		rec.CheckOutAt = checkOut
		l.history = append([]Record{rec}, l.history...)
	} else {
		l.active = append([]Record{rec}, l.active...)
	}
	return rec
}

// Remove deletes a record from the named collection. Manual correction
// path; no undo.
func (l *Ledger) Remove(recordID string, fromActive bool) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	coll := &l.history
	if fromActive {
		coll = &l.active
	}
	for i, r := range *coll {
		if r.ID == recordID {
			*coll = append((*coll)[:i], (*coll)[i+1:]...)
			return true
		}
	}
	return false
}

// Active returns the open sessions, most recent first.
func (l *Ledger) Active() []Record {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Record, len(l.active))
	copy(out, l.active)
	return out
}

// History returns the closed sessions, most recent first.
func (l *Ledger) History() []Record {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Record, len(l.history))
	copy(out, l.history)
	return out
}

// ActiveCount returns the number of open sessions.
func (l *Ledger) ActiveCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.active)
}

// HasActive reports whether the member currently has an open session.
func (l *Ledger) HasActive(memberID string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.activeIndex(memberID) >= 0
}

func (l *Ledger) activeIndex(memberID string) int {
	for i, r := range l.active {
		if r.MemberID == memberID {
			return i
		}
	}
	return -1
}

func (l *Ledger) open(memberID string) Record {
	rec := Record{
		ID:        uuid.NewString(),
		MemberID:  memberID,
		CheckInAt: l.now(),
	}
	l.active = append([]Record{rec}, l.active...)
	return rec
}

func (l *Ledger) closeAt(i int) Record {
	rec := l.active[i]
	out := l.now()
	rec.CheckOutAt = &out
	l.active = append(l.active[:i], l.active[i+1:]...)
	l.history = append([]Record{rec}, l.history...)
	return rec
}
