package core_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"ers/src/core/ports"
	"ers/src/models"
	"ers/src/types"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(now time.Time) *fakeClock {
	return &fakeClock{now: now}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// memStore implements every storage port in memory with the same
// compare-and-swap semantics as the SQL adapter.
type memStore struct {
	mu        sync.Mutex
	events    map[uint]*models.Event
	regs      map[uint]*models.Registration
	entries   map[uint]*models.WaitlistEntry
	transfers map[uint]*models.TransferRequest
	nextID    uint
}

func newMemStore() *memStore {
	return &memStore{
		events:    map[uint]*models.Event{},
		regs:      map[uint]*models.Registration{},
		entries:   map[uint]*models.WaitlistEntry{},
		transfers: map[uint]*models.TransferRequest{},
	}
}

func (s *memStore) id() uint {
	s.nextID++
	return s.nextID
}

func (s *memStore) addEvent(ev models.Event) *models.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ev.ID == 0 {
		ev.ID = s.id()
	}
	s.events[ev.ID] = &ev
	return &ev
}

func (s *memStore) event(id uint) models.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.events[id]
}

func (s *memStore) queuedCount(eventID, userID uint) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, entry := range s.entries {
		if entry.EventID == eventID && entry.UserID == userID && entry.Status == types.WAITLIST_QUEUED {
			n++
		}
	}
	return n
}

func (s *memStore) registration(id uint) models.Registration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.regs[id]
}

func (s *memStore) GetByID(ctx context.Context, id uint) (*models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ev, ok := s.events[id]
	if !ok {
		return nil, errors.New("event not found")
	}
	cp := *ev
	return &cp, nil
}

func (s *memStore) ReserveSeat(ctx context.Context, id uint) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ev, ok := s.events[id]
	if !ok {
		return false, errors.New("event not found")
	}
	if ev.SeatsTaken >= ev.Capacity {
		return false, nil
	}
	ev.SeatsTaken++
	return true, nil
}

func (s *memStore) ReleaseSeat(ctx context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ev, ok := s.events[id]
	if !ok {
		return errors.New("event not found")
	}
	if ev.SeatsTaken > 0 {
		ev.SeatsTaken--
	}
	return nil
}

type memRegs struct{ *memStore }

func (s memRegs) Create(ctx context.Context, reg *models.Registration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	reg.ID = s.id()
	cp := *reg
	s.regs[reg.ID] = &cp
	return nil
}

func (s memRegs) GetByID(ctx context.Context, id uint) (*models.Registration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	reg, ok := s.regs[id]
	if !ok {
		return nil, errors.New("registration not found")
	}
	cp := *reg
	return &cp, nil
}

func (s memRegs) GetByTicketCode(ctx context.Context, code string) (*models.Registration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, reg := range s.regs {
		if reg.TicketCode == code {
			cp := *reg
			return &cp, nil
		}
	}
	return nil, errors.New("registration not found")
}

func (s memRegs) GetActive(ctx context.Context, eventID, userID uint) (*models.Registration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, reg := range s.regs {
		if reg.EventID == eventID && reg.UserID == userID && reg.Active() {
			cp := *reg
			return &cp, nil
		}
	}
	return nil, nil
}

func (s memRegs) ListExpiredPending(ctx context.Context, now time.Time, limit int) ([]models.Registration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Registration
	for _, reg := range s.regs {
		if reg.Expired(now) {
			out = append(out, *reg)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s memRegs) CompareAndSwap(ctx context.Context, id uint, from []types.RegistrationStatus, updates map[string]any) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	reg, ok := s.regs[id]
	if !ok {
		return false, nil
	}
	match := false
	for _, st := range from {
		if reg.Status == st {
			match = true
			break
		}
	}
	if !match {
		return false, nil
	}
	for k, v := range updates {
		switch k {
		case "status":
			reg.Status = v.(types.RegistrationStatus)
		case "payment_status":
			reg.PaymentStatus = v.(types.PaymentStatus)
		case "expires_at":
			switch t := v.(type) {
			case nil:
				reg.ExpiresAt = nil
			case time.Time:
				reg.ExpiresAt = &t
			}
		case "checked_in":
			reg.CheckedIn = v.(bool)
		case "checked_in_at":
			t := v.(time.Time)
			reg.CheckedInAt = &t
		case "original_price":
			reg.OriginalPrice = v.(float64)
		case "discount":
			reg.Discount = v.(float64)
		case "final_price":
			reg.FinalPrice = v.(float64)
		case "user_id":
			reg.UserID = v.(uint)
		case "holder_name":
			reg.HolderName = v.(string)
		case "holder_document":
			reg.HolderDocument = v.(string)
		case "holder_phone":
			reg.HolderPhone = v.(string)
		case "holder_email":
			reg.HolderEmail = v.(string)
		}
	}
	return true, nil
}

type memWaitlist struct{ *memStore }

func (s memWaitlist) Create(ctx context.Context, entry *models.WaitlistEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry.ID = s.id()
	cp := *entry
	s.entries[entry.ID] = &cp
	return nil
}

func (s memWaitlist) GetQueued(ctx context.Context, eventID, userID uint) (*models.WaitlistEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, entry := range s.entries {
		if entry.EventID == eventID && entry.UserID == userID && entry.Status == types.WAITLIST_QUEUED {
			cp := *entry
			return &cp, nil
		}
	}
	return nil, nil
}

func (s memWaitlist) queuedSorted(eventID uint) []*models.WaitlistEntry {
	var queued []*models.WaitlistEntry
	for _, entry := range s.entries {
		if entry.EventID == eventID && entry.Status == types.WAITLIST_QUEUED {
			queued = append(queued, entry)
		}
	}
	sort.Slice(queued, func(i, j int) bool {
		if queued[i].EnqueuedAt.Equal(queued[j].EnqueuedAt) {
			return queued[i].ID < queued[j].ID
		}
		return queued[i].EnqueuedAt.Before(queued[j].EnqueuedAt)
	})
	return queued
}

func (s memWaitlist) NextQueued(ctx context.Context, eventID uint) (*models.WaitlistEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	queued := s.queuedSorted(eventID)
	if len(queued) == 0 {
		return nil, nil
	}
	cp := *queued[0]
	return &cp, nil
}

func (s memWaitlist) PositionOf(ctx context.Context, eventID, userID uint) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, entry := range s.queuedSorted(eventID) {
		if entry.UserID == userID {
			return i + 1, nil
		}
	}
	return 0, nil
}

func (s memWaitlist) UpdateStatus(ctx context.Context, id uint, from, to types.WaitlistStatus, updates map[string]any) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[id]
	if !ok || entry.Status != from {
		return false, nil
	}
	entry.Status = to
	for k, v := range updates {
		if k == "notified_at" {
			t := v.(time.Time)
			entry.NotifiedAt = &t
		}
	}
	return true, nil
}

type memTransfers struct{ *memStore }

func (s memTransfers) Create(ctx context.Context, req *models.TransferRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	req.ID = s.id()
	cp := *req
	s.transfers[req.ID] = &cp
	return nil
}

func (s memTransfers) GetByID(ctx context.Context, id uint) (*models.TransferRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.transfers[id]
	if !ok {
		return nil, errors.New("transfer request not found")
	}
	cp := *req
	return &cp, nil
}

func (s memTransfers) CompareAndSwap(ctx context.Context, id uint, from, to types.TransferStatus) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.transfers[id]
	if !ok || req.Status != from {
		return false, nil
	}
	req.Status = to
	return true, nil
}

type fakeProfiles struct {
	mu       sync.Mutex
	profiles map[uint]ports.Profile
}

func newFakeProfiles() *fakeProfiles {
	return &fakeProfiles{profiles: map[uint]ports.Profile{}}
}

func (f *fakeProfiles) set(userID uint, p ports.Profile) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.profiles[userID] = p
}

func (f *fakeProfiles) Snapshot(ctx context.Context, userID uint) (*ports.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.profiles[userID]; ok {
		cp := p
		return &cp, nil
	}
	return &ports.Profile{Name: "Fulano de Tal", Email: "fulano@example.com", Reputation: 5.0}, nil
}

type fakeGateway struct {
	mu       sync.Mutex
	fail     bool
	sessions int
}

func (g *fakeGateway) Authorize(ctx context.Context, reg *models.Registration) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.fail {
		return "", errors.New("gateway unavailable")
	}
	g.sessions++
	return "session-1", nil
}

type sinkCall struct {
	UserID uint
	Kind   types.NotificationKind
}

type recordingSink struct {
	mu    sync.Mutex
	fail  bool
	calls []sinkCall
}

func (s *recordingSink) Notify(ctx context.Context, userID uint, kind types.NotificationKind, payload types.JSONB) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, sinkCall{UserID: userID, Kind: kind})
	if s.fail {
		return errors.New("sink unavailable")
	}
	return nil
}

func (s *recordingSink) kinds() []types.NotificationKind {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.NotificationKind, len(s.calls))
	for i, c := range s.calls {
		out[i] = c.Kind
	}
	return out
}
