package service

import (
	bookingserrors "campusres/internal/bookings/errors"
	mongotx "campusres/pkg/db/mongo"
	"campusres/pkg/model"
	"context"
	"sort"
	"sync"
	"time"
)

// memStore is an in-memory reservation store. Transactions run one at a time
// and roll back every write when fn fails.
type memStore struct {
	txMu sync.Mutex
	mu   sync.RWMutex

	bookings map[string]*model.Booking
	blocked  []*model.BlockedDateRange
	outbox   []*model.OutboxEvent
	guards   map[string]int64

	updateErr error
	appendErr error
}

func newMemStore(bookings ...*model.Booking) *memStore {
	m := &memStore{
		bookings: make(map[string]*model.Booking),
		guards:   make(map[string]int64),
	}
	for _, b := range bookings {
		b.Version = 1
		m.bookings[b.BookingID] = cloneBooking(b)
	}
	return m
}

func cloneBooking(b *model.Booking) *model.Booking {
	c := *b
	c.Metadata.PreviousSlots = append([]model.SlotHistory(nil), b.Metadata.PreviousSlots...)
	return &c
}

type memSnapshot struct {
	bookings map[string]*model.Booking
	outbox   []*model.OutboxEvent
	guards   map[string]int64
}

func (m *memStore) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	m.mu.Lock()
	snap := memSnapshot{
		bookings: make(map[string]*model.Booking, len(m.bookings)),
		outbox:   append([]*model.OutboxEvent(nil), m.outbox...),
		guards:   make(map[string]int64, len(m.guards)),
	}
	for k, v := range m.bookings {
		snap.bookings[k] = cloneBooking(v)
	}
	for k, v := range m.guards {
		snap.guards[k] = v
	}
	m.mu.Unlock()

	if err := fn(ctx); err != nil {
		m.mu.Lock()
		m.bookings, m.outbox, m.guards = snap.bookings, snap.outbox, snap.guards
		m.mu.Unlock()
		return err
	}
	return nil
}

func (m *memStore) Create(ctx context.Context, booking *model.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	booking.Version = 1
	m.bookings[booking.BookingID] = cloneBooking(booking)
	return nil
}

func (m *memStore) FindByBookingID(ctx context.Context, bookingID string) (*model.Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.bookings[bookingID]
	if !ok {
		return nil, bookingserrors.ErrNotFound
	}
	return cloneBooking(b), nil
}

func (m *memStore) Update(ctx context.Context, booking *model.Booking) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.bookings[booking.BookingID]
	if !ok {
		return bookingserrors.ErrNotFound
	}
	if stored.Version != booking.Version {
		return bookingserrors.ErrVersionConflict
	}
	booking.Version++
	booking.UpdatedAt = time.Now().UTC()
	m.bookings[booking.BookingID] = cloneBooking(booking)
	return nil
}

func (m *memStore) FindActive(ctx context.Context, facility model.FacilityType, date string, exclude string) ([]*model.Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.Booking
	for _, b := range m.bookings {
		if b.FacilityType == facility && b.Date == date && b.IsActive() && b.BookingID != exclude {
			out = append(out, cloneBooking(b))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime < out[j].StartTime })
	return out, nil
}

func (m *memStore) FindActiveOverlapping(ctx context.Context, facility model.FacilityType, date string, slot model.Interval, exclude string) ([]*model.Booking, error) {
	active, _ := m.FindActive(ctx, facility, date, exclude)
	var out []*model.Booking
	for _, b := range active {
		if slot.Overlaps(b.Slot()) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *memStore) FindBookedDates(ctx context.Context, facility model.FacilityType, from string, exclude string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	seen := map[string]bool{}
	var out []string
	for _, b := range m.bookings {
		if b.FacilityType == facility && b.IsActive() && b.Date >= from && b.BookingID != exclude && !seen[b.Date] {
			seen[b.Date] = true
			out = append(out, b.Date)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (m *memStore) FindActiveCovering(ctx context.Context, facility model.FacilityType, date string) ([]*model.BlockedDateRange, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.BlockedDateRange
	for _, r := range m.blocked {
		if r.Covers(facility, date) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memStore) Touch(ctx context.Context, facility model.FacilityType, date string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.guards[model.SlotGuardID(facility, date)]++
	return nil
}

func (m *memStore) Append(ctx context.Context, event *model.OutboxEvent) error {
	if m.appendErr != nil {
		return m.appendErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outbox = append(m.outbox, event)
	return nil
}

func (m *memStore) FetchPending(ctx context.Context, limit int, maxAttempts int) ([]*model.OutboxEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.OutboxEvent
	for _, e := range m.outbox {
		if e.PublishedAt == nil && e.Attempts < maxAttempts && len(out) < limit {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memStore) MarkPublished(ctx context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.outbox {
		if e.ID == id {
			e.PublishedAt = &at
			e.Attempts++
			return nil
		}
	}
	return bookingserrors.ErrOutboxEventNotFound
}

func (m *memStore) MarkFailed(ctx context.Context, id string, cause error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.outbox {
		if e.ID == id {
			e.Attempts++
			e.LastError = cause.Error()
			return nil
		}
	}
	return bookingserrors.ErrOutboxEventNotFound
}

func (m *memStore) get(id string) *model.Booking {
	b, _ := m.FindByBookingID(context.Background(), id)
	return b
}

func (m *memStore) events() []*model.OutboxEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*model.OutboxEvent(nil), m.outbox...)
}
