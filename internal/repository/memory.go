package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"asyncaccess/internal/models"
)

// MemoryStore is an in-memory implementation of the store interfaces used by
// the service layer. It backs the test suite and a database-free dev mode.
// WithTx serializes behind a single mutex, which gives the same mutual
// exclusion the SQL store gets from row locks; rollback of partially applied
// transactions is not simulated.
type MemoryStore struct {
	mu sync.RWMutex

	users    map[int64]*models.User
	events   map[int64]*models.Event
	bookings map[int64]*models.Booking

	nextUserID    int64
	nextEventID   int64
	nextBookingID int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    make(map[int64]*models.User),
		events:   make(map[int64]*models.Event),
		bookings: make(map[int64]*models.Booking),
	}
}

// Events returns the event-store view of the memory store.
func (m *MemoryStore) Events() *MemoryEventStore { return &MemoryEventStore{m} }

// Bookings returns the booking-store view of the memory store.
func (m *MemoryStore) Bookings() *MemoryBookingStore { return &MemoryBookingStore{m} }

// Users returns the user-store view of the memory store.
func (m *MemoryStore) Users() *MemoryUserStore { return &MemoryUserStore{m} }

// WithTx implements InventoryStore.
func (m *MemoryStore) WithTx(ctx context.Context, fn func(tx InventoryTx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(&memTx{store: m})
}

type memTx struct {
	store *MemoryStore
}

func (t *memTx) GetEventForUpdate(ctx context.Context, eventID int64) (*models.Event, error) {
	event, ok := t.store.events[eventID]
	if !ok {
		return nil, nil
	}
	copied := *event
	return &copied, nil
}

func (t *memTx) HasActiveBooking(ctx context.Context, userID, eventID int64) (bool, error) {
	for _, b := range t.store.bookings {
		if b.UserID == userID && b.EventID == eventID && b.Status != models.BookingStatusCancelled {
			return true, nil
		}
	}
	return false, nil
}

func (t *memTx) InsertBooking(ctx context.Context, booking *models.Booking) error {
	t.store.nextBookingID++
	booking.ID = t.store.nextBookingID
	booking.CreatedAt = time.Now()
	booking.UpdatedAt = booking.CreatedAt

	copied := *booking
	t.store.bookings[booking.ID] = &copied
	return nil
}

func (t *memTx) GetBookingForUpdate(ctx context.Context, bookingID int64) (*models.Booking, error) {
	booking, ok := t.store.bookings[bookingID]
	if !ok {
		return nil, nil
	}
	copied := *booking
	return &copied, nil
}

func (t *memTx) SetBookingStatus(ctx context.Context, bookingID int64, status string) error {
	if booking, ok := t.store.bookings[bookingID]; ok {
		booking.Status = status
		booking.UpdatedAt = time.Now()
	}
	return nil
}

func (t *memTx) TakeTickets(ctx context.Context, eventID int64, n int) (bool, error) {
	event, ok := t.store.events[eventID]
	if !ok {
		return false, nil
	}
	if event.BookedTickets+n > event.TotalTickets {
		return false, nil
	}
	event.BookedTickets += n
	event.UpdatedAt = time.Now()
	return true, nil
}

func (t *memTx) ReturnTickets(ctx context.Context, eventID int64, n int) (bool, error) {
	event, ok := t.store.events[eventID]
	if !ok {
		return false, nil
	}
	event.BookedTickets -= n
	if event.BookedTickets < 0 {
		event.BookedTickets = 0
	}
	event.UpdatedAt = time.Now()
	return true, nil
}

func (t *memTx) ConfirmedBookingsForUser(ctx context.Context, userID int64) ([]models.Booking, error) {
	var bookings []models.Booking
	for _, b := range t.store.bookings {
		if b.UserID == userID && b.Status == models.BookingStatusConfirmed {
			bookings = append(bookings, *b)
		}
	}
	sort.Slice(bookings, func(i, j int) bool { return bookings[i].ID < bookings[j].ID })
	return bookings, nil
}

func (t *memTx) DeleteBookingsForEvent(ctx context.Context, eventID int64) (int64, error) {
	var deleted int64
	for id, b := range t.store.bookings {
		if b.EventID == eventID {
			delete(t.store.bookings, id)
			deleted++
		}
	}
	return deleted, nil
}

func (t *memTx) DeleteBookingsForUser(ctx context.Context, userID int64) (int64, error) {
	var deleted int64
	for id, b := range t.store.bookings {
		if b.UserID == userID {
			delete(t.store.bookings, id)
			deleted++
		}
	}
	return deleted, nil
}

func (t *memTx) EventIDsForOrganizer(ctx context.Context, organizerID int64) ([]int64, error) {
	var ids []int64
	for id, e := range t.store.events {
		if e.OrganizerID == organizerID {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (t *memTx) DeleteEvent(ctx context.Context, eventID int64) (bool, error) {
	if _, ok := t.store.events[eventID]; !ok {
		return false, nil
	}
	delete(t.store.events, eventID)
	return true, nil
}

// MemoryEventStore exposes the event operations of a MemoryStore.
type MemoryEventStore struct {
	m *MemoryStore
}

func (s *MemoryEventStore) Create(ctx context.Context, event *models.Event) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	s.m.nextEventID++
	event.ID = s.m.nextEventID
	event.CreatedAt = time.Now()
	event.UpdatedAt = event.CreatedAt

	copied := *event
	s.m.events[event.ID] = &copied
	return nil
}

func (s *MemoryEventStore) GetByID(ctx context.Context, id int64) (*models.Event, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()

	event, ok := s.m.events[id]
	if !ok {
		return nil, nil
	}
	copied := *event
	return &copied, nil
}

func (s *MemoryEventStore) ListApproved(ctx context.Context, query string) ([]models.Event, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()

	var events []models.Event
	for _, e := range s.m.events {
		if e.Status == models.EventStatusApproved {
			events = append(events, *e)
		}
	}
	sort.Slice(events, func(i, j int) bool { return events[i].EventDate.Before(events[j].EventDate) })
	return events, nil
}

func (s *MemoryEventStore) ListByOrganizer(ctx context.Context, organizerID int64) ([]models.Event, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()

	var events []models.Event
	for _, e := range s.m.events {
		if e.OrganizerID == organizerID {
			events = append(events, *e)
		}
	}
	sort.Slice(events, func(i, j int) bool { return events[i].ID > events[j].ID })
	return events, nil
}

func (s *MemoryEventStore) UpdateStatus(ctx context.Context, id int64, status string) (bool, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	event, ok := s.m.events[id]
	if !ok {
		return false, nil
	}
	event.Status = status
	event.UpdatedAt = time.Now()
	return true, nil
}

func (s *MemoryEventStore) Delete(ctx context.Context, id int64) (bool, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	if _, ok := s.m.events[id]; !ok {
		return false, nil
	}
	delete(s.m.events, id)
	return true, nil
}

func (s *MemoryEventStore) GetAvailability(ctx context.Context, id int64) (int, bool, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()

	event, ok := s.m.events[id]
	if !ok {
		return 0, false, nil
	}
	return event.AvailableTickets(), true, nil
}

// MemoryBookingStore exposes the booking read operations of a MemoryStore.
type MemoryBookingStore struct {
	m *MemoryStore
}

func (s *MemoryBookingStore) GetByID(ctx context.Context, id int64) (*models.Booking, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()

	booking, ok := s.m.bookings[id]
	if !ok {
		return nil, nil
	}
	copied := *booking
	return &copied, nil
}

func (s *MemoryBookingStore) ListByUserWithEvent(ctx context.Context, userID int64) ([]models.ListBookingsResponseItem, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()

	var items []models.ListBookingsResponseItem
	for _, b := range s.m.bookings {
		if b.UserID != userID {
			continue
		}
		event, ok := s.m.events[b.EventID]
		if !ok {
			continue
		}
		items = append(items, models.ListBookingsResponseItem{
			ID:              b.ID,
			EventID:         b.EventID,
			NumberOfTickets: b.NumberOfTickets,
			TotalPrice:      b.TotalPrice,
			Status:          b.Status,
			CreatedAt:       b.CreatedAt,
			Event: models.BookingEventInfo{
				Title:     event.Title,
				EventDate: event.EventDate,
			},
		})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID > items[j].ID })
	return items, nil
}

// MemoryUserStore exposes the user operations of a MemoryStore.
type MemoryUserStore struct {
	m *MemoryStore
}

func (s *MemoryUserStore) Create(ctx context.Context, user *models.User) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	s.m.nextUserID++
	user.ID = s.m.nextUserID
	user.CreatedAt = time.Now()

	copied := *user
	s.m.users[user.ID] = &copied
	return nil
}

func (s *MemoryUserStore) GetByID(ctx context.Context, id int64) (*models.User, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()

	user, ok := s.m.users[id]
	if !ok {
		return nil, nil
	}
	copied := *user
	return &copied, nil
}

func (s *MemoryUserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()

	for _, u := range s.m.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *MemoryUserStore) Delete(ctx context.Context, id int64) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	delete(s.m.users, id)
	return nil
}
