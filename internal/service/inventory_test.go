package service

import (
	"context"
	"sync"
	"testing"
	"time"

	apperrors "asyncaccess/internal/errors"
	"asyncaccess/internal/models"
	"asyncaccess/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newInventoryService(store *repository.MemoryStore, opts Options) *InventoryService {
	return NewInventoryService(store, store.Bookings(), store.Events(), nil, opts)
}

func seedEvent(t *testing.T, store *repository.MemoryStore, organizerID int64, total int, status string) *models.Event {
	t.Helper()
	event := &models.Event{
		OrganizerID:  organizerID,
		Title:        "Test Event",
		EventDate:    time.Now().Add(24 * time.Hour),
		TicketPrice:  2500,
		TotalTickets: total,
		Status:       status,
	}
	require.NoError(t, store.Events().Create(context.Background(), event))
	return event
}

func TestReserve(t *testing.T) {
	store := repository.NewMemoryStore()
	svc := newInventoryService(store, Options{})
	event := seedEvent(t, store, 1, 10, models.EventStatusApproved)

	booking, err := svc.Reserve(context.Background(), 2, event.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusConfirmed, booking.Status)
	assert.Equal(t, 3, booking.NumberOfTickets)
	assert.Equal(t, int64(3*2500), booking.TotalPrice)

	available, err := svc.GetAvailability(context.Background(), event.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, available)
}

func TestReserveValidation(t *testing.T) {
	store := repository.NewMemoryStore()
	svc := newInventoryService(store, Options{})
	event := seedEvent(t, store, 1, 10, models.EventStatusApproved)

	_, err := svc.Reserve(context.Background(), 2, event.ID, 0)
	assert.ErrorIs(t, err, apperrors.ErrInvalidState)

	_, err = svc.Reserve(context.Background(), 2, event.ID, -1)
	assert.ErrorIs(t, err, apperrors.ErrInvalidState)

	_, err = svc.Reserve(context.Background(), 2, 999, 1)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestReserveUnapprovedEvent(t *testing.T) {
	store := repository.NewMemoryStore()
	svc := newInventoryService(store, Options{})
	pending := seedEvent(t, store, 1, 10, models.EventStatusPending)
	rejected := seedEvent(t, store, 1, 10, models.EventStatusRejected)

	_, err := svc.Reserve(context.Background(), 2, pending.ID, 1)
	assert.ErrorIs(t, err, apperrors.ErrInvalidState)

	_, err = svc.Reserve(context.Background(), 2, rejected.ID, 1)
	assert.ErrorIs(t, err, apperrors.ErrInvalidState)
}

func TestReserveInsufficientInventory(t *testing.T) {
	store := repository.NewMemoryStore()
	svc := newInventoryService(store, Options{})
	event := seedEvent(t, store, 1, 10, models.EventStatusApproved)

	_, err := svc.Reserve(context.Background(), 2, event.ID, 6)
	require.NoError(t, err)

	_, err = svc.Reserve(context.Background(), 3, event.ID, 6)
	assert.ErrorIs(t, err, apperrors.ErrInsufficientInventory)

	// The failed attempt must not move the counter.
	available, err := svc.GetAvailability(context.Background(), event.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, available)

	// A request that fits the remainder still goes through.
	_, err = svc.Reserve(context.Background(), 3, event.ID, 4)
	require.NoError(t, err)

	available, err = svc.GetAvailability(context.Background(), event.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, available)
}

func TestReserveDuplicate(t *testing.T) {
	store := repository.NewMemoryStore()
	svc := newInventoryService(store, Options{})
	event := seedEvent(t, store, 1, 10, models.EventStatusApproved)

	booking, err := svc.Reserve(context.Background(), 2, event.ID, 2)
	require.NoError(t, err)

	_, err = svc.Reserve(context.Background(), 2, event.ID, 1)
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	// Cancelling the first booking clears the way for a new one.
	_, err = svc.Release(context.Background(), booking.ID, 2)
	require.NoError(t, err)

	_, err = svc.Reserve(context.Background(), 2, event.ID, 1)
	assert.NoError(t, err)
}

func TestConcurrentReserveNoOversell(t *testing.T) {
	store := repository.NewMemoryStore()
	svc := newInventoryService(store, Options{})
	event := seedEvent(t, store, 1, 50, models.EventStatusApproved)

	const workers = 20
	const perWorker = 5

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(userID int64) {
			defer wg.Done()
			_, err := svc.Reserve(context.Background(), userID, event.ID, perWorker)
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, apperrors.ErrInsufficientInventory)
		}(int64(100 + i))
	}
	wg.Wait()

	assert.Equal(t, 10, succeeded)

	available, err := svc.GetAvailability(context.Background(), event.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, available)

	// Registry and ledger must agree on the number of held tickets.
	updated, err := store.Events().GetByID(context.Background(), event.ID)
	require.NoError(t, err)
	held := 0
	for i := 0; i < workers; i++ {
		items, err := store.Bookings().ListByUserWithEvent(context.Background(), int64(100+i))
		require.NoError(t, err)
		for _, item := range items {
			if item.Status != models.BookingStatusCancelled {
				held += item.NumberOfTickets
			}
		}
	}
	assert.Equal(t, updated.BookedTickets, held)
}

func TestConcurrentReserveLastTickets(t *testing.T) {
	store := repository.NewMemoryStore()
	svc := newInventoryService(store, Options{})
	event := seedEvent(t, store, 1, 10, models.EventStatusApproved)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			_, errs[idx] = svc.Reserve(context.Background(), int64(10+idx), event.ID, 6)
		}(i)
	}
	wg.Wait()

	// Exactly one of the racing reservations wins the last block.
	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
		} else {
			assert.ErrorIs(t, err, apperrors.ErrInsufficientInventory)
		}
	}
	assert.Equal(t, 1, winners)

	available, err := svc.GetAvailability(context.Background(), event.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, available)
}

func TestRelease(t *testing.T) {
	store := repository.NewMemoryStore()
	svc := newInventoryService(store, Options{})
	event := seedEvent(t, store, 1, 10, models.EventStatusApproved)

	booking, err := svc.Reserve(context.Background(), 2, event.ID, 4)
	require.NoError(t, err)

	released, err := svc.Release(context.Background(), booking.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusCancelled, released.Status)

	available, err := svc.GetAvailability(context.Background(), event.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, available)
}

func TestReleaseAlreadyCancelled(t *testing.T) {
	store := repository.NewMemoryStore()
	svc := newInventoryService(store, Options{})
	event := seedEvent(t, store, 1, 10, models.EventStatusApproved)

	booking, err := svc.Reserve(context.Background(), 2, event.ID, 4)
	require.NoError(t, err)

	_, err = svc.Release(context.Background(), booking.ID, 2)
	require.NoError(t, err)

	_, err = svc.Release(context.Background(), booking.ID, 2)
	assert.ErrorIs(t, err, apperrors.ErrInvalidState)

	// The counter moved exactly once.
	available, err := svc.GetAvailability(context.Background(), event.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, available)
}

func TestReleaseOwnership(t *testing.T) {
	store := repository.NewMemoryStore()
	svc := newInventoryService(store, Options{})
	event := seedEvent(t, store, 1, 10, models.EventStatusApproved)

	booking, err := svc.Reserve(context.Background(), 2, event.ID, 4)
	require.NoError(t, err)

	_, err = svc.Release(context.Background(), booking.ID, 3)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	_, err = svc.Release(context.Background(), 999, 2)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	available, err := svc.GetAvailability(context.Background(), event.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, available)
}

func TestReleaseAfterEventDeleted(t *testing.T) {
	store := repository.NewMemoryStore()
	svc := newInventoryService(store, Options{})
	event := seedEvent(t, store, 1, 10, models.EventStatusApproved)

	booking, err := svc.Reserve(context.Background(), 2, event.ID, 4)
	require.NoError(t, err)

	_, err = store.Events().Delete(context.Background(), event.ID)
	require.NoError(t, err)

	// Counter update is skipped but the booking still cancels.
	released, err := svc.Release(context.Background(), booking.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusCancelled, released.Status)
}

func TestCascadeReleaseForEvent(t *testing.T) {
	store := repository.NewMemoryStore()
	svc := newInventoryService(store, Options{})
	event := seedEvent(t, store, 1, 20, models.EventStatusApproved)
	other := seedEvent(t, store, 1, 20, models.EventStatusApproved)

	b1, err := svc.Reserve(context.Background(), 2, event.ID, 3)
	require.NoError(t, err)
	_, err = svc.Reserve(context.Background(), 3, event.ID, 2)
	require.NoError(t, err)
	_, err = svc.Reserve(context.Background(), 2, other.ID, 1)
	require.NoError(t, err)

	// Cancelled rows are purged too.
	_, err = svc.Release(context.Background(), b1.ID, 2)
	require.NoError(t, err)

	result, err := svc.CascadeReleaseForEvent(context.Background(), event.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), result.DeletedBookingCount)

	// The other event's bookings are untouched.
	items, err := store.Bookings().ListByUserWithEvent(context.Background(), 2)
	require.NoError(t, err)
	assert.Len(t, items, 1)
	assert.Equal(t, other.ID, items[0].EventID)

	_, err = svc.CascadeReleaseForEvent(context.Background(), 999)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestCascadeReleaseForUser(t *testing.T) {
	store := repository.NewMemoryStore()
	svc := newInventoryService(store, Options{})
	approved := seedEvent(t, store, 1, 10, models.EventStatusApproved)
	demoted := seedEvent(t, store, 1, 10, models.EventStatusApproved)

	_, err := svc.Reserve(context.Background(), 5, approved.ID, 3)
	require.NoError(t, err)
	_, err = svc.Reserve(context.Background(), 5, demoted.ID, 2)
	require.NoError(t, err)

	// Demote after booking; its counter must be left alone by default.
	_, err = store.Events().UpdateStatus(context.Background(), demoted.ID, models.EventStatusPending)
	require.NoError(t, err)

	result, err := svc.CascadeReleaseForUser(context.Background(), 5, models.RoleUser)
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.EventsUpdated)
	assert.Equal(t, int64(2), result.BookingsDeleted)

	approvedAfter, err := store.Events().GetByID(context.Background(), approved.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, approvedAfter.BookedTickets)

	demotedAfter, err := store.Events().GetByID(context.Background(), demoted.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, demotedAfter.BookedTickets)
}

func TestCascadeReleaseForUserUnapprovedPolicy(t *testing.T) {
	store := repository.NewMemoryStore()
	svc := newInventoryService(store, Options{CascadeReleaseUnapproved: true})
	event := seedEvent(t, store, 1, 10, models.EventStatusApproved)

	_, err := svc.Reserve(context.Background(), 5, event.ID, 2)
	require.NoError(t, err)

	_, err = store.Events().UpdateStatus(context.Background(), event.ID, models.EventStatusPending)
	require.NoError(t, err)

	result, err := svc.CascadeReleaseForUser(context.Background(), 5, models.RoleUser)
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.EventsUpdated)

	after, err := store.Events().GetByID(context.Background(), event.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, after.BookedTickets)
}

func TestCascadeReleaseForOrganizer(t *testing.T) {
	store := repository.NewMemoryStore()
	svc := newInventoryService(store, Options{})
	mine := seedEvent(t, store, 7, 10, models.EventStatusApproved)
	alsoMine := seedEvent(t, store, 7, 10, models.EventStatusApproved)
	theirs := seedEvent(t, store, 8, 10, models.EventStatusApproved)

	_, err := svc.Reserve(context.Background(), 2, mine.ID, 3)
	require.NoError(t, err)
	_, err = svc.Reserve(context.Background(), 3, mine.ID, 1)
	require.NoError(t, err)
	_, err = svc.Reserve(context.Background(), 2, theirs.ID, 1)
	require.NoError(t, err)

	result, err := svc.CascadeReleaseForUser(context.Background(), 7, models.RoleOrganizer)
	require.NoError(t, err)
	assert.Equal(t, int64(2), result.EventsDeleted)
	assert.Equal(t, int64(2), result.BookingsDeleted)

	gone, err := store.Events().GetByID(context.Background(), mine.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)
	gone, err = store.Events().GetByID(context.Background(), alsoMine.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)

	kept, err := store.Events().GetByID(context.Background(), theirs.ID)
	require.NoError(t, err)
	require.NotNil(t, kept)
	assert.Equal(t, 1, kept.BookedTickets)
}

func TestListBookingsForUser(t *testing.T) {
	store := repository.NewMemoryStore()
	svc := newInventoryService(store, Options{})
	event := seedEvent(t, store, 1, 10, models.EventStatusApproved)

	_, err := svc.ListBookingsForUser(context.Background(), 2)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	booking, err := svc.Reserve(context.Background(), 2, event.ID, 2)
	require.NoError(t, err)

	items, err := svc.ListBookingsForUser(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, booking.ID, items[0].ID)
	assert.Equal(t, "Test Event", items[0].Event.Title)
}

func TestGetAvailability(t *testing.T) {
	store := repository.NewMemoryStore()
	svc := newInventoryService(store, Options{})
	event := seedEvent(t, store, 1, 10, models.EventStatusApproved)

	available, err := svc.GetAvailability(context.Background(), event.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, available)

	_, err = svc.GetAvailability(context.Background(), 999)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
