package service

import (
	"context"
	"fmt"
	"time"

	apperrors "asyncaccess/internal/errors"
	"asyncaccess/internal/logger"
	"asyncaccess/internal/messaging"
	"asyncaccess/internal/models"
)

// UserService is the deletion entry point for accounts. Account creation
// and profile management live outside this service; what matters here is
// that deleting a user releases their inventory through the cascade instead
// of touching counters inline.
type UserService struct {
	users     UserStore
	inventory *InventoryService
	nats      *messaging.NATSClient
}

func NewUserService(users UserStore, inventory *InventoryService, natsClient *messaging.NATSClient) *UserService {
	return &UserService{
		users:     users,
		inventory: inventory,
		nats:      natsClient,
	}
}

func (s *UserService) GetByID(ctx context.Context, id int64) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("user %d: %w", id, apperrors.ErrNotFound)
	}
	return user, nil
}

// Delete removes the account after cascading release of everything it
// holds: bookings for regular users, events and their bookings for
// organizers.
func (s *UserService) Delete(ctx context.Context, userID int64) (*models.UserCascadeResult, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("user %d: %w", userID, apperrors.ErrNotFound)
	}

	result, err := s.inventory.CascadeReleaseForUser(ctx, userID, user.Role)
	if err != nil {
		return nil, err
	}

	if err := s.users.Delete(ctx, userID); err != nil {
		return nil, fmt.Errorf("failed to delete user: %w", err)
	}

	if err := s.nats.Publish(models.EventUserPurged, models.UserPurgedEvent{
		UserID:          userID,
		Role:            user.Role,
		EventsUpdated:   result.EventsUpdated,
		EventsDeleted:   result.EventsDeleted,
		BookingsDeleted: result.BookingsDeleted,
		Timestamp:       time.Now(),
	}); err != nil {
		logger.WithContext(ctx).Error("Failed to publish user purged event",
			"error", err, "user_id", userID)
	}

	return result, nil
}
