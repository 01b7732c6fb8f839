// Package service holds the booking engine: permission-gated mutation of
// the interval store plus the read paths the bot surfaces.
package service

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"roombot/internal/access"
	"roombot/internal/metrics"
	"roombot/internal/models"
	"roombot/internal/timeparse"
)

// Store is the persistence surface the engine needs, implemented by
// database.DB.
type Store interface {
	CreateBooking(ctx context.Context, item *models.BookingItem) error
	FindBookingAt(ctx context.Context, t time.Time) (*models.BookingItem, error)
	RangeBookings(ctx context.Context, from, to *time.Time) ([]models.BookingItem, error)
	DeleteBooking(ctx context.Context, id int64) (bool, error)
	UpsertContact(ctx context.Context, userID, chatID int64, username string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	SetWhitelisted(ctx context.Context, userID int64, whitelisted bool) error
	ListWhitelisted(ctx context.Context) ([]models.User, error)
}

type BookingService struct {
	store  Store
	policy access.Policy
	now    func() time.Time
	logger *zerolog.Logger
}

func NewBookingService(store Store, policy access.Policy, logger *zerolog.Logger) *BookingService {
	return &BookingService{
		store:  store,
		policy: policy,
		now:    time.Now,
		logger: logger,
	}
}

// Identify records the user's current chat coordinates and returns the
// stored record with permission flags. Called on every incoming update.
func (s *BookingService) Identify(ctx context.Context, userID, chatID int64, username string) (*models.User, error) {
	return s.store.UpsertContact(ctx, userID, chatID, username)
}

// Book places a new booking. Checks run in a fixed order: access first,
// then start-in-the-past, then occupancy, so a non-whitelisted user always
// sees the access refusal regardless of the slot.
func (s *BookingService) Book(ctx context.Context, user *models.User, item *models.BookingItem) error {
	if !s.policy.IsWhitelisted(user) {
		return ErrNoAccess
	}
	// A start exactly at the current instant is already too late.
	if !item.Start.After(s.now()) {
		return ErrTimePassed
	}
	// The dialog can hand over an empty description when the incoming update
	// carried no text at all.
	if strings.TrimSpace(item.Description) == "" {
		return timeparse.ErrBadInput
	}
	item.OwnerID = user.UserID
	if err := s.store.CreateBooking(ctx, item); err != nil {
		return err
	}
	metrics.BookingCreated()
	s.logger.Info().
		Int64("user_id", user.UserID).
		Time("start", item.Start).
		Dur("duration", item.Duration).
		Msg("booking created")
	return nil
}

// Unbook cancels the booking covering the given moment and returns it.
// Without force the caller must own the booking and the moment must not be
// in the past. Force skips both checks but requires admin.
func (s *BookingService) Unbook(ctx context.Context, user *models.User, at time.Time, force bool) (*models.BookingItem, error) {
	if !s.policy.IsWhitelisted(user) {
		return nil, ErrNoAccess
	}
	if force && !s.policy.IsAdmin(user) {
		return nil, ErrNoAccess
	}
	if !force && !at.After(s.now()) {
		return nil, ErrTimePassed
	}
	item, err := s.store.FindBookingAt(ctx, at)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, ErrBookingNotFound
	}
	if !force && item.OwnerID != user.UserID {
		return nil, ErrNoAccess
	}
	deleted, err := s.store.DeleteBooking(ctx, item.ID)
	if err != nil {
		return nil, err
	}
	if !deleted {
		// Lost the race to a concurrent cancel.
		return nil, ErrBookingNotFound
	}
	metrics.BookingCancelled()
	s.logger.Info().
		Int64("user_id", user.UserID).
		Int64("booking_id", item.ID).
		Bool("force", force).
		Msg("booking cancelled")
	return item, nil
}

// Timetable returns bookings intersecting [from, to) in start order. Nil
// bounds are unbounded. Reads are open to everyone, whitelisted or not.
func (s *BookingService) Timetable(ctx context.Context, _ *models.User, from, to *time.Time) ([]models.BookingItem, error) {
	return s.store.RangeBookings(ctx, from, to)
}

// Whitelist returns all whitelisted users. Admin only.
func (s *BookingService) Whitelist(ctx context.Context, user *models.User) ([]models.User, error) {
	if !s.policy.IsAdmin(user) {
		return nil, ErrNoAccess
	}
	return s.store.ListWhitelisted(ctx)
}

// AddToWhitelist grants booking rights to a user by handle. The user must
// have messaged the bot before, otherwise there is no ID to attach.
func (s *BookingService) AddToWhitelist(ctx context.Context, admin *models.User, username string) error {
	return s.setWhitelist(ctx, admin, username, true)
}

// RemoveFromWhitelist revokes booking rights by handle.
func (s *BookingService) RemoveFromWhitelist(ctx context.Context, admin *models.User, username string) error {
	return s.setWhitelist(ctx, admin, username, false)
}

func (s *BookingService) setWhitelist(ctx context.Context, admin *models.User, username string, whitelisted bool) error {
	if !s.policy.IsAdmin(admin) {
		return ErrNoAccess
	}
	target, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		return err
	}
	if target == nil {
		return ErrUsernameNotFound
	}
	if err := s.store.SetWhitelisted(ctx, target.UserID, whitelisted); err != nil {
		return err
	}
	s.logger.Info().
		Int64("admin_id", admin.UserID).
		Str("username", username).
		Bool("whitelisted", whitelisted).
		Msg("whitelist changed")
	return nil
}
