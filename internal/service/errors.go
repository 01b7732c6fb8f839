package service

import "errors"

var (
	// ErrNoAccess covers every permission refusal: not whitelisted, force
	// cancel without admin, cancelling someone else's booking.
	ErrNoAccess = errors.New("no access")

	// ErrTimePassed rejects operations on moments already in the past.
	ErrTimePassed = errors.New("time passed")

	// ErrBookingNotFound means no booking covers the requested moment.
	ErrBookingNotFound = errors.New("booking not found")

	// ErrUsernameNotFound means the handle has never talked to the bot.
	ErrUsernameNotFound = errors.New("username not found")
)
