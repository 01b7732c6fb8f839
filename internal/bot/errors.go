package bot

import (
	"errors"

	"roombot/internal/database"
	"roombot/internal/dialog"
	"roombot/internal/service"
	"roombot/internal/timeparse"
)

// errBadArity is raised for commands called with the wrong argument count.
var errBadArity = errors.New("bad command arity")

// errorMessage maps an expected refusal to its fixed user-facing message and
// a metric label. ok is false for anything outside the taxonomy; those are
// operational failures and must be logged, never shown as a generic excuse.
func errorMessage(err error) (text, reason string, ok bool) {
	switch {
	case errors.Is(err, service.ErrNoAccess):
		return msgNoAccess, "no_access", true
	case errors.Is(err, service.ErrTimePassed):
		return msgTimePassed, "time_passed", true
	case errors.Is(err, service.ErrBookingNotFound):
		return msgBookingNotFound, "booking_not_found", true
	case errors.Is(err, service.ErrUsernameNotFound):
		return msgUsernameNotFound, "username_not_found", true
	case errors.Is(err, database.ErrTimeOccupied):
		return msgTimeOccupied, "time_occupied", true
	case errors.Is(err, dialog.ErrDateEmpty):
		return msgDateEmpty, "date_empty", true
	case errors.Is(err, timeparse.ErrBadDateFormat):
		return msgBadDateFormat, "bad_date_format", true
	case errors.Is(err, timeparse.ErrBadInput), errors.Is(err, errBadArity):
		return msgBadInput, "bad_input", true
	}
	return "", "", false
}
