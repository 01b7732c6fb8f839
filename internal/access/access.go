// Package access decides what a user may do. Pure functions of the User
// record; persistence and transport know nothing about permissions.
package access

import "roombot/internal/models"

// Policy gates admin and whitelist checks.
//
// NegativeIDIsAdmin preserves a legacy contract: a user_id below zero is
// treated as admin and whitelisted regardless of stored flags. Transport
// identities are not normally negative, so the flag ships disabled unless the
// deployment relies on it.
type Policy struct {
	NegativeIDIsAdmin bool
}

// IsAdmin reports whether the user has administrator rights.
func (p Policy) IsAdmin(u *models.User) bool {
	if u == nil {
		return false
	}
	if p.NegativeIDIsAdmin && u.UserID < 0 {
		return true
	}
	return u.IsAdmin
}

// IsWhitelisted reports whether the user may create and cancel bookings.
// Admins are always whitelisted.
func (p Policy) IsWhitelisted(u *models.User) bool {
	if u == nil {
		return false
	}
	return p.IsAdmin(u) || u.IsWhitelisted
}
