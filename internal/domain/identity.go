package domain

import "time"

// Identity is what a successful authentication hands back to callers.
// It never carries credential material.
type Identity struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Session is the request-scoped view of a valid session claim. The zero
// value is the anonymous session.
type Session struct {
	User    *Identity `json:"user,omitempty"`
	Expires time.Time `json:"expires,omitzero"`
}

// Authenticated reports whether the session carries a user.
func (s Session) Authenticated() bool {
	return s.User != nil && s.User.ID != ""
}
