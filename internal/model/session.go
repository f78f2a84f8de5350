package model

// Session is the authenticated identity currently signed in to the
// application. A nil *Session means signed out.
type Session struct {
	// UserID is the identity's unique identifier.
	UserID string `json:"user_id"`

	// Email is the identity's sign-in address.
	Email string `json:"email"`

	// AccessToken is the bearer credential for API and feed calls.
	AccessToken string `json:"access_token"`
}

// Same reports whether two session states describe the same identity.
// Two nils are the same state; a nil and a non-nil are not.
func (s *Session) Same(other *Session) bool {
	if s == nil || other == nil {
		return s == nil && other == nil
	}
	return s.UserID == other.UserID
}
