package service

// Identity is the caller of a service operation. The zero value is the
// anonymous visitor.
type Identity struct {
	UserID   int64
	Username string
}

// Anonymous returns the identity of a visitor who is not logged in.
func Anonymous() Identity {
	return Identity{}
}

// IsAuthenticated reports whether the identity belongs to a user.
func (i Identity) IsAuthenticated() bool {
	return i.UserID != 0
}
