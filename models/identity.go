package models

// Identity is the caller as resolved from the bearer token.
type Identity struct {
	UserID   string
	Email    string
	Resolved bool
}

// Anonymous is the identity of a request without a valid token.
func Anonymous() Identity {
	return Identity{}
}

// ResolvedIdentity builds an identity from a verified token.
func ResolvedIdentity(userID, email string) Identity {
	return Identity{UserID: userID, Email: email, Resolved: true}
}

// OrDemo returns the caller's id, or the fallback identity when anonymous.
func (i Identity) OrDemo() string {
	if i.Resolved {
		return i.UserID
	}
	return DemoUserID
}
