package user

// User represents a registered library member.
type User struct {
	ID           int64  // ID is the unique identifier for the user
	Username     string // Username is the unique login name
	Email        string // Email is the unique email address of the user
	PasswordHash string // PasswordHash is the bcrypt hash of the password
	FirstName    string
	LastName     string
}

// FullName returns the display name for rendered pages.
func (u *User) FullName() string {
	if u.FirstName == "" && u.LastName == "" {
		return u.Username
	}
	return u.FirstName + " " + u.LastName
}
