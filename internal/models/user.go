package models

// User represents a registered account.
//
// The password is stored only as a bcrypt hash; plaintext never leaves the
// authenticator. Usernames are unique; the credential store enforces this
// with a UNIQUE constraint so concurrent registrations cannot produce two
// records.
type User struct {
	// ID is the unique identifier for the user (UUID format).
	ID string `json:"id"`

	// Username is the unique login name, also used as the chat identity.
	Username string `json:"username"`

	// PasswordHash is the bcrypt hash of the user's password.
	// Never serialized to clients.
	PasswordHash string `json:"-"`

	// CreatedAt is the Unix timestamp when the account was created.
	CreatedAt int64 `json:"created_at"`
}
