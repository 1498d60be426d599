// Package user defines the user model and the password digest helpers built
// on bcrypt. Plaintext passwords are never stored or compared directly.
package user

import "golang.org/x/crypto/bcrypt"

// User represents a registered account. Users are created at registration
// and never mutated or deleted afterwards.
type User struct {
	// ID is the unique identifier of the user, minted by the keygen package.
	ID string `json:"id"`

	// Email is the login key. Matching is exact and case-sensitive.
	Email string `json:"email"`

	// PasswordHash is the bcrypt digest of the password.
	PasswordHash string `json:"-"`
}

// HashPassword computes a bcrypt digest for the given plaintext password.
func HashPassword(password string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}

	return string(digest), nil
}

// CheckPassword reports whether the plaintext password matches the stored
// digest.
func (u *User) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}
