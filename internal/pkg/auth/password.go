package auth

import (
	"golang.org/x/crypto/bcrypt"
)

// BcryptCost is the work factor for password digests
const BcryptCost = 12

// HashPassword derives a one-way digest from a plaintext password.
// The plaintext never travels past this function.
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// CheckPassword compares a stored digest against a candidate password
func CheckPassword(hashedPassword, password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
	return err == nil
}
