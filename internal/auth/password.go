package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"log"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword generates a bcrypt hash for the given password.
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("Error generating bcrypt hash: %v", err)
		return "", err
	}
	return string(bytes), nil
}

// CheckPasswordHash compares a plaintext password with a stored bcrypt hash.
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if err != nil {
		if err != bcrypt.ErrMismatchedHashAndPassword {
			// Log unexpected errors, but still return false for security
			log.Printf("Error comparing password hash: %v", err)
		}
		return false
	}
	return true
}

// HashRefreshToken hashes a refresh token for at-rest storage. JWTs exceed
// bcrypt's 72-byte input limit, so the token is reduced to a SHA-256 digest
// first.
func HashRefreshToken(token string) (string, error) {
	digest := sha256.Sum256([]byte(token))
	bytes, err := bcrypt.GenerateFromPassword([]byte(hex.EncodeToString(digest[:])), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("Error generating refresh token hash: %v", err)
		return "", err
	}
	return string(bytes), nil
}

// CheckRefreshTokenHash verifies a refresh token against its stored hash.
func CheckRefreshTokenHash(token, hash string) bool {
	digest := sha256.Sum256([]byte(token))
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(hex.EncodeToString(digest[:]))) == nil
}
