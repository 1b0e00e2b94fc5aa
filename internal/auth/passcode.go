package auth

import (
	"crypto/rand"

	"golang.org/x/crypto/bcrypt"
)

const passcodeDigits = "0123456789"

// GeneratePasscode returns a cryptographically random numeric code of the
// given length.
func GeneratePasscode(length int) (string, error) {
	if length <= 0 {
		length = 6
	}
	buffer := make([]byte, length)
	if _, err := rand.Read(buffer); err != nil {
		return "", err
	}
	for i := range buffer {
		buffer[i] = passcodeDigits[int(buffer[i])%len(passcodeDigits)]
	}
	return string(buffer), nil
}

// HashPasscode hashes a plaintext passcode with configured cost.
func HashPasscode(code string, cost int) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(code), cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// ComparePasscode verifies a passcode against its hashed value.
func ComparePasscode(hashed, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain))
}
