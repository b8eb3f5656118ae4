package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"math/big"
)

const (
	// ConfirmationCodeLength is the number of characters in an issued code.
	ConfirmationCodeLength = 9
	confirmationAlphabet   = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// GenerateConfirmationCode returns a random code drawn from uppercase letters
// and digits using crypto/rand.
func GenerateConfirmationCode() (string, error) {
	max := big.NewInt(int64(len(confirmationAlphabet)))
	code := make([]byte, ConfirmationCodeLength)
	for i := range code {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		code[i] = confirmationAlphabet[n.Int64()]
	}
	return string(code), nil
}

// VerifyConfirmationCode checks the provided code against the stored one.
// An empty stored code never matches.
func VerifyConfirmationCode(stored, provided string) bool {
	if stored == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(provided)) == 1
}
