package utils

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
)

func randomHex(n int) (string, error) {
	byt := make([]byte, n)
	if _, err := rand.Read(byt); err != nil {
		return "", err
	}
	return hex.EncodeToString(byt), nil
}

// GenerateCode returns n random bytes as upper case hex.
func GenerateCode(n int) (string, error) {
	code, err := randomHex(n)
	return strings.ToUpper(code), err
}

// GenerateReference returns a booking reference such as "TB-1A2B3C".
func GenerateReference(prefix string) (string, error) {
	code, err := GenerateCode(3)
	if err != nil {
		return "", err
	}
	return prefix + "-" + code, nil
}

// GenerateToken returns n random bytes hex encoded, for CSRF tokens.
func GenerateToken(n int) (string, error) {
	return randomHex(n)
}
