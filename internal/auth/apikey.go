// Package auth generates and verifies the API key that guards the mutating
// endpoints of the scanviz HTTP API. Only a bcrypt hash of the key is kept
// in the configuration file.
package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base32"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const (
	// KeyLength is the length of the random part of a key.
	KeyLength = 32
	// KeyPrefix starts every generated key.
	KeyPrefix = "sv"
	// HashCost is the bcrypt cost used by HashKey.
	HashCost = 12

	// bcrypt ignores input past 72 bytes.
	bcryptMaxInput = 72
	displayChars   = 8
)

// GeneratedKey is a new key together with its storable hash.
type GeneratedKey struct {
	Key     string `json:"key"`
	Hash    string `json:"hash"`
	Display string `json:"display"`
}

// GenerateKey creates a random key and hashes it.
func GenerateKey() (*GeneratedKey, error) {
	random := make([]byte, KeyLength)
	if _, err := rand.Read(random); err != nil {
		return nil, fmt.Errorf("failed to generate random key: %w", err)
	}

	encoded := strings.ToLower(base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(random))
	key := KeyPrefix + "_" + encoded[:KeyLength]

	hash, err := HashKey(key)
	if err != nil {
		return nil, err
	}
	return &GeneratedKey{Key: key, Hash: hash, Display: DisplayPrefix(key)}, nil
}

func keyBytes(key string) []byte {
	b := []byte(key)
	if len(b) > bcryptMaxInput {
		sum := sha256.Sum256(b)
		b = sum[:]
	}
	return b
}

// HashKey returns the bcrypt hash of key.
func HashKey(key string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("API key cannot be empty")
	}
	hash, err := bcrypt.GenerateFromPassword(keyBytes(key), HashCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash API key: %w", err)
	}
	return string(hash), nil
}

// VerifyKey reports whether key matches hash.
func VerifyKey(key, hash string) bool {
	if key == "" || hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), keyBytes(key)) == nil
}

// ValidFormat reports whether key looks like a generated key.
func ValidFormat(key string) bool {
	rest, ok := strings.CutPrefix(key, KeyPrefix+"_")
	if !ok || len(rest) != KeyLength {
		return false
	}
	for _, c := range rest {
		if (c < 'a' || c > 'z') && (c < '2' || c > '7') {
			return false
		}
	}
	return true
}

// DisplayPrefix returns a log-safe prefix of key.
func DisplayPrefix(key string) string {
	if !ValidFormat(key) {
		return "invalid_key"
	}
	return key[:len(KeyPrefix)+1+displayChars] + "..."
}
