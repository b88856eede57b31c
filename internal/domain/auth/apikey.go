package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"

	"github.com/go-faster/errors"
)

// ErrKeyNotFound is returned by repositories when no active key matches.
var ErrKeyNotFound = errors.New("api key not found")

// ScopeAdmin grants access to every admin endpoint.
const ScopeAdmin = "admin"

// APIKeyInfo holds the identity and permission data for an admin API key.
type APIKeyInfo struct {
	ID      string
	KeyHash string
	Name    string
	Scopes  []string
}

// Repository provides lookup of API keys by their HMAC hash.
type Repository interface {
	FindByHash(ctx context.Context, hash string) (*APIKeyInfo, error)
}

// Store extends Repository with key provisioning used by operator tooling.
type Store interface {
	Repository
	UpsertAPIKey(ctx context.Context, info APIKeyInfo) error
}

// HashKey returns the hex encoded HMAC-SHA256 of key peppered with pepper.
func HashKey(pepper []byte, key string) string {
	mac := hmac.New(sha256.New, pepper)
	mac.Write([]byte(key))
	return hex.EncodeToString(mac.Sum(nil))
}
