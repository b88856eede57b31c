package handler

import (
	"context"
	"crypto/subtle"
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/great-cookie/internal/domain/auth"
)

// APIKeyHeader carries the admin key when no bearer token is sent.
const APIKeyHeader = "X-API-Key"

// SecurityHandler authenticates admin requests via HMAC-SHA256 hashed API
// keys.
type SecurityHandler struct {
	apikeys auth.Repository
	pepper  []byte
}

// NewSecurityHandler creates a SecurityHandler with the given API key
// repository and HMAC pepper.
func NewSecurityHandler(apikeys auth.Repository, pepper []byte) *SecurityHandler {
	return &SecurityHandler{
		apikeys: apikeys,
		pepper:  pepper,
	}
}

// Authenticate resolves key to an admin session attached to the returned
// context.
func (s *SecurityHandler) Authenticate(ctx context.Context, key string) (context.Context, error) {
	if key == "" {
		return ctx, auth.ErrUnauthorized
	}
	hexHash := auth.HashKey(s.pepper, key)

	info, err := s.apikeys.FindByHash(ctx, hexHash)
	if err != nil {
		if errors.Is(err, auth.ErrKeyNotFound) {
			return ctx, auth.ErrUnauthorized
		}
		return ctx, errors.Wrap(err, "find api key")
	}

	// The lookup matched on the hash; compare again in constant time in case
	// the repository returned a different row.
	computed, _ := hex.DecodeString(hexHash)
	stored, err := hex.DecodeString(info.KeyHash)
	if err != nil || subtle.ConstantTimeCompare(computed, stored) != 1 {
		return ctx, auth.ErrUnauthorized
	}

	return auth.WithSession(ctx, auth.Session{
		KeyID:  info.ID,
		Name:   info.Name,
		Scopes: info.Scopes,
	}), nil
}

// Middleware rejects requests without a valid key and attaches the session
// to the request context otherwise.
func (s *SecurityHandler) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, err := s.Authenticate(r.Context(), requestKey(r))
		if err != nil {
			writeError(w, r, err)
			return
		}
		if sess, ok := auth.SessionFrom(ctx); ok {
			ctx = zctx.With(ctx, zap.String("api_key_id", sess.KeyID))
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func requestKey(r *http.Request) string {
	if v := r.Header.Get("Authorization"); v != "" {
		if token, ok := strings.CutPrefix(v, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	return strings.TrimSpace(r.Header.Get(APIKeyHeader))
}
