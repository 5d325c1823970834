package security

import (
	"crypto/hmac"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"

	"CoreBridge/internal/domain/models"
	"CoreBridge/pkg/logger"
)

// AuthManager is an in-memory API key registry with HMAC validation.
// Only digests are stored; the plaintext never survives registration.
type AuthManager struct {
	mu     sync.RWMutex
	keys   map[string]models.ApiKeyRecord
	secret []byte
	logger *logger.Logger
}

// NewAuthManager creates a manager keyed by secret. An empty secret gets a
// random one, which is fine for single-process deployments.
func NewAuthManager(secret string, lgr *logger.Logger) *AuthManager {
	if secret == "" {
		secret = randomToken(32)
	}
	return &AuthManager{
		keys:   make(map[string]models.ApiKeyRecord),
		secret: []byte(secret),
		logger: lgr,
	}
}

// LoadKeys registers keys from the packed form "id1:value1|id2:value2".
func (a *AuthManager) LoadKeys(packed string) {
	if packed == "" {
		return
	}
	for _, pair := range strings.Split(packed, "|") {
		id, value, ok := strings.Cut(pair, ":")
		if !ok {
			a.logger.Warn("invalid api key entry", logger.String("entry", pair))
			continue
		}
		a.AddKey(id, value, []string{"default"})
	}
}

// AddKey registers an API key, storing only its HMAC digest.
func (a *AuthManager) AddKey(keyID, keyValue string, scopes []string) {
	hashed := a.hashKey(strings.TrimSpace(keyValue))
	a.mu.Lock()
	a.keys[keyID] = models.ApiKeyRecord{
		KeyID:       keyID,
		HashedValue: hashed,
		Scopes:      append([]string(nil), scopes...),
	}
	a.mu.Unlock()
	a.logger.Debug("registered api key", logger.String("key_id", keyID), logger.Strings("scopes", scopes))
}

// RemoveKey drops a key from the registry.
func (a *AuthManager) RemoveKey(keyID string) {
	a.mu.Lock()
	delete(a.keys, keyID)
	a.mu.Unlock()
}

// Verify hashes the provided key and compares against every stored digest in
// constant time. With a required scope, only keys carrying it match.
func (a *AuthManager) Verify(providedKey, requiredScope string) bool {
	digest := a.hashKey(strings.TrimSpace(providedKey))

	a.mu.RLock()
	defer a.mu.RUnlock()
	for _, record := range a.keys {
		if !hmac.Equal([]byte(digest), []byte(record.HashedValue)) {
			continue
		}
		if requiredScope != "" && !record.HasScope(requiredScope) {
			continue
		}
		return true
	}
	return false
}

// RotateKey replaces the stored digest for keyID with one for a fresh random
// value and returns the new plaintext. This is the only moment the plaintext
// is exposed; the previous value stops verifying immediately.
func (a *AuthManager) RotateKey(keyID string) (string, error) {
	a.mu.RLock()
	record, ok := a.keys[keyID]
	a.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("no api key registered for key_id '%s'", keyID)
	}

	newValue := randomToken(32)
	a.AddKey(keyID, newValue, record.Scopes)
	a.logger.Info("rotated api key", logger.String("key_id", keyID))
	return newValue, nil
}

func (a *AuthManager) hashKey(key string) string {
	return Sign(a.secret, []byte(key))
}

func randomToken(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on supported platforms
		panic(fmt.Sprintf("read random: %v", err))
	}
	return hex.EncodeToString(buf)
}
