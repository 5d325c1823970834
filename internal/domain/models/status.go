package models

import "time"

// ComponentStatus is a point-in-time health snapshot for one probe.
// Created with Healthy=false on registration and overwritten every cycle.
type ComponentStatus struct {
	Name        string            `json:"name"`
	Healthy     bool              `json:"healthy"`
	LastChecked time.Time         `json:"last_checked"`
	Info        map[string]string `json:"info"`
}

// Clone returns a copy whose Info map is not shared with the original.
func (s ComponentStatus) Clone() ComponentStatus {
	info := make(map[string]string, len(s.Info))
	for k, v := range s.Info {
		info[k] = v
	}
	s.Info = info
	return s
}

// ApiKeyRecord stores the HMAC digest of a registered API key. The plaintext
// value is never retained after hashing.
type ApiKeyRecord struct {
	KeyID       string
	HashedValue string
	Scopes      []string
}

// HasScope reports whether the key carries the given scope.
func (r ApiKeyRecord) HasScope(scope string) bool {
	for _, s := range r.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}
