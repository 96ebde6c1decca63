package credentials

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrNotFound is returned when no credential blob or token file exists.
var ErrNotFound = errors.New("no stored credentials found")

// ErrMalformed is returned when a credential blob cannot be decoded. This is
// a fatal configuration error: the blob was produced externally and the
// worker cannot repair it.
var ErrMalformed = errors.New("malformed credential blob")

// Credential is the pair of opaque authentication artifacts issued by the
// Garmin SSO flow. OAuth1 is the long-lived refresh-capable token, OAuth2
// the short-lived bearer token used on API calls. Both are carried as opaque
// maps; the worker never inspects keys beyond what the session needs.
type Credential struct {
	OAuth1 map[string]interface{} `json:"oauth1_token"`
	OAuth2 map[string]interface{} `json:"oauth2_token"`
}

// AccessToken returns the bearer token string from the oauth2 artifact, or
// "" when absent.
func (c Credential) AccessToken() string {
	if c.OAuth2 == nil {
		return ""
	}
	s, _ := c.OAuth2["access_token"].(string)
	return s
}

// Decode parses a base64-encoded JSON credential blob. Invalid base64,
// invalid JSON, or a missing oauth1_token/oauth2_token sub-object all yield
// ErrMalformed.
func Decode(blob string) (Credential, error) {
	raw, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		return Credential{}, fmt.Errorf("%w: invalid base64: %v", ErrMalformed, err)
	}

	var cred Credential
	if err := json.Unmarshal(raw, &cred); err != nil {
		return Credential{}, fmt.Errorf("%w: invalid JSON: %v", ErrMalformed, err)
	}

	if len(cred.OAuth1) == 0 {
		return Credential{}, fmt.Errorf("%w: missing oauth1_token", ErrMalformed)
	}
	if len(cred.OAuth2) == 0 {
		return Credential{}, fmt.Errorf("%w: missing oauth2_token", ErrMalformed)
	}

	return cred, nil
}

// Encode serializes a credential back into the base64 blob format.
func Encode(cred Credential) (string, error) {
	raw, err := json.Marshal(cred)
	if err != nil {
		return "", fmt.Errorf("failed to marshal credentials: %w", err)
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// Store loads and persists the credential pair. The environment-supplied
// blob takes precedence over the token file; refreshed credentials are
// written back to the file only.
type Store struct {
	blob string
	path string
}

// NewStore creates a credential store. blob may be empty, in which case
// only the token file is consulted.
func NewStore(blob, path string) *Store {
	return &Store{blob: blob, path: path}
}

// Load returns the stored credential pair. ErrNotFound when neither source
// exists, ErrMalformed when a source exists but cannot be decoded.
func (s *Store) Load() (Credential, error) {
	if s.blob != "" {
		return Decode(s.blob)
	}

	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return Credential{}, ErrNotFound
		}
		return Credential{}, fmt.Errorf("failed to read token file: %w", err)
	}

	var cred Credential
	if err := json.Unmarshal(raw, &cred); err != nil {
		return Credential{}, fmt.Errorf("%w: token file: %v", ErrMalformed, err)
	}
	if len(cred.OAuth1) == 0 || len(cred.OAuth2) == 0 {
		return Credential{}, fmt.Errorf("%w: token file missing oauth1_token or oauth2_token", ErrMalformed)
	}

	return cred, nil
}

// Persist overwrites the token file with the given credential pair. The
// file is truncated, never appended, so stale tokens cannot leak into a
// later run.
func (s *Store) Persist(cred Credential) error {
	raw, err := json.Marshal(cred)
	if err != nil {
		return fmt.Errorf("failed to marshal credentials: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("failed to create token directory: %w", err)
		}
	}

	if err := os.WriteFile(s.path, raw, 0o600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}

	return nil
}
