package profile

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Credentials holds the token state for one profile. ExpiresAt is an
// absolute RFC3339 timestamp; clearing it forces the next token acquisition
// to refresh.
type Credentials struct {
	Token        string `yaml:"token" json:"token"`
	ExpiresAt    string `yaml:"expires_at" json:"expires_at"`
	RefreshToken string `yaml:"refresh_token,omitempty" json:"refresh_token,omitempty"`
}

// Valid reports whether the token can be used as-is: a token is present and
// ExpiresAt parses to an instant after now.
func (c *Credentials) Valid(now time.Time) bool {
	if c == nil || c.Token == "" || c.ExpiresAt == "" {
		return false
	}
	expiry, err := time.Parse(time.RFC3339, c.ExpiresAt)
	if err != nil {
		return false
	}
	return expiry.After(now)
}

// ReadCredentials loads the credential file entry for profileName. A missing
// file or missing entry returns nil with no error: both just mean no cached
// token yet.
func ReadCredentials(credsPath, profileName string) (*Credentials, error) {
	raw, err := os.ReadFile(credsPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read credential file %s: %w", credsPath, err)
	}
	entries := make(map[string]*Credentials)
	if err = yaml.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("parse credential file %s: %w", credsPath, err)
	}
	return entries[profileName], nil
}

// WriteCredentials rewrites the credential file with creds stored under
// profileName, preserving every other profile's entry. The write is a full
// file replacement, not an append.
func WriteCredentials(credsPath, profileName string, creds *Credentials) error {
	entries := make(map[string]*Credentials)
	raw, err := os.ReadFile(credsPath)
	if err == nil {
		if err = yaml.Unmarshal(raw, &entries); err != nil {
			log.Warnf("credential file %s is malformed, rewriting it: %v", credsPath, err)
			entries = make(map[string]*Credentials)
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("read credential file %s: %w", credsPath, err)
	}

	entries[profileName] = creds
	out, err := yaml.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encode credential file: %w", err)
	}
	if err = os.MkdirAll(filepath.Dir(credsPath), 0o700); err != nil {
		return fmt.Errorf("create credential directory: %w", err)
	}
	if err = os.WriteFile(credsPath, out, 0o600); err != nil {
		return fmt.Errorf("write credential file %s: %w", credsPath, err)
	}
	return nil
}
