// Package profile manages data.all backend profiles: the YAML config file
// that declares them, the credential file that persists their tokens, and
// the Secrets Manager indirection that resolves them remotely.
package profile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Auth types select the authorization flow an Authorizer runs for a profile.
const (
	AuthTypeCognito = "Cognito"
	AuthTypeCustom  = "Custom"
)

// Config types record where a profile's fields were resolved from.
const (
	ConfigTypeLocal  = "Local"
	ConfigTypeSecret = "Secret"
)

// Profile identifies one backend configuration. Fields mirror the sections
// of the profile config file; Credentials is runtime token state and never
// serializes into the config file.
type Profile struct {
	// ProfileName keys this profile in the config and credential files. It
	// is the section key, not a section field.
	ProfileName string `yaml:"-" json:"-"`
	// AuthType selects the authorization flow: Cognito or Custom.
	// Defaults to Cognito.
	AuthType string `yaml:"auth_type" json:"auth_type"`
	// APIEndpointURL is the backend's GraphQL endpoint.
	APIEndpointURL string `yaml:"api_endpoint_url" json:"api_endpoint_url"`
	// Username and Password are submitted to the provider during full
	// authorization. Both may be empty when tokens are still cached.
	Username string `yaml:"username,omitempty" json:"username,omitempty"`
	Password string `yaml:"password,omitempty" json:"password,omitempty"`
	// ClientID is the OAuth2 client identifier registered with the provider.
	ClientID string `yaml:"client_id" json:"client_id"`
	// RedirectURI is the callback the provider redirects to after
	// authorization. It is never served; only its query string matters.
	RedirectURI string `yaml:"redirect_uri" json:"redirect_uri"`
	// IdpDomainURL is the base URL of the identity provider.
	IdpDomainURL string `yaml:"idp_domain_url" json:"idp_domain_url"`
	// SessionTokenEndpoint exchanges username/password for a short-lived
	// session token. Required for the Custom auth type only.
	SessionTokenEndpoint string `yaml:"session_token_endpoint,omitempty" json:"session_token_endpoint,omitempty"`
	// ConfigType records where the profile came from: Local or Secret.
	ConfigType string `yaml:"config_type" json:"config_type"`
	// CredsPath is the credential file tokens are persisted to. Defaults to
	// ~/.dataall/credentials.yaml.
	CredsPath string `yaml:"creds_path" json:"creds_path"`
	// ProxyURL optionally routes every provider and backend request through
	// an HTTP, HTTPS, or SOCKS5 proxy.
	ProxyURL string `yaml:"proxy_url,omitempty" json:"proxy_url,omitempty"`

	// Credentials is the in-memory token state for this profile, mutated in
	// place whenever a token is issued or refreshed.
	Credentials *Credentials `yaml:"-" json:"-"`
}

// requiredFields are the profile fields every auth type needs.
var requiredFields = []struct {
	name  string
	value func(*Profile) string
}{
	{"profile_name", func(p *Profile) string { return p.ProfileName }},
	{"api_endpoint_url", func(p *Profile) string { return p.APIEndpointURL }},
	{"client_id", func(p *Profile) string { return p.ClientID }},
	{"redirect_uri", func(p *Profile) string { return p.RedirectURI }},
	{"idp_domain_url", func(p *Profile) string { return p.IdpDomainURL }},
}

// New applies defaults to p and validates it. Missing required fields fail
// with a MissingParametersError naming every absent field; unsupported
// auth_type or config_type values fail outright.
func New(p Profile) (*Profile, error) {
	if p.AuthType == "" {
		p.AuthType = AuthTypeCognito
	}
	if p.ConfigType == "" {
		p.ConfigType = ConfigTypeLocal
	}
	if p.CredsPath == "" {
		p.CredsPath = DefaultCredsPath()
	}

	if p.AuthType != AuthTypeCognito && p.AuthType != AuthTypeCustom {
		return nil, fmt.Errorf("profile %q: unsupported auth_type %q", p.ProfileName, p.AuthType)
	}
	if p.ConfigType != ConfigTypeLocal && p.ConfigType != ConfigTypeSecret {
		return nil, fmt.Errorf("profile %q: unsupported config_type %q", p.ProfileName, p.ConfigType)
	}

	var missing []string
	for _, field := range requiredFields {
		if field.value(&p) == "" {
			missing = append(missing, field.name)
		}
	}
	if p.AuthType == AuthTypeCustom && p.SessionTokenEndpoint == "" {
		missing = append(missing, "session_token_endpoint")
	}
	if len(missing) > 0 {
		return nil, &MissingParametersError{ProfileName: p.ProfileName, Fields: missing}
	}
	return &p, nil
}

// DefaultConfigPath returns the default profile config file location,
// ~/.dataall/config.yaml.
func DefaultConfigPath() string {
	return filepath.Join(dataallDir(), "config.yaml")
}

// DefaultCredsPath returns the default credential file location,
// ~/.dataall/credentials.yaml.
func DefaultCredsPath() string {
	return filepath.Join(dataallDir(), "credentials.yaml")
}

func dataallDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".dataall")
}

// MissingParametersError reports profile construction with one or more
// required fields absent.
type MissingParametersError struct {
	ProfileName string
	Fields      []string
}

func (e *MissingParametersError) Error() string {
	return fmt.Sprintf("profile %q is missing required parameters: %s", e.ProfileName, strings.Join(e.Fields, ", "))
}

// MissingSecretError reports a profile secret that could not be fetched or
// decoded from Secrets Manager.
type MissingSecretError struct {
	SecretARN string
	Err       error
}

func (e *MissingSecretError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("profile secret %q could not be resolved: %v", e.SecretARN, e.Err)
	}
	return fmt.Sprintf("profile secret %q could not be resolved", e.SecretARN)
}

func (e *MissingSecretError) Unwrap() error {
	return e.Err
}
