package profile

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func baseProfile(credsPath string) Profile {
	return Profile{
		ProfileName:    "default",
		APIEndpointURL: "https://da-api-endpoint.com/tst",
		ClientID:       "client_id",
		RedirectURI:    "https://dataall-test.com/",
		IdpDomainURL:   "https://cognito-idp.com/",
		CredsPath:      credsPath,
	}
}

func TestNewProfileDefaults(t *testing.T) {
	p, err := New(baseProfile(filepath.Join(t.TempDir(), "credentials.yaml")))
	require.NoError(t, err)
	if p.AuthType != AuthTypeCognito {
		t.Errorf("AuthType = %q, want %q", p.AuthType, AuthTypeCognito)
	}
	if p.ConfigType != ConfigTypeLocal {
		t.Errorf("ConfigType = %q, want %q", p.ConfigType, ConfigTypeLocal)
	}
}

func TestNewProfileMissingParameters(t *testing.T) {
	tests := []struct {
		name    string
		profile Profile
		missing []string
	}{
		{
			name:    "empty",
			profile: Profile{},
			missing: []string{"profile_name", "api_endpoint_url", "client_id", "redirect_uri", "idp_domain_url"},
		},
		{
			name:    "name only",
			profile: Profile{ProfileName: "default"},
			missing: []string{"api_endpoint_url", "client_id", "redirect_uri", "idp_domain_url"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.profile)
			var missingErr *MissingParametersError
			require.ErrorAs(t, err, &missingErr)
			require.Equal(t, tt.missing, missingErr.Fields)
		})
	}
}

func TestNewProfileInvalidEnums(t *testing.T) {
	p := baseProfile("")
	p.AuthType = "NEW_AUTH"
	if _, err := New(p); err == nil {
		t.Error("expected error for unsupported auth_type")
	}

	p = baseProfile("")
	p.ConfigType = "NEW_CONFIG"
	if _, err := New(p); err == nil {
		t.Error("expected error for unsupported config_type")
	}
}

func TestNewProfileCustomRequiresSessionTokenEndpoint(t *testing.T) {
	p := baseProfile("")
	p.AuthType = AuthTypeCustom

	_, err := New(p)
	var missingErr *MissingParametersError
	require.ErrorAs(t, err, &missingErr)
	require.Equal(t, []string{"session_token_endpoint"}, missingErr.Fields)

	p.SessionTokenEndpoint = "https://custom-idp.com/session/endpoint"
	got, err := New(p)
	require.NoError(t, err)
	if got.SessionTokenEndpoint != p.SessionTokenEndpoint {
		t.Errorf("SessionTokenEndpoint = %q, want %q", got.SessionTokenEndpoint, p.SessionTokenEndpoint)
	}
}

const testConfigYAML = `CognitoDefault:
  api_endpoint_url: https://da-api-endpoint.com/tst
  client_id: client_id
  redirect_uri: https://dataall-test.com/
  idp_domain_url: https://cognito-idp.com/
  username: Username
  password: Test123!
CustomDefault:
  auth_type: Custom
  api_endpoint_url: https://da-api-endpoint.com/tst
  client_id: client_id
  redirect_uri: https://dataall-test.com/
  idp_domain_url: https://custom-idp.com/
  session_token_endpoint: https://custom-idp.com/session/endpoint
`

func writeTestConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testConfigYAML), 0o600))
	return path
}

func TestLoadProfile(t *testing.T) {
	path := writeTestConfig(t)

	p, err := Load("CognitoDefault", path)
	require.NoError(t, err)
	require.NotNil(t, p)
	if p.ProfileName != "CognitoDefault" {
		t.Errorf("ProfileName = %q, want CognitoDefault", p.ProfileName)
	}
	if p.AuthType != AuthTypeCognito {
		t.Errorf("AuthType = %q, want %q", p.AuthType, AuthTypeCognito)
	}
	if p.Username != "Username" || p.Password != "Test123!" {
		t.Errorf("unexpected identity fields: %q / %q", p.Username, p.Password)
	}

	p, err = Load("CustomDefault", path)
	require.NoError(t, err)
	require.NotNil(t, p)
	if p.AuthType != AuthTypeCustom {
		t.Errorf("AuthType = %q, want %q", p.AuthType, AuthTypeCustom)
	}
}

func TestLoadProfileAbsent(t *testing.T) {
	path := writeTestConfig(t)

	p, err := Load("ProfileDNE", path)
	require.NoError(t, err)
	require.Nil(t, p)

	p, err = Load("CognitoDefault", filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	require.Nil(t, p)
}

func TestLoadProfileInvalidSection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("Broken:\n  client_id: only\n"), 0o600))

	_, err := Load("Broken", path)
	var missingErr *MissingParametersError
	if !errors.As(err, &missingErr) {
		t.Fatalf("Load error = %v, want MissingParametersError", err)
	}
}

func TestSaveProfile(t *testing.T) {
	path := writeTestConfig(t)

	p, err := Load("CognitoDefault", path)
	require.NoError(t, err)
	require.NotNil(t, p)

	p.CredsPath = filepath.Join(t.TempDir(), "credentials.yaml")
	require.NoError(t, Save(p, path))

	reloaded, err := Load("CognitoDefault", path)
	require.NoError(t, err)
	require.NotNil(t, reloaded)
	require.Equal(t, p, reloaded)

	// Other sections survive the rewrite.
	other, err := Load("CustomDefault", path)
	require.NoError(t, err)
	require.NotNil(t, other)
}
