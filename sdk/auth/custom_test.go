package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/data-dot-all/dataall-core/sdk/profile"
)

const authorizationPage = `
<html>

<head>
  <title>Authorization Response</title>
</head>

<body>
  <form method="POST" action="https://example.com/token"> <input type="hidden" name="code"
      value="1X1X1AUTHCODE1X1X1"> <input type="hidden" name="state" value="%s"> </form>
  <script> document.forms[0].submit(); </script>
</body>

</html>
`

// fakeCustomIdP fakes the self-hosted provider: well-known discovery, a
// session token endpoint, an authorization endpoint answering with an HTML
// form, and a token endpoint.
type fakeCustomIdP struct {
	server        *httptest.Server
	discoveryHits int
	sessionHits   int
	authHits      int
	tokenHits     int
}

func newFakeCustomIdP(t *testing.T) *fakeCustomIdP {
	t.Helper()
	f := &fakeCustomIdP{}
	mux := http.NewServeMux()
	mux.HandleFunc("/.well-known/openid-configuration", func(w http.ResponseWriter, _ *http.Request) {
		f.discoveryHits++
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"authorization_endpoint": f.server.URL + "/tst/auth",
			"token_endpoint":         f.server.URL + "/tst/token",
		})
	})
	mux.HandleFunc("/session/endpoint", func(w http.ResponseWriter, r *http.Request) {
		f.sessionHits++
		var body struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Username == "" || body.Password == "" {
			http.Error(w, "missing credentials", http.StatusForbidden)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"sessionToken":"test-session-token"}`))
	})
	mux.HandleFunc("/tst/auth", func(w http.ResponseWriter, r *http.Request) {
		f.authHits++
		if r.Header.Get("Authorization") != "Bearer test-session-token" {
			http.Error(w, "missing session token", http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		_, _ = fmt.Fprintf(w, authorizationPage, r.URL.Query().Get("state"))
	})
	mux.HandleFunc("/tst/token", func(w http.ResponseWriter, r *http.Request) {
		f.tokenHits++
		if err := r.ParseForm(); err != nil || r.PostFormValue("code") != "1X1X1AUTHCODE1X1X1" {
			http.Error(w, "unknown code", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"sampleTokenValueHere","expires_in":3600}`))
	})
	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func customProfile(t *testing.T, idpURL string) *profile.Profile {
	t.Helper()
	p, err := profile.New(profile.Profile{
		ProfileName:          "CustomDefault",
		AuthType:             profile.AuthTypeCustom,
		APIEndpointURL:       "https://da-api-endpoint.com/tst",
		Username:             "Username",
		Password:             "Test123!",
		ClientID:             "client_id",
		RedirectURI:          "https://dataall-test.com/",
		IdpDomainURL:         idpURL,
		SessionTokenEndpoint: idpURL + "/session/endpoint",
		CredsPath:            filepath.Join(t.TempDir(), "credentials.yaml"),
	})
	require.NoError(t, err)
	return p
}

func TestCustomGetJWTToken(t *testing.T) {
	fake := newFakeCustomIdP(t)
	p := customProfile(t, fake.server.URL)

	auth := NewCustomAuth(p)
	token, err := auth.GetJWTToken(context.Background())
	require.NoError(t, err)
	require.Equal(t, "sampleTokenValueHere", token)

	creds := p.Credentials
	require.NotNil(t, creds)
	if creds.Token == "" || creds.ExpiresAt == "" {
		t.Errorf("incomplete credentials after authorization: %+v", creds)
	}
	// This flow's provider issues no refresh token.
	if creds.RefreshToken != "" {
		t.Errorf("RefreshToken = %q, want empty", creds.RefreshToken)
	}

	saved, err := profile.ReadCredentials(p.CredsPath, p.ProfileName)
	require.NoError(t, err)
	require.Equal(t, creds, saved)

	// Cached token short-circuits the whole flow.
	token2, err := auth.GetJWTToken(context.Background())
	require.NoError(t, err)
	require.Equal(t, token, token2)
	if fake.discoveryHits != 1 || fake.sessionHits != 1 || fake.authHits != 1 || fake.tokenHits != 1 {
		t.Errorf("provider hits = %d/%d/%d/%d, want 1/1/1/1",
			fake.discoveryHits, fake.sessionHits, fake.authHits, fake.tokenHits)
	}
}

func TestCustomReauthorizesOnExpiry(t *testing.T) {
	fake := newFakeCustomIdP(t)
	p := customProfile(t, fake.server.URL)

	auth := NewCustomAuth(p)
	_, err := auth.GetJWTToken(context.Background())
	require.NoError(t, err)

	// With no refresh token, a cleared expiry re-runs the full flow.
	p.Credentials.ExpiresAt = ""
	_, err = auth.GetJWTToken(context.Background())
	require.NoError(t, err)

	if fake.discoveryHits != 2 || fake.sessionHits != 2 || fake.authHits != 2 || fake.tokenHits != 2 {
		t.Errorf("provider hits = %d/%d/%d/%d, want 2/2/2/2",
			fake.discoveryHits, fake.sessionHits, fake.authHits, fake.tokenHits)
	}
}

func TestCustomDiscoveryIncomplete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"issuer":"https://custom-idp.com"}`))
	}))
	t.Cleanup(server.Close)

	auth := NewCustomAuth(customProfile(t, server.URL))
	_, err := auth.GetJWTToken(context.Background())
	if !IsMalformedResponse(err) {
		t.Fatalf("GetJWTToken error = %v, want malformed provider response", err)
	}
	if step := err.(*Error).Step; step != StepDiscovery {
		t.Errorf("error step = %q, want %q", step, StepDiscovery)
	}
}

func TestCustomSessionTokenRejected(t *testing.T) {
	fake := newFakeCustomIdP(t)
	p := customProfile(t, fake.server.URL)
	p.Password = ""

	auth := NewCustomAuth(p)
	_, err := auth.GetJWTToken(context.Background())
	if !IsRemoteFailure(err) {
		t.Fatalf("GetJWTToken error = %v, want remote failure", err)
	}
	authErr := err.(*Error)
	if authErr.Step != StepSessionToken || authErr.Status != http.StatusForbidden {
		t.Errorf("error step/status = %q/%d, want session token/403", authErr.Step, authErr.Status)
	}
}

func TestCustomAuthorizationPageWithoutInputs(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/.well-known/openid-configuration", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		host := "http://" + r.Host
		_, _ = fmt.Fprintf(w, `{"authorization_endpoint":%q,"token_endpoint":%q}`, host+"/tst/auth", host+"/tst/token")
	})
	mux.HandleFunc("/session/endpoint", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"sessionToken":"test-session-token"}`))
	})
	mux.HandleFunc("/tst/auth", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html><body><p>Sign-in moved.</p></body></html>"))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	auth := NewCustomAuth(customProfile(t, server.URL))
	_, err := auth.GetJWTToken(context.Background())
	if !IsMalformedResponse(err) {
		t.Fatalf("GetJWTToken error = %v, want malformed provider response", err)
	}
	if step := err.(*Error).Step; step != StepAuthorization {
		t.Errorf("error step = %q, want %q", step, StepAuthorization)
	}
}
