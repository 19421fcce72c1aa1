// Package auth implements the credential lifecycle for data.all profiles.
// Two authorization flows share one contract: the provider-hosted Cognito
// flow and the self-hosted custom flow that recovers its authorization code
// from an HTML response. Both cache tokens on the profile and persist them
// to the profile's credential file.
package auth

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/data-dot-all/dataall-core/internal/util"
	"github.com/data-dot-all/dataall-core/sdk/profile"
)

// Authorizer obtains bearer tokens for one profile.
type Authorizer interface {
	// GetJWTToken returns a token for the bound profile, reusing the cached
	// token while its expiry is still in the future.
	GetJWTToken(ctx context.Context) (string, error)
}

// New selects the Authorizer implementation for p's auth type. A nil
// profile is allowed; the returned Authorizer fails with an unauthenticated
// error on first use.
func New(p *profile.Profile) Authorizer {
	if p != nil && p.AuthType == profile.AuthTypeCustom {
		return NewCustomAuth(p)
	}
	return NewCognitoAuth(p)
}

// base carries the state both flows share: the bound profile and the HTTP
// client its requests go through.
type base struct {
	profile    *profile.Profile
	httpClient *http.Client
}

func newBase(p *profile.Profile) base {
	b := base{profile: p, httpClient: util.SetProxy(p, &http.Client{})}
	if p == nil || p.Credentials != nil {
		return b
	}
	creds, err := profile.ReadCredentials(p.CredsPath, p.ProfileName)
	if err != nil {
		log.Warnf("could not read cached credentials for profile %q: %v", p.ProfileName, err)
		return b
	}
	if creds != nil {
		p.Credentials = creds
		log.Debugf("loaded cached credentials for profile %q", p.ProfileName)
	}
	return b
}

// Profile returns the bound profile, nil when none was given.
func (b *base) Profile() *profile.Profile {
	return b.profile
}

// token implements the shared caching rule: return the cached token while
// it is valid, otherwise run authorize, store the result on the profile,
// and persist it to the credential file.
func (b *base) token(ctx context.Context, authorize func(context.Context) (*profile.Credentials, error)) (string, error) {
	if b.profile == nil {
		return "", &Error{Code: CodeUnauthenticated, Message: "no profile bound to this authorizer"}
	}
	if b.profile.Credentials.Valid(time.Now()) {
		log.Debugf("using cached token for profile %q", b.profile.ProfileName)
		return b.profile.Credentials.Token, nil
	}

	creds, err := authorize(ctx)
	if err != nil {
		return "", err
	}
	b.profile.Credentials = creds
	if err = profile.WriteCredentials(b.profile.CredsPath, b.profile.ProfileName, creds); err != nil {
		log.Warnf("could not persist credentials for profile %q: %v", b.profile.ProfileName, err)
	}
	return creds.Token, nil
}

// postForm sends an x-www-form-urlencoded POST and returns the response
// body. Transport failures and non-2xx statuses surface as remote
// authentication errors for the given step.
func (b *base) postForm(ctx context.Context, step, endpoint string, form url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, &Error{Code: CodeRemoteAuthFailure, Step: step, Message: "could not build request", Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, &Error{Code: CodeRemoteAuthFailure, Step: step, Message: "request failed", Err: err}
	}
	body := readBody(resp)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &Error{Code: CodeRemoteAuthFailure, Step: step, Status: resp.StatusCode, Message: strings.TrimSpace(string(body))}
	}
	return body, nil
}

// parseTokenResponse decodes a provider token response into credentials.
// The relative expires_in is stored as an absolute RFC3339 timestamp. When
// the provider omits a refresh token, fallbackRefresh is retained.
func parseTokenResponse(step string, body []byte, fallbackRefresh string) (*profile.Credentials, error) {
	var tokenResp struct {
		AccessToken  string `json:"access_token"`
		ExpiresIn    int    `json:"expires_in"`
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return nil, &Error{Code: CodeMalformedResponse, Step: step, Message: "token response is not valid JSON", Err: err}
	}
	if tokenResp.AccessToken == "" {
		return nil, &Error{Code: CodeMalformedResponse, Step: step, Message: "token response carries no access token"}
	}
	refreshToken := tokenResp.RefreshToken
	if refreshToken == "" {
		refreshToken = fallbackRefresh
	}
	return &profile.Credentials{
		Token:        tokenResp.AccessToken,
		ExpiresAt:    time.Now().Add(time.Duration(tokenResp.ExpiresIn) * time.Second).Format(time.RFC3339),
		RefreshToken: refreshToken,
	}, nil
}

// readBody drains and closes an HTTP response body.
func readBody(resp *http.Response) []byte {
	defer func() {
		_ = resp.Body.Close()
	}()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Errorf("failed to read provider response body: %v", err)
		return nil
	}
	return body
}

// joinURL appends path to a base URL without doubling slashes.
func joinURL(baseURL, path string) string {
	return strings.TrimSuffix(baseURL, "/") + "/" + strings.TrimPrefix(path, "/")
}
