package auth

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/data-dot-all/dataall-core/sdk/profile"
)

// CognitoAuth implements the provider-hosted authorization flow against an
// Amazon Cognito user pool domain: username/password login yields an
// authorization code in the redirect location header, the code is exchanged
// for tokens, and later expiries are served by the refresh token when the
// provider issued one.
type CognitoAuth struct {
	base
}

// NewCognitoAuth binds a Cognito authorizer to p. Cached credentials for
// p's profile name are loaded from its credential file if present. p may be
// nil; GetJWTToken then fails with an unauthenticated error.
func NewCognitoAuth(p *profile.Profile) *CognitoAuth {
	return &CognitoAuth{base: newBase(p)}
}

// GetJWTToken returns a bearer token for the bound profile, reusing the
// cached token while it is valid.
func (a *CognitoAuth) GetJWTToken(ctx context.Context) (string, error) {
	return a.token(ctx, a.authorize)
}

func (a *CognitoAuth) authorize(ctx context.Context) (*profile.Credentials, error) {
	if creds := a.profile.Credentials; creds != nil && creds.RefreshToken != "" {
		refreshed, err := a.refresh(ctx, creds.RefreshToken)
		if err == nil {
			log.Debugf("refreshed token for profile %q", a.profile.ProfileName)
			return refreshed, nil
		}
		log.Debugf("token refresh failed, falling back to full authorization: %v", err)
	}

	code, err := a.login(ctx)
	if err != nil {
		return nil, err
	}
	return a.exchangeCode(ctx, code)
}

// login submits username/password to the user pool's login endpoint and
// extracts the authorization code from the redirect location header. The
// redirect itself is never followed.
func (a *CognitoAuth) login(ctx context.Context) (string, error) {
	params := url.Values{
		"response_type": {"code"},
		"client_id":     {a.profile.ClientID},
		"redirect_uri":  {a.profile.RedirectURI},
		"state":         {uuid.NewString()},
	}
	form := url.Values{
		"username": {a.profile.Username},
		"password": {a.profile.Password},
	}
	loginURL := joinURL(a.profile.IdpDomainURL, "login") + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, loginURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", &Error{Code: CodeRemoteAuthFailure, Step: StepLogin, Message: "could not build request", Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	// Stop at the redirect response: the authorization code lives in its
	// location header.
	client := *a.httpClient
	client.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", &Error{Code: CodeRemoteAuthFailure, Step: StepLogin, Message: "request failed", Err: err}
	}
	body := readBody(resp)

	location := resp.Header.Get("location")
	if location == "" {
		if resp.StatusCode >= 400 {
			return "", &Error{Code: CodeRemoteAuthFailure, Step: StepLogin, Status: resp.StatusCode, Message: strings.TrimSpace(string(body))}
		}
		return "", &Error{Code: CodeMalformedResponse, Step: StepLogin, Message: "login response carries no location header"}
	}
	locationURL, err := url.Parse(location)
	if err != nil {
		return "", &Error{Code: CodeMalformedResponse, Step: StepLogin, Message: "location header is not a valid URL", Err: err}
	}
	code := locationURL.Query().Get("code")
	if code == "" {
		return "", &Error{Code: CodeMalformedResponse, Step: StepLogin, Message: "location header carries no authorization code"}
	}
	return code, nil
}

// exchangeCode trades an authorization code for tokens at the user pool's
// token endpoint.
func (a *CognitoAuth) exchangeCode(ctx context.Context, code string) (*profile.Credentials, error) {
	form := url.Values{
		"grant_type":   {"authorization_code"},
		"client_id":    {a.profile.ClientID},
		"code":         {code},
		"redirect_uri": {a.profile.RedirectURI},
	}
	body, err := a.postForm(ctx, StepCodeExchange, joinURL(a.profile.IdpDomainURL, "oauth2/token"), form)
	if err != nil {
		return nil, err
	}
	return parseTokenResponse(StepCodeExchange, body, "")
}

// refresh trades a refresh token for a new access token. The previous
// refresh token is retained unless the provider rotates it.
func (a *CognitoAuth) refresh(ctx context.Context, refreshToken string) (*profile.Credentials, error) {
	form := url.Values{
		"grant_type":    {"refresh_token"},
		"client_id":     {a.profile.ClientID},
		"refresh_token": {refreshToken},
	}
	body, err := a.postForm(ctx, StepTokenExchange, joinURL(a.profile.IdpDomainURL, "oauth2/token"), form)
	if err != nil {
		return nil, err
	}
	return parseTokenResponse(StepTokenExchange, body, refreshToken)
}
