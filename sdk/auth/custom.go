package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/data-dot-all/dataall-core/sdk/profile"
)

// CustomAuth implements the self-hosted authorization flow: endpoints are
// discovered from the provider's well-known configuration, username and
// password buy a short-lived session token, and the authorization endpoint
// answers with an HTML page whose hidden form inputs carry the
// authorization code. The provider issues no refresh token, so every
// expiry re-runs the whole flow.
type CustomAuth struct {
	base
}

// NewCustomAuth binds a custom-flow authorizer to p. Cached credentials for
// p's profile name are loaded from its credential file if present. p may be
// nil; GetJWTToken then fails with an unauthenticated error.
func NewCustomAuth(p *profile.Profile) *CustomAuth {
	return &CustomAuth{base: newBase(p)}
}

// GetJWTToken returns a bearer token for the bound profile, reusing the
// cached token while it is valid.
func (a *CustomAuth) GetJWTToken(ctx context.Context) (string, error) {
	return a.token(ctx, a.authorize)
}

func (a *CustomAuth) authorize(ctx context.Context) (*profile.Credentials, error) {
	endpoints, err := a.discoverEndpoints(ctx)
	if err != nil {
		return nil, err
	}
	sessionToken, err := a.sessionToken(ctx)
	if err != nil {
		return nil, err
	}
	code, err := a.authorizationCode(ctx, endpoints.AuthorizationEndpoint, sessionToken)
	if err != nil {
		return nil, err
	}
	return a.exchangeCode(ctx, endpoints.TokenEndpoint, code)
}

type providerEndpoints struct {
	AuthorizationEndpoint string `json:"authorization_endpoint"`
	TokenEndpoint         string `json:"token_endpoint"`
}

// discoverEndpoints reads the provider's well-known configuration document.
func (a *CustomAuth) discoverEndpoints(ctx context.Context) (*providerEndpoints, error) {
	discoveryURL := joinURL(a.profile.IdpDomainURL, ".well-known/openid-configuration")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, discoveryURL, nil)
	if err != nil {
		return nil, &Error{Code: CodeRemoteAuthFailure, Step: StepDiscovery, Message: "could not build request", Err: err}
	}
	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, &Error{Code: CodeRemoteAuthFailure, Step: StepDiscovery, Message: "request failed", Err: err}
	}
	body := readBody(resp)
	if resp.StatusCode != http.StatusOK {
		return nil, &Error{Code: CodeRemoteAuthFailure, Step: StepDiscovery, Status: resp.StatusCode, Message: strings.TrimSpace(string(body))}
	}

	var endpoints providerEndpoints
	if err = json.Unmarshal(body, &endpoints); err != nil {
		return nil, &Error{Code: CodeMalformedResponse, Step: StepDiscovery, Message: "configuration document is not valid JSON", Err: err}
	}
	if endpoints.AuthorizationEndpoint == "" || endpoints.TokenEndpoint == "" {
		return nil, &Error{Code: CodeMalformedResponse, Step: StepDiscovery, Message: "configuration document lacks authorization or token endpoint"}
	}
	log.Debugf("discovered provider endpoints for profile %q", a.profile.ProfileName)
	return &endpoints, nil
}

// sessionToken exchanges username/password for a short-lived session token
// at the profile's session token endpoint.
func (a *CustomAuth) sessionToken(ctx context.Context) (string, error) {
	payload, err := json.Marshal(map[string]string{
		"username": a.profile.Username,
		"password": a.profile.Password,
	})
	if err != nil {
		return "", &Error{Code: CodeRemoteAuthFailure, Step: StepSessionToken, Message: "could not encode request", Err: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.profile.SessionTokenEndpoint, bytes.NewReader(payload))
	if err != nil {
		return "", &Error{Code: CodeRemoteAuthFailure, Step: StepSessionToken, Message: "could not build request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", &Error{Code: CodeRemoteAuthFailure, Step: StepSessionToken, Message: "request failed", Err: err}
	}
	body := readBody(resp)
	if resp.StatusCode != http.StatusOK {
		return "", &Error{Code: CodeRemoteAuthFailure, Step: StepSessionToken, Status: resp.StatusCode, Message: strings.TrimSpace(string(body))}
	}

	var tokenResp struct {
		SessionToken string `json:"sessionToken"`
	}
	if err = json.Unmarshal(body, &tokenResp); err != nil {
		return "", &Error{Code: CodeMalformedResponse, Step: StepSessionToken, Message: "session token response is not valid JSON", Err: err}
	}
	if tokenResp.SessionToken == "" {
		return "", &Error{Code: CodeMalformedResponse, Step: StepSessionToken, Message: "session token response carries no sessionToken"}
	}
	return tokenResp.SessionToken, nil
}

// authorizationCode calls the discovered authorization endpoint with the
// session token. The provider answers 200 with an HTML page that would
// auto-submit a form in a browser; the authorization code and state are
// read from that form's hidden inputs instead.
func (a *CustomAuth) authorizationCode(ctx context.Context, authEndpoint, sessionToken string) (string, error) {
	params := url.Values{
		"response_type": {"code"},
		"client_id":     {a.profile.ClientID},
		"redirect_uri":  {a.profile.RedirectURI},
		"state":         {uuid.NewString()},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, authEndpoint+"?"+params.Encode(), nil)
	if err != nil {
		return "", &Error{Code: CodeRemoteAuthFailure, Step: StepAuthorization, Message: "could not build request", Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+sessionToken)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", &Error{Code: CodeRemoteAuthFailure, Step: StepAuthorization, Message: "request failed", Err: err}
	}
	body := readBody(resp)
	if resp.StatusCode != http.StatusOK {
		return "", &Error{Code: CodeRemoteAuthFailure, Step: StepAuthorization, Status: resp.StatusCode, Message: strings.TrimSpace(string(body))}
	}

	inputs, err := extractHiddenInputs(bytes.NewReader(body), "code", "state")
	if err != nil {
		return "", &Error{Code: CodeMalformedResponse, Step: StepAuthorization, Message: "authorization response is not parseable HTML", Err: err}
	}
	code, state := inputs["code"], inputs["state"]
	if code == "" || state == "" {
		return "", &Error{Code: CodeMalformedResponse, Step: StepAuthorization, Message: "authorization response carries no code and state inputs"}
	}
	log.Debugf("extracted authorization code for state %q", state)
	return code, nil
}

// exchangeCode trades the extracted authorization code for an access token
// at the discovered token endpoint. The provider issues no refresh token.
func (a *CustomAuth) exchangeCode(ctx context.Context, tokenEndpoint, code string) (*profile.Credentials, error) {
	form := url.Values{
		"grant_type":   {"authorization_code"},
		"client_id":    {a.profile.ClientID},
		"code":         {code},
		"redirect_uri": {a.profile.RedirectURI},
	}
	body, err := a.postForm(ctx, StepCodeExchange, tokenEndpoint, form)
	if err != nil {
		return nil, err
	}
	return parseTokenResponse(StepCodeExchange, body, "")
}
