package dataall

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"github.com/data-dot-all/dataall-core/internal/util"
)

// queryEndpoint is the path appended to a profile's API endpoint URL to
// form the GraphQL endpoint.
const queryEndpoint = "graphql"

// Execute sends one operation document to the bound GraphQL endpoint and
// returns the payload stored under the operation's key in the response
// data object. A nil variables value is sent as an empty variables object.
// Per-call custom headers override the client-level ones on key collision.
func (b *BoundClient) Execute(ctx context.Context, operationName, query string, variables any, customHeaders map[string]string) (any, error) {
	token, err := b.authorizer.GetJWTToken(ctx)
	if err != nil {
		return nil, err
	}

	if variables == nil {
		variables = map[string]any{}
	}
	payload, err := json.Marshal(struct {
		Query         string `json:"query"`
		OperationName string `json:"operationName"`
		Variables     any    `json:"variables"`
	}{Query: query, OperationName: operationName, Variables: variables})
	if err != nil {
		return nil, &CallError{Operation: operationName, Message: "could not encode request payload: " + err.Error()}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create %s request: %w", operationName, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	for key, value := range b.customHeaders {
		req.Header.Set(key, value)
	}
	for key, value := range customHeaders {
		req.Header.Set(key, value)
	}

	log.Debugf("executing %s against %s: %s", operationName, b.endpoint, util.RedactSensitiveJSON(payload))

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request failed: %w", operationName, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s response: %w", operationName, err)
	}
	log.Debugf("%s returned status %d: %s", operationName, resp.StatusCode, util.RedactSensitiveJSON(body))

	return classify(operationName, b.endpoint, resp.StatusCode, body)
}

// classify maps one HTTP response onto the call error taxonomy. A
// non-empty errors array wins over the HTTP status; a body that does not
// carry the operation's result is an invalid response regardless of
// status.
func classify(operationName, endpoint string, statusCode int, body []byte) (any, error) {
	ok := statusCode >= 200 && statusCode < 300
	if !gjson.ValidBytes(body) {
		if !ok {
			return nil, &HTTPStatusError{Operation: operationName, Endpoint: endpoint, StatusCode: statusCode, Body: body}
		}
		return nil, &ResponseError{Operation: operationName, Endpoint: endpoint, Body: body}
	}

	if remote := gjson.GetBytes(body, "errors"); remote.IsArray() {
		elements := remote.Array()
		if len(elements) > 0 {
			messages := make([]string, 0, len(elements))
			for _, element := range elements {
				messages = append(messages, element.Get("message").String())
			}
			return nil, &GraphQLRemoteError{Operation: operationName, Endpoint: endpoint, Messages: messages}
		}
	}

	if !ok {
		return nil, &HTTPStatusError{Operation: operationName, Endpoint: endpoint, StatusCode: statusCode, Body: body}
	}

	data := gjson.GetBytes(body, "data")
	if !data.Exists() || !data.IsObject() {
		return nil, &ResponseError{Operation: operationName, Endpoint: endpoint, Body: body}
	}
	result := data.Get(operationName)
	if !result.Exists() {
		return nil, &ResponseError{Operation: operationName, Endpoint: endpoint, Body: body}
	}
	return result.Value(), nil
}
