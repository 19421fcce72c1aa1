// Package dataall is the generated client surface for a data.all backend:
// a factory that compiles the schema into an operation table, a bound
// client exposing one callable per compiled operation, and the execution
// engine that sends operations over authenticated HTTP.
package dataall

import (
	"context"
	"net/http"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/data-dot-all/dataall-core/internal/util"
	"github.com/data-dot-all/dataall-core/sdk/auth"
	"github.com/data-dot-all/dataall-core/sdk/profile"
	"github.com/data-dot-all/dataall-core/sdk/schema"
)

// DefaultProfileName is the profile resolved when no name is given.
const DefaultProfileName = "default"

// DataallClient owns a compiled operation table and binds it to resolved
// profiles.
type DataallClient struct {
	loader *schema.Loader
}

// Option configures the factory's schema compilation.
type Option func(*factoryOptions)

type factoryOptions struct {
	loader     *schema.Loader
	schemaOpts []schema.Option
}

// WithSchemaVersion compiles a specific built-in schema version instead of
// the latest one.
func WithSchemaVersion(version string) Option {
	return func(o *factoryOptions) { o.schemaOpts = append(o.schemaOpts, schema.WithVersion(version)) }
}

// WithSchemaPath compiles the schema document at an explicit path.
func WithSchemaPath(path string) Option {
	return func(o *factoryOptions) { o.schemaOpts = append(o.schemaOpts, schema.WithSchemaPath(path)) }
}

// WithMaxDepthQuery overrides the query selection depth bound.
func WithMaxDepthQuery(depth int) Option {
	return func(o *factoryOptions) { o.schemaOpts = append(o.schemaOpts, schema.WithMaxDepthQuery(depth)) }
}

// WithMaxDepthMutation overrides the mutation selection depth bound.
func WithMaxDepthMutation(depth int) Option {
	return func(o *factoryOptions) { o.schemaOpts = append(o.schemaOpts, schema.WithMaxDepthMutation(depth)) }
}

// WithLoader supplies a pre-built loader; every schema option is then
// ignored.
func WithLoader(l *schema.Loader) Option {
	return func(o *factoryOptions) { o.loader = l }
}

// New builds the factory, compiling the schema once.
func New(opts ...Option) (*DataallClient, error) {
	var o factoryOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.loader == nil {
		loader, err := schema.NewLoader(o.schemaOpts...)
		if err != nil {
			return nil, err
		}
		o.loader = loader
	}
	log.Debugf("client factory ready with %d operations (schema %s)", len(o.loader.Operations()), o.loader.Version())
	return &DataallClient{loader: o.loader}, nil
}

// Loader returns the compiled schema loader.
func (c *DataallClient) Loader() *schema.Loader {
	return c.loader
}

// ClientOption configures profile resolution and transport for one bound
// client.
type ClientOption func(*clientOptions)

type clientOptions struct {
	profile       *profile.Profile
	profileName   string
	configPath    string
	secretARN     string
	customHeaders map[string]string
	timeout       time.Duration
}

// WithProfile binds an explicit profile instance, skipping resolution.
func WithProfile(p *profile.Profile) ClientOption {
	return func(o *clientOptions) { o.profile = p }
}

// WithProfileName resolves this named profile instead of "default".
func WithProfileName(name string) ClientOption {
	return func(o *clientOptions) { o.profileName = name }
}

// WithConfigPath reads profiles from this config file instead of the
// default path.
func WithConfigPath(path string) ClientOption {
	return func(o *clientOptions) { o.configPath = path }
}

// WithSecretARN resolves the profile from a Secrets Manager secret instead
// of the local config file.
func WithSecretARN(arn string) ClientOption {
	return func(o *clientOptions) { o.secretARN = arn }
}

// WithCustomHeaders merges these headers into every GraphQL request.
func WithCustomHeaders(headers map[string]string) ClientOption {
	return func(o *clientOptions) { o.customHeaders = headers }
}

// WithTimeout bounds every GraphQL request; zero means no client timeout.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(o *clientOptions) { o.timeout = timeout }
}

// Client resolves a profile and binds the operation table to it. Profile
// precedence: explicit instance, then secret ARN, then the named profile in
// the config file. A profile that cannot be found still yields a usable
// client whose calls fail with an unauthenticated error, mirroring an
// unbound authorizer.
func (c *DataallClient) Client(ctx context.Context, opts ...ClientOption) (*BoundClient, error) {
	o := clientOptions{profileName: DefaultProfileName}
	for _, opt := range opts {
		opt(&o)
	}

	resolved := o.profile
	if resolved == nil {
		var err error
		if o.secretARN != "" {
			resolved, err = profile.LoadFromSecret(ctx, o.profileName, o.secretARN)
		} else {
			resolved, err = profile.Load(o.profileName, o.configPath)
		}
		if err != nil {
			return nil, err
		}
		if resolved == nil {
			log.Debugf("profile %q not found, binding an unauthenticated client", o.profileName)
		}
	}

	endpoint := ""
	if resolved != nil {
		endpoint = strings.TrimSuffix(resolved.APIEndpointURL, "/") + "/" + queryEndpoint
	}
	return &BoundClient{
		authorizer:    auth.New(resolved),
		profile:       resolved,
		loader:        c.loader,
		endpoint:      endpoint,
		customHeaders: o.customHeaders,
		httpClient:    util.SetProxy(resolved, &http.Client{Timeout: o.timeout}),
	}, nil
}
