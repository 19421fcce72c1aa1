package dataall

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/tidwall/sjson"

	"github.com/data-dot-all/dataall-core/sdk/auth"
	"github.com/data-dot-all/dataall-core/sdk/profile"
	"github.com/data-dot-all/dataall-core/sdk/schema"
)

// Args carries the keyword arguments of one operation call, keyed by the
// operation's flattened argument names.
type Args map[string]any

// BoundClient exposes the compiled operation table against one resolved
// profile. Operations are invoked by canonical name; the flattened keyword
// arguments are re-nested into the variables shape each document expects.
type BoundClient struct {
	authorizer    auth.Authorizer
	profile       *profile.Profile
	loader        *schema.Loader
	endpoint      string
	customHeaders map[string]string
	httpClient    *http.Client
}

// Profile returns the resolved profile, nil when none was found.
func (b *BoundClient) Profile() *profile.Profile {
	return b.profile
}

// Operations lists the callable operations, query fields first, then
// mutation fields, in schema declaration order.
func (b *BoundClient) Operations() []*schema.Operation {
	return b.loader.Operations()
}

// Describe returns the descriptor of a canonical operation name: its
// documentation, declared arguments, flattened keys, and rendered document.
func (b *BoundClient) Describe(name string) (*schema.Operation, error) {
	op, ok := b.loader.Operation(name)
	if !ok {
		return nil, errUnknownOperation(name)
	}
	return op, nil
}

// Call invokes a compiled operation by canonical name. Every element of
// args must be an Args map; anything else is a positional argument and
// fails the call. Keys outside the operation's flattened argument set fail
// before any network traffic.
func (b *BoundClient) Call(ctx context.Context, name string, args ...any) (any, error) {
	op, ok := b.loader.Operation(name)
	if !ok {
		return nil, errUnknownOperation(name)
	}

	keywords := make(map[string]any)
	for _, raw := range args {
		switch arg := raw.(type) {
		case Args:
			for key, value := range arg {
				keywords[key] = value
			}
		case map[string]any:
			for key, value := range arg {
				keywords[key] = value
			}
		default:
			return nil, errOnlyKeywordArguments(name)
		}
	}

	variables, err := nestVariables(op, keywords)
	if err != nil {
		return nil, err
	}
	return b.Execute(ctx, op.OperationName, op.QueryDefinition, variables, nil)
}

// nestVariables re-nests flattened keyword arguments into the variables
// object the document expects, one path set per key: input.label="x"
// becomes {"input":{"label":"x"}}, and leaves under the same top-level key
// merge into one object.
func nestVariables(op *schema.Operation, keywords map[string]any) (json.RawMessage, error) {
	variables := []byte(`{}`)
	for key, value := range keywords {
		flat, ok := op.FlattenInputArgs[key]
		if !ok {
			return nil, errUnknownArgument(op.Name, key)
		}
		nested, err := sjson.SetBytes(variables, flat.Path, value)
		if err != nil {
			return nil, &CallError{Operation: op.Name, Message: "could not encode argument " + key + ": " + err.Error()}
		}
		variables = nested
	}
	return variables, nil
}
