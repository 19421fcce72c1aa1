package profile

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	log "github.com/sirupsen/logrus"
)

// SecretsAPI is the Secrets Manager surface needed to resolve a profile
// secret. *secretsmanager.Client satisfies it.
type SecretsAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// LoadFromSecret resolves a profile's fields from a Secrets Manager secret
// instead of the local config file. The secret string is a JSON object with
// the same keys as a config file section. The returned profile carries
// config_type Secret. Fetch or decode failures surface as
// MissingSecretError.
func LoadFromSecret(ctx context.Context, name, secretARN string) (*Profile, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, &MissingSecretError{SecretARN: secretARN, Err: err}
	}
	return loadFromSecret(ctx, secretsmanager.NewFromConfig(cfg), name, secretARN)
}

func loadFromSecret(ctx context.Context, api SecretsAPI, name, secretARN string) (*Profile, error) {
	out, err := api.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(secretARN),
	})
	if err != nil {
		return nil, &MissingSecretError{SecretARN: secretARN, Err: err}
	}
	if out.SecretString == nil {
		return nil, &MissingSecretError{SecretARN: secretARN, Err: errors.New("secret has no string value")}
	}

	var entry Profile
	if err = json.Unmarshal([]byte(*out.SecretString), &entry); err != nil {
		return nil, &MissingSecretError{SecretARN: secretARN, Err: err}
	}
	entry.ProfileName = name
	entry.ConfigType = ConfigTypeSecret
	log.Debugf("resolved profile %q from secret", name)
	return New(entry)
}
