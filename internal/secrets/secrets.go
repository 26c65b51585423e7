package secrets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
	"github.com/rs/zerolog"
)

var ErrSecretNotFound = errors.New("secret not found")

// Provider resolves a named credential.
type Provider interface {
	Secret(ctx context.Context, name string) (string, error)
}

// EnvProvider reads secrets from environment variables.
type EnvProvider struct {
	lookup func(string) (string, bool)
}

func NewEnvProvider() *EnvProvider {
	return &EnvProvider{lookup: os.LookupEnv}
}

func (p *EnvProvider) Secret(ctx context.Context, name string) (string, error) {
	value, ok := p.lookup(name)
	if !ok || value == "" {
		return "", fmt.Errorf("%w: env %s", ErrSecretNotFound, name)
	}
	return value, nil
}

// SecretsManagerAPI is the part of the Secrets Manager client in use.
type SecretsManagerAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// AWSSecretsManagerProvider reads secrets from AWS Secrets Manager.
// CONTENT_SAFETY_API_KEY with prefix "bandcheck/" is looked up as
// "bandcheck/content-safety-api-key".
type AWSSecretsManagerProvider struct {
	client SecretsManagerAPI
	prefix string
}

func NewAWSSecretsManagerProvider(ctx context.Context, region string, prefix string) (*AWSSecretsManagerProvider, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("unable to load AWS SDK config: %w", err)
	}
	return &AWSSecretsManagerProvider{
		client: secretsmanager.NewFromConfig(cfg),
		prefix: prefix,
	}, nil
}

func (p *AWSSecretsManagerProvider) SecretID(name string) string {
	return p.prefix + strings.ToLower(strings.ReplaceAll(name, "_", "-"))
}

func (p *AWSSecretsManagerProvider) Secret(ctx context.Context, name string) (string, error) {
	id := p.SecretID(name)

	out, err := p.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(id),
	})
	if err != nil {
		var notFound *types.ResourceNotFoundException
		if errors.As(err, &notFound) {
			return "", fmt.Errorf("%w: secretsmanager %s", ErrSecretNotFound, id)
		}
		return "", fmt.Errorf("failed to read secret %s: %w", id, err)
	}

	value := aws.ToString(out.SecretString)
	if value == "" {
		return "", fmt.Errorf("%w: secretsmanager %s is empty", ErrSecretNotFound, id)
	}
	return value, nil
}

// ChainProvider asks each provider in order and returns the first hit.
// Lookup errors other than not-found are logged and the chain moves on.
type ChainProvider struct {
	providers []Provider
	logger    *zerolog.Logger
}

func NewChainProvider(logger *zerolog.Logger, providers ...Provider) *ChainProvider {
	return &ChainProvider{providers: providers, logger: logger}
}

func (c *ChainProvider) Secret(ctx context.Context, name string) (string, error) {
	for _, p := range c.providers {
		value, err := p.Secret(ctx, name)
		if err == nil {
			return value, nil
		}
		if !errors.Is(err, ErrSecretNotFound) {
			c.logger.Warn().
				Err(err).
				Str("secret", name).
				Msg("secret provider failed, trying next")
		}
	}
	return "", fmt.Errorf("%w: %s", ErrSecretNotFound, name)
}
