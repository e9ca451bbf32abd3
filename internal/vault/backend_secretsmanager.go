package vault

import (
	"context"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/pkg/errors"

	"github.com/fieldnotes/articlepipeline/internal/models"
)

// secretsManagerAPI is the subset of *secretsmanager.Client this backend
// calls, narrowed for testability.
type secretsManagerAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
	ListSecrets(ctx context.Context, params *secretsmanager.ListSecretsInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.ListSecretsOutput, error)
}

// SecretsManagerBackend fetches credentials from AWS Secrets Manager,
// namespaced under a prefix (e.g. "articlepipeline/prod/") so one region's
// secret store can back multiple deployments.
type SecretsManagerBackend struct {
	client secretsManagerAPI
	prefix string
}

// NewSecretsManagerBackend wraps an already-configured secretsmanager
// client (construction/region/credential-chain resolution happens in
// cmd/pipelined via aws-sdk-go-v2/config.LoadDefaultConfig).
func NewSecretsManagerBackend(client *secretsmanager.Client, prefix string) *SecretsManagerBackend {
	return &SecretsManagerBackend{client: client, prefix: prefix}
}

func (b *SecretsManagerBackend) Name() models.CredentialBackend {
	return models.CredentialBackendSecretsManager
}

func (b *SecretsManagerBackend) Fetch(ctx context.Context, key string) (string, error) {
	out, err := b.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(b.prefix + key),
	})
	if err != nil {
		return "", errors.Wrapf(models.ErrTransientExternal, "get secret %q: %v", key, err)
	}
	if out.SecretString != nil {
		return *out.SecretString, nil
	}
	return string(out.SecretBinary), nil
}

func (b *SecretsManagerBackend) List(ctx context.Context) ([]string, error) {
	var keys []string
	var nextToken *string
	for {
		out, err := b.client.ListSecrets(ctx, &secretsmanager.ListSecretsInput{NextToken: nextToken})
		if err != nil {
			return nil, errors.Wrap(models.ErrTransientExternal, err.Error())
		}
		for _, s := range out.SecretList {
			if s.Name == nil {
				continue
			}
			name := *s.Name
			if strings.HasPrefix(name, b.prefix) {
				keys = append(keys, strings.TrimPrefix(name, b.prefix))
			}
		}
		if out.NextToken == nil {
			break
		}
		nextToken = out.NextToken
	}
	return keys, nil
}
