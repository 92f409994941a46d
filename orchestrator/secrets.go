// Copyright 2025 FinSight
// SPDX-License-Identifier: Apache-2.0

package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"

	"finsight/platform/shared/logger"
)

// SecretsManager retrieves a credential bundle by identifier.
type SecretsManager interface {
	GetSecret(ctx context.Context, secretARN string) (map[string]string, error)
}

// AWSSecretsManager implements SecretsManager using AWS Secrets Manager.
// Secrets are fetched once at startup and feed immutable clients, so there
// is no cache and no refresh path.
type AWSSecretsManager struct {
	client *secretsmanager.Client
	logger *logger.Logger
}

// NewAWSSecretsManager creates an AWS Secrets Manager client using the
// default credential chain, with an optional region override.
func NewAWSSecretsManager(ctx context.Context, region string, log *logger.Logger) (*AWSSecretsManager, error) {
	if log == nil {
		log = logger.New("secrets")
	}

	cfgOpts := []func(*config.LoadOptions) error{}
	if region != "" {
		cfgOpts = append(cfgOpts, config.WithRegion(region))
	}

	cfg, err := config.LoadDefaultConfig(ctx, cfgOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &AWSSecretsManager{
		client: secretsmanager.NewFromConfig(cfg),
		logger: log,
	}, nil
}

// GetSecret retrieves a secret and parses it as a JSON object with string
// values. A secret holding a bare string is returned under the "value" key.
func (s *AWSSecretsManager) GetSecret(ctx context.Context, secretARN string) (map[string]string, error) {
	s.logger.Info("", "Fetching secret from AWS Secrets Manager", map[string]interface{}{
		"secret": maskARN(secretARN),
	})

	result, err := s.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(secretARN),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get secret %s: %w", maskARN(secretARN), err)
	}

	if result.SecretString == nil {
		return nil, fmt.Errorf("secret %s has no string value", maskARN(secretARN))
	}
	secretValue := *result.SecretString

	var credentials map[string]string
	if err := json.Unmarshal([]byte(secretValue), &credentials); err != nil {
		// Secrets holding a single API key are stored as a bare string.
		credentials = map[string]string{
			"value": secretValue,
		}
	}

	return credentials, nil
}

// maskARN masks the secret ARN for logging (shows only last 8 characters)
func maskARN(arn string) string {
	if len(arn) <= 12 {
		return "***"
	}
	return "..." + arn[len(arn)-8:]
}

// applySecrets fills credentials the environment did not supply from a
// secret bundle keyed by environment variable name. Environment values win;
// the bundle only backfills. Returns the names that were filled.
func (c *Config) applySecrets(credentials map[string]string) []string {
	var filled []string

	if c.FinancialAPIKey == "" {
		if v := credentials["FINANCIAL_DATASETS_API_KEY"]; v != "" {
			c.FinancialAPIKey = v
			filled = append(filled, "FINANCIAL_DATASETS_API_KEY")
		}
	}
	if c.GeminiAPIKey == "" {
		if v := credentials["GEMINI_API_KEY"]; v != "" {
			c.GeminiAPIKey = v
			filled = append(filled, "GEMINI_API_KEY")
		}
	}
	if c.JWTSecret == "" {
		if v := credentials["JWT_SECRET"]; v != "" {
			c.JWTSecret = v
			filled = append(filled, "JWT_SECRET")
		}
	}

	return filled
}
