// Package config resolves the coordinates of a deployed stack: the API
// endpoint plus the Cognito user pool, app client and identity pool behind
// it. Values come from environment variables, optionally overlaid with the
// stack's Terraform outputs, and can be re-exported for the SPA build.
package config

import (
	"context"
	"errors"
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Config holds the deployment settings shared by the CLI and the sandbox
// gateway.
type Config struct {
	Region         string `envconfig:"AWS_REGION" default:"us-east-1"`
	APIEndpoint    string `envconfig:"API_ENDPOINT"`
	UserPoolID     string `envconfig:"COGNITO_USER_POOL_ID"`
	ClientID       string `envconfig:"COGNITO_CLIENT_ID"`
	IdentityPoolID string `envconfig:"COGNITO_IDENTITY_POOL_ID"`
	Domain         string `envconfig:"COGNITO_DOMAIN"`

	SignInRedirectURL  string `envconfig:"SIGN_IN_REDIRECT_URL" default:"http://localhost:3000/callback"`
	SignOutRedirectURL string `envconfig:"SIGN_OUT_REDIRECT_URL" default:"http://localhost:3000/"`

	// Profile selects the shared AWS config profile for calls made with
	// IAM credentials. Empty means the SDK's default chain.
	Profile string `envconfig:"AWS_PROFILE"`

	// TerraformDir is the deployment working directory whose outputs
	// override the environment when set.
	TerraformDir string `envconfig:"TERRAFORM_DIR"`
}

// FromEnv reads the configuration from environment variables.
func FromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}
	return &cfg, nil
}

// Load reads the environment and, when a Terraform directory is known
// (workdir argument first, TERRAFORM_DIR otherwise), overlays the stack
// outputs on top. Outputs win over the environment wherever both exist.
func Load(ctx context.Context, workdir string) (*Config, error) {
	cfg, err := FromEnv()
	if err != nil {
		return nil, err
	}
	if workdir == "" {
		workdir = cfg.TerraformDir
	}
	if workdir == "" {
		return cfg, nil
	}
	if err := cfg.ApplyTerraform(ctx, workdir); err != nil {
		return nil, err
	}
	return cfg, nil
}

// IssuerURL is the user pool's OIDC issuer, which also serves its JWKS
// and discovery documents.
func (c *Config) IssuerURL() string {
	return fmt.Sprintf("https://cognito-idp.%s.amazonaws.com/%s", c.Region, c.UserPoolID)
}

// LoginsKey is the provider name the identity pool expects for tokens
// issued by the user pool.
func (c *Config) LoginsKey() string {
	return fmt.Sprintf("cognito-idp.%s.amazonaws.com/%s", c.Region, c.UserPoolID)
}

// RequireAPI errs when no API endpoint is configured.
func (c *Config) RequireAPI() error {
	if c.APIEndpoint == "" {
		return errors.New("no API endpoint configured: set API_ENDPOINT or point TERRAFORM_DIR at the deployed stack")
	}
	return nil
}

// RequireUserPool errs when the user pool coordinates are missing.
func (c *Config) RequireUserPool() error {
	if c.UserPoolID == "" || c.ClientID == "" {
		return errors.New("no user pool configured: set COGNITO_USER_POOL_ID and COGNITO_CLIENT_ID or point TERRAFORM_DIR at the deployed stack")
	}
	return nil
}

// RequireIdentityPool errs when the identity pool is missing.
func (c *Config) RequireIdentityPool() error {
	if c.IdentityPoolID == "" {
		return errors.New("no identity pool configured: set COGNITO_IDENTITY_POOL_ID or point TERRAFORM_DIR at the deployed stack")
	}
	return nil
}
