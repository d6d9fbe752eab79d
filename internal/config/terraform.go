package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"

	"github.com/hashicorp/terraform-exec/tfexec"
)

// FromTerraform reads the stack outputs in workdir into a fresh Config.
// Works with Terraform or OpenTofu, whichever is installed.
func FromTerraform(ctx context.Context, workdir string) (*Config, error) {
	cfg := &Config{TerraformDir: workdir}
	if err := cfg.ApplyTerraform(ctx, workdir); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyTerraform overlays the stack outputs in workdir onto c. Outputs the
// stack does not publish leave the current values alone.
func (c *Config) ApplyTerraform(ctx context.Context, workdir string) error {
	execPath, err := findTerraformBinary()
	if err != nil {
		return err
	}

	tf, err := tfexec.NewTerraform(workdir, execPath)
	if err != nil {
		return fmt.Errorf("set up terraform in %s: %w", workdir, err)
	}

	outputs, err := tf.Output(ctx)
	if err != nil {
		return fmt.Errorf("read terraform outputs in %s: %w", workdir, err)
	}

	c.TerraformDir = workdir
	return c.applyOutputs(outputs)
}

// applyOutputs copies the known string outputs into the config.
func (c *Config) applyOutputs(outputs map[string]tfexec.OutputMeta) error {
	targets := map[string]*string{
		"api_endpoint":             &c.APIEndpoint,
		"cognito_region":           &c.Region,
		"cognito_user_pool_id":     &c.UserPoolID,
		"cognito_client_id":        &c.ClientID,
		"cognito_identity_pool_id": &c.IdentityPoolID,
		"cognito_domain":           &c.Domain,
		"sign_in_redirect_url":     &c.SignInRedirectURL,
		"sign_out_redirect_url":    &c.SignOutRedirectURL,
	}

	for name, dst := range targets {
		meta, ok := outputs[name]
		if !ok {
			continue
		}
		var value string
		if err := json.Unmarshal(meta.Value, &value); err != nil {
			return fmt.Errorf("terraform output %s is not a string: %w", name, err)
		}
		if value != "" {
			*dst = value
		}
	}
	return nil
}

// findTerraformBinary locates the Terraform or OpenTofu binary:
// TERRAFORM_BINARY_NAME when set, otherwise "terraform" then "tofu" from
// PATH.
func findTerraformBinary() (string, error) {
	if name := os.Getenv("TERRAFORM_BINARY_NAME"); name != "" {
		path, err := exec.LookPath(name)
		if err != nil {
			return "", fmt.Errorf("TERRAFORM_BINARY_NAME: %w", err)
		}
		return path, nil
	}

	for _, name := range []string{"terraform", "tofu"} {
		if path, err := exec.LookPath(name); err == nil {
			return path, nil
		}
	}
	return "", errors.New("no terraform or tofu binary found in PATH: install one or set TERRAFORM_BINARY_NAME")
}
