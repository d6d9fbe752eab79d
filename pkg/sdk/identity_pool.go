package sdk

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentity"
)

// ErrNoCredentials means the identity pool answered without a credential
// bundle. That is a pool misconfiguration (usually a missing or unassumable
// role), not a transient failure, so it gets its own error.
var ErrNoCredentials = errors.New("identity pool returned no credentials")

// identityPoolAPI is the slice of the Cognito Identity API the client uses.
type identityPoolAPI interface {
	GetId(ctx context.Context, params *cognitoidentity.GetIdInput, optFns ...func(*cognitoidentity.Options)) (*cognitoidentity.GetIdOutput, error)
	GetCredentialsForIdentity(ctx context.Context, params *cognitoidentity.GetCredentialsForIdentityInput, optFns ...func(*cognitoidentity.Options)) (*cognitoidentity.GetCredentialsForIdentityOutput, error)
}

// IdentityPoolClient exchanges user pool ID tokens (or nothing at all, for
// guests) for temporary AWS credentials.
type IdentityPoolClient struct {
	api            identityPoolAPI
	identityPoolID string
	loginsKey      string
}

// NewIdentityPoolClient builds a client for the given identity pool. The
// logins key is derived from cfg.Region and the backing user pool.
func NewIdentityPoolClient(cfg aws.Config, identityPoolID, userPoolID string) *IdentityPoolClient {
	return &IdentityPoolClient{
		api:            cognitoidentity.NewFromConfig(cfg),
		identityPoolID: identityPoolID,
		loginsKey:      fmt.Sprintf("cognito-idp.%s.amazonaws.com/%s", cfg.Region, userPoolID),
	}
}

// CredentialsFor exchanges a signed-in user's ID token for credentials
// under the pool's authenticated role.
func (c *IdentityPoolClient) CredentialsFor(ctx context.Context, idToken string) (*Credentials, error) {
	return c.exchange(ctx, map[string]string{c.loginsKey: idToken})
}

// GuestCredentials mints credentials for an unauthenticated identity. The
// pool must have guest access enabled.
func (c *IdentityPoolClient) GuestCredentials(ctx context.Context) (*Credentials, error) {
	return c.exchange(ctx, nil)
}

// Source adapts CredentialsFor into a CredentialSource for a
// CredentialCache. getToken runs on every refresh so a renewed ID token is
// picked up without rebuilding the cache.
func (c *IdentityPoolClient) Source(getToken func(ctx context.Context) (string, error)) CredentialSource {
	return func(ctx context.Context) (*Credentials, error) {
		idToken, err := getToken(ctx)
		if err != nil {
			return nil, fmt.Errorf("resolve id token: %w", err)
		}
		return c.CredentialsFor(ctx, idToken)
	}
}

// GuestSource adapts GuestCredentials into a CredentialSource.
func (c *IdentityPoolClient) GuestSource() CredentialSource {
	return c.GuestCredentials
}

func (c *IdentityPoolClient) exchange(ctx context.Context, logins map[string]string) (*Credentials, error) {
	idOut, err := c.api.GetId(ctx, &cognitoidentity.GetIdInput{
		IdentityPoolId: aws.String(c.identityPoolID),
		Logins:         logins,
	})
	if err != nil {
		return nil, fmt.Errorf("get identity id: %w", err)
	}

	credsOut, err := c.api.GetCredentialsForIdentity(ctx, &cognitoidentity.GetCredentialsForIdentityInput{
		IdentityId: idOut.IdentityId,
		Logins:     logins,
	})
	if err != nil {
		return nil, fmt.Errorf("get credentials for identity %s: %w", aws.ToString(idOut.IdentityId), err)
	}

	cr := credsOut.Credentials
	if cr == nil || aws.ToString(cr.AccessKeyId) == "" || aws.ToString(cr.SecretKey) == "" {
		return nil, fmt.Errorf("%w: check the pool's role attachments", ErrNoCredentials)
	}

	creds := &Credentials{
		AccessKeyID:     aws.ToString(cr.AccessKeyId),
		SecretAccessKey: aws.ToString(cr.SecretKey),
		SessionToken:    aws.ToString(cr.SessionToken),
		IdentityID:      aws.ToString(credsOut.IdentityId),
	}
	if cr.Expiration != nil {
		creds.Expiration = *cr.Expiration
	}
	return creds, nil
}
