package sdk

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentity"
	citypes "github.com/aws/aws-sdk-go-v2/service/cognitoidentity/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeIdentityPoolAPI struct {
	getID    func(ctx context.Context, in *cognitoidentity.GetIdInput) (*cognitoidentity.GetIdOutput, error)
	getCreds func(ctx context.Context, in *cognitoidentity.GetCredentialsForIdentityInput) (*cognitoidentity.GetCredentialsForIdentityOutput, error)
}

func (f *fakeIdentityPoolAPI) GetId(ctx context.Context, in *cognitoidentity.GetIdInput, _ ...func(*cognitoidentity.Options)) (*cognitoidentity.GetIdOutput, error) {
	return f.getID(ctx, in)
}

func (f *fakeIdentityPoolAPI) GetCredentialsForIdentity(ctx context.Context, in *cognitoidentity.GetCredentialsForIdentityInput, _ ...func(*cognitoidentity.Options)) (*cognitoidentity.GetCredentialsForIdentityOutput, error) {
	return f.getCreds(ctx, in)
}

func newTestIdentityPoolClient(api identityPoolAPI) *IdentityPoolClient {
	return &IdentityPoolClient{
		api:            api,
		identityPoolID: "us-east-1:11112222-3333-4444-5555-666677778888",
		loginsKey:      "cognito-idp.us-east-1.amazonaws.com/us-east-1_TestPool1",
	}
}

func TestNewIdentityPoolClientLoginsKey(t *testing.T) {
	client := NewIdentityPoolClient(AnonymousConfig("eu-west-1"), "eu-west-1:pool", "eu-west-1_Pool99")

	assert.Equal(t, "cognito-idp.eu-west-1.amazonaws.com/eu-west-1_Pool99", client.loginsKey)
}

func TestIdentityPoolClientCredentialsFor(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	fake := &fakeIdentityPoolAPI{
		getID: func(_ context.Context, in *cognitoidentity.GetIdInput) (*cognitoidentity.GetIdOutput, error) {
			assert.Equal(t, "us-east-1:11112222-3333-4444-5555-666677778888", aws.ToString(in.IdentityPoolId))
			assert.Equal(t, "id-token", in.Logins["cognito-idp.us-east-1.amazonaws.com/us-east-1_TestPool1"])
			return &cognitoidentity.GetIdOutput{IdentityId: aws.String("us-east-1:identity-1")}, nil
		},
		getCreds: func(_ context.Context, in *cognitoidentity.GetCredentialsForIdentityInput) (*cognitoidentity.GetCredentialsForIdentityOutput, error) {
			assert.Equal(t, "us-east-1:identity-1", aws.ToString(in.IdentityId))
			assert.Equal(t, "id-token", in.Logins["cognito-idp.us-east-1.amazonaws.com/us-east-1_TestPool1"])
			return &cognitoidentity.GetCredentialsForIdentityOutput{
				IdentityId: aws.String("us-east-1:identity-1"),
				Credentials: &citypes.Credentials{
					AccessKeyId:  aws.String("AKIDEXAMPLE"),
					SecretKey:    aws.String("secret"),
					SessionToken: aws.String("session"),
					Expiration:   aws.Time(exp),
				},
			}, nil
		},
	}
	client := newTestIdentityPoolClient(fake)

	creds, err := client.CredentialsFor(context.Background(), "id-token")
	require.NoError(t, err)

	assert.Equal(t, "AKIDEXAMPLE", creds.AccessKeyID)
	assert.Equal(t, "secret", creds.SecretAccessKey)
	assert.Equal(t, "session", creds.SessionToken)
	assert.Equal(t, "us-east-1:identity-1", creds.IdentityID)
	assert.True(t, creds.Expiration.Equal(exp))
	assert.False(t, creds.IsExpired())
}

func TestIdentityPoolClientGuestCredentials(t *testing.T) {
	fake := &fakeIdentityPoolAPI{
		getID: func(_ context.Context, in *cognitoidentity.GetIdInput) (*cognitoidentity.GetIdOutput, error) {
			assert.Nil(t, in.Logins, "guest exchange must not carry logins")
			return &cognitoidentity.GetIdOutput{IdentityId: aws.String("us-east-1:guest-1")}, nil
		},
		getCreds: func(_ context.Context, in *cognitoidentity.GetCredentialsForIdentityInput) (*cognitoidentity.GetCredentialsForIdentityOutput, error) {
			assert.Nil(t, in.Logins, "guest exchange must not carry logins")
			return &cognitoidentity.GetCredentialsForIdentityOutput{
				IdentityId: aws.String("us-east-1:guest-1"),
				Credentials: &citypes.Credentials{
					AccessKeyId: aws.String("AKIDGUEST"),
					SecretKey:   aws.String("guest-secret"),
				},
			}, nil
		},
	}
	client := newTestIdentityPoolClient(fake)

	creds, err := client.GuestCredentials(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "AKIDGUEST", creds.AccessKeyID)
	assert.Equal(t, "us-east-1:guest-1", creds.IdentityID)
}

func TestIdentityPoolClientMissingCredentials(t *testing.T) {
	tests := []struct {
		name  string
		creds *citypes.Credentials
	}{
		{name: "nil credentials", creds: nil},
		{name: "empty access key", creds: &citypes.Credentials{SecretKey: aws.String("secret")}},
		{name: "empty secret key", creds: &citypes.Credentials{AccessKeyId: aws.String("AKIDEXAMPLE")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeIdentityPoolAPI{
				getID: func(_ context.Context, _ *cognitoidentity.GetIdInput) (*cognitoidentity.GetIdOutput, error) {
					return &cognitoidentity.GetIdOutput{IdentityId: aws.String("us-east-1:identity-1")}, nil
				},
				getCreds: func(_ context.Context, _ *cognitoidentity.GetCredentialsForIdentityInput) (*cognitoidentity.GetCredentialsForIdentityOutput, error) {
					return &cognitoidentity.GetCredentialsForIdentityOutput{Credentials: tt.creds}, nil
				},
			}
			client := newTestIdentityPoolClient(fake)

			_, err := client.CredentialsFor(context.Background(), "id-token")
			assert.ErrorIs(t, err, ErrNoCredentials)
		})
	}
}

func TestIdentityPoolClientExchangeErrors(t *testing.T) {
	boom := errors.New("NotAuthorizedException")

	t.Run("get id fails", func(t *testing.T) {
		fake := &fakeIdentityPoolAPI{
			getID: func(_ context.Context, _ *cognitoidentity.GetIdInput) (*cognitoidentity.GetIdOutput, error) {
				return nil, boom
			},
		}
		client := newTestIdentityPoolClient(fake)

		_, err := client.CredentialsFor(context.Background(), "id-token")
		require.ErrorIs(t, err, boom)
		assert.Contains(t, err.Error(), "get identity id")
	})

	t.Run("get credentials fails", func(t *testing.T) {
		fake := &fakeIdentityPoolAPI{
			getID: func(_ context.Context, _ *cognitoidentity.GetIdInput) (*cognitoidentity.GetIdOutput, error) {
				return &cognitoidentity.GetIdOutput{IdentityId: aws.String("us-east-1:identity-1")}, nil
			},
			getCreds: func(_ context.Context, _ *cognitoidentity.GetCredentialsForIdentityInput) (*cognitoidentity.GetCredentialsForIdentityOutput, error) {
				return nil, boom
			},
		}
		client := newTestIdentityPoolClient(fake)

		_, err := client.CredentialsFor(context.Background(), "id-token")
		require.ErrorIs(t, err, boom)
		assert.Contains(t, err.Error(), "us-east-1:identity-1")
	})
}

func TestIdentityPoolClientSource(t *testing.T) {
	var gotLogins map[string]string
	fake := &fakeIdentityPoolAPI{
		getID: func(_ context.Context, in *cognitoidentity.GetIdInput) (*cognitoidentity.GetIdOutput, error) {
			gotLogins = in.Logins
			return &cognitoidentity.GetIdOutput{IdentityId: aws.String("us-east-1:identity-1")}, nil
		},
		getCreds: func(_ context.Context, _ *cognitoidentity.GetCredentialsForIdentityInput) (*cognitoidentity.GetCredentialsForIdentityOutput, error) {
			return &cognitoidentity.GetCredentialsForIdentityOutput{
				Credentials: &citypes.Credentials{
					AccessKeyId: aws.String("AKIDEXAMPLE"),
					SecretKey:   aws.String("secret"),
				},
			}, nil
		},
	}
	client := newTestIdentityPoolClient(fake)

	t.Run("resolves the token on every fetch", func(t *testing.T) {
		source := client.Source(func(_ context.Context) (string, error) {
			return "renewed-token", nil
		})

		creds, err := source(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "AKIDEXAMPLE", creds.AccessKeyID)
		assert.Equal(t, "renewed-token", gotLogins["cognito-idp.us-east-1.amazonaws.com/us-east-1_TestPool1"])
	})

	t.Run("token resolution failure", func(t *testing.T) {
		boom := errors.New("session expired")
		source := client.Source(func(_ context.Context) (string, error) {
			return "", boom
		})

		_, err := source(context.Background())
		require.ErrorIs(t, err, boom)
		assert.Contains(t, err.Error(), "resolve id token")
	})

	t.Run("guest source", func(t *testing.T) {
		creds, err := client.GuestSource()(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "AKIDEXAMPLE", creds.AccessKeyID)
	})
}
