package sdk

import (
	"context"
	"errors"
	"fmt"
	"time"

	cognitosrp "github.com/alexrudd/cognito-srp/v4"
	"github.com/aws/aws-sdk-go-v2/aws"
	cip "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	cipTypes "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"

	"github.com/igor-raits/serverless-api-react-auth-demo/internal/identity"
	"github.com/igor-raits/serverless-api-react-auth-demo/internal/token"
)

// AnonymousConfig returns the minimal aws.Config for Cognito calls that
// need no caller credentials (sign-in, identity pool exchange).
func AnonymousConfig(region string) aws.Config {
	return aws.Config{
		Region:      region,
		Credentials: aws.AnonymousCredentials{},
	}
}

// userPoolAPI is the slice of the Cognito IdP API the client uses, small
// enough to fake in tests.
type userPoolAPI interface {
	InitiateAuth(ctx context.Context, params *cip.InitiateAuthInput, optFns ...func(*cip.Options)) (*cip.InitiateAuthOutput, error)
	RespondToAuthChallenge(ctx context.Context, params *cip.RespondToAuthChallengeInput, optFns ...func(*cip.Options)) (*cip.RespondToAuthChallengeOutput, error)
	ListGroups(ctx context.Context, params *cip.ListGroupsInput, optFns ...func(*cip.Options)) (*cip.ListGroupsOutput, error)
	AdminListGroupsForUser(ctx context.Context, params *cip.AdminListGroupsForUserInput, optFns ...func(*cip.Options)) (*cip.AdminListGroupsForUserOutput, error)
}

// UserPoolClient signs users in against a Cognito user pool app client
// (public client, no secret) and exposes the pool's group catalog.
type UserPoolClient struct {
	api        userPoolAPI
	userPoolID string
	clientID   string
}

// NewUserPoolClient builds a client for the given pool and app client.
// Group listing calls need cfg to carry real credentials; the sign-in flows
// work with AnonymousConfig.
func NewUserPoolClient(cfg aws.Config, userPoolID, clientID string) *UserPoolClient {
	return &UserPoolClient{
		api:        cip.NewFromConfig(cfg),
		userPoolID: userPoolID,
		clientID:   clientID,
	}
}

// SignIn authenticates with the plain USER_PASSWORD_AUTH flow. The pool's
// app client must have the flow enabled.
func (c *UserPoolClient) SignIn(ctx context.Context, username, password string) (*Tokens, error) {
	out, err := c.api.InitiateAuth(ctx, &cip.InitiateAuthInput{
		AuthFlow: cipTypes.AuthFlowTypeUserPasswordAuth,
		ClientId: aws.String(c.clientID),
		AuthParameters: map[string]string{
			"USERNAME": username,
			"PASSWORD": password,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("password auth: %w", err)
	}
	return c.tokens(out.AuthenticationResult, username, FlowPassword)
}

// SignInSRP authenticates with USER_SRP_AUTH: the password never leaves the
// client, only the SRP proof does.
func (c *UserPoolClient) SignInSRP(ctx context.Context, username, password string) (*Tokens, error) {
	srp, err := cognitosrp.NewCognitoSRP(username, password, c.userPoolID, c.clientID, nil)
	if err != nil {
		return nil, fmt.Errorf("initialize srp: %w", err)
	}

	out, err := c.api.InitiateAuth(ctx, &cip.InitiateAuthInput{
		AuthFlow:       cipTypes.AuthFlowTypeUserSrpAuth,
		ClientId:       aws.String(c.clientID),
		AuthParameters: srp.GetAuthParams(),
	})
	if err != nil {
		return nil, fmt.Errorf("srp initiate auth: %w", err)
	}
	if out.ChallengeName != cipTypes.ChallengeNameTypePasswordVerifier {
		return nil, fmt.Errorf("unexpected auth challenge %q", out.ChallengeName)
	}

	answers, err := srp.PasswordVerifierChallenge(out.ChallengeParameters, time.Now())
	if err != nil {
		return nil, fmt.Errorf("answer password verifier challenge: %w", err)
	}

	resp, err := c.api.RespondToAuthChallenge(ctx, &cip.RespondToAuthChallengeInput{
		ChallengeName:      cipTypes.ChallengeNameTypePasswordVerifier,
		ChallengeResponses: answers,
		ClientId:           aws.String(c.clientID),
	})
	if err != nil {
		return nil, fmt.Errorf("srp challenge response: %w", err)
	}
	return c.tokens(resp.AuthenticationResult, username, FlowSRP)
}

// SignInAuto tries SRP first and falls back to the plain password flow, so
// it works against pools with either flow enabled for the app client.
func (c *UserPoolClient) SignInAuto(ctx context.Context, username, password string) (*Tokens, error) {
	tokens, srpErr := c.SignInSRP(ctx, username, password)
	if srpErr == nil {
		return tokens, nil
	}

	tokens, pwErr := c.SignIn(ctx, username, password)
	if pwErr != nil {
		return nil, errors.Join(fmt.Errorf("srp: %w", srpErr), pwErr)
	}
	return tokens, nil
}

// Refresh exchanges a refresh token for fresh ID and access tokens. The
// input refresh token is carried over; Cognito does not rotate it here.
func (c *UserPoolClient) Refresh(ctx context.Context, refreshToken string) (*Tokens, error) {
	out, err := c.api.InitiateAuth(ctx, &cip.InitiateAuthInput{
		AuthFlow: cipTypes.AuthFlowTypeRefreshTokenAuth,
		ClientId: aws.String(c.clientID),
		AuthParameters: map[string]string{
			"REFRESH_TOKEN": refreshToken,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("refresh token auth: %w", err)
	}

	tokens, err := c.tokens(out.AuthenticationResult, "", FlowRefresh)
	if err != nil {
		return nil, err
	}
	if tokens.RefreshToken == "" {
		tokens.RefreshToken = refreshToken
	}
	return tokens, nil
}

// ListGroups returns every group in the pool with its precedence and role
// mapping. Requires real AWS credentials on the client's config.
func (c *UserPoolClient) ListGroups(ctx context.Context) ([]identity.Group, error) {
	var groups []identity.Group
	var next *string
	for {
		out, err := c.api.ListGroups(ctx, &cip.ListGroupsInput{
			UserPoolId: aws.String(c.userPoolID),
			NextToken:  next,
		})
		if err != nil {
			return nil, fmt.Errorf("list groups: %w", err)
		}
		groups = append(groups, toGroups(out.Groups)...)
		if out.NextToken == nil {
			return groups, nil
		}
		next = out.NextToken
	}
}

// UserGroups returns the groups a specific user belongs to. Requires real
// AWS credentials on the client's config.
func (c *UserPoolClient) UserGroups(ctx context.Context, username string) ([]identity.Group, error) {
	var groups []identity.Group
	var next *string
	for {
		out, err := c.api.AdminListGroupsForUser(ctx, &cip.AdminListGroupsForUserInput{
			UserPoolId: aws.String(c.userPoolID),
			Username:   aws.String(username),
			NextToken:  next,
		})
		if err != nil {
			return nil, fmt.Errorf("list groups for %s: %w", username, err)
		}
		groups = append(groups, toGroups(out.Groups)...)
		if out.NextToken == nil {
			return groups, nil
		}
		next = out.NextToken
	}
}

func (c *UserPoolClient) tokens(res *cipTypes.AuthenticationResultType, username, flow string) (*Tokens, error) {
	if res == nil || aws.ToString(res.IdToken) == "" {
		return nil, errors.New("authentication returned no tokens")
	}
	t := &Tokens{
		IDToken:      aws.ToString(res.IdToken),
		AccessToken:  aws.ToString(res.AccessToken),
		RefreshToken: aws.ToString(res.RefreshToken),
		ExpiresAt:    time.Now().Add(time.Duration(res.ExpiresIn) * time.Second),
		Username:     username,
		AuthFlow:     flow,
	}
	if t.Username == "" {
		t.Username = token.Decode(t.IDToken).String("cognito:username")
	}
	return t, nil
}

func toGroups(in []cipTypes.GroupType) []identity.Group {
	out := make([]identity.Group, 0, len(in))
	for _, g := range in {
		out = append(out, identity.Group{
			Name:        aws.ToString(g.GroupName),
			Description: aws.ToString(g.Description),
			Precedence:  int(aws.ToInt32(g.Precedence)),
			RoleARN:     aws.ToString(g.RoleArn),
		})
	}
	return out
}
