// Package sdk is the client side of the auth demo: Cognito user pool
// sign-in, identity pool credential exchange with a refresh-ahead cache,
// and a SigV4-signing API client.
//
// Typical authenticated flow:
//
//	up := sdk.NewUserPoolClient(sdk.AnonymousConfig(region), poolID, clientID)
//	tokens, err := up.SignInAuto(ctx, username, password)
//	if err != nil {
//		return err
//	}
//
//	ip := sdk.NewIdentityPoolClient(sdk.AnonymousConfig(region), identityPoolID, poolID)
//	cache := sdk.NewCredentialCache(ip.Source(func(context.Context) (string, error) {
//		return tokens.IDToken, nil
//	}))
//
//	api := sdk.NewAPIClient(endpoint, region,
//		sdk.WithCredentials(cache),
//		sdk.WithIDToken(func() string { return tokens.IDToken }),
//	)
//	res, err := api.CallSigned(ctx, "/test/auth")
//
// Guest (unauthenticated identity) calls swap the cache source for
// ip.GuestSource() and skip the ID token.
package sdk
