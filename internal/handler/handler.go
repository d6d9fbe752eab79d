// Package handler implements the backend function behind the API routes.
//
// Authentication already happened at the platform gate by the time a
// request arrives here, so the handler never rejects anyone: it decodes the
// optional ID token header, classifies the claims and answers 200 with a
// diagnostic view of what it found. A missing or broken token simply means
// an anonymous view.
package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambdacontext"

	"github.com/igor-raits/serverless-api-react-auth-demo/internal/identity"
	"github.com/igor-raits/serverless-api-react-auth-demo/internal/token"
)

// IDTokenHeader carries the caller's raw Cognito ID token. The frontend
// attaches it to signed calls so the backend can show the decoded claims.
const IDTokenHeader = "X-Cognito-Id-Token"

// helloMessage is the fixed greeting the demo returns on every route.
const helloMessage = "Hello from Lambda!"

// APIInfo is contextual metadata about the invoking request, taken from the
// gateway's request context.
type APIInfo struct {
	APIID        string `json:"api_id"`
	Stage        string `json:"stage"`
	RequestID    string `json:"request_id"`
	HTTPMethod   string `json:"http_method,omitempty"`
	ResourcePath string `json:"resource_path,omitempty"`
}

// Response is the diagnostic body every route returns.
type Response struct {
	Message   string                   `json:"message"`
	UserInfo  identity.UserInfo        `json:"user_info"`
	Groups    []string                 `json:"user_groups"`
	IsAdmin   bool                     `json:"is_admin"`
	IsViewer  bool                     `json:"is_viewer"`
	APIInfo   APIInfo                  `json:"api_info"`
	Caller    *identity.CallerIdentity `json:"caller_identity,omitempty"`
	Timestamp string                   `json:"timestamp,omitempty"`
}

// Handler answers API gateway proxy events.
type Handler struct {
	log      *slog.Logger
	verifier token.Verifier
}

// New builds a Handler. A nil verifier defaults to the unverified decoder;
// a nil logger defaults to slog.Default().
func New(log *slog.Logger, verifier token.Verifier) *Handler {
	if log == nil {
		log = slog.Default()
	}
	if verifier == nil {
		verifier = token.InsecureVerifier{}
	}
	return &Handler{log: log, verifier: verifier}
}

// Handle serves one proxy event. It returns a non-200 status only when the
// response itself cannot be marshaled; every reachable request, with or
// without a usable token, gets 200.
func (h *Handler) Handle(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	claims := token.Claims{}
	if raw, ok := HeaderValue(req.Headers, IDTokenHeader); ok && raw != "" {
		parsed, err := h.verifier.Verify(ctx, raw)
		if err != nil {
			h.log.WarnContext(ctx, "id token unusable, treating caller as anonymous", "error", err)
		} else {
			claims = parsed
		}
	}

	result := identity.Classify(claims)

	resp := Response{
		Message:  helloMessage,
		UserInfo: result.UserInfo,
		Groups:   result.Groups,
		IsAdmin:  result.IsAdmin,
		IsViewer: result.IsViewer,
		APIInfo: APIInfo{
			APIID:        req.RequestContext.APIID,
			Stage:        req.RequestContext.Stage,
			RequestID:    req.RequestContext.RequestID,
			HTTPMethod:   req.RequestContext.HTTPMethod,
			ResourcePath: req.RequestContext.ResourcePath,
		},
		Caller: callerIdentity(req.RequestContext.Identity),
	}
	if lc, ok := lambdacontext.FromContext(ctx); ok {
		resp.Timestamp = lc.AwsRequestID
	}

	h.log.InfoContext(ctx, "request handled",
		"path", req.RequestContext.ResourcePath,
		"username", resp.UserInfo.Username,
		"groups", len(resp.Groups),
		"is_admin", resp.IsAdmin,
		"is_viewer", resp.IsViewer,
	)

	body, err := json.Marshal(resp)
	if err != nil {
		h.log.ErrorContext(ctx, "marshal response", "error", err)
		return events.APIGatewayProxyResponse{
			StatusCode: http.StatusInternalServerError,
			Headers:    responseHeaders(),
			Body:       fmt.Sprintf(`{"error":%q}`, err.Error()),
		}, nil
	}

	return events.APIGatewayProxyResponse{
		StatusCode: http.StatusOK,
		Headers:    responseHeaders(),
		Body:       string(body),
	}, nil
}

// HeaderValue finds name in headers regardless of case. The gateway passes
// header keys through with whatever casing the client used.
func HeaderValue(headers map[string]string, name string) (string, bool) {
	if v, ok := headers[name]; ok {
		return v, true
	}
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	return "", false
}

func callerIdentity(id events.APIGatewayRequestIdentity) *identity.CallerIdentity {
	if id.CognitoIdentityID == "" && id.SourceIP == "" && id.UserAgent == "" {
		return nil
	}
	return &identity.CallerIdentity{
		CognitoIdentityID: id.CognitoIdentityID,
		AuthProvider:      id.CognitoAuthenticationProvider,
		SourceIP:          id.SourceIP,
		UserAgent:         id.UserAgent,
	}
}

func responseHeaders() map[string]string {
	return map[string]string{
		"Content-Type":                 "application/json",
		"Access-Control-Allow-Origin":  "*",
		"Access-Control-Allow-Headers": "Content-Type,X-Amz-Date,Authorization,X-Api-Key,X-Amz-Security-Token," + IDTokenHeader,
		"Access-Control-Allow-Methods": "GET,OPTIONS",
	}
}
