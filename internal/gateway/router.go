// Package gateway is a local stand-in for the deployed API Gateway: it
// authenticates SigV4-signed requests against a credential table, applies
// the role policy of the deployed routes, and drives the same handler the
// Lambda runs. It exists so the full client flow can be exercised without
// an AWS account.
package gateway

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/casbin/casbin/v2"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"

	"github.com/igor-raits/serverless-api-react-auth-demo/internal/handler"
)

// RouterOptions controls the construction of the gateway router.
// Table is required; everything else has a sensible default.
type RouterOptions struct {
	// Table holds the credential bundles the gateway accepts.
	Table *CredentialTable
	// Handler processes adapted requests. Defaults to one built on the
	// unverified decoder.
	Handler *handler.Handler
	// Enforcer holds the route policy. Defaults to NewEnforcer().
	Enforcer casbin.IEnforcer
	// Logger defaults to slog.Default().
	Logger *slog.Logger
	// Region is the SigV4 signing region. Defaults to us-east-1.
	Region string
	// APIID and Stage shape the request context handed to the handler.
	// Both default to "local".
	APIID string
	Stage string
	// CORSOptions overrides the development CORS policy.
	CORSOptions *cors.Options
}

// DefaultCORSOptions returns the development CORS policy: the SPA dev
// server origins plus every header a signed browser request carries.
func DefaultCORSOptions() cors.Options {
	return cors.Options{
		AllowedOrigins: []string{
			"http://localhost:3000",
			"http://127.0.0.1:3000",
			"http://localhost:5173",
			"http://127.0.0.1:5173",
		},
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{
			"Content-Type",
			"Authorization",
			"X-Amz-Date",
			"X-Amz-Security-Token",
			handler.IDTokenHeader,
		},
		MaxAge: 300,
	}
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// NewRouter assembles the gateway router: an open /test/plain route plus
// the two SigV4-gated routes, all backed by the shared handler.
func NewRouter(opts RouterOptions) (chi.Router, error) {
	if opts.Table == nil {
		return nil, errors.New("credential table is required")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Handler == nil {
		opts.Handler = handler.New(opts.Logger, nil)
	}
	if opts.Enforcer == nil {
		enforcer, err := NewEnforcer()
		if err != nil {
			return nil, err
		}
		opts.Enforcer = enforcer
	}
	if opts.Region == "" {
		opts.Region = "us-east-1"
	}
	if opts.APIID == "" {
		opts.APIID = "local"
	}
	if opts.Stage == "" {
		opts.Stage = "local"
	}

	s := &server{
		log:      opts.Logger,
		handler:  opts.Handler,
		enforcer: opts.Enforcer,
		verifier: NewVerifier(opts.Table, opts.Region),
		apiID:    opts.APIID,
		stage:    opts.Stage,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	corsCfg := DefaultCORSOptions()
	if opts.CORSOptions != nil {
		corsCfg = *opts.CORSOptions
	}
	r.Use(cors.Handler(corsCfg))

	r.Get("/health", healthHandler)
	r.Get("/test/plain", s.invokeOpen)
	r.Group(func(gr chi.Router) {
		gr.Use(s.requireSigV4)
		gr.Get("/test/public", s.invokeSigned)
		gr.Get("/test/auth", s.invokeSigned)
	})

	return r, nil
}

type server struct {
	log      *slog.Logger
	handler  *handler.Handler
	enforcer casbin.IEnforcer
	verifier *Verifier
	apiID    string
	stage    string
}

// entryKey carries the verified table entry through the request context.
type entryKey struct{}

// requireSigV4 authenticates the request against the table and enforces
// the role's route policy before handing off.
func (s *server) requireSigV4(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		entry, apiErr := s.verifier.Verify(r)
		if apiErr != nil {
			s.log.WarnContext(r.Context(), "request rejected",
				"path", r.URL.Path,
				"error_type", apiErr.errorType,
			)
			apiErr.write(w)
			return
		}

		allowed, err := s.enforcer.Enforce(entry.Role, r.URL.Path, r.Method)
		if err != nil {
			s.log.ErrorContext(r.Context(), "policy evaluation failed", "error", err)
			verificationFailure().write(w)
			return
		}
		if !allowed {
			s.log.WarnContext(r.Context(), "request denied by policy",
				"path", r.URL.Path,
				"role", entry.Role,
			)
			accessDenied(entry.Role, r.URL.Path).write(w)
			return
		}

		ctx := context.WithValue(r.Context(), entryKey{}, entry)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *server) invokeSigned(w http.ResponseWriter, r *http.Request) {
	entry, _ := r.Context().Value(entryKey{}).(Entry)
	s.invoke(w, r, &entry)
}

func (s *server) invokeOpen(w http.ResponseWriter, r *http.Request) {
	s.invoke(w, r, nil)
}

// invoke adapts the HTTP request into the Lambda proxy event shape, runs
// the shared handler and maps its response back onto the wire.
func (s *server) invoke(w http.ResponseWriter, r *http.Request, entry *Entry) {
	res, err := s.handler.Handle(r.Context(), s.event(r, entry))
	if err != nil {
		s.log.ErrorContext(r.Context(), "handler failed", "error", err)
		verificationFailure().write(w)
		return
	}

	for name, value := range res.Headers {
		w.Header().Set(name, value)
	}
	w.WriteHeader(res.StatusCode)
	_, _ = w.Write([]byte(res.Body))
}

func (s *server) event(r *http.Request, entry *Entry) events.APIGatewayProxyRequest {
	headers := make(map[string]string, len(r.Header))
	for name := range r.Header {
		headers[name] = r.Header.Get(name)
	}

	sourceIP := r.RemoteAddr
	if host, _, err := net.SplitHostPort(sourceIP); err == nil {
		sourceIP = host
	}

	identity := events.APIGatewayRequestIdentity{
		SourceIP:  sourceIP,
		UserAgent: r.UserAgent(),
	}
	if entry != nil {
		identity.CognitoIdentityID = entry.IdentityID
		identity.CognitoAuthenticationType = entry.Role
		identity.CognitoAuthenticationProvider = entry.Provider
		identity.AccessKey = entry.AccessKeyID
	}

	return events.APIGatewayProxyRequest{
		Resource:   r.URL.Path,
		Path:       r.URL.Path,
		HTTPMethod: r.Method,
		Headers:    headers,
		RequestContext: events.APIGatewayProxyRequestContext{
			AccountID:    "000000000000",
			APIID:        s.apiID,
			Stage:        s.stage,
			RequestID:    uuid.NewString(),
			ResourcePath: r.URL.Path,
			HTTPMethod:   r.Method,
			Identity:     identity,
		},
	}
}
