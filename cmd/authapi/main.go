// Command authapi is the backend function entrypoint. It adapts the shared
// request handler to the Lambda runtime; all interesting behavior lives in
// internal/handler.
package main

import (
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/kelseyhightower/envconfig"

	"github.com/igor-raits/serverless-api-react-auth-demo/internal/handler"
	"github.com/igor-raits/serverless-api-react-auth-demo/internal/token"
)

// settings is the function configuration. With no environment at all the
// function decodes tokens without verification and logs JSON at info level,
// which is what the demo deploys.
type settings struct {
	VerifyTokens bool       `envconfig:"VERIFY_TOKENS" default:"false"`
	Region       string     `envconfig:"COGNITO_REGION"`
	UserPoolID   string     `envconfig:"COGNITO_USER_POOL_ID"`
	ClientID     string     `envconfig:"COGNITO_CLIENT_ID"`
	LogFormat    string     `envconfig:"LOG_FORMAT" default:"json"`
	LogLevel     slog.Level `envconfig:"LOG_LEVEL" default:"info"`
}

func newLogger(s settings) *slog.Logger {
	opts := &slog.HandlerOptions{Level: s.LogLevel}
	if s.LogFormat == "text" {
		return slog.New(slog.NewTextHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, opts))
}

func main() {
	var s settings
	if err := envconfig.Process("", &s); err != nil {
		slog.Error("read environment", slog.Any("error", err))
		os.Exit(1)
	}
	if s.Region == "" {
		// The runtime region is where the pool lives unless told otherwise.
		s.Region = os.Getenv("AWS_REGION")
	}

	log := newLogger(s)
	slog.SetDefault(log)

	var verifier token.Verifier = token.InsecureVerifier{}
	if s.VerifyTokens {
		opts := token.JWKSOptions{
			Region:       s.Region,
			UserPoolID:   s.UserPoolID,
			ClientID:     s.ClientID,
			LazyLoadJWKS: true,
		}
		v, err := token.NewJWKSVerifier(opts)
		if err != nil {
			log.Error("configure token verifier", slog.Any("error", err))
			os.Exit(1)
		}
		verifier = v
		log.Info("token signature verification enabled", slog.String("issuer", opts.Issuer()))
	}

	lambda.Start(handler.New(log, verifier).Handle)
}
