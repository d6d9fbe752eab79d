// Command authgw runs a local stand-in for the deployed HTTP gate. It
// verifies SigV4 signatures against a small credential table, applies the
// same route policy the cloud deployment applies, and hands surviving
// requests to the handler the deployed function runs.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/igor-raits/serverless-api-react-auth-demo/internal/gateway"
	"github.com/igor-raits/serverless-api-react-auth-demo/internal/handler"
	"github.com/igor-raits/serverless-api-react-auth-demo/internal/token"
)

// settings carries the server configuration. Every field can come from the
// environment; flags override.
type settings struct {
	Listen    string     `envconfig:"LISTEN_ADDR" default:"127.0.0.1:8787"`
	Region    string     `envconfig:"AWS_REGION" default:"us-east-1"`
	APIID     string     `envconfig:"API_ID" default:"local"`
	Stage     string     `envconfig:"API_STAGE" default:"local"`
	CredsFile string     `envconfig:"CREDENTIALS_FILE"`
	Origins   []string   `envconfig:"CORS_ORIGINS"`
	LogFormat string     `envconfig:"LOG_FORMAT" default:"text"`
	LogLevel  slog.Level `envconfig:"LOG_LEVEL" default:"info"`
}

func newLogger(s settings) *slog.Logger {
	opts := &slog.HandlerOptions{Level: s.LogLevel}
	if s.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

func newRootCmd() (*cobra.Command, error) {
	var s settings
	if err := envconfig.Process("", &s); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}

	cmd := &cobra.Command{
		Use:   "authgw",
		Short: "Local sandbox gateway for the auth demo API",
		Long: `authgw serves the demo API routes locally with the access rules of the
cloud deployment: /test/plain is open, /test/public needs any valid SigV4
signature, /test/auth additionally needs the authenticated role.

Without --creds-file the gateway generates one credential bundle per role
on startup and prints them so clients can sign requests.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(s)
		},
	}

	cmd.Flags().StringVar(&s.Listen, "listen", s.Listen, "Bind address (env: LISTEN_ADDR)")
	cmd.Flags().StringVar(&s.Region, "region", s.Region, "SigV4 signing region (env: AWS_REGION)")
	cmd.Flags().StringVar(&s.APIID, "api-id", s.APIID, "API id reported to the handler (env: API_ID)")
	cmd.Flags().StringVar(&s.Stage, "stage", s.Stage, "Stage name reported to the handler (env: API_STAGE)")
	cmd.Flags().StringVar(&s.CredsFile, "creds-file", s.CredsFile, "JSON credential table, one entry per accepted key (env: CREDENTIALS_FILE)")
	cmd.Flags().StringSliceVar(&s.Origins, "origin", s.Origins, "Additional allowed CORS origins (env: CORS_ORIGINS)")
	return cmd, nil
}

func loadTable(s settings) (*gateway.CredentialTable, error) {
	if s.CredsFile != "" {
		return gateway.LoadCredentialTable(s.CredsFile)
	}

	table, err := gateway.RandomTable()
	if err != nil {
		return nil, err
	}

	rows := pterm.TableData{{"ROLE", "ACCESS KEY ID", "SECRET ACCESS KEY", "SESSION TOKEN"}}
	for _, entry := range table.Entries() {
		rows = append(rows, []string{entry.Role, entry.AccessKeyID, entry.SecretAccessKey, entry.SessionToken})
	}
	pterm.DefaultSection.Println("Accepted credentials (generated for this run)")
	if err := pterm.DefaultTable.WithHasHeader().WithData(rows).Render(); err != nil {
		return nil, err
	}
	return table, nil
}

func run(s settings) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log := newLogger(s)
	slog.SetDefault(log)

	table, err := loadTable(s)
	if err != nil {
		return fmt.Errorf("load credential table: %w", err)
	}

	corsOpts := gateway.DefaultCORSOptions()
	corsOpts.AllowedOrigins = append(corsOpts.AllowedOrigins, s.Origins...)

	router, err := gateway.NewRouter(gateway.RouterOptions{
		Table:       table,
		Handler:     handler.New(log, token.InsecureVerifier{}),
		Logger:      log,
		Region:      s.Region,
		APIID:       s.APIID,
		Stage:       s.Stage,
		CORSOptions: &corsOpts,
	})
	if err != nil {
		return fmt.Errorf("assemble router: %w", err)
	}

	srv := &http.Server{
		Addr:         s.Listen,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Info("gateway listening",
			slog.String("addr", s.Listen),
			slog.String("region", s.Region),
			slog.String("stage", s.Stage))
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			srv.Close()
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		return nil
	}
}

func main() {
	root, err := newRootCmd()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
