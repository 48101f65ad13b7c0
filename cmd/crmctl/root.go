package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"multi-tenant-crm/internal/client"
	"multi-tenant-crm/internal/session"
)

type globalOpts struct {
	server    string
	tokenFile string
	verbose   bool
}

func newRootCmd() *cobra.Command {
	opts := &globalOpts{}
	cmd := &cobra.Command{
		Use:          "crmctl",
		Short:        "Command line client for the multi-tenant CRM API",
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&opts.server, "server", envOr("CRM_API_URL", "http://localhost:8080"), "API base URL")
	cmd.PersistentFlags().StringVar(&opts.tokenFile, "token-file", defaultTokenFile(), "where the access token is kept")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log API traffic")

	cmd.AddCommand(
		newSignupCmd(opts),
		newLoginCmd(opts),
		newLogoutCmd(opts),
		newWhoamiCmd(opts),
		newCompaniesCmd(opts),
		newLeadsCmd(opts),
	)
	return cmd
}

// connect builds the API client and an identity resolver restored from the
// token file. The caller must Close the resolver.
func connect(ctx context.Context, opts *globalOpts) (*client.Client, *session.Resolver) {
	l := zap.NewNop()
	if opts.verbose {
		l, _ = zap.NewDevelopment()
	}
	c := client.New(opts.server, opts.tokenFile, l)
	r := session.New(c, c, l)
	r.Start(ctx)
	return c, r
}

var errNotSignedIn = errors.New("not signed in, run crmctl login first")

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func defaultTokenFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".crmctl-token.json"
	}
	return filepath.Join(dir, "crmctl", "token.json")
}
