// Package cli implements the backofficectl command tree on top of the
// client SDK: session lifecycle, profile reads and image uploads.
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/fieldcart/backoffice/internal/client/api"
	"github.com/fieldcart/backoffice/internal/client/session"
	"github.com/fieldcart/backoffice/internal/client/tokenstore"
	"github.com/fieldcart/backoffice/internal/config"
	"github.com/fieldcart/backoffice/internal/logger"
)

// Version is stamped by ldflags at release time.
var Version = "dev"

// app carries the wired client SDK shared by all subcommands.
type app struct {
	cfg      *config.Client
	logger   *logger.Logger
	store    tokenstore.Store
	client   *api.Client
	manager  *session.Manager
	stateDir string
}

func newApp() (*app, error) {
	cfg, err := config.NewClientConfig()
	if err != nil {
		return nil, err
	}

	stateDir := cfg.StateDir
	if stateDir == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve config directory: %w", err)
		}
		stateDir = filepath.Join(base, "backofficectl")
	}

	store, err := tokenstore.NewFile(stateDir)
	if err != nil {
		return nil, err
	}

	l := logger.New(1)

	client := api.New(cfg.BaseURL, cfg.Timeout, l, api.WithAuthExpired(func() {
		fmt.Fprintln(os.Stderr, "session expired, run `backofficectl login` to sign in again")
	}))
	manager := session.NewManager(client, store, cfg.StorefrontURL, l)

	return &app{
		cfg:      cfg,
		logger:   l,
		store:    store,
		client:   client,
		manager:  manager,
		stateDir: stateDir,
	}, nil
}

// NewRootCommand builds the backofficectl command tree.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "backofficectl",
		Short:         "Command-line client for the back-office API",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newLoginCommand(),
		newLogoutCommand(),
		newProfileCommand(),
		newPermissionsCommand(),
		newUsersCommand(),
		newCategoriesCommand(),
		newUploadCommand(),
	)

	return root
}

// Execute runs the CLI and returns a process exit code.
func Execute() int {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	return 0
}
