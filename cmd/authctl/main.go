package main

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spec-kit/todo-auth/internal/client"
	"github.com/spec-kit/todo-auth/internal/config"
)

var serverFlag string

func main() {
	rootCmd := &cobra.Command{
		Use:   "authctl",
		Short: "Command line client for the todo-auth API",
		Long: `authctl signs in to a todo-auth server and keeps the session cookie
between invocations.

Commands:
  register   Create an account and sign in
  login      Sign in
  whoami     Show the current session
  logout     Sign out of this device
  shell      Interactive session with idle logout`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&serverFlag, "server", "", "Server URL (overrides AUTHCTL_SERVER)")

	rootCmd.AddCommand(
		registerCmd(),
		loginCmd(),
		whoamiCmd(),
		logoutCmd(),
		shellCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

// cli carries what every command needs.
type cli struct {
	cfg     config.ClientConfig
	logger  *zap.Logger
	api     *client.HTTPClient
	session *client.SessionController
	tokens  client.TokenFile
	in      *bufio.Reader
	out     io.Writer
}

func newCLI(cmd *cobra.Command) (*cli, error) {
	cfg := config.LoadClient()
	if serverFlag != "" {
		cfg.Server = serverFlag
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		return nil, err
	}

	api, err := client.NewHTTPClient(cfg.Server, cfg.HTTPTimeout())
	if err != nil {
		return nil, err
	}
	tokens := client.TokenFile{Path: cfg.TokenFile}
	saved, err := tokens.Load()
	if err != nil {
		return nil, err
	}
	api.SetToken(saved)

	return &cli{
		cfg:     cfg,
		logger:  logger,
		api:     api,
		session: client.NewSessionController(api, client.WithNotifier(client.LogNotifier{Logger: logger})),
		tokens:  tokens,
		in:      bufio.NewReader(cmd.InOrStdin()),
		out:     cmd.OutOrStdout(),
	}, nil
}

// persist saves whatever token the jar now holds.
func (c *cli) persist() error {
	return c.tokens.Save(c.api.Token())
}

func (c *cli) printf(format string, args ...any) {
	fmt.Fprintf(c.out, format, args...)
}
