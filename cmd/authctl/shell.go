package main

import (
	"errors"
	"io"
	"strings"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"

	"github.com/spec-kit/todo-auth/internal/client"
	"github.com/spec-kit/todo-auth/internal/domain"
)

const shellHelp = `Commands:
  whoami                 show the current session
  login <email>          sign in
  logout                 sign out
  guard <path> [ROLE..]  show what a private route would do
  status                 show the idle timer
  continue               dismiss the idle warning
  quit                   leave the shell
`

func shellCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Interactive session with idle logout",
		Long: `shell keeps a session open and logs it out after AUTHCTL_IDLE_TIMEOUT_SECONDS
without input. A warning is printed AUTHCTL_IDLE_PROMPT_SECONDS before that;
only "continue" dismisses it.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newCLI(cmd)
			if err != nil {
				return err
			}
			return c.runShell(cmd)
		},
	}
}

func (c *cli) runShell(cmd *cobra.Command) error {
	ctx := cmd.Context()

	idle := client.NewIdleController(
		client.IdleConfig{Timeout: c.cfg.IdleTimeout(), PromptBefore: c.cfg.IdlePrompt()},
		nil,
		client.OnPrompt(func(remaining time.Duration) {
			c.printf("\nStill there? You will be logged out in %s. Type \"continue\" to stay.\n", remaining)
		}),
	)
	unbind := idle.Bind(ctx, c.session)
	defer unbind()

	var wasAuthenticated atomic.Bool
	unsubscribe := c.session.Subscribe(func(st client.State) {
		if st.Authenticated() {
			wasAuthenticated.Store(true)
			return
		}
		if !st.Loading && wasAuthenticated.Swap(false) {
			if err := c.tokens.Remove(); err != nil {
				c.logger.Warn(err.Error())
			}
		}
	})
	defer unsubscribe()

	if err := c.session.Load(ctx); err != nil {
		c.logger.Warn("could not load session: " + err.Error())
	}
	c.printf("%s", shellHelp)

	for {
		line, err := promptLine(c.in, c.out, "> ")
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		idle.Activity()

		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "help":
			c.printf("%s", shellHelp)
		case "whoami":
			if sess := c.session.State().Session; sess != nil {
				c.printSession(sess)
			} else {
				c.printf("Not logged in.\n")
			}
		case "login":
			if len(fields) < 2 {
				c.printf("usage: login <email>\n")
				continue
			}
			password, err := promptPassword(c.in, c.out, "Password: ")
			if err != nil {
				return err
			}
			if _, err := c.session.Login(ctx, fields[1], password); err != nil {
				c.printf("%s\n", c.explain(err))
				continue
			}
			if err := c.persist(); err != nil {
				return err
			}
			c.printf("Logged in.\n")
		case "logout":
			_ = c.session.LogOut(ctx)
			if err := c.tokens.Remove(); err != nil {
				return err
			}
		case "guard":
			if len(fields) < 2 {
				c.printf("usage: guard <path> [ROLE..]\n")
				continue
			}
			roles := make([]domain.Role, 0, len(fields)-2)
			for _, r := range fields[2:] {
				roles = append(roles, domain.Role(strings.ToUpper(r)))
			}
			d := c.session.Guard(fields[1], roles...)
			if d.Kind == client.Redirect {
				c.printf("%s %s\n", d.Kind, d.To)
			} else {
				c.printf("%s\n", d.Kind)
			}
		case "status":
			c.printf("idle: %s, remaining %s\n", idle.State(), idle.Remaining().Round(time.Second))
		case "continue":
			idle.Continue()
		case "quit", "exit":
			return nil
		default:
			c.printf("unknown command %q; type help\n", fields[0])
		}
	}
}
