package main

import (
	"errors"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/spec-kit/todo-auth/internal/api/dto"
	"github.com/spec-kit/todo-auth/internal/client"
	"github.com/spec-kit/todo-auth/internal/domain"
)

func registerCmd() *cobra.Command {
	var name, email string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newCLI(cmd)
			if err != nil {
				return err
			}
			if email == "" {
				if email, err = promptLine(c.in, c.out, "Email: "); err != nil {
					return err
				}
			}
			password, err := promptPassword(c.in, c.out, "Password: ")
			if err != nil {
				return err
			}
			confirm, err := promptPassword(c.in, c.out, "Confirm password: ")
			if err != nil {
				return err
			}

			sess, err := c.session.Register(cmd.Context(), dto.UserRegisterRequest{
				Name: name, Email: email, Password: password, ConfirmPassword: confirm,
			})
			if err != nil {
				return c.explain(err)
			}
			if err := c.persist(); err != nil {
				return err
			}
			c.printSession(sess)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Display name")
	cmd.Flags().StringVar(&email, "email", "", "Email address")
	return cmd
}

func loginCmd() *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newCLI(cmd)
			if err != nil {
				return err
			}
			if email == "" {
				if email, err = promptLine(c.in, c.out, "Email: "); err != nil {
					return err
				}
			}
			password, err := promptPassword(c.in, c.out, "Password: ")
			if err != nil {
				return err
			}

			sess, err := c.session.Login(cmd.Context(), email, password)
			if err != nil {
				return c.explain(err)
			}
			if err := c.persist(); err != nil {
				return err
			}
			c.printSession(sess)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Email address")
	return cmd
}

func whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the current session",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newCLI(cmd)
			if err != nil {
				return err
			}
			if err := c.session.Load(cmd.Context()); err != nil {
				return c.explain(err)
			}
			sess := c.session.State().Session
			if sess == nil {
				c.printf("Not logged in.\n")
				return nil
			}
			c.printSession(sess)
			return nil
		},
	}
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out of this device",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newCLI(cmd)
			if err != nil {
				return err
			}
			// Failures are reported by the notifier; the local token goes regardless.
			_ = c.session.LogOut(cmd.Context())
			return c.tokens.Remove()
		},
	}
}

func (c *cli) printSession(sess *domain.Session) {
	c.printf("id:      %s\nrole:    %s\nexpires: %s\n", sess.ID, sess.Role,
		time.Unix(sess.ExpiresAt, 0).Local().Format(time.RFC1123))
}

// explain prints field errors and turns API errors into a one-line message.
func (c *cli) explain(err error) error {
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) {
		return err
	}
	fields := make([]string, 0, len(apiErr.FormErrors))
	for field := range apiErr.FormErrors {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	for _, field := range fields {
		c.printf("  %s: %s\n", field, apiErr.FormErrors[field])
	}
	return errors.New(apiErr.Message)
}
