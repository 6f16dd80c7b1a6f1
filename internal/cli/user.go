package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/gardengrid/pkg/identity"
	"github.com/matzehuels/gardengrid/pkg/session"
)

type credentials struct {
	email    string
	password string
}

// userCommand creates the user command and its subcommands.
func (c *CLI) userCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Sign up, log in and log out",
		Long: `Manage the account local commands act for.

Accounts live in the configured store. After signup or login, plan,
render and palette use that user's garden until you log out.`,
	}

	cmd.AddCommand(c.credentialsCommand("signup", "Create an account and log in", c.runSignUp))
	cmd.AddCommand(c.credentialsCommand("login", "Log in to an existing account", c.runLogIn))
	cmd.AddCommand(&cobra.Command{
		Use:   "logout",
		Short: "Forget the saved login",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runLogOut(cmd.Context(), newPrinter(cmd.OutOrStdout()))
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "whoami",
		Short: "Show the saved login",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runWhoAmI(cmd.Context(), newPrinter(cmd.OutOrStdout()))
		},
	})
	return cmd
}

func (c *CLI) credentialsCommand(use, short string, run func(context.Context, printer, credentials) error) *cobra.Command {
	var creds credentials
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if creds.password == "" {
				pw, err := readPassword(cmd.InOrStdin(), cmd.ErrOrStderr())
				if err != nil {
					return err
				}
				creds.password = pw
			}
			return run(cmd.Context(), newPrinter(cmd.OutOrStdout()), creds)
		},
	}
	cmd.Flags().StringVar(&creds.email, "email", "", "account email")
	cmd.Flags().StringVar(&creds.password, "password", "", "account password (read from stdin when omitted)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

// readPassword reads one line from r after printing a prompt to w.
func readPassword(r io.Reader, w io.Writer) (string, error) {
	fmt.Fprint(w, "Password: ")
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (c *CLI) runSignUp(ctx context.Context, out printer, creds credentials) error {
	return c.withIdentity(ctx, func(ids *identity.Service) error {
		u, err := ids.SignUp(ctx, creds.email, creds.password)
		if err != nil {
			return userError(err)
		}
		if err := c.saveLogin(ctx, ids, u); err != nil {
			return err
		}
		out.success("Signed up as %s", u.Email)
		out.hint("Start planning", "gardengrid plan")
		return nil
	})
}

func (c *CLI) runLogIn(ctx context.Context, out printer, creds credentials) error {
	return c.withIdentity(ctx, func(ids *identity.Service) error {
		u, err := ids.LogIn(ctx, creds.email, creds.password)
		if err != nil {
			return userError(err)
		}
		if err := c.saveLogin(ctx, ids, u); err != nil {
			return err
		}
		out.success("Logged in as %s", u.Email)
		return nil
	})
}

func (c *CLI) runLogOut(ctx context.Context, out printer) error {
	store, err := session.NewCLIStore(c.cfg.Session.Dir)
	if err != nil {
		return err
	}
	sess, err := store.GetSession(ctx)
	if err != nil {
		return err
	}
	if sess == nil {
		out.info("Not logged in")
		return nil
	}
	if err := store.DeleteSession(ctx); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	out.success("Logged out %s", sess.Email)
	return nil
}

func (c *CLI) runWhoAmI(ctx context.Context, out printer) error {
	store, err := session.NewCLIStore(c.cfg.Session.Dir)
	if err != nil {
		return err
	}
	sess, err := store.GetSession(ctx)
	if err != nil {
		return err
	}
	if sess == nil {
		out.info("Not logged in; local commands use the %q garden", session.LocalUserID)
		return nil
	}
	out.field("Email", sess.Email)
	out.field("User", sess.UserID)
	out.field("Expires", sess.ExpiresAt.Local().Format(time.RFC822))
	out.detail("Session file: %s", store.Path())
	return nil
}

// withIdentity runs fn with an identity service over the local store.
func (c *CLI) withIdentity(ctx context.Context, fn func(*identity.Service) error) error {
	store, err := c.openLocalStore(ctx)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer store.Close()

	secret, err := authSecret(c.cfg.Auth.Secret)
	if err != nil {
		return err
	}
	ids, err := identity.New(store, identity.Config{
		Secret:   secret,
		Issuer:   c.cfg.Auth.Issuer,
		TokenTTL: c.cfg.Auth.TokenTTL,
		Cost:     c.cfg.Auth.BcryptCost,
	})
	if err != nil {
		return err
	}
	return fn(ids)
}

// saveLogin issues a token for u and stores it as the CLI session.
func (c *CLI) saveLogin(ctx context.Context, ids *identity.Service, u identity.User) error {
	token, _, err := ids.Issue(u)
	if err != nil {
		return err
	}
	sess, err := session.New(u.ID, u.Email, token, c.cfg.Session.TTL)
	if err != nil {
		return err
	}
	store, err := session.NewCLIStore(c.cfg.Session.Dir)
	if err != nil {
		return err
	}
	if err := store.SaveSession(ctx, sess); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	loggerFromContext(ctx).Debug("saved login", "path", store.Path())
	return nil
}
