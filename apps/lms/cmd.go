package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/aliqadomi777/front-end-lms/core"
	"github.com/aliqadomi777/front-end-lms/core/nav"
	"github.com/aliqadomi777/front-end-lms/core/session"
	"github.com/aliqadomi777/front-end-lms/core/user"
	"github.com/aliqadomi777/front-end-lms/services/lmsapi"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp        = errors.New("help provided")
	errNotLoggedIn = errors.New("not logged in, run `lms login` first")
	errWrongRole   = errors.New("not available to your role")
)

type commandLine struct {
	store      *session.Store
	client     *lmsapi.Client
	logger     core.Logger
	validate   *validator.Validate
	translator ut.Translator
}

func newCommandLine(store *session.Store, client *lmsapi.Client, logger core.Logger) *commandLine {
	validate, translator := user.NewValidator()
	client.SetAuth(store)
	return &commandLine{
		store:      store,
		client:     client,
		logger:     logger,
		validate:   validate,
		translator: translator,
	}
}

func (cli *commandLine) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "lms",
		Short:         "Sign in to the LMS and browse it by role",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return cli.initialize(cmd.Context())
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			_ = cmd.Help()
			return errHelp
		},
	}
	root.AddCommand(
		cli.loginCmd(),
		cli.registerCmd(),
		cli.forgotPasswordCmd(),
		cli.resetPasswordCmd(),
		cli.logoutCmd(),
		cli.whoamiCmd(),
		cli.menuCmd(),
		cli.openCmd(),
		cli.oauthCallbackCmd(),
		cli.coursesCmd(),
		cli.enrollmentsCmd(),
		cli.wishlistCmd(),
	)
	return root
}

// initialize restores the persisted session before any command runs.
func (cli *commandLine) initialize(ctx context.Context) error {
	if err := cli.store.Initialize(ctx); err != nil && err != session.ErrAlreadyInitialized {
		return errors.Wrap(err, "restoring session")
	}
	cli.logger.Debug("lms: session ready", "status", cli.store.Snapshot().Status.String())
	return nil
}

func (cli *commandLine) loginCmd() *cobra.Command {
	var form user.LoginForm
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with email and password",
		Long: `Sign in with email and password. The password is prompted for when --password is not given.

Examples:
  lms login --email student@lms.local
  lms login --email student@lms.local --password student123`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if form.Email == "" {
				_ = cmd.Usage()
				return errHelp
			}
			if form.Password == "" {
				pwd, err := promptPassword(cmd, "Enter password:")
				if err != nil {
					return err
				}
				form.Password = pwd
			}
			if err := form.Validate(cli.validate, cli.translator); err != nil {
				return err
			}

			res, err := cli.store.Login(cmd.Context(), form.Email, form.Password)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Logged in as %s (%s)\n", res.User.Name, res.User.Role)
			fmt.Fprintf(out, "Dashboard: %s\n", nav.DashboardPath(res.User.Role))
			return nil
		},
	}
	cmd.Flags().StringVar(&form.Email, "email", "", "account email")
	cmd.Flags().StringVar(&form.Password, "password", "", "account password (prompted when empty)")
	return cmd
}

func (cli *commandLine) registerCmd() *cobra.Command {
	var (
		form user.RegisterForm
		role string
	)
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a student or instructor account",
		Long: `Create a student or instructor account. The password is prompted for twice when --password is not given.

Examples:
  lms register --name "Jo Doe" --email jo@lms.local
  lms register --name "Jo Doe" --email jo@lms.local --role instructor`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if form.Email == "" || form.Name == "" {
				_ = cmd.Usage()
				return errHelp
			}
			form.Role = user.Role(role)
			if form.Password == "" {
				pwd, err := promptNewPassword(cmd, "password")
				if err != nil {
					return err
				}
				form.Password = pwd
			}
			if err := form.Validate(cli.validate, cli.translator); err != nil {
				return err
			}

			usr, err := cli.client.Register(cmd.Context(), form)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registered %s (%s). Run `lms login --email %s` to sign in.\n", usr.Name, usr.Role, usr.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&form.Name, "name", "", "full name")
	cmd.Flags().StringVar(&form.Email, "email", "", "account email")
	cmd.Flags().StringVar(&role, "role", string(user.RoleStudent), "student or instructor")
	cmd.Flags().StringVar(&form.Password, "password", "", "account password (prompted when empty)")
	return cmd
}

func (cli *commandLine) forgotPasswordCmd() *cobra.Command {
	var form user.ForgotPasswordForm
	cmd := &cobra.Command{
		Use:   "forgot-password",
		Short: "Mail yourself a password reset link",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := form.Validate(cli.validate, cli.translator); err != nil {
				return err
			}
			msg, err := cli.client.ForgotPassword(cmd.Context(), form.Email)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), msg)
			return nil
		},
	}
	cmd.Flags().StringVar(&form.Email, "email", "", "account email")
	return cmd
}

func (cli *commandLine) resetPasswordCmd() *cobra.Command {
	var form user.ResetPasswordForm
	cmd := &cobra.Command{
		Use:   "reset-password",
		Short: "Choose a new password with the token from a reset link",
		Long: `Choose a new password with the email and token from a reset link.
The new password is prompted for twice when --password is not given.

Examples:
  lms reset-password --email student@lms.local --token TOKEN`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if form.Email == "" || form.Token == "" {
				_ = cmd.Usage()
				return errHelp
			}
			if form.NewPassword == "" {
				pwd, err := promptPassword(cmd, "Enter new password:")
				if err != nil {
					return err
				}
				confirm, err := promptPassword(cmd, "Confirm new password:")
				if err != nil {
					return err
				}
				form.NewPassword, form.ConfirmPassword = pwd, confirm
			}
			if err := form.Validate(cli.validate, cli.translator); err != nil {
				return err
			}

			msg, err := cli.client.ResetPassword(cmd.Context(), form.Email, form.Token, form.NewPassword)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), msg)
			return nil
		},
	}
	cmd.Flags().StringVar(&form.Email, "email", "", "account email")
	cmd.Flags().StringVar(&form.Token, "token", "", "token from the reset link")
	cmd.Flags().StringVar(&form.NewPassword, "password", "", "new password (prompted when empty)")
	return cmd
}

func (cli *commandLine) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := cli.store.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
			return nil
		},
	}
}

func (cli *commandLine) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			snap := cli.store.Snapshot()
			out := cmd.OutOrStdout()
			if !snap.Authenticated() {
				fmt.Fprintln(out, "Not logged in.")
				return nil
			}
			fmt.Fprintf(out, "Name:  %s\n", snap.User.Name)
			fmt.Fprintf(out, "Email: %s\n", snap.User.Email)
			fmt.Fprintf(out, "Role:  %s\n", snap.Role)
			if exp, ok := session.TokenExpiry(snap.Token); ok {
				fmt.Fprintf(out, "Token expires: %s\n", exp.Local().Format("2006-01-02 15:04"))
			}
			return nil
		},
	}
}

func (cli *commandLine) menuCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "menu",
		Short: "List the navigation entries for the signed-in role",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			snap := cli.store.Snapshot()
			if !snap.Authenticated() {
				return errNotLoggedIn
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			for _, e := range nav.Resolve(snap.Role) {
				fmt.Fprintf(w, "%s\t%s\n", e.Label, e.Path)
			}
			return w.Flush()
		},
	}
}

func (cli *commandLine) openCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "open PATH",
		Short: "Show where the router sends PATH for the current session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d := nav.Guard(cli.store.Snapshot(), args[0])
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", d.Action, d.Target)
			return nil
		},
	}
}

func (cli *commandLine) oauthCallbackCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "oauth-callback URL",
		Short: "Finish a Google sign-in from the callback URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			token, err := session.OAuthToken(args[0])
			if err != nil {
				return err
			}
			usr, err := cli.client.Me(ctx, token)
			if err != nil {
				return errors.Wrap(err, "Google login failed")
			}
			if err := cli.store.SetSession(ctx, usr, token); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Logged in as %s (%s)\n", usr.Name, usr.Role)
			fmt.Fprintf(out, "Dashboard: %s\n", nav.DashboardPath(usr.Role))
			return nil
		},
	}
}

func (cli *commandLine) coursesCmd() *cobra.Command {
	var page, limit int
	cmd := &cobra.Command{
		Use:   "courses",
		Short: "List published courses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			courses, pg, err := cli.client.ListCourses(cmd.Context(), page, limit)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			for _, c := range courses {
				fmt.Fprintf(w, "%d\t%s\t%s\n", c.ID, c.Title, c.Category)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			printPagination(cmd.OutOrStdout(), pg)
			return nil
		},
	}
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().IntVar(&limit, "limit", 10, "page size")
	return cmd
}

func (cli *commandLine) enrollmentsCmd() *cobra.Command {
	var page, limit int
	cmd := &cobra.Command{
		Use:   "enrollments",
		Short: "List your enrollments (students)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := cli.require("/student/courses"); err != nil {
				return err
			}
			enrollments, pg, err := cli.client.MyEnrollments(cmd.Context(), page, limit)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			for _, e := range enrollments {
				title := ""
				if e.Course != nil {
					title = e.Course.Title
				}
				fmt.Fprintf(w, "%d\t%s\t%.0f%%\n", e.CourseID, title, e.Progress*100)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			printPagination(cmd.OutOrStdout(), pg)
			return nil
		},
	}
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().IntVar(&limit, "limit", 10, "page size")
	return cmd
}

func (cli *commandLine) wishlistCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "wishlist",
		Short: "List your wishlist (students)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := cli.require("/student/wishlist"); err != nil {
				return err
			}
			items, err := cli.client.Wishlist(cmd.Context())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			for _, it := range items {
				title := ""
				if it.Course != nil {
					title = it.Course.Title
				}
				fmt.Fprintf(w, "%d\t%s\n", it.CourseID, title)
			}
			return w.Flush()
		},
	}
}

// require fails unless the current session may mount page.
func (cli *commandLine) require(page string) error {
	d := nav.Guard(cli.store.Snapshot(), page)
	switch {
	case d.Action == nav.Mount:
		return nil
	case d.Action == nav.Redirect && d.Target == nav.LoginPath:
		return errNotLoggedIn
	}
	return errors.Wrap(errWrongRole, page)
}

func promptPassword(cmd *cobra.Command, label string) (string, error) {
	fmt.Fprint(cmd.OutOrStdout(), label)
	pwd, err := readPasswordFunc(int(os.Stdin.Fd()))
	fmt.Fprintln(cmd.OutOrStdout())
	if err != nil {
		return "", errors.Wrap(err, "reading password")
	}
	return string(pwd), nil
}

// promptNewPassword asks for a password twice and fails when the entries differ.
func promptNewPassword(cmd *cobra.Command, field string) (string, error) {
	pwd, err := promptPassword(cmd, "Enter password:")
	if err != nil {
		return "", err
	}
	confirm, err := promptPassword(cmd, "Confirm password:")
	if err != nil {
		return "", err
	}
	if pwd != confirm {
		return "", core.NewValidationError(nil, core.FieldError{Field: field, Error: "Passwords must match"})
	}
	return pwd, nil
}

func printPagination(w io.Writer, pg lmsapi.Pagination) {
	if pg.TotalPages > 0 {
		fmt.Fprintf(w, "page %d/%d (%d total)\n", pg.Page, pg.TotalPages, pg.Total)
	}
}
