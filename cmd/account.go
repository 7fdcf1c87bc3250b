package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/s0up4200/marquee/backend"
)

var (
	email    string
	password string
	username string
)

// registerCmd represents the register command
var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account and sign in",
	Args:  cobra.NoArgs,
	RunE:  runRegister,
}

// loginCmd represents the login command
var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in with email and password",
	Args:  cobra.NoArgs,
	RunE:  runLogin,
}

// logoutCmd represents the logout command
var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out of the current session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := service.SignOut(cmd.Context()); err != nil {
			return fmt.Errorf("failed to sign out: %w", err)
		}
		sessionState.Refetch(cmd.Context())
		fmt.Println("✓ Signed out")
		return nil
	},
}

// whoamiCmd represents the whoami command
var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		snap := sessionState.Refetch(cmd.Context())
		return emit(snap, func() {
			if !snap.LoggedIn {
				fmt.Println("Not signed in.")
				return
			}
			fmt.Printf("Signed in as %s <%s>\n", snap.User.Username, snap.User.Email)
			fmt.Printf("Avatar: %s\n", snap.User.Avatar)
		})
	},
}

func init() {
	for _, c := range []*cobra.Command{registerCmd, loginCmd} {
		c.Flags().StringVar(&email, "email", "", "account email")
		c.Flags().StringVar(&password, "password", "", "account password (prompted when empty)")
	}
	registerCmd.Flags().StringVar(&username, "username", "", "display name")

	rootCmd.AddCommand(registerCmd, loginCmd, logoutCmd, whoamiCmd)
}

// prompt asks for value on stdin when it is empty
func prompt(reader *bufio.Reader, label, value string) (string, error) {
	if value != "" {
		return value, nil
	}
	fmt.Printf("%s: ", label)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("failed to read %s: %w", strings.ToLower(label), err)
	}
	return strings.TrimSpace(line), nil
}

func credentials(withUsername bool) (string, string, string, error) {
	reader := bufio.NewReader(os.Stdin)

	e, err := prompt(reader, "Email", email)
	if err != nil {
		return "", "", "", err
	}
	var u string
	if withUsername {
		if u, err = prompt(reader, "Username", username); err != nil {
			return "", "", "", err
		}
	}
	p, err := prompt(reader, "Password", password)
	if err != nil {
		return "", "", "", err
	}
	return e, p, u, nil
}

func describeAuthError(err error) error {
	var authErr *backend.AuthError
	if !errors.As(err, &authErr) {
		return err
	}
	switch authErr.Kind {
	case backend.AuthDuplicateAccount:
		return fmt.Errorf("an account with this email already exists: %w", err)
	case backend.AuthInvalidCredentials:
		return fmt.Errorf("invalid email or password: %w", err)
	case backend.AuthValidation:
		return fmt.Errorf("rejected by the server: %w", err)
	default:
		return err
	}
}

func runRegister(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	e, p, u, err := credentials(true)
	if err != nil {
		return err
	}

	user, err := service.Register(ctx, e, p, u)
	if err != nil {
		return describeAuthError(err)
	}
	sessionState.Refetch(ctx)

	logger.Info().Str("user", user.ID).Msg("Account created")
	fmt.Printf("✓ Welcome, %s! You are signed in.\n", user.Username)
	return nil
}

func runLogin(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	e, p, _, err := credentials(false)
	if err != nil {
		return err
	}

	if _, err := service.SignIn(ctx, e, p); err != nil {
		return describeAuthError(err)
	}

	snap := sessionState.Refetch(ctx)
	if !snap.LoggedIn {
		return fmt.Errorf("signed in but the account could not be loaded")
	}
	fmt.Printf("✓ Signed in as %s\n", snap.User.Username)
	return nil
}
