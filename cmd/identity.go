package cmd

import (
	"errors"
	"fmt"

	"github.com/devnotmax/studify/internal/domain"
	"github.com/spf13/cobra"
)

var (
	loginUser  string
	loginToken string
	loginName  string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in",
	Long: `Sign in as a user. With the remote backend, --token is the bearer
token issued by the server. Any local session state of the previous user
is discarded and the new user's active session is picked up.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		id := domain.Identity{UserID: loginUser, Token: loginToken, Name: loginName}
		if err := app.identity.Login(cmd.Context(), id); err != nil {
			return err
		}

		name := loginName
		if name == "" {
			name = loginUser
		}
		fmt.Fprintf(cmd.OutOrStdout(), "👋 Signed in as %s\n", name)
		if snap := app.controller.Snapshot(); snap.Session != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "   Active %s session, %s remaining\n", snap.Session.Kind.Label(), snap.Clock())
		}
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := app.identity.Logout(cmd.Context()); err != nil && !isSignedOut(err) {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user",
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := app.identity.Current(cmd.Context())
		if err != nil {
			return err
		}

		if jsonOutput {
			return writeJSON(cmd.OutOrStdout(), map[string]interface{}{
				"user_id":   id.UserID,
				"name":      id.Name,
				"signed_in": !id.Anonymous(),
				"backend":   app.config.Backend,
			})
		}
		if id.Anonymous() {
			fmt.Fprintf(cmd.OutOrStdout(), "Not signed in (%s backend).\n", app.config.Backend)
			return nil
		}
		label := id.UserID
		if id.Name != "" {
			label = fmt.Sprintf("%s (%s)", id.Name, id.UserID)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s on the %s backend\n", label, app.config.Backend)
		return nil
	},
}

func init() {
	loginCmd.Flags().StringVarP(&loginUser, "user", "u", "", "User id (required)")
	loginCmd.Flags().StringVarP(&loginToken, "token", "t", "", "Bearer token for the remote backend")
	loginCmd.Flags().StringVarP(&loginName, "name", "n", "", "Display name")
	_ = loginCmd.MarkFlagRequired("user")

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
}

// isSignedOut reports the expected failure of binding the anonymous
// identity to the remote backend.
func isSignedOut(err error) bool {
	return errors.Is(err, domain.ErrNotAuthenticated)
}
