package cmd

import (
	"github.com/spf13/cobra"

	"github.com/storywalk/storywalk/internal/utils"
	"github.com/storywalk/storywalk/pkg/session"
)

// loginCmd represents the login command
var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in and persist the session",
	Run: func(cmd *cobra.Command, args []string) {
		email, _ := cmd.Flags().GetString("email")
		password, _ := cmd.Flags().GetString("password")

		if email == "" || password == "" {
			utils.Log.Fatal("Please provide --email and --password")
		}

		sess, kv := openSession()
		defer kv.Close()

		auth, err := newAPIClient().Login(email, password)
		if err != nil {
			utils.Log.Fatalf("Login failed: %v", err)
		}
		if err := sess.SetAuth(auth.Token, session.User{Name: auth.Name, UserID: auth.UserID}); err != nil {
			utils.Log.Fatalf("Persisting session: %v", err)
		}
		utils.Log.Infof("Logged in as %s", auth.Name)
	},
}

// logoutCmd represents the logout command
var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Clear the persisted session",
	Run: func(cmd *cobra.Command, args []string) {
		sess, kv := openSession()
		defer kv.Close()

		if !sess.IsLoggedIn() {
			utils.Log.Info("Not logged in")
			return
		}
		if err := sess.ClearAuth(); err != nil {
			utils.Log.Fatalf("Clearing session: %v", err)
		}
		utils.Log.Info("Logged out")
	},
}

func init() {
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)

	loginCmd.Flags().StringP("email", "e", "", "Account email")
	loginCmd.Flags().StringP("password", "p", "", "Account password")
}
