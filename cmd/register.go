package cmd

import (
	"github.com/spf13/cobra"

	"github.com/storywalk/storywalk/internal/utils"
)

// registerCmd represents the register command
var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create a new account",
	Run: func(cmd *cobra.Command, args []string) {
		name, _ := cmd.Flags().GetString("name")
		email, _ := cmd.Flags().GetString("email")
		password, _ := cmd.Flags().GetString("password")

		if name == "" || email == "" || password == "" {
			utils.Log.Fatal("Please provide --name, --email and --password")
		}
		if len(password) < 8 {
			utils.Log.Fatal("Password must be at least 8 characters")
		}

		if err := newAPIClient().Register(name, email, password); err != nil {
			utils.Log.Fatalf("Registration failed: %v", err)
		}
		utils.Log.Info("Registered! You can now log in with: storywalk login")
	},
}

func init() {
	rootCmd.AddCommand(registerCmd)

	registerCmd.Flags().StringP("name", "n", "", "Full name")
	registerCmd.Flags().StringP("email", "e", "", "Account email")
	registerCmd.Flags().StringP("password", "p", "", "Account password (min 8 characters)")
}
