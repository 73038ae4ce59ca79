package cmd

import (
	"net/url"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/storywalk/storywalk/internal/server"
	"github.com/storywalk/storywalk/internal/utils"
	"github.com/storywalk/storywalk/pkg/offline"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the cached application shell locally",
	Long: `Serves the application shell over HTTP, answering from the offline
cache first so the shell keeps working without a connection.`,
	Run: func(cmd *cobra.Command, args []string) {
		addr, _ := cmd.Flags().GetString("addr")

		shellBase := viper.GetString("shell.base_url")
		if shellBase == "" {
			utils.Log.Fatal("Set shell.base_url in the config first")
		}
		origin, err := url.Parse(shellBase)
		if err != nil {
			utils.Log.Fatalf("Bad shell.base_url: %v", err)
		}

		store := offline.Open(cacheDir(), offline.CacheName)
		if err := server.New(store, origin).Start(addr); err != nil {
			utils.Log.Fatal(err)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("addr", "a", "127.0.0.1:8787", "Listen address")
}
