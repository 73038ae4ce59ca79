package cmd

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/storywalk/storywalk/internal/utils"
	"github.com/storywalk/storywalk/pkg/offline"
	"github.com/storywalk/storywalk/pkg/whttp"
)

// cacheCmd represents the cache command
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the offline asset cache",
}

// cacheInstallCmd seeds the current version's cache.
var cacheInstallCmd = &cobra.Command{
	Use:   "install",
	Short: "Download and cache the application shell assets",
	Run: func(cmd *cobra.Command, args []string) {
		shellBase := viper.GetString("shell.base_url")
		if shellBase == "" {
			utils.Log.Fatal("Set shell.base_url in the config first")
		}

		store := offline.Open(cacheDir(), offline.CacheName)
		manifest := offline.DefaultManifest(shellBase)

		discover, _ := cmd.Flags().GetBool("discover")
		if discover {
			page, err := url.Parse(strings.TrimRight(shellBase, "/") + "/index.html")
			if err != nil {
				utils.Log.Fatal(err)
			}
			res, err := whttp.SendHTTPRequest(&whttp.Request{Method: "GET", URL: page.String()}, nil)
			if err != nil {
				utils.Log.Fatalf("Fetching shell page: %v", err)
			}
			if res.HTMLTitle != "" {
				utils.Log.Infof("Discovered shell page %q", res.HTMLTitle)
			}
			manifest, err = offline.ManifestFromHTML(strings.NewReader(res.BodyString), page)
			if err != nil {
				utils.Log.Fatalf("Discovering assets: %v", err)
			}
		}

		if err := store.Install(manifest, nil); err != nil {
			utils.Log.Fatalf("Install failed: %v", err)
		}
		if err := store.Activate(); err != nil {
			utils.Log.Fatalf("Activate failed: %v", err)
		}
	},
}

// cacheActivateCmd prunes stale cache versions.
var cacheActivateCmd = &cobra.Command{
	Use:   "activate",
	Short: "Delete caches from older versions",
	Run: func(cmd *cobra.Command, args []string) {
		store := offline.Open(cacheDir(), offline.CacheName)
		if err := store.Activate(); err != nil {
			utils.Log.Fatalf("Activate failed: %v", err)
		}
		utils.Log.Infof("Cache %s is the only retained version", store.Name())
	},
}

// cacheStatusCmd lists cached assets.
var cacheStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show cached assets",
	Run: func(cmd *cobra.Command, args []string) {
		shellBase := viper.GetString("shell.base_url")
		store := offline.Open(cacheDir(), offline.CacheName)
		assets, err := store.Assets()
		if err != nil {
			utils.Log.Fatalf("Reading cache: %v", err)
		}
		if len(assets) == 0 {
			fmt.Println("Cache is empty. Run: storywalk cache install")
			return
		}
		fmt.Printf("Cache %s (%d assets):\n", store.Name(), len(assets))
		for _, asset := range assets {
			origin := "first-party"
			if shellBase != "" && offline.IsThirdParty(asset, shellBase) {
				origin = "third-party"
			}
			fmt.Printf("  %-11s %s\n", origin, asset)
		}
	},
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheInstallCmd)
	cacheCmd.AddCommand(cacheActivateCmd)
	cacheCmd.AddCommand(cacheStatusCmd)

	cacheInstallCmd.Flags().BoolP("discover", "", false, "Discover the asset list from the shell page instead of the fixed manifest")
}
