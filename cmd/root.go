package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	homedir "github.com/mitchellh/go-homedir"

	"github.com/storywalk/storywalk/internal/utils"
	"github.com/storywalk/storywalk/pkg/api"
	"github.com/storywalk/storywalk/pkg/session"
	"github.com/storywalk/storywalk/pkg/whttp"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "storywalk",
	Short: "A terminal client for sharing and browsing geotagged stories.",
	Long: `storywalk lets you browse community stories, log in, and share a new
story with a photo and an optional location, right from your terminal.
It keeps working intermittently offline through an installed asset cache.`,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.storywalk.yaml)")

	// Global flags
	rootCmd.PersistentFlags().StringP("proxy", "", "", "HTTP Proxy (Useful for debugging. Example: http://127.0.0.1:8080)")
	rootCmd.PersistentFlags().StringP("loglevel", "l", "info", "Set log level. Available: debug, info, warn, error, fatal")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		viper.AddConfigPath(home)
		viper.SetConfigName(".storywalk")
		viper.SetConfigType("yaml")
	}

	viper.AutomaticEnv()

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; create it with defaults.
			home, _ := homedir.Dir()
			configPath := filepath.Join(home, ".storywalk.yaml")
			if err := viper.SafeWriteConfigAs(configPath); err != nil {
				fmt.Printf("Error creating config file: %s", err)
			}
		}
	}

	// Set default empty values for all keys
	viper.SetDefault("api.base_url", api.DefaultBaseURL)
	viper.SetDefault("shell.base_url", "")
	viper.SetDefault("session.db", "")
	viper.SetDefault("cache.dir", "")

	// Init log library
	levelString, _ := rootCmd.PersistentFlags().GetString("loglevel")
	utils.SetLogLevel(levelString)

	if proxy, _ := rootCmd.PersistentFlags().GetString("proxy"); proxy != "" {
		whttp.SetupProxy(proxy)
	}
}

func newAPIClient() *api.Client {
	return api.NewClient(viper.GetString("api.base_url"))
}

func sessionDBPath() string {
	if path := viper.GetString("session.db"); path != "" {
		return path
	}
	home, err := homedir.Dir()
	if err != nil {
		utils.Log.Fatal(err)
	}
	return filepath.Join(home, ".storywalk.sqlite")
}

func cacheDir() string {
	if dir := viper.GetString("cache.dir"); dir != "" {
		return dir
	}
	home, err := homedir.Dir()
	if err != nil {
		utils.Log.Fatal(err)
	}
	return filepath.Join(home, ".storywalk-cache")
}

// openSession opens the persistent key/value area and rehydrates the
// session from it. The caller owns closing the returned KV.
func openSession() (*session.Store, *session.SQLiteKV) {
	kv, err := session.OpenKV(sessionDBPath())
	if err != nil {
		utils.Log.Fatalf("opening session store: %v", err)
	}
	return session.Open(kv), kv
}
