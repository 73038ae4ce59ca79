package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/storywalk/storywalk/internal/netwatch"
	"github.com/storywalk/storywalk/internal/term"
	"github.com/storywalk/storywalk/pkg/capture"
	"github.com/storywalk/storywalk/pkg/location"
	"github.com/storywalk/storywalk/pkg/nav"
	"github.com/storywalk/storywalk/pkg/stories"
)

// browseCmd represents the browse command
var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse stories interactively",
	Long: `Starts an interactive session. Type a route (home, add-story, login)
to navigate, or a route's command to act on it. Type help for commands,
quit to exit.`,
	Run: func(cmd *cobra.Command, args []string) {
		sess, kv := openSession()
		defer kv.Close()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		client := newAPIClient()
		textMap := &term.TextMap{Out: os.Stdout}
		selector := location.NewSelector(term.ConfigGeolocator{}, textMap)
		controller := capture.NewController(term.NoCamera{})
		syncer := &stories.Syncer{API: client, Session: sess}

		// Stdin is read on its own goroutine; lines and reachability
		// transitions are both drained by the loop below, so every
		// handler runs here and app state needs no locking.
		lines := make(chan string)
		go func() {
			defer close(lines)
			in := bufio.NewReader(os.Stdin)
			for {
				line, err := in.ReadString('\n')
				if err != nil {
					return
				}
				lines <- line
			}
		}()
		readLine := func() (string, bool) {
			line, ok := <-lines
			return line, ok
		}

		navigator := nav.New(nav.Config{
			Session:  sess,
			API:      client,
			Capture:  controller,
			Selector: selector,
			Syncer:   syncer,
			Renderer: &term.Renderer{Out: os.Stdout},
			Location: term.NewLocation(kv),
			Confirm:  term.Confirm(readLine, os.Stdout),
		})

		watcher := &netwatch.Watcher{
			Probe: netwatch.ProbeURL(nil, viper.GetString("api.base_url")),
		}
		events := watcher.Watch(ctx)

		navigator.Start(ctx)

		for {
			fmt.Print("> ")
			select {
			case up, ok := <-events:
				if !ok {
					events = nil
					continue
				}
				if up {
					navigator.Notices().Post("success", "Connection restored.")
					syncer.Refresh()
				} else {
					navigator.Notices().Post("warning", "No connection. Some features may be unavailable.")
				}
			case line, ok := <-lines:
				if !ok {
					return
				}
				fields := strings.Fields(line)
				if len(fields) == 0 {
					continue
				}

				switch fields[0] {
				case "quit", "exit":
					return
				case "help":
					fmt.Println("Routes: home, add-story, login. Events:", strings.Join(navigator.Bindings(), ", "))
					continue
				case "home", "add-story", "login":
					// Route tokens funnel through the fragment, the same
					// path a typed address or back/forward takes.
					navigator.Navigate(ctx, nav.ParseRoute(fields[0]))
					continue
				}

				if err := navigator.Dispatch(ctx, fields[0], fields[1:]...); err != nil {
					fmt.Println("error:", err)
				}
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(browseCmd)
}
