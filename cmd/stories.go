package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/storywalk/storywalk/internal/utils"
	"github.com/storywalk/storywalk/pkg/stories"
)

// storiesCmd represents the stories command
var storiesCmd = &cobra.Command{
	Use:   "stories",
	Short: "List the current page of stories",
	Run: func(cmd *cobra.Command, args []string) {
		page, _ := cmd.Flags().GetInt("page")
		size, _ := cmd.Flags().GetInt("size")
		withLocation, _ := cmd.Flags().GetBool("with-location")

		sess, kv := openSession()
		defer kv.Close()

		syncer := &stories.Syncer{
			API:     newAPIClient(),
			Session: sess,
			Page:    page,
			Size:    size,
			Notify: func(level, text string) {
				utils.Log.Error(text)
			},
		}
		syncer.Refresh()

		if !sess.IsLoggedIn() {
			utils.Log.Fatal("You must log in first: storywalk login")
		}

		list := sess.Stories()
		if withLocation {
			list = sess.StoriesWithCoordinate()
		}
		if len(list) == 0 {
			fmt.Println("No stories.")
			return
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tDESCRIPTION\tLAT\tLON\tCREATED")
		for _, s := range list {
			lat, lon := "-", "-"
			if s.HasLocation {
				lat = fmt.Sprintf("%.6f", s.Lat)
				lon = fmt.Sprintf("%.6f", s.Lon)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", s.ID, s.Name, s.Description, lat, lon, s.CreatedAt)
		}
		w.Flush()
	},
}

// storyCmd represents the story detail command
var storyCmd = &cobra.Command{
	Use:   "story [id]",
	Short: "Show one story",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		sess, kv := openSession()
		defer kv.Close()

		if !sess.IsLoggedIn() {
			utils.Log.Fatal("You must log in first: storywalk login")
		}

		s, err := newAPIClient().StoryDetail(sess.Token(), args[0])
		if err != nil {
			utils.Log.Fatalf("Fetching story: %v", err)
		}
		fmt.Printf("%s (%s)\n%s\n", s.Name, s.CreatedAt, s.Description)
		if s.HasLocation {
			fmt.Printf("Location: %.6f, %.6f\n", s.Lat, s.Lon)
		}
		fmt.Printf("Photo: %s\n", s.PhotoURL)
	},
}

func init() {
	rootCmd.AddCommand(storiesCmd)
	rootCmd.AddCommand(storyCmd)

	storiesCmd.Flags().IntP("page", "", 1, "Page to fetch")
	storiesCmd.Flags().IntP("size", "", 20, "Stories per page")
	storiesCmd.Flags().BoolP("with-location", "", false, "Only stories carrying a coordinate")
}
