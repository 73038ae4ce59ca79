package cmd

import (
	"context"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/storywalk/storywalk/internal/term"
	"github.com/storywalk/storywalk/internal/utils"
	"github.com/storywalk/storywalk/pkg/capture"
	"github.com/storywalk/storywalk/pkg/location"
	"github.com/storywalk/storywalk/pkg/stories"
)

// addCmd represents the add command
var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Share a new story",
	Long: `Shares a new story with a photo and an optional location. The photo
comes from --photo; the location from --lat/--lon, or from the configured
device position with --locate.`,
	Run: func(cmd *cobra.Command, args []string) {
		description, _ := cmd.Flags().GetString("description")
		photoPath, _ := cmd.Flags().GetString("photo")
		locate, _ := cmd.Flags().GetBool("locate")

		sess, kv := openSession()
		defer kv.Close()

		if !sess.IsLoggedIn() {
			utils.Log.Fatal("You must log in first: storywalk login")
		}
		if photoPath == "" {
			utils.Log.Fatal(stories.ErrPhotoMissing)
		}

		data, err := os.ReadFile(photoPath)
		if err != nil {
			utils.Log.Fatalf("Reading photo: %v", err)
		}
		controller := capture.NewController(term.NoCamera{})
		controller.SelectFile(filepath.Base(photoPath), data)

		selector := location.NewSelector(term.ConfigGeolocator{}, nil)
		if locate {
			if _, err := selector.UseCurrentPosition(context.Background()); err != nil {
				// Never fatal: the story can still be shared without a
				// coordinate.
				utils.Log.Warnf("Could not get location: %v", err)
			}
		}
		if cmd.Flags().Changed("lat") && cmd.Flags().Changed("lon") {
			lat, _ := cmd.Flags().GetFloat64("lat")
			lon, _ := cmd.Flags().GetFloat64("lon")
			selector.Select(location.Coordinate{Lat: lat, Lon: lon})
		}

		draft := stories.Draft{
			Description: description,
			Photo:       controller.CurrentPhoto(),
			Location:    selector.Selected(),
		}
		if err := stories.Submit(newAPIClient(), sess, draft); err != nil {
			utils.Log.Fatalf("Could not share story: %v", err)
		}

		controller.Reset()
		selector.Clear()
		utils.Log.Info("Story shared!")
	},
}

func init() {
	rootCmd.AddCommand(addCmd)

	addCmd.Flags().StringP("description", "d", "", "Story description (min 10 characters)")
	addCmd.Flags().StringP("photo", "", "", "Path to the photo file (max 1 MiB)")
	addCmd.Flags().Float64P("lat", "", 0, "Latitude")
	addCmd.Flags().Float64P("lon", "", 0, "Longitude")
	addCmd.Flags().BoolP("locate", "", false, "Use the configured device position")
}
