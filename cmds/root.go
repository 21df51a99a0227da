package cmds

import (
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/hayasui/pixiv-bookmark-mirror/utils"
)

var RootCmd = &cobra.Command{
	Use:     "pixiv-bookmark-mirror",
	Version: utils.VERSION,
	Short:   "Incrementally mirror a Pixiv user's bookmarks to local storage.",
	Long: "pixiv-bookmark-mirror keeps a local mirror of a Pixiv user's bookmarked artworks:\n" +
		"each run diffs the remote bookmark listing against the local database and downloads\n" +
		"only what is new, producing tagged, browsable copies of every image.",
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		color.Red(err.Error())
		os.Exit(1)
	}
}
