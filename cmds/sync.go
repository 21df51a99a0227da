package cmds

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/hayasui/pixiv-bookmark-mirror/api/pixiv"
	"github.com/hayasui/pixiv-bookmark-mirror/configs"
	"github.com/hayasui/pixiv-bookmark-mirror/database"
	"github.com/hayasui/pixiv-bookmark-mirror/download"
	"github.com/hayasui/pixiv-bookmark-mirror/exif"
	"github.com/hayasui/pixiv-bookmark-mirror/pipeline"
	"github.com/hayasui/pixiv-bookmark-mirror/spinner"
	"github.com/hayasui/pixiv-bookmark-mirror/transcode"
)

var (
	syncUserId        string
	syncCookieFile    string
	syncProxy         string
	syncRawDir        string
	syncCompressedDir string
	syncDbPath        string
	syncVerbose       bool

	syncCmd = &cobra.Command{
		Use:   "sync",
		Short: "Run one incremental sync of the target user's bookmarks.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync()
		},
	}
)

func init() {
	syncCmd.Flags().StringVar(&syncUserId, "user", "", "Numeric Pixiv user ID whose bookmarks to mirror.")
	syncCmd.Flags().StringVar(&syncCookieFile, "cookie-file", "", "Path to a file with the Pixiv session cookie header.")
	syncCmd.Flags().StringVar(&syncProxy, "proxy", "", "Proxy URL for all remote traffic, e.g. http://127.0.0.1:7890")
	syncCmd.Flags().StringVar(&syncRawDir, "raw-dir", "", "Directory for the downloaded originals.")
	syncCmd.Flags().StringVar(&syncCompressedDir, "compressed-dir", "", "Directory for the transcoded copies.")
	syncCmd.Flags().StringVar(&syncDbPath, "db", "", "Path to the mirror database.")
	syncCmd.Flags().BoolVarP(&syncVerbose, "verbose", "v", false, "Log every processed artwork instead of just warnings.")
	RootCmd.AddCommand(syncCmd)
}

func newLogger(verbose bool) (*zap.SugaredLogger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.OutputPaths = []string{"stderr"}
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	} else {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	}

	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.Sugar(), nil
}

func buildConfig() *configs.Config {
	cfg := configs.NewConfig()
	if syncUserId != "" {
		cfg.TargetUserID = syncUserId
	}
	if syncCookieFile != "" {
		cfg.CookieFile = syncCookieFile
	}
	if syncProxy != "" {
		cfg.Proxy = syncProxy
	}
	if syncRawDir != "" {
		cfg.RawDir = syncRawDir
	}
	if syncCompressedDir != "" {
		cfg.CompressedDir = syncCompressedDir
	}
	if syncDbPath != "" {
		cfg.DatabasePath = syncDbPath
	}
	return cfg
}

func runSync() error {
	cfg := buildConfig()
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := newLogger(syncVerbose)
	if err != nil {
		return err
	}
	defer logger.Sync()

	cookies, err := cfg.LoadSessionCookies()
	if err != nil {
		return fmt.Errorf("failed to load session cookies: %w", err)
	}
	if len(cookies) == 0 {
		color.Yellow("No session cookies loaded, access-restricted bookmarks will fail.")
	}

	if dir := filepath.Dir(cfg.DatabasePath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	store, err := database.NewStore(cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer store.Close()

	tagPool, err := exif.NewPool(cfg.ExiftoolPath, cfg.TagWorkers, logger)
	if err != nil {
		return err
	}
	defer tagPool.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	run := pipeline.New(
		cfg,
		store,
		pixiv.NewClient(cfg, cookies, logger),
		download.NewAgent(cfg, cookies, logger),
		transcode.Codec{},
		tagPool,
		logger,
	)

	progress := spinner.New("cyan", "Syncing bookmarks...")
	progress.SuccessMsg = "Sync finished"
	progress.ErrMsg = "Sync failed"
	run.OnArtworkDone = progress.MsgIncrement
	progress.Start()

	stats, err := run.Run(ctx)
	progress.Stop(err != nil)
	if err != nil {
		return err
	}

	color.Green("New bookmarks:      %d", stats.NewBookmarks)
	color.Green("Artworks mirrored:  %d", stats.ArtworksMirrored)
	color.Green("Images mirrored:    %d", stats.ImagesMirrored)
	color.Green("Images tagged:      %d", stats.ImagesTagged)
	color.Green("Tombstones:         %d", stats.Tombstones)
	if stats.ArtworksFailed > 0 || stats.ImagesFailed > 0 || stats.TaggingFailed > 0 {
		color.Yellow(
			"Failures: %d artworks, %d images, %d taggings (will be retried next run)",
			stats.ArtworksFailed,
			stats.ImagesFailed,
			stats.TaggingFailed,
		)
	}
	return nil
}
