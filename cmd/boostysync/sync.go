package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"boostysync/pkg/auth"
	"boostysync/pkg/boosty"
	"boostysync/pkg/config"
	"boostysync/pkg/logger"
	"boostysync/pkg/syncer"
)

var (
	syncDir         string
	parallel        int
	downloadTimeout int
	storageType     string
	desiredPost     string
	accountName     string
	resumeRun       bool
	restartRun      bool
)

var syncCmd = &cobra.Command{
	Use:   "sync <creator>",
	Short: "Sync a creator's content to local disk",
	Long: `Sync walks the creator's content streams and downloads everything new
since the last run.

Two storage layouts are available:
  media  flat photos/videos/audios directories (default)
  post   one directory per post, with its text document and attachments

A run interrupted mid-stream leaves in-flight cursors behind; pass --resume
to continue from the exact page that was being processed, or --restart to
rescan the streams from the top.`,
	Example: `  # Mirror a creator's media albums
  boostysync sync somecreator

  # Per-post layout with attached files
  boostysync sync somecreator --storage-type post

  # Continue an interrupted run
  boostysync sync somecreator --resume

  # Sync a single post
  boostysync sync somecreator --storage-type post --post 1a2b3c`,
	Args: cobra.ExactArgs(1),
	RunE: runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)

	syncCmd.Flags().StringVarP(&syncDir, "sync-dir", "o", "", "base directory for synced content")
	syncCmd.Flags().IntVar(&parallel, "parallel", 0, "maximum parallel downloads")
	syncCmd.Flags().IntVar(&downloadTimeout, "download-timeout", 0, "per-file download timeout in seconds")
	syncCmd.Flags().StringVar(&storageType, "storage-type", "", "storage layout: media or post")
	syncCmd.Flags().StringVar(&desiredPost, "post", "", "sync only the post with this id (post layout)")
	syncCmd.Flags().StringVarP(&accountName, "account", "a", "", "use stored credentials under this name")
	syncCmd.Flags().BoolVar(&resumeRun, "resume", false, "resume interrupted streams from their in-flight cursors")
	syncCmd.Flags().BoolVar(&restartRun, "restart", false, "drop in-flight cursors and rescan from the top")
}

func runSync(cmd *cobra.Command, args []string) error {
	creator := strings.TrimSpace(args[0])

	flags := map[string]interface{}{
		"sync-dir":         syncDir,
		"parallel":         parallel,
		"download-timeout": downloadTimeout,
		"storage-type":     storageType,
		"post":             desiredPost,
		"log-level":        logLevel,
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	log := logger.GetLogger()
	log.InfoWithFields("boostysync starting", map[string]interface{}{
		"version": version,
		"creator": creator,
	})

	if accountName != "" {
		manager, err := auth.NewManager()
		if err != nil {
			return fmt.Errorf("failed to open credential stores: %w", err)
		}
		account, err := manager.Retrieve(accountName)
		if err != nil {
			return err
		}
		cfg.Auth.Cookie = account.Cookie
		cfg.Auth.Authorization = account.Authorization
		log.InfoWithFields("using stored credentials", map[string]interface{}{
			"account": accountName,
			"cookie":  auth.MaskSecret(account.Cookie),
		})
	}

	useCookie := cfg.ReadyToAuth()
	if !useCookie {
		log.Warn("no usable credentials configured, only public content will be visible")
	}

	client := boosty.NewClient(
		30*time.Second,
		cfg.File.DownloadTimeout,
		log,
		boosty.WithChunkSize(cfg.File.DownloadChunkSize),
	)
	client.SetCredentials(cfg.Auth.Cookie, cfg.Auth.Authorization)

	if resumeRun && restartRun {
		return fmt.Errorf("--resume and --restart are mutually exclusive")
	}
	if syncer.HasInterruptedRun(cfg, creator) && !resumeRun && !restartRun {
		log.Warn("previous run was interrupted mid-stream; pass --resume to continue from its cursors, restarting from the top")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := syncer.New(cfg, client, syncer.Options{
		Creator:   creator,
		UseCookie: useCookie,
		Resume:    resumeRun,
	})
	if err != nil {
		return err
	}

	runErr := s.Run(ctx)

	fmt.Println(s.Tracker().Summary())

	if runErr != nil {
		log.WithError(runErr).Error("sync failed")
		return runErr
	}

	log.InfoWithFields("sync completed", map[string]interface{}{
		"creator":    creator,
		"downloaded": s.Tracker().TotalDownloaded(),
		"errors":     s.Tracker().TotalErrors(),
	})
	return nil
}
