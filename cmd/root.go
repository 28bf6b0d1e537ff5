package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"attendance/config"
	"attendance/logging"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// log is the process logger, set up before any subcommand runs
	log *zap.Logger
)

// Version is the application version.
const Version = "0.1.0"

var rootCmd = &cobra.Command{
	Use:           "attendance",
	Short:         "Live classroom attendance from a streamed camera feed",
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		log, err = logging.New(config.DEBUG_MODE, config.LOG_FORMAT)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if log != nil {
			_ = log.Sync()
		}
	},
	// Serving is the default
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	// Serving is also the root default, so --bind has to be accepted there too
	flags.StringVar(&config.BIND_ADDRESS, "bind", config.BIND_ADDRESS, "Address to listen on")
	flags.StringVar(&config.REFERENCE_DIR, "images", config.REFERENCE_DIR, "Reference image directory, one sub-directory per student")
	flags.StringVar(&config.FACE_BACKEND, "backend", config.FACE_BACKEND, "Face recognition backend: opencv or dlib")
	flags.BoolVar(&config.DEBUG_MODE, "debug", config.DEBUG_MODE, "Debug logging")
}
