package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func Main() {
	_ = godotenv.Load() // best-effort: load .env if present

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCmd()
	root.SetOut(os.Stdout)
	root.SetErr(os.Stderr)

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "confsum",
		Short:         "Turn long meeting recordings into merged, speaker-labelled transcripts",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.String("data-dir", "data", "Data directory (env CONFSUM_DATA_DIR)")
	pf.Float64("chunk-minutes", 10, "Chunk length in minutes (env CONFSUM_CHUNK_MINUTES)")
	pf.Float64("overlap-seconds", 10, "Overlap between chunks in seconds (env CONFSUM_OVERLAP_SECONDS)")
	pf.String("log-level", "info", "debug, info, warn or error (env CONFSUM_LOG_LEVEL)")

	root.AddCommand(
		newPlanCmd(),
		newExtractCmd(),
		newSplitCmd(),
		newTranscribeCmd(),
		newMergeCmd(),
		newAlignCmd(),
		newRunCmd(),
		newStatusCmd(),
	)
	return root
}
