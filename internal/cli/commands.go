package cli

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/aleka07/conferencess-summary-maker/internal/domain/chunks"
	"github.com/aleka07/conferencess-summary-maker/internal/domain/marker"
	"github.com/aleka07/conferencess-summary-maker/internal/pipeline"
	"github.com/aleka07/conferencess-summary-maker/internal/types"
	"github.com/aleka07/conferencess-summary-maker/internal/usecase"
	"github.com/aleka07/conferencess-summary-maker/internal/workspace"
)

// withApp loads and validates config, then runs fn with a wired app.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, app *pipeline.App) error, checks ...func(pipeline.Config) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	for _, check := range append([]func(pipeline.Config) error{pipeline.Config.Validate}, checks...) {
		if err := check(cfg); err != nil {
			return fmt.Errorf("config: %w", err)
		}
	}
	app, err := pipeline.Open(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer app.Close()
	return fn(cmd.Context(), app)
}

func newPlanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan [input]",
		Short: "Print the chunk windows a recording would be split into",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("config: %w", err)
			}
			total, _ := cmd.Flags().GetFloat64("duration")

			var windows []types.ChunkWindow
			switch {
			case total > 0:
				windows, err = chunks.Plan(total, cfg.ChunkLength.Seconds(), cfg.Overlap.Seconds())
			case len(args) == 1:
				windows, err = pipeline.Plan(cmd.Context(), cfg, args[0])
			default:
				return errors.New("pass an input file or --duration")
			}
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "PART\tSTART\tEND\tSECONDS")
			for _, w := range windows {
				fmt.Fprintf(tw, "%03d\t%s\t%s\t%.3f\n", w.Index,
					marker.FormatHHMMSS(w.StartSeconds), marker.FormatHHMMSS(w.EndSeconds()), w.DurationSeconds)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().Float64("duration", 0, "Plan for a duration in seconds instead of probing a file")
	return cmd
}

func newExtractCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract <input>",
		Short: "Convert a recording to the meeting's MP3",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			meeting, _ := cmd.Flags().GetString("meeting")
			force, _ := cmd.Flags().GetBool("force")
			if meeting == "" {
				meeting = workspace.MeetingName(args[0])
			}
			return withApp(cmd, func(ctx context.Context, app *pipeline.App) error {
				out, err := app.Usecase.Extract(ctx, usecase.ExtractInput{Input: args[0], Meeting: meeting, Force: force})
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), out)
				return nil
			})
		},
	}
	cmd.Flags().String("meeting", "", "Meeting name (default: derived from the input file name)")
	cmd.Flags().Bool("force", false, "Overwrite existing audio")
	return cmd
}

func newSplitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "split <meeting>",
		Short: "Slice the meeting audio into overlapping chunks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			audio, _ := cmd.Flags().GetString("audio")
			force, _ := cmd.Flags().GetBool("force")
			return withApp(cmd, func(ctx context.Context, app *pipeline.App) error {
				res, err := app.Usecase.Split(ctx, usecase.SplitInput{Meeting: args[0], Audio: audio, Force: force})
				if err != nil {
					return err
				}
				if res.Skipped {
					fmt.Fprintf(cmd.OutOrStdout(), "already split: %d chunks (use --force to re-split)\n", res.Written)
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d chunks in %s\n", res.Written, app.Workspace.ChunksDir(args[0]))
				return nil
			})
		},
	}
	cmd.Flags().String("audio", "", "Audio file to split (default: the meeting's extracted MP3)")
	cmd.Flags().Bool("force", false, "Remove existing chunks and split again")
	return cmd
}

func newTranscribeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transcribe <meeting>",
		Short: "Transcribe every chunk of a meeting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			force, _ := cmd.Flags().GetBool("force")
			return withApp(cmd, func(ctx context.Context, app *pipeline.App) error {
				res, err := app.Usecase.Transcribe(ctx, usecase.TranscribeInput{Meeting: args[0], Force: force})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "transcribed %d, skipped %d, failed %d\n", res.Done, res.Skipped, res.Failed)
				return nil
			}, pipeline.Config.ValidateASR)
		},
	}
	cmd.Flags().Bool("force", false, "Transcribe chunks that already have text")
	return cmd
}

func newMergeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "merge [meeting]",
		Short: "Merge chunk transcripts into one marked document",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			all, _ := cmd.Flags().GetBool("all")
			force, _ := cmd.Flags().GetBool("force")
			if all == (len(args) == 1) {
				return errors.New("pass a meeting name or --all")
			}
			return withApp(cmd, func(ctx context.Context, app *pipeline.App) error {
				if all {
					res, err := app.Usecase.MergeAll(ctx, force)
					for _, r := range res {
						printMerge(cmd, r)
					}
					return err
				}
				r, err := app.Usecase.Merge(ctx, usecase.MergeInput{Meeting: args[0], Force: force})
				if err != nil {
					return err
				}
				printMerge(cmd, r)
				return nil
			})
		},
	}
	cmd.Flags().Bool("all", false, "Merge every meeting in the data directory")
	cmd.Flags().Bool("force", false, "Rewrite an existing merged transcript")
	return cmd
}

func printMerge(cmd *cobra.Command, r usecase.MergeResult) {
	if r.Skipped {
		fmt.Fprintf(cmd.OutOrStdout(), "already merged: %s (use --force to rewrite)\n", r.Path)
		return
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d parts -> %s\n", r.Parts, r.Path)
}

func newAlignCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "align <meeting>",
		Short: "Label the merged transcript with diarized speakers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			headers, _ := cmd.Flags().GetBool("part-headers")
			return withApp(cmd, func(ctx context.Context, app *pipeline.App) error {
				res, err := app.Usecase.Align(ctx, usecase.AlignInput{Meeting: args[0], PartHeaders: headers})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d parts, %d speakers -> %s\n", res.Parts, len(res.Speakers), res.Path)
				return nil
			})
		},
	}
	cmd.Flags().Bool("part-headers", false, "Prefix each part with its number and time range")
	return cmd
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <input>",
		Short: "Extract, split, transcribe, merge and align one recording",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			meeting, _ := cmd.Flags().GetString("meeting")
			force, _ := cmd.Flags().GetBool("force")
			headers, _ := cmd.Flags().GetBool("part-headers")

			absIn, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}
			cfg, err := loadConfig(cmd)
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("config: %w", err)
			}
			if meeting == "" {
				meeting = workspace.MeetingName(absIn)
			}
			return pipeline.Run(cmd.Context(), cfg, pipeline.RunInput{
				Input:       absIn,
				Meeting:     meeting,
				Force:       force,
				PartHeaders: headers,
			})
		},
	}
	cmd.Flags().String("meeting", "", "Meeting name (default: derived from the input file name)")
	cmd.Flags().Bool("force", false, "Redo every step even when its output exists")
	cmd.Flags().Bool("part-headers", false, "Prefix each aligned part with its number and time range")
	return cmd
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "List meetings and how far each one got",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, app *pipeline.App) error {
				if err := app.Usecase.PingLock(ctx); err != nil {
					return fmt.Errorf("%s lock backend: %w", app.LockBackend, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "lock backend: %s\n", app.LockBackend)

				sts, err := app.Usecase.Meetings()
				if err != nil {
					return err
				}
				if len(sts) == 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "no meetings in %s\n", app.Workspace.Root)
					return nil
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(tw, "MEETING\tCHUNKS\tTEXTS\tMERGED\tRTTM\tALIGNED")
				for _, st := range sts {
					merged := "-"
					if st.Merged {
						merged = fmt.Sprintf("%d B", st.MergedSize)
					}
					fmt.Fprintf(tw, "%s\t%d\t%d\t%s\t%s\t%s\n",
						st.Name, st.Chunks, st.Transcripts, merged, yesNo(st.Diarization), yesNo(st.Aligned))
				}
				return tw.Flush()
			})
		},
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
