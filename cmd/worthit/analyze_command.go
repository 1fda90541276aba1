package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"worthit/internal/pipeline"
)

func newAnalyzeCommand(ctx *commandContext) *cobra.Command {
	var (
		subscriber    bool
		complimentary bool
		languages     []string
		showProgress  bool
	)

	cmd := &cobra.Command{
		Use:   "analyze <video>",
		Short: "Analyze a video and score whether it is worth watching",
		Long: `Analyze fetches the transcript and comments for a video, summarizes them,
and scores whether the content is worth your time. Accepts a video ID or any
common watch URL form. Re-analyzing a video serves the cached result instantly
and refreshes it in the background.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEngine(cmd, func(runCtx context.Context, eng *engine) error {
				out := cmd.OutOrStdout()
				colored := stdoutIsTerminal()

				updates := eng.orch.Analyze(runCtx, args[0], pipeline.Options{
					Subscribed:    subscriber,
					Complimentary: complimentary,
					Languages:     languages,
				})

				var final pipeline.Update
				for update := range updates {
					switch update.State {
					case pipeline.StateEssentialsReady:
						fmt.Fprint(out, renderEssentials(update.Essentials, colored))
					case pipeline.StateDenied:
						fmt.Fprint(out, renderPaywall(update.Paywall))
						return errors.New("daily quota reached")
					case pipeline.StateInvalid, pipeline.StatePartialFailure:
						return update.Err
					case pipeline.StateReady:
						final = update
					default:
						if showProgress {
							fmt.Fprintf(out, "  %s...\n", update.State)
						}
					}
				}
				if final.Result == nil {
					return errors.New("analysis superseded before completion")
				}
				fmt.Fprint(out, renderAnalysis(final.Result, final.Stale, colored))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&subscriber, "subscriber", false, "Skip the daily quota as an active subscriber")
	cmd.Flags().BoolVar(&complimentary, "complimentary", false, "Use a complimentary analysis grant")
	cmd.Flags().StringSliceVar(&languages, "lang", nil, "Transcript language fallbacks, in preference order")
	cmd.Flags().BoolVar(&showProgress, "progress", false, "Print pipeline stages as they run")
	return cmd
}
