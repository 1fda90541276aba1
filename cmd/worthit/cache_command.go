package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"worthit/internal/artifactcache"
	"worthit/internal/pipeline"
	"worthit/internal/videoid"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and maintain stored analyses",
	}

	cacheCmd.AddCommand(newCacheRecentCommand(ctx))
	cacheCmd.AddCommand(newCacheClearCommand(ctx))
	return cacheCmd
}

func newCacheRecentCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "recent",
		Short: "List recently analyzed videos",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEngine(cmd, func(runCtx context.Context, eng *engine) error {
				recent, err := pipeline.Recent(runCtx, eng.cache)
				if err != nil {
					if errors.Is(err, artifactcache.ErrMiss) {
						fmt.Fprintln(cmd.OutOrStdout(), "No analyses yet")
						return nil
					}
					return err
				}

				rows := make([][]string, 0, len(recent))
				for _, entry := range recent {
					rows = append(rows, []string{
						entry.VideoID,
						strconv.Itoa(entry.FinalScore),
						strconv.Itoa(entry.MinutesSaved),
						entry.AnalyzedAt.Local().Format(time.RFC822),
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(),
					renderTable([]string{"Video", "Score", "Minutes saved", "Analyzed"}, rows, 2, 3))
				return nil
			})
		},
	}
}

func newCacheClearCommand(ctx *commandContext) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "clear [video]",
		Short: "Drop cached analyses",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !all && len(args) == 0 {
				return errors.New("pass a video reference or --all")
			}
			return ctx.withEngine(cmd, func(runCtx context.Context, eng *engine) error {
				out := cmd.OutOrStdout()
				if all {
					if err := eng.cache.ClearAll(runCtx); err != nil {
						return err
					}
					fmt.Fprintln(out, "Cleared all cached analyses")
					return nil
				}

				id, err := videoid.Resolve(args[0])
				if err != nil {
					return err
				}
				for _, kind := range []artifactcache.Kind{
					artifactcache.KindContentAnalysis,
					artifactcache.KindCommentInsights,
					artifactcache.KindTranscript,
					artifactcache.KindRawComments,
					artifactcache.KindQAHistory,
				} {
					if err := eng.cache.Delete(runCtx, id, kind); err != nil {
						return err
					}
				}
				fmt.Fprintf(out, "Cleared cached analysis for %s\n", id)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Clear every cached analysis")
	return cmd
}
