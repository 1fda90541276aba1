package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"worthit/internal/videoid"
)

func newAskCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask <video> <question...>",
		Short: "Ask a follow-up question about an analyzed video",
		Long: `Ask answers a question about a video that was already analyzed, using the
stored analysis as context. Questions about the same video build on each
other within one session.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEngine(cmd, func(runCtx context.Context, eng *engine) error {
				id, err := videoid.Resolve(args[0])
				if err != nil {
					return err
				}
				question := strings.Join(args[1:], " ")

				exchange, err := eng.qa.Ask(runCtx, id, question)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), exchange.Answer)
				return nil
			})
		},
	}
	return cmd
}
