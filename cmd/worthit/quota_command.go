package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newQuotaCommand(ctx *commandContext) *cobra.Command {
	quotaCmd := &cobra.Command{
		Use:   "quota",
		Short: "Show today's remaining analyses and time saved",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEngine(cmd, func(runCtx context.Context, eng *engine) error {
				scope := eng.cfg.Quota.OwnerScope
				decision, err := eng.guard.Check(runCtx, scope, false, false)
				if err != nil {
					return err
				}
				stats, err := eng.ledger.Stats(runCtx, scope)
				if err != nil {
					return err
				}

				rows := [][]string{
					{"Analyses remaining today", fmt.Sprintf("%d of %d", decision.Remaining, eng.cfg.Quota.DailyLimit)},
					{"Minutes saved today", strconv.Itoa(stats.MinutesToday)},
					{"Minutes saved this week", strconv.Itoa(stats.MinutesWeek)},
					{"Current streak", fmt.Sprintf("%d days", stats.CurrentStreak)},
					{"Videos analyzed", strconv.Itoa(stats.UniqueVideoCount)},
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Quota", ""}, rows, 2))
				return nil
			})
		},
	}

	quotaCmd.AddCommand(newQuotaBonusCommand(ctx))
	return quotaCmd
}

func newQuotaBonusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "bonus <credits>",
		Short: "Grant bonus analyses for today",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			credits, err := strconv.Atoi(args[0])
			if err != nil || credits <= 0 {
				return fmt.Errorf("credits must be a positive integer, got %q", args[0])
			}
			return ctx.withEngine(cmd, func(runCtx context.Context, eng *engine) error {
				scope := eng.cfg.Quota.OwnerScope
				if err := eng.guard.AddBonus(runCtx, scope, credits); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Granted %d bonus analyses for today\n", credits)
				return nil
			})
		},
	}
}
