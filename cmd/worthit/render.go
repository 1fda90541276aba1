package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"

	"worthit/internal/analysis"
	"worthit/internal/quota"
)

func stdoutIsTerminal() bool {
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func verdictLabel(score int) string {
	switch {
	case score >= 75:
		return "worth it"
	case score >= 50:
		return "borderline"
	default:
		return "skip it"
	}
}

func colorizeScore(score int, colored bool) string {
	value := fmt.Sprintf("%d / 100", score)
	if !colored {
		return value
	}
	var colors text.Colors
	switch {
	case score >= 75:
		colors = text.Colors{text.FgGreen, text.Bold}
	case score >= 50:
		colors = text.Colors{text.FgYellow, text.Bold}
	default:
		colors = text.Colors{text.FgRed, text.Bold}
	}
	return colors.Sprint(value)
}

func renderEssentials(essentials *analysis.Essentials, colored bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Quick verdict: %s (%s)\n",
		colorizeScore(essentials.Score.FinalScore, colored),
		verdictLabel(essentials.Score.FinalScore))
	fmt.Fprintln(&b, "Full analysis in progress...")
	return b.String()
}

func renderAnalysis(result *analysis.ContentAnalysis, stale, colored bool) string {
	var b strings.Builder

	sentiment := "n/a"
	if result.Score.SentimentScore != nil {
		sentiment = fmt.Sprintf("%.2f", *result.Score.SentimentScore)
	}
	rows := [][]string{
		{"Score", colorizeScore(result.Score.FinalScore, colored)},
		{"Verdict", verdictLabel(result.Score.FinalScore)},
		{"Depth", fmt.Sprintf("%.2f", result.Score.DepthScore)},
		{"Sentiment", sentiment},
		{"Minutes saved", fmt.Sprintf("%d", result.MinutesSaved)},
		{"Analyzed", result.AnalyzedAt.Local().Format(time.RFC822)},
	}
	b.WriteString(renderTable([]string{"Field", "Value"}, rows))
	b.WriteString("\n")
	if stale {
		b.WriteString("(cached result; refreshing in the background)\n")
	}
	if result.Score.MissingCommentData {
		b.WriteString("(comment data unavailable; score rests on content depth alone)\n")
	}

	if result.LongSummary != "" {
		fmt.Fprintf(&b, "\nSummary\n  %s\n", result.LongSummary)
	}
	if len(result.Takeaways) > 0 {
		b.WriteString("\nTakeaways\n")
		for _, takeaway := range result.Takeaways {
			fmt.Fprintf(&b, "  - %s\n", takeaway)
		}
	}
	if len(result.GemsOfWisdom) > 0 {
		b.WriteString("\nGems of wisdom\n")
		for _, gem := range result.GemsOfWisdom {
			fmt.Fprintf(&b, "  - %s\n", gem)
		}
	}
	if result.Insights.SentimentSummary != "" {
		fmt.Fprintf(&b, "\nCrowd sentiment\n  %s\n", result.Insights.SentimentSummary)
	}
	if len(result.Insights.Themes) > 0 {
		themeRows := make([][]string, 0, len(result.Insights.Themes))
		for _, theme := range result.Insights.Themes {
			themeRows = append(themeRows, []string{theme.Label, theme.ExampleComment})
		}
		b.WriteString("\n")
		b.WriteString(renderTable([]string{"Theme", "Example comment"}, themeRows))
		b.WriteString("\n")
	}
	if len(result.SuggestedQuestions) > 0 {
		b.WriteString("\nAsk a follow-up\n")
		for _, question := range result.SuggestedQuestions {
			fmt.Fprintf(&b, "  - %s\n", question)
		}
	}
	return b.String()
}

func renderPaywall(paywall *quota.PaywallContext) string {
	var b strings.Builder
	b.WriteString("Daily free analyses used up.\n\n")
	if paywall != nil {
		rows := [][]string{
			{"Minutes saved today", fmt.Sprintf("%d", paywall.MinutesSavedToday)},
			{"Minutes saved this week", fmt.Sprintf("%d", paywall.MinutesSavedWeek)},
			{"Current streak", fmt.Sprintf("%d days", paywall.CurrentStreak)},
			{"Videos analyzed", fmt.Sprintf("%d", paywall.UniqueVideoCount)},
			{"Quota resets", paywall.QuotaResetAt.Local().Format(time.RFC822)},
		}
		b.WriteString(renderTable([]string{"Your usage", ""}, rows))
		b.WriteString("\n")
	}
	b.WriteString("Subscribe for unlimited analyses.\n")
	return b.String()
}
