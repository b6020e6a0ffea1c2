package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"NewsDigest/internal/usecase"
)

const previewItems = 10

func newDigestCmd() *cobra.Command {
	var opts usecase.DigestOptions

	cmd := &cobra.Command{
		Use:   "digest",
		Short: "Poll sources, enrich, detect trending and write today's markdown digest",
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer application.Close()

			result, err := application.RunDigest(cmd.Context(), opts)
			if err != nil {
				return err
			}
			printDigest(cmd.OutOrStdout(), result, opts)
			return nil
		},
	}

	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "run the pipeline without storing anything or writing the file")
	cmd.Flags().BoolVar(&opts.SkipLLM, "skip-llm", false, "skip enrichment and the editorial pick")
	cmd.Flags().StringVar(&opts.OutputDir, "output", "", "output directory (default from config)")

	return cmd
}

func newScheduleCmd() *cobra.Command {
	var (
		opts   usecase.DigestOptions
		runNow bool
	)

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run the digest every day at the configured time until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer application.Close()

			return application.Schedule(cmd.Context(), opts, runNow)
		},
	}

	cmd.Flags().BoolVar(&runNow, "now", false, "also run once immediately")
	cmd.Flags().BoolVar(&opts.SkipLLM, "skip-llm", false, "skip enrichment and the editorial pick")
	cmd.Flags().StringVar(&opts.OutputDir, "output", "", "output directory (default from config)")

	return cmd
}

func newDedupeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dedupe",
		Short: "Report groups of stored articles that look like the same story",
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer application.Close()

			groups, err := application.Curation.Duplicates(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(groups) == 0 {
				fmt.Fprintln(out, "No duplicates found.")
				return nil
			}
			for _, g := range groups {
				fmt.Fprintf(out, "[%s] %s\n", g.Kind, g.Key)
				for _, a := range g.Articles {
					fmt.Fprintf(out, "  %s  %s (%s)\n", a.ID, a.Title, a.Source)
				}
			}
			fmt.Fprintf(out, "\n%d duplicate group(s)\n", len(groups))
			return nil
		},
	}
}

func printDigest(out io.Writer, result usecase.DigestResult, opts usecase.DigestOptions) {
	fmt.Fprintf(out, "Found: %d, New: %d, Duplicates: %d\n", result.Fetched, result.Stored, result.Duplicates)
	if !opts.SkipLLM {
		fmt.Fprintf(out, "Enriched: %d, Failed: %d\n", result.Enriched, result.EnrichFailed)
	}
	for _, m := range result.Matches {
		fmt.Fprintf(out, "  ~ [HN %d] %s\n", m.ExternalScore, m.ArticleTitle)
	}

	switch {
	case result.Plan != nil:
		plan := result.Plan
		fmt.Fprintf(out, "\nTop Story: %s\n", plan.TopStory.Article.Title)
		if plan.TopStoryIntro != "" {
			fmt.Fprintf(out, "  > %s\n", plan.TopStoryIntro)
		}
		if plan.TryThis != nil {
			fmt.Fprintf(out, "Try This: %s\n", plan.TryThis.Article.Title)
		}
		fmt.Fprintf(out, "Total articles: %d, Trending: %d\n\n", plan.TotalCount, plan.TrendingCount())

		for i, c := range plan.Articles {
			if i == previewItems {
				fmt.Fprintf(out, "  ... and %d more article(s)\n", plan.TotalCount-previewItems)
				break
			}
			badges := ""
			if c.IsTopStory {
				badges += " [TOP]"
			}
			if c.IsTryThis {
				badges += " [TRY]"
			}
			if c.IsTrending {
				badges += " [TRENDING]"
			}
			fmt.Fprintf(out, "  %d. [%d/10]%s %s\n", c.Rank, c.Article.Score(), badges, c.Article.Title)
		}
	case result.Legacy:
		fmt.Fprintln(out, "\nNo enriched articles, wrote the legacy digest.")
	default:
		fmt.Fprintln(out, "\nNo articles to include in digest.")
	}

	if result.OutputPath != "" {
		fmt.Fprintf(out, "\nWritten: %s\n", result.OutputPath)
	}
	if result.Issue != nil {
		fmt.Fprintf(out, "Draft issue #%d created\n", result.Issue.IssueNumber)
	}
}
