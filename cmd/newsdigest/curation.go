package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"NewsDigest/internal/domain"
	"NewsDigest/internal/infrastructure/storage"
	"NewsDigest/internal/usecase"
)

func newArticlesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "articles",
		Short: "Add, list and curate stored articles",
	}
	cmd.AddCommand(newArticlesAddCmd(), newArticlesListCmd(), newArticlesSelectCmd())
	return cmd
}

func newArticlesAddCmd() *cobra.Command {
	var input domain.NewArticleInput

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Store a manually curated article",
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer application.Close()

			input.SourceType = domain.SourceManual
			article, err := application.Curation.AddArticle(cmd.Context(), input)
			if errors.Is(err, usecase.ErrDuplicateArticle) {
				return fmt.Errorf("already stored as %s (%s)", article.ID, article.Title)
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Article created\nID: %s\nTitle: %s\nSource: %s\n", article.ID, article.Title, article.Source)
			return nil
		},
	}

	cmd.Flags().StringVar(&input.Title, "title", "", "article title")
	cmd.Flags().StringVar(&input.Source, "source", "", "source name")
	cmd.Flags().StringVar(&input.OriginalURL, "url", "", "original URL")
	cmd.Flags().StringVar(&input.RawContent, "content", "", "article body")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("source")
	_ = cmd.MarkFlagRequired("content")

	return cmd
}

func newArticlesListCmd() *cobra.Command {
	var status string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List articles, optionally by curation status",
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer application.Close()

			articles, err := application.Curation.ListArticles(cmd.Context(), domain.CurationStatus(status))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(articles) == 0 {
				fmt.Fprintln(out, "No articles found.")
				return nil
			}
			fmt.Fprintf(out, "Found %d article(s):\n\n", len(articles))
			for _, a := range articles {
				categories := strings.Join(a.Categories, ", ")
				if categories == "" {
					categories = "none"
				}
				fmt.Fprintf(out, "ID: %s\nTitle: %s\nSource: %s (%s)\nStatus: %s\nCategories: %s\n",
					a.ID, a.Title, a.Source, a.SourceType, a.CurationStatus, categories)
				if a.Enriched() {
					fmt.Fprintf(out, "Score: %d/10\n", a.Score())
				}
				fmt.Fprintf(out, "Ingested: %s\n---\n", a.IngestedAt.Format(time.RFC3339))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "pending, selected, rejected or published")
	return cmd
}

func newArticlesSelectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "select <id> <status>",
		Short: "Set the curation status of an article",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer application.Close()

			article, err := application.Curation.SetStatus(cmd.Context(), args[0], domain.CurationStatus(args[1]))
			if storage.IsNotFound(err) {
				return fmt.Errorf("article %s not found", args[0])
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s\n", article.Title, article.CurationStatus)
			return nil
		},
	}
}

func newSubscribersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "subscribers",
		Short: "Manage newsletter subscribers",
	}

	add := &cobra.Command{
		Use:   "add <email>",
		Short: "Add an active subscriber",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer application.Close()

			sub, err := application.Curation.AddSubscriber(cmd.Context(), args[0])
			if errors.Is(err, storage.ErrDuplicateEmail) {
				return fmt.Errorf("%s is already subscribed", args[0])
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Subscribed %s\nUnsubscribe token: %s\n", sub.Email, sub.UnsubscribeToken)
			return nil
		},
	}

	var all bool
	list := &cobra.Command{
		Use:   "list",
		Short: "List subscribers",
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer application.Close()

			subs, err := application.Curation.ListSubscribers(cmd.Context(), !all)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(subs) == 0 {
				fmt.Fprintln(out, "No subscribers.")
				return nil
			}
			for _, s := range subs {
				fmt.Fprintf(out, "%s\t%s\t%s\n", s.Email, s.Status, s.SubscribedAt.Format(time.RFC3339))
			}
			return nil
		},
	}
	list.Flags().BoolVar(&all, "all", false, "include pending and unsubscribed")

	remove := &cobra.Command{
		Use:   "remove <email>",
		Short: "Unsubscribe a subscriber",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer application.Close()

			removed, err := application.Curation.RemoveSubscriber(cmd.Context(), args[0])
			if storage.IsNotFound(err) {
				return fmt.Errorf("no subscriber with email %s", args[0])
			}
			if err != nil {
				return err
			}
			if removed {
				fmt.Fprintf(cmd.OutOrStdout(), "Unsubscribed %s\n", args[0])
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "%s was already unsubscribed\n", args[0])
			}
			return nil
		},
	}

	cmd.AddCommand(add, list, remove)
	return cmd
}

func newIssuesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "issues",
		Short: "Inspect newsletter issues",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List all issues, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer application.Close()

			issues, err := application.Curation.ListIssues(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(issues) == 0 {
				fmt.Fprintln(out, "No newsletter issues found.")
				return nil
			}
			for _, is := range issues {
				fmt.Fprintf(out, "Issue #%d: %s\nStatus: %s\nArticles: %d\nCreated: %s\n",
					is.IssueNumber, is.Title, is.Status, len(is.ArticleIDs), is.CreatedAt.Format(time.RFC3339))
				if is.SentAt != nil {
					fmt.Fprintf(out, "Sent: %s\n", is.SentAt.Format(time.RFC3339))
				}
				fmt.Fprintln(out, "---")
			}
			return nil
		},
	})

	return cmd
}

func newSendCmd() *cobra.Command {
	var (
		title  string
		ids    string
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Create a newsletter issue and email it to active subscribers",
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer application.Close()

			plan, err := application.Sender.Prepare(cmd.Context(), splitIDs(ids))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Title: %s\nArticles: %d\n", title, len(plan.Articles))
			for _, a := range plan.Articles {
				fmt.Fprintf(out, "  - %s (%s)\n", a.Title, a.Source)
			}
			fmt.Fprintf(out, "Subscribers: %d\n", len(plan.Subscribers))

			if dryRun {
				fmt.Fprintf(out, "\n[DRY RUN] Newsletter would be sent to %d subscriber(s)\n", len(plan.Subscribers))
				return nil
			}

			report, err := application.Sender.Send(cmd.Context(), title, plan)
			for _, r := range report.Results {
				if r.Err != nil {
					fmt.Fprintf(out, "  [FAIL] %s: %v\n", r.Subscriber.Email, r.Err)
				} else {
					fmt.Fprintf(out, "  [OK] %s (%s)\n", r.Subscriber.Email, r.MessageID)
				}
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(out, "\nSent: %d\nFailed: %d\n", report.Sent, report.Failed)
			if report.Sent > 0 {
				fmt.Fprintf(out, "Issue #%d marked as sent.\n", report.Issue.IssueNumber)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "issue title")
	cmd.Flags().StringVar(&ids, "articles", "", "comma-separated article ids (default: selected articles)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "preview without sending")
	_ = cmd.MarkFlagRequired("title")

	return cmd
}

func newNewsletterCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "newsletter",
		Short: "Work with newsletter emails",
	}

	var (
		from     string
		received string
	)
	ingest := &cobra.Command{
		Use:   "ingest <file.html>",
		Short: "Extract stories from a saved newsletter email and store the new ones",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			when := time.Now()
			if received != "" {
				parsed, err := time.Parse("2006-01-02", received)
				if err != nil {
					return fmt.Errorf("parse --date: %w", err)
				}
				when = parsed
			}

			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open newsletter: %w", err)
			}
			defer f.Close()

			application, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer application.Close()

			report, err := application.Curation.IngestNewsletter(cmd.Context(), f, from, when)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, a := range report.Stored {
				fmt.Fprintf(out, "  + %s\n", a.Title)
			}
			fmt.Fprintf(out, "Extracted: %d, New: %d, Duplicates: %d\n", report.Extracted, len(report.Stored), report.Duplicates)
			return nil
		},
	}
	ingest.Flags().StringVar(&from, "from", "", "sender of the newsletter, e.g. \"The Batch <thebatch@deeplearning.ai>\"")
	ingest.Flags().StringVar(&received, "date", "", "date the newsletter was received (YYYY-MM-DD, default now)")
	_ = ingest.MarkFlagRequired("from")

	cmd.AddCommand(ingest)
	return cmd
}

func splitIDs(raw string) []string {
	var ids []string
	for _, id := range strings.Split(raw, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}
