package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"TopicScanner/internal/app"
	"TopicScanner/internal/domain"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run scheduled scans and the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			cmd.SetContext(ctx)
			return withApp(cmd, func(ctx context.Context, application *app.Application) error {
				return application.Serve(ctx)
			})
		},
	}
}

func newScanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scan",
		Short: "Run one scan of every enabled source",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, application *app.Application) error {
				summary := application.Pipeline().RunScan(ctx)
				fmt.Fprintln(cmd.OutOrStdout(), summary.String())
				return nil
			})
		},
	}
}

func newTopicsCmd() *cobra.Command {
	var source, contentType, niche string
	var fresh bool

	cmd := &cobra.Command{
		Use:   "topics",
		Short: "List the worklist (best first, at most 50)",
		Example: `  topicscanner topics --niche "Crypto / Web3"
  topicscanner topics --source hackernews --fresh`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			filter, err := buildFilter(source, contentType, niche, fresh)
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, application *app.Application) error {
				topics, err := application.Store().Query(ctx, filter)
				if err != nil {
					return err
				}
				printTopics(cmd.OutOrStdout(), topics)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&source, "source", "", "only topics from this source")
	cmd.Flags().StringVar(&contentType, "type", "", "only this content type (expert|educational|viral|tools)")
	cmd.Flags().StringVar(&niche, "niche", "", "only topics tagged with this niche")
	cmd.Flags().BoolVar(&fresh, "fresh", false, "order by age instead of score")
	return cmd
}

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print one topic with its draft",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, application *app.Application) error {
				topic, err := application.Store().GetByID(ctx, args[0])
				if err != nil {
					return err
				}
				printTopic(cmd.OutOrStdout(), topic)
				return nil
			})
		},
	}
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <id> <status>",
		Short: "Set the curation status (new|starred|drafted|published|skipped)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, application *app.Application) error {
				if err := application.Store().SetStatus(ctx, args[0], args[1]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s\n", args[0], args[1])
				return nil
			})
		},
	}
}

func newFactCheckCmd() *cobra.Command {
	var notes string
	var unchecked bool

	cmd := &cobra.Command{
		Use:   "factcheck <id>",
		Short: "Record the fact-check verdict of a topic",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, application *app.Application) error {
				if err := application.Store().SetFactCheck(ctx, args[0], !unchecked, notes); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s fact check updated\n", args[0])
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&notes, "notes", "", "verification notes")
	cmd.Flags().BoolVar(&unchecked, "unchecked", false, "mark the topic as not verified")
	return cmd
}

func newDraftCmd() *cobra.Command {
	var text string

	cmd := &cobra.Command{
		Use:   "draft <id>",
		Short: "Generate a draft with the LLM, or store --text as the draft",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, application *app.Application) error {
				if text != "" {
					if err := application.Store().SetDraft(ctx, args[0], text); err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s draft saved\n", args[0])
					return nil
				}
				topic, err := application.Drafts().Generate(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), topic.Draft)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&text, "text", "", "store this text instead of calling the LLM")
	return cmd
}

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show topic counts and source health",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, application *app.Application) error {
				stats, err := application.Store().Stats(ctx)
				if err != nil {
					return err
				}
				health, err := application.Store().LastRunPerSource(ctx)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Topics: %d\n", stats.Total)
				for _, status := range domain.AllStatuses() {
					if n := stats.ByStatus[status]; n > 0 {
						fmt.Fprintf(out, "  %-10s %d\n", status, n)
					}
				}
				for _, source := range domain.AllSources() {
					if n := stats.BySource[source]; n > 0 {
						fmt.Fprintf(out, "  %-12s %d\n", source, n)
					}
				}
				if len(health) > 0 {
					fmt.Fprintln(out, "Sources:")
				}
				for _, h := range health {
					fmt.Fprintf(out, "  %-12s last scan %s, %d failed runs\n", h.Source, h.LastScan.Format(time.RFC3339), h.Errors)
				}
				return nil
			})
		},
	}
}

func newRunsCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Show recent scan history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, application *app.Application) error {
				runs, err := application.Store().RecentRuns(ctx, limit)
				if err != nil {
					return err
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "SCANNED\tSOURCE\tFOUND\tNEW\tERROR")
				for _, run := range runs {
					fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\n",
						run.Timestamp.Format(time.RFC3339), run.Source, run.ItemsFound, run.ItemsNew, run.Error)
				}
				return w.Flush()
			})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "number of runs to show")
	return cmd
}

func buildFilter(source, contentType, niche string, fresh bool) (domain.TopicFilter, error) {
	var filter domain.TopicFilter
	if source != "" {
		s, err := domain.ParseSource(source)
		if err != nil {
			return filter, err
		}
		filter.Source = s
	}
	if contentType != "" {
		ct, err := domain.ParseContentType(contentType)
		if err != nil {
			return filter, err
		}
		filter.ContentType = ct
	}
	if niche != "" {
		n, err := domain.ParseNiche(niche)
		if err != nil {
			return filter, err
		}
		filter.Niche = n
	}
	if fresh {
		filter.Sort = domain.SortFresh
	}
	return filter, nil
}

func printTopics(out io.Writer, topics []domain.Topic) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SCORE\tID\tSTATUS\tSOURCE\tAGE\tTITLE")
	for _, t := range topics {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%sh\t%s\n",
			t.Score(), t.ID, t.Status, t.Source, strconv.FormatFloat(t.AgeHours, 'f', 1, 64), t.Title)
	}
	_ = w.Flush()
}

func printTopic(out io.Writer, t domain.Topic) {
	verified := "needs verification"
	if t.FactChecked {
		verified = "verified"
	}
	fmt.Fprintf(out, "%s  [%s]\n", t.Title, t.ID)
	fmt.Fprintf(out, "Score %d (relevance %d, engagement %d, freshness %d, virality %d)\n",
		t.Score(), t.Scores.Relevance, t.Scores.Engagement, t.Scores.Freshness, t.Scores.Virality)
	fmt.Fprintf(out, "Source: %s  %s\n", t.Source, t.SourceURL)
	fmt.Fprintf(out, "Niches: %s  Type: %s  Status: %s\n", t.Niches, t.ContentType, t.Status)
	fmt.Fprintf(out, "Facts: %s %s\n", verified, t.FactNotes)
	fmt.Fprintf(out, "Hook: %s\n", t.Hook)
	fmt.Fprintf(out, "Idea: %s\n", t.PostIdea)
	if strings.TrimSpace(t.Draft) != "" {
		fmt.Fprintf(out, "\n%s\n", t.Draft)
	}
}
