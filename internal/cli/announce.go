package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pfrederiksen/around-the-grounds/internal/event"
	"github.com/pfrederiksen/around-the-grounds/internal/notifier"
	"github.com/pfrederiksen/around-the-grounds/internal/storage"
)

type announceFlags struct {
	dryRun    bool
	refresh   bool
	maxTweets int
	hashtags  string
}

func (a *app) announceCmd() *cobra.Command {
	var flags announceFlags

	cmd := &cobra.Command{
		Use:   "announce",
		Short: "Announce events that were not seen by the previous run",
		Long: `Scrapes every source, compares the schedule with the snapshot saved by the
previous announce, and posts one tweet per newly published event. The
snapshot is updated only after announcing succeeds.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runAnnounce(cmd, flags)
		},
	}

	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "Print tweets without posting")
	cmd.Flags().BoolVar(&flags.refresh, "refresh", false, "Update the snapshot without announcing anything")
	cmd.Flags().IntVar(&flags.maxTweets, "max-tweets", 10, "Maximum number of tweets to post")
	cmd.Flags().StringVar(&flags.hashtags, "hashtags", "#FoodTrucks", "Hashtags appended to every tweet")
	return cmd
}

func (a *app) runAnnounce(cmd *cobra.Command, flags announceFlags) error {
	ctx := cmd.Context()
	w := a.opts.Stdout

	res, err := a.scrape(ctx)
	if err != nil {
		return err
	}
	reportErrors(a.opts.Stderr, res.Errors, a.settings.Verbose)
	a.exitCode = exitCodeFor(res.Events, res.Errors)
	if a.exitCode == ExitError {
		return nil
	}

	store, err := storage.New(a.settings.DataDir)
	if err != nil {
		return fmt.Errorf("initializing storage: %w", err)
	}
	previous, err := store.LoadSnapshot(res.Site.Name)
	if err != nil {
		return fmt.Errorf("loading snapshot: %w", err)
	}

	diff := event.Diff(previous, res.Events)
	fresh := announceable(a.settings.Filter.Apply(diff.NewEvents), flags.maxTweets)

	if !flags.refresh && len(fresh) > 0 {
		var n notifier.Notifier
		if flags.dryRun {
			fmt.Fprintf(w, "DRY RUN MODE - Would tweet %d events:\n\n", len(fresh))
			n = notifier.NewDryRunNotifier(w, flags.hashtags)
		} else {
			tw, err := notifier.NewTwitterNotifier(a.settings.Twitter, flags.hashtags, a.settings.logger(a.opts.Stderr))
			if err != nil {
				return fmt.Errorf("initializing Twitter client: %w", err)
			}
			n = tw
		}
		if err := n.Notify(ctx, fresh); err != nil {
			return fmt.Errorf("posting tweets: %w", err)
		}
		if !flags.dryRun {
			fmt.Fprintf(w, "Successfully posted %d tweets\n", len(fresh))
		}
	} else if !flags.refresh {
		fmt.Fprintln(w, "No new events to announce")
	}

	// A dry run leaves the snapshot alone so the real run still sees the events as new.
	if flags.dryRun {
		return nil
	}

	keep := carryOver(previous, res)
	if _, err := store.SaveEvents(append(keep, res.Events...), res.Site.Name); err != nil {
		return fmt.Errorf("saving snapshot: %w", err)
	}
	if flags.refresh {
		fmt.Fprintln(w, "Snapshot refreshed successfully.")
	}
	return nil
}

// announceable drops placeholder slots and caps the list at limit.
func announceable(events []*event.Event, limit int) []*event.Event {
	out := make([]*event.Event, 0, len(events))
	for _, evt := range events {
		if evt.IsPlaceholder() {
			continue
		}
		out = append(out, evt)
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// carryOver returns the previous snapshot's events for sources that failed
// this run, so a transient failure does not make their events look new next time.
func carryOver(previous *event.Snapshot, res *scrapeResult) []*event.Event {
	failed := make(map[string]bool, len(res.Errors))
	for _, e := range res.Errors {
		failed[e.Source.Key] = true
	}
	var keep []*event.Event
	for _, evt := range previous.Events {
		if failed[evt.SourceKey] {
			keep = append(keep, evt)
		}
	}
	return keep
}
