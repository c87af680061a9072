package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/nickromney-org/release-radar/internal/cache"
	"github.com/nickromney-org/release-radar/internal/config"
	"github.com/nickromney-org/release-radar/internal/eval"
	"github.com/nickromney-org/release-radar/internal/feed"
	"github.com/nickromney-org/release-radar/internal/version"
)

func buildTruthCmd() *cobra.Command {
	var (
		versions []string
		count    int
		output   string
		snapshot string
	)

	cmd := &cobra.Command{
		Use:   "build-truth",
		Short: "Draft a ground-truth file from release notes",
		Long: `Extract every bullet from the selected releases and guess its category
from the leading verb. Bullets without a known verb are written as Unknown
and must be labelled by hand before the file is used by eval.`,
		Example: `  # Draft from the five most recent releases
  release-radar build-truth --count 5 --output testdata/ground_truth.csv

  # Draft from specific versions in a snapshot
  release-radar build-truth --snapshot testdata/releases.json --versions 2.1.45,2.1.47`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			ctx := cmd.Context()

			if count <= 0 && len(versions) == 0 {
				return fmt.Errorf("%w: one of --versions or --count is required", config.ErrMissingConfig)
			}

			settings, err := loadSettings(config.ModeProbe)
			if err != nil {
				return err
			}

			if snapshot == "" {
				snapshot = settings.Eval.Snapshot
			}

			var releases []version.Release
			if snapshot != "" {
				releases, err = cache.NewManager().Load(snapshot)
				if err != nil {
					return fmt.Errorf("%w: %w", config.ErrInvalidConfig, err)
				}
			} else {
				client, err := newGitHubClient(settings)
				if err != nil {
					return err
				}
				f := feed.New(client, max(count, settings.GitHub.MaxReleases), slog.Default())
				releases, err = f.Releases(ctx)
				if err != nil {
					return err
				}
				for i, r := range releases {
					if resolved, err := f.ResolveText(ctx, r); err == nil {
						releases[i] = resolved
					}
				}
			}

			releases = selectReleases(releases, versions, count)
			entries := eval.DraftGroundTruth(releases)

			if err := eval.WriteGroundTruthCSV(output, entries); err != nil {
				return err
			}

			unknown := 0
			for _, e := range entries {
				if !e.Labelled() {
					unknown++
				}
			}
			green.Fprintf(cmd.OutOrStdout(), "✅ Wrote %d entries from %d release(s) to %s\n", len(entries), len(releases), output)
			if unknown > 0 {
				yellow.Fprintf(cmd.OutOrStdout(), "   %d entries are Unknown and need a label\n", unknown)
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&versions, "versions", nil, "comma-separated versions to include")
	cmd.Flags().IntVar(&count, "count", 0, "include the N most recent releases")
	cmd.Flags().StringVar(&output, "output", "ground_truth.csv", "output CSV path")
	cmd.Flags().StringVar(&snapshot, "snapshot", "", "release snapshot to read instead of GitHub")

	return cmd
}

// selectReleases picks the listed versions, or the newest count releases,
// returned oldest first
func selectReleases(releases []version.Release, versions []string, count int) []version.Release {
	if len(versions) > 0 {
		found, missing := cache.Select(releases, versions)
		if len(missing) > 0 {
			slog.Warn("versions not found", "versions", missing)
		}
		version.SortAscending(found)
		return found
	}

	releases = version.Dedupe(releases)
	version.SortAscending(releases)
	if count < len(releases) {
		releases = releases[len(releases)-count:]
	}
	return releases
}
