package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/nickromney-org/release-radar/internal/cache"
	"github.com/nickromney-org/release-radar/internal/config"
	"github.com/nickromney-org/release-radar/internal/feed"
	"github.com/nickromney-org/release-radar/internal/github"
	"github.com/nickromney-org/release-radar/internal/version"
)

func main() {
	token := flag.String("token", os.Getenv("GITHUB_TOKEN"), "GitHub token")
	output := flag.String("output", "testdata/releases.json", "Output file")
	repo := flag.String("repo", "claude-code", "Repository to fetch (e.g., 'claude-code', 'cli/cli')")
	maxReleases := flag.Int("max", 100, "Maximum number of releases to fetch")
	flag.Parse()

	repoConfig, err := config.ParseRepositoryString(*repo)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid repository %q: %v\n", *repo, err)
		os.Exit(2)
	}

	client, err := github.NewClient(*token, repoConfig.Owner, repoConfig.Repo,
		github.WithChangelog(repoConfig.ChangelogPath, repoConfig.ChangelogRef))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	ctx := context.Background()
	f := feed.New(client, *maxReleases, slog.Default())

	fmt.Printf("Fetching releases from %s via GitHub API...\n", repoConfig.FullName())

	releases, err := f.Releases(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// Snapshot the text each release would be classified from
	fallbacks := 0
	for i, r := range releases {
		resolved, err := f.ResolveText(ctx, r)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
			continue
		}
		if resolved.Source == version.SourceChangelogFallback {
			fallbacks++
		}
		releases[i] = resolved
	}

	if err := cache.NewManager().Save(*output, repoConfig.FullName(), releases); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("✅ Wrote %d releases to %s (%d from changelog)\n", len(releases), *output, fallbacks)
}
