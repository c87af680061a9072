package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/nickromney-org/release-radar/internal/config"
	"github.com/nickromney-org/release-radar/internal/feed"
	"github.com/nickromney-org/release-radar/internal/github"
	"github.com/nickromney-org/release-radar/internal/state"
	"github.com/nickromney-org/release-radar/internal/version"
)

// Exits 0 when nothing is pending, 1 when a run is needed, 2 on bad input.
func main() {
	token := flag.String("token", os.Getenv("GITHUB_TOKEN"), "GitHub token")
	repo := flag.String("repo", "claude-code", "Repository to check")
	backend := flag.String("backend", state.BackendFile, "State backend (file, sqlite)")
	path := flag.String("state", ".release-radar/state.json", "State path")
	flag.Parse()

	repoConfig, err := config.ParseRepositoryString(*repo)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid repository %q: %v\n", *repo, err)
		os.Exit(2)
	}

	store, err := state.Open(*backend, *path, repoConfig.FullName())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening state: %v\n", err)
		os.Exit(2)
	}

	ctx := context.Background()
	marker, err := store.Load(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading state: %v\n", err)
		os.Exit(1)
	}
	last, err := marker.Version()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: stored marker %q is not a version: %v\n", marker.LastVersion, err)
		os.Exit(1)
	}

	client, err := github.NewClient(*token, repoConfig.Owner, repoConfig.Repo)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	releases, err := feed.New(client, 30, slog.Default()).Releases(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error fetching releases: %v\n", err)
		os.Exit(1)
	}

	pending := version.NewDiffEngine(slog.New(slog.DiscardHandler)).Pending(releases, last)
	if len(pending) == 0 {
		fmt.Printf("✅ Up to date (last processed: %s)\n", marker.LastVersion)
		os.Exit(0)
	}

	fmt.Printf("⚠️  %d release(s) pending for %s:", len(pending), repoConfig.FullName())
	for _, r := range pending {
		fmt.Printf(" %s", r.String())
	}
	fmt.Println()
	os.Exit(1)
}
