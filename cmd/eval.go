package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/nickromney-org/release-radar/internal/cache"
	"github.com/nickromney-org/release-radar/internal/classify"
	"github.com/nickromney-org/release-radar/internal/config"
	"github.com/nickromney-org/release-radar/internal/eval"
	"github.com/nickromney-org/release-radar/internal/feed"
	"github.com/nickromney-org/release-radar/internal/telemetry"
	"github.com/nickromney-org/release-radar/internal/version"
)

func evalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Score the classifier against hand-labelled ground truth",
		Long: `Classify every release named in the ground-truth file and compare the
result with the labels. Any notify-worthy entry the classifier missed is a
false negative and fails the run.`,
		Example: `  # Evaluate against live release notes
  release-radar eval --ground-truth testdata/ground_truth.csv

  # Re-run offline against a saved snapshot, writing a YAML report
  release-radar eval --snapshot testdata/releases.json --report eval.yaml`,
		RunE: runEval,
	}

	cmd.Flags().String("ground-truth", "", "ground-truth file (.csv or .yaml)")
	cmd.Flags().String("report", "", "report output path (.json or .yaml)")
	cmd.Flags().String("snapshot", "", "release snapshot to read texts from instead of GitHub")
	cmd.Flags().Float64("threshold", 0, "similarity threshold for matching (default 0.6)")

	_ = viper.BindPFlag("eval.ground_truth", cmd.Flags().Lookup("ground-truth"))
	_ = viper.BindPFlag("eval.report", cmd.Flags().Lookup("report"))
	_ = viper.BindPFlag("eval.snapshot", cmd.Flags().Lookup("snapshot"))
	_ = viper.BindPFlag("eval.threshold", cmd.Flags().Lookup("threshold"))

	return cmd
}

func runEval(cmd *cobra.Command, _ []string) error {
	cmd.SilenceUsage = true
	ctx := cmd.Context()

	settings, err := loadSettings(config.ModeEval)
	if err != nil {
		return err
	}

	truth, err := eval.LoadGroundTruth(settings.Eval.GroundTruth)
	if err != nil {
		return fmt.Errorf("%w: %w", config.ErrInvalidConfig, err)
	}
	versions, _ := eval.GroupByVersion(truth)
	slog.Info("loaded ground truth", "entries", len(truth), "versions", len(versions))

	releases, err := collectReleases(ctx, settings, versions)
	if err != nil {
		return err
	}

	counters := telemetry.NewCounters()
	classifier, err := newClassifier(settings, counters, slog.Default())
	if err != nil {
		return err
	}

	outputs := classifyAll(ctx, classifier, releases, cmd.ErrOrStderr())

	report := eval.Evaluate(truth, outputs, eval.Options{Threshold: settings.Eval.Threshold})
	if settings.Eval.Report != "" {
		if err := eval.WriteReport(settings.Eval.Report, report); err != nil {
			return err
		}
		slog.Info("wrote evaluation report", "path", settings.Eval.Report)
	}

	printEvalSummary(cmd.OutOrStdout(), report)
	return eval.Gate(report)
}

// collectReleases returns the releases to evaluate, with text resolved
func collectReleases(ctx context.Context, settings *config.Settings, versions []string) ([]version.Release, error) {
	if settings.Eval.Snapshot != "" {
		all, err := cache.NewManager().Load(settings.Eval.Snapshot)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", config.ErrInvalidConfig, err)
		}
		found, missing := cache.Select(all, versions)
		if len(missing) > 0 {
			slog.Warn("versions missing from snapshot", "versions", missing)
		}
		return found, nil
	}

	client, err := newGitHubClient(settings)
	if err != nil {
		return nil, err
	}
	f := feed.New(client, settings.GitHub.MaxReleases, slog.Default())

	var releases []version.Release
	for _, ver := range versions {
		rel, err := f.Release(ctx, ver)
		if err != nil {
			return nil, err
		}
		if rel == nil {
			slog.Warn("release not found", "version", ver)
			continue
		}
		resolved, err := f.ResolveText(ctx, *rel)
		if err != nil {
			slog.Warn("no text for release", "version", ver, "error", err)
			continue
		}
		releases = append(releases, resolved)
	}
	return releases, nil
}

// classifyAll classifies each release. A release that fails is left out,
// which scores all its notify-worthy entries as missed.
func classifyAll(ctx context.Context, classifier releaseClassifier, releases []version.Release, progress io.Writer) map[string]classify.ClassifiedRelease {
	bar := progressbar.NewOptions(len(releases),
		progressbar.OptionSetWriter(progress),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan][bold]Classifying releases...[reset]"),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(progress)
		}),
	)

	outputs := make(map[string]classify.ClassifiedRelease, len(releases))
	for _, rel := range releases {
		out, err := classifier.Classify(ctx, rel)
		if err != nil {
			slog.Error("failed to classify release", "version", rel.String(), "error", err)
		} else {
			outputs[rel.String()] = out
		}
		if err := bar.Add(1); err != nil {
			slog.Warn("failed to update progress bar", "error", err)
		}
	}
	return outputs
}

type releaseClassifier interface {
	Classify(ctx context.Context, r version.Release) (classify.ClassifiedRelease, error)
}

func printEvalSummary(w io.Writer, report *eval.Report) {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%-10s %4s %4s %4s %4s %8s\n", "Version", "TP", "FN", "FP", "TN", "Recall")
	for _, vr := range report.Versions {
		c := green
		if vr.Counts.FalseNegatives > 0 {
			c = red
		}
		c.Fprintf(w, "%-10s %4d %4d %4d %4d %7.1f%%", vr.Version,
			vr.Counts.TruePositives, vr.Counts.FalseNegatives,
			vr.Counts.FalsePositives, vr.Counts.TrueNegatives,
			vr.Counts.Recall()*100)
		if vr.NoOutput {
			grey.Fprint(w, "  (no output)")
		}
		fmt.Fprintln(w)
	}

	t := report.Total
	fmt.Fprintln(w)
	cyan.Fprintf(w, "Recall: %.1f%%  Precision: %.1f%%  Category agreement: %d/%d  Unlabelled: %d\n",
		t.Recall()*100, t.Precision()*100, t.CategoryAgree, t.Matched, t.Unlabelled)

	for _, vr := range report.Versions {
		for _, e := range vr.Entries {
			if e.Outcome != eval.FalseNegative {
				continue
			}
			red.Fprintf(w, "  FN %s [%s] %s", vr.Version, e.Category, e.Text)
			if e.MatchedText != "" {
				grey.Fprintf(w, " (matched %s: %s)", e.MatchedCategory, e.MatchedText)
			}
			fmt.Fprintln(w)
		}
	}

	printConfusion(w, report.Confusion)

	if report.Passed() {
		green.Fprintln(w, "\n✅ No notify-worthy items missed")
	} else {
		red.Fprintf(w, "\n❌ %d notify-worthy item(s) missed\n", t.FalseNegatives)
	}
}

func printConfusion(w io.Writer, confusion map[string]map[string]int) {
	if len(confusion) == 0 {
		return
	}

	rows := make([]string, 0, len(confusion))
	colSet := make(map[string]bool)
	for truth, cols := range confusion {
		rows = append(rows, truth)
		for predicted := range cols {
			colSet[predicted] = true
		}
	}
	cols := make([]string, 0, len(colSet))
	for c := range colSet {
		cols = append(cols, c)
	}
	sort.Strings(rows)
	sort.Strings(cols)

	fmt.Fprintln(w)
	grey.Fprintln(w, "Confusion (truth → predicted)")
	fmt.Fprintf(w, "%-12s", "")
	for _, c := range cols {
		fmt.Fprintf(w, " %11s", c)
	}
	fmt.Fprintln(w)
	for _, r := range rows {
		fmt.Fprintf(w, "%-12s", r)
		for _, c := range cols {
			fmt.Fprintf(w, " %11d", confusion[r][c])
		}
		fmt.Fprintln(w)
	}
}
